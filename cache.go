package pairprep

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// The vocabulary cache is a get-or-compute artifact keyed by the corpus
// name: two ordered word lists, serialized as JSON.
type vocabularyFile struct {
	Words        []string `json:"words"`
	ReverseWords []string `json:"reverse_words"`
}

// VocabularyCachePath
// Derives the cache file path for a corpus: the corpus base name with a
// `_vocabulary.json` suffix, under `cacheDir`.
func VocabularyCachePath(cacheDir string, corpusPath string) string {
	base := filepath.Base(corpusPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(cacheDir, base+"_vocabulary.json")
}

func SaveVocabulary(path string, words []string,
	reverseWords []string) error {
	blob, err := json.Marshal(vocabularyFile{words, reverseWords})
	if err != nil {
		return err
	}
	return os.WriteFile(path, blob, 0644)
}

func LoadVocabulary(path string) (words []string, reverseWords []string,
	err error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var cached vocabularyFile
	if err := json.Unmarshal(blob, &cached); err != nil {
		return nil, nil, fmt.Errorf(
			"error unmarshalling vocabulary cache %s: %v", path, err)
	}
	return cached.Words, cached.ReverseWords, nil
}
