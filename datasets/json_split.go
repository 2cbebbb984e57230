package datasets

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jdkato/prose/v2"
)

type recordRow struct {
	Content          string          `json:"content"`
	ContentSentences []string        `json:"content_sentences"`
	SpotifyGenres    []string        `json:"spotify_genres"`
	AudioFeatures    json.RawMessage `json:"audio_features"`
}

// JSONSplit
// A record-structured corpus: a JSON array of rows, each carrying its
// sentences plus optional genre and audio-feature metadata. Rows without
// pre-split sentences are segmented with prose. Conditioning vectors are
// computed once per row when a condition table is applied, and attached to
// every sentence the row yields.
type JSONSplit struct {
	Path       string
	rows       []recordRow
	sentences  [][]string
	conditions [][]float64
}

func NewJSONSplit(path string) (*JSONSplit, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows []recordRow
	if err := json.Unmarshal(blob, &rows); err != nil {
		return nil, fmt.Errorf("error unmarshalling %s: %v", path, err)
	}
	sentences := make([][]string, len(rows))
	for idx := range rows {
		if len(rows[idx].ContentSentences) > 0 {
			sentences[idx] = rows[idx].ContentSentences
		} else if rows[idx].Content != "" {
			sentences[idx] = splitSentences(rows[idx].Content)
		}
	}
	return &JSONSplit{Path: path, rows: rows, sentences: sentences}, nil
}

// splitSentences
// Segments raw record content into sentences. Tagging, extraction and
// tokenization are all disabled; only the sentence segmenter runs.
func splitSentences(content string) []string {
	doc, err := prose.NewDocument(
		content,
		prose.WithTagging(false),
		prose.WithExtraction(false),
		prose.WithTokenization(false),
	)
	if err != nil {
		log.Printf("Error segmenting record content: %v", err)
		return []string{content}
	}
	segmented := doc.Sentences()
	sentences := make([]string, 0, len(segmented))
	for _, sentence := range segmented {
		sentences = append(sentences, sentence.Text)
	}
	return sentences
}

func (split *JSONSplit) Records() (RecordIterator, error) {
	row, sentence := 0, 0
	return func() *Record {
		for row < len(split.sentences) {
			if sentence >= len(split.sentences[row]) {
				row += 1
				sentence = 0
				continue
			}
			record := &Record{Line: split.sentences[row][sentence]}
			if split.conditions != nil {
				record.Condition = split.conditions[row]
			}
			sentence += 1
			return record
		}
		return nil
	}, nil
}

// GenreLists returns every row's genre labels, used to build the genre
// condition table from a train split.
func (split *JSONSplit) GenreLists() [][]string {
	lists := make([][]string, 0, len(split.rows))
	for idx := range split.rows {
		lists = append(lists, split.rows[idx].SpotifyGenres)
	}
	return lists
}

func (split *JSONSplit) applyGenres(genres *GenreConditions) {
	split.conditions = make([][]float64, len(split.rows))
	for idx := range split.rows {
		split.conditions[idx] = genres.encodeGenres(
			split.rows[idx].SpotifyGenres)
	}
}

func (split *JSONSplit) applyAudioFeatures(audio *AudioFeatureConditions) {
	split.conditions = make([][]float64, len(split.rows))
	for idx := range split.rows {
		features, err := parseAudioFeatures(split.rows[idx].AudioFeatures)
		if err != nil {
			// Recovered locally: a malformed feature payload becomes a
			// zero vector of the expected length.
			log.Printf("Row %d of %s: %v; substituting zero vector",
				idx, split.Path, err)
			split.conditions[idx] = make([]float64, audio.Conditions())
			continue
		}
		split.conditions[idx] = audio.encodeFeatures(features)
	}
}

// firstAudioFeatures
// Finds the first row with a parseable feature payload; all rows share the
// same condition keys, so one row fixes the vector layout.
func (split *JSONSplit) firstAudioFeatures() (map[string]interface{},
	error) {
	for idx := range split.rows {
		if features, err := parseAudioFeatures(
			split.rows[idx].AudioFeatures); err == nil {
			return features, nil
		}
	}
	return nil, fmt.Errorf(
		"no parseable audio features in %s", split.Path)
}

// parseAudioFeatures
// Feature payloads arrive either as a JSON object or as a string holding a
// single-quoted rendition of one; both forms are handled.
func parseAudioFeatures(raw json.RawMessage) (map[string]interface{},
	error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, errors.New("missing audio features")
	}
	var features map[string]interface{}
	if err := json.Unmarshal(raw, &features); err == nil {
		return features, nil
	}
	var quoted string
	if err := json.Unmarshal(raw, &quoted); err == nil {
		fixed := strings.ReplaceAll(quoted, "'", "\"")
		if err := json.Unmarshal([]byte(fixed), &features); err == nil {
			return features, nil
		}
	}
	return nil, errors.New("unparseable audio features")
}
