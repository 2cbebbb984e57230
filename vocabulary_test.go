package pairprep

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pairprep/datasets"
)

// sliceIterator yields the given lines as records, then nil.
func sliceIterator(lines []string) datasets.RecordIterator {
	idx := 0
	return func() *datasets.Record {
		if idx >= len(lines) {
			return nil
		}
		record := &datasets.Record{Line: lines[idx]}
		idx += 1
		return record
	}
}

var smallCorpus = []string{
	"the cat sat",
	"a",
	"the cat sat on the the the mat quickly",
}

func TestBuildVocabulary(t *testing.T) {
	words, reverseWords := BuildVocabulary(sliceIterator(smallCorpus),
		5, 1, 10)
	assert.Equal(t, []string{"SOS", "EOS", "UNK", "the", "cat"}, words)
	assert.Equal(t, []string{"SOS", "SOE", "KNU", "eht", "tac"},
		reverseWords)
}

func TestBuildVocabularyEmptyCorpus(t *testing.T) {
	words, reverseWords := BuildVocabulary(sliceIterator(nil), 100, 1, 10)
	assert.Equal(t, []string{"SOS", "EOS", "UNK"}, words)
	assert.Equal(t, []string{"SOS", "SOE", "KNU"}, reverseWords)
}

func TestBuildVocabularyAllFiltered(t *testing.T) {
	// Single-token and over-length lines never qualify.
	corpus := []string{"a", "b", "one two three four five"}
	words, _ := BuildVocabulary(sliceIterator(corpus), 100, 1, 4)
	assert.Equal(t, []string{"SOS", "EOS", "UNK"}, words)
}

func TestBuildVocabularyTieBreak(t *testing.T) {
	// cat and sat tie at two; cat was seen first.
	corpus := []string{
		"the cat ran",
		"the sat cat",
		"the sat dog",
	}
	words, _ := BuildVocabulary(sliceIterator(corpus), 6, 1, 10)
	assert.Equal(t, []string{"SOS", "EOS", "UNK", "the", "cat", "sat"},
		words)
}

func TestBuildVocabularyCapsAtDistinctWords(t *testing.T) {
	words, _ := BuildVocabulary(sliceIterator([]string{"the cat sat"}),
		1000, 1, 10)
	assert.Len(t, words, 6)
	assert.Equal(t, []string{"SOS", "EOS", "UNK"}, words[:3])
	assert.ElementsMatch(t, []string{"the", "cat", "sat"}, words[3:])
}

func TestBuildVocabularyNormalizes(t *testing.T) {
	words, _ := BuildVocabulary(sliceIterator([]string{"The CAT, sat!"}),
		10, 1, 10)
	assert.Equal(t, []string{"SOS", "EOS", "UNK", "the", "cat", "sat"},
		words)
}
