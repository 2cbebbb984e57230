package pairprep

import (
	"log"
	"strings"

	lru "github.com/hashicorp/golang-lru"
)

const ENCODE_LRU_SZ = 65536

// Lang
// A bidirectional word/index table built from an ordered vocabulary.
// Lookups are total functions: a miss in either direction resolves to the
// UNK token rather than an error. Immutable once constructed; safe to share
// across workers.
type Lang struct {
	Name        string
	Vocabulary  []string
	Reverse     bool
	wordToIndex map[string]int
	cache       *lru.ARCCache
}

// NewLang
// Builds a Lang from a vocabulary list, truncating it to `vocabularySize`
// entries when the list is longer (a negative size keeps everything; the
// reserved tokens always survive truncation since they occupy the leading
// slots). With `reverse` set, every word is stored character-reversed,
// which is the table used for the reversed output side of a pair.
func NewLang(name string, vocabulary []string, vocabularySize int,
	reverse bool) *Lang {
	words := make([]string, len(vocabulary))
	if reverse {
		for idx, word := range vocabulary {
			words[idx] = reverseString(word)
		}
	} else {
		copy(words, vocabulary)
	}
	if vocabularySize < 0 || vocabularySize > len(words) {
		vocabularySize = len(words)
	}
	if vocabularySize < len(words) {
		log.Printf("Trimming vocabulary size from %d to %d",
			len(words), vocabularySize)
	}
	words = words[:vocabularySize]
	wordToIndex := make(map[string]int, len(words))
	for idx, word := range words {
		if _, dup := wordToIndex[word]; !dup {
			wordToIndex[word] = idx
		}
	}
	cache, _ := lru.NewARC(ENCODE_LRU_SZ)
	return &Lang{
		Name:        name,
		Vocabulary:  words,
		Reverse:     reverse,
		wordToIndex: wordToIndex,
		cache:       cache,
	}
}

func (lang *Lang) Size() int {
	return len(lang.Vocabulary)
}

// IndexOf
// Lowercases the query and returns its vocabulary index, or the UNK index
// on a miss. Never fails.
func (lang *Lang) IndexOf(word string) int {
	if idx, ok := lang.wordToIndex[strings.ToLower(word)]; ok {
		return idx
	}
	return UNK_TOKEN
}

// WordOf
// Returns the word at an index, or the UNK word when the index is out of
// range. Never fails.
func (lang *Lang) WordOf(index int) string {
	if index >= 0 && index < len(lang.Vocabulary) {
		return lang.Vocabulary[index]
	}
	return lang.Vocabulary[UNK_TOKEN]
}

// EncodeSentence
// Maps every whitespace token of a normalized sentence through the
// vocabulary membership test: in-vocabulary tokens pass through unchanged,
// the rest become the UNK word. Results are memoized in an ARC cache, as
// corpus lines repeat heavily.
func (lang *Lang) EncodeSentence(sentence string) string {
	if cached, ok := lang.cache.Get(sentence); ok {
		return cached.(string)
	}
	tokens := strings.Split(sentence, " ")
	encoded := make([]string, len(tokens))
	for idx, token := range tokens {
		if _, ok := lang.wordToIndex[token]; ok {
			encoded[idx] = token
		} else {
			encoded[idx] = lang.Vocabulary[UNK_TOKEN]
		}
	}
	result := strings.Join(encoded, " ")
	lang.cache.Add(sentence, result)
	return result
}
