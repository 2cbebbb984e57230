package pairprep

import (
	"log"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"pairprep/datasets"
)

// Indices of the reserved tokens, fixed at the head of every vocabulary.
const (
	SOS_TOKEN = 0
	EOS_TOKEN = 1
	UNK_TOKEN = 2
)

const VOCAB_STATUS_EVERY = 100000

var reservedTokens = []string{"SOS", "EOS", "UNK"}

// BuildVocabulary
// Runs a single frequency-counting pass over the provided records and
// returns the vocabulary: the three reserved tokens followed by the
// `targetSize - 3` most frequent words, ties broken by first-seen order.
// The second list is the character-reversed counterpart of the first,
// reserved tokens included. An empty or fully-filtered corpus yields just
// the reserved tokens.
func BuildVocabulary(next datasets.RecordIterator, targetSize int,
	minLength int, maxLength int) (words []string, reverseWords []string) {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	lineIdx := 0
	for {
		record := next()
		if record == nil {
			break
		}
		if lineIdx%VOCAB_STATUS_EVERY == 0 {
			log.Printf("Fetching vocabulary from line %s",
				humanize.Comma(int64(lineIdx)))
			log.Printf("Current word count %s",
				humanize.Comma(int64(len(counts))))
		}
		lineIdx += 1
		line := strings.TrimSpace(record.Line)
		if !qualifies(line, minLength, maxLength) {
			continue
		}
		for _, word := range strings.Split(Normalize(line), " ") {
			if word == "" {
				continue
			}
			if _, seen := counts[word]; !seen {
				firstSeen[word] = len(firstSeen)
			}
			counts[word] += 1
		}
	}

	ranked := make([]string, 0, len(counts))
	for word := range counts {
		ranked = append(ranked, word)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return firstSeen[ranked[i]] < firstSeen[ranked[j]]
	})
	keep := targetSize - len(reservedTokens)
	if keep < 0 {
		keep = 0
	} else if keep > len(ranked) {
		keep = len(ranked)
	}

	words = make([]string, 0, len(reservedTokens)+keep)
	words = append(words, reservedTokens...)
	words = append(words, ranked[:keep]...)
	reverseWords = make([]string, 0, len(words))
	for _, word := range words {
		reverseWords = append(reverseWords, reverseString(word))
	}
	return words, reverseWords
}
