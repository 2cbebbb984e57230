package pairprep

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	sentencePuncPat = regexp.MustCompile(`([.!?])`)
	nonWordPat      = regexp.MustCompile(`[^\pL\pN_]+`)
	whitespacePat   = regexp.MustCompile(`\s+`)
)

// stripMarks
// Decomposes a string to NFD, drops the combining marks, and recomposes,
// turning accented characters into their plain counterparts. The transform
// chain carries state, so a fresh one is built per call to stay safe under
// concurrent workers.
func stripMarks(s string) string {
	chain := transform.Chain(norm.NFD,
		runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(chain, s)
	if err != nil {
		return s
	}
	return stripped
}

// Normalize
// Maps a raw corpus line to its canonical form: accent-stripped, lowercased,
// apostrophes deleted, sentence punctuation spaced off, runs of non-word
// characters reduced to single spaces. Pure and idempotent; any input yields
// an output, possibly empty.
func Normalize(s string) string {
	s = stripMarks(s)
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "'", "")
	s = sentencePuncPat.ReplaceAllString(s, " $1")
	s = nonWordPat.ReplaceAllString(s, " ")
	s = whitespacePat.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func reverseString(s string) string {
	reversed := []rune(s)
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	return string(reversed)
}

// qualifies
// The process-wide length filter: a line passes only if its single-space
// token count lies strictly between the two bounds.
func qualifies(line string, minLength int, maxLength int) bool {
	numTokens := len(strings.Split(line, " "))
	return minLength < numTokens && numTokens < maxLength
}
