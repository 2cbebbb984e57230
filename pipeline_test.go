package pairprep

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairprep/datasets"
)

// sliceProvider is a re-iterable in-memory record source.
type sliceProvider struct {
	records []datasets.Record
}

func (sp *sliceProvider) Records() (datasets.RecordIterator, error) {
	idx := 0
	return func() *datasets.Record {
		if idx >= len(sp.records) {
			return nil
		}
		record := &sp.records[idx]
		idx += 1
		return record
	}, nil
}

func lineProvider(lines []string) *sliceProvider {
	records := make([]datasets.Record, len(lines))
	for idx, line := range lines {
		records[idx] = datasets.Record{Line: line}
	}
	return &sliceProvider{records: records}
}

func testPreparer() PairsPreparer {
	preparer := NewPairsPreparer()
	preparer.VocabSize = 5
	preparer.MinLength = 1
	preparer.MaxLength = 10
	preparer.StatusEvery = 0
	return preparer
}

func sortPairs(pairs []Pair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Input != pairs[j].Input {
			return pairs[i].Input < pairs[j].Input
		}
		return pairs[i].Output < pairs[j].Output
	})
}

func TestPreparePairs(t *testing.T) {
	preparer := testPreparer()
	inputSide, outputSide, pairs, err := preparer.PreparePairs(
		lineProvider(smallCorpus))
	require.NoError(t, err)
	assert.Equal(t, []string{"SOS", "EOS", "UNK", "the", "cat"},
		inputSide.Vocabulary)
	assert.False(t, outputSide.Reverse)

	// "a" fails the length filter; the other two lines survive.
	sortPairs(pairs)
	require.Len(t, pairs, 2)
	assert.Equal(t, "the cat UNK", pairs[0].Input)
	assert.Equal(t, "the cat UNK", pairs[0].Output)
	assert.Equal(t, "the cat UNK UNK the the the UNK UNK",
		pairs[1].Input)
}

func TestPreparePairsReverse(t *testing.T) {
	preparer := testPreparer()
	preparer.Reverse = true
	_, outputSide, pairs, err := preparer.PreparePairs(
		lineProvider(smallCorpus))
	require.NoError(t, err)
	assert.True(t, outputSide.Reverse)
	require.NotEmpty(t, pairs)
	// The output side of every pair is the character-reversal of its
	// encoded input side.
	for _, pair := range pairs {
		assert.Equal(t, reverseString(pair.Input), pair.Output)
	}
}

func TestPreparePairsLengthFilter(t *testing.T) {
	corpus := []string{
		"a",
		"one two three four five six seven eight nine ten",
		"the cat sat",
	}
	preparer := testPreparer()
	_, _, pairs, err := preparer.PreparePairs(lineProvider(corpus))
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "the cat UNK", pairs[0].Input)
}

func TestPreparePairsEmptyProvider(t *testing.T) {
	preparer := testPreparer()
	done := make(chan struct{})
	go func() {
		defer close(done)
		inputSide, _, pairs, err := preparer.PreparePairs(
			lineProvider(nil))
		assert.NoError(t, err)
		assert.Equal(t, []string{"SOS", "EOS", "UNK"},
			inputSide.Vocabulary)
		assert.Empty(t, pairs)
	}()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("pipeline failed to terminate on an empty provider")
	}
}

func TestPreparePairsConditionsTravel(t *testing.T) {
	records := []datasets.Record{
		{Line: "the cat sat", Condition: []float64{0, 1}},
		{Line: "a", Condition: []float64{1, 0}},
	}
	preparer := testPreparer()
	_, _, pairs, err := preparer.PreparePairs(
		&sliceProvider{records: records})
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, []float64{0, 1}, pairs[0].Condition)
}

func TestProcessSplitOrderIndependence(t *testing.T) {
	lines := make([]string, 10000)
	for idx := range lines {
		lines[idx] = fmt.Sprintf("the cat number %d sat on mat %d",
			idx%7, idx)
	}
	preparer := NewPairsPreparer()
	preparer.VocabSize = 10
	preparer.MinLength = 1
	preparer.MaxLength = 20
	preparer.StatusEvery = 0

	provider := lineProvider(lines)
	next, err := provider.Records()
	require.NoError(t, err)
	words, _ := BuildVocabulary(next, preparer.VocabSize,
		preparer.MinLength, preparer.MaxLength)
	inputSide := NewLang("in", words, preparer.VocabSize, false)
	outputSide := NewLang("out", words, preparer.VocabSize, true)

	preparer.Workers = 4
	preparer.QueueDepth = 16
	preparer.BlockSize = 32
	parallel, err := preparer.ProcessSplit(provider, inputSide,
		outputSide)
	require.NoError(t, err)

	preparer.Workers = 1
	preparer.QueueDepth = 1
	serial, err := preparer.ProcessSplit(provider, inputSide, outputSide)
	require.NoError(t, err)

	// Same unordered multiset regardless of pool size.
	require.Len(t, parallel, len(serial))
	sortPairs(parallel)
	sortPairs(serial)
	assert.Equal(t, serial, parallel)
}

func TestProcessSplitRejectsBadConfig(t *testing.T) {
	preparer := testPreparer()
	lang := NewLang("in", testVocabulary, -1, false)
	preparer.Workers = 0
	_, err := preparer.ProcessSplit(lineProvider(nil), lang, lang)
	assert.Error(t, err)

	preparer = testPreparer()
	preparer.BlockSize = 0
	_, err = preparer.ProcessSplit(lineProvider(nil), lang, lang)
	assert.Error(t, err)
}

func TestPrepareDataset(t *testing.T) {
	dir := t.TempDir()
	corpusPath := writeTempCorpus(t, dir, smallCorpus)
	cacheDir := t.TempDir()

	ds, err := datasets.NewDataset(corpusPath, "",
		datasets.ConditionNone)
	require.NoError(t, err)

	preparer := testPreparer()
	preparer.Reverse = true
	data, err := preparer.PrepareDataset(ds, cacheDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"SOS", "EOS", "UNK", "the", "cat"},
		data.InputSide.Vocabulary)
	assert.Equal(t, []string{"SOS", "SOE", "KNU", "eht", "tac"},
		data.OutputSide.Vocabulary)
	assert.Len(t, data.TrainPairs, 2)
	assert.Nil(t, data.TestPairs)

	// The vocabulary cache was persisted; a second run loads it.
	cachePath := VocabularyCachePath(cacheDir, corpusPath)
	_, _, err = LoadVocabulary(cachePath)
	assert.NoError(t, err)

	again, err := preparer.PrepareDataset(ds, cacheDir)
	require.NoError(t, err)
	assert.Equal(t, data.InputSide.Vocabulary,
		again.InputSide.Vocabulary)
	assert.Equal(t, data.OutputSide.Vocabulary,
		again.OutputSide.Vocabulary)
}

func TestMeanCondition(t *testing.T) {
	pairs := []Pair{
		{Input: "a", Output: "a", Condition: []float64{1, 2}},
		{Input: "b", Output: "b", Condition: []float64{3, 4}},
		{Input: "c", Output: "c"},
	}
	assert.Equal(t, []float64{2, 3}, MeanCondition(pairs))
	assert.Nil(t, MeanCondition(nil))
	assert.Nil(t, MeanCondition([]Pair{{Input: "c", Output: "c"}}))
}

func writeTempCorpus(t *testing.T, dir string,
	lines []string) string {
	t.Helper()
	path := filepath.Join(dir, "corpus.txt")
	blob := ""
	for _, line := range lines {
		blob += line + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(blob), 0644))
	return path
}
