package pairprep

import (
	"errors"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/gonum/floats"

	"pairprep/datasets"
)

const (
	DEFAULT_BLOCK_SZ     = 1000
	DEFAULT_QUEUE_FACTOR = 64
)

// Pair
// One processed training pair: the vocabulary-encoded input line, the
// encoded output line (character-reversed when reverse mode is on), and
// any conditioning vector that traveled alongside the raw record.
type Pair struct {
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	Condition []float64 `json:"condition,omitempty"`
}

// PairsPreparer
// A struct that encapsulates the configuration for the streaming
// corpus-to-pair pipeline: the vocabulary target, the length filter
// bounds, and the worker pool shape.
type PairsPreparer struct {
	VocabSize     int
	MinLength     int
	MaxLength     int
	Reverse       bool
	Workers       int
	BlockSize     int
	QueueDepth    int
	DrainInterval time.Duration
	StatusEvery   int
}

// NewPairsPreparer
// Creates a new PairsPreparer struct with the default configuration.
func NewPairsPreparer() PairsPreparer {
	workers := runtime.NumCPU()
	return PairsPreparer{
		VocabSize:     50000,
		MinLength:     1,
		MaxLength:     50,
		Reverse:       false,
		Workers:       workers,
		BlockSize:     DEFAULT_BLOCK_SZ,
		QueueDepth:    workers * DEFAULT_QUEUE_FACTOR,
		DrainInterval: 2 * time.Second,
		StatusEvery:   100000,
	}
}

// PairData
// The output of preparing a full dataset: both encoders plus the pairs for
// the train split and, when present, the test split.
type PairData struct {
	InputSide  *Lang
	OutputSide *Lang
	TrainPairs []Pair
	TestPairs  []Pair
}

// procLine
// The per-element transform run inside a worker: trim, length-filter on
// the raw form, normalize, length-filter the normalized pair, reverse the
// output side when configured, and encode both sides. Returns false for
// rejects; rejection is never an error.
func (pp *PairsPreparer) procLine(record *datasets.Record, inputSide *Lang,
	outputSide *Lang) (Pair, bool) {
	line := strings.TrimSpace(record.Line)
	if len(line) == 0 {
		return Pair{}, false
	}
	// Bail as early as possible to minimize processing.
	if !qualifies(line, pp.MinLength, pp.MaxLength) {
		return Pair{}, false
	}
	normalized := Normalize(line)
	if !qualifies(normalized, pp.MinLength, pp.MaxLength) {
		return Pair{}, false
	}
	output := normalized
	if pp.Reverse {
		output = reverseString(normalized)
	}
	return Pair{
		Input:     inputSide.EncodeSentence(normalized),
		Output:    outputSide.EncodeSentence(output),
		Condition: record.Condition,
	}, true
}

// worker
// Pulls blocks from the inbound channel until it is closed, transforms
// every element, and pushes the survivors outbound. A block with zero
// survivors produces no outbound push. Workers only read the immutable
// encoders; the close of the inbound channel is each worker's shutdown
// sentinel, acknowledged through the WaitGroup.
func (pp *PairsPreparer) worker(inputSide *Lang, outputSide *Lang,
	blocks <-chan []datasets.Record, results chan<- []Pair,
	wg *sync.WaitGroup) {
	defer wg.Done()
	for block := range blocks {
		survivors := make([]Pair, 0, len(block))
		for idx := range block {
			if pair, ok := pp.procLine(&block[idx], inputSide,
				outputSide); ok {
				survivors = append(survivors, pair)
			}
		}
		if len(survivors) > 0 {
			results <- survivors
		}
	}
}

// ProcessSplit
// The orchestrator's streaming phase: batches the provider's records into
// fixed-size blocks pushed onto a bounded inbound channel, with a pool of
// workers feeding a bounded outbound channel. A saturated inbound channel
// blocks the producer, bounding in-flight memory by queue depth times
// block size rather than corpus size; while blocked, the producer drains
// outbound results so the two queues can never deadlock each other. Once
// the provider is exhausted the final partial block is pushed, the inbound
// channel is closed, and the collector drains outbound until every worker
// has acknowledged shutdown. The returned pairs are an unordered multiset.
func (pp *PairsPreparer) ProcessSplit(provider datasets.RecordProvider,
	inputSide *Lang, outputSide *Lang) ([]Pair, error) {
	if pp.Workers < 1 {
		return nil, errors.New("pairprep: worker pool size must be >= 1")
	}
	if pp.BlockSize < 1 {
		return nil, errors.New("pairprep: block size must be >= 1")
	}
	next, err := provider.Records()
	if err != nil {
		return nil, err
	}
	depth := pp.QueueDepth
	if depth < pp.Workers {
		depth = pp.Workers
	}
	blocks := make(chan []datasets.Record, depth)
	results := make(chan []Pair, depth)
	var wg sync.WaitGroup
	for w := 0; w < pp.Workers; w++ {
		wg.Add(1)
		go pp.worker(inputSide, outputSide, blocks, results, &wg)
	}

	pairs := make([]Pair, 0)
	// Non-blocking periodic drain; an empty channel just means nothing is
	// ready yet.
	drain := func() {
		for {
			select {
			case processed := <-results:
				pairs = append(pairs, processed...)
			default:
				return
			}
		}
	}
	// Push a block, consuming results whenever the inbound channel is
	// saturated.
	enqueue := func(block []datasets.Record) {
		for {
			select {
			case blocks <- block:
				return
			case processed := <-results:
				pairs = append(pairs, processed...)
			}
		}
	}

	begin := time.Now()
	lastDrain := begin
	block := make([]datasets.Record, 0, pp.BlockSize)
	lineIdx := 0
	for {
		record := next()
		if record == nil {
			break
		}
		block = append(block, *record)
		if len(block) >= pp.BlockSize {
			enqueue(block)
			block = make([]datasets.Record, 0, pp.BlockSize)
		}
		if time.Since(lastDrain) > pp.DrainInterval {
			drain()
			lastDrain = time.Now()
		}
		if pp.StatusEvery > 0 && lineIdx > 0 &&
			lineIdx%pp.StatusEvery == 0 {
			elapsed := time.Since(begin).Seconds()
			log.Printf("Queued line %s", humanize.Comma(int64(lineIdx)))
			log.Printf("Elapsed time %0.2fs, total pairs %s, "+
				"approximately %0.2f lines/s", elapsed,
				humanize.Comma(int64(len(pairs))),
				float64(len(pairs))/elapsed)
		}
		lineIdx += 1
	}
	if len(block) > 0 {
		enqueue(block)
	}
	close(blocks)

	go func() {
		wg.Wait()
		close(results)
	}()
	for processed := range results {
		pairs = append(pairs, processed...)
	}
	log.Printf("Final pair count %s", humanize.Comma(int64(len(pairs))))
	return pairs, nil
}

// PreparePairs
// The pipeline entry point: one vocabulary-building pass over the provider
// followed by the parallel pair pass, returning the forward encoder, the
// output-side encoder, and the collected pairs. Both passes share the same
// normalization and length-filter rules, which keeps the vocabulary and
// the pairs consistent.
func (pp *PairsPreparer) PreparePairs(provider datasets.RecordProvider) (
	*Lang, *Lang, []Pair, error) {
	next, err := provider.Records()
	if err != nil {
		return nil, nil, nil, err
	}
	words, _ := BuildVocabulary(next, pp.VocabSize, pp.MinLength,
		pp.MaxLength)
	inputSide := NewLang("in", words, pp.VocabSize, false)
	outputSide := NewLang("out", words, pp.VocabSize, pp.Reverse)
	pairs, err := pp.ProcessSplit(provider, inputSide, outputSide)
	if err != nil {
		return nil, nil, nil, err
	}
	return inputSide, outputSide, pairs, nil
}

// PrepareDataset
// Prepares a full dataset: resolves the vocabulary through the
// get-or-compute cache keyed by the train corpus name, builds both
// encoders, and runs the pair pipeline over the train split and, when
// present, the test split.
func (pp *PairsPreparer) PrepareDataset(ds *datasets.Dataset,
	cacheDir string) (*PairData, error) {
	cachePath := VocabularyCachePath(cacheDir, ds.TrainPath)
	var words, reverseWords []string
	if _, statErr := os.Stat(cachePath); statErr == nil {
		log.Printf("Vocabulary cache %s found", cachePath)
		var loadErr error
		words, reverseWords, loadErr = LoadVocabulary(cachePath)
		if loadErr != nil {
			return nil, loadErr
		}
	} else {
		log.Printf("Vocabulary cache %s not found", cachePath)
		next, err := ds.Train.Records()
		if err != nil {
			return nil, err
		}
		words, reverseWords = BuildVocabulary(next, pp.VocabSize,
			pp.MinLength, pp.MaxLength)
		if err := SaveVocabulary(cachePath, words,
			reverseWords); err != nil {
			return nil, fmt.Errorf(
				"error persisting vocabulary cache: %v", err)
		}
	}

	inputSide := NewLang("in", words, pp.VocabSize, false)
	var outputSide *Lang
	if pp.Reverse {
		// The cached reversed list is already character-reversed, so the
		// output side is built from it directly.
		outputSide = NewLang("out", reverseWords, pp.VocabSize, false)
		outputSide.Reverse = true
	} else {
		outputSide = NewLang("out", words, pp.VocabSize, false)
	}

	log.Print("Pair preparation for train split")
	trainPairs, err := pp.ProcessSplit(ds.Train, inputSide, outputSide)
	if err != nil {
		return nil, err
	}
	data := &PairData{
		InputSide:  inputSide,
		OutputSide: outputSide,
		TrainPairs: trainPairs,
	}
	if ds.Test != nil {
		log.Print("Pair preparation for test split")
		testPairs, err := pp.ProcessSplit(ds.Test, inputSide, outputSide)
		if err != nil {
			return nil, err
		}
		data.TestPairs = testPairs
	}
	return data, nil
}

// MeanCondition
// Element-wise mean of the conditioning vectors attached to a pair
// collection. Pairs without a vector are skipped; returns nil when none
// carry one.
func MeanCondition(pairs []Pair) []float64 {
	var mean []float64
	conditioned := 0
	for idx := range pairs {
		condition := pairs[idx].Condition
		if condition == nil {
			continue
		}
		if mean == nil {
			mean = make([]float64, len(condition))
		}
		floats.Add(mean, condition)
		conditioned += 1
	}
	if conditioned > 0 {
		floats.Scale(1/float64(conditioned), mean)
	}
	return mean
}
