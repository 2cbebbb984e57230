package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/yargevad/filepathx"

	"pairprep"
	"pairprep/datasets"
)

// parseCondition
// Maps the -condition flag to its dataset variant.
func parseCondition(spec string) (datasets.Condition, error) {
	switch spec {
	case "none":
		return datasets.ConditionNone, nil
	case "genre":
		return datasets.ConditionGenre, nil
	case "af":
		return datasets.ConditionAudioFeatures, nil
	}
	return datasets.ConditionNone, fmt.Errorf(
		"invalid condition spec: %s", spec)
}

// resolvePaths
// A directory input either holds a `train.json`/`test.json` record pair,
// or is a tree of plain `.txt` corpora to glob.
func resolvePaths(input string) (trainPath string, testPath string,
	globbed []string, err error) {
	stat, err := os.Stat(input)
	if err != nil {
		return "", "", nil, err
	}
	if !stat.IsDir() {
		return input, "", nil, nil
	}
	trainJSON := filepath.Join(input, "train.json")
	if _, statErr := os.Stat(trainJSON); statErr == nil {
		testJSON := filepath.Join(input, "test.json")
		if _, statErr := os.Stat(testJSON); statErr != nil {
			testJSON = ""
		}
		return trainJSON, testJSON, nil, nil
	}
	matches, err := filepathx.Glob(input + "/**/*.txt")
	if err != nil {
		return "", "", nil, err
	}
	if len(matches) == 0 {
		return "", "", nil, fmt.Errorf(
			"%s contains neither train.json nor any .txt files", input)
	}
	return "", "", matches, nil
}

// WritePairs
// Serializes pairs to a JSONL file, one pair per line.
func WritePairs(outPath string, pairs []pairprep.Pair) error {
	outFile, err := os.OpenFile(outPath,
		os.O_TRUNC|os.O_RDWR|os.O_CREATE, 0755)
	if err != nil {
		return err
	}
	defer outFile.Close()
	writer := bufio.NewWriterSize(outFile, 8*1024*1024)
	encoder := json.NewEncoder(writer)
	for idx := range pairs {
		if err := encoder.Encode(&pairs[idx]); err != nil {
			return err
		}
	}
	return writer.Flush()
}

func main() {
	inputPath := flag.String("input", "",
		"input corpus: a line or .json file, or a directory")
	testPath := flag.String("test", "",
		"optional test split corpus")
	outputFile := flag.String("output", "pairs.jsonl",
		"processed pair output file")
	cacheDir := flag.String("cache", ".",
		"directory for the vocabulary cache")
	vocabSize := flag.Int("vocab_size", 50000,
		"target vocabulary size, reserved tokens included")
	minLength := flag.Int("min_length", 1,
		"exclusive lower bound on line token count")
	maxLength := flag.Int("max_length", 50,
		"exclusive upper bound on line token count")
	reverseBool := flag.Bool("reverse", false,
		"character-reverse the output side of each pair")
	conditionSpec := flag.String("condition", "none",
		"conditioning metadata to attach [none, genre, af]")
	workers := flag.Int("workers", 0,
		"worker pool size, 0 for the CPU count")
	blockSize := flag.Int("block_size", pairprep.DEFAULT_BLOCK_SZ,
		"lines per pipeline block")
	flag.Parse()
	if *inputPath == "" {
		flag.Usage()
		log.Fatal("Must provide -input for corpus source")
	}
	condition, err := parseCondition(*conditionSpec)
	if err != nil {
		log.Fatal(err)
	}

	preparer := pairprep.NewPairsPreparer()
	preparer.VocabSize = *vocabSize
	preparer.MinLength = *minLength
	preparer.MaxLength = *maxLength
	preparer.Reverse = *reverseBool
	preparer.BlockSize = *blockSize
	if *workers > 0 {
		preparer.Workers = *workers
	}

	log.Printf("Corpus input source: %s", *inputPath)
	log.Printf("Pair output: %s", *outputFile)
	log.Printf("MIN_LENGTH: %d; MAX_LENGTH: %d", *minLength, *maxLength)

	trainPath, dirTestPath, globbed, err := resolvePaths(*inputPath)
	if err != nil {
		log.Fatal(err)
	}
	if *testPath != "" {
		dirTestPath = *testPath
	}

	begin := time.Now()
	var pairs []pairprep.Pair
	if globbed != nil {
		if condition != datasets.ConditionNone {
			log.Fatal("Conditioning requires JSON record input")
		}
		provider, err := datasets.NewMultiLineSplit(globbed)
		if err != nil {
			log.Fatal(err)
		}
		defer provider.Close()
		_, _, globPairs, prepErr := preparer.PreparePairs(provider)
		if prepErr != nil {
			log.Fatal(prepErr)
		}
		pairs = globPairs
	} else {
		ds, err := datasets.NewDataset(trainPath, dirTestPath, condition)
		if err != nil {
			log.Fatal(err)
		}
		data, prepErr := preparer.PrepareDataset(ds, *cacheDir)
		if prepErr != nil {
			log.Fatal(prepErr)
		}
		pairs = append(data.TrainPairs, data.TestPairs...)
		if condition == datasets.ConditionAudioFeatures {
			mean := pairprep.MeanCondition(pairs)
			log.Printf("Mean audio feature condition: %v", mean)
		}
	}

	if err := WritePairs(*outputFile, pairs); err != nil {
		log.Fatal(err)
	}
	duration := time.Now().Sub(begin).Seconds()
	log.Printf("%s pairs in %0.2fs, %0.2f pairs/s",
		humanize.Comma(int64(len(pairs))), duration,
		float64(len(pairs))/duration)
}
