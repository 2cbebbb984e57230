package datasets

import (
	"fmt"
	"strings"
)

// Record
// One raw corpus element: a line of text, optionally carrying the
// fixed-length conditioning vector encoded from its record's metadata.
type Record struct {
	Line      string
	Condition []float64
}

// RecordIterator
// Yields records one at a time, returning nil once the source is
// exhausted.
type RecordIterator func() *Record

// RecordProvider
// A re-iterable record source; every Records call returns a fresh
// iterator over the full corpus.
type RecordProvider interface {
	Records() (RecordIterator, error)
}

// Condition selects which conditioning encoder a dataset is built with.
type Condition int

const (
	ConditionNone Condition = iota
	ConditionGenre
	ConditionAudioFeatures
)

// Dataset
// A train split plus an optional test split. For conditioned variants the
// condition tables are built once from the train split and shared with the
// test split, keeping indices consistent across both.
type Dataset struct {
	TrainPath     string
	TestPath      string
	Train         RecordProvider
	Test          RecordProvider
	Conditions    int
	Genres        *GenreConditions
	AudioFeatures *AudioFeatureConditions
}

// Encoder returns the dataset's conditioning encoder variant.
func (ds *Dataset) Encoder() ConditionEncoder {
	switch {
	case ds.Genres != nil:
		return ds.Genres
	case ds.AudioFeatures != nil:
		return ds.AudioFeatures
	}
	return NoneConditions{}
}

// NewDataset
// Composes a dataset from corpus paths. A `.json` extension selects the
// record-structured reader; anything else is read as plain lines, which
// carry no metadata and therefore cannot be conditioned.
func NewDataset(trainPath string, testPath string,
	condition Condition) (*Dataset, error) {
	ds := &Dataset{TrainPath: trainPath, TestPath: testPath}

	if !strings.HasSuffix(trainPath, ".json") {
		if condition != ConditionNone {
			return nil, fmt.Errorf(
				"datasets: conditioning on %q requires JSON records",
				trainPath)
		}
		train, err := NewLineSplit(trainPath)
		if err != nil {
			return nil, err
		}
		ds.Train = train
		if testPath != "" {
			test, err := NewLineSplit(testPath)
			if err != nil {
				return nil, err
			}
			ds.Test = test
		}
		return ds, nil
	}

	train, err := NewJSONSplit(trainPath)
	if err != nil {
		return nil, err
	}
	var test *JSONSplit
	if testPath != "" {
		if test, err = NewJSONSplit(testPath); err != nil {
			return nil, err
		}
	}
	switch condition {
	case ConditionGenre:
		genres := NewGenreConditions(train.GenreLists())
		train.applyGenres(genres)
		if test != nil {
			test.applyGenres(genres)
		}
		ds.Genres = genres
		ds.Conditions = genres.Conditions()
	case ConditionAudioFeatures:
		features, featErr := train.firstAudioFeatures()
		if featErr != nil {
			return nil, featErr
		}
		audio := NewAudioFeatureConditions(features)
		train.applyAudioFeatures(audio)
		if test != nil {
			test.applyAudioFeatures(audio)
		}
		ds.AudioFeatures = audio
		ds.Conditions = audio.Conditions()
	}
	ds.Train = train
	if test != nil {
		ds.Test = test
	}
	return ds, nil
}
