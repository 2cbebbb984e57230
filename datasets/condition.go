package datasets

import (
	"log"
	"sort"

	mapset "github.com/deckarep/golang-set"
)

// ConditionEncoder
// Converts per-record metadata to a fixed-length numeric vector and back.
// The closed set of variants is None, Genre, and AudioFeature, selected at
// dataset construction. Decode is the inverse projection, used for
// downstream inspection rather than by the pipeline itself.
type ConditionEncoder interface {
	Conditions() int
	Encode(meta interface{}) []float64
	Decode(vector []float64) interface{}
}

// NoneConditions is the unconditioned variant: zero-length vectors.
type NoneConditions struct{}

func (NoneConditions) Conditions() int              { return 0 }
func (NoneConditions) Encode(interface{}) []float64 { return nil }
func (NoneConditions) Decode([]float64) interface{} { return nil }

// GenreConditions
// Multi-hot encoding over a fixed genre set plus one trailing slot for
// unknown genres. The set is built once from a train split's labels and
// sorted, so indices stay stable across splits and runs.
type GenreConditions struct {
	set          mapset.Set
	genreToIndex map[string]int
	indexToGenre []string
}

func NewGenreConditions(genreLists [][]string) *GenreConditions {
	set := mapset.NewSet()
	for _, genres := range genreLists {
		for _, genre := range genres {
			set.Add(genre)
		}
	}
	names := make([]string, 0, set.Cardinality())
	for _, genre := range set.ToSlice() {
		names = append(names, genre.(string))
	}
	sort.Strings(names)
	genreToIndex := make(map[string]int, len(names))
	for idx, genre := range names {
		genreToIndex[genre] = idx
	}
	return &GenreConditions{
		set:          set,
		genreToIndex: genreToIndex,
		indexToGenre: names,
	}
}

func (gc *GenreConditions) Conditions() int {
	return len(gc.indexToGenre) + 1
}

func (gc *GenreConditions) encodeGenres(genres []string) []float64 {
	vector := make([]float64, gc.Conditions())
	for _, genre := range genres {
		if gc.set.Contains(genre) {
			vector[gc.genreToIndex[genre]] = 1
		} else {
			// Unknown genres light the trailing slot.
			vector[len(vector)-1] = 1
		}
	}
	return vector
}

func (gc *GenreConditions) Encode(meta interface{}) []float64 {
	genres, ok := meta.([]string)
	if !ok {
		log.Printf("Malformed genre metadata %T; substituting zero vector",
			meta)
		return make([]float64, gc.Conditions())
	}
	return gc.encodeGenres(genres)
}

func (gc *GenreConditions) Decode(vector []float64) interface{} {
	genres := make([]string, 0)
	for idx, x := range vector {
		if x != 1 {
			continue
		}
		if idx < len(gc.indexToGenre) {
			genres = append(genres, gc.indexToGenre[idx])
		} else {
			genres = append(genres, "UNK")
		}
	}
	return genres
}

// Keys excluded from audio-feature vectors; identifiers and URLs, not
// numeric features.
var audioFeatureIgnoreKeys = map[string]bool{
	"analysis_url": true,
	"duration_ms":  true,
	"id":           true,
	"track_href":   true,
	"type":         true,
	"uri":          true,
}

// AudioFeatureConditions
// Numeric feature vectors taken in sorted-key order over a record's
// feature map, excluding the fixed ignore list. The key layout derives
// from the first parseable train row; all rows share the same keys.
type AudioFeatureConditions struct {
	keys []string
}

func NewAudioFeatureConditions(
	features map[string]interface{}) *AudioFeatureConditions {
	keys := make([]string, 0, len(features))
	for key := range features {
		if !audioFeatureIgnoreKeys[key] {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return &AudioFeatureConditions{keys: keys}
}

func (afc *AudioFeatureConditions) Conditions() int {
	return len(afc.keys)
}

// Keys returns the feature names in vector order.
func (afc *AudioFeatureConditions) Keys() []string {
	return afc.keys
}

func (afc *AudioFeatureConditions) encodeFeatures(
	features map[string]interface{}) []float64 {
	vector := make([]float64, len(afc.keys))
	for idx, key := range afc.keys {
		if value, ok := features[key].(float64); ok {
			vector[idx] = value
		}
	}
	return vector
}

func (afc *AudioFeatureConditions) Encode(meta interface{}) []float64 {
	features, ok := meta.(map[string]interface{})
	if !ok {
		log.Printf(
			"Malformed audio feature metadata %T; substituting zero vector",
			meta)
		return make([]float64, afc.Conditions())
	}
	return afc.encodeFeatures(features)
}

func (afc *AudioFeatureConditions) Decode(vector []float64) interface{} {
	features := make(map[string]float64, len(afc.keys))
	for idx, key := range afc.keys {
		if idx < len(vector) {
			features[key] = vector[idx]
		}
	}
	return features
}
