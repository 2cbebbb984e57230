package datasets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var genreLists = [][]string{
	{"rock", "indie rock"},
	{"jazz", "rock"},
}

func TestGenreConditionsEncode(t *testing.T) {
	genres := NewGenreConditions(genreLists)
	// Sorted set plus the unknown slot.
	assert.Equal(t, 4, genres.Conditions())
	assert.Equal(t, []float64{1, 0, 1, 0},
		genres.Encode([]string{"rock", "indie rock"}))
	assert.Equal(t, []float64{0, 0, 0, 1},
		genres.Encode([]string{"zydeco"}))
	assert.Equal(t, []float64{0, 1, 0, 1},
		genres.Encode([]string{"jazz", "zydeco"}))
	assert.Equal(t, []float64{0, 0, 0, 0},
		genres.Encode([]string{}))
}

func TestGenreConditionsEncodeMalformed(t *testing.T) {
	genres := NewGenreConditions(genreLists)
	assert.Equal(t, []float64{0, 0, 0, 0}, genres.Encode(42))
}

func TestGenreConditionsDecode(t *testing.T) {
	genres := NewGenreConditions(genreLists)
	decoded := genres.Decode([]float64{1, 0, 1, 0})
	assert.Equal(t, []string{"indie rock", "rock"}, decoded)
	decoded = genres.Decode([]float64{0, 0, 0, 1})
	assert.Equal(t, []string{"UNK"}, decoded)
}

func TestAudioFeatureConditions(t *testing.T) {
	audio := NewAudioFeatureConditions(map[string]interface{}{
		"tempo":        120.5,
		"energy":       0.8,
		"valence":      0.3,
		"id":           "abc",
		"analysis_url": "http://example.com",
		"duration_ms":  20000.0,
	})
	assert.Equal(t, 3, audio.Conditions())
	assert.Equal(t, []string{"energy", "tempo", "valence"}, audio.Keys())

	vector := audio.Encode(map[string]interface{}{
		"tempo":   90.0,
		"energy":  0.1,
		"valence": 0.9,
		"id":      "xyz",
	})
	assert.Equal(t, []float64{0.1, 90.0, 0.9}, vector)

	// Missing or non-numeric values encode as zero.
	vector = audio.Encode(map[string]interface{}{
		"tempo":  "fast",
		"energy": 0.5,
	})
	assert.Equal(t, []float64{0.5, 0, 0}, vector)
}

func TestAudioFeatureConditionsDecode(t *testing.T) {
	audio := NewAudioFeatureConditions(map[string]interface{}{
		"tempo":  120.5,
		"energy": 0.8,
	})
	decoded := audio.Decode([]float64{0.8, 120.5})
	assert.Equal(t, map[string]float64{"energy": 0.8, "tempo": 120.5},
		decoded)
}

func TestAudioFeatureConditionsEncodeMalformed(t *testing.T) {
	audio := NewAudioFeatureConditions(map[string]interface{}{
		"tempo": 120.5,
	})
	assert.Equal(t, []float64{0}, audio.Encode("nonsense"))
}

func TestNoneConditions(t *testing.T) {
	var encoder ConditionEncoder = NoneConditions{}
	assert.Equal(t, 0, encoder.Conditions())
	assert.Nil(t, encoder.Encode(nil))
	assert.Nil(t, encoder.Decode(nil))
}

func TestDatasetEncoderSelection(t *testing.T) {
	ds := &Dataset{}
	assert.Equal(t, NoneConditions{}, ds.Encoder())
	ds.Genres = NewGenreConditions(genreLists)
	assert.Equal(t, ds.Genres, ds.Encoder())
}
