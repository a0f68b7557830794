package scoring

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombineScoresWeightedSum(t *testing.T) {
	w := Weights{0.4, 0.3, 0.2, 0.1}
	preds := [NumEnsembleModels]float64{80, 60, 40, 20}
	ans := CombineScores(w, preds)
	assert.InDelta(t, 60.0, ans, 0.0001)
}

func TestCombineScoresClipsHigh(t *testing.T) {
	w := Weights{1, 1, 1, 1}
	preds := [NumEnsembleModels]float64{90, 90, 90, 90}
	assert.Equal(t, 100.0, CombineScores(w, preds))
}

func TestCombineScoresClipsLow(t *testing.T) {
	w := Weights{0.25, 0.25, 0.25, 0.25}
	preds := [NumEnsembleModels]float64{-10, -20, -5, -1}
	assert.Equal(t, 0.0, CombineScores(w, preds))
}

func TestWeightsUnmarshalRejectsWrongLength(t *testing.T) {
	var w Weights
	assert.Error(t, json.Unmarshal([]byte("[0.2, 0.2, 0.2, 0.2, 0.2]"), &w))
	assert.Error(t, json.Unmarshal([]byte("[0.5, 0.3, 0.2]"), &w))
	assert.Error(t, json.Unmarshal([]byte("[]"), &w))
}

func TestWeightsUnmarshalExactLength(t *testing.T) {
	var w Weights
	assert.NoError(t, json.Unmarshal([]byte("[0.4, 0.3, 0.2, 0.1]"), &w))
	assert.Equal(t, Weights{0.4, 0.3, 0.2, 0.1}, w)
}
