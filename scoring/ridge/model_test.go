package ridge

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrainRecoversLinearRelation(t *testing.T) {
	// y = 2*x1 + 3*x2 + 5
	features := [][]float64{
		{0, 0}, {1, 0}, {0, 1}, {1, 1}, {2, 1}, {1, 2}, {3, 2}, {2, 3},
	}
	targets := make([]float64, len(features))
	for i, f := range features {
		targets[i] = 2*f[0] + 3*f[1] + 5
	}
	m, err := Train(features, targets, 1e-9, "linear test")
	assert.NoError(t, err)
	assert.InDelta(t, 2.0, m.Coef[0], 0.001)
	assert.InDelta(t, 3.0, m.Coef[1], 0.001)
	assert.InDelta(t, 5.0, m.Intercept, 0.001)

	pred, err := m.PredictRow([]float64{4, 4})
	assert.NoError(t, err)
	assert.InDelta(t, 25.0, pred, 0.01)
}

func TestTrainLargeLambdaShrinksCoefficients(t *testing.T) {
	features := [][]float64{{0}, {1}, {2}, {3}}
	targets := []float64{0, 2, 4, 6}
	unreg, err := Train(features, targets, 1e-9, "")
	assert.NoError(t, err)
	reg, err := Train(features, targets, 1000, "")
	assert.NoError(t, err)
	assert.Less(t, reg.Coef[0], unreg.Coef[0])
}

func TestPredictRowWrongDimension(t *testing.T) {
	m := &Model{Coef: []float64{1, 2}, Intercept: 0}
	_, err := m.PredictRow([]float64{1})
	assert.Error(t, err)
}

func TestSaveLoadRoundtrip(t *testing.T) {
	m := &Model{Coef: []float64{1.5, -2.5}, Intercept: 0.25, Lambda: 1, Comment: "test"}
	path := filepath.Join(t.TempDir(), "ridge.json")
	assert.NoError(t, m.SaveToFile(path))
	loaded, err := LoadFromFile(path)
	assert.NoError(t, err)
	assert.Equal(t, m.Coef, loaded.Coef)
	assert.Equal(t, m.Intercept, loaded.Intercept)
	assert.Equal(t, m.Comment, loaded.Comment)
}
