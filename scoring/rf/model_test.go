package rf

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantileEdges(t *testing.T) {
	targets := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	edges := quantileEdges(targets, 2)
	assert.Equal(t, []float64{0, 5, 10}, edges)
}

func TestBinIndex(t *testing.T) {
	edges := []float64{0, 5, 10}
	assert.Equal(t, 0, binIndex(edges, 2))
	assert.Equal(t, 1, binIndex(edges, 5))
	assert.Equal(t, 1, binIndex(edges, 9))
	// out-of-range values land in the edge bins
	assert.Equal(t, 0, binIndex(edges, -1))
	assert.Equal(t, 1, binIndex(edges, 100))
}

func TestTrainValidation(t *testing.T) {
	m := NewModel(10)
	assert.Error(t, m.Train(nil, nil, 5, ""))
	assert.Error(t, m.Train([][]float64{{1}}, []float64{1, 2}, 5, ""))
	assert.Error(t, m.Train([][]float64{{1}}, []float64{1}, 1, ""))
	m2 := NewModel(0)
	assert.Error(t, m2.Train([][]float64{{1}}, []float64{1}, 5, ""))
}

func TestTrainAndPredictSeparatedClusters(t *testing.T) {
	features := make([][]float64, 0, 40)
	targets := make([]float64, 0, 40)
	for i := 0; i < 20; i++ {
		features = append(features, []float64{0.1, 0.1})
		targets = append(targets, 10)
		features = append(features, []float64{10, 10})
		targets = append(targets, 90)
	}
	m := NewModel(50)
	assert.NoError(t, m.Train(features, targets, 2, "test model"))
	low, err := m.PredictRow([]float64{0.1, 0.1})
	assert.NoError(t, err)
	high, err := m.PredictRow([]float64{10, 10})
	assert.NoError(t, err)
	assert.Less(t, low, high)
	assert.InDelta(t, 10, low, 25)
	assert.InDelta(t, 90, high, 25)
}

func TestSaveLoadRoundtrip(t *testing.T) {
	features := make([][]float64, 0, 40)
	targets := make([]float64, 0, 40)
	for i := 0; i < 20; i++ {
		features = append(features, []float64{0.1, 0.1})
		targets = append(targets, 10)
		features = append(features, []float64{10, 10})
		targets = append(targets, 90)
	}
	m := NewModel(50)
	assert.NoError(t, m.Train(features, targets, 2, "roundtrip model"))

	path := filepath.Join(t.TempDir(), "model.rf.json")
	assert.NoError(t, m.SaveToFile(path))
	loaded, err := LoadFromFile(path)
	assert.NoError(t, err)
	assert.Equal(t, m.BinMidpoints, loaded.BinMidpoints)
	assert.Equal(t, m.NumTrees, loaded.NumTrees)
	assert.Equal(t, m.Comment, loaded.Comment)

	low, err := loaded.PredictRow([]float64{0.1, 0.1})
	assert.NoError(t, err)
	high, err := loaded.PredictRow([]float64{10, 10})
	assert.NoError(t, err)
	assert.Less(t, low, high)
	assert.InDelta(t, 10, low, 25)
	assert.InDelta(t, 90, high, 25)
}

func TestSaveUntrainedModelFails(t *testing.T) {
	m := NewModel(10)
	err := m.SaveToFile(filepath.Join(t.TempDir(), "model.rf.json"))
	assert.Error(t, err)
}

func TestPredictRowVoteShapeMismatch(t *testing.T) {
	features := make([][]float64, 0, 40)
	targets := make([]float64, 0, 40)
	for i := 0; i < 20; i++ {
		features = append(features, []float64{0.1, 0.1})
		targets = append(targets, 10)
		features = append(features, []float64{10, 10})
		targets = append(targets, 90)
	}
	m := NewModel(20)
	assert.NoError(t, m.Train(features, targets, 2, "test model"))
	m.BinMidpoints = append(m.BinMidpoints, 50)
	_, err := m.PredictRow([]float64{0.1, 0.1})
	assert.Error(t, err)
}
