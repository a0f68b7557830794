package scoring

import (
	"path/filepath"
	"testing"

	"github.com/machsight/machsight/frame"
	"github.com/stretchr/testify/assert"
)

func TestTransform(t *testing.T) {
	sc := &RobustScaler{
		FeatureNames: []string{"a", "b"},
		Center:       []float64{10, 100},
		Scale:        []float64{2, 50},
	}
	data := frame.New([]string{"a", "b"})
	assert.NoError(t, data.AppendRow([]float64{14, 100}))
	assert.NoError(t, sc.Transform(data))
	assert.InDelta(t, 2.0, data.Row(0)[0], 0.0001)
	assert.InDelta(t, 0.0, data.Row(0)[1], 0.0001)
}

func TestTransformZeroScaleOnlyCenters(t *testing.T) {
	sc := &RobustScaler{
		FeatureNames: []string{"a"},
		Center:       []float64{5},
		Scale:        []float64{0},
	}
	data := frame.New([]string{"a"})
	assert.NoError(t, data.AppendRow([]float64{7}))
	assert.NoError(t, sc.Transform(data))
	assert.InDelta(t, 2.0, data.Row(0)[0], 0.0001)
}

func TestTransformRejectsWrongColumnOrder(t *testing.T) {
	sc := &RobustScaler{
		FeatureNames: []string{"a", "b"},
		Center:       []float64{0, 0},
		Scale:        []float64{1, 1},
	}
	data := frame.New([]string{"b", "a"})
	assert.Error(t, sc.Transform(data))
}

func TestFitScaler(t *testing.T) {
	data := frame.New([]string{"a"})
	for _, v := range []float64{1, 2, 3, 4, 5} {
		assert.NoError(t, data.AppendRow([]float64{v}))
	}
	sc, err := FitScaler(data)
	assert.NoError(t, err)
	assert.InDelta(t, 3.0, sc.Center[0], 0.0001)
	assert.InDelta(t, 2.0, sc.Scale[0], 0.0001)
}

func TestScalerSaveLoadRoundtrip(t *testing.T) {
	sc := &RobustScaler{
		FeatureNames: []string{"a"},
		Center:       []float64{1.5},
		Scale:        []float64{0.5},
	}
	path := filepath.Join(t.TempDir(), "scaler.json")
	assert.NoError(t, sc.SaveToFile(path))
	loaded, err := LoadScaler(path)
	assert.NoError(t, err)
	assert.Equal(t, sc.FeatureNames, loaded.FeatureNames)
	assert.Equal(t, sc.Center, loaded.Center)
	assert.Equal(t, sc.Scale, loaded.Scale)
}

func TestLoadScalerRejectsMismatchedLengths(t *testing.T) {
	sc := &RobustScaler{
		FeatureNames: []string{"a", "b"},
		Center:       []float64{1},
		Scale:        []float64{1, 1},
	}
	assert.Error(t, sc.validate())
}
