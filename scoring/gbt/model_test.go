package gbt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vmihailenco/msgpack/v5"
)

func TestWriteTrainingData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.msgpack")
	features := [][]float64{{1, 2}, {3, 4}}
	targets := []float64{10, 20}
	assert.NoError(t, WriteTrainingData(path, features, targets))

	rawData, err := os.ReadFile(path)
	assert.NoError(t, err)
	var dump struct {
		Features [][]float64 `msgpack:"features"`
		Label    []float64   `msgpack:"label"`
	}
	assert.NoError(t, msgpack.Unmarshal(rawData, &dump))
	assert.Equal(t, features, dump.Features)
	assert.Equal(t, targets, dump.Label)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nothing.txt"), "xgboost")
	assert.Error(t, err)
}
