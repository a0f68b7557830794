// Copyright 2025 MachSight Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package gbt wraps gradient-boosted tree ensembles in LightGBM text
// format. The models are inference-only on the Go side: training is
// performed by an external program fed with msgpack dumps produced
// by WriteTrainingData.
package gbt

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitryikh/leaves"
	"github.com/vmihailenco/msgpack/v5"
)

type Model struct {
	name     string
	ensemble *leaves.Ensemble
}

func (m *Model) Name() string {
	return m.name
}

func (m *Model) PredictRow(features []float64) (float64, error) {
	if len(features) != m.ensemble.NFeatures() {
		return 0, fmt.Errorf(
			"failed to predict with %s: expected %d features, got %d",
			m.name, m.ensemble.NFeatures(), len(features))
	}
	return m.ensemble.PredictSingle(features, 0), nil
}

// LoadFromFile loads a LightGBM model dump, optionally gzipped.
func LoadFromFile(filePath, name string) (*Model, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var reader io.Reader = file
	if strings.HasSuffix(filePath, ".gz") || strings.HasSuffix(filePath, ".gzip") {
		gzReader, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzReader.Close()
		reader = gzReader
	}

	ensemble, err := leaves.LGEnsembleFromReader(bufio.NewReader(reader), true)
	if err != nil {
		return nil, fmt.Errorf("failed to load GBT model: %w", err)
	}
	return &Model{name: name, ensemble: ensemble}, nil
}

// NewFromEnsemble wraps an already loaded ensemble. Used by tests.
func NewFromEnsemble(name string, ensemble *leaves.Ensemble) *Model {
	return &Model{name: name, ensemble: ensemble}
}

// WriteTrainingData dumps feature vectors and regression targets in
// the msgpack format the external trainer expects.
func WriteTrainingData(filePath string, features [][]float64, targets []float64) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create GBT training data: %w", err)
	}
	defer file.Close()
	out := make(map[string]any)
	out["features"] = features
	out["label"] = targets

	outData, err := msgpack.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to create GBT training data: %w", err)
	}
	_, err = file.Write(outData)
	if err != nil {
		return fmt.Errorf("failed to create GBT training data: %w", err)
	}
	return nil
}
