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

// Package ridge implements a linear regressor with L2 regularization.
// Training solves the normal equations directly; the feature space is
// small enough (eight sensors) that no matrix library is warranted.
package ridge

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

const ModelName = "ridge"

type Model struct {
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
	Lambda    float64   `json:"lambda"`
	Comment   string    `json:"comment"`
}

func (m *Model) Name() string {
	return ModelName
}

func (m *Model) PredictRow(features []float64) (float64, error) {
	if len(features) != len(m.Coef) {
		return 0, fmt.Errorf(
			"failed to predict with %s: expected %d features, got %d",
			ModelName, len(m.Coef), len(features))
	}
	ans := m.Intercept
	for i, v := range features {
		ans += m.Coef[i] * v
	}
	return ans, nil
}

// Train fits coefficients by solving (XᵀX + λI)w = Xᵀy with an
// unregularized intercept term.
func Train(features [][]float64, targets []float64, lambda float64, comment string) (*Model, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("no training data provided")
	}
	if len(features) != len(targets) {
		return nil, fmt.Errorf(
			"failed to train ridge model: %d feature vectors vs. %d targets",
			len(features), len(targets))
	}
	numFeats := len(features[0])
	dim := numFeats + 1 // trailing intercept column

	// accumulate XᵀX and Xᵀy over augmented rows
	xtx := make([][]float64, dim)
	for i := range xtx {
		xtx[i] = make([]float64, dim)
	}
	xty := make([]float64, dim)
	row := make([]float64, dim)
	for n, feats := range features {
		if len(feats) != numFeats {
			return nil, fmt.Errorf("failed to train ridge model: ragged feature matrix")
		}
		copy(row, feats)
		row[numFeats] = 1
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				xtx[i][j] += row[i] * row[j]
			}
			xty[i] += row[i] * targets[n]
		}
	}
	for i := 0; i < numFeats; i++ {
		xtx[i][i] += lambda
	}

	w, err := solve(xtx, xty)
	if err != nil {
		return nil, fmt.Errorf("failed to train ridge model: %w", err)
	}
	return &Model{
		Coef:      w[:numFeats],
		Intercept: w[numFeats],
		Lambda:    lambda,
		Comment:   comment,
	}, nil
}

// solve runs Gaussian elimination with partial pivoting on a copy
// of the system.
func solve(a [][]float64, b []float64) ([]float64, error) {
	dim := len(b)
	m := make([][]float64, dim)
	for i := range m {
		m[i] = make([]float64, dim+1)
		copy(m[i], a[i])
		m[i][dim] = b[i]
	}
	for col := 0; col < dim; col++ {
		pivot := col
		for r := col + 1; r < dim; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(m[pivot][col]) < 1e-12 {
			return nil, fmt.Errorf("singular system")
		}
		m[col], m[pivot] = m[pivot], m[col]
		for r := col + 1; r < dim; r++ {
			factor := m[r][col] / m[col][col]
			for c := col; c <= dim; c++ {
				m[r][c] -= factor * m[col][c]
			}
		}
	}
	w := make([]float64, dim)
	for i := dim - 1; i >= 0; i-- {
		sum := m[i][dim]
		for j := i + 1; j < dim; j++ {
			sum -= m[i][j] * w[j]
		}
		w[i] = sum / m[i][i]
	}
	return w, nil
}

// SaveToFile stores the model as a JSON artifact.
func (m *Model) SaveToFile(path string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to save ridge model: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to save ridge model: %w", err)
	}
	return nil
}

// LoadFromFile loads a serialized ridge model.
func LoadFromFile(path string) (*Model, error) {
	rawData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load ridge model: %w", err)
	}
	var m Model
	if err := json.Unmarshal(rawData, &m); err != nil {
		return nil, fmt.Errorf("failed to load ridge model: %w", err)
	}
	return &m, nil
}
