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

package scoring

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/machsight/machsight/frame"
)

// RobustScaler is a previously fitted robust-scaling transform:
// per feature it subtracts the median and divides by the
// interquartile range, both frozen at training time. The statistics
// never change during the process lifetime.
type RobustScaler struct {
	FeatureNames []string  `json:"featureNames"`
	Center       []float64 `json:"center"`
	Scale        []float64 `json:"scale"`
}

func (sc *RobustScaler) validate() error {
	if len(sc.Center) != len(sc.FeatureNames) || len(sc.Scale) != len(sc.FeatureNames) {
		return fmt.Errorf(
			"invalid scaler artifact: %d features vs. %d centers, %d scales",
			len(sc.FeatureNames), len(sc.Center), len(sc.Scale))
	}
	return nil
}

// Transform scales the frame in place. The frame's columns must be
// exactly the scaler's features in the fitted order (the predictor
// guarantees this by reindexing first). Features with a zero IQR
// are only centered.
func (sc *RobustScaler) Transform(data *frame.Frame) error {
	if !slices.Equal(data.Columns(), sc.FeatureNames) {
		return fmt.Errorf(
			"failed to scale features: column order does not match the fitted order")
	}
	for i := 0; i < data.NumRows(); i++ {
		row := data.Row(i)
		for j := range sc.FeatureNames {
			v := row[j] - sc.Center[j]
			if sc.Scale[j] != 0 {
				v /= sc.Scale[j]
			}
			row[j] = v
		}
	}
	return nil
}

// SaveToFile stores the scaler statistics as a JSON artifact.
func (sc *RobustScaler) SaveToFile(path string) error {
	data, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("failed to save scaler: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to save scaler: %w", err)
	}
	return nil
}

// LoadScaler loads a fitted scaler from its JSON artifact.
func LoadScaler(path string) (*RobustScaler, error) {
	rawData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load scaler: %w", err)
	}
	var sc RobustScaler
	if err := json.Unmarshal(rawData, &sc); err != nil {
		return nil, fmt.Errorf("failed to load scaler: %w", err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// FitScaler computes robust-scaling statistics (median, IQR) over the
// provided training frame. The column order of the frame becomes the
// fitted feature order.
func FitScaler(data *frame.Frame) (*RobustScaler, error) {
	cols := data.Columns()
	sc := &RobustScaler{
		FeatureNames: cols,
		Center:       make([]float64, len(cols)),
		Scale:        make([]float64, len(cols)),
	}
	for j, c := range cols {
		med, err := data.ColumnMedian(c)
		if err != nil {
			return nil, fmt.Errorf("failed to fit scaler: %w", err)
		}
		q1, err := data.Quantile(c, 0.25)
		if err != nil {
			return nil, fmt.Errorf("failed to fit scaler: %w", err)
		}
		q3, err := data.Quantile(c, 0.75)
		if err != nil {
			return nil, fmt.Errorf("failed to fit scaler: %w", err)
		}
		sc.Center[j] = med
		sc.Scale[j] = q3 - q1
	}
	return sc, nil
}
