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
	"fmt"
	"slices"

	"github.com/machsight/machsight/frame"
	"github.com/rs/zerolog/log"
)

// Service is the batch predictor. It is constructed once from the
// serialized model bank and scaler artifacts and holds them as
// immutable state, so Predict is safe for concurrent use.
type Service struct {
	bank   *ModelBank
	scaler *RobustScaler
}

// NewService creates a scoring service from already loaded artifacts.
func NewService(bank *ModelBank, scaler *RobustScaler) (*Service, error) {
	if !slices.Equal(bank.FeatureNames, scaler.FeatureNames) {
		return nil, fmt.Errorf(
			"failed to create scoring service: model bank and scaler feature lists differ")
	}
	return &Service{bank: bank, scaler: scaler}, nil
}

// LoadService loads the model bank manifest and the scaler artifact
// and wires them into a scoring service.
func LoadService(bankManifestPath, scalerPath string) (*Service, error) {
	bank, err := LoadBank(bankManifestPath)
	if err != nil {
		return nil, err
	}
	scaler, err := LoadScaler(scalerPath)
	if err != nil {
		return nil, err
	}
	return NewService(bank, scaler)
}

func (s *Service) RequiredFeatures() []string {
	return slices.Clone(s.bank.FeatureNames)
}

func (s *Service) Targets() []Target {
	return slices.Clone(s.bank.TargetNames)
}

// OutputColumns lists the consumer-facing prediction column names in
// output order.
func (s *Service) OutputColumns() []string {
	ans := make([]string, len(s.bank.TargetNames))
	for i, t := range s.bank.TargetNames {
		ans[i] = t.OutputColumn()
	}
	return ans
}

// Predict scores each row of the input against all targets and
// returns a frame of prediction records in input row order.
//
// The pipeline is: schema check, reindex to the fitted feature order
// (extra columns are silently dropped), sanitization (infinities
// become missing, missing values become the batch-local column
// median, all-missing columns become zero), robust scaling with the
// frozen training statistics and per-row per-target ensemble scoring.
// All output values lie in [0, 100].
//
// A missing required feature yields a MissingFeaturesError before any
// numeric work. A constituent model rejecting its input propagates as
// a ModelInferenceError.
func (s *Service) Predict(data *frame.Frame) (*frame.Frame, error) {
	missing := data.MissingColumns(s.bank.FeatureNames)
	if len(missing) > 0 {
		return nil, MissingFeaturesError{
			Missing:  missing,
			Required: slices.Clone(s.bank.FeatureNames),
		}
	}

	df, err := data.Select(s.bank.FeatureNames)
	if err != nil {
		return nil, fmt.Errorf("failed to predict: %w", err)
	}
	df.ReplaceInf()
	df.FillMedian()
	if err := s.scaler.Transform(df); err != nil {
		return nil, fmt.Errorf("failed to predict: %w", err)
	}

	ans := frame.New(s.OutputColumns())
	scores := make([]float64, len(s.bank.TargetNames))
	for i := 0; i < df.NumRows(); i++ {
		row := df.Row(i)
		for k, target := range s.bank.TargetNames {
			bundle, ok := s.bank.Bundle(target)
			if !ok {
				return nil, fmt.Errorf("failed to predict: no bundle for target %s", target)
			}
			score, err := bundle.Score(row)
			if err != nil {
				return nil, err
			}
			scores[k] = score
		}
		if err := ans.AppendRow(scores); err != nil {
			return nil, fmt.Errorf("failed to predict: %w", err)
		}
	}
	log.Debug().
		Int("numRows", ans.NumRows()).
		Msg("scored sensor batch")
	return ans, nil
}
