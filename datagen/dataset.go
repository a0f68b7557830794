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

package datagen

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"

	"github.com/machsight/machsight/frame"
	"github.com/machsight/machsight/scoring"
	"github.com/rs/zerolog/log"
)

var targetColumns = []string{
	"vibration_health", "thermal_health", "efficiency_index", "failure_risk"}

// WriteDataset splits the generated frame into train and test parts
// (shuffled), fits the robust scaler on the train features, scales
// both feature parts and writes the four CSV files plus the scaler
// artifact into outDir. Targets are kept in their raw 0-100 range.
func WriteDataset(data *frame.Frame, outDir string, testRatio float64, seed uint64) error {
	rng := rand.New(rand.NewPCG(seed, seed))
	perm := rng.Perm(data.NumRows())
	numTest := int(float64(data.NumRows()) * testRatio)

	features := scoring.RequiredFeatures()
	xTrain := frame.New(features)
	xTest := frame.New(features)
	yTrain := frame.New(targetColumns)
	yTest := frame.New(targetColumns)

	featPart, err := data.Select(features)
	if err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	targetPart, err := data.Select(targetColumns)
	if err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	for i, srcIdx := range perm {
		if i < numTest {
			xTest.AppendRow(featPart.Row(srcIdx))
			yTest.AppendRow(targetPart.Row(srcIdx))

		} else {
			xTrain.AppendRow(featPart.Row(srcIdx))
			yTrain.AppendRow(targetPart.Row(srcIdx))
		}
	}

	scaler, err := scoring.FitScaler(xTrain)
	if err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	if err := scaler.Transform(xTrain); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	if err := scaler.Transform(xTest); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}

	outputs := map[string]*frame.Frame{
		"X_train.csv": xTrain,
		"X_test.csv":  xTest,
		"y_train.csv": yTrain,
		"y_test.csv":  yTest,
	}
	for name, part := range outputs {
		if err := part.WriteCSVFile(filepath.Join(outDir, name)); err != nil {
			return fmt.Errorf("failed to write dataset: %w", err)
		}
	}
	if err := scaler.SaveToFile(filepath.Join(outDir, "feature_scaler.json")); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	log.Info().
		Int("trainSize", xTrain.NumRows()).
		Int("testSize", xTest.NumRows()).
		Str("outDir", outDir).
		Msg("dataset written")
	return nil
}
