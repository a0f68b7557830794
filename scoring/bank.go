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
	"math"
	"os"
	"path/filepath"

	"github.com/machsight/machsight/scoring/gbt"
	"github.com/machsight/machsight/scoring/rf"
	"github.com/machsight/machsight/scoring/ridge"
	"github.com/rs/zerolog/log"
)

// Model slot names in ensemble weight order.
const (
	SlotGBTA  = "xgboost"
	SlotRF    = "random_forest"
	SlotGBTB  = "gradient_boosting"
	SlotRidge = "ridge"
)

// TargetBundle holds the four constituent regressors of one target
// together with their combination weights. Model order and weight
// order are the same by construction.
type TargetBundle struct {
	Target  Target
	Models  [NumEnsembleModels]Regressor
	Weights Weights
}

// Score runs all four models on a single (scaled) feature vector and
// combines the predictions into the target's clipped score.
func (tb TargetBundle) Score(features []float64) (float64, error) {
	var preds [NumEnsembleModels]float64
	for i, model := range tb.Models {
		v, err := model.PredictRow(features)
		if err != nil {
			return 0, ModelInferenceError{Target: tb.Target, Model: model.Name(), Err: err}
		}
		preds[i] = v
	}
	return CombineScores(tb.Weights, preds), nil
}

// ModelBank is the loaded, immutable bundle of all per-target model
// ensembles plus the feature and target ordering they were fitted
// with. It is loaded once at startup and safe for concurrent reads.
type ModelBank struct {
	FeatureNames []string
	TargetNames  []Target
	bundles      map[Target]TargetBundle
}

func (mb *ModelBank) Bundle(t Target) (TargetBundle, bool) {
	b, ok := mb.bundles[t]
	return b, ok
}

// NewBank builds a bank from already constructed bundles. Mainly for
// tests with mock regressors.
func NewBank(featureNames []string, bundles []TargetBundle) *ModelBank {
	ans := &ModelBank{
		FeatureNames: featureNames,
		TargetNames:  make([]Target, len(bundles)),
		bundles:      make(map[Target]TargetBundle, len(bundles)),
	}
	for i, b := range bundles {
		ans.TargetNames[i] = b.Target
		ans.bundles[b.Target] = b
	}
	return ans
}

// ---------- manifest loading

type manifestModelRefs struct {
	XGBoost          string `json:"xgboost"`
	RandomForest     string `json:"randomForest"`
	GradientBoosting string `json:"gradientBoosting"`
	Ridge            string `json:"ridge"`
}

type manifestTarget struct {
	Weights Weights           `json:"weights"`
	Models  manifestModelRefs `json:"models"`
}

type bankManifest struct {
	FeatureNames []string                  `json:"featureNames"`
	TargetNames  []Target                  `json:"targetNames"`
	Targets      map[Target]manifestTarget `json:"targets"`
}

// LoadBank loads a model bank described by a JSON manifest. Model
// file references are resolved relative to the manifest location.
// The artifacts are treated as opaque and versionless - the only
// compatibility check is the feature list against input schemas.
func LoadBank(manifestPath string) (*ModelBank, error) {
	rawData, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load model bank: %w", err)
	}
	var manifest bankManifest
	if err := json.Unmarshal(rawData, &manifest); err != nil {
		return nil, fmt.Errorf("failed to load model bank: %w", err)
	}
	baseDir := filepath.Dir(manifestPath)

	ans := &ModelBank{
		FeatureNames: manifest.FeatureNames,
		TargetNames:  manifest.TargetNames,
		bundles:      make(map[Target]TargetBundle, len(manifest.Targets)),
	}
	for _, target := range manifest.TargetNames {
		if !target.Validate() {
			return nil, fmt.Errorf("failed to load model bank: unknown target %s", target)
		}
		tconf, ok := manifest.Targets[target]
		if !ok {
			return nil, fmt.Errorf("failed to load model bank: no models for target %s", target)
		}
		bundle, err := loadBundle(baseDir, target, tconf)
		if err != nil {
			return nil, err
		}
		ans.bundles[target] = bundle
		log.Info().
			Str("target", string(target)).
			Floats64("weights", bundle.Weights[:]).
			Msg("loaded target model bundle")
	}
	return ans, nil
}

func loadBundle(baseDir string, target Target, tconf manifestTarget) (TargetBundle, error) {
	var sum float64
	for _, w := range tconf.Weights {
		if w < 0 {
			return TargetBundle{}, fmt.Errorf(
				"failed to load model bank: negative weight for target %s", target)
		}
		sum += w
	}
	if math.Abs(sum-1) > 1e-6 {
		log.Warn().
			Str("target", string(target)).
			Float64("weightSum", sum).
			Msg("ensemble weights do not sum to 1")
	}

	gbtA, err := gbt.LoadFromFile(filepath.Join(baseDir, tconf.Models.XGBoost), SlotGBTA)
	if err != nil {
		return TargetBundle{}, fmt.Errorf("failed to load model bank (%s): %w", target, err)
	}
	rfModel, err := rf.LoadFromFile(filepath.Join(baseDir, tconf.Models.RandomForest))
	if err != nil {
		return TargetBundle{}, fmt.Errorf("failed to load model bank (%s): %w", target, err)
	}
	gbtB, err := gbt.LoadFromFile(filepath.Join(baseDir, tconf.Models.GradientBoosting), SlotGBTB)
	if err != nil {
		return TargetBundle{}, fmt.Errorf("failed to load model bank (%s): %w", target, err)
	}
	ridgeModel, err := ridge.LoadFromFile(filepath.Join(baseDir, tconf.Models.Ridge))
	if err != nil {
		return TargetBundle{}, fmt.Errorf("failed to load model bank (%s): %w", target, err)
	}
	return TargetBundle{
		Target:  target,
		Models:  [NumEnsembleModels]Regressor{gbtA, rfModel, gbtB, ridgeModel},
		Weights: tconf.Weights,
	}, nil
}
