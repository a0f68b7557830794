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

// Package training fits the Go-trainable members of the model bank
// (random forest, ridge) per target and prepares msgpack training
// dumps for the external gradient-boosted tree trainer. It also
// writes the bank manifest referencing all artifacts.
package training

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/machsight/machsight/cnf"
	"github.com/machsight/machsight/frame"
	"github.com/machsight/machsight/scoring"
	"github.com/machsight/machsight/scoring/gbt"
	"github.com/machsight/machsight/scoring/rf"
	"github.com/machsight/machsight/scoring/ridge"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
)

// Default convex combination of the four ensemble members, in slot
// order (GBT-A, random forest, GBT-B, ridge). Tuned on the synthetic
// validation split; overridable by editing the manifest.
var defaultWeights = scoring.Weights{0.35, 0.25, 0.25, 0.15}

// Trainer fits per-target models from a generated dataset directory
// (as produced by the datagen package).
type Trainer struct {
	conf cnf.TrainingConf
}

func NewTrainer(conf cnf.TrainingConf) *Trainer {
	return &Trainer{conf: conf}
}

// Run loads the scaled training features and raw targets from
// dataDir, trains RF and ridge models per target, dumps GBT training
// matrices and writes the bank manifest into outDir.
func (tr *Trainer) Run(ctx context.Context, dataDir, outDir string) error {
	xTrain, err := frame.ReadCSVFile(filepath.Join(dataDir, "X_train.csv"))
	if err != nil {
		return fmt.Errorf("failed to train models: %w", err)
	}
	yTrain, err := frame.ReadCSVFile(filepath.Join(dataDir, "y_train.csv"))
	if err != nil {
		return fmt.Errorf("failed to train models: %w", err)
	}
	if xTrain.NumRows() != yTrain.NumRows() {
		return fmt.Errorf(
			"failed to train models: %d feature rows vs. %d target rows",
			xTrain.NumRows(), yTrain.NumRows())
	}

	features := make([][]float64, xTrain.NumRows())
	for i := range features {
		features[i] = xTrain.Row(i)
	}
	comment := fmt.Sprintf("trained on %d samples from %s", xTrain.NumRows(), dataDir)

	bar := progressbar.Default(int64(len(scoring.Targets())), "training target models")
	for _, target := range scoring.Targets() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		targets, err := yTrain.Column(string(target))
		if err != nil {
			return fmt.Errorf("failed to train models: %w", err)
		}
		if err := tr.trainTarget(target, features, targets, outDir, comment); err != nil {
			return err
		}
		bar.Add(1)
	}
	if err := writeManifest(outDir); err != nil {
		return err
	}
	log.Info().Str("outDir", outDir).Msg("training finished")
	return nil
}

func (tr *Trainer) trainTarget(
	target scoring.Target,
	features [][]float64,
	targets []float64,
	outDir string,
	comment string,
) error {
	rfModel := rf.NewModel(tr.conf.NumTrees)
	if err := rfModel.Train(features, targets, tr.conf.NumBins, comment); err != nil {
		return fmt.Errorf("failed to train RF for %s: %w", target, err)
	}
	if err := rfModel.SaveToFile(artifactPath(outDir, target, "rf.json")); err != nil {
		return fmt.Errorf("failed to train RF for %s: %w", target, err)
	}

	ridgeModel, err := ridge.Train(features, targets, tr.conf.RidgeLambda, comment)
	if err != nil {
		return fmt.Errorf("failed to train ridge for %s: %w", target, err)
	}
	if err := ridgeModel.SaveToFile(artifactPath(outDir, target, "ridge.json")); err != nil {
		return fmt.Errorf("failed to train ridge for %s: %w", target, err)
	}

	// both GBT slots are trained externally from the same dump
	if err := gbt.WriteTrainingData(
		artifactPath(outDir, target, "gbt.msgpack"), features, targets); err != nil {
		return fmt.Errorf("failed to dump GBT data for %s: %w", target, err)
	}
	log.Debug().Str("target", string(target)).Msg("trained target models")
	return nil
}

func artifactPath(outDir string, target scoring.Target, suffix string) string {
	return filepath.Join(outDir, fmt.Sprintf("%s.%s", target, suffix))
}

// manifest mirrors the scoring package's bank manifest schema.
type manifestModels struct {
	XGBoost          string `json:"xgboost"`
	RandomForest     string `json:"randomForest"`
	GradientBoosting string `json:"gradientBoosting"`
	Ridge            string `json:"ridge"`
}

type manifestTarget struct {
	Weights scoring.Weights `json:"weights"`
	Models  manifestModels  `json:"models"`
}

type manifest struct {
	FeatureNames []string                          `json:"featureNames"`
	TargetNames  []scoring.Target                  `json:"targetNames"`
	Targets      map[scoring.Target]manifestTarget `json:"targets"`
}

func writeManifest(outDir string) error {
	m := manifest{
		FeatureNames: scoring.RequiredFeatures(),
		TargetNames:  scoring.Targets(),
		Targets:      make(map[scoring.Target]manifestTarget),
	}
	for _, target := range scoring.Targets() {
		m.Targets[target] = manifestTarget{
			Weights: defaultWeights,
			Models: manifestModels{
				XGBoost:          fmt.Sprintf("%s.gbt-a.lgb.txt", target),
				RandomForest:     fmt.Sprintf("%s.rf.json", target),
				GradientBoosting: fmt.Sprintf("%s.gbt-b.lgb.txt", target),
				Ridge:            fmt.Sprintf("%s.ridge.json", target),
			},
		}
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to write bank manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "bank.json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write bank manifest: %w", err)
	}
	return nil
}
