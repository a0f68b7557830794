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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/machsight/machsight/ai"
	"github.com/machsight/machsight/analytics"
	"github.com/machsight/machsight/apiserver"
	"github.com/machsight/machsight/cnf"
	"github.com/machsight/machsight/datagen"
	"github.com/machsight/machsight/frame"
	"github.com/machsight/machsight/scoring"
	"github.com/machsight/machsight/training"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
)

const (
	errColor = color.FgHiRed
)

func runServer(conf *cnf.Conf, version apiserver.VersionInfo) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	apiserver.Run(ctx, conf, version)
}

// scoreCSVBatch loads a CSV batch and runs it through the scoring
// pipeline, returning both the sensor data and the enriched
// predictions.
func scoreCSVBatch(
	conf *cnf.Conf,
	inputPath string,
) (*frame.Frame, []analytics.Prediction, []analytics.EnrichedPrediction, error) {
	scorer, err := scoring.LoadService(conf.ModelBankPath, conf.ScalerPath)
	if err != nil {
		return nil, nil, nil, err
	}
	data, err := frame.ReadCSVFile(inputPath)
	if err != nil {
		return nil, nil, nil, err
	}
	scored, err := scorer.Predict(data)
	if err != nil {
		return nil, nil, nil, err
	}
	predictions, err := analytics.PredictionsFromFrame(scored)
	if err != nil {
		return nil, nil, nil, err
	}
	return data, predictions, analytics.Enrich(predictions), nil
}

func runPredict(conf *cnf.Conf, inputPath, outPath string) {
	_, predictions, enriched, err := scoreCSVBatch(conf, inputPath)
	if err != nil {
		color.New(errColor).Fprintln(os.Stderr, err)
		os.Exit(exitErrorGeneralFailure)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{
		"Machine", "Health", "Risk", "Dominant Issue",
		"Vibration", "Thermal", "Efficiency", "Failure Risk",
	})
	for i, rec := range enriched {
		table.Append([]string{
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%.1f", rec.HealthScore),
			string(rec.RiskLevel),
			string(rec.DominantIssue),
			fmt.Sprintf("%.1f", rec.VibrationIndex),
			fmt.Sprintf("%.1f", rec.ThermalIndex),
			fmt.Sprintf("%.1f", rec.EfficiencyIndex),
			fmt.Sprintf("%.1f", rec.FailureRisk),
		})
	}
	if err := table.Render(); err != nil {
		color.New(errColor).Fprintln(os.Stderr, err)
		os.Exit(exitErrorGeneralFailure)
	}

	summary := analytics.CalculateFleetStatistics(predictions)
	fmt.Println()
	fmt.Printf("fleet size: %d\n", summary.TotalAssets)
	fmt.Printf("avg. health score: %.1f\n", summary.AvgHealthScore)
	fmt.Printf("avg. efficiency: %.1f\n", summary.AvgEfficiency)
	for _, level := range analytics.RiskLevels() {
		fmt.Printf("%s risk: %d\n", level, summary.RiskDistribution[level])
	}

	if outPath != "" {
		out := frame.New([]string{
			"vibration_index", "thermal_index", "efficiency_index", "failure_risk",
			"health_score", "risk_level_num",
		})
		for _, rec := range enriched {
			out.AppendRecord(map[string]float64{
				"vibration_index":  rec.VibrationIndex,
				"thermal_index":    rec.ThermalIndex,
				"efficiency_index": rec.EfficiencyIndex,
				"failure_risk":     rec.FailureRisk,
				"health_score":     rec.HealthScore,
				"risk_level_num":   float64(riskLevelOrd(rec.RiskLevel)),
			})
		}
		if err := out.WriteCSVFile(outPath); err != nil {
			color.New(errColor).Fprintln(os.Stderr, err)
			os.Exit(exitErrorGeneralFailure)
		}
		log.Info().Str("path", outPath).Msg("wrote scored batch")
	}
}

func riskLevelOrd(level analytics.RiskLevel) int {
	for i, rl := range analytics.RiskLevels() {
		if rl == level {
			return i
		}
	}
	return -1
}

func runAnalyze(conf *cnf.Conf, inputPath string, row int, depth string) {
	aiSrv := ai.NewService(conf.AI.APIURL, conf.AI.ModelName, conf.AIAPIKey())
	if !aiSrv.IsConfigured() {
		color.New(errColor).Fprintln(
			os.Stderr,
			fmt.Errorf("AI service not configured (set the %s environment variable)", conf.AI.APIKeyEnv))
		os.Exit(exitErrorGeneralFailure)
	}

	data, predictions, _, err := scoreCSVBatch(conf, inputPath)
	if err != nil {
		color.New(errColor).Fprintln(os.Stderr, err)
		os.Exit(exitErrorGeneralFailure)
	}
	sensorData, enriched, err := analytics.MachineAnalytics(row, data, predictions)
	if err != nil {
		color.New(errColor).Fprintln(os.Stderr, err)
		os.Exit(exitErrorGeneralFailure)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	analysis := aiSrv.GenerateAnalysis(ctx, sensorData, enriched, ai.Depth(depth))
	if analysis.Status == ai.StatusError {
		color.New(errColor).Fprintln(os.Stderr, analysis.ErrorMessage)
		os.Exit(exitErrorGeneralFailure)
	}

	fmt.Printf("machine %d | health %.1f | risk: %s | issue: %s\n\n",
		row, enriched.HealthScore, enriched.RiskLevel, enriched.DominantIssue)
	sections := []struct {
		title string
		body  string
	}{
		{"ROOT CAUSE", analysis.RootCause},
		{"RISK ASSESSMENT", analysis.RiskAssessment},
		{"RECOMMENDATIONS", analysis.Recommendations},
		{"TIMELINE", analysis.Timeline},
		{"COST IMPACT", analysis.CostImpact},
	}
	for _, s := range sections {
		if s.body == "" {
			continue
		}
		fmt.Printf("--- %s ---\n%s\n\n", s.title, s.body)
	}
}

func runGenerate(conf *cnf.Conf, outDir string, numSamples int, seed uint64, testRatio float64) {
	if numSamples <= 0 {
		numSamples = conf.Training.NumSamples
	}
	if outDir == "" {
		color.New(errColor).Fprintln(os.Stderr, fmt.Errorf("missing output directory"))
		os.Exit(exitErrorInvalidArgs)
	}
	data := datagen.Generate(numSamples, seed)
	if err := datagen.WriteDataset(data, outDir, testRatio, seed); err != nil {
		color.New(errColor).Fprintln(os.Stderr, err)
		os.Exit(exitErrorGeneralFailure)
	}
	log.Info().
		Int("numSamples", numSamples).
		Str("outDir", outDir).
		Msg("generated dataset")
}

func runTrain(conf *cnf.Conf, dataDir, outDir string) {
	if dataDir == "" || outDir == "" {
		color.New(errColor).Fprintln(os.Stderr, fmt.Errorf("missing data or output directory"))
		os.Exit(exitErrorInvalidArgs)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	trainer := training.NewTrainer(conf.Training)
	if err := trainer.Run(ctx, dataDir, outDir); err != nil {
		color.New(errColor).Fprintln(os.Stderr, err)
		os.Exit(exitErrorGeneralFailure)
	}
}
