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

// Package analytics derives composite health metrics from prediction
// records: a weighted health score, a discrete risk tier and a coarse
// dominant-issue diagnosis. All functions are pure.
package analytics

import (
	"fmt"

	"github.com/machsight/machsight/frame"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

func RiskLevels() []RiskLevel {
	return []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskCritical}
}

type IssueType string

const (
	IssueVibration   IssueType = "Vibration"
	IssueThermal     IssueType = "Thermal"
	IssueEfficiency  IssueType = "Efficiency"
	IssueCombined    IssueType = "Combined"
	IssueOperational IssueType = "Operational"
)

func IssueTypes() []IssueType {
	return []IssueType{
		IssueVibration, IssueThermal, IssueEfficiency, IssueCombined, IssueOperational}
}

// Prediction is one scored machine row. Vibration and thermal indices
// are "lower is better", efficiency is "higher is better" and failure
// risk is "higher is worse". All values lie in [0, 100].
type Prediction struct {
	VibrationIndex  float64 `json:"vibrationIndex"`
	ThermalIndex    float64 `json:"thermalIndex"`
	EfficiencyIndex float64 `json:"efficiencyIndex"`
	FailureRisk     float64 `json:"failureRisk"`
}

// EnrichedPrediction is a Prediction plus the derived analytics.
type EnrichedPrediction struct {
	Prediction
	HealthScore   float64   `json:"healthScore"`
	RiskLevel     RiskLevel `json:"riskLevel"`
	DominantIssue IssueType `json:"dominantIssue"`
}

// Health score component weights.
const (
	healthWeightEfficiency = 0.50
	healthWeightVibration  = 0.30
	healthWeightThermal    = 0.20
)

// Dominant issue thresholds.
const (
	vibrationThreshold  = 60.0
	thermalThreshold    = 60.0
	efficiencyThreshold = 70.0
)

// HealthScore computes the composite health score in [0, 100].
// Vibration and thermal components are inverted first so all three
// components point in the "higher is better" direction before
// weighting.
func HealthScore(efficiencyIndex, vibrationIndex, thermalIndex float64) float64 {
	score := healthWeightEfficiency*efficiencyIndex +
		healthWeightVibration*(100-vibrationIndex) +
		healthWeightThermal*(100-thermalIndex)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// ClassifyRiskLevel maps a health score to its risk tier. Each tier's
// lower bound is inclusive, so a score of exactly 80 is Low.
func ClassifyRiskLevel(healthScore float64) RiskLevel {
	switch {
	case healthScore >= 80:
		return RiskLow
	case healthScore >= 60:
		return RiskMedium
	case healthScore >= 40:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// IdentifyDominantIssue derives the coarse diagnosis from fixed
// threshold rules on the three sub-indices.
func IdentifyDominantIssue(efficiencyIndex, vibrationIndex, thermalIndex float64) IssueType {
	vibrationIssue := vibrationIndex > vibrationThreshold
	thermalIssue := thermalIndex > thermalThreshold
	efficiencyIssue := efficiencyIndex < efficiencyThreshold

	numIssues := 0
	for _, flag := range []bool{vibrationIssue, thermalIssue, efficiencyIssue} {
		if flag {
			numIssues++
		}
	}
	switch {
	case numIssues == 0:
		return IssueOperational
	case numIssues >= 2:
		return IssueCombined
	case vibrationIssue:
		return IssueVibration
	case thermalIssue:
		return IssueThermal
	default:
		return IssueEfficiency
	}
}

// Enrich applies the health score, risk tier and dominant issue
// derivation row-wise. Input order is preserved.
func Enrich(predictions []Prediction) []EnrichedPrediction {
	ans := make([]EnrichedPrediction, len(predictions))
	for i, p := range predictions {
		score := HealthScore(p.EfficiencyIndex, p.VibrationIndex, p.ThermalIndex)
		ans[i] = EnrichedPrediction{
			Prediction:    p,
			HealthScore:   score,
			RiskLevel:     ClassifyRiskLevel(score),
			DominantIssue: IdentifyDominantIssue(p.EfficiencyIndex, p.VibrationIndex, p.ThermalIndex),
		}
	}
	return ans
}

// PredictionsFromFrame converts a prediction frame (as produced by
// the scoring service) into typed records.
func PredictionsFromFrame(f *frame.Frame) ([]Prediction, error) {
	for _, col := range []string{
		"vibration_index", "thermal_index", "efficiency_index", "failure_risk"} {
		if !f.HasColumn(col) {
			return nil, fmt.Errorf("failed to read predictions: missing column %s", col)
		}
	}
	ans := make([]Prediction, f.NumRows())
	for i := range ans {
		rec := f.Record(i)
		ans[i] = Prediction{
			VibrationIndex:  rec["vibration_index"],
			ThermalIndex:    rec["thermal_index"],
			EfficiencyIndex: rec["efficiency_index"],
			FailureRisk:     rec["failure_risk"],
		}
	}
	return ans, nil
}
