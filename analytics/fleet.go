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

package analytics

import (
	"fmt"

	"github.com/machsight/machsight/frame"
)

// FleetSummary aggregates a batch of enriched predictions. It has no
// independent identity - it is recomputed on demand from the current
// batch and never persisted incrementally. The distribution maps are
// zero-filled for every tier and issue type, so absent categories
// are explicit zeros rather than missing keys.
type FleetSummary struct {
	TotalAssets       int               `json:"totalAssets"`
	AvgHealthScore    float64           `json:"avgHealthScore"`
	AvgEfficiency     float64           `json:"avgEfficiency"`
	AvgVibration      float64           `json:"avgVibration"`
	AvgThermal        float64           `json:"avgThermal"`
	RiskDistribution  map[RiskLevel]int `json:"riskDistribution"`
	IssueDistribution map[IssueType]int `json:"issueDistribution"`
	CriticalCount     int               `json:"criticalCount"`
	HighRiskCount     int               `json:"highRiskCount"`
	MediumRiskCount   int               `json:"mediumRiskCount"`
	LowRiskCount      int               `json:"lowRiskCount"`
}

// CalculateFleetStatistics enriches the predictions and computes the
// fleet-wide aggregates. An empty batch yields zeros everywhere.
func CalculateFleetStatistics(predictions []Prediction) FleetSummary {
	enriched := Enrich(predictions)
	ans := FleetSummary{
		TotalAssets:       len(enriched),
		RiskDistribution:  make(map[RiskLevel]int, len(RiskLevels())),
		IssueDistribution: make(map[IssueType]int, len(IssueTypes())),
	}
	for _, tier := range RiskLevels() {
		ans.RiskDistribution[tier] = 0
	}
	for _, issue := range IssueTypes() {
		ans.IssueDistribution[issue] = 0
	}
	if len(enriched) == 0 {
		return ans
	}

	for _, p := range enriched {
		ans.AvgHealthScore += p.HealthScore
		ans.AvgEfficiency += p.EfficiencyIndex
		ans.AvgVibration += p.VibrationIndex
		ans.AvgThermal += p.ThermalIndex
		ans.RiskDistribution[p.RiskLevel]++
		ans.IssueDistribution[p.DominantIssue]++
	}
	n := float64(len(enriched))
	ans.AvgHealthScore /= n
	ans.AvgEfficiency /= n
	ans.AvgVibration /= n
	ans.AvgThermal /= n
	ans.CriticalCount = ans.RiskDistribution[RiskCritical]
	ans.HighRiskCount = ans.RiskDistribution[RiskHigh]
	ans.MediumRiskCount = ans.RiskDistribution[RiskMedium]
	ans.LowRiskCount = ans.RiskDistribution[RiskLow]
	return ans
}

// MachineAnalytics returns the sensor readings and the enriched
// prediction of a single machine in an uploaded batch.
func MachineAnalytics(
	machineIdx int,
	sensorData *frame.Frame,
	predictions []Prediction,
) (map[string]float64, EnrichedPrediction, error) {
	if machineIdx < 0 || machineIdx >= len(predictions) {
		return nil, EnrichedPrediction{}, fmt.Errorf(
			"failed to get machine analytics: index %d out of range (%d machines)",
			machineIdx, len(predictions))
	}
	if sensorData.NumRows() != len(predictions) {
		return nil, EnrichedPrediction{}, fmt.Errorf(
			"failed to get machine analytics: %d sensor rows vs. %d predictions",
			sensorData.NumRows(), len(predictions))
	}
	enriched := Enrich(predictions[machineIdx : machineIdx+1])
	return sensorData.Record(machineIdx), enriched[0], nil
}
