package analytics

import (
	"testing"

	"github.com/machsight/machsight/frame"
	"github.com/stretchr/testify/assert"
)

func TestHealthScorePerfectMachine(t *testing.T) {
	assert.Equal(t, 100.0, HealthScore(100, 0, 0))
}

func TestHealthScoreWorstMachine(t *testing.T) {
	assert.Equal(t, 0.0, HealthScore(0, 100, 100))
}

func TestHealthScoreWeighting(t *testing.T) {
	// 0.5*80 + 0.3*(100-40) + 0.2*(100-50) = 40 + 18 + 10
	assert.InDelta(t, 68.0, HealthScore(80, 40, 50), 0.0001)
}

func TestClassifyRiskLevelBoundaries(t *testing.T) {
	assert.Equal(t, RiskLow, ClassifyRiskLevel(100))
	assert.Equal(t, RiskLow, ClassifyRiskLevel(80))
	assert.Equal(t, RiskMedium, ClassifyRiskLevel(79.999))
	assert.Equal(t, RiskMedium, ClassifyRiskLevel(60))
	assert.Equal(t, RiskHigh, ClassifyRiskLevel(59.999))
	assert.Equal(t, RiskHigh, ClassifyRiskLevel(40))
	assert.Equal(t, RiskCritical, ClassifyRiskLevel(39.999))
	assert.Equal(t, RiskCritical, ClassifyRiskLevel(0))
}

func TestIdentifyDominantIssueOperational(t *testing.T) {
	assert.Equal(t, IssueOperational, IdentifyDominantIssue(90, 20, 20))
	// exactly on the thresholds nothing fires
	assert.Equal(t, IssueOperational, IdentifyDominantIssue(70, 60, 60))
}

func TestIdentifyDominantIssueSingle(t *testing.T) {
	assert.Equal(t, IssueVibration, IdentifyDominantIssue(90, 75, 20))
	assert.Equal(t, IssueThermal, IdentifyDominantIssue(90, 20, 75))
	assert.Equal(t, IssueEfficiency, IdentifyDominantIssue(50, 20, 20))
}

func TestIdentifyDominantIssueCombined(t *testing.T) {
	assert.Equal(t, IssueCombined, IdentifyDominantIssue(90, 75, 75))
	assert.Equal(t, IssueCombined, IdentifyDominantIssue(50, 75, 20))
	assert.Equal(t, IssueCombined, IdentifyDominantIssue(50, 75, 75))
}

func TestEnrichKeepsOrder(t *testing.T) {
	predictions := []Prediction{
		{VibrationIndex: 10, ThermalIndex: 10, EfficiencyIndex: 95, FailureRisk: 5},
		{VibrationIndex: 90, ThermalIndex: 90, EfficiencyIndex: 10, FailureRisk: 95},
	}
	enriched := Enrich(predictions)
	assert.Equal(t, 2, len(enriched))
	assert.Equal(t, RiskLow, enriched[0].RiskLevel)
	assert.Equal(t, IssueOperational, enriched[0].DominantIssue)
	assert.Equal(t, RiskCritical, enriched[1].RiskLevel)
	assert.Equal(t, IssueCombined, enriched[1].DominantIssue)
	assert.Equal(t, predictions[0], enriched[0].Prediction)
}

func TestPredictionsFromFrame(t *testing.T) {
	f := frame.New([]string{
		"vibration_index", "thermal_index", "efficiency_index", "failure_risk"})
	assert.NoError(t, f.AppendRow([]float64{10, 20, 30, 40}))
	predictions, err := PredictionsFromFrame(f)
	assert.NoError(t, err)
	assert.Equal(
		t,
		Prediction{VibrationIndex: 10, ThermalIndex: 20, EfficiencyIndex: 30, FailureRisk: 40},
		predictions[0],
	)
}

func TestPredictionsFromFrameMissingColumn(t *testing.T) {
	f := frame.New([]string{"vibration_index"})
	_, err := PredictionsFromFrame(f)
	assert.Error(t, err)
}
