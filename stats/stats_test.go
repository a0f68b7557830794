package stats

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/machsight/machsight/analytics"
	"github.com/stretchr/testify/assert"
)

func testDatabase(t *testing.T) *Database {
	db, err := NewDatabase(filepath.Join(t.TempDir(), "stats.sqlite"))
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	assert.NoError(t, db.Init())
	return db
}

func testRecords() []analytics.EnrichedPrediction {
	return analytics.Enrich([]analytics.Prediction{
		{VibrationIndex: 10, ThermalIndex: 10, EfficiencyIndex: 90, FailureRisk: 10},
		{VibrationIndex: 90, ThermalIndex: 90, EfficiencyIndex: 10, FailureRisk: 90},
	})
}

func TestAddBatchAndGetRecords(t *testing.T) {
	db := testDatabase(t)
	records := testRecords()
	summary := analytics.CalculateFleetStatistics([]analytics.Prediction{
		records[0].Prediction, records[1].Prediction})
	assert.NoError(t, db.AddBatch("batch1", time.Now(), records, summary))

	fetched, err := db.GetBatchRecords("batch1")
	assert.NoError(t, err)
	assert.Equal(t, 2, len(fetched))
	assert.Equal(t, records[0].RiskLevel, fetched[0].RiskLevel)
	assert.Equal(t, records[1].DominantIssue, fetched[1].DominantIssue)
	assert.InDelta(t, records[0].HealthScore, fetched[0].HealthScore, 0.0001)
}

func TestGetBatchRecordsUnknownBatch(t *testing.T) {
	db := testDatabase(t)
	fetched, err := db.GetBatchRecords("nothing")
	assert.NoError(t, err)
	assert.Equal(t, 0, len(fetched))
}

func TestGetRecentBatchesOrdering(t *testing.T) {
	db := testDatabase(t)
	records := testRecords()
	summary := analytics.CalculateFleetStatistics([]analytics.Prediction{
		records[0].Prediction, records[1].Prediction})
	t0 := time.Now().Add(-2 * time.Hour)
	assert.NoError(t, db.AddBatch("older", t0, records, summary))
	assert.NoError(t, db.AddBatch("newer", t0.Add(time.Hour), records, summary))

	batches, err := db.GetRecentBatches(10)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(batches))
	assert.Equal(t, "newer", batches[0].ID)
	assert.Equal(t, "older", batches[1].ID)
	assert.Equal(t, 2, batches[0].NumRows)
}

func TestGetRecentBatchesLimit(t *testing.T) {
	db := testDatabase(t)
	records := testRecords()
	summary := analytics.CalculateFleetStatistics([]analytics.Prediction{
		records[0].Prediction, records[1].Prediction})
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		assert.NoError(
			t,
			db.AddBatch(
				string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute), records, summary))
	}
	batches, err := db.GetRecentBatches(3)
	assert.NoError(t, err)
	assert.Equal(t, 3, len(batches))
}

func TestFleetTrend(t *testing.T) {
	db := testDatabase(t)
	records := testRecords()
	summary := analytics.CalculateFleetStatistics([]analytics.Prediction{
		records[0].Prediction, records[1].Prediction})
	assert.NoError(t, db.AddBatch("b1", time.Now(), records, summary))
	trend, err := db.FleetTrend(10)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(trend))
	assert.InDelta(t, summary.AvgHealthScore, trend[0], 0.0001)
}
