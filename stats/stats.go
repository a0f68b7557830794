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

// Package stats persists scored-batch history in a local sqlite
// database so fleet condition can be tracked over time.
package stats

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/machsight/machsight/analytics"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

type Database struct {
	db *sql.DB
}

// BatchInfo is the stored per-batch summary row.
type BatchInfo struct {
	ID             string    `json:"id"`
	Created        time.Time `json:"created"`
	NumRows        int       `json:"numRows"`
	AvgHealthScore float64   `json:"avgHealthScore"`
	CriticalCount  int       `json:"criticalCount"`
	HighCount      int       `json:"highCount"`
	MediumCount    int       `json:"mediumCount"`
	LowCount       int       `json:"lowCount"`
}

func NewDatabase(path string) (*Database, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open stats database: %w", err)
	}
	return &Database{db: db}, nil
}

func (database *Database) Close() error {
	if database != nil && database.db != nil {
		return database.db.Close()
	}
	return nil
}

func (database *Database) tableExists(name string) (bool, error) {
	row := database.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name)
	var num int
	if err := row.Scan(&num); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", name, err)
	}
	return num > 0, nil
}

func (database *Database) createScoreBatchTable() error {
	_, err := database.db.Exec(
		"CREATE TABLE score_batch (" +
			"id TEXT PRIMARY KEY NOT NULL, " +
			"created INTEGER NOT NULL, " +
			"numRows INTEGER NOT NULL, " +
			"avgHealthScore FLOAT NOT NULL, " +
			"numCritical INTEGER NOT NULL, " +
			"numHigh INTEGER NOT NULL, " +
			"numMedium INTEGER NOT NULL, " +
			"numLow INTEGER NOT NULL" +
			")",
	)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	log.Info().Msg("created table `score_batch`")
	return nil
}

func (database *Database) createScoreRecordTable() error {
	_, err := database.db.Exec(
		"CREATE TABLE score_record (" +
			"batchId TEXT NOT NULL, " +
			"rowIdx INTEGER NOT NULL, " +
			"vibrationIndex FLOAT NOT NULL, " +
			"thermalIndex FLOAT NOT NULL, " +
			"efficiencyIndex FLOAT NOT NULL, " +
			"failureRisk FLOAT NOT NULL, " +
			"healthScore FLOAT NOT NULL, " +
			"riskLevel TEXT NOT NULL, " +
			"dominantIssue TEXT NOT NULL, " +
			"PRIMARY KEY (batchId, rowIdx)" +
			")",
	)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	log.Info().Msg("created table `score_record`")
	return nil
}

// Init creates missing tables. Safe to call repeatedly.
func (database *Database) Init() error {
	exists, err := database.tableExists("score_batch")
	if err != nil {
		return err
	}
	if !exists {
		if err := database.createScoreBatchTable(); err != nil {
			return err
		}
	}
	exists, err = database.tableExists("score_record")
	if err != nil {
		return err
	}
	if !exists {
		if err := database.createScoreRecordTable(); err != nil {
			return err
		}
	}
	return nil
}

// AddBatch stores a scored batch - the per-row enriched records plus
// the batch summary - in a single transaction.
func (database *Database) AddBatch(
	batchID string,
	created time.Time,
	records []analytics.EnrichedPrediction,
	summary analytics.FleetSummary,
) error {
	tx, err := database.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to store scored batch: %w", err)
	}
	_, err = tx.Exec(
		"INSERT INTO score_batch (id, created, numRows, avgHealthScore, numCritical, numHigh, numMedium, numLow) "+
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		batchID,
		created.Unix(),
		len(records),
		summary.AvgHealthScore,
		summary.CriticalCount,
		summary.HighRiskCount,
		summary.MediumRiskCount,
		summary.LowRiskCount,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to store scored batch: %w", err)
	}
	for i, rec := range records {
		_, err = tx.Exec(
			"INSERT INTO score_record "+
				"(batchId, rowIdx, vibrationIndex, thermalIndex, efficiencyIndex, failureRisk, healthScore, riskLevel, dominantIssue) "+
				"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			batchID,
			i,
			rec.VibrationIndex,
			rec.ThermalIndex,
			rec.EfficiencyIndex,
			rec.FailureRisk,
			rec.HealthScore,
			string(rec.RiskLevel),
			string(rec.DominantIssue),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to store scored batch: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to store scored batch: %w", err)
	}
	return nil
}

// GetBatchRecords fetches the enriched records of one batch in row
// order.
func (database *Database) GetBatchRecords(batchID string) ([]analytics.EnrichedPrediction, error) {
	rows, err := database.db.Query(
		"SELECT vibrationIndex, thermalIndex, efficiencyIndex, failureRisk, healthScore, riskLevel, dominantIssue "+
			"FROM score_record WHERE batchId = ? ORDER BY rowIdx",
		batchID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch batch records: %w", err)
	}
	defer rows.Close()
	ans := make([]analytics.EnrichedPrediction, 0, 100)
	for rows.Next() {
		var rec analytics.EnrichedPrediction
		var riskLevel, dominantIssue string
		err := rows.Scan(
			&rec.VibrationIndex,
			&rec.ThermalIndex,
			&rec.EfficiencyIndex,
			&rec.FailureRisk,
			&rec.HealthScore,
			&riskLevel,
			&dominantIssue,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch batch records: %w", err)
		}
		rec.RiskLevel = analytics.RiskLevel(riskLevel)
		rec.DominantIssue = analytics.IssueType(dominantIssue)
		ans = append(ans, rec)
	}
	return ans, nil
}

// GetRecentBatches lists the latest batch summaries, newest first.
func (database *Database) GetRecentBatches(limit int) ([]BatchInfo, error) {
	rows, err := database.db.Query(
		"SELECT id, created, numRows, avgHealthScore, numCritical, numHigh, numMedium, numLow "+
			"FROM score_batch ORDER BY created DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent batches: %w", err)
	}
	defer rows.Close()
	ans := make([]BatchInfo, 0, limit)
	for rows.Next() {
		var info BatchInfo
		var created int64
		err := rows.Scan(
			&info.ID,
			&created,
			&info.NumRows,
			&info.AvgHealthScore,
			&info.CriticalCount,
			&info.HighCount,
			&info.MediumCount,
			&info.LowCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch recent batches: %w", err)
		}
		info.Created = time.Unix(created, 0)
		ans = append(ans, info)
	}
	return ans, nil
}

// FleetTrend returns average health scores of the latest batches in
// chronological order.
func (database *Database) FleetTrend(limit int) ([]float64, error) {
	batches, err := database.GetRecentBatches(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to compute fleet trend: %w", err)
	}
	ans := make([]float64, len(batches))
	for i, b := range batches {
		ans[len(batches)-1-i] = b.AvgHealthScore
	}
	return ans, nil
}
