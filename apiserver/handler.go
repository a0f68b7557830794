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

package apiserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/czcorpus/cnc-gokit/unireq"
	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
	"github.com/machsight/machsight/ai"
	"github.com/machsight/machsight/analytics"
	"github.com/machsight/machsight/scoring"
	"github.com/rs/zerolog/log"
)

const dfltHistoryLimit = 20

func (api *apiServer) handleVersion(ctx *gin.Context) {
	uniresp.WriteJSONResponse(ctx.Writer, api.version)
}

func (api *apiServer) handleFeatures(ctx *gin.Context) {
	resp := map[string]any{
		"requiredFeatures": api.scorer.RequiredFeatures(),
		"outputColumns":    api.scorer.OutputColumns(),
	}
	uniresp.WriteJSONResponse(ctx.Writer, resp)
}

// scoreBatch runs the full scoring pipeline for a request batch and
// persists the result. It writes an error response and returns false
// if anything fails.
func (api *apiServer) scoreBatch(
	ctx *gin.Context,
) (string, []analytics.Prediction, []analytics.EnrichedPrediction, bool) {
	var req scoreRequest
	if err := ctx.BindJSON(&req); err != nil {
		uniresp.RespondWithErrorJSON(
			ctx, fmt.Errorf("invalid request: %w", err), http.StatusBadRequest)
		return "", nil, nil, false
	}
	if len(req.Records) == 0 {
		uniresp.RespondWithErrorJSON(
			ctx, fmt.Errorf("empty batch"), http.StatusUnprocessableEntity)
		return "", nil, nil, false
	}
	if err := validateScoreRequest(req); err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusUnprocessableEntity)
		return "", nil, nil, false
	}

	data := req.toFrame(api.scorer.RequiredFeatures())
	scored, err := api.scorer.Predict(data)
	if err != nil {
		var missingErr scoring.MissingFeaturesError
		if errors.As(err, &missingErr) {
			uniresp.RespondWithErrorJSON(ctx, err, http.StatusUnprocessableEntity)

		} else {
			uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		}
		return "", nil, nil, false
	}
	predictions, err := analytics.PredictionsFromFrame(scored)
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return "", nil, nil, false
	}
	enriched := analytics.Enrich(predictions)
	summary := analytics.CalculateFleetStatistics(predictions)

	created := time.Now()
	batchID := fmt.Sprintf("%x", created.UnixNano())
	if err := api.statsDB.AddBatch(batchID, created, enriched, summary); err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return "", nil, nil, false
	}
	if api.archiveDB != nil {
		payload, err := json.Marshal(req.Records)
		if err == nil {
			err = api.archiveDB.StoreBatch(batchID, payload, created)
		}
		if err != nil {
			// the batch is already scored and recorded, so just log the problem
			log.Error().Err(err).Str("batchId", batchID).Msg("failed to archive batch")
		}
	}
	return batchID, predictions, enriched, true
}

func (api *apiServer) handleScore(ctx *gin.Context) {
	batchID, predictions, _, ok := api.scoreBatch(ctx)
	if !ok {
		return
	}
	resp := map[string]any{
		"batchId":     batchID,
		"predictions": predictions,
	}
	uniresp.WriteJSONResponse(ctx.Writer, resp)
}

func (api *apiServer) handleScoreEnriched(ctx *gin.Context) {
	batchID, predictions, enriched, ok := api.scoreBatch(ctx)
	if !ok {
		return
	}
	resp := map[string]any{
		"batchId":     batchID,
		"predictions": enriched,
		"fleet":       analytics.CalculateFleetStatistics(predictions),
	}
	uniresp.WriteJSONResponse(ctx.Writer, resp)
}

func (api *apiServer) handleFleetSummary(ctx *gin.Context) {
	batchID, predictions, _, ok := api.scoreBatch(ctx)
	if !ok {
		return
	}
	resp := map[string]any{
		"batchId": batchID,
		"fleet":   analytics.CalculateFleetStatistics(predictions),
	}
	uniresp.WriteJSONResponse(ctx.Writer, resp)
}

func (api *apiServer) handleHistory(ctx *gin.Context) {
	limit, ok := unireq.GetURLIntArgOrFail(ctx, "limit", dfltHistoryLimit)
	if !ok {
		return
	}
	batches, err := api.statsDB.GetRecentBatches(limit)
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	trend, err := api.statsDB.FleetTrend(limit)
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	resp := map[string]any{
		"batches":          batches,
		"healthScoreTrend": trend,
	}
	uniresp.WriteJSONResponse(ctx.Writer, resp)
}

func (api *apiServer) handleBatchDetail(ctx *gin.Context) {
	batchID := ctx.Param("batchId")
	records, err := api.statsDB.GetBatchRecords(batchID)
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	if len(records) == 0 {
		uniresp.RespondWithErrorJSON(
			ctx, fmt.Errorf("batch not found"), http.StatusNotFound)
		return
	}
	resp := map[string]any{
		"batchId": batchID,
		"records": records,
	}
	if api.archiveDB != nil {
		payload, err := api.archiveDB.GetBatch(batchID)
		if err == nil {
			var uploaded []map[string]float64
			if err := json.Unmarshal(payload, &uploaded); err == nil {
				resp["uploadedRecords"] = uploaded
			}
		}
	}
	uniresp.WriteJSONResponse(ctx.Writer, resp)
}

type analysisRequest struct {
	Record map[string]float64 `json:"record"`
	Depth  string             `json:"depth"`
}

func (req analysisRequest) depth() (ai.Depth, error) {
	switch req.Depth {
	case "":
		return ai.DepthStandard, nil
	case string(ai.DepthQuickScan), string(ai.DepthStandard), string(ai.DepthDeep):
		return ai.Depth(req.Depth), nil
	}
	return "", fmt.Errorf("unknown analysis depth '%s'", req.Depth)
}

func (api *apiServer) handleAnalysis(ctx *gin.Context) {
	var req analysisRequest
	if err := ctx.BindJSON(&req); err != nil {
		uniresp.RespondWithErrorJSON(
			ctx, fmt.Errorf("invalid request: %w", err), http.StatusBadRequest)
		return
	}
	depth, err := req.depth()
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusBadRequest)
		return
	}
	if len(req.Record) == 0 {
		uniresp.RespondWithErrorJSON(
			ctx, fmt.Errorf("empty record"), http.StatusUnprocessableEntity)
		return
	}
	single := scoreRequest{Records: []map[string]float64{req.Record}}
	if err := validateScoreRequest(single); err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusUnprocessableEntity)
		return
	}
	scored, err := api.scorer.Predict(single.toFrame(api.scorer.RequiredFeatures()))
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	predictions, err := analytics.PredictionsFromFrame(scored)
	if err != nil {
		uniresp.RespondWithErrorJSON(ctx, err, http.StatusInternalServerError)
		return
	}
	enriched := analytics.Enrich(predictions)
	analysis := api.aiSrv.GenerateAnalysis(ctx, req.Record, enriched[0], depth)
	uniresp.WriteJSONResponse(ctx.Writer, analysis)
}
