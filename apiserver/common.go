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
	"context"

	"github.com/gin-gonic/gin"
	"github.com/machsight/machsight/cnf"
	"github.com/machsight/machsight/frame"
	"github.com/machsight/machsight/scoring"
)

type service interface {
	Start(ctx context.Context)
	Stop(ctx context.Context) error
}

// ------

// VersionInfo provides a detailed information about the actual build
type VersionInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"buildDate"`
	GitCommit string `json:"gitCommit"`
}

// ------

// scoreRequest is a batch of sensor readings, one record per machine.
// Records may contain extra keys; those are ignored.
type scoreRequest struct {
	Records []map[string]float64 `json:"records"`
}

func (sr scoreRequest) toFrame(requiredFeatures []string) *frame.Frame {
	data := frame.New(requiredFeatures)
	for _, rec := range sr.Records {
		data.AppendRecord(rec)
	}
	return data
}

func (sr scoreRequest) missingFeatures(requiredFeatures []string) []string {
	if len(sr.Records) == 0 {
		return nil
	}
	present := make(map[string]bool)
	for _, rec := range sr.Records {
		for k := range rec {
			present[k] = true
		}
	}
	missing := make([]string, 0)
	for _, feat := range requiredFeatures {
		if !present[feat] {
			missing = append(missing, feat)
		}
	}
	return missing
}

// frameToRecords converts a scored frame into a list of column
// name -> value mappings, preserving the row order.
func frameToRecords(f *frame.Frame) []map[string]float64 {
	ans := make([]map[string]float64, f.NumRows())
	for i := range ans {
		ans[i] = f.Record(i)
	}
	return ans
}

// validateScoreRequest checks the batch before it enters the scoring
// pipeline. Missing features are reported via the scoring package's
// error type so the API and CLI produce the same message.
func validateScoreRequest(req scoreRequest) error {
	missing := req.missingFeatures(scoring.RequiredFeatures())
	if len(missing) > 0 {
		return scoring.MissingFeaturesError{
			Missing:  missing,
			Required: scoring.RequiredFeatures(),
		}
	}
	return nil
}

// -----

func corsMiddleware(conf *cnf.Conf) gin.HandlerFunc {
	return func(ctx *gin.Context) {

		var allowedOrigin string
		currOrigin := ctx.Request.Header.Get("Origin")
		for _, origin := range conf.CorsAllowedOrigins {
			if currOrigin == origin || origin == "*" {
				allowedOrigin = origin
				break
			}
		}
		if allowedOrigin != "" {
			ctx.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			ctx.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			ctx.Writer.Header().Set(
				"Access-Control-Allow-Headers",
				"Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With",
			)
			ctx.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		}

		if ctx.Request.Method == "OPTIONS" {
			ctx.AbortWithStatus(204)
			return
		}
		ctx.Next()
	}
}
