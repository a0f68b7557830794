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

// Package apiserver exposes the scoring pipeline, health analytics
// and the AI narrative service as an HTTP JSON API.
package apiserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/czcorpus/cnc-gokit/uniresp"
	"github.com/gin-gonic/gin"
	"github.com/machsight/machsight/ai"
	"github.com/machsight/machsight/archive"
	"github.com/machsight/machsight/cnf"
	"github.com/machsight/machsight/scoring"
	"github.com/machsight/machsight/stats"
	"github.com/rs/zerolog/log"
)

// -----

type apiServer struct {
	conf      *cnf.Conf
	version   VersionInfo
	server    *http.Server
	scorer    *scoring.Service
	statsDB   *stats.Database
	archiveDB *archive.DB
	aiSrv     *ai.Service
}

func (api *apiServer) Start(ctx context.Context) {
	if !api.conf.Logging.Level.IsDebugMode() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logging.GinMiddleware())
	engine.Use(uniresp.AlwaysJSONContentType())
	engine.Use(corsMiddleware(api.conf))
	engine.NoMethod(uniresp.NoMethodHandler)
	engine.NoRoute(uniresp.NotFoundHandler)

	engine.GET("/version", api.handleVersion)
	engine.GET("/features", api.handleFeatures)
	engine.POST("/score", api.handleScore)
	engine.POST("/score/enriched", api.handleScoreEnriched)
	engine.POST("/fleet/summary", api.handleFleetSummary)
	engine.GET("/history", api.handleHistory)
	engine.GET("/history/:batchId", api.handleBatchDetail)
	engine.POST("/analysis", api.handleAnalysis)

	log.Info().Msgf("starting to listen at %s:%d", api.conf.ListenAddress, api.conf.ListenPort)
	api.server = &http.Server{
		Handler:      engine,
		Addr:         fmt.Sprintf("%s:%d", api.conf.ListenAddress, api.conf.ListenPort),
		WriteTimeout: time.Duration(api.conf.ServerWriteTimeoutSecs) * time.Second,
		ReadTimeout:  time.Duration(api.conf.ServerReadTimeoutSecs) * time.Second,
	}
	go func() {
		if err := api.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()
}

func (api *apiServer) Stop(ctx context.Context) error {
	log.Warn().Msg("shutting down MachSight HTTP API server")
	return api.server.Shutdown(ctx)
}

// -------------------------

func Run(
	ctx context.Context,
	conf *cnf.Conf,
	version VersionInfo,
) {

	scorer, err := scoring.LoadService(conf.ModelBankPath, conf.ScalerPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load scoring service")
		return
	}
	log.Info().
		Strs("features", scorer.RequiredFeatures()).
		Msg("loaded model bank and feature scaler")

	statsDB, err := stats.NewDatabase(conf.StatsDBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open stats database")
		return
	}
	defer statsDB.Close()
	if err := statsDB.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize stats database")
		return
	}

	var archiveDB *archive.DB
	if conf.UploadArchivePath != "" {
		archiveDB, err = archive.OpenDB(conf.UploadArchivePath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open upload archive")
			return
		}
		defer archiveDB.Close()

	} else {
		log.Warn().Msg("upload archive not configured, uploaded batches will not be stored")
	}

	aiSrv := ai.NewService(conf.AI.APIURL, conf.AI.ModelName, conf.AIAPIKey())
	if !aiSrv.IsConfigured() {
		log.Warn().Msg("AI service not configured, the /analysis endpoint will return errors")
	}

	server := &apiServer{
		conf:      conf,
		version:   version,
		scorer:    scorer,
		statsDB:   statsDB,
		archiveDB: archiveDB,
		aiSrv:     aiSrv,
	}

	services := []service{server}
	for _, m := range services {
		m.Start(ctx)
	}
	<-ctx.Done()
	log.Warn().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for _, s := range services {
		wg.Add(1)
		go func(srv service) {
			defer wg.Done()
			if err := srv.Stop(shutdownCtx); err != nil {
				log.Error().Err(err).Type("service", srv).Msg("Error shutting down service")
			}
		}(s)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("Graceful shutdown completed")
	case <-shutdownCtx.Done():
		log.Warn().Msg("Shutdown timed out")
	}
}
