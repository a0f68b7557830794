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

// Package ai generates free-text maintenance narratives for a single
// machine via a hosted generative-language API. The service is an
// optional layer: any failure (missing credentials, network, API) is
// returned inside the Analysis envelope, never as an error value, so
// the deterministic scoring path is never blocked by it.
package ai

import (
	"context"
	"fmt"

	"github.com/machsight/machsight/analytics"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Depth selects the analysis scope requested from the model.
type Depth string

const (
	DepthQuickScan Depth = "Quick Scan"
	DepthStandard  Depth = "Standard"
	DepthDeep      Depth = "Deep Analysis"
)

// Analysis is the structured success/error envelope of one narrative
// request.
type Analysis struct {
	Status          string                       `json:"status"`
	ErrorMessage    string                       `json:"errorMessage,omitempty"`
	RootCause       string                       `json:"rootCause,omitempty"`
	RiskAssessment  string                       `json:"riskAssessment,omitempty"`
	Recommendations string                       `json:"maintenanceRecommendations,omitempty"`
	Timeline        string                       `json:"timeline,omitempty"`
	CostImpact      string                       `json:"costImpact,omitempty"`
	FullResponse    string                       `json:"fullResponse,omitempty"`
	Prediction      analytics.EnrichedPrediction `json:"predictionData"`
}

type Service struct {
	apiURL    string
	modelName string
	apiKey    string
}

// NewService creates the narrative service. An empty API key is
// valid - the service stays unconfigured and degrades gracefully.
func NewService(apiURL, modelName, apiKey string) *Service {
	return &Service{
		apiURL:    apiURL,
		modelName: modelName,
		apiKey:    apiKey,
	}
}

func (s *Service) IsConfigured() bool {
	return s.apiKey != "" && s.modelName != ""
}

// GenerateAnalysis asks the model for a structured maintenance
// narrative for one machine. It never returns a Go error; inspect
// Analysis.Status instead.
func (s *Service) GenerateAnalysis(
	ctx context.Context,
	machineData map[string]float64,
	prediction analytics.EnrichedPrediction,
	depth Depth,
) Analysis {
	if !s.IsConfigured() {
		return Analysis{
			Status:       StatusError,
			ErrorMessage: "AI service not configured (missing API key or model name)",
			Prediction:   prediction,
		}
	}

	config := openai.DefaultConfig(s.apiKey)
	if s.apiURL != "" {
		config.BaseURL = s.apiURL
	}
	client := openai.NewClientWithConfig(config)

	prompt := buildAnalysisPrompt(machineData, prediction, depth)
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: 0.4,
	})
	if err != nil {
		log.Error().Err(err).Msg("AI analysis request failed")
		return Analysis{
			Status:       StatusError,
			ErrorMessage: fmt.Sprintf("AI analysis failed: %s", err),
			Prediction:   prediction,
		}
	}
	if len(resp.Choices) == 0 {
		return Analysis{
			Status:       StatusError,
			ErrorMessage: "AI analysis failed: no choices in response",
			Prediction:   prediction,
		}
	}

	ans := parseResponse(resp.Choices[0].Message.Content)
	ans.Status = StatusSuccess
	ans.Prediction = prediction
	return ans
}
