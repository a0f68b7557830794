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

// Package rf wraps a Random Forest classifier for regression via
// quantile binning: target values are discretized into quantile bins
// during training and a prediction is the vote-weighted average of
// the bin midpoints.
package rf

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	randomforest "github.com/malaschitz/randomForest"
	"github.com/rs/zerolog/log"
)

const ModelName = "random_forest"

// jsonizedModel stores the binned training set rather than the
// trained forest. The randomForest package gives no guarantees about
// JSON fidelity of its tree internals, so the forest is refit from
// the stored data on load.
type jsonizedModel struct {
	TrainX       [][]float64 `json:"trainX"`
	TrainClass   []int       `json:"trainClass"`
	NumTrees     int         `json:"numTrees"`
	BinMidpoints []float64   `json:"binMidpoints"`
	Comment      string      `json:"comment"`
}

type Model struct {
	Forest       *randomforest.Forest
	BinMidpoints []float64
	NumTrees     int
	Comment      string
}

func (m *Model) Name() string {
	return ModelName
}

// PredictRow returns the expected target value under the vote
// distribution over the quantile bins.
func (m *Model) PredictRow(features []float64) (float64, error) {
	votes := m.Forest.Vote(features)
	if len(votes) != len(m.BinMidpoints) {
		return 0, fmt.Errorf(
			"failed to predict with %s: %d vote classes vs. %d bins",
			ModelName, len(votes), len(m.BinMidpoints))
	}
	var ans float64
	for k, v := range votes {
		ans += v * m.BinMidpoints[k]
	}
	return ans, nil
}

// NewModel creates an untrained model.
func NewModel(numTrees int) *Model {
	return &Model{
		Forest:   &randomforest.Forest{},
		NumTrees: numTrees,
	}
}

// Train fits the forest on feature vectors and continuous targets.
// Targets are discretized into numBins quantile bins; each bin's
// midpoint is the mean of the target values it contains.
// The `comment` argument is stored with the model for easier review.
func (m *Model) Train(features [][]float64, targets []float64, numBins int, comment string) error {
	if len(features) == 0 {
		return fmt.Errorf("no training data provided")
	}
	if len(features) != len(targets) {
		return fmt.Errorf(
			"failed to train RF model: %d feature vectors vs. %d targets",
			len(features), len(targets))
	}
	if numBins < 2 {
		return fmt.Errorf("failed to train RF model: at least 2 bins required")
	}
	if m.NumTrees <= 0 {
		return fmt.Errorf("failed to train RF model: invalid value of NumTrees")
	}

	edges := quantileEdges(targets, numBins)
	classes := make([]int, len(targets))
	sums := make([]float64, numBins)
	counts := make([]float64, numBins)
	for i, t := range targets {
		k := binIndex(edges, t)
		classes[i] = k
		sums[k] += t
		counts[k]++
	}
	m.BinMidpoints = make([]float64, numBins)
	for k := range m.BinMidpoints {
		if counts[k] > 0 {
			m.BinMidpoints[k] = sums[k] / counts[k]

		} else {
			m.BinMidpoints[k] = (edges[k] + edges[k+1]) / 2
		}
	}
	log.Debug().
		Int("dataSize", len(features)).
		Int("numBins", numBins).
		Msg("prepared binned training vectors")

	m.Forest.Data = randomforest.ForestData{
		X:     features,
		Class: classes,
	}
	m.Forest.Train(m.NumTrees)
	m.Comment = comment
	return nil
}

// quantileEdges returns numBins+1 edges placed at target quantiles.
func quantileEdges(targets []float64, numBins int) []float64 {
	sorted := make([]float64, len(targets))
	copy(sorted, targets)
	sort.Float64s(sorted)
	edges := make([]float64, numBins+1)
	for k := 0; k <= numBins; k++ {
		pos := float64(k) / float64(numBins) * float64(len(sorted)-1)
		edges[k] = sorted[int(pos)]
	}
	return edges
}

func binIndex(edges []float64, v float64) int {
	numBins := len(edges) - 1
	for k := 1; k < numBins; k++ {
		if v < edges[k] {
			return k - 1
		}
	}
	return numBins - 1
}

// SaveToFile saves the RF model together with its bin midpoints.
func (m *Model) SaveToFile(filePath string) error {
	if len(m.Forest.Data.Class) == 0 {
		return fmt.Errorf("failed to save RF model to a file: model is not trained")
	}
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to save RF model to a file: %w", err)
	}
	defer file.Close()

	tmpModel := jsonizedModel{
		TrainX:       m.Forest.Data.X,
		TrainClass:   m.Forest.Data.Class,
		NumTrees:     m.NumTrees,
		BinMidpoints: m.BinMidpoints,
		Comment:      m.Comment,
	}
	outData, err := json.Marshal(tmpModel)
	if err != nil {
		return fmt.Errorf("failed to save RF model to a file: %w", err)
	}
	if _, err := file.Write(outData); err != nil {
		return fmt.Errorf("failed to save RF model to a file: %w", err)
	}
	return nil
}

// LoadFromFile loads a serialized RF model and refits the forest
// from the stored training set.
func LoadFromFile(filePath string) (*Model, error) {
	rawData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load RF model from file: %w", err)
	}
	var tmpModel jsonizedModel
	if err := json.Unmarshal(rawData, &tmpModel); err != nil {
		return nil, fmt.Errorf("failed to load RF model from file: %w", err)
	}
	if len(tmpModel.TrainX) == 0 || len(tmpModel.TrainX) != len(tmpModel.TrainClass) {
		return nil, fmt.Errorf(
			"failed to load RF model from file: corrupted training data (%d feature vectors vs. %d classes)",
			len(tmpModel.TrainX), len(tmpModel.TrainClass))
	}
	if tmpModel.NumTrees <= 0 {
		return nil, fmt.Errorf("failed to load RF model from file: invalid value of NumTrees")
	}
	forest := &randomforest.Forest{}
	forest.Data = randomforest.ForestData{
		X:     tmpModel.TrainX,
		Class: tmpModel.TrainClass,
	}
	forest.Train(tmpModel.NumTrees)
	return &Model{
		Forest:       forest,
		BinMidpoints: tmpModel.BinMidpoints,
		NumTrees:     tmpModel.NumTrees,
		Comment:      tmpModel.Comment,
	}, nil
}
