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

package scoring

import (
	"encoding/json"
	"fmt"
)

// NumEnsembleModels is the fixed number of constituent regressors
// per target. The fixed-size arrays below make a weight/prediction
// shape mismatch unrepresentable.
const NumEnsembleModels = 4

const (
	scoreMin = 0.0
	scoreMax = 100.0
)

// Weights is a per-target convex combination of the ensemble models.
// The order matches the model slot order of TargetBundle.Models
// (GBT-A, random forest, GBT-B, ridge) and the weights are expected
// to sum to 1.
type Weights [NumEnsembleModels]float64

// UnmarshalJSON rejects weight vectors of the wrong length. The
// default array decoding would silently drop extra elements and
// zero-fill missing ones.
func (w *Weights) UnmarshalJSON(data []byte) error {
	var items []float64
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	if len(items) != NumEnsembleModels {
		return fmt.Errorf(
			"invalid ensemble weights: expected %d values, got %d",
			NumEnsembleModels, len(items))
	}
	copy(w[:], items)
	return nil
}

// CombineScores computes the weighted sum of the four constituent
// predictions and clips the result to the [0, 100] score range.
// Pure function, no special-casing of degenerate inputs.
func CombineScores(weights Weights, preds [NumEnsembleModels]float64) float64 {
	var ans float64
	for i := range preds {
		ans += weights[i] * preds[i]
	}
	return clip(ans, scoreMin, scoreMax)
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
