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

// Package scoring implements the ensemble scoring core: it validates
// and sanitizes raw sensor batches, applies a robust scaler frozen at
// training time and combines predictions of four regressors per health
// target into a single clipped score.
package scoring

// Target is one of the closed set of predicted health targets.
type Target string

const (
	TargetVibrationHealth Target = "vibration_health"
	TargetThermalHealth   Target = "thermal_health"
	TargetEfficiencyIndex Target = "efficiency_index"
	TargetFailureRisk     Target = "failure_risk"
)

func (t Target) Validate() bool {
	return t == TargetVibrationHealth || t == TargetThermalHealth ||
		t == TargetEfficiencyIndex || t == TargetFailureRisk
}

// OutputColumn returns the consumer-facing column name of the target.
// The vibration and thermal targets are historically exposed under
// different names; the other two pass through unchanged.
func (t Target) OutputColumn() string {
	switch t {
	case TargetVibrationHealth:
		return "vibration_index"
	case TargetThermalHealth:
		return "thermal_index"
	default:
		return string(t)
	}
}

// Targets lists all targets in their canonical (model bank) order.
func Targets() []Target {
	return []Target{
		TargetVibrationHealth,
		TargetThermalHealth,
		TargetEfficiencyIndex,
		TargetFailureRisk,
	}
}

// RequiredFeatures returns the ordered list of sensor features the
// model bank and scaler were fitted with. The order is part of the
// model artifact contract.
func RequiredFeatures() []string {
	return []string{
		"air_temperature_k",
		"process_temperature_k",
		"rotational_speed_rpm",
		"torque_nm",
		"tool_wear_min",
		"temperature",
		"humidity",
		"rainfall",
	}
}

// Regressor is an opaque single-row prediction capability. The core
// depends only on this contract, never on a concrete model library.
type Regressor interface {
	// PredictRow computes a real-valued prediction from an ordered
	// feature vector. The vector order must match the order the model
	// was fitted with.
	PredictRow(features []float64) (float64, error)

	// Name identifies the model slot (e.g. "random_forest").
	Name() string
}
