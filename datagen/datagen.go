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

// Package datagen synthesizes training data: realistic sensor samples
// for eight machine classes and physics-based health targets derived
// from them. The generated dataset is what the model bank is fitted
// on (the GBT members by an external trainer).
package datagen

import (
	"math"
	"math/rand/v2"

	"github.com/machsight/machsight/frame"
	"github.com/machsight/machsight/scoring"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
)

type machineClass struct {
	name      string
	minSpeed  float64
	maxSpeed  float64
	minTorque float64
	maxTorque float64
}

var machineClasses = []machineClass{
	{"motor", 1200, 1800, 30, 50},
	{"pump", 2300, 2700, 25, 40},
	{"compressor", 2900, 3300, 45, 60},
	{"turbine", 5000, 6000, 60, 75},
	{"conveyor", 700, 900, 20, 35},
	{"fan", 1500, 1700, 15, 25},
	{"generator", 1700, 1850, 65, 85},
	{"mixer", 850, 1000, 35, 50},
}

var rainfallValues = []float64{0, 0.5, 1.0, 2.5, 5.0}
var rainfallProbs = []float64{0.9, 0.02, 0.01, 0.01, 0.01}

func clip(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func chooseRainfall(rng *rand.Rand) float64 {
	r := rng.Float64() * 0.95
	var cum float64
	for i, p := range rainfallProbs {
		cum += p
		if r < cum {
			return rainfallValues[i]
		}
	}
	return 0
}

// Generate produces numSamples synthetic machine rows. The returned
// frame holds the eight sensor features followed by the four target
// columns. A fixed seed makes the dataset reproducible.
func Generate(numSamples int, seed uint64) *frame.Frame {
	rng := rand.New(rand.NewPCG(seed, seed))
	columns := append(scoring.RequiredFeatures(),
		"vibration_health", "thermal_health", "efficiency_index", "failure_risk")
	data := frame.New(columns)

	bar := progressbar.Default(int64(numSamples), "generating samples")
	for i := 0; i < numSamples; i++ {
		class := machineClasses[rng.IntN(len(machineClasses))]
		baseSpeed := uniform(rng, class.minSpeed, class.maxSpeed)
		baseTorque := uniform(rng, class.minTorque, class.maxTorque)

		toolWear := uniform(rng, 5, 280)
		airTemp := uniform(rng, 296, 302)
		tempIncrease := toolWear/100*3 + baseTorque/50*5
		processTemp := airTemp + tempIncrease + rng.NormFloat64()*2

		temperature := airTemp - 273.15
		humidity := uniform(rng, 45, 80)
		rainfall := chooseRainfall(rng)
		speed := baseSpeed + rng.NormFloat64()*baseSpeed*0.05
		torque := baseTorque + rng.NormFloat64()*baseTorque*0.1

		tempDiff := processTemp - airTemp

		vibrationStress := speed/6000*0.25 + torque/100*0.30 + toolWear/300*0.45
		vibrationHealth := clip(
			100-clip(vibrationStress*100, 0, 100)+rng.NormFloat64()*4, 0, 100)

		thermalStress := tempDiff/25*0.70 + (processTemp-300)/30*0.30
		thermalHealth := clip(
			100-clip(thermalStress*100, 0, 100)+rng.NormFloat64()*3.5, 0, 100)

		efficiencyDegradation := toolWear/300*0.50 + torque/100*0.20 +
			tempDiff/25*0.20 + humidity/100*0.10
		efficiencyIndex := clip(
			100-clip(efficiencyDegradation*100, 0, 100)+rng.NormFloat64()*5, 5, 100)

		failureRisk := clip(
			(100-vibrationHealth)*0.35+(100-thermalHealth)*0.30+(100-efficiencyIndex)*0.35,
			0, 100)

		data.AppendRecord(map[string]float64{
			"air_temperature_k":     airTemp,
			"process_temperature_k": processTemp,
			"rotational_speed_rpm":  speed,
			"torque_nm":             torque,
			"tool_wear_min":         toolWear,
			"temperature":           temperature,
			"humidity":              humidity,
			"rainfall":              rainfall,
			"vibration_health":      vibrationHealth,
			"thermal_health":        thermalHealth,
			"efficiency_index":      efficiencyIndex,
			"failure_risk":          failureRisk,
		})
		bar.Add(1)
	}
	log.Info().Int("numSamples", numSamples).Msg("generated synthetic dataset")
	return data
}
