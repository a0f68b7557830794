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

package cnf

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/rs/zerolog/log"
)

const (
	dfltServerWriteTimeoutSecs = 30
	dfltTimeZone               = "Europe/Prague"
	dfltAIKeyEnv               = "MACHSIGHT_AI_API_KEY"
	dfltNumTrees               = 800
	dfltNumBins                = 20
	dfltRidgeLambda            = 1.0
	dfltNumSamples             = 10000
)

// AIConf configures the optional generative narrative service. The
// API key is never stored in the config file - only the name of the
// environment variable to read it from.
type AIConf struct {
	APIURL    string `json:"apiUrl"`
	ModelName string `json:"modelName"`
	APIKeyEnv string `json:"apiKeyEnv"`
}

// TrainingConf configures the data synthesis and model training
// actions.
type TrainingConf struct {
	NumSamples  int     `json:"numSamples"`
	NumTrees    int     `json:"numTrees"`
	NumBins     int     `json:"numBins"`
	RidgeLambda float64 `json:"ridgeLambda"`
}

type Conf struct {
	srcPath                string
	Logging                logging.LoggingConf `json:"logging"`
	ListenAddress          string              `json:"listenAddress"`
	ListenPort             int                 `json:"listenPort"`
	PublicURL              string              `json:"publicUrl"`
	ServerReadTimeoutSecs  int                 `json:"serverReadTimeoutSecs"`
	ServerWriteTimeoutSecs int                 `json:"serverWriteTimeoutSecs"`
	CorsAllowedOrigins     []string            `json:"corsAllowedOrigins"`
	TimeZone               string              `json:"timeZone"`
	ModelBankPath          string              `json:"modelBankPath"`
	ScalerPath             string              `json:"scalerPath"`
	StatsDBPath            string              `json:"statsDbPath"`
	UploadArchivePath      string              `json:"uploadArchivePath"`
	AI                     AIConf              `json:"ai"`
	Training               TrainingConf        `json:"training"`
}

func (conf *Conf) SrcPath() string {
	return conf.srcPath
}

// AIAPIKey resolves the narrative service credential from the
// configured environment variable.
func (conf *Conf) AIAPIKey() string {
	return os.Getenv(conf.AI.APIKeyEnv)
}

func LoadConfig(path string) *Conf {
	if path == "" {
		log.Fatal().Msg("Cannot load config - path not specified")
	}
	rawData, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot load config")
	}
	var conf Conf
	conf.srcPath = path
	err = json.Unmarshal(rawData, &conf)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot load config")
	}
	return &conf
}

func ValidateAndDefaults(conf *Conf) {
	if conf.ServerWriteTimeoutSecs == 0 {
		conf.ServerWriteTimeoutSecs = dfltServerWriteTimeoutSecs
		log.Warn().Msgf(
			"serverWriteTimeoutSecs not specified, using default: %d",
			dfltServerWriteTimeoutSecs,
		)
	}
	if conf.PublicURL == "" {
		conf.PublicURL = fmt.Sprintf("http://%s", conf.ListenAddress)
		log.Warn().Str("address", conf.PublicURL).Msg("publicUrl not set, using listenAddress")
	}
	if conf.TimeZone == "" {
		conf.TimeZone = dfltTimeZone
		log.Warn().
			Str("timeZone", dfltTimeZone).
			Msg("time zone not specified, using default")
	}
	if _, err := time.LoadLocation(conf.TimeZone); err != nil {
		log.Fatal().Err(err).Msg("invalid time zone")
	}
	if conf.ModelBankPath == "" {
		log.Fatal().Msg("modelBankPath not specified")
	}
	if conf.ScalerPath == "" {
		log.Fatal().Msg("scalerPath not specified")
	}
	if conf.AI.APIKeyEnv == "" {
		conf.AI.APIKeyEnv = dfltAIKeyEnv
	}
	if conf.Training.NumSamples == 0 {
		conf.Training.NumSamples = dfltNumSamples
	}
	if conf.Training.NumTrees == 0 {
		conf.Training.NumTrees = dfltNumTrees
	}
	if conf.Training.NumBins == 0 {
		conf.Training.NumBins = dfltNumBins
	}
	if conf.Training.RidgeLambda == 0 {
		conf.Training.RidgeLambda = dfltRidgeLambda
	}
}
