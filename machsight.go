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

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/machsight/machsight/apiserver"
	"github.com/machsight/machsight/cnf"
)

const (
	actionServer   = "server"
	actionPredict  = "predict"
	actionAnalyze  = "analyze"
	actionGenerate = "generate"
	actionTrain    = "train"
	actionVersion  = "version"
	actionHelp     = "help"

	exitErrorGeneralFailure = iota
	exitErrorInvalidArgs
)

var (
	version   string
	buildDate string
	gitCommit string
)

func topLevelUsage() {
	fmt.Fprintf(os.Stderr, "MACHSIGHT - a predictive maintenance scoring service\n")
	fmt.Fprintf(os.Stderr, "-----------------------------\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "\t%s\t\t\tshow version info\n", actionVersion)
	fmt.Fprintf(os.Stderr, "\t%s\t\t\trun the HTTP API server\n", actionServer)
	fmt.Fprintf(os.Stderr, "\t%s\t\t\tscore a CSV batch of sensor readings\n", actionPredict)
	fmt.Fprintf(os.Stderr, "\t%s\t\t\tgenerate an AI maintenance narrative for one machine\n", actionAnalyze)
	fmt.Fprintf(os.Stderr, "\t%s\t\tgenerate a synthetic training dataset\n", actionGenerate)
	fmt.Fprintf(os.Stderr, "\t%s\t\t\ttrain per-target models from a dataset\n", actionTrain)
	fmt.Fprintf(os.Stderr, "\nUse `machsight help ACTION` for information about a specific action\n\n")
}

func setup(confPath string) *cnf.Conf {
	conf := cnf.LoadConfig(confPath)
	if conf.Logging.Level == "" {
		conf.Logging.Level = "info"
	}
	logging.SetupLogging(conf.Logging)
	cnf.ValidateAndDefaults(conf)
	return conf
}

func cleanVersionInfo(v string) string {
	return strings.TrimLeft(strings.Trim(v, "'"), "v")
}

func main() {
	version := apiserver.VersionInfo{
		Version:   cleanVersionInfo(version),
		BuildDate: cleanVersionInfo(buildDate),
		GitCommit: cleanVersionInfo(gitCommit),
	}

	cmdServer := flag.NewFlagSet(actionServer, flag.ExitOnError)
	cmdServer.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\t%s %s [options] config.json\n",
			filepath.Base(os.Args[0]), actionServer)
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		cmdServer.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nrun the MachSight HTTP API server\n")
	}

	cmdPredict := flag.NewFlagSet(actionPredict, flag.ExitOnError)
	predictOut := cmdPredict.String("out", "", "if set, then the scored batch is also written to the provided CSV path")
	cmdPredict.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\t%s %s [options] config.json input.csv\n",
			filepath.Base(os.Args[0]), actionPredict)
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		cmdPredict.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nscore a CSV batch and print per-machine health and fleet summary\n")
	}

	cmdAnalyze := flag.NewFlagSet(actionAnalyze, flag.ExitOnError)
	analyzeRow := cmdAnalyze.Int("row", 0, "index of the machine (CSV row) to analyze")
	analyzeDepth := cmdAnalyze.String("depth", "Standard", "analysis depth (Quick Scan, Standard, Deep Analysis)")
	cmdAnalyze.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\t%s %s [options] config.json input.csv\n",
			filepath.Base(os.Args[0]), actionAnalyze)
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		cmdAnalyze.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\ngenerate an AI maintenance narrative for one machine of a batch\n")
	}

	cmdGenerate := flag.NewFlagSet(actionGenerate, flag.ExitOnError)
	generateSamples := cmdGenerate.Int("samples", 0, "number of samples to generate (default from config)")
	generateSeed := cmdGenerate.Uint64("seed", 42, "random seed")
	generateTestRatio := cmdGenerate.Float64("test-ratio", 0.2, "fraction of samples held out as the test split")
	cmdGenerate.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\t%s %s [options] config.json outDir\n",
			filepath.Base(os.Args[0]), actionGenerate)
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		cmdGenerate.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\ngenerate a synthetic dataset incl. a fitted feature scaler\n")
	}

	cmdTrain := flag.NewFlagSet(actionTrain, flag.ExitOnError)
	cmdTrain.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\t%s %s [options] config.json dataDir outDir\n",
			filepath.Base(os.Args[0]), actionTrain)
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		cmdTrain.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\ntrain per-target models and write the model bank manifest\n")
	}

	cmdVersion := flag.NewFlagSet(actionVersion, flag.ExitOnError)
	cmdVersion.Usage = func() {
		cmdVersion.PrintDefaults()
	}

	cmdHelp := flag.NewFlagSet(actionHelp, flag.ExitOnError)
	cmdHelp.Usage = func() {
		cmdHelp.PrintDefaults()
	}

	action := actionHelp
	if len(os.Args) > 1 {
		action = os.Args[1]
	}

	switch action {
	case actionHelp:
		var subj string
		if len(os.Args) > 2 {
			cmdHelp.Parse(os.Args[2:])
			subj = cmdHelp.Arg(0)
		}
		if subj == "" {
			topLevelUsage()
			return
		}
		switch subj {
		case actionServer:
			cmdServer.Usage()
		case actionPredict:
			cmdPredict.Usage()
		case actionAnalyze:
			cmdAnalyze.Usage()
		case actionGenerate:
			cmdGenerate.Usage()
		case actionTrain:
			cmdTrain.Usage()
		}
	case actionVersion:
		cmdVersion.Parse(os.Args[2:])
		fmt.Fprintln(os.Stderr, "MachSight version: ", version)
	case actionServer:
		cmdServer.Parse(os.Args[2:])
		conf := setup(cmdServer.Arg(0))
		runServer(conf, version)
	case actionPredict:
		cmdPredict.Parse(os.Args[2:])
		conf := setup(cmdPredict.Arg(0))
		runPredict(conf, cmdPredict.Arg(1), *predictOut)
	case actionAnalyze:
		cmdAnalyze.Parse(os.Args[2:])
		conf := setup(cmdAnalyze.Arg(0))
		runAnalyze(conf, cmdAnalyze.Arg(1), *analyzeRow, *analyzeDepth)
	case actionGenerate:
		cmdGenerate.Parse(os.Args[2:])
		conf := setup(cmdGenerate.Arg(0))
		runGenerate(conf, cmdGenerate.Arg(1), *generateSamples, *generateSeed, *generateTestRatio)
	case actionTrain:
		cmdTrain.Parse(os.Args[2:])
		conf := setup(cmdTrain.Arg(0))
		runTrain(conf, cmdTrain.Arg(1), cmdTrain.Arg(2))
	default:
		fmt.Fprintf(os.Stderr, "Unknown action, please use 'help' to get more information")
		os.Exit(exitErrorInvalidArgs)
	}

}
