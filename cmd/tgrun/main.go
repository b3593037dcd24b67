/*
Copyright Guardlabs Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// tgrun executes a YAML-described suite of synthetic test cases under the
// timeout guard. It exists to exercise and demonstrate the guard end to end:
// each case sleeps for a configured duration and optionally fails, and tgrun
// reports per-case verdicts distinguishing ordinary failures from timeouts.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/guardlabs/timeguard"
	"github.com/guardlabs/timeguard/pkg/logging"
)

type arguments struct {
	suitePath     string
	defaultBudget time.Duration
	policy        timeguard.Policy
	pollInterval  time.Duration
	logLevel      zapcore.Level
	parallel      int
}

func parseArgs(args []string) (*arguments, error) {
	app := kingpin.New("tgrun", "Runs a YAML suite of synthetic test cases under the timeout guard.")
	suitePath := app.Flag("suite", "The suite file to execute.").Required().ExistingFile()
	defaultBudget := app.Flag("defaultBudget", "Budget applied to cases that do not set one (0 leaves them untracked).").Default("0").Duration()
	policy := app.Flag("policy", "What to do with a case that exceeds its budget.").Default("abort").Enum("abort", "continue")
	pollInterval := app.Flag("pollInterval", "How often the watchdog scans for overdue cases.").Default("200ms").Duration()
	logLevel := app.Flag("logLevel", "Verbosity of guard diagnostics.").Default("warn").Enum("debug", "info", "warn", "error")
	parallel := app.Flag("parallel", "Number of cases to run concurrently.").Default("1").Int()

	_, err := app.Parse(args)
	if err != nil {
		return nil, err
	}

	if *parallel < 1 {
		return nil, errors.Errorf("--parallel must be at least 1, got %d", *parallel)
	}

	guardPolicy := timeguard.PolicyAbort
	if *policy == "continue" {
		guardPolicy = timeguard.PolicyContinue
	}

	zapLevel := zapcore.WarnLevel
	switch *logLevel {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	}

	return &arguments{
		suitePath:     *suitePath,
		defaultBudget: *defaultBudget,
		policy:        guardPolicy,
		pollInterval:  *pollInterval,
		logLevel:      zapLevel,
		parallel:      *parallel,
	}, nil
}

func newLogger(level zapcore.Level) (logging.Logger, func(), error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	z, err := cfg.Build()
	if err != nil {
		return nil, nil, errors.WithMessage(err, "could not construct logger")
	}
	return logging.FromZap(z), func() { _ = z.Sync() }, nil
}

func main() {
	kingpin.Version("0.1.0")
	args, err := parseArgs(os.Args[1:])
	if err != nil {
		kingpin.Fatalf("failed to parse arguments, %s, try --help", err)
	}

	logger, closeLogger, err := newLogger(args.logLevel)
	if err != nil {
		kingpin.Fatalf("%s", err)
	}
	defer closeLogger()

	if err := args.execute(os.Stdout, logger); err != nil {
		fmt.Println("")
		kingpin.Fatalf("%s", err)
	}
}
