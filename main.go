package main

import (
	"context"
	"os"

	"github.com/globalbusinessadvisors/secretscout/cmd"
	"github.com/globalbusinessadvisors/secretscout/pkg/action"
	"github.com/globalbusinessadvisors/secretscout/pkg/config"
	"github.com/globalbusinessadvisors/secretscout/pkg/logger"
)

func main() {
	if config.InActionsMode() {
		os.Exit(runActionsMode())
	}

	os.Exit(cmd.Execute())
}

// runActionsMode drives the CI pipeline and returns the process exit code
func runActionsMode() int {
	_ = logger.SetLoggerFormat(logger.JSON)

	cfg, err := config.LocateAndLoadConfig(os.Getenv("SECRETSCOUT_CONFIG_PATH"))
	if err != nil {
		logger.Error("could not load config: %v", err)
		return config.ExitCodeOperationalError
	}

	actionConfig, err := config.FromEnv(cfg)
	if err != nil {
		logger.Error("could not read environment: %v", err)
		return config.ExitCodeOperationalError
	}

	runner, err := action.NewRunner(actionConfig)
	if err != nil {
		logger.Error("could not build runner: %v", err)
		return config.ExitCodeOperationalError
	}

	exitCode, err := runner.Run(context.Background())
	if err != nil {
		logger.Error("run failed: %v", err)
	}

	return exitCode
}
