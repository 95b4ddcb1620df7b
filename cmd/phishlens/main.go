package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/mikey/phishlens/internal/cli"
	"github.com/mikey/phishlens/internal/logging"
)

func main() {
	logger, err := logging.InitConsoleLogger(false, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := cli.Execute(); err != nil {
		logger.Fatal("Command failed", zap.Error(err))
	}
}
