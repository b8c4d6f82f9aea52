package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mgpai22/audiobooker/internal/cli"
	"github.com/mgpai22/audiobooker/internal/config"
	"github.com/mgpai22/audiobooker/internal/ffmpeg"
	"github.com/mgpai22/audiobooker/internal/har"
)

const (
	ExitOK        = 0
	ExitGeneral   = 1
	ExitUsage     = 2
	ExitParse     = 3
	ExitTool      = 4
	ExitInterrupt = 130
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitInterrupt
	case errors.Is(err, config.ErrInvalid) || isCobraUsageError(err):
		return ExitUsage
	case errors.Is(err, har.ErrParse):
		return ExitParse
	case errors.Is(err, ffmpeg.ErrToolExecution),
		errors.Is(err, ffmpeg.ErrNotFound),
		errors.Is(err, ffmpeg.ErrUnsupportedPlatform):
		return ExitTool
	default:
		return ExitGeneral
	}
}

// Cobra doesn't expose typed errors for flag and argument parsing.
var cobraUsageErrorPatterns = []string{
	"required flag",
	"unknown flag",
	"unknown shorthand",
	"unknown command",
	"flag needs an argument",
	"invalid argument",
	"accepts ",
	"requires at least",
	"requires at most",
}

func isCobraUsageError(err error) bool {
	msg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
