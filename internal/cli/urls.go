package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgpai22/audiobooker/internal/config"
	"github.com/mgpai22/audiobooker/internal/har"
)

var urlsCmd = &cobra.Command{
	Use:   "urls [har_file]",
	Short: "List the audiobook parts found in a HAR capture",
	Long: `Print the distinct audiobook part URLs of a HAR capture in the order
they will be downloaded, with the time each was first requested.

Examples:
  audiobooker urls
  audiobooker urls session.har --media-host odrmediaclips.cachefly.net`,
	Args: cobra.MaximumNArgs(1),
	RunE: runURLs,
}

func init() {
	rootCmd.AddCommand(urlsCmd)

	addCaptureFlags(urlsCmd)
}

func runURLs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if len(args) == 1 {
		cfg.HARFile = args[0]
	}

	locators, err := har.LoadFile(cfg.HARFile, cfg.MediaHost)
	if err != nil {
		return err
	}
	logger.Debugw("Extracted locators", "har_file", cfg.HARFile, "count", len(locators))

	out := cmd.OutOrStdout()
	for i, loc := range locators {
		fmt.Fprintf(out, "%3d  %s  %s\n", i+1, loc.ObservedAt.UTC().Format(time.RFC3339), loc.URL)
	}
	if len(locators) == 0 {
		fmt.Fprintf(out, "no media from %s in %s\n", cfg.MediaHost, cfg.HARFile)
	}
	return nil
}
