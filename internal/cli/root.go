package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/mgpai22/audiobooker/internal/config"
	"github.com/mgpai22/audiobooker/internal/logging"
)

var (
	verbose bool
	logger  *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "audiobooker",
	Short: "Split downloaded audiobooks into chapter files",
	Long: `Audiobooker reads a browser network capture (HAR) of a Libby listening
session, downloads the audiobook parts it references and cuts them into
one tagged MP3 per chapter, using silences as chapter boundaries.

Every flag can also be set with an AUDIOBOOKER_* environment variable
or a .env file in the working directory.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		if !cmd.Flags().Changed("log-level") {
			if env := os.Getenv(config.EnvPrefix + "LOG_LEVEL"); env != "" {
				level = env
			}
		}

		l, err := logging.New(level, verbose)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		String("log-level", "info", "Log level (debug, info, warn, error)")
}
