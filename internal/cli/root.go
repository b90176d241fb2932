// Package cli implements the vigil command line.
package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rickchristie/vigil/config"
	"github.com/rickchristie/vigil/internal/telemetry"
)

var (
	configPath string
	traceSpans bool

	cfg      *config.Config
	logger   = slog.New(slog.NewTextHandler(io.Discard, nil))
	shutdown telemetry.Shutdown
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config YAML (optional)")
	rootCmd.PersistentFlags().BoolVar(&traceSpans, "trace", false, "Print OpenTelemetry spans to stderr")
}

var rootCmd = &cobra.Command{
	Use:           "vigil",
	Short:         "Runtime validators for agent event streams",
	Long:          "Replays recorded agent events through the spam, usage and model-failure\nvalidators, and probes model availability.",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		logger = cfg.Log.NewLogger(cmd.ErrOrStderr())

		if traceSpans {
			_, stop, err := telemetry.InitTracer(cmd.ErrOrStderr(), logger)
			if err != nil {
				return err
			}
			shutdown = stop
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if shutdown == nil {
			return nil
		}
		err := shutdown(cmd.Context())
		shutdown = nil
		return err
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
