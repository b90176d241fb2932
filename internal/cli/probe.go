package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rickchristie/vigil/probe"
)

// ErrProbeFailed is returned when a model answers the probe unusably.
var ErrProbeFailed = errors.New("model probe failed")

func init() {
	rootCmd.AddCommand(probeCmd)
}

var probeCmd = &cobra.Command{
	Use:   "probe <model>",
	Short: "Check that a model is reachable and answers",
	Long: "Runs the same capability probe the thinker-failure validator uses.\n" +
		"Known models: " + probe.GeminiModelName + ". Any other name fails.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := Probe(cmd.Context(), cfg.ProbeTable(logger), args[0], cfg.Probe.Timeout); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "model %s: ok\n", args[0])
		return nil
	},
}

// Probe tests model once with a throwaway session id. A zero timeout means
// no deadline beyond ctx.
func Probe(ctx context.Context, probes *probe.Table, model string, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ok, err := probes.Resolve(model).Probe(ctx, uuid.NewString())
	if err != nil {
		return fmt.Errorf("probe %s: %w", model, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrProbeFailed, model)
	}
	return nil
}
