package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rickchristie/vigil"
	"github.com/rickchristie/vigil/config"
	"github.com/rickchristie/vigil/events"
	"github.com/rickchristie/vigil/logsink"
	"github.com/rickchristie/vigil/probe"
	"github.com/rickchristie/vigil/session"
)

var replaySession string

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringVarP(&replaySession, "session", "s", "", "Session id (overrides the script; random when both are empty)")
}

var replayCmd = &cobra.Command{
	Use:   "replay <script.yaml>",
	Short: "Replay a recorded event script through the validators",
	Long: "Publishes each event of the script on a fresh bus with one session's\n" +
		"validators attached. Before each event the replay waits while the session\n" +
		"is paused and ends early once it is stopped, the way an agent runtime\n" +
		"honors control events. Prints the event timeline and usage as YAML.",
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	script, err := ParseScript(f)
	if err != nil {
		return err
	}
	if replaySession != "" {
		script.Session = replaySession
	}

	report, err := Replay(cmd.Context(), script, cfg, cfg.ProbeTable(logger))
	if err != nil {
		return err
	}
	return writeYAML(cmd.OutOrStdout(), report)
}

// Report is the outcome of a replay.
type Report struct {
	Session     string          `yaml:"session"`
	State       session.State   `yaml:"state"`
	StopMessage string          `yaml:"stop_message,omitempty"`
	Published   int             `yaml:"published"`
	Skipped     int             `yaml:"skipped,omitempty"`
	Usage       UsageReport     `yaml:"usage"`
	Timeline    []TimelineEntry `yaml:"timeline"`
	Log         []string        `yaml:"log,omitempty"`
}

type UsageReport struct {
	PromptTokens   int64   `yaml:"prompt_tokens"`
	ResponseTokens int64   `yaml:"response_tokens"`
	TotalTokens    int64   `yaml:"total_tokens"`
	EstimatedCost  float64 `yaml:"estimated_cost"`
}

// TimelineEntry is one event seen on the bus during the replay.
type TimelineEntry struct {
	Event   string `yaml:"event"`
	Detail  string `yaml:"detail,omitempty"`
	Control bool   `yaml:"control,omitempty"`
}

// Replay runs script against a new bus and session configured by c. If ctx
// ends while the session is paused, Replay returns ctx's error without
// waiting for the in-flight probe.
func Replay(ctx context.Context, script *Script, c *config.Config, probes *probe.Table) (*Report, error) {
	inbound, err := script.InboundEvents()
	if err != nil {
		return nil, err
	}

	id := script.Session
	if id == "" {
		id = uuid.NewString()
	}

	bus := events.NewBus().WithLogger(logger)
	sinks := logsink.NewRegistry().WithLogger(logger)
	rates := c.Usage.Rates()

	sess, err := session.Start(bus, session.Options{
		ID:           id,
		Sinks:        sinks,
		Probes:       probes,
		SpamWindow:   c.Spam.WindowSize,
		Rates:        &rates,
		ProbeTimeout: c.Probe.Timeout,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	tapCtx, discardTap := context.WithCancel(ctx)
	defer discardTap()
	tap, stopTap := bus.Tap(tapCtx)

	report := &Report{Session: id}
	for i, event := range inbound {
		if err := sess.RunState().WaitRunning(ctx); err != nil {
			if errors.Is(err, session.ErrStopped) {
				report.Skipped = len(inbound) - i
				break
			}
			return nil, err
		}
		bus.Publish(ctx, event)
		report.Published++
	}
	sess.Wait()
	stopTap()

	for event := range tap {
		report.Timeline = append(report.Timeline, TimelineEntry{
			Event:   event.EventName(),
			Detail:  describe(event),
			Control: vigil.IsControlEvent(event),
		})
	}

	usage := sess.Usage().Usage()
	report.State = sess.RunState().State()
	report.StopMessage = sess.RunState().StopMessage()
	report.Usage = UsageReport{
		PromptTokens:   usage.PromptTokens(),
		ResponseTokens: usage.ResponseTokens(),
		TotalTokens:    usage.TotalTokens(),
		EstimatedCost:  sess.Usage().TotalCost(),
	}
	if sink, ok := sinks.Get(id); ok {
		report.Log = sink.Messages(logsink.LevelInfo)
	}
	return report, nil
}

func describe(event vigil.Event) string {
	switch e := event.(type) {
	case *vigil.ActionStartedEvent:
		return e.Action.Step
	case *vigil.LLMCallEvent:
		return fmt.Sprintf("%s prompt=%d response=%d", e.ModelName, e.PromptTokens, e.RespTokens)
	case *vigil.ThinkerCallEvent:
		return fmt.Sprintf("[%s] %s: %s", e.Level, e.Model, e.Message)
	case *vigil.ValidatorWarningEvent:
		return e.Message
	case *vigil.StopEvent:
		return e.Message
	default:
		return ""
	}
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
