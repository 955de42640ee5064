package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/mj1618/desktop-uia/internal/engine"
	"github.com/mj1618/desktop-uia/internal/model"
	"github.com/mj1618/desktop-uia/internal/output"
	"github.com/spf13/cobra"
)

// WaitResult is the output of a wait command.
type WaitResult struct {
	OK       bool           `yaml:"ok"                  json:"ok"`
	Action   string         `yaml:"action"              json:"action"`
	Elapsed  string         `yaml:"elapsed"             json:"elapsed"`
	Polls    int            `yaml:"polls"               json:"polls"`
	TimedOut bool           `yaml:"timed_out,omitempty" json:"timed_out,omitempty"`
	Element  *model.Element `yaml:"element,omitempty"   json:"element,omitempty"`
}

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for an element to appear or disappear",
	Long:  "Poll a window's element tree until an element matches the query (or, with --gone, until none does) or the timeout is reached.",
	Example: `  desktop-uia wait --window 0x1001 --name "Welcome" --timeout 10s
  desktop-uia wait --window 0x1001 --control-type ProgressBar --gone`,
	Args: cobra.NoArgs,
	RunE: runWait,
}

func init() {
	rootCmd.AddCommand(waitCmd)
	addQueryFlags(waitCmd)
	waitCmd.Flags().Bool("gone", false, "Wait until no element matches")
	waitCmd.Flags().Duration("timeout", 30*time.Second, "Max time to wait")
	waitCmd.Flags().Duration("interval", 500*time.Millisecond, "Polling interval")
	_ = waitCmd.MarkFlagRequired("window")
}

func runWait(cmd *cobra.Command, args []string) error {
	q, err := queryFromFlags(cmd)
	if err != nil {
		return err
	}
	if !hasQueryFlags(cmd) {
		return fmt.Errorf("specify at least one query flag to wait for")
	}
	gone, _ := cmd.Flags().GetBool("gone")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	interval, _ := cmd.Flags().GetDuration("interval")

	e, err := newEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	res, err := waitFor(cmd.Context(), e, q, gone, timeout, interval)
	if err != nil {
		return printFailure("wait", err)
	}
	if err := output.Print(res); err != nil {
		return err
	}
	if !res.OK {
		return errActionFailed
	}
	return nil
}

// waitFor polls Find until the presence of a match equals !gone. A missing
// window counts as no match. Any other failure ends the wait.
func waitFor(ctx context.Context, e *engine.Engine, q model.ElementQuery, gone bool, timeout, interval time.Duration) (WaitResult, error) {
	q.MaxElements = 1
	start := time.Now()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	res := WaitResult{Action: "wait"}
	for {
		res.Polls++
		found, err := e.Find(ctx, q)
		switch engine.KindOf(err) {
		case "":
		case engine.KindElementNotFound, engine.KindWindowNotFound:
			found = nil
		default:
			return res, err
		}
		if (found != nil) != gone {
			res.OK = true
			if found != nil {
				res.Element = &found.Elements[0]
			}
			res.Elapsed = time.Since(start).Round(time.Millisecond).String()
			return res, nil
		}

		select {
		case <-ticker.C:
		case <-deadline.C:
			res.TimedOut = true
			res.Elapsed = time.Since(start).Round(time.Millisecond).String()
			return res, nil
		case <-ctx.Done():
			return res, ctx.Err()
		}
	}
}
