package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mj1618/desktop-uia/internal/engine"
	"github.com/mj1618/desktop-uia/internal/model"
	"github.com/mj1618/desktop-uia/internal/output"
	"github.com/mj1618/desktop-uia/internal/server"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// DoResult is the output of a batch do command.
type DoResult struct {
	OK        bool         `yaml:"ok"              json:"ok"`
	Action    string       `yaml:"action"          json:"action"`
	Steps     int          `yaml:"steps"           json:"steps"`
	Completed int          `yaml:"completed"       json:"completed"`
	Error     string       `yaml:"error,omitempty" json:"error,omitempty"`
	Results   []StepResult `yaml:"results"         json:"results"`
}

// StepResult is the output for a single step within a batch.
type StepResult struct {
	Step                int    `yaml:"step"              json:"step"`
	Elapsed             string `yaml:"elapsed,omitempty" json:"elapsed,omitempty"`
	model.ActionOutcome `yaml:",inline"`
}

var doCmd = &cobra.Command{
	Use:   "do",
	Short: "Execute multiple actions in a batch",
	Long: `Execute a sequence of actions from a YAML list on stdin, sharing one engine
so element ids stay valid from step to step.

Each step is an action name mapped to its arguments, using the same keys as
the MCP tools (id, window, name, automation_id, control_type, text,
clear_first, button, modifiers, double, max_levels, include_self). Steps
execute sequentially and by default execution stops on the first failure.

Supported step types: click, double_click, focus, type, get_text, get_ancestors, sleep`,
	Example: `  desktop-uia do --window 0x1001 <<'EOF'
  - type: { automation_id: UsernameInput, text: alice, clear_first: true }
  - click: { name: Submit }
  - sleep: { ms: 200 }
  - get_text: { automation_id: Status }
  EOF`,
	Args: cobra.NoArgs,
	RunE: runDo,
}

func init() {
	rootCmd.AddCommand(doCmd)
	addWindowFlag(doCmd)
	doCmd.Flags().Bool("stop-on-error", true, "Stop execution on first failure")
}

func runDo(cmd *cobra.Command, args []string) error {
	window, err := windowFromFlags(cmd)
	if err != nil {
		return err
	}
	stopOnError, _ := cmd.Flags().GetBool("stop-on-error")

	steps, err := readSteps(cmd.InOrStdin())
	if err != nil {
		return err
	}

	e, err := newEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	res := runSteps(cmd.Context(), e, steps, window, stopOnError)
	if err := output.Print(res); err != nil {
		return err
	}
	if !res.OK {
		return errActionFailed
	}
	return nil
}

// readSteps parses a YAML list of single-key step maps.
func readSteps(r io.Reader) ([]map[string]map[string]interface{}, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	var steps []map[string]map[string]interface{}
	if err := yaml.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("failed to parse YAML steps: %w", err)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("no steps provided: pipe a YAML list of actions on stdin")
	}
	return steps, nil
}

// runSteps executes steps in order. window is applied to query steps that
// do not name their own window.
func runSteps(ctx context.Context, e *engine.Engine, steps []map[string]map[string]interface{}, window int64, stopOnError bool) DoResult {
	res := DoResult{OK: true, Action: "do", Steps: len(steps), Results: make([]StepResult, 0, len(steps))}
	for i, step := range steps {
		start := time.Now()
		outcome := runStep(ctx, e, step, window)
		res.Results = append(res.Results, StepResult{
			Step:          i + 1,
			Elapsed:       time.Since(start).Round(time.Millisecond).String(),
			ActionOutcome: outcome,
		})
		if outcome.OK {
			res.Completed++
			continue
		}
		res.OK = false
		if res.Error == "" {
			res.Error = fmt.Sprintf("step %d: %s", i+1, outcome.Message)
		}
		if stopOnError {
			break
		}
	}
	return res
}

func runStep(ctx context.Context, e *engine.Engine, step map[string]map[string]interface{}, window int64) model.ActionOutcome {
	if len(step) != 1 {
		return stepFailure("", fmt.Errorf("expected exactly one action key, got %d", len(step)))
	}
	for name, params := range step {
		if params == nil {
			params = map[string]interface{}{}
		}
		if name == "sleep" {
			return sleepStep(ctx, params)
		}
		action, err := engine.ParseAction(name)
		if err != nil {
			return stepFailure(name, err)
		}
		if _, ok := params["window"]; !ok && window != 0 {
			params["window"] = window
		}
		target, p, err := server.Step(action, params)
		if err != nil {
			return stepFailure(name, err)
		}
		return e.Execute(ctx, target, action, p)
	}
	return model.ActionOutcome{}
}

func sleepStep(ctx context.Context, params map[string]interface{}) model.ActionOutcome {
	d := time.Duration(server.IntParam(params, "ms", 0)) * time.Millisecond
	select {
	case <-time.After(d):
		return model.ActionOutcome{OK: true, Action: "sleep"}
	case <-ctx.Done():
		return engine.FailureOutcome("sleep", ctx.Err())
	}
}

func stepFailure(action string, err error) model.ActionOutcome {
	return model.ActionOutcome{Action: action, Kind: string(engine.KindInvalidQuery), Message: err.Error()}
}
