package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/mj1618/desktop-uia/internal/engine"
	"github.com/mj1618/desktop-uia/internal/model"
	"github.com/mj1618/desktop-uia/internal/observability"
	"github.com/mj1618/desktop-uia/internal/output"
	"github.com/mj1618/desktop-uia/internal/platform"
	"github.com/mj1618/desktop-uia/internal/platform/memtree"
	"github.com/spf13/cobra"
)

// errActionFailed is returned after a failed outcome has already been
// printed, so the process exits non-zero without a second message.
var errActionFailed = errors.New("action failed")

// newProvider returns the live platform provider, or one backed by the
// recorded tree passed with --fixture.
func newProvider() (*platform.Provider, error) {
	path, _ := rootCmd.PersistentFlags().GetString("fixture")
	if path == "" {
		return platform.NewProvider()
	}
	tree, err := memtree.LoadFile(path)
	if err != nil {
		return nil, err
	}
	p, _ := tree.Provider()
	return p, nil
}

// newEngine builds an engine from the loaded configuration. The caller must
// Close it.
func newEngine(opts ...engine.Option) (*engine.Engine, error) {
	p, err := newProvider()
	if err != nil {
		return nil, err
	}
	opts = append([]engine.Option{engine.WithLogger(observability.GetLogger().Named("engine"))}, opts...)
	return engine.New(p, appCfg, opts...)
}

// parseHandle accepts decimal or 0x-prefixed hexadecimal window handles.
func parseHandle(s string) (int64, error) {
	h, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid window handle %q", s)
	}
	return h, nil
}

func addWindowFlag(cmd *cobra.Command) {
	cmd.Flags().String("window", "", "Native window handle (decimal or 0x hex, see 'windows')")
}

func windowFromFlags(cmd *cobra.Command) (int64, error) {
	s, _ := cmd.Flags().GetString("window")
	if s == "" {
		return 0, nil
	}
	return parseHandle(s)
}

// addQueryFlags registers the element query flags shared by find, click and
// type.
func addQueryFlags(cmd *cobra.Command) {
	addWindowFlag(cmd)
	cmd.Flags().String("automation-id", "", "Exact automation id")
	cmd.Flags().String("name", "", "Exact element name")
	cmd.Flags().String("name-contains", "", "Case-insensitive substring of the element name")
	cmd.Flags().String("name-pattern", "", "Regular expression matched against the element name")
	cmd.Flags().String("control-type", "", "Control type, e.g. Button, Edit, Text")
	cmd.Flags().String("class-name", "", "Exact class name")
	cmd.Flags().Int("exact-depth", -1, "Only match elements exactly this deep below the window root")
	cmd.Flags().Int("found-index", 0, "1-based index of the first match to return")
	cmd.Flags().Int("max-elements", 0, "Maximum number of matches to return")
}

// hasQueryFlags reports whether any element filter was given.
func hasQueryFlags(cmd *cobra.Command) bool {
	for _, name := range []string{"automation-id", "name", "name-contains", "name-pattern", "control-type", "class-name", "exact-depth"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func queryFromFlags(cmd *cobra.Command) (model.ElementQuery, error) {
	var q model.ElementQuery
	h, err := windowFromFlags(cmd)
	if err != nil {
		return q, err
	}
	q.WindowHandle = h
	q.AutomationID, _ = cmd.Flags().GetString("automation-id")
	q.Name, _ = cmd.Flags().GetString("name")
	q.NameContains, _ = cmd.Flags().GetString("name-contains")
	q.NamePattern, _ = cmd.Flags().GetString("name-pattern")
	q.ControlType, _ = cmd.Flags().GetString("control-type")
	q.ClassName, _ = cmd.Flags().GetString("class-name")
	if cmd.Flags().Changed("exact-depth") {
		d, _ := cmd.Flags().GetInt("exact-depth")
		q.ExactDepth = &d
	}
	q.FoundIndex, _ = cmd.Flags().GetInt("found-index")
	q.MaxElements, _ = cmd.Flags().GetInt("max-elements")
	return q, nil
}

// printOutcome writes the outcome and turns a failed outcome into a non-zero
// exit.
func printOutcome(outcome model.ActionOutcome) error {
	if err := output.Print(outcome); err != nil {
		return err
	}
	if !outcome.OK {
		return errActionFailed
	}
	return nil
}

// printFailure renders a query error the same way a failed action is
// rendered.
func printFailure(action string, err error) error {
	return printOutcome(engine.FailureOutcome(action, err))
}
