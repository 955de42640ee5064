package cmd

import (
	"fmt"

	"github.com/mj1618/desktop-uia/internal/engine"
	"github.com/mj1618/desktop-uia/internal/platform"
	"github.com/spf13/cobra"
)

var clickCmd = &cobra.Command{
	Use:   "click [id]",
	Short: "Click an element",
	Long: `Click the centre of an element, given either an id from an earlier find or
a query whose first match is clicked.

The click is refused when the element is disabled, off-screen, has no area,
or belongs to a window running with higher privileges.`,
	Example: `  desktop-uia click '1001|0.2|7'
  desktop-uia click --window 0x1001 --name OK
  desktop-uia click --window 0x1001 --automation-id list --button right --modifiers ctrl`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClick,
}

func init() {
	rootCmd.AddCommand(clickCmd)
	addQueryFlags(clickCmd)
	clickCmd.Flags().String("button", "left", "Mouse button: left, right, middle")
	clickCmd.Flags().String("modifiers", "", "Held modifier keys, e.g. ctrl+shift")
	clickCmd.Flags().Bool("double", false, "Double-click")
}

func runClick(cmd *cobra.Command, args []string) error {
	buttonStr, _ := cmd.Flags().GetString("button")
	button, err := platform.ParseMouseButton(buttonStr)
	if err != nil {
		return err
	}
	modStr, _ := cmd.Flags().GetString("modifiers")
	mods, err := platform.ParseModifiers(modStr)
	if err != nil {
		return err
	}
	double, _ := cmd.Flags().GetBool("double")
	opts := engine.ClickOptions{Button: button, Modifiers: mods, Double: double}

	target, err := targetFromArgs(cmd, args)
	if err != nil {
		return err
	}
	e, err := newEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	if target.Query != nil {
		return printOutcome(e.FindAndClick(cmd.Context(), *target.Query, opts))
	}
	return printOutcome(e.Click(cmd.Context(), target.ID, opts))
}

// targetFromArgs resolves the element an action command applies to: the id
// argument, or the query flags when no id is given.
func targetFromArgs(cmd *cobra.Command, args []string) (engine.Target, error) {
	if len(args) == 1 {
		if hasQueryFlags(cmd) {
			return engine.Target{}, fmt.Errorf("specify an element id or query flags, not both")
		}
		return engine.Target{ID: args[0]}, nil
	}
	if !hasQueryFlags(cmd) {
		return engine.Target{}, fmt.Errorf("specify an element id or at least one query flag")
	}
	q, err := queryFromFlags(cmd)
	if err != nil {
		return engine.Target{}, err
	}
	return engine.Target{Query: &q}, nil
}
