package cmd

import (
	"github.com/spf13/cobra"
)

var focusCmd = &cobra.Command{
	Use:   "focus <id>",
	Short: "Give keyboard focus to an element",
	Args:  cobra.ExactArgs(1),
	RunE:  runFocus,
}

func init() {
	rootCmd.AddCommand(focusCmd)
}

func runFocus(cmd *cobra.Command, args []string) error {
	e, err := newEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	return printOutcome(e.Focus(cmd.Context(), args[0]))
}
