package cmd

import (
	"github.com/mj1618/desktop-uia/internal/output"
	"github.com/spf13/cobra"
)

var focusedCmd = &cobra.Command{
	Use:   "focused",
	Short: "Show the element that has keyboard focus in the foreground window",
	Args:  cobra.NoArgs,
	RunE:  runFocused,
}

func init() {
	rootCmd.AddCommand(focusedCmd)
}

func runFocused(cmd *cobra.Command, args []string) error {
	e, err := newEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	res, err := e.GetFocusedElement(cmd.Context())
	if err != nil {
		return printFailure("focused", err)
	}
	return output.Print(res)
}
