package cmd

import (
	"github.com/spf13/cobra"
)

var textCmd = &cobra.Command{
	Use:   "text <id>",
	Short: "Read an element's text",
	Long:  `Print the current value of an element, falling back to its name when it has no value.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runText,
}

func init() {
	rootCmd.AddCommand(textCmd)
}

func runText(cmd *cobra.Command, args []string) error {
	e, err := newEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	return printOutcome(e.GetText(cmd.Context(), args[0]))
}
