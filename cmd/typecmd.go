package cmd

import (
	"github.com/mj1618/desktop-uia/internal/engine"
	"github.com/spf13/cobra"
)

var typeCmd = &cobra.Command{
	Use:   "type [id]",
	Short: "Type text into an element",
	Long: `Focus an element and type text into it as keyboard input. With
--clear-first the existing content is selected and replaced.

The element is given either by id or by query flags; the first match of the
query receives the text. Read-only and non-editable elements are refused.`,
	Example: `  desktop-uia type --window 0x1001 --automation-id user --text alice --clear-first
  desktop-uia type '1001|0.1|3' --text ' more'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runType,
}

func init() {
	rootCmd.AddCommand(typeCmd)
	addQueryFlags(typeCmd)
	typeCmd.Flags().String("text", "", "Text to type")
	typeCmd.Flags().Bool("clear-first", false, "Replace the current content instead of appending")
	_ = typeCmd.MarkFlagRequired("text")
}

func runType(cmd *cobra.Command, args []string) error {
	text, _ := cmd.Flags().GetString("text")
	clearFirst, _ := cmd.Flags().GetBool("clear-first")

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
		return printOutcome(e.FindAndType(cmd.Context(), *target.Query, text, clearFirst))
	}
	return printOutcome(e.Execute(cmd.Context(), target, engine.ActionType, engine.ActionParams{
		Text:       text,
		ClearFirst: clearFirst,
	}))
}
