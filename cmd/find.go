package cmd

import (
	"github.com/mj1618/desktop-uia/internal/output"
	"github.com/spf13/cobra"
)

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Find elements in a window",
	Long: `Search a window's accessibility tree in tab order and print the matching
elements. All filters are combined with AND; with no filter every element
matches.

Each returned element carries an id that click, type, focus, text and
ancestors accept.`,
	Example: `  desktop-uia find --window 0x1001 --control-type Button
  desktop-uia find --window 4097 --name-pattern '^(OK|Cancel)$'
  desktop-uia find --window 4097 --name-contains user --found-index 2 --max-elements 1`,
	RunE: runFind,
}

func init() {
	rootCmd.AddCommand(findCmd)
	addQueryFlags(findCmd)
	_ = findCmd.MarkFlagRequired("window")
}

func runFind(cmd *cobra.Command, args []string) error {
	q, err := queryFromFlags(cmd)
	if err != nil {
		return err
	}
	e, err := newEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	res, err := e.Find(cmd.Context(), q)
	if err != nil {
		return printFailure("find", err)
	}
	return output.Print(res)
}
