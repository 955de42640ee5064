package cmd

import (
	"github.com/mj1618/desktop-uia/internal/engine"
	"github.com/mj1618/desktop-uia/internal/output"
	"github.com/spf13/cobra"
)

var ancestorsCmd = &cobra.Command{
	Use:   "ancestors <id>",
	Short: "List the ancestors of an element",
	Long:  `Print the chain of parents of an element, nearest first, up to the window root.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runAncestors,
}

func init() {
	rootCmd.AddCommand(ancestorsCmd)
	ancestorsCmd.Flags().Int("max-levels", 0, "Stop after this many parents (0 = up to the root)")
	ancestorsCmd.Flags().Bool("include-self", false, "Include the element itself as the first entry")
}

func runAncestors(cmd *cobra.Command, args []string) error {
	maxLevels, _ := cmd.Flags().GetInt("max-levels")
	includeSelf, _ := cmd.Flags().GetBool("include-self")

	e, err := newEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	res, err := e.GetAncestors(cmd.Context(), args[0], engine.AncestorOptions{
		MaxLevels:   maxLevels,
		IncludeSelf: includeSelf,
	})
	if err != nil {
		return printFailure(string(engine.ActionGetAncestors), err)
	}
	return output.Print(res)
}
