package cmd

import (
	"strings"

	"github.com/mj1618/desktop-uia/internal/model"
	"github.com/mj1618/desktop-uia/internal/output"
	"github.com/spf13/cobra"
)

var windowsCmd = &cobra.Command{
	Use:     "windows",
	Aliases: []string{"list"},
	Short:   "List top-level windows",
	Long:    "List open top-level windows with their handle, app name, title, PID and bounds. The handle is what --window expects.",
	Args:    cobra.NoArgs,
	RunE:    runWindows,
}

func init() {
	rootCmd.AddCommand(windowsCmd)
	windowsCmd.Flags().Int("pid", 0, "Filter windows by PID")
	windowsCmd.Flags().String("app", "", "Filter windows by app name (case-insensitive substring)")
}

func runWindows(cmd *cobra.Command, args []string) error {
	pid, _ := cmd.Flags().GetInt("pid")
	app, _ := cmd.Flags().GetString("app")

	e, err := newEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	windows, err := e.Windows(cmd.Context())
	if err != nil {
		return printFailure("windows", err)
	}
	return output.Print(output.WindowList{Windows: filterWindows(windows, pid, app)})
}

func filterWindows(windows []model.Window, pid int, app string) []model.Window {
	app = strings.ToLower(app)
	out := make([]model.Window, 0, len(windows))
	for _, w := range windows {
		if pid != 0 && w.PID != pid {
			continue
		}
		if app != "" && !strings.Contains(strings.ToLower(w.App), app) {
			continue
		}
		out = append(out, w)
	}
	return out
}
