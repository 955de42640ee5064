package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/mj1618/desktop-uia/internal/config"
	"github.com/mj1618/desktop-uia/internal/observability"
	"github.com/mj1618/desktop-uia/internal/output"
	"github.com/mj1618/desktop-uia/internal/version"
	"github.com/spf13/cobra"
)

var appCfg = config.NewDefaultConfig()

var rootCmd = &cobra.Command{
	Use:   "desktop-uia",
	Short: "Find and interact with native UI elements through the accessibility tree",
	Long: `desktop-uia queries the accessibility tree of native desktop windows and
acts on the elements it finds: click, type, focus, read text, walk ancestors.

Element ids returned by one command can be passed to the next; they are
re-resolved against the live tree every time they are used.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	defer observability.Sync()
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errActionFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		observability.Sync()
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("format", "yaml", "Output format: yaml, json")
	rootCmd.PersistentFlags().Bool("pretty", false, "Indent JSON output")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("fixture", "", "Run against a recorded tree (YAML) instead of the live desktop")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		observability.InitializeLogger(appCfg.Logger)

		format, _ := rootCmd.PersistentFlags().GetString("format")
		f, err := output.ParseFormat(format)
		if err != nil {
			return err
		}
		output.OutputFormat = f
		output.PrettyOutput, _ = rootCmd.PersistentFlags().GetBool("pretty")
		return nil
	}
}

// loadConfig merges defaults, the config file, DESKTOP_UIA_* environment
// variables and flag overrides into appCfg.
func loadConfig() error {
	v := config.NewViper()
	if f := rootCmd.PersistentFlags().Lookup("log-level"); f.Changed {
		v.Set("logger.level", f.Value.String())
	}
	path, _ := rootCmd.PersistentFlags().GetString("config")
	cfg, err := config.Load(v, path)
	if err != nil {
		return err
	}
	appCfg = cfg
	return nil
}
