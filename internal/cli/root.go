package cli

import (
	"github.com/spf13/cobra"

	"github.com/selma/toolforge/internal/config"
	"github.com/selma/toolforge/internal/logger"
)

const version = "0.1.0"

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "toolforge",
	Short: "Toolforge - tool selection and execution engine",
	Long: `Toolforge decides which tools to run for a query, executes them under
concurrency and timeout limits while honoring declared dependencies, and
recovers from failures with retries and fallbacks. This CLI inspects the
selection and planning behavior of a configured tool set.`,
	Version: version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.toolforge/toolforge.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}

// loadConfig loads the config file and installs the global logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return nil, err
	}

	logCfg := logger.Config{
		Level:   logLevel,
		File:    cfg.Logging.File,
		Console: cfg.Logging.Console,
		Pretty:  cfg.Logging.Pretty,
	}
	if logCfg.Level == "" {
		logCfg.Level = cfg.Logging.Level
	}
	if _, err := logger.New(logCfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}
