package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/selma/toolforge/internal/config"
	"github.com/selma/toolforge/internal/daemon"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the toolforge service",
	Long: `Runs toolforge as a long-lived service: Prometheus metrics, health and
statistics endpoints, periodic usage summaries, and hot reload of the tool
metadata whenever the config file changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		configPath, err := config.NewLoader(cfgFile).Path()
		if err != nil {
			return err
		}
		if _, statErr := os.Stat(configPath); statErr != nil {
			// Nothing to watch without a file on disk.
			configPath = ""
		}

		d, err := daemon.New(cfg, configPath, serveAddr)
		if err != nil {
			return err
		}
		return d.Run()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":9090", "listen address for the HTTP endpoints")
	rootCmd.AddCommand(serveCmd)
}
