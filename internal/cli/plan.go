package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/selma/toolforge/pkg/planner"
	"github.com/selma/toolforge/pkg/registry"
)

var planCmd = &cobra.Command{
	Use:   "plan <tool> [tool...]",
	Short: "Show the execution batches for a set of tools",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		reg := registry.New()
		if err := reg.ApplyMetadata(cfg.Tools); err != nil {
			return err
		}

		batches, err := planner.BuildPlan(args, reg.Dependencies)
		if err != nil {
			return err
		}

		for i, batch := range batches {
			fmt.Printf("batch %d: %s\n", i, strings.Join(batch, ", "))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
}
