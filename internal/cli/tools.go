package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the configured tools and their metadata",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		names := make([]string, 0, len(cfg.Tools))
		for name := range cfg.Tools {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			meta := cfg.Tools[name]
			fmt.Printf("%s (%s, base %.2f)\n", name, meta.Category, meta.BaseScore)
			if len(meta.Keywords) > 0 {
				fmt.Printf("  keywords:     %s\n", strings.Join(meta.Keywords, ", "))
			}
			if len(meta.Dependencies) > 0 {
				fmt.Printf("  dependencies: %s\n", strings.Join(meta.Dependencies, ", "))
			}
			if len(meta.Fallbacks) > 0 {
				fmt.Printf("  fallbacks:    %s\n", strings.Join(meta.Fallbacks, ", "))
			}
		}

		fmt.Printf("\n%d tools configured\n", len(names))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
