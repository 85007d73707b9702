package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/selma/toolforge/pkg/registry"
	"github.com/selma/toolforge/pkg/scorer"
)

var scoreThreshold float64

var scoreCmd = &cobra.Command{
	Use:   "score <query>",
	Short: "Score the configured tools against a query",
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

		query := strings.Join(args, " ")
		s := scorer.New(reg, nil, cfg.Scoring)

		scores, err := s.ScoreTools(cmd.Context(), query, reg.List())
		if err != nil {
			return err
		}

		if len(scores) == 0 {
			fmt.Println("No tools scored (empty query or no tools configured).")
			return nil
		}

		fmt.Printf("%-30s %-8s %-8s %-8s\n", "TOOL", "BASE", "PERF", "FINAL")
		for _, sc := range scores {
			marker := " "
			if sc.FinalScore >= scoreThreshold {
				marker = "*"
			}
			fmt.Printf("%-30s %-8.3f %-8.3f %-8.3f %s\n",
				sc.Name, sc.BaseScore, sc.PerformanceScore, sc.FinalScore, marker)
		}
		fmt.Printf("\n* above selection threshold (%.2f)\n", scoreThreshold)

		return nil
	},
}

func init() {
	scoreCmd.Flags().Float64Var(&scoreThreshold, "threshold", 0.3, "selection threshold to mark")
	rootCmd.AddCommand(scoreCmd)
}
