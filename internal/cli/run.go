package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/selma/toolforge/pkg/analytics"
	"github.com/selma/toolforge/pkg/coretools"
	"github.com/selma/toolforge/pkg/orchestrator"
	"github.com/selma/toolforge/pkg/planner"
	"github.com/selma/toolforge/pkg/registry"
)

var runCmd = &cobra.Command{
	Use:   "run <query>",
	Short: "Select and execute tools for a query",
	Long: `Scores the built-in and configured tools against the query, executes
everything above the selection threshold with dependency-aware batching,
and composes the results into a single answer.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		reg := registry.New()
		if err := coretools.RegisterBuiltins(reg); err != nil {
			return err
		}
		if len(cfg.Tools) > 0 {
			if err := reg.ApplyMetadata(cfg.Tools); err != nil {
				return err
			}
		}

		orch := orchestrator.New(reg, cfg.Orchestrator(), nil, analytics.NewStatsCollector())

		query := strings.Join(args, " ")
		recs, err := orch.SelectTools(cmd.Context(), query, nil)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("No tools scored above the selection threshold.")
			return nil
		}

		ordered := planner.OptimizeExecutionOrder(recs)
		ids := make([]string, 0, len(ordered))
		for _, rec := range ordered {
			ids = append(ids, rec.Name)
		}
		fmt.Printf("Selected: %s\n\n", strings.Join(ids, ", "))

		results, err := orch.ExecuteTools(cmd.Context(), ids, query, nil)
		if err != nil {
			return err
		}

		for _, res := range results {
			status := "ok"
			if !res.Success {
				status = "failed"
			}
			line := fmt.Sprintf("[%s] %s (%s)", status, res.Name, res.ExecutionTime.Round(time.Millisecond))
			if res.Via != "" {
				line += fmt.Sprintf(" via %s", res.Via)
			}
			fmt.Println(line)
		}

		answer := orch.ComposeAnswer(results, query)
		fmt.Printf("\n%s\n\nconfidence: %.2f\n", answer.Content, answer.Confidence)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
