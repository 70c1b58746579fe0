package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/listing-cli/internal/model"
)

var stateCmd = &cobra.Command{
	Use:   "state [product-id]",
	Short: "Show pipeline state for one product, or all persisted states",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "optimize")
		if err != nil {
			return err
		}
		defer env.Close()

		if len(args) == 1 {
			state, err := env.Orchestrator.GetState(ctx, args[0])
			if err != nil {
				return err
			}
			printState(state)
			return nil
		}

		states, err := env.Orchestrator.ListStates(ctx)
		if err != nil {
			return err
		}
		for _, st := range states {
			fmt.Printf("%-12s %-22s %s\n", st.ProductID, st.Stage, st.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Printf("\n%d state(s)\n", len(states))
		return nil
	},
}

func printState(state *model.PipelineState) {
	fmt.Printf("Product: %s\nStage:   %s\n", state.ProductID, state.Stage)
	if state.Error != "" {
		fmt.Printf("Error:   %s\n", state.Error)
	}
	if state.Recommendations != nil {
		fmt.Printf("Recommendations: %d\n", len(state.Recommendations.Items))
	}
	if len(state.Outcomes) > 0 {
		fmt.Printf("Applied: %d of %d\n", model.Applied(state.Outcomes), len(state.Outcomes))
	}
	if state.Summary != nil {
		fmt.Println("\n" + state.Summary.Text)
	}
}

func init() {
	rootCmd.AddCommand(stateCmd)
}
