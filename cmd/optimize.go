package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/listing-cli/internal/model"
)

var (
	optimizeForce  bool
	optimizeAccept bool
	optimizeReject bool
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize <product-id>",
	Short: "Run the optimization pipeline for one product",
	Long:  "Generates the competitive analysis and recommendations for a product, then prompts for approval before applying the edits and writing the cycle summary.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		productID := args[0]

		env, err := initEnv(ctx, "optimize")
		if err != nil {
			return err
		}
		defer env.Close()

		state, err := env.Orchestrator.StartAnalysis(ctx, productID, optimizeForce)
		if err != nil {
			return err
		}
		if state.Stage == model.StageFailed {
			return fmt.Errorf("cycle failed: %s", state.Error)
		}

		printRecommendations(state)

		accept := optimizeAccept
		if !accept && !optimizeReject {
			accept = confirm(fmt.Sprintf("Apply %d recommendation(s)?", len(state.Recommendations.Items)))
		}
		if !accept {
			if _, err := env.Orchestrator.Reject(ctx, productID); err != nil {
				return err
			}
			fmt.Println("Recommendations rejected.")
			return nil
		}

		state, err = env.Orchestrator.Accept(ctx, productID)
		if err != nil {
			return err
		}
		if state.Stage == model.StageFailed {
			return fmt.Errorf("cycle failed: %s", state.Error)
		}

		fmt.Printf("\n%d of %d recommendations successfully applied.\n",
			model.Applied(state.Outcomes), len(state.Outcomes))
		for _, o := range state.Outcomes {
			if o.Status == model.ApplyStatusFailed {
				fmt.Printf("  failed %s: %s\n", o.ItemID, o.Detail)
			}
		}
		if state.Summary != nil {
			fmt.Println("\n" + state.Summary.Text)
		}
		return nil
	},
}

func printRecommendations(state *model.PipelineState) {
	fmt.Printf("Recommendations for %s:\n\n", state.ProductID)
	for i, item := range state.Recommendations.Items {
		target := string(item.Field)
		if item.Field == model.FieldBullet {
			if item.BulletIndex == model.BulletAppend {
				target = "bullet_point[append]"
			} else {
				target = fmt.Sprintf("bullet_point[%d]", item.BulletIndex)
			}
		}
		fmt.Printf("%d. %s (%s)\n   %s\n", i+1, item.Title, target, item.Value)
		if item.Rationale != "" {
			fmt.Printf("   Rationale: %s\n", item.Rationale)
		}
	}
	if len(state.Recommendations.Items) == 0 {
		fmt.Println("  (none)")
	}
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func init() {
	optimizeCmd.Flags().BoolVar(&optimizeForce, "force", false, "regenerate artifacts, bypassing the cache")
	optimizeCmd.Flags().BoolVar(&optimizeAccept, "accept", false, "apply recommendations without prompting")
	optimizeCmd.Flags().BoolVar(&optimizeReject, "reject", false, "reject recommendations without prompting")
	rootCmd.AddCommand(optimizeCmd)
}
