package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/listing-cli/internal/model"
)

var productsSearch string

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List catalog products",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "optimize")
		if err != nil {
			return err
		}
		defer env.Close()

		var products []model.Product
		if productsSearch != "" {
			products, err = env.Catalog.SearchTitle(ctx, productsSearch)
		} else {
			products, err = env.Catalog.List(ctx)
		}
		if err != nil {
			return err
		}

		for _, p := range products {
			fmt.Printf("%-12s %s\n", p.ID, p.Title)
		}
		fmt.Printf("\n%d product(s)\n", len(products))
		return nil
	},
}

func init() {
	productsCmd.Flags().StringVar(&productsSearch, "search", "", "filter by title substring")
	rootCmd.AddCommand(productsCmd)
}
