package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

type categorySummary struct {
	Name    string `json:"name"`
	Records int    `json:"records"`
}

func newCategoriesCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List content categories and their record counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src := ctx.source()
			names, err := src.Categories(cmd.Context())
			if err != nil {
				return err
			}

			summaries := make([]categorySummary, 0, len(names))
			for _, name := range names {
				recs, err := src.LoadCategory(cmd.Context(), name)
				if err != nil {
					return err
				}
				summaries = append(summaries, categorySummary{Name: name, Records: len(recs)})
			}

			if wantJSON(cmd, jsonOut) {
				return writeJSON(cmd, summaries)
			}
			if len(summaries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No categories found")
				return nil
			}
			rows := make([][]string, 0, len(summaries))
			for _, s := range summaries {
				rows = append(rows, []string{s.Name, strconv.Itoa(s.Records)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Category", "Records"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}
