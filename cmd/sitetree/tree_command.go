package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/sitetree/internal/cattree"
)

func newTreeCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "tree <category>",
		Short: "Build and print the tree for one category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := args[0]
			site, _ := ctx.ensureSite()

			recs, err := ctx.source().LoadCategory(cmd.Context(), category)
			if err != nil {
				return err
			}
			res, err := cattree.Build(category, recs, cattree.WithCollisionPolicy(site.CollisionPolicy()))
			if err != nil {
				return err
			}

			if wantJSON(cmd, jsonOut) {
				return writeJSON(cmd, res)
			}

			leaves := cattree.Leaves(res.Tree)
			if len(leaves) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No pages in %s\n", category)
				return nil
			}
			rows := make([][]string, 0, len(leaves))
			for _, l := range leaves {
				section := ""
				if len(l.Path) > 1 {
					section = sectionLabel(l.Path[0])
				}
				rows = append(rows, []string{section, strings.Join(l.Path, "/"), l.Data.Title, l.Data.URL})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Section", "Path", "Title", "URL"}, rows, nil))
			fmt.Fprintf(cmd.OutOrStdout(), "%d posts\n", len(res.Posts))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output {tree, posts} as JSON")
	return cmd
}
