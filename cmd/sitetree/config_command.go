package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	configCmd.AddCommand(newConfigShowCommand(ctx))
	return configCmd
}

type configView struct {
	Title       string            `json:"title"`
	BaseURL     string            `json:"base_url"`
	Input       string            `json:"input"`
	Output      string            `json:"output"`
	Includes    string            `json:"includes"`
	Data        string            `json:"data"`
	Policy      string            `json:"collision_policy"`
	Categories  []string          `json:"categories"`
	Reserved    []string          `json:"reserved"`
	Passthrough map[string]string `json:"passthrough"`
	Collections map[string]string `json:"collections"`
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved site configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			site, _ := ctx.ensureSite()
			dirs := site.Dirs()

			categories := site.Categories()
			if len(categories) == 0 {
				discovered, err := ctx.source().Categories(cmd.Context())
				if err != nil {
					return err
				}
				categories = discovered
			}

			view := configView{
				Title:       site.Title(),
				BaseURL:     site.BaseURL(),
				Input:       dirs.Input,
				Output:      dirs.Output,
				Includes:    dirs.Includes,
				Data:        dirs.Data,
				Policy:      site.CollisionPolicy().String(),
				Categories:  categories,
				Reserved:    site.Reserved(),
				Passthrough: map[string]string{},
				Collections: map[string]string{},
			}
			for _, p := range site.Passthrough() {
				view.Passthrough[p.From] = p.To
			}
			for _, c := range site.CategoryCollections(categories) {
				view.Collections[c.Name] = c.Glob
			}

			if wantJSON(cmd, jsonOut) {
				return writeJSON(cmd, view)
			}

			rows := [][]string{
				{"Title", view.Title},
				{"Base URL", view.BaseURL},
				{"Input", view.Input},
				{"Output", view.Output},
				{"Includes", view.Includes},
				{"Data", view.Data},
				{"Collision policy", view.Policy},
				{"Categories", strings.Join(view.Categories, ", ")},
				{"Reserved", strings.Join(view.Reserved, ", ")},
			}
			for _, p := range site.Passthrough() {
				rows = append(rows, []string{"Passthrough", p.From + " -> " + p.To})
			}
			for _, c := range site.CategoryCollections(categories) {
				rows = append(rows, []string{"Collection " + c.Name, c.Glob})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Setting", "Value"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output JSON")
	return cmd
}
