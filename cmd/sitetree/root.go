package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var rootFlag string
	var configFlag string
	var policyFlag string

	ctx := newCommandContext(&rootFlag, &configFlag, &policyFlag)

	rootCmd := &cobra.Command{
		Use:           "sitetree",
		Short:         "Build category trees from a content directory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureSite()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&rootFlag, "root", "r", "", "Content directory (overrides the site config input dir)")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Site configuration file (.toml or .yaml)")
	rootCmd.PersistentFlags().StringVar(&policyFlag, "policy", "", "Collision policy: overwrite or reject")

	rootCmd.AddCommand(newCategoriesCommand(ctx))
	rootCmd.AddCommand(newTreeCommand(ctx))
	rootCmd.AddCommand(newBuildCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
