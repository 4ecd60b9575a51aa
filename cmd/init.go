/*
Copyright © 2026 JACOB ARTHURS
*/
package cmd

import (
	"fmt"

	"github.com/jacobarthurs/plangraph/internal/config"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with example template",
	Long: `Create ~/.config/plangraph/config.yml with an example template.

The config file stores named database connection profiles so you don't need
to pass connection strings on every invocation, along with layout geometry
and plan size limits. If a config file already exists, it will not be
overwritten.`,
	Example: `  # Create default config
  plangraph init

  # Overwrite existing config
  plangraph init --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		path, err := config.Init(force)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created config at %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolP("force", "f", false, "Overwrite existing config file")
}
