package main

import (
	"errors"
	"fmt"

	"github.com/nao1215/leakwatch/internal/config"
	"github.com/spf13/cobra"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		Long: `Init writes a configuration file holding every default setting:
Tor proxy, search engines, onion sites, search terms, timing and
notification settings. Monitored companies start empty.

Examples:
  # Create config.json in the current directory
  leakwatch init

  # Create the file at a specific path (.json, .yaml or .yml)
  leakwatch init -o ~/.config/leakwatch/config.yaml

  # Force overwrite an existing file
  leakwatch init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if err := config.CreateDefault(outputPath, force); err != nil {
		if errors.Is(err, config.ErrConfigExists) {
			return fmt.Errorf("%w (use -f to overwrite)", err)
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(cmd.OutOrStdout(), "\nNext steps:")
	fmt.Fprintln(cmd.OutOrStdout(), "  leakwatch add-company <name>")
	fmt.Fprintln(cmd.OutOrStdout(), "  leakwatch set-email <sender> <receiver>")
	fmt.Fprintln(cmd.OutOrStdout(), "  leakwatch monitor")
	return nil
}
