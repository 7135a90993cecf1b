package main

import (
	"github.com/nao1215/leakwatch/internal/config"
	"github.com/spf13/cobra"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getConfigPath resolves the configuration file from --config and the
// default search locations.
func getConfigPath(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path, _ = cmd.Root().PersistentFlags().GetString("config") //nolint:errcheck // absent flag means default lookup
	}
	return config.FindConfigFile(path)
}

// openConfigStore opens the configuration for editing. Environment
// overrides are not applied so secrets from the environment never reach
// the file.
func openConfigStore(cmd *cobra.Command) (*config.Store, error) {
	return config.OpenStore(getConfigPath(cmd))
}
