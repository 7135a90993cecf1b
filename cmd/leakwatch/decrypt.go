package main

import (
	"fmt"

	"github.com/nao1215/leakwatch/internal/report"
	"github.com/nao1215/leakwatch/internal/storage"
	"github.com/spf13/cobra"
)

// NewDecryptCmd creates the decrypt command.
func NewDecryptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decrypt <archive>",
		Short: "Print the leak records of an encrypted archive",
		Long: `Decrypt opens a leak archive written by scan or monitor with the key
from the configuration (key_file) and prints its records as JSON.

Example:
  leakwatch decrypt ~/.local/share/leakwatch/data/Acme_Corp/leak_20240101_120000.json`,
		Args: cobra.ExactArgs(1),
		RunE: runDecryptCmd,
	}

	cmd.Flags().StringP("key", "k", "", "Key file (default: key_file from the configuration)")

	return cmd
}

// runDecryptCmd executes the decrypt command.
func runDecryptCmd(cmd *cobra.Command, args []string) error {
	keyFile, err := cmd.Flags().GetString("key")
	if err != nil {
		return err
	}
	if keyFile == "" {
		store, err := openConfigStore(cmd)
		if err != nil {
			return err
		}
		keyFile = store.Snapshot().ResolvedKeyFile()
	}

	key, err := storage.LoadKey(keyFile)
	if err != nil {
		return err
	}
	vault, err := storage.NewVault(key)
	if err != nil {
		return err
	}

	leaks, err := storage.ReadArchive(vault, args[0])
	if err != nil {
		return err
	}

	data, err := report.MarshalLeaks(leaks, "  ")
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(data)); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	return nil
}
