package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewAddCompanyCmd creates the add-company command.
func NewAddCompanyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-company <name>",
		Short: "Add a company to the monitored list",
		Long: `Add a company to the monitored list. The name is used verbatim as the
search query, so use the spelling that appears in leak announcements.

Example:
  leakwatch add-company "Acme Corp"`,
		Args: cobra.ExactArgs(1),
		RunE: runAddCompanyCmd,
	}
}

func runAddCompanyCmd(cmd *cobra.Command, args []string) error {
	store, err := openConfigStore(cmd)
	if err != nil {
		return err
	}
	if err := store.AddCompany(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s to monitoring list\n", strings.TrimSpace(args[0]))
	return nil
}

// NewRemoveCompanyCmd creates the remove-company command.
func NewRemoveCompanyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-company <name>",
		Short: "Remove a company from the monitored list",
		Long: `Remove a company from the monitored list. Its scan history and encrypted
archives are kept.`,
		Args: cobra.ExactArgs(1),
		RunE: runRemoveCompanyCmd,
	}
}

func runRemoveCompanyCmd(cmd *cobra.Command, args []string) error {
	store, err := openConfigStore(cmd)
	if err != nil {
		return err
	}
	if err := store.RemoveCompany(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from monitoring list\n", args[0])
	return nil
}

// NewListCompaniesCmd creates the list-companies command.
func NewListCompaniesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-companies",
		Short: "List monitored companies",
		Args:  cobra.NoArgs,
		RunE:  runListCompaniesCmd,
	}
}

func runListCompaniesCmd(cmd *cobra.Command, _ []string) error {
	store, err := openConfigStore(cmd)
	if err != nil {
		return err
	}

	companies := store.Snapshot().CompaniesToMonitor
	if len(companies) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No companies are being monitored")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Monitored companies:")
	for _, company := range companies {
		fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", company)
	}
	return nil
}
