package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for leakwatch.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leakwatch",
		Short: "Dark-web data leak monitor",
		Long: `leakwatch searches dark-web search engines and onion sites for mentions
of monitored companies, classifies what it finds as potential data leaks,
stores the evidence encrypted at rest and sends alerts by email or webhook.

Traffic goes through a Tor SOCKS proxy. When the proxy is not usable,
leakwatch warns and continues over a direct connection unless --require-tor
is given.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file (default: ./config.json, then the XDG config directory)")

	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewAddCompanyCmd())
	cmd.AddCommand(NewRemoveCompanyCmd())
	cmd.AddCommand(NewListCompaniesCmd())
	cmd.AddCommand(NewSetEmailCmd())
	cmd.AddCommand(NewSetWebhookCmd())
	cmd.AddCommand(NewSetIntervalCmd())
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewMonitorCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewDecryptCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
