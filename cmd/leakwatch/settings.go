package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nao1215/leakwatch/internal/config"
	"github.com/spf13/cobra"
)

// NewSetEmailCmd creates the set-email command.
func NewSetEmailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-email <sender> <receiver>",
		Short: "Configure and enable email alerts",
		Long: `Store the SMTP credentials used for leak alerts and enable email
notifications.

The password is taken from --password, then from LEAKWATCH_EMAIL_PASSWORD,
and is otherwise read as one line from standard input. It is written to the
configuration file with mode 0600; prefer the environment variable when the
file may be shared.

Examples:
  leakwatch set-email alerts@example.com security@example.com --password secret
  echo "$SMTP_PASSWORD" | leakwatch set-email alerts@example.com security@example.com
  leakwatch set-email a@example.com b@example.com --smtp-server mail.example.com --smtp-port 587`,
		Args: cobra.ExactArgs(2),
		RunE: runSetEmailCmd,
	}

	cmd.Flags().StringP("password", "p", "", "SMTP password of the sender account")
	cmd.Flags().String("smtp-server", "", "SMTP server host (default: keep current)")
	cmd.Flags().Int("smtp-port", 0, "SMTP server port (default: keep current)")

	return cmd
}

func runSetEmailCmd(cmd *cobra.Command, args []string) error {
	password, err := cmd.Flags().GetString("password")
	if err != nil {
		return err
	}
	server, err := cmd.Flags().GetString("smtp-server")
	if err != nil {
		return err
	}
	port, err := cmd.Flags().GetInt("smtp-port")
	if err != nil {
		return err
	}

	if password == "" {
		password = os.Getenv(config.EnvEmailPassword)
	}
	if password == "" {
		password, err = readSecret(cmd)
		if err != nil {
			return err
		}
	}

	store, err := openConfigStore(cmd)
	if err != nil {
		return err
	}
	if err := store.SetEmailWithServer(args[0], password, args[1], server, port); err != nil {
		return err
	}

	cfg := store.Snapshot()
	fmt.Fprintf(cmd.OutOrStdout(), "Email alerts enabled: %s -> %s via %s\n",
		cfg.SenderEmail, cfg.ReceiverEmail, cfg.SMTPAddress())
	return nil
}

// readSecret reads one line from the command input.
func readSecret(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), "SMTP password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return "", errors.New("password must not be empty")
	}
	return line, nil
}

// NewSetWebhookCmd creates the set-webhook command.
func NewSetWebhookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-webhook <url>",
		Short: "Configure and enable webhook alerts",
		Long: `Store the endpoint that receives a JSON POST for every company with new
leaks, and enable webhook notifications. Any 2xx response counts as
delivered.

Example:
  leakwatch set-webhook https://hooks.example.com/leakwatch`,
		Args: cobra.ExactArgs(1),
		RunE: runSetWebhookCmd,
	}
}

func runSetWebhookCmd(cmd *cobra.Command, args []string) error {
	store, err := openConfigStore(cmd)
	if err != nil {
		return err
	}
	if err := store.SetWebhook(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Webhook alerts enabled: %s\n", args[0])
	return nil
}

// NewSetIntervalCmd creates the set-interval command.
func NewSetIntervalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-interval <minutes>",
		Short: "Set the monitoring interval",
		Long: `Set how many minutes pass between monitoring cycles. A running monitor
picks up the new value at its next tick.

Example:
  leakwatch set-interval 30`,
		Args: cobra.ExactArgs(1),
		RunE: runSetIntervalCmd,
	}
}

func runSetIntervalCmd(cmd *cobra.Command, args []string) error {
	minutes, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: %q", config.ErrInvalidInterval, args[0])
	}

	store, err := openConfigStore(cmd)
	if err != nil {
		return err
	}
	if err := store.SetInterval(minutes); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Monitoring interval set to %d minutes\n", minutes)
	return nil
}
