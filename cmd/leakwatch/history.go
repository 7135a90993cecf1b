package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/nao1215/leakwatch/internal/config"
	"github.com/nao1215/leakwatch/internal/database"
	"github.com/nao1215/leakwatch/internal/model"
	"github.com/nao1215/leakwatch/internal/storage"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [company]",
		Short: "Show scan history",
		Long: `History prints the scan ledger: when each company was last scanned, how
often, and when a leak was last found. Given a company, it also lists the
most recent scan runs and the leak fingerprints seen so far.

Examples:
  leakwatch history
  leakwatch history "Acme Corp" --limit 5`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 10, "Number of runs and fingerprints to show")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	store, err := openConfigStore(cmd)
	if err != nil {
		return err
	}
	cfg := store.Snapshot()
	out := cmd.OutOrStdout()

	ledger := storage.NewHistoryStore(cfg.HistoryFile()).Load()
	if len(args) == 0 {
		printLedger(out, ledger)
		return nil
	}

	company := args[0]
	entry, ok := ledger.Entry(company)
	if !ok {
		fmt.Fprintf(out, "%s has not been scanned yet\n", company)
	} else {
		printEntry(out, company, entry, cfg.SuppressionWindow())
	}

	db, err := openIndexReadOnly(cfg)
	if err != nil {
		return err
	}
	if db == nil {
		return nil
	}
	defer db.Close()

	ctx := runContext(cmd)
	runs, err := db.ListRuns(ctx, company, limit)
	if err != nil {
		return err
	}
	if len(runs) > 0 {
		fmt.Fprintln(out, "\nRecent runs:")
		for _, r := range runs {
			fmt.Fprintf(out, "  %s  %-10s candidates=%d fetched=%d leaks=%d  %s\n",
				r.StartedAt.Local().Format(time.DateTime), r.Outcome,
				r.Candidates, r.Fetched, r.Leaks, r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
		}
	}

	fingerprints, err := db.ListFingerprints(ctx, company, limit)
	if err != nil {
		return err
	}
	if len(fingerprints) > 0 {
		fmt.Fprintln(out, "\nKnown leaks:")
		for _, fp := range fingerprints {
			fmt.Fprintf(out, "  %s  seen %dx since %s  %s\n",
				fp.ContentHash[:min(12, len(fp.ContentHash))], fp.Sightings,
				fp.FirstSeen.Local().Format(time.DateOnly), fp.URL)
		}
	}
	return nil
}

// openIndexReadOnly opens the fingerprint index if a scan has created it.
func openIndexReadOnly(cfg *config.Config) (*database.LeakDB, error) {
	dir := cfg.ResolvedDatabaseDir()
	if _, err := os.Stat(filepath.Join(dir, database.FileName)); errors.Is(err, fs.ErrNotExist) {
		return nil, nil //nolint:nilnil // no index yet
	}
	return database.Open(dir, database.Options{})
}

func printLedger(out io.Writer, ledger model.ScanHistory) {
	if len(ledger) == 0 {
		fmt.Fprintln(out, "No scans recorded yet")
		return
	}

	companies := make([]string, 0, len(ledger))
	for company := range ledger {
		companies = append(companies, company)
	}
	slices.Sort(companies)

	for _, company := range companies {
		printEntry(out, company, ledger[company], 0)
	}
}

func printEntry(out io.Writer, company string, e model.HistoryEntry, window time.Duration) {
	fmt.Fprintf(out, "%s\n", company)
	fmt.Fprintf(out, "  last scan:    %s\n", formatStamp(e.LastScan))
	fmt.Fprintf(out, "  scans:        %d\n", e.ScanCount)
	fmt.Fprintf(out, "  last leak:    %s\n", formatStamp(e.LastLeakFound))
	fmt.Fprintf(out, "  leak scans:   %d\n", e.TotalLeaksFound)
	if window > 0 && e.SuppressedAt(time.Now(), window) {
		fmt.Fprintf(out, "  skipped by scheduled cycles until %s\n",
			e.LastLeakFound.Add(window).Local().Format(time.DateTime))
	}
}

func formatStamp(t *model.Timestamp) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format(time.DateTime)
}
