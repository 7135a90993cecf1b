package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/leakwatch/internal/config"
	"github.com/nao1215/leakwatch/internal/database"
	"github.com/nao1215/leakwatch/internal/model"
	"github.com/nao1215/leakwatch/internal/storage"
)

func TestHistoryCmd(t *testing.T) {
	t.Parallel()

	path := newTestConfig(t, nil)
	cfg := loadTestConfig(t, path)

	out, err := executeRoot(t, "", "--config", path, "history")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "No scans recorded yet") {
		t.Errorf("expected empty ledger message, got %q", out)
	}

	ledger := storage.NewHistoryStore(cfg.HistoryFile())
	if _, err := ledger.Record("Globex", time.Now().Add(-48*time.Hour), false); err != nil {
		t.Fatalf("failed to record: %v", err)
	}
	if _, err := ledger.Record("Acme Corp", time.Now().Add(-time.Hour), true); err != nil {
		t.Fatalf("failed to record: %v", err)
	}

	out, err = executeRoot(t, "", "--config", path, "history")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	acme, globex := strings.Index(out, "Acme Corp"), strings.Index(out, "Globex")
	if acme < 0 || globex < 0 || acme > globex {
		t.Errorf("expected both companies in name order, got %q", out)
	}

	t.Run("company without index", func(t *testing.T) {
		out, err := executeRoot(t, "", "--config", path, "history", "Acme Corp")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "skipped by scheduled cycles until") {
			t.Errorf("expected suppression notice, got %q", out)
		}
		if strings.Contains(out, "Recent runs:") {
			t.Errorf("expected no runs without an index, got %q", out)
		}
	})

	t.Run("unknown company", func(t *testing.T) {
		out, err := executeRoot(t, "", "--config", path, "history", "Initech")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "has not been scanned yet") {
			t.Errorf("expected not scanned message, got %q", out)
		}
	})
}

func TestHistoryCmdListsRunsAndFingerprints(t *testing.T) {
	t.Parallel()

	path := newTestConfig(t, nil)
	cfg := loadTestConfig(t, path)
	seedIndex(t, cfg)

	out, err := executeRoot(t, "", "--config", path, "history", "Acme Corp", "--limit", "5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"has not been scanned yet",
		"Recent runs:",
		"leak_found",
		"candidates=20 fetched=18 leaks=1",
		"Known leaks:",
		"http://leaks.example.onion/acme",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got %q", want, out)
		}
	}
}

func seedIndex(t *testing.T, cfg *config.Config) {
	t.Helper()

	db, err := database.Open(cfg.ResolvedDatabaseDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open index: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	started := time.Now().Add(-time.Minute)
	run := model.NewScanRun("Acme Corp", started)
	run.FinishedAt = started.Add(30 * time.Second)
	run.Candidates = make([]string, 20)
	run.Fetched = 18
	run.Leaks = []*model.LeakRecord{{
		URL:         "http://leaks.example.onion/acme",
		ContentHash: "0123456789abcdef0123456789abcdef",
	}}
	run.Outcome = model.OutcomeLeakFound

	if err := db.ObserveLeaks(ctx, run.Company, run.Leaks); err != nil {
		t.Fatalf("failed to observe leaks: %v", err)
	}
	if err := db.RecordRun(ctx, run); err != nil {
		t.Fatalf("failed to record run: %v", err)
	}
}
