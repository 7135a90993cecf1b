package main

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/nao1215/leakwatch/internal/config"
)

func TestCompanyCommands(t *testing.T) {
	t.Parallel()

	path := newTestConfig(t, nil)

	out, err := executeRoot(t, "", "--config", path, "list-companies")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "No companies") {
		t.Errorf("expected empty list message, got %q", out)
	}

	for _, company := range []string{"Acme Corp", "Globex"} {
		if _, err := executeRoot(t, "", "--config", path, "add-company", company); err != nil {
			t.Fatalf("add-company %s: %v", company, err)
		}
	}
	if _, err := executeRoot(t, "", "--config", path, "add-company", "Globex"); !errors.Is(err, config.ErrCompanyExists) {
		t.Errorf("expected ErrCompanyExists, got %v", err)
	}

	out, err = executeRoot(t, "", "--config", path, "list-companies")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "- Acme Corp") || !strings.Contains(out, "- Globex") {
		t.Errorf("expected both companies listed, got %q", out)
	}

	if _, err := executeRoot(t, "", "--config", path, "remove-company", "Acme Corp"); err != nil {
		t.Fatalf("remove-company: %v", err)
	}
	if _, err := executeRoot(t, "", "--config", path, "remove-company", "Initech"); !errors.Is(err, config.ErrCompanyNotFound) {
		t.Errorf("expected ErrCompanyNotFound, got %v", err)
	}

	cfg := loadTestConfig(t, path)
	if !slices.Equal(cfg.CompaniesToMonitor, []string{"Globex"}) {
		t.Errorf("expected [Globex], got %v", cfg.CompaniesToMonitor)
	}
}

func TestAddCompanyRequiresName(t *testing.T) {
	t.Parallel()

	path := newTestConfig(t, nil)
	if _, err := executeRoot(t, "", "--config", path, "add-company"); err == nil {
		t.Error("expected error without a company argument")
	}
	if _, err := executeRoot(t, "", "--config", path, "add-company", "  "); !errors.Is(err, config.ErrEmptyCompany) {
		t.Errorf("expected ErrEmptyCompany, got %v", err)
	}
}
