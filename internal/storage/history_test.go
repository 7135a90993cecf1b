package storage

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/leakwatch/internal/model"
)

func TestHistoryStoreLoadMissing(t *testing.T) {
	t.Parallel()

	s := NewHistoryStore(filepath.Join(t.TempDir(), "scan_history.json"))
	h := s.Load()
	if h == nil || len(h) != 0 {
		t.Errorf("Load() = %v, want empty ledger", h)
	}
}

func TestHistoryStoreLoadCorrupt(t *testing.T) {
	t.Parallel()

	for _, content := range []string{"{not json", "null", `["a"]`} {
		path := filepath.Join(t.TempDir(), "scan_history.json")
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
		h := NewHistoryStore(path).Load()
		if h == nil || len(h) != 0 {
			t.Errorf("Load(%q) = %v, want empty ledger", content, h)
		}
	}
}

func TestHistoryStoreSaveLoadIdempotent(t *testing.T) {
	t.Parallel()

	s := NewHistoryStore(filepath.Join(t.TempDir(), "scan_history.json"))
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	h := model.NewScanHistory()
	h.Record("Acme", now, true)
	h.Record("Globex", now, false)
	if err := s.Save(h); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	first := s.Load()
	if err := s.Save(first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	second := s.Load()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("ledger changed across save/load:\n%v\n%v", first, second)
	}
	acme, ok := second.Entry("Acme")
	if !ok || acme.ScanCount != 1 || acme.TotalLeaksFound != 1 || !acme.LastLeakFound.Equal(now) {
		t.Errorf("Acme entry = %+v", acme)
	}

	info, err := os.Stat(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("ledger mode = %o, want 600", perm)
	}
}

func TestHistoryStoreLoadZonelessTimestamps(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "scan_history.json")
	ledger := `{"Acme": {"last_scan": "2026-03-01T10:00:00.123456", "scan_count": 3, "last_leak_found": "2026-03-01T10:00:00.123456", "total_leaks_found": 1}}`
	if err := os.WriteFile(path, []byte(ledger), 0600); err != nil {
		t.Fatal(err)
	}
	e, ok := NewHistoryStore(path).Load().Entry("Acme")
	if !ok || e.ScanCount != 3 || e.LastScan == nil || e.LastScan.Hour() != 10 {
		t.Errorf("entry = %+v", e)
	}
}

func TestHistoryStoreUpdate(t *testing.T) {
	t.Parallel()

	t.Run("error leaves ledger untouched", func(t *testing.T) {
		t.Parallel()

		s := NewHistoryStore(filepath.Join(t.TempDir(), "scan_history.json"))
		if _, err := s.Record("Acme", time.Now(), false); err != nil {
			t.Fatal(err)
		}
		boom := errors.New("boom")
		_, err := s.Update(func(h model.ScanHistory) error {
			h.Record("Acme", time.Now(), true)
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("Update() error = %v, want boom", err)
		}
		if e, _ := s.Load().Entry("Acme"); e.ScanCount != 1 || e.LastLeakFound != nil {
			t.Errorf("entry = %+v, want unchanged", e)
		}
	})

	t.Run("concurrent records are not lost", func(t *testing.T) {
		t.Parallel()

		s := NewHistoryStore(filepath.Join(t.TempDir(), "scan_history.json"))
		companies := []string{"Acme", "Globex", "Initech"}
		const perCompany = 10

		var wg sync.WaitGroup
		for _, c := range companies {
			for range perCompany {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := s.Record(c, time.Now(), false); err != nil {
						t.Error(err)
					}
				}()
			}
		}
		wg.Wait()

		h := s.Load()
		for _, c := range companies {
			if e, _ := h.Entry(c); e.ScanCount != perCompany {
				t.Errorf("%s scan_count = %d, want %d", c, e.ScanCount, perCompany)
			}
		}
	})
}
