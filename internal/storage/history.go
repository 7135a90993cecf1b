package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/nao1215/leakwatch/internal/metrics"
	"github.com/nao1215/leakwatch/internal/model"
)

// HistoryStore reads and writes the scan history ledger.
// Every read-modify-write goes through Update, which holds the store lock
// for the whole cycle so concurrent scans cannot lose each other's updates.
type HistoryStore struct {
	path    string
	mu      sync.Mutex
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// HistoryOption configures a HistoryStore.
type HistoryOption func(*HistoryStore)

// WithHistoryLogger sets the logger used to report unreadable ledgers.
func WithHistoryLogger(logger *slog.Logger) HistoryOption {
	return func(s *HistoryStore) {
		s.logger = logger
	}
}

// WithHistoryMetrics records ledger writes in m.
func WithHistoryMetrics(m *metrics.Metrics) HistoryOption {
	return func(s *HistoryStore) {
		s.metrics = m
	}
}

// NewHistoryStore creates a store for the ledger at path.
func NewHistoryStore(path string, opts ...HistoryOption) *HistoryStore {
	s := &HistoryStore{path: path}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Path returns the ledger file path.
func (s *HistoryStore) Path() string {
	return s.path
}

// Load returns the ledger. A missing or corrupt file yields an empty ledger.
func (s *HistoryStore) Load() model.ScanHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Save replaces the ledger with h.
func (s *HistoryStore) Save(h model.ScanHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(h)
}

// Update loads the ledger, applies fn and saves the result. Nothing is
// written when fn returns an error. The returned ledger is a copy.
func (s *HistoryStore) Update(fn func(model.ScanHistory) error) (model.ScanHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.load()
	if err := fn(h); err != nil {
		return nil, err
	}
	if err := s.save(h); err != nil {
		return nil, err
	}
	return h.Clone(), nil
}

// Record applies one scan result for company and persists the ledger.
func (s *HistoryStore) Record(company string, at time.Time, leakFound bool) (model.HistoryEntry, error) {
	var entry model.HistoryEntry
	_, err := s.Update(func(h model.ScanHistory) error {
		entry = h.Record(company, at, leakFound)
		return nil
	})
	return entry, err
}

func (s *HistoryStore) load() model.ScanHistory {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to read scan history, starting empty", "path", s.path, "error", err)
		}
		return model.NewScanHistory()
	}

	h := model.NewScanHistory()
	if err := json.Unmarshal(data, &h); err != nil {
		s.logger.Warn("scan history is corrupt, starting empty", "path", s.path, "error", err)
		return model.NewScanHistory()
	}
	if h == nil {
		// the file held a JSON null
		h = model.NewScanHistory()
	}
	return h
}

func (s *HistoryStore) save(h model.ScanHistory) error {
	if h == nil {
		h = model.NewScanHistory()
	}
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		s.metrics.IncPersistence(metrics.PersistHistory, err)
		return fmt.Errorf("failed to encode scan history: %w", err)
	}
	err = writeFileAtomic(s.path, append(data, '\n'), 0600)
	s.metrics.IncPersistence(metrics.PersistHistory, err)
	if err != nil {
		return fmt.Errorf("failed to save scan history: %w", err)
	}
	return nil
}
