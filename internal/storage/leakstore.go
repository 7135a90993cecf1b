package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/leakwatch/internal/metrics"
	"github.com/nao1215/leakwatch/internal/model"
	"github.com/nao1215/leakwatch/internal/report"
)

// TimestampLayout formats the scan time in archive and report file names.
const TimestampLayout = "20060102_150405"

// LeakStore writes the encrypted archive and the plain reports of a scan.
type LeakStore struct {
	vault      *Vault
	dataDir    string
	reportsDir string
	markdown   bool
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// LeakStoreOption configures a LeakStore.
type LeakStoreOption func(*LeakStore)

// WithMarkdownReport enables or disables the markdown summary. It is enabled by default.
func WithMarkdownReport(enabled bool) LeakStoreOption {
	return func(s *LeakStore) {
		s.markdown = enabled
	}
}

// WithStoreLogger sets the logger.
func WithStoreLogger(logger *slog.Logger) LeakStoreOption {
	return func(s *LeakStore) {
		s.logger = logger
	}
}

// WithStoreMetrics records writes in m.
func WithStoreMetrics(m *metrics.Metrics) LeakStoreOption {
	return func(s *LeakStore) {
		s.metrics = m
	}
}

// NewLeakStore creates a LeakStore writing archives under dataDir and
// reports under reportsDir.
func NewLeakStore(vault *Vault, dataDir, reportsDir string, opts ...LeakStoreOption) *LeakStore {
	s := &LeakStore{
		vault:      vault,
		dataDir:    dataDir,
		reportsDir: reportsDir,
		markdown:   true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// ArchivePath returns data/<company>/leak_<ts>.json for a scan at at.
func (s *LeakStore) ArchivePath(company string, at time.Time) string {
	return s.archivePath(company, at.Format(TimestampLayout))
}

// ReportPath returns reports/<company>_<ts>_report<ext> for a scan at at.
func (s *LeakStore) ReportPath(company string, at time.Time, ext string) string {
	return s.reportPath(company, at.Format(TimestampLayout), ext)
}

func (s *LeakStore) archivePath(company, stamp string) string {
	return filepath.Join(s.dataDir, SanitizeFilename(company), "leak_"+stamp+".json")
}

func (s *LeakStore) reportPath(company, stamp, ext string) string {
	return filepath.Join(s.reportsDir, SanitizeFilename(company)+"_"+stamp+"_report"+ext)
}

// stamp returns the file name timestamp for a scan at at. When files from an
// earlier scan in the same second exist, a _2, _3, ... suffix keeps them.
func (s *LeakStore) stamp(company string, at time.Time) string {
	base := at.Format(TimestampLayout)
	stamp := base
	for n := 2; s.taken(company, stamp); n++ {
		stamp = fmt.Sprintf("%s_%d", base, n)
	}
	return stamp
}

func (s *LeakStore) taken(company, stamp string) bool {
	for _, path := range []string{
		s.archivePath(company, stamp),
		s.reportPath(company, stamp, ".csv"),
		s.reportPath(company, stamp, ".md"),
	} {
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}
	return false
}

// SaveLeakData writes the encrypted archive, the CSV index and the markdown
// summary of one scan. Each file is attempted even if an earlier one failed;
// the failures are logged and returned joined. Existing files are never
// overwritten.
func (s *LeakStore) SaveLeakData(company string, leaks []*model.LeakRecord, at time.Time) error {
	var errs []error
	stamp := s.stamp(company, at)

	archive := s.archivePath(company, stamp)
	err := s.saveArchive(archive, leaks)
	s.metrics.IncPersistence(metrics.PersistArchive, err)
	if err != nil {
		s.logger.Error("failed to save leak archive", "company", company, "path", archive, "error", err)
		errs = append(errs, err)
	} else {
		s.logger.Info("leak archive saved", "company", company, "path", archive, "records", len(leaks))
	}

	summary := &report.Summary{Company: company, GeneratedAt: at, Leaks: leaks}

	csvPath := s.reportPath(company, stamp, ".csv")
	err = s.writeReport(csvPath, newCSVWriter, summary)
	s.metrics.IncPersistence(metrics.PersistCSV, err)
	if err != nil {
		s.logger.Error("failed to save csv report", "company", company, "path", csvPath, "error", err)
		errs = append(errs, err)
	}

	if s.markdown {
		mdPath := s.reportPath(company, stamp, ".md")
		err = s.writeReport(mdPath, newMarkdownWriter, summary)
		s.metrics.IncPersistence(metrics.PersistMarkdown, err)
		if err != nil {
			s.logger.Error("failed to save markdown report", "company", company, "path", mdPath, "error", err)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (s *LeakStore) saveArchive(path string, leaks []*model.LeakRecord) error {
	data, err := report.MarshalLeaks(leaks, "")
	if err != nil {
		return fmt.Errorf("failed to encode leak records: %w", err)
	}
	sealed, err := s.vault.Seal(data)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, sealed, 0600)
}

func newCSVWriter(w io.Writer) report.Writer      { return report.NewCSVWriter(w) }
func newMarkdownWriter(w io.Writer) report.Writer { return report.NewMarkdownWriter(w) }

func (s *LeakStore) writeReport(path string, newWriter func(io.Writer) report.Writer, summary *report.Summary) error {
	var buf bytes.Buffer
	if _, err := newWriter(&buf).Write(summary); err != nil {
		return err
	}
	return writeFileAtomic(path, buf.Bytes(), 0600)
}

// ReadArchive decrypts the archive at path.
func (s *LeakStore) ReadArchive(path string) ([]*model.LeakRecord, error) {
	return ReadArchive(s.vault, path)
}

// ReadArchive decrypts and decodes the archive at path with vault.
func ReadArchive(vault *Vault, path string) ([]*model.LeakRecord, error) {
	sealed, err := os.ReadFile(path) //nolint:gosec // operator-supplied archive path
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	data, err := vault.Open(sealed)
	if err != nil {
		return nil, err
	}
	leaks, err := report.UnmarshalLeaks(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode archive: %w", err)
	}
	return leaks, nil
}
