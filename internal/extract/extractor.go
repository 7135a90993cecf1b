package extract

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/nao1215/leakwatch/internal/model"
)

const (
	// MaxPasswords caps POTENTIAL_PASSWORDS.
	MaxPasswords = 10

	// MaxPerCategory caps each recognizer category.
	MaxPerCategory = 10

	// MaxSourceRecords is how many leak records feed the extractor.
	MaxSourceRecords = 5
)

var (
	emailPattern    = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	passwordPattern = regexp.MustCompile(`\b[A-Za-z0-9!@#$%^&*()_+]{8,20}\b`)
)

// Extractor builds entity bundles from snippet text.
type Extractor struct {
	recognizer Recognizer
	logger     *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRecognizer sets the NER backend. Nil disables recognition.
func WithRecognizer(r Recognizer) Option {
	return func(e *Extractor) {
		e.recognizer = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// New creates an Extractor using the prose recognizer.
func New(opts ...Option) *Extractor {
	e := &Extractor{recognizer: NewProseRecognizer(DefaultRecognizerLimit)}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// SnippetText joins the snippets of the first MaxSourceRecords records.
func SnippetText(leaks []*model.LeakRecord) string {
	var b strings.Builder
	for i, leak := range leaks {
		if i == MaxSourceRecords {
			break
		}
		for _, snippet := range leak.RelevantSnippets {
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(snippet)
		}
	}
	return b.String()
}

// Extract returns the entities found in text. The company is reserved for
// disambiguation and currently unused. Recognizer errors and panics are
// logged and only drop the recognizer categories.
func (e *Extractor) Extract(ctx context.Context, text, company string) model.EntityBundle {
	bundle := model.NewEntityBundle()
	if text == "" {
		return bundle
	}

	for _, email := range emailPattern.FindAllString(text, -1) {
		bundle.Add(model.CategoryEmail, email, 0)
	}
	for _, candidate := range passwordPattern.FindAllString(text, -1) {
		if len(bundle[model.CategoryPassword]) >= MaxPasswords {
			break
		}
		bundle.Add(model.CategoryPassword, candidate, MaxPasswords)
	}

	for _, ent := range e.recognize(ctx, text, company) {
		bundle.Add(ent.Category, strings.TrimSpace(ent.Text), MaxPerCategory)
	}
	return bundle
}

func (e *Extractor) recognize(ctx context.Context, text, company string) (entities []Entity) {
	if e.recognizer == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("entity recognizer panicked", "company", company, "panic", r)
			entities = nil
		}
	}()

	entities, err := e.recognizer.Recognize(ctx, text)
	if err != nil {
		e.logger.Warn("entity recognition failed", "company", company, "error", err)
		return nil
	}
	return entities
}
