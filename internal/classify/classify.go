package classify

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/nao1215/leakwatch/internal/model"
)

// IndicatorVocabulary is the fixed set of terms suggesting a breach.
var IndicatorVocabulary = []string{
	"password",
	"email",
	"leaked data",
	"database dump",
	"breach",
	"exposed",
	"credentials",
	"dump",
	"sensitive",
	"personal data",
	"credit card",
	"financial",
}

var paragraphSeparator = regexp.MustCompile(`\n+`)

// Normalize returns the comparison form of s.
func Normalize(s string) string {
	return cases.Fold().String(norm.NFKC.String(s))
}

// Fingerprint returns the hex SHA-256 of the normalized text.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:])
}

// Classifier matches fetched text against a company and the vocabulary.
// It is stateless and safe for concurrent use.
type Classifier struct {
	indicators  []string
	maxSnippets int
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithIndicators replaces the indicator vocabulary.
func WithIndicators(terms []string) Option {
	return func(c *Classifier) {
		indicators := make([]string, 0, len(terms))
		for _, term := range terms {
			if term = Normalize(strings.TrimSpace(term)); term != "" {
				indicators = append(indicators, term)
			}
		}
		if len(indicators) > 0 {
			c.indicators = indicators
		}
	}
}

// WithMaxSnippets sets how many snippets a record keeps.
func WithMaxSnippets(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.maxSnippets = n
		}
	}
}

// New creates a Classifier using IndicatorVocabulary.
func New(opts ...Option) *Classifier {
	c := &Classifier{maxSnippets: model.MaxSnippets}
	WithIndicators(IndicatorVocabulary)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns a leak record when text mentions company together with
// an indicator term. The result depends only on url, text, company and now.
func (c *Classifier) Classify(url, text, company string, now time.Time) (*model.LeakRecord, bool) {
	needle := Normalize(strings.TrimSpace(company))
	if needle == "" {
		return nil, false
	}

	normalized := Normalize(text)
	if !strings.Contains(normalized, needle) || !c.hasIndicator(normalized) {
		return nil, false
	}

	sum := sha256.Sum256([]byte(normalized))
	return &model.LeakRecord{
		URL:              url,
		ContentHash:      hex.EncodeToString(sum[:]),
		DiscoveryTime:    now,
		RelevantSnippets: c.snippets(text, needle),
	}, true
}

// Indicators returns a copy of the vocabulary in use.
func (c *Classifier) Indicators() []string {
	return append([]string(nil), c.indicators...)
}

func (c *Classifier) hasIndicator(s string) bool {
	for _, term := range c.indicators {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

// snippets keeps the first paragraphs mentioning both the company and an
// indicator, in document order. Paragraphs are matched in their normalized
// form but kept with their original letter case so later entity recognition
// can see proper names.
func (c *Classifier) snippets(text, needle string) []string {
	out := make([]string, 0, c.maxSnippets)
	for _, para := range paragraphSeparator.Split(norm.NFKC.String(text), -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		folded := Normalize(para)
		if strings.Contains(folded, needle) && c.hasIndicator(folded) {
			out = append(out, para)
			if len(out) == c.maxSnippets {
				break
			}
		}
	}
	return out
}
