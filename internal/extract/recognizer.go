package extract

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jdkato/prose/v2"

	"github.com/nao1215/leakwatch/internal/model"
)

// DefaultRecognizerLimit bounds how many bytes of text the recognizer reads.
const DefaultRecognizerLimit = 100_000

// Entity is one recognized span.
type Entity struct {
	Text     string
	Category model.EntityCategory
}

// Recognizer classifies spans of text into entity categories.
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]Entity, error)
}

// ProseRecognizer recognizes entities with the prose English model.
type ProseRecognizer struct {
	limit int
}

// NewProseRecognizer returns a recognizer reading at most limit bytes.
// A non-positive limit selects DefaultRecognizerLimit.
func NewProseRecognizer(limit int) *ProseRecognizer {
	if limit <= 0 {
		limit = DefaultRecognizerLimit
	}
	return &ProseRecognizer{limit: limit}
}

// Provision loads the model once and checks it can label a probe sentence.
func (p *ProseRecognizer) Provision() error {
	if _, err := prose.NewDocument("Alice paid $40 in Paris."); err != nil {
		return fmt.Errorf("%w: %w", ErrRecognizerUnavailable, err)
	}
	return nil
}

// orgSuffixes are trailing words that mark a proper-noun run as a company.
// The prose model has no ORG label, so organizations are derived from them.
var orgSuffixes = map[string]struct{}{
	"bank": {}, "co": {}, "company": {}, "corp": {}, "corporation": {},
	"gmbh": {}, "group": {}, "holdings": {}, "inc": {}, "incorporated": {},
	"labs": {}, "limited": {}, "llc": {}, "ltd": {}, "plc": {},
	"systems": {}, "technologies": {},
}

// isOrgName reports whether name has at least two words and ends with an
// organization suffix.
func isOrgName(name string) bool {
	fields := strings.Fields(name)
	if len(fields) < 2 {
		return false
	}
	last := strings.ToLower(strings.TrimRight(fields[len(fields)-1], ".,"))
	_, ok := orgSuffixes[last]
	return ok
}

// organizations returns the proper-noun runs in tokens that end with an
// organization suffix.
func organizations(tokens []prose.Token) []string {
	var (
		out []string
		run []string
	)
	flush := func() {
		if name := strings.Join(run, " "); isOrgName(name) {
			out = append(out, name)
		}
		run = run[:0]
	}
	for _, tok := range tokens {
		if tok.Tag == "NNP" || tok.Tag == "NNPS" {
			run = append(run, tok.Text)
			continue
		}
		flush()
	}
	flush()
	return out
}

// Recognize maps prose labels onto entity categories. Named entities give
// PERSON and GPE; proper-noun runs ending in a company suffix give ORG;
// numeric tokens give CARDINAL, and numbers following a currency symbol
// give MONEY.
func (p *ProseRecognizer) Recognize(ctx context.Context, text string) ([]Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text = truncate(text, p.limit)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze text: %w", err)
	}

	entities := make([]Entity, 0)
	for _, ent := range doc.Entities() {
		cat, ok := categoryOf(ent.Label)
		if !ok {
			continue
		}
		if cat == model.CategoryPerson && isOrgName(ent.Text) {
			cat = model.CategoryOrganization
		}
		entities = append(entities, Entity{Text: ent.Text, Category: cat})
	}

	tokens := doc.Tokens()
	for _, name := range organizations(tokens) {
		entities = append(entities, Entity{Text: name, Category: model.CategoryOrganization})
	}
	for i, tok := range tokens {
		if tok.Tag != "CD" {
			continue
		}
		if i > 0 && tokens[i-1].Tag == "$" {
			entities = append(entities, Entity{Text: tokens[i-1].Text + tok.Text, Category: model.CategoryMoney})
			continue
		}
		entities = append(entities, Entity{Text: tok.Text, Category: model.CategoryNumeric})
	}
	return entities, nil
}

func categoryOf(label string) (model.EntityCategory, bool) {
	switch label {
	case "PERSON":
		return model.CategoryPerson, true
	case "GPE", "LOC":
		return model.CategoryLocation, true
	case "ORG":
		return model.CategoryOrganization, true
	case "MONEY":
		return model.CategoryMoney, true
	case "CARDINAL":
		return model.CategoryNumeric, true
	default:
		return "", false
	}
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
