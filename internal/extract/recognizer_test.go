package extract

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/jdkato/prose/v2"

	"github.com/nao1215/leakwatch/internal/model"
)

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "shorter", in: "abc", n: 10, want: "abc"},
		{name: "exact", in: "abc", n: 3, want: "abc"},
		{name: "ascii cut", in: "abcdef", n: 4, want: "abcd"},
		{name: "rune boundary", in: "aé", n: 2, want: "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := truncate(tt.in, tt.n); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		})
	}
}

func TestCategoryOf(t *testing.T) {
	t.Parallel()

	tests := map[string]model.EntityCategory{
		"PERSON": model.CategoryPerson,
		"GPE":    model.CategoryLocation,
		"LOC":    model.CategoryLocation,
		"ORG":    model.CategoryOrganization,
	}
	for label, want := range tests {
		got, ok := categoryOf(label)
		if !ok || got != want {
			t.Errorf("categoryOf(%q) = %q, %v; want %q", label, got, ok, want)
		}
	}
	if _, ok := categoryOf("EVENT"); ok {
		t.Error("EVENT should be ignored")
	}
}

func TestProseRecognizer(t *testing.T) {
	t.Parallel()

	r := NewProseRecognizer(0)
	if err := r.Provision(); err != nil {
		t.Fatalf("Provision() error = %v", err)
	}

	entities, err := r.Recognize(context.Background(), "The dump contains 1500 customer records.")
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}

	var numbers []string
	for _, ent := range entities {
		if ent.Category == model.CategoryNumeric {
			numbers = append(numbers, ent.Text)
		}
	}
	if !slices.Contains(numbers, "1500") {
		t.Errorf("CARDINAL = %v, want 1500", numbers)
	}

	empty, err := r.Recognize(context.Background(), strings.Repeat(" ", 10))
	if err != nil || len(empty) != 0 {
		t.Errorf("blank text gave %v, %v", empty, err)
	}
}

func TestProseRecognizerCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewProseRecognizer(0).Recognize(ctx, "Alice"); err == nil {
		t.Error("expected context error")
	}
}

func TestIsOrgName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want bool
	}{
		{name: "Microsoft Corporation", want: true},
		{name: "Acme Inc.", want: true},
		{name: "First National Bank", want: true},
		{name: "Globex LLC,", want: true},
		{name: "Corporation", want: false},
		{name: "John Smith", want: false},
		{name: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := isOrgName(tt.name); got != tt.want {
				t.Errorf("isOrgName(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestOrganizations(t *testing.T) {
	t.Parallel()

	tokens := []prose.Token{
		{Tag: "NNP", Text: "John"},
		{Tag: "NNP", Text: "Smith"},
		{Tag: "VBD", Text: "left"},
		{Tag: "NNP", Text: "Initech"},
		{Tag: "NNP", Text: "Corp"},
		{Tag: "IN", Text: "for"},
		{Tag: "NNP", Text: "Globex"},
		{Tag: "NNP", Text: "Holdings"},
	}

	got := organizations(tokens)
	want := []string{"Initech Corp", "Globex Holdings"}
	if !slices.Equal(got, want) {
		t.Errorf("organizations() = %q, want %q", got, want)
	}
}
