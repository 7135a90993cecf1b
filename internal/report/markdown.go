package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/leakwatch/internal/model"
)

const markdownTimeLayout = "2006-01-02 15:04:05 MST"

// MarkdownWriter outputs a scan summary for sharing with responders.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write implements Writer.
func (w *MarkdownWriter) Write(s *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, s)
	w.writeSources(md, s)
	w.writeSnippets(md, s)
	w.writeEntities(md, s)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s *Summary) {
	md.H1("Leak Report: " + s.Company)
	md.PlainText("")

	repeats := 0
	for _, leak := range s.Leaks {
		if leak.PreviouslySeen {
			repeats++
		}
	}

	rows := [][]string{
		{"Company", s.Company},
		{"Generated", s.GeneratedAt.Format(markdownTimeLayout)},
	}
	if s.RunID != "" {
		rows = append(rows, []string{"Run ID", "`" + s.RunID + "`"})
	}
	if s.Candidates > 0 {
		rows = append(rows, []string{"Candidate URLs", strconv.Itoa(s.Candidates)})
	}
	rows = append(rows,
		[]string{"Leak Records", strconv.Itoa(len(s.Leaks))},
		[]string{"Seen Before", strconv.Itoa(repeats)},
	)
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	switch {
	case len(s.Leaks) == 0:
		md.Tip("No potential leaks detected.")
	case repeats == len(s.Leaks):
		md.Note("Every source below was already reported by an earlier scan.")
	default:
		md.Warningf("%d potential leak source(s) found for %s. Investigate before acting; some may be false positives.",
			len(s.Leaks)-repeats, s.Company)
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeSources(md *markdown.Markdown, s *Summary) {
	if len(s.Leaks) == 0 {
		return
	}
	md.H2("Sources")
	md.PlainText("")

	rows := make([][]string, len(s.Leaks))
	for i, leak := range s.Leaks {
		seen := "-"
		if leak.PreviouslySeen && leak.FirstSeen != nil {
			seen = leak.FirstSeen.Format(markdownTimeLayout)
		}
		rows[i] = []string{
			"`" + leak.URL + "`",
			leak.DiscoveryTime.Format(markdownTimeLayout),
			"`" + truncateString(leak.ContentHash, 16) + "`",
			seen,
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Discovered", "Fingerprint", "First Seen"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSnippets(md *markdown.Markdown, s *Summary) {
	if len(s.Leaks) == 0 {
		return
	}
	md.H2("Relevant Snippets")
	md.PlainText("")

	for _, leak := range s.Leaks {
		if len(leak.RelevantSnippets) == 0 {
			continue
		}
		md.H3(leak.URL)
		md.PlainText("")
		snippets := make([]string, len(leak.RelevantSnippets))
		for i, snippet := range leak.RelevantSnippets {
			snippets[i] = truncateString(snippet, 200)
		}
		md.BulletList(snippets...)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeEntities(md *markdown.Markdown, s *Summary) {
	entities := s.Entities()
	if entities.IsEmpty() {
		return
	}
	md.H2("Extracted Information")
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Extracted Entities"),
		piechart.WithShowData(true),
	)
	for _, cat := range model.EntityCategories {
		if n := len(entities[cat]); n > 0 {
			chart.LabelAndIntValue(string(cat), uint64(n))
		}
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")

	for _, cat := range model.EntityCategories {
		items := entities[cat]
		if len(items) == 0 {
			continue
		}
		md.H3(string(cat))
		md.PlainText("")
		md.BulletList(items...)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*This is an automated report. Some information may be false positives.*")
}
