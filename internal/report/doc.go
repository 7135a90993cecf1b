// Package report renders a company's leak records.
//
// Writers share the Writer interface and take a *Summary:
//   - CSVWriter: the URL / Discovery Time / Content Hash index
//   - MarkdownWriter: a human-readable scan summary for sharing
//   - JSONWriter: the leak record list, as archived
//   - SimpleWriter: plain text for terminal output
package report
