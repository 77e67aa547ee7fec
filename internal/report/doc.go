// Package report renders batch results in several output formats:
// a human-readable text summary for terminals, JSON for tool
// integration, and GitHub Flavored Markdown for documentation.
//
// Design decision: Writers share a small interface so the CLI can
// compose them (e.g. terminal plus file via MultiWriter) without caring
// about the format.
package report
