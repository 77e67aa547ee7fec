package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tsubute/arcache/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether the failure section is shown when
	// nothing failed.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the batch result in human-readable format.
func (w *SimpleWriter) Write(result *model.Result) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, result)
	w.writeSummary(&sb, result)
	w.writeFailures(&sb, result)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with batch information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, result *model.Result) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         ARCACHE INGESTION REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Started:  %s\n", result.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Elapsed:  %s\n", result.Elapsed.Round(time.Millisecond).String()))
	sb.WriteString(fmt.Sprintf("Archives: %d\n", result.Total))

	switch {
	case result.Cancelled > 0:
		sb.WriteString("Status:   CANCELLED (partial results)\n")
	case result.Failed > 0:
		sb.WriteString("Status:   Completed with failures\n")
	default:
		sb.WriteString("Status:   Complete\n")
	}

	sb.WriteString("\n")
}

// writeSummary writes the outcome summary section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, result *model.Result) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("OUTCOME SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  SUCCEEDED: %d\n", result.Succeeded))
	sb.WriteString(fmt.Sprintf("  SKIPPED:   %d\n", result.Skipped))
	sb.WriteString(fmt.Sprintf("  FAILED:    %d\n", result.Failed))
	sb.WriteString(fmt.Sprintf("  CANCELLED: %d\n", result.Cancelled))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  Entries stored:  %d\n", result.EntriesStored))
	sb.WriteString(fmt.Sprintf("  Entries deduped: %d\n", result.EntriesDeduped))
	sb.WriteString("\n")
}

// writeFailures writes the failed archive details.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, result *model.Result) {
	if len(result.Failures) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FAILURES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(result.Failures) == 0 {
		sb.WriteString("  No failures\n\n")
		return
	}

	for _, f := range result.Failures {
		sb.WriteString(fmt.Sprintf("  * %s\n", f.URL))
		sb.WriteString(fmt.Sprintf("    Kind: %s\n", f.Kind))
		if f.Attempts > 0 {
			sb.WriteString(fmt.Sprintf("    Attempts: %d\n", f.Attempts))
		}
		if w.verbose && f.Message != "" {
			sb.WriteString(fmt.Sprintf("    Error: %s\n", f.Message))
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by arcache\n")
	sb.WriteString("https://github.com/tsubute/arcache\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
