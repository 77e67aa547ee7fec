package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/tsubute/arcache/internal/model"
)

// MarkdownWriter outputs batch results in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the batch result in Markdown format.
func (w *MarkdownWriter) Write(result *model.Result) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, result)
	w.writeSummary(md, result)
	w.writeFailures(md, result)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with batch information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, result *model.Result) {
	md.H1("Ingestion Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Started", result.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", result.Elapsed.Round(time.Millisecond).String()},
			{"Archives", strconv.Itoa(result.Total)},
			{"Status", w.getStatusText(result)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on the result state.
func (w *MarkdownWriter) getStatusText(result *model.Result) string {
	switch {
	case result.Cancelled > 0:
		return "⚠️ Cancelled (partial results)"
	case result.Failed > 0:
		return "❌ Completed with failures"
	default:
		return "✅ Complete"
	}
}

// writeSummary writes the outcome summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, result *model.Result) {
	md.H2("Outcome Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"✅ Succeeded", strconv.Itoa(result.Succeeded)},
			{"⏭️ Skipped (cached)", strconv.Itoa(result.Skipped)},
			{"❌ Failed", strconv.Itoa(result.Failed)},
			{"🚫 Cancelled", strconv.Itoa(result.Cancelled)},
			{"**Total**", "**" + strconv.Itoa(result.Total) + "**"},
		},
	})
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Cache", "Count"},
		Rows: [][]string{
			{"Entries stored", strconv.Itoa(result.EntriesStored)},
			{"Entries deduped", strconv.Itoa(result.EntriesDeduped)},
		},
	})
	md.PlainText("")

	w.writeAlert(md, result)
}

// writeAlert writes an appropriate alert based on the batch outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, result *model.Result) {
	switch {
	case result.Cancelled > 0:
		md.Warningf(
			"The batch was cancelled before completion. %d archive(s) were never started.",
			result.Cancelled,
		)
	case result.Failed > 0:
		md.Importantf(
			"%d of %d archive(s) failed. Retry the failed descriptors or inspect the failure details below.",
			result.Failed, result.Total,
		)
	default:
		md.Tip("All archives were ingested successfully.")
	}
	md.PlainText("")
}

// writeFailures writes the failed archive details.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, result *model.Result) {
	md.H2("Failures")
	md.PlainText("")

	if len(result.Failures) == 0 {
		md.PlainText("No failures.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(result.Failures))
	for i, f := range result.Failures {
		msg := f.Message
		if msg == "" {
			msg = "-"
		}
		rows[i] = []string{
			"`" + truncateString(f.URL, 60) + "`",
			string(f.Kind),
			strconv.Itoa(f.Attempts),
			truncateString(msg, 80),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Kind", "Attempts", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [arcache](https://github.com/tsubute/arcache)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
