// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/form-autofill/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 10
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintQuestions outputs a summary of the questions extracted from a page.
func (p *Printer) PrintQuestions(questions []types.Question) {
	if len(questions) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d questions:\n\n", len(questions)))

	count := min(len(questions), maxItemsToShow)
	for i := 0; i < count; i++ {
		q := questions[i]
		fieldType, handles, _ := q.Fields.Primary()
		sb.WriteString(fmt.Sprintf("• %s\n", q.Text))
		sb.WriteString(fmt.Sprintf("  %s x%d\n", fieldType, len(handles)))
	}
	if len(questions) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more questions", len(questions)-maxItemsToShow))
	}

	p.printBox("EXTRACTED QUESTIONS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintReviewItems outputs the combined review set before the accept/decline
// prompt, flagging items that failed validation.
func (p *Printer) PrintReviewItems(aiItems, manualItems []types.PendingReviewItem) {
	if len(aiItems) == 0 && len(manualItems) == 0 {
		p.printBox("PAGE REVIEW", "No changes detected on this page.")
		return
	}

	var sb strings.Builder
	if len(aiItems) > 0 {
		sb.WriteString(fmt.Sprintf("AI auto-filled (%d):\n", len(aiItems)))
		writeItems(&sb, aiItems)
	}
	if len(manualItems) > 0 {
		if len(aiItems) > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("Manual changes (%d):\n", len(manualItems)))
		writeItems(&sb, manualItems)
	}

	p.printBox("PAGE REVIEW", strings.TrimSuffix(sb.String(), "\n"))
}

func writeItems(sb *strings.Builder, items []types.PendingReviewItem) {
	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		item := items[i]
		sb.WriteString(fmt.Sprintf("• %s -> %s\n", item.Question, item.Value))
		if !item.Valid {
			sb.WriteString(fmt.Sprintf("  ! %s\n", strings.Join(item.Issues, ", ")))
		}
	}
	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-maxItemsToShow))
	}
}

// PrintPersistenceReport outputs the result of a store save.
func (p *Printer) PrintPersistenceReport(merged, reviewed int, path string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Saved:   %d of %d reviewed items\n", merged, reviewed))
	sb.WriteString(fmt.Sprintf("Skipped: %d (failed validation)\n", reviewed-merged))
	sb.WriteString(fmt.Sprintf("File:    %s", path))
	p.printBox("PERSISTENCE", sb.String())
}
