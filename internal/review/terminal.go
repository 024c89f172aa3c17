package review

import (
	"context"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"

	"github.com/jonathan/form-autofill/internal/observability"
	"github.com/jonathan/form-autofill/internal/types"
)

// TerminalReviewer presents the review set on the terminal and asks for a
// single accept/decline confirmation.
type TerminalReviewer struct {
	printer *observability.Printer
}

// NewTerminalReviewer creates a reviewer writing to stdout.
func NewTerminalReviewer() *TerminalReviewer {
	return &TerminalReviewer{printer: observability.NewPrinter(os.Stdout)}
}

// PresentForReview prints both item sets and prompts for confirmation. A
// page with no changes is accepted without prompting.
func (r *TerminalReviewer) PresentForReview(_ context.Context, aiItems, manualItems []types.PendingReviewItem) (bool, error) {
	r.printer.PrintReviewItems(aiItems, manualItems)

	if len(aiItems) == 0 && len(manualItems) == 0 {
		return true, nil
	}

	confirmed := false
	prompt := &survey.Confirm{
		Message: fmt.Sprintf("Save these %d answers to your profile?", len(aiItems)+len(manualItems)),
		Default: true,
	}
	if err := survey.AskOne(prompt, &confirmed); err != nil {
		return false, fmt.Errorf("review prompt failed: %w", err)
	}
	return confirmed, nil
}
