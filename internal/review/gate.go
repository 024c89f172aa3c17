// Package review aggregates AI and manual answer candidates for one page and
// obtains the user's accept/decline decision before anything is persisted.
package review

import (
	"context"
	"sort"

	"github.com/jonathan/form-autofill/internal/session"
	"github.com/jonathan/form-autofill/internal/types"
	"github.com/jonathan/form-autofill/internal/validation"
)

// Reviewer is the external decision surface. Implementations range from a
// terminal prompt to a GUI dialog; the gate only needs the bool.
type Reviewer interface {
	// PresentForReview shows both item sets and returns true when the user
	// accepts the page.
	PresentForReview(ctx context.Context, aiItems, manualItems []types.PendingReviewItem) (bool, error)
}

// Outcome is the result of one review pass.
type Outcome struct {
	Accepted bool
	// Items holds the combined, annotated set, populated only on accept.
	Items []types.PendingReviewItem
}

// Gate combines a session's candidates and delegates the decision.
type Gate struct {
	reviewer Reviewer
}

// NewGate creates a review gate with the given reviewer.
func NewGate(r Reviewer) *Gate {
	return &Gate{reviewer: r}
}

// Collect builds the annotated review sets from the session's staged AI
// answers and recorded manual changes. Each item carries the validator's
// verdict so the reviewer can surface warnings.
func Collect(sess *session.PageSession) (aiItems, manualItems []types.PendingReviewItem) {
	for question, candidate := range sess.AIFilled() {
		ok, issues := validation.ValidateAnswer(question, candidate.Value)
		aiItems = append(aiItems, types.PendingReviewItem{
			Question: question,
			Value:    candidate.Value,
			Source:   candidate.Source,
			Valid:    ok,
			Issues:   issues,
		})
	}
	for question, change := range sess.ManualChanges() {
		ok, issues := validation.ValidateAnswer(question, change.New)
		manualItems = append(manualItems, types.PendingReviewItem{
			Question: question,
			Value:    change.New,
			Source:   types.SourceManual,
			Valid:    ok,
			Issues:   issues,
		})
	}
	// Map iteration order is random; keep the review list stable.
	sort.Slice(aiItems, func(i, j int) bool { return aiItems[i].Question < aiItems[j].Question })
	sort.Slice(manualItems, func(i, j int) bool { return manualItems[i].Question < manualItems[j].Question })
	return aiItems, manualItems
}

// Review presents the combined candidate set and returns the outcome. On
// decline the caller discards the whole page session; nothing is persisted.
func (g *Gate) Review(ctx context.Context, sess *session.PageSession) (Outcome, error) {
	aiItems, manualItems := Collect(sess)

	accepted, err := g.reviewer.PresentForReview(ctx, aiItems, manualItems)
	if err != nil {
		return Outcome{}, err
	}
	if !accepted {
		return Outcome{Accepted: false}, nil
	}

	combined := make([]types.PendingReviewItem, 0, len(aiItems)+len(manualItems))
	combined = append(combined, aiItems...)
	combined = append(combined, manualItems...)
	return Outcome{Accepted: true, Items: combined}, nil
}
