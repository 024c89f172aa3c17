// Package filling writes resolved answers into the page's form fields.
package filling

import (
	"context"
	"fmt"

	"github.com/jonathan/form-autofill/internal/surface"
	"github.com/jonathan/form-autofill/internal/types"
)

// Filler applies answer candidates to a form page.
type Filler struct {
	surface surface.Surface
	verbose bool
}

// New creates a Filler over the given surface.
func New(s surface.Surface, verbose bool) *Filler {
	return &Filler{surface: s, verbose: verbose}
}

// Fill writes each resolved answer into the question's dominant field bucket.
// Per-field failures are counted as "not filled" and never abort the
// remaining questions. Returns how many questions were filled.
func (f *Filler) Fill(ctx context.Context, questions []types.Question, answers map[string]types.AnswerCandidate) int {
	filled := 0
	for _, q := range questions {
		candidate, ok := answers[q.Text]
		if !ok || candidate.Value == "" {
			continue
		}
		if f.fillQuestion(ctx, q, candidate.Value) {
			filled++
		} else if f.verbose {
			fmt.Printf("[VERBOSE] could not fill %q\n", q.Text)
		}
	}
	return filled
}

func (f *Filler) fillQuestion(ctx context.Context, q types.Question, value string) bool {
	fieldType, handles, ok := q.Fields.Primary()
	if !ok {
		return false
	}

	switch fieldType {
	case types.FieldText, types.FieldTextarea:
		if err := f.surface.SetFieldValue(ctx, handles[0], value); err != nil {
			return false
		}
		return true

	case types.FieldRadio, types.FieldCheckbox:
		for _, h := range handles {
			matched, err := f.surface.ClickOption(ctx, h, value)
			if err != nil {
				continue
			}
			if matched {
				return true
			}
		}
		return false

	case types.FieldSelect:
		matched, err := f.surface.SelectOption(ctx, handles[0], value)
		if err != nil {
			return false
		}
		return matched

	default:
		return false
	}
}
