// Package extraction reads the current page's question containers into
// structured records.
package extraction

import (
	"context"
	"fmt"

	"github.com/jonathan/form-autofill/internal/matching"
	"github.com/jonathan/form-autofill/internal/surface"
	"github.com/jonathan/form-autofill/internal/types"
)

// Extractor turns a page's question containers into Questions.
type Extractor struct {
	surface surface.Surface
	verbose bool
}

// New creates an Extractor over the given surface.
func New(s surface.Surface, verbose bool) *Extractor {
	return &Extractor{surface: s, verbose: verbose}
}

// ExtractQuestions reads every question container on the current page.
// Containers with an empty label or no input fields are skipped, and
// per-container extraction failures are swallowed; the container is simply
// omitted. An empty result is not an error.
func (e *Extractor) ExtractQuestions(ctx context.Context) ([]types.Question, error) {
	containers, err := e.surface.ListQuestionContainers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing question containers: %w", err)
	}

	pageURL, err := e.surface.CurrentPageURL(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading page URL: %w", err)
	}

	questions := make([]types.Question, 0, len(containers))
	for _, c := range containers {
		label, err := e.surface.ExtractLabel(ctx, c)
		if err != nil {
			if e.verbose {
				fmt.Printf("[VERBOSE] skipping container %s: label extraction failed: %v\n", c, err)
			}
			continue
		}
		text := matching.CleanQuestionText(label)
		if text == "" {
			continue
		}

		fields, err := e.surface.ExtractFields(ctx, c)
		if err != nil {
			if e.verbose {
				fmt.Printf("[VERBOSE] skipping container %s: field extraction failed: %v\n", c, err)
			}
			continue
		}
		if fields.Empty() {
			continue
		}

		questions = append(questions, types.Question{
			Text:          text,
			Fields:        fields,
			SourcePageURL: pageURL,
		})
	}
	return questions, nil
}
