package extraction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/form-autofill/internal/surface"
)

const formPage = `<html><body>
<div role="listitem">
  <div role="heading">Full Name *</div>
  <input type="text">
</div>
<div role="listitem">
  <div role="heading">What is your email?</div>
  <input type="email">
</div>
<div role="listitem">
  <div role="heading">Decorative section with no inputs</div>
</div>
<div role="listitem">
  <input type="text">
</div>
</body></html>`

func TestExtractQuestions(t *testing.T) {
	s, err := surface.NewStatic("https://example.com/form", formPage)
	require.NoError(t, err)

	questions, err := New(s, false).ExtractQuestions(context.Background())
	require.NoError(t, err)

	// The no-input container and the no-label container are both skipped.
	require.Len(t, questions, 2)
	assert.Equal(t, "Full Name", questions[0].Text)
	assert.Equal(t, "What is your email", questions[1].Text)
	assert.Equal(t, "https://example.com/form", questions[0].SourcePageURL)
	assert.Len(t, questions[0].Fields.Text, 1)
}

func TestExtractQuestions_EmptyPage(t *testing.T) {
	s, err := surface.NewStatic("https://example.com/done", "<html><body>Thanks!</body></html>")
	require.NoError(t, err)

	questions, err := New(s, false).ExtractQuestions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, questions)
}

func TestExtractQuestions_AfterNavigation(t *testing.T) {
	s, err := surface.NewStatic("https://example.com/form", formPage)
	require.NoError(t, err)

	e := New(s, false)
	questions, err := e.ExtractQuestions(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, questions)

	require.NoError(t, s.Advance("https://example.com/done", "<html><body>Thanks!</body></html>"))
	questions, err = e.ExtractQuestions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, questions)
}
