package filling

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/form-autofill/internal/extraction"
	"github.com/jonathan/form-autofill/internal/surface"
	"github.com/jonathan/form-autofill/internal/types"
)

const fillPage = `<html><body>
<div role="listitem">
  <div role="heading">Full Name</div>
  <input type="text">
</div>
<div role="listitem">
  <div role="heading">Preferred Contact Method</div>
  <div role="radio" aria-label="Email"></div>
  <div role="radio" aria-label="Phone Call"></div>
</div>
<div role="listitem">
  <div role="heading">Country</div>
  <select>
    <option>United States</option>
    <option>Canada</option>
  </select>
</div>
</body></html>`

func extractQuestions(t *testing.T, s *surface.StaticSurface) []types.Question {
	t.Helper()
	questions, err := extraction.New(s, false).ExtractQuestions(context.Background())
	require.NoError(t, err)
	return questions
}

func TestFill_TextRadioAndSelect(t *testing.T) {
	ctx := context.Background()
	s, err := surface.NewStatic("https://example.com/form", fillPage)
	require.NoError(t, err)
	questions := extractQuestions(t, s)
	require.Len(t, questions, 3)

	answers := map[string]types.AnswerCandidate{
		"Full Name":                {Value: "Jane Doe", Source: types.SourceExact},
		"Preferred Contact Method": {Value: "phone", Source: types.SourceAI},
		"Country":                  {Value: "canada", Source: types.SourceKeywordPattern},
	}

	filled := New(s, false).Fill(ctx, questions, answers)
	assert.Equal(t, 3, filled)

	value, err := s.ReadFieldValue(ctx, questions[0].Fields.Text[0])
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", value)

	// Second radio carries the "Phone Call" label.
	assert.False(t, s.Checked(questions[1].Fields.Radio[0]))
	assert.True(t, s.Checked(questions[1].Fields.Radio[1]))

	value, err = s.ReadFieldValue(ctx, questions[2].Fields.Select[0])
	require.NoError(t, err)
	assert.Equal(t, "Canada", value)
}

func TestFill_UnansweredQuestionsLeftUntouched(t *testing.T) {
	ctx := context.Background()
	s, err := surface.NewStatic("https://example.com/form", fillPage)
	require.NoError(t, err)
	questions := extractQuestions(t, s)

	filled := New(s, false).Fill(ctx, questions, map[string]types.AnswerCandidate{})
	assert.Zero(t, filled)

	value, err := s.ReadFieldValue(ctx, questions[0].Fields.Text[0])
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestFill_NoMatchingOptionCountsAsNotFilled(t *testing.T) {
	ctx := context.Background()
	s, err := surface.NewStatic("https://example.com/form", fillPage)
	require.NoError(t, err)
	questions := extractQuestions(t, s)

	answers := map[string]types.AnswerCandidate{
		"Preferred Contact Method": {Value: "carrier pigeon", Source: types.SourceAI},
		"Country":                  {Value: "Atlantis", Source: types.SourceAI},
		"Full Name":                {Value: "Jane Doe", Source: types.SourceExact},
	}

	// Option mismatches are swallowed; the text fill still happens.
	filled := New(s, false).Fill(ctx, questions, answers)
	assert.Equal(t, 1, filled)
}
