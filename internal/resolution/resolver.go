// Package resolution turns extracted questions into answer candidates using
// the three-tier lookup: exact cache hit, fuzzy/keyword match against the
// profile, then one batched call to the text-generation service.
package resolution

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/form-autofill/internal/llm"
	"github.com/jonathan/form-autofill/internal/matching"
	"github.com/jonathan/form-autofill/internal/prompts"
	"github.com/jonathan/form-autofill/internal/session"
	"github.com/jonathan/form-autofill/internal/store"
	"github.com/jonathan/form-autofill/internal/types"
)

// keywordPattern maps a profile field to the question phrasings that ask for
// it. A question matches when its cleaned lowercase text equals or starts
// with one of the keywords.
type keywordPattern struct {
	field    string
	keywords []string
}

// keywordPatterns is consulted in order so overlapping phrasings resolve
// deterministically.
var keywordPatterns = []keywordPattern{
	{"full_name", []string{"full name", "complete name", "your name"}},
	{"first_name", []string{"first name", "given name"}},
	{"last_name", []string{"last name", "surname", "family name"}},
	{"email", []string{"email address", "email", "e-mail"}},
	{"phone", []string{"phone number", "mobile number", "contact number"}},
	{"address", []string{"address", "street address"}},
	{"city", []string{"city", "town"}},
	{"state", []string{"state", "province"}},
	{"country", []string{"country", "nation"}},
	{"zip_code", []string{"zip code", "postal code", "pin code"}},
}

// Resolver resolves questions against the learned store, the profile's
// keyword patterns, and the AI collaborator.
type Resolver struct {
	store   *store.Store
	client  llm.Client
	verbose bool
}

// New creates a Resolver. client may be nil, which disables the AI tier.
func New(s *store.Store, client llm.Client, verbose bool) *Resolver {
	return &Resolver{store: s, client: client, verbose: verbose}
}

// Resolve returns a candidate per answerable question, keyed by cleaned
// question text. Questions with no answer are omitted and their fields left
// untouched. AI candidates are additionally staged on the session for review.
func (r *Resolver) Resolve(ctx context.Context, questions []types.Question, sess *session.PageSession) map[string]types.AnswerCandidate {
	answers := make(map[string]types.AnswerCandidate)
	var unresolved []types.Question

	for _, q := range questions {
		if candidate, ok := r.resolveLocal(q.Text); ok {
			answers[q.Text] = candidate
			continue
		}
		unresolved = append(unresolved, q)
	}

	if len(unresolved) == 0 || r.client == nil {
		return answers
	}

	for text, value := range r.askBatch(ctx, unresolved) {
		candidate := types.AnswerCandidate{Value: value, Source: types.SourceAI}
		answers[text] = candidate
		sess.StageAIAnswer(text, candidate)
		if r.verbose {
			fmt.Printf("[VERBOSE] AI suggested %q -> %q\n", text, value)
		}
	}
	return answers
}

// resolveLocal tries the exact, fuzzy, and keyword-pattern tiers in order.
func (r *Resolver) resolveLocal(question string) (types.AnswerCandidate, bool) {
	if answer, ok := r.store.LookupExact(question); ok {
		return types.AnswerCandidate{Value: answer, Source: types.SourceExact}, true
	}

	learned := r.store.LearnedQuestions()
	keys := make([]string, 0, len(learned))
	for k := range learned {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if matching.IsSimilar(question, k) {
			return types.AnswerCandidate{Value: learned[k], Source: types.SourceFuzzy}, true
		}
	}

	questionLower := strings.ToLower(question)
	for _, p := range keywordPatterns {
		for _, kw := range p.keywords {
			if questionLower == kw || strings.HasPrefix(questionLower, kw) {
				if value := r.store.Profile().PersonalInfo[p.field]; value != "" {
					return types.AnswerCandidate{Value: value, Source: types.SourceKeywordPattern}, true
				}
			}
		}
	}

	return types.AnswerCandidate{}, false
}

// askBatch issues the single batched AI request for all still-unresolved
// questions. Any failure, including a malformed reply, is logged and treated
// as "no answers".
func (r *Resolver) askBatch(ctx context.Context, questions []types.Question) map[string]string {
	profileJSON, err := json.MarshalIndent(r.store.Profile(), "", "  ")
	if err != nil {
		fmt.Printf("Batch AI call skipped: cannot marshal profile: %v\n", err)
		return nil
	}

	numbered := make([]string, 0, len(questions))
	for i, q := range questions {
		numbered = append(numbered, fmt.Sprintf("%d. %s", i+1, q.Text))
	}

	template := prompts.MustGet("batch-answers")
	prompt := prompts.Format(template, map[string]string{
		"Profile":   string(profileJSON),
		"Questions": strings.Join(numbered, "\n"),
	})

	fmt.Printf("Batch AI call for %d questions...\n", len(questions))
	response, err := r.client.GenerateContent(ctx, prompt)
	if err != nil {
		fmt.Printf("Batch AI call failed: %v\n", err)
		return nil
	}

	parsed := parseBatchResponse(response, len(questions))
	answers := make(map[string]string, len(parsed))
	for index, value := range parsed {
		answers[questions[index].Text] = value
	}
	return answers
}
