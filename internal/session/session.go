// Package session holds the transient per-page state shared between the
// resolver, the change monitor, and the review gate.
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/jonathan/form-autofill/internal/types"
)

// PageSession is the per-page working state. It is created when the
// orchestrator detects a new page and discarded after a persist or a decline,
// never carried partially into the next page.
//
// The resolver is the sole writer of the AI-filled map and the change monitor
// is the sole writer of manual changes and stability counters. The review
// gate reads both only after navigation is confirmed, but the monitor's last
// in-flight write is not otherwise ordered against that read, so all access
// goes through the mutex.
type PageSession struct {
	ID        uuid.UUID
	URL       string
	Questions []types.Question

	mu                sync.Mutex
	aiFilled          map[string]types.AnswerCandidate
	manualChanges     map[string]types.ManualChange
	initialValues     map[string]string
	stabilityCounters map[string]int
}

// New creates a session for one form page.
func New(url string, questions []types.Question) *PageSession {
	return &PageSession{
		ID:                uuid.New(),
		URL:               url,
		Questions:         questions,
		aiFilled:          make(map[string]types.AnswerCandidate),
		manualChanges:     make(map[string]types.ManualChange),
		initialValues:     make(map[string]string),
		stabilityCounters: make(map[string]int),
	}
}

// StageAIAnswer records an AI candidate for later review. Called only by the
// resolver.
func (s *PageSession) StageAIAnswer(question string, candidate types.AnswerCandidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aiFilled[question] = candidate
}

// SetInitialValue snapshots a question's field value at monitoring start.
func (s *PageSession) SetInitialValue(question, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialValues[question] = value
	s.stabilityCounters[question] = 0
}

// InitialValue returns the snapshotted value for a question.
func (s *PageSession) InitialValue(question string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialValues[question]
}

// BumpStability increments a question's stability counter and returns the new
// count. Called only by the change monitor.
func (s *PageSession) BumpStability(question string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stabilityCounters[question]++
	return s.stabilityCounters[question]
}

// ResetStability zeroes a question's stability counter. Called only by the
// change monitor when a value reverts to its initial state.
func (s *PageSession) ResetStability(question string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stabilityCounters[question] = 0
}

// RecordManualChange stores a debounced, validated user edit. A later stable
// edit overwrites an earlier one: latest accepted stable value wins.
func (s *PageSession) RecordManualChange(question string, change types.ManualChange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manualChanges[question] = change
}

// AIFilled returns a copy of the staged AI answers.
func (s *PageSession) AIFilled() map[string]types.AnswerCandidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]types.AnswerCandidate, len(s.aiFilled))
	for k, v := range s.aiFilled {
		out[k] = v
	}
	return out
}

// ManualChanges returns a copy of the recorded manual changes.
func (s *PageSession) ManualChanges() map[string]types.ManualChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]types.ManualChange, len(s.manualChanges))
	for k, v := range s.manualChanges {
		out[k] = v
	}
	return out
}

// Reset clears all tracked state. Called after a persist or a decline.
func (s *PageSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aiFilled = make(map[string]types.AnswerCandidate)
	s.manualChanges = make(map[string]types.ManualChange)
	s.initialValues = make(map[string]string)
	s.stabilityCounters = make(map[string]int)
}
