package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/form-autofill/internal/types"
)

func TestStabilityCounters(t *testing.T) {
	s := New("https://example.com/form", nil)
	s.SetInitialValue("City", "")

	assert.Equal(t, 1, s.BumpStability("City"))
	assert.Equal(t, 2, s.BumpStability("City"))

	s.ResetStability("City")
	assert.Equal(t, 1, s.BumpStability("City"))
}

func TestManualChangeLatestWins(t *testing.T) {
	s := New("https://example.com/form", nil)

	s.RecordManualChange("City", types.ManualChange{Original: "", New: "Springfield", FieldType: types.FieldText})
	s.RecordManualChange("City", types.ManualChange{Original: "", New: "Shelbyville", FieldType: types.FieldText})

	changes := s.ManualChanges()
	assert.Equal(t, "Shelbyville", changes["City"].New)
}

func TestReset(t *testing.T) {
	s := New("https://example.com/form", nil)
	s.StageAIAnswer("City", types.AnswerCandidate{Value: "Springfield", Source: types.SourceAI})
	s.RecordManualChange("City", types.ManualChange{New: "Shelbyville", FieldType: types.FieldText})
	s.SetInitialValue("City", "x")

	s.Reset()

	assert.Empty(t, s.AIFilled())
	assert.Empty(t, s.ManualChanges())
	assert.Equal(t, "", s.InitialValue("City"))
}

func TestSnapshotsAreCopies(t *testing.T) {
	s := New("https://example.com/form", nil)
	s.StageAIAnswer("City", types.AnswerCandidate{Value: "Springfield", Source: types.SourceAI})

	snap := s.AIFilled()
	snap["City"] = types.AnswerCandidate{Value: "mutated", Source: types.SourceAI}

	assert.Equal(t, "Springfield", s.AIFilled()["City"].Value)
}

func TestConcurrentMonitorAndReader(t *testing.T) {
	s := New("https://example.com/form", nil)
	s.SetInitialValue("City", "")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s.BumpStability("City")
			s.RecordManualChange("City", types.ManualChange{New: "Springfield", FieldType: types.FieldText})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = s.ManualChanges()
			_ = s.AIFilled()
		}
	}()
	wg.Wait()

	assert.Equal(t, "Springfield", s.ManualChanges()["City"].New)
}
