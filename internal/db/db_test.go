package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunStatusConstants(t *testing.T) {
	statuses := []string{
		RunStatusRunning,
		RunStatusCompleted,
		RunStatusFailed,
	}

	for _, status := range statuses {
		assert.NotEmpty(t, status, "status constant should not be empty")
	}
}

func TestRunType(t *testing.T) {
	run := Run{
		ProfilePath: "user_profile.json",
		StartURL:    "https://docs.google.com/forms/d/e/abc/viewform",
		Status:      RunStatusRunning,
	}

	assert.Equal(t, "user_profile.json", run.ProfilePath)
	assert.Equal(t, RunStatusRunning, run.Status)
	assert.Nil(t, run.CompletedAt)
}

func TestPageRecordType(t *testing.T) {
	page := PageRecord{
		URL:           "https://example.com/form",
		Questions:     5,
		Filled:        4,
		ManualChanges: 1,
		Accepted:      true,
		Persisted:     5,
	}

	assert.Equal(t, 5, page.Questions)
	assert.Equal(t, 4, page.Filled)
	assert.True(t, page.Accepted)
}
