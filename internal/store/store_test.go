package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/form-autofill/internal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "user_data.json")
	s, err := Open(path, false)
	require.NoError(t, err)
	return s
}

func TestOpen_CreatesDefaultProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_data.json")
	s, err := Open(path, false)
	require.NoError(t, err)

	assert.True(t, s.Profile().Preferences.AutoFillEnabled)
	assert.True(t, s.Profile().Preferences.LearnNewQuestions)
	assert.FileExists(t, path)
}

func TestOpen_ExistingProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_data.json")
	doc := `{
		"personal_info": {"full_name": "Jane Doe"},
		"learned_questions": {"City": "Springfield"},
		"preferences": {"auto_fill_enabled": true, "learn_new_questions": true}
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	s, err := Open(path, false)
	require.NoError(t, err)

	answer, ok := s.LookupExact("City")
	assert.True(t, ok)
	assert.Equal(t, "Springfield", answer)
	assert.Equal(t, "Jane Doe", s.Profile().PersonalInfo["full_name"])
}

func TestOpen_MissingPreferencesDefaultToEnabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_data.json")
	doc := `{
		"personal_info": {"full_name": "Jane Doe"},
		"learned_questions": {"City": "Springfield"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	s, err := Open(path, false)
	require.NoError(t, err)

	assert.True(t, s.Profile().Preferences.AutoFillEnabled)
	assert.True(t, s.Profile().Preferences.LearnNewQuestions)
}

func TestOpen_PartialPreferencesKeepOtherDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_data.json")
	doc := `{"preferences": {"auto_fill_enabled": false}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	s, err := Open(path, false)
	require.NoError(t, err)

	assert.False(t, s.Profile().Preferences.AutoFillEnabled)
	assert.True(t, s.Profile().Preferences.LearnNewQuestions)
}

func TestOpen_RejectsInvalidDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"learned_questions": {"City": 42}}`), 0644))

	_, err := Open(path, false)
	assert.Error(t, err)
}

func TestMergeReviewed_CleansKeys(t *testing.T) {
	s := openTestStore(t)

	merged := s.MergeReviewed([]types.PendingReviewItem{
		{Question: "Full Name *", Value: "Jane Doe", Source: types.SourceAI, Valid: true},
		{Question: "full name", Value: "Jane Q Doe", Source: types.SourceManual, Valid: true},
	})
	assert.Equal(t, 2, merged)

	// Both captures collapse onto cleaned keys; case is preserved per capture.
	assert.Equal(t, "Jane Doe", s.LearnedQuestions()["Full Name"])
	assert.Equal(t, "Jane Q Doe", s.LearnedQuestions()["full name"])
}

func TestMergeReviewed_SkipsInvalid(t *testing.T) {
	s := openTestStore(t)

	merged := s.MergeReviewed([]types.PendingReviewItem{
		{Question: "Email Address", Value: "not-an-email", Source: types.SourceAI},
		{Question: "City", Value: "  ", Source: types.SourceManual},
		{Question: "City", Value: "Springfield", Source: types.SourceManual},
	})
	assert.Equal(t, 1, merged)

	_, ok := s.LookupExact("Email Address")
	assert.False(t, ok)
	answer, ok := s.LookupExact("City")
	assert.True(t, ok)
	assert.Equal(t, "Springfield", answer)
}

func TestSave_CreatesBackup(t *testing.T) {
	s := openTestStore(t)

	s.MergeReviewed([]types.PendingReviewItem{
		{Question: "City", Value: "Springfield", Source: types.SourceAI},
	})
	require.NoError(t, s.Save())

	backups := s.Backups()
	require.Len(t, backups, 1)
	assert.Contains(t, filepath.Base(backups[0]), "user_data_backup_")

	// Reload from disk and confirm the merge persisted.
	reloaded, err := Open(s.Path(), false)
	require.NoError(t, err)
	answer, ok := reloaded.LookupExact("City")
	assert.True(t, ok)
	assert.Equal(t, "Springfield", answer)
}

func TestSave_SameSecondBackupsKeptApart(t *testing.T) {
	s := openTestStore(t)

	// Two saves inside the same second must not overwrite each other's backup.
	s.MergeReviewed([]types.PendingReviewItem{
		{Question: "City", Value: "Springfield", Source: types.SourceAI},
	})
	require.NoError(t, s.Save())
	s.MergeReviewed([]types.PendingReviewItem{
		{Question: "State", Value: "Illinois", Source: types.SourceAI},
	})
	require.NoError(t, s.Save())

	assert.Len(t, s.Backups(), 2)
}

func TestBackupPath_SequencesOnCollision(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()

	first := s.backupPath(now)
	require.NoError(t, os.WriteFile(first, []byte("{}"), 0644))
	second := s.backupPath(now)
	require.NoError(t, os.WriteFile(second, []byte("{}"), 0644))
	third := s.backupPath(now)

	assert.NotEqual(t, first, second)
	assert.NotEqual(t, second, third)
	assert.Contains(t, filepath.Base(second), "_2")
	assert.Contains(t, filepath.Base(third), "_3")
}

func TestSave_PrunesOldBackups(t *testing.T) {
	s := openTestStore(t)

	// Pre-create more backups than the rotation keeps, with distinct mtimes.
	dir := filepath.Dir(s.Path())
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 7; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		name := "user_data_backup_" + ts.Format("20060102_150405") + ".json"
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
		require.NoError(t, os.Chtimes(path, ts, ts))
	}

	require.NoError(t, s.Save())

	// Save adds one backup and then prunes down to the rotation limit.
	assert.Len(t, s.Backups(), MaxBackups)
}

func TestSave_FailureLeavesTargetUntouched(t *testing.T) {
	s := openTestStore(t)
	s.MergeReviewed([]types.PendingReviewItem{
		{Question: "City", Value: "Springfield", Source: types.SourceAI},
	})
	require.NoError(t, s.Save())

	original, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	// Block the temp path so the write step fails.
	require.NoError(t, os.Mkdir(s.Path()+".tmp", 0755))

	s.MergeReviewed([]types.PendingReviewItem{
		{Question: "State", Value: "Illinois", Source: types.SourceAI},
	})
	err = s.Save()
	require.Error(t, err)
	var persistErr *PersistenceError
	assert.ErrorAs(t, err, &persistErr)

	// Target is byte-for-byte unchanged.
	after, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, original, after)

	// The in-memory merge is not rolled back; a retry would persist it.
	answer, ok := s.LookupExact("State")
	assert.True(t, ok)
	assert.Equal(t, "Illinois", answer)
}

func TestSave_PersistedDocumentShape(t *testing.T) {
	s := openTestStore(t)
	s.MergeReviewed([]types.PendingReviewItem{
		{Question: "City", Value: "Springfield", Source: types.SourceAI},
	})
	require.NoError(t, s.Save())

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "learned_questions")
	assert.Contains(t, doc, "personal_info")
	assert.Contains(t, doc, "preferences")
}
