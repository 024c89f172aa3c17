// Package store persists confirmed answers inside the user's profile
// document, with backup rotation and atomic writes so that a crash mid-save
// never corrupts the existing file.
package store

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/form-autofill/internal/matching"
	"github.com/jonathan/form-autofill/internal/schemas"
	"github.com/jonathan/form-autofill/internal/types"
	"github.com/jonathan/form-autofill/internal/validation"
)

// MaxBackups is how many timestamped backup files are kept alongside the
// profile document.
const MaxBackups = 5

// backupTimestampLayout produces the _backup_YYYYMMDD_HHMMSS suffix.
const backupTimestampLayout = "20060102_150405"

// PersistenceError reports a failed save. The existing store file is
// guaranteed untouched when this is returned.
type PersistenceError struct {
	Message string
	Cause   error
}

func (e *PersistenceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("persistence error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("persistence error: %s", e.Message)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// Store owns the profile document on disk. It is not safe for concurrent use;
// the orchestrator funnels all writes through one call site.
type Store struct {
	path    string
	profile *types.Profile
	verbose bool
}

// Open loads the profile document at path, creating a default one if the
// file does not exist yet. The raw document is checked against the profile
// schema before it is trusted.
func Open(path string, verbose bool) (*Store, error) {
	s := &Store{path: path, verbose: verbose}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		s.profile = types.DefaultProfile()
		if err := s.Save(); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}

	if err := schemas.ValidateProfile(data); err != nil {
		return nil, fmt.Errorf("profile %s rejected: %w", path, err)
	}

	// Unmarshal over the defaults so keys absent from the document keep
	// their default values. A document without a preferences section fills
	// and learns; only an explicit false disables either.
	profile := *types.DefaultProfile()
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	if profile.LearnedQuestions == nil {
		profile.LearnedQuestions = map[string]string{}
	}
	if profile.PersonalInfo == nil {
		profile.PersonalInfo = map[string]string{}
	}
	s.profile = &profile
	return s, nil
}

// Path returns the location of the profile document.
func (s *Store) Path() string {
	return s.path
}

// Profile returns the in-memory profile document. The resolver reads the
// personal sections as answer material; only learned_questions is written
// through this package.
func (s *Store) Profile() *types.Profile {
	return s.profile
}

// LookupExact returns the learned answer for a cleaned question text.
func (s *Store) LookupExact(question string) (string, bool) {
	answer, ok := s.profile.LearnedQuestions[question]
	return answer, ok
}

// LearnedQuestions returns the learned-answer map for iteration.
func (s *Store) LearnedQuestions() map[string]string {
	return s.profile.LearnedQuestions
}

// MergeReviewed merges accepted review items into the in-memory learned map,
// re-validating each one: items that fail validation are skipped with a
// logged reason even though the reviewer accepted the page. Keys are
// re-cleaned at merge time so slightly different captures of the same
// question collapse onto one entry. Returns the number of items merged.
func (s *Store) MergeReviewed(items []types.PendingReviewItem) int {
	merged := 0
	for _, item := range items {
		value := strings.TrimSpace(item.Value)
		if value == "" {
			continue
		}
		ok, issues := validation.ValidateAnswer(item.Question, value)
		if !ok {
			fmt.Printf("Skipped invalid answer for %q: %s\n", item.Question, strings.Join(issues, ", "))
			continue
		}
		key := matching.CleanQuestionText(item.Question)
		s.profile.LearnedQuestions[key] = value
		merged++
		if s.verbose {
			fmt.Printf("[VERBOSE] learned %q -> %q (%s)\n", key, value, item.Source)
		}
	}
	return merged
}

// Save writes the profile document to disk: back up the current file, prune
// old backups, write the new document to a temp file, then atomically rename
// it over the target. On failure the temp file is removed, the target file is
// left untouched, and the in-memory merge is not rolled back, so the caller
// may retry.
func (s *Store) Save() error {
	if _, err := os.Stat(s.path); err == nil {
		if err := s.backup(); err != nil {
			return &PersistenceError{Message: "backup failed", Cause: err}
		}
		s.pruneBackups()
	}

	data, err := json.MarshalIndent(s.profile, "", "  ")
	if err != nil {
		return &PersistenceError{Message: "marshal failed", Cause: err}
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		_ = os.Remove(tmpPath)
		return &PersistenceError{Message: "temp write failed", Cause: err}
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return &PersistenceError{Message: "atomic rename failed", Cause: err}
	}
	return nil
}

// backup copies the current file to a sibling with a timestamp suffix.
func (s *Store) backup() error {
	backupPath := s.backupPath(time.Now())

	src, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	dst, err := os.Create(backupPath)
	if err != nil {
		return err
	}
	defer func() { _ = dst.Close() }()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}
	if s.verbose {
		fmt.Printf("[VERBOSE] backup created: %s\n", backupPath)
	}
	return nil
}

// backupPath picks a timestamped sibling name, adding a sequence suffix when
// two saves land inside the same second so neither backup is overwritten.
func (s *Store) backupPath(now time.Time) string {
	base := strings.TrimSuffix(s.path, ".json")
	ts := now.Format(backupTimestampLayout)
	path := fmt.Sprintf("%s_backup_%s.json", base, ts)
	for seq := 2; ; seq++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
		path = fmt.Sprintf("%s_backup_%s_%d.json", base, ts, seq)
	}
}

// Backups lists existing backup files, newest first by modification time.
func (s *Store) Backups() []string {
	dir := filepath.Dir(s.path)
	base := strings.TrimSuffix(filepath.Base(s.path), ".json")
	prefix := base + "_backup_"

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	type backupFile struct {
		path    string
		modTime time.Time
	}
	var backups []backupFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, backupFile{
			path:    filepath.Join(dir, entry.Name()),
			modTime: info.ModTime(),
		})
	}
	sort.Slice(backups, func(i, j int) bool {
		if backups[i].modTime.Equal(backups[j].modTime) {
			// Timestamped names sort the same way as mtimes; break ties so
			// same-second backups still order newest first.
			return backups[i].path > backups[j].path
		}
		return backups[i].modTime.After(backups[j].modTime)
	})

	paths := make([]string, 0, len(backups))
	for _, b := range backups {
		paths = append(paths, b.path)
	}
	return paths
}

// pruneBackups deletes all but the newest MaxBackups backup files. Failures
// here never block a save.
func (s *Store) pruneBackups() {
	backups := s.Backups()
	for _, path := range backups[min(len(backups), MaxBackups):] {
		if err := os.Remove(path); err == nil && s.verbose {
			fmt.Printf("[VERBOSE] removed old backup: %s\n", path)
		}
	}
}
