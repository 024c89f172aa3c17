package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/form-autofill/internal/store"
	"github.com/jonathan/form-autofill/internal/surface"
	"github.com/jonathan/form-autofill/internal/types"
)

const formPage = `<html><body>
<div role="listitem">
  <div role="heading">Full Name *</div>
  <input type="text" value="">
</div>
<div role="listitem">
  <div role="heading">Dream Job</div>
  <input type="text" value="">
</div>
</body></html>`

const emptyPage = `<html><body><p>Your response has been recorded.</p></body></html>`

// autoReviewer answers every review with a fixed decision.
type autoReviewer struct {
	accept bool
	calls  int
}

func (r *autoReviewer) PresentForReview(_ context.Context, _, _ []types.PendingReviewItem) (bool, error) {
	r.calls++
	return r.accept, nil
}

// fakeClient returns a canned batch reply.
type fakeClient struct {
	response string
	err      error
	calls    int
}

func (c *fakeClient) GenerateContent(_ context.Context, _ string) (string, error) {
	c.calls++
	return c.response, c.err
}

func (c *fakeClient) Close() error { return nil }

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "user_profile.json"), false)
	require.NoError(t, err)
	s.Profile().PersonalInfo["full_name"] = "Jane Doe"
	return s
}

func fastOptions(surf surface.Surface, s *store.Store, opts Options) Options {
	opts.Surface = surf
	opts.Store = s
	opts.NavPollInterval = 10 * time.Millisecond
	opts.MonitorInterval = 5 * time.Millisecond
	return opts
}

// runAsync runs the orchestrator in the background and returns a channel
// delivering its error.
func runAsync(ctx context.Context, o *Orchestrator) <-chan error {
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()
	return done
}

func waitForRun(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("orchestrator did not finish")
		return nil
	}
}

func TestRun_SinglePageAcceptPersists(t *testing.T) {
	surf, err := surface.NewStatic("https://example.com/form", formPage)
	require.NoError(t, err)
	s := newTestStore(t)
	reviewer := &autoReviewer{accept: true}
	client := &fakeClient{response: "Q1: Software Engineer"}

	o := New(fastOptions(surf, s, Options{Client: client, Reviewer: reviewer}))
	done := runAsync(context.Background(), o)

	// The known question fills from the profile, the unknown one from the
	// batched AI reply.
	require.Eventually(t, func() bool {
		containers, err := surf.ListQuestionContainers(context.Background())
		if err != nil || len(containers) < 1 {
			return false
		}
		fields, err := surf.ExtractFields(context.Background(), containers[0])
		if err != nil || len(fields.Text) == 0 {
			return false
		}
		v, err := surf.ReadFieldValue(context.Background(), fields.Text[0])
		return err == nil && v == "Jane Doe"
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, surf.Advance("https://example.com/done", emptyPage))
	require.NoError(t, waitForRun(t, done))

	require.Len(t, o.Summaries(), 1)
	summary := o.Summaries()[0]
	assert.Equal(t, 2, summary.Questions)
	assert.Equal(t, 2, summary.Filled)
	assert.True(t, summary.Accepted)
	assert.Equal(t, 1, summary.Persisted)
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, 1, reviewer.calls)
	assert.Equal(t, StateDone, o.State())

	answer, ok := s.LookupExact("Dream Job")
	require.True(t, ok)
	assert.Equal(t, "Software Engineer", answer)

	// The persisted document survives a reload.
	reloaded, err := store.Open(s.Path(), false)
	require.NoError(t, err)
	answer, ok = reloaded.LookupExact("Dream Job")
	require.True(t, ok)
	assert.Equal(t, "Software Engineer", answer)
}

func TestRun_DeclineSkipsPersistence(t *testing.T) {
	surf, err := surface.NewStatic("https://example.com/form", formPage)
	require.NoError(t, err)
	s := newTestStore(t)
	reviewer := &autoReviewer{accept: false}
	client := &fakeClient{response: "Q1: Software Engineer"}

	o := New(fastOptions(surf, s, Options{Client: client, Reviewer: reviewer}))
	done := runAsync(context.Background(), o)

	require.Eventually(t, func() bool { return client.calls > 0 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, surf.Advance("https://example.com/done", emptyPage))
	require.NoError(t, waitForRun(t, done))

	require.Len(t, o.Summaries(), 1)
	assert.False(t, o.Summaries()[0].Accepted)
	assert.Zero(t, o.Summaries()[0].Persisted)

	_, ok := s.LookupExact("Dream Job")
	assert.False(t, ok)
}

func TestRun_AutoFillDisabled(t *testing.T) {
	surf, err := surface.NewStatic("https://example.com/form", formPage)
	require.NoError(t, err)
	s := newTestStore(t)
	s.Profile().Preferences.AutoFillEnabled = false
	reviewer := &autoReviewer{accept: true}

	o := New(fastOptions(surf, s, Options{Reviewer: reviewer}))
	done := runAsync(context.Background(), o)

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, surf.Advance("https://example.com/done", emptyPage))
	require.NoError(t, waitForRun(t, done))

	require.Len(t, o.Summaries(), 1)
	assert.Zero(t, o.Summaries()[0].Filled)
}

func TestRun_EmptyPageIsDone(t *testing.T) {
	surf, err := surface.NewStatic("https://example.com/done", emptyPage)
	require.NoError(t, err)
	s := newTestStore(t)

	o := New(fastOptions(surf, s, Options{Reviewer: &autoReviewer{accept: true}}))
	err = o.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, o.Summaries())
	assert.Equal(t, StateDone, o.State())
}

func TestRun_UnreachableSurfaceIsFatal(t *testing.T) {
	surf, err := surface.NewStatic("https://example.com/form", formPage)
	require.NoError(t, err)
	surf.SetUnreachable(true)
	s := newTestStore(t)

	o := New(fastOptions(surf, s, Options{Reviewer: &autoReviewer{accept: true}}))
	err = o.Run(context.Background())
	require.Error(t, err)

	var connErr *surface.ConnectivityError
	assert.True(t, errors.As(err, &connErr))
}

func TestRun_StopReviewsCurrentPage(t *testing.T) {
	surf, err := surface.NewStatic("https://example.com/form", formPage)
	require.NoError(t, err)
	s := newTestStore(t)
	reviewer := &autoReviewer{accept: true}

	o := New(fastOptions(surf, s, Options{Reviewer: reviewer}))
	done := runAsync(context.Background(), o)

	time.Sleep(100 * time.Millisecond)
	o.Stop()
	require.NoError(t, waitForRun(t, done))

	// The page never navigated, but its review still ran.
	assert.Equal(t, 1, reviewer.calls)
	require.Len(t, o.Summaries(), 1)
	assert.Equal(t, StateDone, o.State())
}
