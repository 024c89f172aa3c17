// Package monitoring watches a filled page for manual edits, debouncing
// field changes so half-typed values are never recorded.
package monitoring

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/form-autofill/internal/session"
	"github.com/jonathan/form-autofill/internal/surface"
	"github.com/jonathan/form-autofill/internal/types"
	"github.com/jonathan/form-autofill/internal/validation"
)

const (
	// DefaultInterval is the poll cadence.
	DefaultInterval = 500 * time.Millisecond
	// StabilityThreshold is how many consecutive polls a changed value must
	// survive unchanged before it counts as a deliberate edit (~1.5s at the
	// default interval).
	StabilityThreshold = 3
)

// Monitor polls the page for manual edits on its own goroutine. It is the
// sole writer of the session's manual changes and stability counters, and it
// runs until Stop is called at page teardown, never on a timeout.
type Monitor struct {
	surface  surface.Surface
	sess     *session.PageSession
	interval time.Duration
	verbose  bool

	cancel context.CancelFunc
	group  *errgroup.Group
}

// New creates a Monitor for one page session.
func New(s surface.Surface, sess *session.PageSession, verbose bool) *Monitor {
	return &Monitor{
		surface:  s,
		sess:     sess,
		interval: DefaultInterval,
		verbose:  verbose,
	}
}

// SetInterval overrides the poll cadence. Tests use this to run fast.
func (m *Monitor) SetInterval(d time.Duration) {
	m.interval = d
}

// Start snapshots every question's current value and begins polling in the
// background. The previous values become the baseline manual edits are
// detected against.
func (m *Monitor) Start(ctx context.Context) {
	m.snapshot(ctx)

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.group, runCtx = errgroup.WithContext(runCtx)
	m.group.Go(func() error {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return nil
			case <-ticker.C:
				m.tick(runCtx)
			}
		}
	})
}

// Stop tears the monitor down and waits for the poll goroutine to exit.
func (m *Monitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	_ = m.group.Wait()
	m.cancel = nil
}

// snapshot records each question's current value as its baseline.
func (m *Monitor) snapshot(ctx context.Context) {
	for _, q := range m.sess.Questions {
		value, err := m.currentValue(ctx, q)
		if err != nil {
			value = ""
		}
		m.sess.SetInitialValue(q.Text, value)
	}
}

// tick runs one poll pass over all questions. Per-question read failures are
// swallowed; the next tick retries.
func (m *Monitor) tick(ctx context.Context) {
	for _, q := range m.sess.Questions {
		current, err := m.currentValue(ctx, q)
		if err != nil {
			continue
		}
		initial := m.sess.InitialValue(q.Text)

		if current == initial {
			m.sess.ResetStability(q.Text)
			continue
		}

		count := m.sess.BumpStability(q.Text)
		if count < StabilityThreshold {
			continue
		}

		ok, issues := validation.ValidateAnswer(q.Text, current)
		if !ok {
			if count == StabilityThreshold {
				fmt.Printf("Validation issues for %q: %s\n", q.Text, strings.Join(issues, ", "))
			}
			continue
		}

		fieldType, _, _ := q.Fields.Primary()
		m.sess.RecordManualChange(q.Text, types.ManualChange{
			Original:  initial,
			New:       current,
			FieldType: fieldType,
		})
	}
}

// currentValue reads the question's dominant readable field. Radio and
// checkbox groups have no readable value and report empty.
func (m *Monitor) currentValue(ctx context.Context, q types.Question) (string, error) {
	for _, t := range []types.FieldType{types.FieldText, types.FieldTextarea, types.FieldSelect} {
		if handles := q.Fields.Bucket(t); len(handles) > 0 {
			return m.surface.ReadFieldValue(ctx, handles[0])
		}
	}
	return "", nil
}
