// Package pipeline provides the high-level orchestration for the form-fill
// process: a per-page state machine that runs extraction, resolution, filling,
// change monitoring, review, and persistence in order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	dbpkg "github.com/jonathan/form-autofill/internal/db"
	"github.com/jonathan/form-autofill/internal/extraction"
	"github.com/jonathan/form-autofill/internal/filling"
	"github.com/jonathan/form-autofill/internal/llm"
	"github.com/jonathan/form-autofill/internal/monitoring"
	"github.com/jonathan/form-autofill/internal/observability"
	"github.com/jonathan/form-autofill/internal/resolution"
	"github.com/jonathan/form-autofill/internal/review"
	"github.com/jonathan/form-autofill/internal/session"
	"github.com/jonathan/form-autofill/internal/store"
	"github.com/jonathan/form-autofill/internal/surface"
)

// State names one stage of the per-page pipeline.
type State string

const (
	StateIdle       State = "idle"
	StateExtracted  State = "extracted"
	StateResolved   State = "resolved"
	StateFilled     State = "filled"
	StateMonitoring State = "monitoring"
	StateReviewing  State = "reviewing"
	StatePersisted  State = "persisted"
	StateDone       State = "done"
)

// DefaultNavPollInterval is how often the orchestrator polls the page URL
// while waiting for navigation.
const DefaultNavPollInterval = 1 * time.Second

// Options holds the collaborators and tuning knobs for a fill session.
type Options struct {
	Surface  surface.Surface
	Store    *store.Store
	Client   llm.Client // may be nil: resolution skips the AI tier
	Reviewer review.Reviewer

	DatabaseURL     string
	NavPollInterval time.Duration
	MonitorInterval time.Duration
	Verbose         bool
}

// PageSummary reports what happened on one processed page.
type PageSummary struct {
	URL           string
	Questions     int
	Filled        int
	ManualChanges int
	Accepted      bool
	Persisted     int
}

// Orchestrator drives the gate state machine across pages until the form runs
// out of questions or Stop is called.
type Orchestrator struct {
	surface   surface.Surface
	store     *store.Store
	extractor *extraction.Extractor
	resolver  *resolution.Resolver
	filler    *filling.Filler
	gate      *review.Gate
	printer   *observability.Printer

	navPoll         time.Duration
	monitorInterval time.Duration
	verbose         bool
	databaseURL     string

	stopped atomic.Bool
	state   State

	// processed guards against re-running gates on a URL already handled,
	// e.g. when the user navigates back to a completed page.
	processed map[string]bool

	summaries []PageSummary
}

// New creates an orchestrator from the given collaborators.
func New(opts Options) *Orchestrator {
	navPoll := opts.NavPollInterval
	if navPoll <= 0 {
		navPoll = DefaultNavPollInterval
	}
	monitorInterval := opts.MonitorInterval
	if monitorInterval <= 0 {
		monitorInterval = monitoring.DefaultInterval
	}
	return &Orchestrator{
		surface:         opts.Surface,
		store:           opts.Store,
		extractor:       extraction.New(opts.Surface, opts.Verbose),
		resolver:        resolution.New(opts.Store, opts.Client, opts.Verbose),
		filler:          filling.New(opts.Surface, opts.Verbose),
		gate:            review.NewGate(opts.Reviewer),
		printer:         observability.NewPrinter(os.Stdout),
		navPoll:         navPoll,
		monitorInterval: monitorInterval,
		verbose:         opts.Verbose,
		databaseURL:     opts.DatabaseURL,
		state:           StateIdle,
		processed:       make(map[string]bool),
	}
}

// Stop requests a cooperative shutdown. The current page still goes through
// review so staged answers are not silently lost.
func (o *Orchestrator) Stop() {
	o.stopped.Store(true)
}

// State returns the stage the orchestrator last entered.
func (o *Orchestrator) State() State {
	return o.state
}

// Summaries returns the per-page results of a completed run.
func (o *Orchestrator) Summaries() []PageSummary {
	return o.summaries
}

// errStopRequested signals the navigation wait ended because of Stop, not a
// page change.
var errStopRequested = errors.New("stop requested")

// Run processes pages until the form has no more questions, Stop is called,
// or the surface becomes unreachable. Only a surface connectivity failure or
// a cancelled context returns an error.
func (o *Orchestrator) Run(ctx context.Context) error {
	// The session ledger is optional: connection failure is a warning, not
	// an error.
	var database *dbpkg.DB
	var runID uuid.UUID
	if o.databaseURL != "" {
		var err error
		database, err = dbpkg.Connect(ctx, o.databaseURL)
		if err != nil {
			fmt.Printf("Warning: Failed to connect to database: %v\n", err)
			fmt.Printf("Continuing without session ledger...\n")
			database = nil
		} else {
			defer database.Close()
			if o.verbose {
				fmt.Printf("[VERBOSE] Connected to session ledger\n")
			}
		}
	}

	startURL, err := o.surface.CurrentPageURL(ctx)
	if err != nil {
		return o.fatalIfUnreachable(err)
	}
	if database != nil {
		runID, err = database.CreateRun(ctx, o.store.Path(), startURL)
		if err != nil {
			fmt.Printf("Warning: Failed to create ledger run: %v\n", err)
			database = nil
		} else if o.verbose {
			fmt.Printf("[VERBOSE] Created ledger run: %s\n", runID)
		}
	}

	runStatus := dbpkg.RunStatusCompleted
	for page := 1; ; page++ {
		if o.stopped.Load() {
			break
		}

		url, err := o.surface.CurrentPageURL(ctx)
		if err != nil {
			runStatus = dbpkg.RunStatusFailed
			o.completeRun(ctx, database, runID, runStatus)
			return o.fatalIfUnreachable(err)
		}

		if o.processed[url] {
			// Already handled this page. Wait for the user to move on.
			if _, err := o.waitForNavigation(ctx, url); err != nil {
				if errors.Is(err, errStopRequested) {
					break
				}
				runStatus = dbpkg.RunStatusFailed
				o.completeRun(ctx, database, runID, runStatus)
				return err
			}
			continue
		}

		summary, err := o.runPage(ctx, page, url)
		if summary != nil {
			o.summaries = append(o.summaries, *summary)
			if database != nil {
				if recErr := database.RecordPage(ctx, runID, dbpkg.PageRecord{
					URL:           summary.URL,
					Questions:     summary.Questions,
					Filled:        summary.Filled,
					ManualChanges: summary.ManualChanges,
					Accepted:      summary.Accepted,
					Persisted:     summary.Persisted,
				}); recErr != nil {
					fmt.Printf("Warning: Failed to record page in ledger: %v\n", recErr)
				}
			}
		}
		if err != nil {
			if errors.Is(err, errStopRequested) {
				break
			}
			runStatus = dbpkg.RunStatusFailed
			o.completeRun(ctx, database, runID, runStatus)
			return err
		}
		if o.state == StateDone {
			break
		}
		o.processed[url] = true
	}

	o.state = StateDone
	o.completeRun(ctx, database, runID, runStatus)
	fmt.Printf("Done! Processed %d page(s).\n", len(o.summaries))
	return nil
}

// runPage takes one page through every gate. A nil summary means the page had
// no questions.
func (o *Orchestrator) runPage(ctx context.Context, page int, url string) (*PageSummary, error) {
	fmt.Printf("Page %d: Extracting questions from %s...\n", page, url)
	questions, err := o.extractor.ExtractQuestions(ctx)
	if err != nil {
		return nil, o.fatalIfUnreachable(err)
	}
	if len(questions) == 0 {
		fmt.Printf("Page %d: No questions found. Form complete.\n", page)
		o.state = StateDone
		return nil, nil
	}
	o.state = StateExtracted
	if o.verbose {
		o.printer.PrintQuestions(questions)
	}

	sess := session.New(url, questions)
	summary := &PageSummary{URL: url, Questions: len(questions)}

	fmt.Printf("Page %d: Resolving answers for %d question(s)...\n", page, len(questions))
	answers := o.resolver.Resolve(ctx, questions, sess)
	o.state = StateResolved

	if o.store.Profile().Preferences.AutoFillEnabled {
		fmt.Printf("Page %d: Filling %d resolved answer(s)...\n", page, len(answers))
		summary.Filled = o.filler.Fill(ctx, questions, answers)
		o.state = StateFilled
	} else {
		fmt.Printf("Page %d: Auto-fill disabled in preferences, skipping fill.\n", page)
		o.state = StateFilled
	}

	monitor := monitoring.New(o.surface, sess, o.verbose)
	monitor.SetInterval(o.monitorInterval)
	monitor.Start(ctx)
	o.state = StateMonitoring

	fmt.Printf("Page %d: Watching for edits. Submit or advance the form to continue...\n", page)
	_, navErr := o.waitForNavigation(ctx, url)
	monitor.Stop()
	if navErr != nil && !errors.Is(navErr, errStopRequested) {
		return summary, navErr
	}

	o.state = StateReviewing
	outcome, err := o.gate.Review(ctx, sess)
	if err != nil {
		// A broken reviewer counts as a decline; nothing is persisted.
		fmt.Printf("Warning: Review failed: %v. Discarding page changes.\n", err)
		outcome = review.Outcome{Accepted: false}
	}
	summary.ManualChanges = len(sess.ManualChanges())
	summary.Accepted = outcome.Accepted

	if outcome.Accepted {
		summary.Persisted = o.persist(outcome)
		o.state = StatePersisted
	} else {
		fmt.Printf("Page %d: Changes declined, nothing persisted.\n", page)
	}

	sess.Reset()
	return summary, navErr
}

// persist merges the accepted review set into the store and saves it. A save
// failure leaves the file untouched; the merge stays in memory for a retry on
// the next accepted page.
func (o *Orchestrator) persist(outcome review.Outcome) int {
	if !o.store.Profile().Preferences.LearnNewQuestions {
		fmt.Printf("Learning disabled in preferences, skipping persistence.\n")
		return 0
	}

	merged := o.store.MergeReviewed(outcome.Items)
	if merged == 0 {
		return 0
	}
	if err := o.store.Save(); err != nil {
		fmt.Printf("Warning: Failed to save profile: %v\n", err)
		return 0
	}
	o.printer.PrintPersistenceReport(merged, len(outcome.Items), o.store.Path())
	return merged
}

// waitForNavigation polls the page URL until it differs from current. Returns
// errStopRequested when Stop is called mid-wait so the caller can still review
// the page it was on.
func (o *Orchestrator) waitForNavigation(ctx context.Context, current string) (string, error) {
	ticker := time.NewTicker(o.navPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
			if o.stopped.Load() {
				return "", errStopRequested
			}
			url, err := o.surface.CurrentPageURL(ctx)
			if err != nil {
				var connErr *surface.ConnectivityError
				if errors.As(err, &connErr) {
					return "", err
				}
				// Transient read failure, keep polling.
				continue
			}
			if url != current {
				if o.verbose {
					fmt.Printf("[VERBOSE] Navigation detected: %s\n", url)
				}
				return url, nil
			}
		}
	}
}

// fatalIfUnreachable normalizes a surface failure: connectivity errors pass
// through as fatal, anything else is wrapped for context.
func (o *Orchestrator) fatalIfUnreachable(err error) error {
	var connErr *surface.ConnectivityError
	if errors.As(err, &connErr) {
		return err
	}
	return fmt.Errorf("reading page state failed: %w", err)
}

// completeRun closes out the ledger run when a ledger is in use.
func (o *Orchestrator) completeRun(ctx context.Context, database *dbpkg.DB, runID uuid.UUID, status string) {
	if database == nil || runID == uuid.Nil {
		return
	}
	if err := database.CompleteRun(ctx, runID, status); err != nil {
		fmt.Printf("Warning: Failed to complete ledger run: %v\n", err)
	}
}
