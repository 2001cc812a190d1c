// Package orchestrator drives bulk AI-translation runs: one target
// language at a time, never concurrently, accumulating per-language
// outcomes into a single aggregate. Strict sequencing keeps the credit
// mirror accurate between calls and bounds the server's per-session AI
// load to one request in flight.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/storeforge/translation-orchestrator/internal/credits"
	"github.com/storeforge/translation-orchestrator/internal/domain"
)

// State is the lifecycle phase of an orchestration session.
type State string

const (
	StateIdle             State = "idle"
	StateValidating       State = "validating"
	StateRunning          State = "running"
	StateSummarizing      State = "summarizing"
	StateBackgroundNotice State = "background_notice"
	StateClosed           State = "closed"
)

const (
	// DefaultSettleDelay lets the caller read the synchronous summary
	// before the session auto-closes.
	DefaultSettleDelay = 2 * time.Second
	// DefaultBackgroundCloseDelay is how long the background notice stays
	// up before the session auto-closes.
	DefaultBackgroundCloseDelay = 5 * time.Second

	// SkippedSameLanguage is recorded for a target language equal to the
	// source language in the multi-entity flow.
	SkippedSameLanguage = "Skipped (same as source language)"
)

// Progress reports which target language is about to be processed.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// Options configures a session. Ledger is required; everything else is
// optional.
type Options struct {
	Ledger      *credits.Ledger
	Broadcaster credits.Broadcaster
	OnProgress  func(Progress)
	OnComplete  func()

	SettleDelay          time.Duration
	BackgroundCloseDelay time.Duration
}

// Session holds the state shared by both orchestrators. A session is owned
// by one run at a time; it is discarded when closed and recreated for the
// next run.
type Session struct {
	id          string
	ledger      *credits.Ledger
	broadcaster credits.Broadcaster
	onProgress  func(Progress)
	onComplete  func()

	settleDelay          time.Duration
	backgroundCloseDelay time.Duration

	mu       sync.Mutex
	state    State
	closeNow chan struct{}
	closed   sync.Once

	log zerolog.Logger
}

func newSession(opts Options) *Session {
	s := &Session{
		id:                   uuid.NewString(),
		ledger:               opts.Ledger,
		broadcaster:          opts.Broadcaster,
		onProgress:           opts.OnProgress,
		onComplete:           opts.OnComplete,
		settleDelay:          opts.SettleDelay,
		backgroundCloseDelay: opts.BackgroundCloseDelay,
		state:                StateIdle,
		closeNow:             make(chan struct{}),
	}
	if s.ledger == nil {
		s.ledger = credits.NewLedger(0)
	}
	if s.settleDelay == 0 {
		s.settleDelay = DefaultSettleDelay
	}
	if s.backgroundCloseDelay == 0 {
		s.backgroundCloseDelay = DefaultBackgroundCloseDelay
	}
	s.log = log.With().Str("session", s.id).Logger()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// CloseNow dismisses the background notice immediately. It is the only
// user-driven escape: a running session cannot be cancelled.
func (s *Session) CloseNow() error {
	switch st := s.State(); st {
	case StateBackgroundNotice:
		s.closed.Do(func() { close(s.closeNow) })
		return nil
	case StateRunning, StateValidating:
		return fmt.Errorf("cannot close while translation is running")
	default:
		return fmt.Errorf("nothing to close in state %q", st)
	}
}

// run executes the shared per-language loop. call performs the translation
// for one target language; skipSameLang selects the multi-entity skip rule
// instead of strict validation.
func (s *Session) run(ctx context.Context, req domain.Request, skipSameLang bool, call func(ctx context.Context, toLang string) (domain.Outcome, error)) (agg *domain.Aggregate, err error) {
	defer func() {
		if r := recover(); r != nil {
			// Reset transient state; deductions confirmed by completed
			// iterations stand.
			s.setState(StateIdle)
			s.log.Error().Interface("panic", r).Msg("orchestration aborted")
			agg = nil
			err = fmt.Errorf("translation failed unexpectedly")
		}
	}()

	s.setState(StateValidating)
	if verr := req.Validate(!skipSameLang); verr != nil {
		s.setState(StateIdle)
		return nil, verr
	}

	s.setState(StateRunning)
	agg = domain.NewAggregate()
	total := len(req.ToLangs)

	for i, toLang := range req.ToLangs {
		if s.onProgress != nil && !agg.Background {
			s.onProgress(Progress{Current: i + 1, Total: total})
		}

		if skipSameLang && toLang == req.FromLang {
			agg.AddSkippedLanguage(toLang, SkippedSameLanguage)
			s.log.Info().Str("toLang", toLang).Msg("target equals source, skipped")
			continue
		}

		outcome, callErr := call(ctx, toLang)
		if callErr != nil {
			// A single language's failure is non-fatal to the batch.
			s.log.Warn().Err(callErr).Str("toLang", toLang).Msg("translation call failed")
			agg.Add(toLang, domain.FailedOutcome(callErr.Error()))
			continue
		}

		agg.Add(toLang, outcome)
		if outcome.CreditsDeducted > 0 {
			s.ledger.Deduct(outcome.CreditsDeducted)
		}
		s.log.Info().
			Str("toLang", toLang).
			Str("status", string(outcome.Status)).
			Int("translated", outcome.Translated).
			Int("skipped", outcome.Skipped).
			Int("failed", outcome.Failed).
			Float64("creditsDeducted", outcome.CreditsDeducted).
			Msg("language processed")
	}

	if agg.Background {
		s.setState(StateBackgroundNotice)
		s.log.Info().
			Int("estimatedItems", agg.EstimatedItems).
			Int("estimatedMinutes", agg.EstimatedMinutes).
			Msg("batch accepted for background processing")
		s.waitNotice(ctx)
	} else {
		s.setState(StateSummarizing)
		s.settle(ctx, s.settleDelay)
	}

	s.setState(StateClosed)
	s.finish(ctx, req.StoreID, agg.CreditsDeducted)
	return agg, nil
}

// settle blocks for the fixed UI settling delay.
func (s *Session) settle(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// waitNotice holds the background notice until the auto-close delay
// elapses or CloseNow fires.
func (s *Session) waitNotice(ctx context.Context) {
	select {
	case <-time.After(s.backgroundCloseDelay):
	case <-s.closeNow:
	case <-ctx.Done():
	}
}

// finish fires the completion callback and the credits broadcast. Both the
// synchronous and background paths end here so dependent views reconcile
// with the server's authoritative balance either way.
func (s *Session) finish(ctx context.Context, storeID string, deducted float64) {
	if s.broadcaster != nil {
		event := credits.CreditsUpdated{
			SessionID: s.id,
			StoreID:   storeID,
			Deducted:  deducted,
			Remaining: s.ledger.Balance(),
		}
		if err := s.broadcaster.BroadcastCreditsUpdated(ctx, event); err != nil {
			s.log.Warn().Err(err).Msg("credits broadcast failed")
		}
	}
	if s.onComplete != nil {
		s.onComplete()
	}
}
