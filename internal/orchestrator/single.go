package orchestrator

import (
	"context"

	"github.com/storeforge/translation-orchestrator/internal/domain"
)

// TranslateFunc translates one entity collection from fromLang into toLang.
// The host injects one per entity type.
type TranslateFunc func(ctx context.Context, fromLang, toLang string) (domain.Outcome, error)

// Single drives translation of one entity collection into each target
// language in turn.
type Single struct {
	*Session
	translate TranslateFunc
}

// NewSingle creates a single-entity orchestrator around the injected
// translate function.
func NewSingle(translate TranslateFunc, opts Options) *Single {
	return &Single{Session: newSession(opts), translate: translate}
}

// Run validates the request and processes each target language
// sequentially, in input order. The target set must not contain the
// source language; a violation is reported without contacting the server.
func (s *Single) Run(ctx context.Context, req domain.Request) (*domain.Aggregate, error) {
	return s.run(ctx, req, false, func(ctx context.Context, toLang string) (domain.Outcome, error) {
		return s.translate(ctx, req.FromLang, toLang)
	})
}
