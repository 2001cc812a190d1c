package orchestrator

import (
	"context"
	"fmt"

	"github.com/storeforge/translation-orchestrator/internal/costs"
	"github.com/storeforge/translation-orchestrator/internal/domain"
)

// EntityTranslator is the slice of the platform client the multi-entity
// orchestrator needs: one call per target language covering every selected
// entity type, plus the stats feeding the pre-flight estimate.
type EntityTranslator interface {
	BulkTranslateEntities(ctx context.Context, entityTypes []domain.EntityType, storeID, fromLang, toLang string) (domain.Outcome, error)
	EntityStats(ctx context.Context, storeID string) (map[domain.EntityType]domain.EntityStat, error)
}

// Multi drives translation of several entity types at once: the server
// fans out over entity types inside a single call, so iteration here is
// per target language only.
type Multi struct {
	*Session
	client   EntityTranslator
	resolver *costs.Resolver
}

// NewMulti creates a multi-entity orchestrator.
func NewMulti(client EntityTranslator, resolver *costs.Resolver, opts Options) *Multi {
	return &Multi{Session: newSession(opts), client: client, resolver: resolver}
}

// Estimate computes the client-side credit estimate for the request.
// Advisory only: it gates the start of a run but is never re-verified
// against the server between per-language calls.
func (m *Multi) Estimate(ctx context.Context, req domain.Request) (float64, error) {
	stats, err := m.client.EntityStats(ctx, req.StoreID)
	if err != nil {
		return 0, fmt.Errorf("entity stats: %w", err)
	}
	// Languages equal to the source are skipped, not billed.
	numLangs := 0
	for _, lang := range req.ToLangs {
		if lang != req.FromLang {
			numLangs++
		}
	}
	return m.resolver.Estimate(stats, req.EntityTypes, numLangs), nil
}

// Run validates the request, checks credit sufficiency once, then
// processes each target language sequentially. A target equal to the
// source language is recorded as skipped and never sent to the server.
func (m *Multi) Run(ctx context.Context, req domain.Request) (*domain.Aggregate, error) {
	// An invalid request must be rejected before any server round trip,
	// including the stats fetch behind the estimate.
	if err := req.Validate(false); err != nil {
		return nil, err
	}

	estimate, err := m.Estimate(ctx, req)
	if err != nil {
		return nil, err
	}
	if !m.ledger.Sufficient(estimate) {
		return nil, fmt.Errorf("insufficient credits: estimated cost %.2f exceeds balance %.2f",
			estimate, m.ledger.Balance())
	}

	return m.run(ctx, req, true, func(ctx context.Context, toLang string) (domain.Outcome, error) {
		return m.client.BulkTranslateEntities(ctx, req.EntityTypes, req.StoreID, req.FromLang, toLang)
	})
}
