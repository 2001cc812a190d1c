// Package handler provides the Lambda handler for the translation orchestrator.
package handler

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/rs/zerolog/log"

	"github.com/storeforge/translation-orchestrator/internal/costs"
	"github.com/storeforge/translation-orchestrator/internal/credits"
	"github.com/storeforge/translation-orchestrator/internal/domain"
	"github.com/storeforge/translation-orchestrator/internal/orchestrator"
	"github.com/storeforge/translation-orchestrator/internal/platform"
)

// Modes select which orchestrator handles the request.
const (
	ModeSingle = "single"
	ModeMulti  = "multi"
)

// Request is the input to the translation orchestrator.
type Request struct {
	Mode        string   `json:"mode"`
	StoreID     string   `json:"storeId"`
	EntityType  string   `json:"entityType,omitempty"`
	EntityTypes []string `json:"entityTypes,omitempty"`
	FromLang    string   `json:"fromLang"`
	ToLangs     []string `json:"toLangs"`
}

// Response is the output from the translation orchestrator.
type Response struct {
	Total            int                              `json:"total"`
	Translated       int                              `json:"translated"`
	Skipped          int                              `json:"skipped"`
	Failed           int                              `json:"failed"`
	CreditsDeducted  float64                          `json:"creditsDeducted"`
	RemainingCredits float64                          `json:"remainingCredits"`
	ByLanguage       map[string]domain.LanguageResult `json:"byLanguage,omitempty"`
	Errors           []domain.ItemError               `json:"errors,omitempty"`
	Background       bool                             `json:"backgroundProcessing,omitempty"`
	EstimatedItems   int                              `json:"estimatedItems,omitempty"`
	EstimatedMinutes int                              `json:"estimatedMinutes,omitempty"`
	Error            string                           `json:"error,omitempty"`
}

// API is the slice of the platform client the handler needs.
type API interface {
	BulkTranslate(ctx context.Context, entityType domain.EntityType, storeID, fromLang, toLang string) (domain.Outcome, error)
	BulkTranslateEntities(ctx context.Context, entityTypes []domain.EntityType, storeID, fromLang, toLang string) (domain.Outcome, error)
	EntityStats(ctx context.Context, storeID string) (map[domain.EntityType]domain.EntityStat, error)
	ServiceCreditCosts(ctx context.Context) ([]domain.ServiceCost, error)
	CreditBalance(ctx context.Context) (float64, error)
}

// Handle processes one orchestration request end to end: it mirrors the
// credit balance, runs the requested orchestrator, and reports the
// aggregate. Validation and orchestration failures are returned in the
// response Error field, not as Lambda errors.
func Handle(ctx context.Context, req Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		return &Response{Error: err.Error()}, nil
	}

	cfg, err := platform.LoadConfig()
	if err != nil {
		return &Response{Error: fmt.Sprintf("configuration error: %v", err)}, nil
	}

	return Run(ctx, req, platform.New(cfg), newBroadcaster(ctx, cfg), orchestrator.Options{})
}

// Run executes the request against the given collaborators. The session's
// ledger and broadcaster are set here; other options pass through.
func Run(ctx context.Context, req Request, api API, broadcaster credits.Broadcaster, opts orchestrator.Options) (*Response, error) {
	balance, err := api.CreditBalance(ctx)
	if err != nil {
		return &Response{Error: fmt.Sprintf("failed to fetch credit balance: %v", err)}, nil
	}
	ledger := credits.NewLedger(balance)

	opts.Ledger = ledger
	opts.Broadcaster = broadcaster
	dreq := domain.Request{
		StoreID:  req.StoreID,
		FromLang: req.FromLang,
		ToLangs:  req.ToLangs,
	}

	var agg *domain.Aggregate
	switch req.Mode {
	case ModeSingle:
		entityType := domain.EntityType(req.EntityType)
		dreq.EntityTypes = []domain.EntityType{entityType}
		single := orchestrator.NewSingle(func(ctx context.Context, fromLang, toLang string) (domain.Outcome, error) {
			return api.BulkTranslate(ctx, entityType, req.StoreID, fromLang, toLang)
		}, opts)
		agg, err = single.Run(ctx, dreq)
	case ModeMulti:
		for _, t := range req.EntityTypes {
			dreq.EntityTypes = append(dreq.EntityTypes, domain.EntityType(t))
		}
		multi := orchestrator.NewMulti(api, costs.Resolve(ctx, api), opts)
		agg, err = multi.Run(ctx, dreq)
	default:
		return &Response{Error: fmt.Sprintf("mode must be %q or %q", ModeSingle, ModeMulti)}, nil
	}
	if err != nil {
		return &Response{Error: err.Error()}, nil
	}

	return &Response{
		Total:            agg.Total,
		Translated:       agg.Translated,
		Skipped:          agg.Skipped,
		Failed:           agg.Failed,
		CreditsDeducted:  agg.CreditsDeducted,
		RemainingCredits: ledger.Balance(),
		ByLanguage:       agg.ByLanguage,
		Errors:           agg.Errors,
		Background:       agg.Background,
		EstimatedItems:   agg.EstimatedItems,
		EstimatedMinutes: agg.EstimatedMinutes,
	}, nil
}

// validateRequest checks the request is valid.
func validateRequest(req Request) error {
	switch req.Mode {
	case ModeSingle:
		if req.EntityType == "" {
			return fmt.Errorf("entityType is required for single mode")
		}
	case ModeMulti:
		if len(req.EntityTypes) == 0 {
			return fmt.Errorf("entityTypes is required for multi mode")
		}
	default:
		return fmt.Errorf("mode must be %q or %q", ModeSingle, ModeMulti)
	}
	if req.StoreID == "" {
		return fmt.Errorf("storeId is required")
	}
	if req.FromLang == "" {
		return fmt.Errorf("fromLang is required")
	}
	if len(req.ToLangs) == 0 {
		return fmt.Errorf("toLangs is required")
	}
	return nil
}

// newBroadcaster wires the EventBridge credits broadcast if a bus is
// configured. Broadcast is best-effort: on AWS config failure the session
// runs without one.
func newBroadcaster(ctx context.Context, cfg platform.Config) credits.Broadcaster {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("AWS config unavailable, credits broadcast disabled")
		return nil
	}
	return credits.NewEventBridgeBroadcaster(eventbridge.NewFromConfig(awsCfg), cfg.EventBusARN)
}
