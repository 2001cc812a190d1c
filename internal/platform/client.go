// Package platform is the HTTP/JSON client for the e-commerce admin API.
// It owns no wire format of its own; every method mirrors one server
// endpoint and decodes the response into domain types. Background-accepted
// responses are converted into tagged outcomes here, at the API boundary,
// so callers never probe optional fields.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/storeforge/translation-orchestrator/internal/domain"
)

// Client talks to the platform admin API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a Client from the given configuration.
func New(cfg Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// bulkTranslateBody is the request body shared by both bulk-translate endpoints.
type bulkTranslateBody struct {
	StoreID     string   `json:"store_id"`
	EntityTypes []string `json:"entity_types,omitempty"`
	FromLang    string   `json:"fromLang"`
	ToLang      string   `json:"toLang"`
}

// bulkTranslateResponse is the wire shape of a bulk-translate result.
type bulkTranslateResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Total                int                `json:"total"`
		Translated           int                `json:"translated"`
		Skipped              int                `json:"skipped"`
		Failed               int                `json:"failed"`
		Errors               []domain.ItemError `json:"errors"`
		BackgroundProcessing bool               `json:"backgroundProcessing"`
		EstimatedItems       int                `json:"estimatedItems"`
		EstimatedMinutes     int                `json:"estimatedMinutes"`
		EstimatedCost        float64            `json:"estimatedCost"`
		Message              string             `json:"message"`
	} `json:"data"`
	CreditsDeducted float64 `json:"creditsDeducted"`
	Message         string  `json:"message"`
}

// BulkTranslate asks the server to translate every item of one entity
// collection from fromLang into toLang.
func (c *Client) BulkTranslate(ctx context.Context, entityType domain.EntityType, storeID, fromLang, toLang string) (domain.Outcome, error) {
	collection, err := entityType.Collection()
	if err != nil {
		return domain.Outcome{}, err
	}
	body := bulkTranslateBody{StoreID: storeID, FromLang: fromLang, ToLang: toLang}
	return c.postBulkTranslate(ctx, collection+"/bulk-translate", body)
}

// BulkTranslateEntities asks the server to translate every item of all the
// given entity types into toLang, in a single call.
func (c *Client) BulkTranslateEntities(ctx context.Context, entityTypes []domain.EntityType, storeID, fromLang, toLang string) (domain.Outcome, error) {
	types := make([]string, 0, len(entityTypes))
	for _, t := range entityTypes {
		types = append(types, string(t))
	}
	body := bulkTranslateBody{StoreID: storeID, EntityTypes: types, FromLang: fromLang, ToLang: toLang}
	return c.postBulkTranslate(ctx, "translations/bulk-translate-entities", body)
}

func (c *Client) postBulkTranslate(ctx context.Context, path string, body bulkTranslateBody) (domain.Outcome, error) {
	var resp bulkTranslateResponse
	if err := c.do(ctx, http.MethodPost, path, nil, body, &resp); err != nil {
		return domain.Outcome{}, err
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "server reported failure"
		}
		return domain.Outcome{}, fmt.Errorf("bulk translate %s: %s", path, msg)
	}

	out := domain.Outcome{
		Status:          domain.OutcomeCompleted,
		Total:           resp.Data.Total,
		Translated:      resp.Data.Translated,
		Skipped:         resp.Data.Skipped,
		Failed:          resp.Data.Failed,
		Errors:          resp.Data.Errors,
		CreditsDeducted: resp.CreditsDeducted,
		Message:         resp.Data.Message,
	}
	if resp.Data.BackgroundProcessing {
		out.Status = domain.OutcomeAccepted
		out.EstimatedItems = resp.Data.EstimatedItems
		out.EstimatedMinutes = resp.Data.EstimatedMinutes
		// Large batches report an estimate instead of a confirmed deduction.
		if out.CreditsDeducted == 0 {
			out.CreditsDeducted = resp.Data.EstimatedCost
		}
	}
	if err := out.CheckCounts(); err != nil {
		return domain.Outcome{}, fmt.Errorf("bulk translate %s: %w", path, err)
	}
	return out, nil
}

// EntityStats returns per-entity-type item counts for the store.
func (c *Client) EntityStats(ctx context.Context, storeID string) (map[domain.EntityType]domain.EntityStat, error) {
	var resp struct {
		Success bool                                    `json:"success"`
		Stats   map[domain.EntityType]domain.EntityStat `json:"stats"`
	}
	q := url.Values{"store_id": {storeID}}
	if err := c.do(ctx, http.MethodGet, "translations/entity-stats", q, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("entity stats: server reported failure")
	}
	return resp.Stats, nil
}

// ServiceCreditCosts returns the active AI service cost catalog.
func (c *Client) ServiceCreditCosts(ctx context.Context) ([]domain.ServiceCost, error) {
	var resp struct {
		Success  bool                 `json:"success"`
		Services []domain.ServiceCost `json:"services"`
	}
	q := url.Values{"category": {"ai_services"}, "active_only": {"true"}}
	if err := c.do(ctx, http.MethodGet, "service-credit-costs", q, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("service credit costs: server reported failure")
	}
	return resp.Services, nil
}

// CreditBalance returns the user's authoritative prepaid credit balance.
func (c *Client) CreditBalance(ctx context.Context) (float64, error) {
	var resp struct {
		Success bool    `json:"success"`
		Balance float64 `json:"balance"`
	}
	if err := c.do(ctx, http.MethodGet, "credits/balance", nil, nil, &resp); err != nil {
		return 0, err
	}
	if !resp.Success {
		return 0, fmt.Errorf("credit balance: server reported failure")
	}
	return resp.Balance, nil
}

// do issues one request and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL + "/" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Warn().Str("path", path).Int("status", resp.StatusCode).Msg("platform API error")
		return fmt.Errorf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", path, err)
	}
	return nil
}
