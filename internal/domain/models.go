// Package domain contains the core domain types for the translation orchestrator.
package domain

import "fmt"

// EntityType identifies a catalog of translatable content.
type EntityType string

const (
	EntityProduct   EntityType = "product"
	EntityCategory  EntityType = "category"
	EntityCMSPage   EntityType = "cms_page"
	EntityUILabels  EntityType = "ui_labels"
	EntityTemplate  EntityType = "template"
	EntityAttribute EntityType = "attribute"
)

// collections maps an entity type to its REST collection path segment.
var collections = map[EntityType]string{
	EntityProduct:   "products",
	EntityCategory:  "categories",
	EntityCMSPage:   "cms-pages",
	EntityUILabels:  "ui-labels",
	EntityTemplate:  "templates",
	EntityAttribute: "attributes",
}

// Collection returns the REST collection path for the entity type,
// e.g. "categories" for EntityCategory.
func (t EntityType) Collection() (string, error) {
	c, ok := collections[t]
	if !ok {
		return "", fmt.Errorf("unknown entity type: %q", t)
	}
	return c, nil
}

// KnownEntityTypes returns all entity types the orchestrator can translate.
func KnownEntityTypes() []EntityType {
	return []EntityType{EntityProduct, EntityCategory, EntityCMSPage, EntityUILabels, EntityTemplate, EntityAttribute}
}

// Request describes one orchestration run: translate the given entity
// types for a store from one source language into each target language,
// in the order the target languages are listed.
type Request struct {
	StoreID     string       `json:"storeId"`
	FromLang    string       `json:"fromLang"`
	ToLangs     []string     `json:"toLangs"`
	EntityTypes []EntityType `json:"entityTypes"`
}

// Validate checks the request before any network call is made.
// The multi-entity flow tolerates the source language appearing in the
// target set (that language is skipped per iteration), so the disjointness
// check is opt-in.
func (r Request) Validate(rejectSourceInTargets bool) error {
	if r.FromLang == "" {
		return fmt.Errorf("fromLang is required")
	}
	if len(r.ToLangs) == 0 {
		return fmt.Errorf("toLangs must not be empty")
	}
	if len(r.EntityTypes) == 0 {
		return fmt.Errorf("entityTypes must not be empty")
	}
	for _, t := range r.EntityTypes {
		if _, err := t.Collection(); err != nil {
			return err
		}
	}
	if rejectSourceInTargets {
		for _, lang := range r.ToLangs {
			if lang == r.FromLang {
				return fmt.Errorf("toLangs must not contain fromLang (%s)", r.FromLang)
			}
		}
	}
	return nil
}

// OutcomeStatus tags the result shape of one bulk-translate call.
// The tag is decided once, when the API response is decoded, so the
// orchestrators branch on a closed set instead of probing optional fields.
type OutcomeStatus string

const (
	// OutcomeCompleted means the server translated the batch inline.
	OutcomeCompleted OutcomeStatus = "completed"
	// OutcomeAccepted means the server accepted the batch for background
	// processing and will notify the user by email when it finishes.
	OutcomeAccepted OutcomeStatus = "accepted"
	// OutcomeFailed means the call did not produce a usable result.
	OutcomeFailed OutcomeStatus = "failed"
)

// ItemError records one item the server could not translate.
type ItemError struct {
	Lang   string `json:"lang,omitempty"`
	Item   string `json:"item"`
	Reason string `json:"reason"`
}

// Outcome is the result of one bulk-translate call for one target language.
type Outcome struct {
	Status           OutcomeStatus `json:"status"`
	Total            int           `json:"total"`
	Translated       int           `json:"translated"`
	Skipped          int           `json:"skipped"`
	Failed           int           `json:"failed"`
	Errors           []ItemError   `json:"errors,omitempty"`
	CreditsDeducted  float64       `json:"creditsDeducted"`
	EstimatedItems   int           `json:"estimatedItems,omitempty"`
	EstimatedMinutes int           `json:"estimatedMinutes,omitempty"`
	Message          string        `json:"message,omitempty"`
}

// FailedOutcome builds the outcome recorded for a call that errored out.
func FailedOutcome(message string) Outcome {
	return Outcome{Status: OutcomeFailed, Message: message}
}

// CheckCounts verifies translated+skipped never exceeds the reported total.
// Failures are tracked separately and must not be double counted.
func (o Outcome) CheckCounts() error {
	if o.Translated+o.Skipped > o.Total {
		return fmt.Errorf("outcome counts exceed total: translated=%d skipped=%d total=%d",
			o.Translated, o.Skipped, o.Total)
	}
	if o.CreditsDeducted < 0 {
		return fmt.Errorf("creditsDeducted must not be negative: %v", o.CreditsDeducted)
	}
	return nil
}

// LanguageResult is the per-target-language row of the results breakdown.
type LanguageResult struct {
	Translated int    `json:"translated"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	Error      string `json:"error,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Aggregate accumulates outcomes across the language × entity-type matrix.
// Totals only ever grow; each target language contributes exactly one row
// to the per-language breakdown.
type Aggregate struct {
	Total            int                       `json:"total"`
	Translated       int                       `json:"translated"`
	Skipped          int                       `json:"skipped"`
	Failed           int                       `json:"failed"`
	CreditsDeducted  float64                   `json:"creditsDeducted"`
	Errors           []ItemError               `json:"errors,omitempty"`
	ByLanguage       map[string]LanguageResult `json:"byLanguage"`
	Background       bool                      `json:"backgroundProcessing,omitempty"`
	EstimatedItems   int                       `json:"estimatedItems,omitempty"`
	EstimatedMinutes int                       `json:"estimatedMinutes,omitempty"`
}

// NewAggregate returns an empty aggregate ready to accumulate outcomes.
func NewAggregate() *Aggregate {
	return &Aggregate{ByLanguage: map[string]LanguageResult{}}
}

// Add folds one per-language outcome into the running totals and the
// per-language breakdown. Item errors are tagged with the target language.
func (a *Aggregate) Add(lang string, o Outcome) {
	switch o.Status {
	case OutcomeFailed:
		a.Failed++
		a.ByLanguage[lang] = LanguageResult{Failed: 1, Error: o.Message}
		a.Errors = append(a.Errors, ItemError{Lang: lang, Item: "*", Reason: o.Message})
		return
	case OutcomeAccepted:
		a.Background = true
		a.CreditsDeducted += o.CreditsDeducted
		if o.EstimatedItems > a.EstimatedItems {
			a.EstimatedItems = o.EstimatedItems
		}
		if o.EstimatedMinutes > a.EstimatedMinutes {
			a.EstimatedMinutes = o.EstimatedMinutes
		}
		a.ByLanguage[lang] = LanguageResult{Message: o.Message}
		return
	}

	a.Total += o.Total
	a.Translated += o.Translated
	a.Skipped += o.Skipped
	a.Failed += o.Failed
	a.CreditsDeducted += o.CreditsDeducted
	for _, e := range o.Errors {
		e.Lang = lang
		a.Errors = append(a.Errors, e)
	}
	a.ByLanguage[lang] = LanguageResult{
		Translated: o.Translated,
		Skipped:    o.Skipped,
		Failed:     o.Failed,
	}
}

// AddSkippedLanguage records a target language that was never sent to the
// server, e.g. because it equals the source language.
func (a *Aggregate) AddSkippedLanguage(lang, message string) {
	a.ByLanguage[lang] = LanguageResult{Skipped: 1, Message: message}
}

// CheckCounts verifies the aggregate invariant after a run.
func (a *Aggregate) CheckCounts() error {
	if a.Translated+a.Skipped > a.Total {
		return fmt.Errorf("aggregate counts exceed total: translated=%d skipped=%d total=%d",
			a.Translated, a.Skipped, a.Total)
	}
	return nil
}

// EntityStat is the per-entity-type item count reported by the platform,
// used for the client-side cost estimate.
type EntityStat struct {
	Total      int `json:"total"`
	Translated int `json:"translated"`
}

// ServiceCost is one row of the platform's AI service cost catalog.
type ServiceCost struct {
	ServiceKey  string  `json:"service_key"`
	CostPerUnit float64 `json:"cost_per_unit"`
}
