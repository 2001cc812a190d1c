// Package costs resolves per-unit AI translation costs and computes the
// pre-flight credit estimate shown before a bulk run starts.
package costs

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/storeforge/translation-orchestrator/internal/domain"
)

// DefaultCostPerUnit is charged per translated item when the cost catalog
// is unavailable or omits an entity type.
const DefaultCostPerUnit = 0.1

// serviceKeys maps the catalog's service keys to entity types.
var serviceKeys = map[string]domain.EntityType{
	"ai_translation_product":   domain.EntityProduct,
	"ai_translation_category":  domain.EntityCategory,
	"ai_translation_cms_page":  domain.EntityCMSPage,
	"ai_translation_ui_label":  domain.EntityUILabels,
	"ai_translation_template":  domain.EntityTemplate,
	"ai_translation_attribute": domain.EntityAttribute,
}

// Catalog fetches the platform's AI service cost catalog.
type Catalog interface {
	ServiceCreditCosts(ctx context.Context) ([]domain.ServiceCost, error)
}

// Resolver maps entity types to per-unit costs. Resolve is called once per
// orchestration session; lookups after that never touch the network.
type Resolver struct {
	perUnit map[domain.EntityType]float64
}

// Resolve fetches the cost catalog and builds a Resolver. A catalog fetch
// failure is not fatal: every entity type then falls back to the default.
func Resolve(ctx context.Context, catalog Catalog) *Resolver {
	r := &Resolver{perUnit: map[domain.EntityType]float64{}}

	services, err := catalog.ServiceCreditCosts(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("cost catalog unavailable, using default per-unit cost")
		return r
	}
	for _, s := range services {
		entityType, ok := serviceKeys[s.ServiceKey]
		if !ok || s.CostPerUnit <= 0 {
			continue
		}
		r.perUnit[entityType] = s.CostPerUnit
	}
	return r
}

// CostPerUnit returns the per-item cost for the entity type.
func (r *Resolver) CostPerUnit(t domain.EntityType) float64 {
	if cost, ok := r.perUnit[t]; ok {
		return cost
	}
	return DefaultCostPerUnit
}

// Estimate computes the client-side credit estimate for translating every
// item of the selected entity types into numLangs target languages:
// sum over types of itemCount × numLangs × costPerUnit. The estimate is
// advisory; server-side accounting is authoritative.
func (r *Resolver) Estimate(stats map[domain.EntityType]domain.EntityStat, entityTypes []domain.EntityType, numLangs int) float64 {
	if numLangs <= 0 {
		return 0
	}
	var total float64
	for _, t := range entityTypes {
		stat, ok := stats[t]
		if !ok {
			continue
		}
		total += float64(stat.Total) * float64(numLangs) * r.CostPerUnit(t)
	}
	return total
}
