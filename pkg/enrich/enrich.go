package enrich

import (
	"context"
	"log/slog"

	"github.com/soundprediction/lancong/pkg/metrics"
	"github.com/soundprediction/lancong/pkg/types"
	"github.com/soundprediction/lancong/pkg/wikidata"
)

// Resolver enriches places with knowledge-base attributes.
type Resolver struct {
	kb     wikidata.Resolver
	locale string
	cache  Cache
	logger *slog.Logger
}

// NewResolver creates a Resolver. cache may be nil. An empty locale selects
// types.DefaultLocale.
func NewResolver(kb wikidata.Resolver, locale string, cache Cache, logger *slog.Logger) *Resolver {
	if locale == "" {
		locale = types.DefaultLocale
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{kb: kb, locale: locale, cache: cache, logger: logger}
}

// Lookup returns the enrichment for a place name. It never returns nil.
func (r *Resolver) Lookup(ctx context.Context, name string) *types.Enrichment {
	if name == "" {
		return types.EmptyEnrichment()
	}

	if r.cache != nil {
		cached, ok, err := r.cache.Get(ctx, r.locale, name)
		if err != nil {
			r.logger.WarnContext(ctx, "enrichment cache read failed", "name", name, "error", err)
		}
		if ok {
			metrics.EnrichmentCacheTotal.WithLabelValues("hit").Inc()
			return toEnrichment(cached)
		}
		metrics.EnrichmentCacheTotal.WithLabelValues("miss").Inc()
	}

	result := r.kb.Resolve(ctx, name, r.locale)
	metrics.EnrichmentLookupsTotal.WithLabelValues(result.Status.String()).Inc()

	if result.Status == wikidata.TransportError {
		r.logger.WarnContext(ctx, "enrichment lookup failed",
			"name", name,
			"error", result.Err)
		return types.EmptyEnrichment()
	}

	if r.cache != nil {
		if err := r.cache.Put(ctx, r.locale, name, result); err != nil {
			r.logger.WarnContext(ctx, "enrichment cache write failed", "name", name, "error", err)
		}
	}
	return toEnrichment(result)
}

func toEnrichment(result wikidata.LookupResult) *types.Enrichment {
	if result.Status != wikidata.Found {
		return types.EmptyEnrichment()
	}
	return &types.Enrichment{
		Image:          result.Entity.Image,
		WikidataEntity: result.Entity.URI,
		DescriptionID:  result.Entity.Description,
	}
}

// EnrichPlace returns place with its enrichment attached.
func (r *Resolver) EnrichPlace(ctx context.Context, place types.Place) types.Place {
	place.Enrichment = r.Lookup(ctx, place.Name)
	return place
}

// EnrichPlaces enriches the first maxEnrich places and null-fills the rest
// without a lookup. The input slice is not modified.
func (r *Resolver) EnrichPlaces(ctx context.Context, places []types.Place, maxEnrich int) []types.Place {
	out := make([]types.Place, len(places))
	for i, place := range places {
		if i < maxEnrich {
			out[i] = r.EnrichPlace(ctx, place)
			continue
		}
		place.Enrichment = types.EmptyEnrichment()
		out[i] = place
	}
	return out
}

// EnrichCandidates applies EnrichPlaces semantics to candidate places.
func (r *Resolver) EnrichCandidates(ctx context.Context, candidates []types.Candidate, maxEnrich int) []types.Candidate {
	out := make([]types.Candidate, len(candidates))
	for i, c := range candidates {
		if i < maxEnrich {
			c.Place = r.EnrichPlace(ctx, c.Place)
		} else {
			c.Place.Enrichment = types.EmptyEnrichment()
		}
		out[i] = c
	}
	return out
}
