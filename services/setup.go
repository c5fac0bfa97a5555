package services

import (
	"fmt"

	"scholar-export/config"
	"scholar-export/providers"
	"scholar-export/providers/crossref"
	"scholar-export/providers/openalex"
	"scholar-export/providers/semanticscholar"

	"go.uber.org/zap"
)

// NewSearchProvider wählt den Such-Provider anhand von SEARCH_PROVIDER.
func NewSearchProvider(cfg *config.Config, logger *zap.Logger) (providers.SearchProvider, error) {
	switch cfg.Provider() {
	case "semanticscholar":
		return semanticscholar.NewFetcher(cfg, logger), nil
	case "openalex":
		return openalex.NewFetcher(cfg, logger), nil
	}
	return nil, fmt.Errorf("unknown search provider %q", cfg.SearchProvider)
}

// Stack bündelt alles, was für eine Suche gebraucht wird.
type Stack struct {
	Pipeline *Pipeline
	Health   *HealthChecker
}

// NewStack baut Provider, Crossref-Resolver (optional mit Cache), Enricher, Pipeline und HealthChecker.
func NewStack(cfg *config.Config, logger *zap.Logger) (*Stack, error) {
	provider, err := NewSearchProvider(cfg, logger)
	if err != nil {
		return nil, err
	}
	crossrefResolver := crossref.NewResolver(cfg, logger)
	resolver := WithLookupCache(crossrefResolver, cfg.LookupCacheTTL, logger)

	enricher := NewEnricher(
		NewTextNormalizer(logger, cfg.NormalizeUnicode),
		NewImpactScorer(cfg.ImpactFactorBase),
		resolver,
		logger,
	)

	targets := []Pinger{crossrefResolver}
	if p, ok := provider.(Pinger); ok {
		targets = append(targets, p)
	}

	return &Stack{
		Pipeline: NewPipeline(provider, enricher, logger, cfg.MaxResults),
		Health:   NewHealthChecker(logger, cfg.HTTPTimeout, targets...),
	}, nil
}
