package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	HTTPPort string `envconfig:"HTTP_PORT" default:"4242"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Pipeline
	MaxResults       int     `envconfig:"MAX_RESULTS" default:"10"`
	ImpactFactorBase float64 `envconfig:"IMPACT_FACTOR_BASE" default:"10"`
	NormalizeUnicode bool    `envconfig:"NORMALIZE_UNICODE" default:"true"`

	// Such-Provider: "semanticscholar" oder "openalex"
	SearchProvider         string `envconfig:"SEARCH_PROVIDER" default:"semanticscholar"`
	SearchPageSize         int    `envconfig:"SEARCH_PAGE_SIZE" default:"20"`
	SemanticScholarBaseURL string `envconfig:"SEMANTIC_SCHOLAR_BASE_URL" default:"https://api.semanticscholar.org/graph/v1"`
	SemanticScholarAPIKey  string `envconfig:"SEMANTIC_SCHOLAR_API_KEY"`
	OpenAlexBaseURL        string `envconfig:"OPENALEX_BASE_URL" default:"https://api.openalex.org"`
	OpenAlexEmail          string `envconfig:"OPENALEX_EMAIL"`

	// Crossref für DOI- und Journal-Lookup
	CrossrefBaseURL string `envconfig:"CROSSREF_BASE_URL" default:"https://api.crossref.org"`
	CrossrefMailto  string `envconfig:"CROSSREF_MAILTO"`

	// HTTP-Härtung für alle externen Aufrufe
	HTTPTimeout    time.Duration `envconfig:"HTTP_TIMEOUT" default:"15s"`
	HTTPMaxRetries int           `envconfig:"HTTP_MAX_RETRIES" default:"2"`
	CrossrefRPS    float64       `envconfig:"CROSSREF_RPS" default:"5"`
	SearchRPS      float64       `envconfig:"SEARCH_RPS" default:"1"`
	UserAgent      string        `envconfig:"USER_AGENT" default:"scholar-export/1.0"`

	// 0 = Cache aus
	LookupCacheTTL time.Duration `envconfig:"LOOKUP_CACHE_TTL" default:"0s"`

	HealthcheckSchedule string `envconfig:"HEALTHCHECK_SCHEDULE" default:"@every 5m"`

	// Obergrenze für einen kompletten /search-Lauf; danach gibt es das Teilergebnis.
	SearchTimeout time.Duration `envconfig:"SEARCH_TIMEOUT" default:"90s"`
}

// Validate prüft Werte, die envconfig zwar parsen kann, die aber keinen Sinn ergeben.
func (c *Config) Validate() error {
	var result *multierror.Error
	if c.MaxResults <= 0 {
		result = multierror.Append(result, fmt.Errorf("MAX_RESULTS must be positive, got %d", c.MaxResults))
	}
	if c.ImpactFactorBase <= 0 {
		result = multierror.Append(result, fmt.Errorf("IMPACT_FACTOR_BASE must be positive, got %g", c.ImpactFactorBase))
	}
	if c.SearchPageSize <= 0 || c.SearchPageSize > 100 {
		result = multierror.Append(result, fmt.Errorf("SEARCH_PAGE_SIZE must be between 1 and 100, got %d", c.SearchPageSize))
	}
	switch c.Provider() {
	case "semanticscholar", "openalex":
	default:
		result = multierror.Append(result, fmt.Errorf("unknown SEARCH_PROVIDER %q", c.SearchProvider))
	}
	if c.HTTPTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout))
	}
	if c.HTTPMaxRetries < 0 {
		result = multierror.Append(result, fmt.Errorf("HTTP_MAX_RETRIES must not be negative, got %d", c.HTTPMaxRetries))
	}
	if c.CrossrefRPS <= 0 || c.SearchRPS <= 0 {
		result = multierror.Append(result, fmt.Errorf("CROSSREF_RPS and SEARCH_RPS must be positive"))
	}
	if c.SearchTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("SEARCH_TIMEOUT must be positive, got %s", c.SearchTimeout))
	}
	if c.LookupCacheTTL < 0 {
		result = multierror.Append(result, fmt.Errorf("LOOKUP_CACHE_TTL must not be negative"))
	}
	return result.ErrorOrNil()
}

// Provider gibt den normalisierten Namen des Such-Providers zurück.
func (c *Config) Provider() string {
	return strings.ToLower(strings.TrimSpace(c.SearchProvider))
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
