package services

import (
	"context"
	"errors"
	"time"

	"scholar-export/models"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// ErrCacheMiss wird zurückgegeben, wenn ein Schlüssel nicht im Cache liegt.
var ErrCacheMiss = errors.New("cache: key not found")

const lookupPrefix = "lookup"

type lookupResult struct {
	DOI     string
	Journal string
}

// LookupCache speichert DOI/Journal-Paare je normalisiertem Titel im Speicher.
type LookupCache struct {
	cache  *cache.Cache
	logger *zap.Logger
}

// NewLookupCache erstellt einen Cache mit der gegebenen TTL. Abgelaufene Einträge werden im Abstand von 2*TTL entfernt.
func NewLookupCache(ttl time.Duration, logger *zap.Logger) *LookupCache {
	return &LookupCache{cache: cache.New(ttl, 2*ttl), logger: logger}
}

// Get liefert das gespeicherte Paar oder ErrCacheMiss.
func (c *LookupCache) Get(title string) (doi, journal string, err error) {
	v, found := c.cache.Get(lookupPrefix + ":" + title)
	if !found {
		return "", "", ErrCacheMiss
	}
	res, ok := v.(lookupResult)
	if !ok {
		c.logger.Error("Unerwarteter Typ im Lookup-Cache", zap.String("title", title))
		return "", "", ErrCacheMiss
	}
	return res.DOI, res.Journal, nil
}

// Set speichert ein Paar mit der Standard-TTL.
func (c *LookupCache) Set(title, doi, journal string) {
	c.cache.SetDefault(lookupPrefix+":"+title, lookupResult{DOI: doi, Journal: journal})
}

// ItemCount gibt die Anzahl gespeicherter Einträge zurück.
func (c *LookupCache) ItemCount() int {
	return c.cache.ItemCount()
}

// cachedResolver schaltet den LookupCache vor einen BibliographicResolver.
type cachedResolver struct {
	inner BibliographicResolver
	cache *LookupCache
}

// WithLookupCache gibt inner unverändert zurück, wenn ttl <= 0 ist.
// Nur vollständige Treffer werden gecacht, damit ein kurzer Ausfall von Crossref nicht hängen bleibt.
func WithLookupCache(inner BibliographicResolver, ttl time.Duration, logger *zap.Logger) BibliographicResolver {
	if ttl <= 0 {
		return inner
	}
	return &cachedResolver{inner: inner, cache: NewLookupCache(ttl, logger)}
}

func (r *cachedResolver) Resolve(ctx context.Context, title string) (string, string) {
	if doi, journal, err := r.cache.Get(title); err == nil {
		return doi, journal
	}
	doi, journal := r.inner.Resolve(ctx, title)
	if doi != models.DOINotFound && journal != models.JournalNameNotFound {
		r.cache.Set(title, doi, journal)
	}
	return doi, journal
}
