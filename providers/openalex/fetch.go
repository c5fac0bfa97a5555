package openalex

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"scholar-export/config"
	"scholar-export/httpclient"
	"scholar-export/models"
	"scholar-export/providers"

	"go.uber.org/zap"
)

// Fetcher implementiert das SearchProvider-Interface für OpenAlex.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
	Client *httpclient.Client
}

// NewFetcher erstellt einen neuen OpenAlex Fetcher.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		Config: cfg,
		Logger: logger,
		Client: httpclient.New(cfg.HTTPTimeout, cfg.SearchRPS, cfg.HTTPMaxRetries, cfg.UserAgent, logger),
	}
}

// Name gibt den Namen des Providers zurück.
func (f *Fetcher) Name() string {
	return "openalex"
}

// Open startet eine neue Suche.
func (f *Fetcher) Open(query string) providers.Cursor {
	return &cursor{
		fetcher: f,
		query:   query,
		log:     f.Logger.With(zap.String("provider", f.Name()), zap.String("query", query)),
	}
}

// Ping prüft, ob OpenAlex erreichbar ist.
func (f *Fetcher) Ping(ctx context.Context) error {
	_, err := f.Client.Get(ctx, f.worksURL("test", 1, 1), nil)
	return err
}

func (f *Fetcher) worksURL(query string, page, perPage int) string {
	params := url.Values{}
	params.Set("search", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))
	if f.Config.OpenAlexEmail != "" {
		params.Set("mailto", f.Config.OpenAlexEmail)
	}
	return fmt.Sprintf("%s/works?%s", strings.TrimRight(f.Config.OpenAlexBaseURL, "/"), params.Encode())
}

// cursor blättert seitenweise (page/per_page) durch die Treffer.
type cursor struct {
	fetcher *Fetcher
	query   string
	log     *zap.Logger

	page int
	seen int
	buf  []Work
	done bool
}

func (c *cursor) Next(ctx context.Context) (*models.RawPublication, error) {
	for len(c.buf) == 0 {
		if c.done {
			return nil, providers.ErrExhausted
		}
		if err := c.loadPage(ctx); err != nil {
			return nil, err
		}
	}
	w := c.buf[0]
	c.buf = c.buf[1:]
	return mapWorkToModel(&w), nil
}

func (c *cursor) loadPage(ctx context.Context) error {
	perPage := c.fetcher.Config.SearchPageSize
	if perPage <= 0 {
		perPage = 20
	}
	c.page++
	worksURL := c.fetcher.worksURL(c.query, c.page, perPage)
	c.log.Debug("Rufe OpenAlex API auf", zap.String("url", worksURL))

	var resp WorksResponse
	if err := c.fetcher.Client.GetJSON(ctx, worksURL, nil, &resp); err != nil {
		return fmt.Errorf("openalex search failed: %w", err)
	}

	c.buf = resp.Results
	c.seen += len(resp.Results)
	// Ohne meta.count entscheidet allein die Seitengröße über das Ende.
	if len(resp.Results) < perPage || (resp.Meta.Count > 0 && c.seen >= resp.Meta.Count) {
		c.done = true
	}
	c.log.Debug("Seite geladen", zap.Int("page", c.page), zap.Int("count", len(resp.Results)))
	return nil
}

// mapWorkToModel konvertiert ein OpenAlex-Werk in unser internes Rohmodell.
func mapWorkToModel(w *Work) *models.RawPublication {
	raw := &models.RawPublication{
		Title:         w.DisplayName,
		HasAuthors:    w.Authorships != nil,
		CitationCount: w.CitedByCount,
		CitationURL:   w.ID,
		Source:        "openalex",
	}
	for _, a := range w.Authorships {
		if name := a.Author.DisplayName; name != "" {
			raw.Authors = append(raw.Authors, name)
		}
	}
	if raw.HasAuthors && raw.Authors == nil {
		raw.Authors = []string{}
	}
	if w.PublicationYear != nil {
		raw.Year = *w.PublicationYear
	}
	if w.PrimaryLocation != nil && w.PrimaryLocation.LandingPageURL != "" {
		raw.CitationURL = w.PrimaryLocation.LandingPageURL
	}
	if w.OpenAccess != nil {
		raw.EprintURL = w.OpenAccess.OAURL
	}
	return raw
}
