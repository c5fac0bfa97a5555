package semanticscholar

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"scholar-export/config"
	"scholar-export/httpclient"
	"scholar-export/models"
	"scholar-export/providers"

	"go.uber.org/zap"
)

const searchFields = "title,authors,year,citationCount,url,openAccessPdf"

// Fetcher implementiert das SearchProvider-Interface für die Semantic Scholar Graph API.
type Fetcher struct {
	Config *config.Config
	Logger *zap.Logger
	Client *httpclient.Client
}

// NewFetcher erstellt einen neuen Semantic Scholar Fetcher.
func NewFetcher(cfg *config.Config, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		Config: cfg,
		Logger: logger,
		Client: httpclient.New(cfg.HTTPTimeout, cfg.SearchRPS, cfg.HTTPMaxRetries, cfg.UserAgent, logger),
	}
}

// Name gibt den Namen des Providers zurück.
func (f *Fetcher) Name() string {
	return "semanticscholar"
}

// Open startet eine neue Suche. Es wird erst beim ersten Next eine Seite geladen.
func (f *Fetcher) Open(query string) providers.Cursor {
	return &cursor{
		fetcher: f,
		query:   query,
		log:     f.Logger.With(zap.String("provider", f.Name()), zap.String("query", query)),
	}
}

// Ping prüft, ob die Graph API erreichbar ist.
func (f *Fetcher) Ping(ctx context.Context) error {
	_, err := f.Client.Get(ctx, f.searchURL("test", 0, 1), f.header())
	return err
}

func (f *Fetcher) searchURL(query string, offset, limit int) string {
	params := url.Values{}
	params.Set("query", query)
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("fields", searchFields)
	return fmt.Sprintf("%s/paper/search?%s", strings.TrimRight(f.Config.SemanticScholarBaseURL, "/"), params.Encode())
}

func (f *Fetcher) header() http.Header {
	h := http.Header{}
	if f.Config.SemanticScholarAPIKey != "" {
		h.Set("x-api-key", f.Config.SemanticScholarAPIKey)
	}
	return h
}

// cursor blättert per offset/limit durch die Trefferliste.
type cursor struct {
	fetcher *Fetcher
	query   string
	log     *zap.Logger

	offset int
	buf    []Paper
	done   bool
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
	p := c.buf[0]
	c.buf = c.buf[1:]
	return mapPaperToModel(&p), nil
}

func (c *cursor) loadPage(ctx context.Context) error {
	pageSize := c.fetcher.Config.SearchPageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	searchURL := c.fetcher.searchURL(c.query, c.offset, pageSize)
	c.log.Debug("Rufe Semantic Scholar API auf", zap.String("url", searchURL))

	var resp SearchResponse
	if err := c.fetcher.Client.GetJSON(ctx, searchURL, c.fetcher.header(), &resp); err != nil {
		return fmt.Errorf("semantic scholar search failed: %w", err)
	}

	c.buf = resp.Data
	prev := c.offset
	c.offset += len(resp.Data)
	switch {
	case len(resp.Data) == 0 || resp.Next == nil:
		c.done = true
	case *resp.Next <= prev:
		// next muss vorwärts zeigen, sonst käme dieselbe Seite endlos wieder.
		c.log.Warn("Semantic Scholar lieferte kein fortschreitendes next, beende Suche.",
			zap.Int("offset", prev), zap.Int("next", *resp.Next))
		c.done = true
	default:
		c.offset = *resp.Next
	}
	c.log.Debug("Seite geladen", zap.Int("count", len(resp.Data)), zap.Int("total", resp.Total))
	return nil
}

// mapPaperToModel konvertiert einen Treffer in unser internes Rohmodell.
func mapPaperToModel(p *Paper) *models.RawPublication {
	raw := &models.RawPublication{
		Title:         p.Title,
		HasAuthors:    p.Authors != nil,
		CitationCount: p.CitationCount,
		CitationURL:   p.URL,
		Source:        "semanticscholar",
	}
	for _, a := range p.Authors {
		raw.Authors = append(raw.Authors, a.Name)
	}
	if raw.HasAuthors && raw.Authors == nil {
		raw.Authors = []string{}
	}
	if p.Year != nil {
		raw.Year = *p.Year
	}
	if p.OpenAccessPDF != nil {
		raw.EprintURL = p.OpenAccessPDF.URL
	}
	return raw
}
