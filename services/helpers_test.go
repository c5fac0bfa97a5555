package services

import (
	"context"
	"sync"

	"scholar-export/models"
	"scholar-export/providers"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

// stubResolver gibt feste Werte zurück und zählt die Aufrufe.
type stubResolver struct {
	mu      sync.Mutex
	doi     string
	journal string
	calls   []string
}

func newMissResolver() *stubResolver {
	return &stubResolver{doi: models.DOINotFound, journal: models.NotAvailable}
}

func (r *stubResolver) Resolve(_ context.Context, title string) (string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, title)
	return r.doi, r.journal
}

func (r *stubResolver) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// stubProvider liefert eine feste Liste von Treffern, optional gefolgt von einem Fehler.
type stubProvider struct {
	records []*models.RawPublication
	failErr error
	opened  int
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Open(string) providers.Cursor {
	p.opened++
	return &stubCursor{records: p.records, failErr: p.failErr}
}

type stubCursor struct {
	records []*models.RawPublication
	failErr error
	pos     int
	pulled  int
}

func (c *stubCursor) Next(context.Context) (*models.RawPublication, error) {
	if c.pos >= len(c.records) {
		if c.failErr != nil {
			return nil, c.failErr
		}
		return nil, providers.ErrExhausted
	}
	r := c.records[c.pos]
	c.pos++
	c.pulled++
	return r, nil
}

func validRecord(title string, citations int) *models.RawPublication {
	return &models.RawPublication{
		Title:         strPtr(title),
		Authors:       []string{"Jane Doe"},
		HasAuthors:    true,
		Year:          2020,
		CitationCount: intPtr(citations),
		CitationURL:   "https://example.org/" + title,
	}
}
