package providers

import (
	"context"
	"errors"

	"scholar-export/models"
)

// ErrExhausted signalisiert, dass ein Cursor keine weiteren Treffer liefert.
var ErrExhausted = errors.New("search results exhausted")

// SearchProvider ist das Interface, das jeder Such-Provider (z.B. Semantic Scholar, OpenAlex) implementieren muss.
type SearchProvider interface {
	// Name gibt den eindeutigen Namen des Providers zurück (z.B. "openalex").
	Name() string

	// Open startet eine neue Suche. Der Cursor gehört genau einem Aufrufer und wird nie geteilt.
	Open(query string) Cursor
}

// Cursor liefert Treffer einzeln und lädt Seiten erst bei Bedarf nach.
// Nach dem letzten Treffer gibt Next ErrExhausted zurück.
type Cursor interface {
	Next(ctx context.Context) (*models.RawPublication, error)
}
