package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"scholar-export/models"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

var (
	// ErrMissingField kennzeichnet einen Rohdatensatz ohne Titel oder ohne Autorenliste.
	ErrMissingField = errors.New("required field missing")
	// ErrRecordPanic kennzeichnet einen Datensatz, dessen Verarbeitung abgestürzt ist.
	ErrRecordPanic = errors.New("record processing panicked")
)

// SkipError besagt, dass ein einzelner Datensatz übersprungen wird. Der Batch läuft weiter.
type SkipError struct {
	Title  string
	Reason string
	Err    error
}

func (e *SkipError) Error() string {
	if e.Title == "" {
		return fmt.Sprintf("record skipped: %s", e.Reason)
	}
	return fmt.Sprintf("record %q skipped: %s", e.Title, e.Reason)
}

func (e *SkipError) Unwrap() error {
	return e.Err
}

// BibliographicResolver löst einen Titel zu DOI und Journalname auf. Fehlschläge kommen als Platzhalter zurück.
type BibliographicResolver interface {
	Resolve(ctx context.Context, title string) (doi, journal string)
}

// Enricher macht aus einem Rohdatensatz genau eine Ergebniszeile.
type Enricher struct {
	Normalizer *TextNormalizer
	Scorer     ImpactScorer
	Resolver   BibliographicResolver
	Logger     *zap.Logger
}

// NewEnricher erstellt einen neuen Enricher.
func NewEnricher(normalizer *TextNormalizer, scorer ImpactScorer, resolver BibliographicResolver, logger *zap.Logger) *Enricher {
	return &Enricher{Normalizer: normalizer, Scorer: scorer, Resolver: resolver, Logger: logger}
}

// Enrich baut eine EnrichedRow. Fehlt der Titel oder die Autorenliste, kommt ein *SkipError zurück.
// Ein Panic während der Verarbeitung wird ebenfalls in einen *SkipError umgewandelt.
func (e *Enricher) Enrich(ctx context.Context, raw *models.RawPublication) (row models.EnrichedRow, err error) {
	defer func() {
		if r := recover(); r != nil {
			row = models.EnrichedRow{}
			err = &SkipError{
				Title:  raw.TitleOrEmpty(),
				Reason: fmt.Sprintf("unexpected failure: %v", r),
				Err:    fmt.Errorf("%w: %v", ErrRecordPanic, r),
			}
		}
	}()

	if raw == nil {
		return models.EnrichedRow{}, &SkipError{Reason: "empty record", Err: ErrMissingField}
	}

	title := e.Normalizer.Normalize(raw.TitleOrEmpty())
	if title == "" {
		return models.EnrichedRow{}, &SkipError{Reason: "missing title", Err: ErrMissingField}
	}
	if !raw.HasAuthors {
		return models.EnrichedRow{}, &SkipError{Title: title, Reason: "missing author list", Err: ErrMissingField}
	}

	authors := e.Normalizer.NormalizeAll(raw.Authors)
	mainAuthor := models.NotAvailable
	if len(authors) > 0 {
		mainAuthor = authors[0]
	}

	citations := 0
	if raw.CitationCount != nil && *raw.CitationCount > 0 {
		citations = *raw.CitationCount
	}

	row = models.EnrichedRow{
		Title:           title,
		Authors:         strings.Join(authors, ", "),
		MainAuthor:      mainAuthor,
		Year:            formatYear(raw.Year),
		ImpactFactor:    e.Scorer.Score(citations),
		CitationURL:     strings.TrimSpace(raw.CitationURL),
		CitationCount:   citations,
		JournalHomepage: journalHomepage(raw.EprintURL),
	}
	row.DOI, row.JournalName = e.Resolver.Resolve(ctx, title)
	return row, nil
}

// formatYear rendert Zahlen als Dezimaltext, übernimmt Text unverändert und ersetzt Fehlendes durch "N/A".
func formatYear(v any) string {
	if v == nil {
		return models.NotAvailable
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return models.NotAvailable
	}
	if s = NormalizeText(s); s == "" {
		return models.NotAvailable
	}
	return s
}

// journalHomepage gibt scheme://host einer URL zurück oder "", wenn sie keinen Host hat.
func journalHomepage(eprint string) string {
	u, err := url.Parse(strings.TrimSpace(eprint))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
