package services

import (
	"context"
	"errors"

	"scholar-export/metrics"
	"scholar-export/models"
	"scholar-export/providers"

	"go.uber.org/zap"
)

// ErrEmptyQuery wird zurückgegeben, wenn keine Suchanfrage übergeben wurde.
var ErrEmptyQuery = errors.New("query must not be empty")

// DefaultMaxResults gilt, wenn weder Aufrufer noch Konfiguration ein Maximum setzen.
const DefaultMaxResults = 10

// Pipeline kümmert sich um den Ablauf einer Suche: Cursor öffnen, Treffer anreichern, bei max stoppen.
type Pipeline struct {
	Provider   providers.SearchProvider
	Enricher   *Enricher
	Logger     *zap.Logger
	DefaultMax int
}

// NewPipeline erstellt eine neue Pipeline.
func NewPipeline(provider providers.SearchProvider, enricher *Enricher, logger *zap.Logger, defaultMax int) *Pipeline {
	return &Pipeline{Provider: provider, Enricher: enricher, Logger: logger, DefaultMax: defaultMax}
}

// Run führt eine Suche aus und liefert höchstens maxResults angereicherte Zeilen in Quellreihenfolge.
// Übersprungene Datensätze zählen nicht gegen maxResults. Fällt die Suche mittendrin aus,
// werden die bis dahin gesammelten Zeilen ohne Fehler zurückgegeben.
func (p *Pipeline) Run(ctx context.Context, query string, maxResults int) (models.ResultSet, error) {
	query = NormalizeText(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if maxResults <= 0 {
		maxResults = p.DefaultMax
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	log := p.Logger.With(
		zap.String("provider", p.Provider.Name()),
		zap.String("query", query),
		zap.Int("max", maxResults),
	)
	log.Info("Starte Suche.")
	metrics.SearchesTotal.Inc()

	// Jeder Lauf bekommt seinen eigenen Cursor.
	cursor := p.Provider.Open(query)
	rows := make(models.ResultSet, 0, maxResults)
	skipped := 0

	for len(rows) < maxResults {
		if err := ctx.Err(); err != nil {
			log.Warn("Suche abgebrochen, liefere Teilergebnis.", zap.Error(err), zap.Int("rows", len(rows)))
			break
		}
		raw, err := cursor.Next(ctx)
		if errors.Is(err, providers.ErrExhausted) {
			break
		}
		if err != nil {
			log.Warn("Suche vorzeitig beendet, liefere Teilergebnis.", zap.Error(err), zap.Int("rows", len(rows)))
			break
		}

		row, err := p.Enricher.Enrich(ctx, raw)
		if err != nil {
			skipped++
			p.logSkip(log, raw, err)
			continue
		}
		rows = append(rows, row)
		metrics.RowsEnrichedTotal.Inc()
	}

	log.Info("Suche abgeschlossen.", zap.Int("rows", len(rows)), zap.Int("skipped", skipped))
	return rows, nil
}

func (p *Pipeline) logSkip(log *zap.Logger, raw *models.RawPublication, err error) {
	reason := "other"
	switch {
	case errors.Is(err, ErrMissingField):
		reason = "missing_field"
	case errors.Is(err, ErrRecordPanic):
		reason = "panic"
	}
	metrics.RecordsSkippedTotal.WithLabelValues(reason).Inc()
	log.Warn("Record skipped",
		zap.String("title", raw.TitleOrEmpty()),
		zap.String("reason", reason),
		zap.Error(err))
}
