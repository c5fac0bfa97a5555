package crossref

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"scholar-export/config"
	"scholar-export/httpclient"
	"scholar-export/metrics"
	"scholar-export/models"

	"go.uber.org/zap"
)

// Resolver löst Titel zu DOIs und DOIs zu Journalnamen über die Crossref REST API auf.
// Fehlschläge werden nie als Fehler gemeldet, sondern durch Platzhalter ersetzt.
type Resolver struct {
	Config *config.Config
	Logger *zap.Logger
	Client *httpclient.Client
}

// NewResolver erstellt einen neuen Crossref-Resolver mit eigenem Rate-Limit.
func NewResolver(cfg *config.Config, logger *zap.Logger) *Resolver {
	return &Resolver{
		Config: cfg,
		Logger: logger,
		Client: httpclient.New(cfg.HTTPTimeout, cfg.CrossrefRPS, cfg.HTTPMaxRetries, cfg.UserAgent, logger),
	}
}

// Name gibt den Namen des Upstreams zurück.
func (r *Resolver) Name() string {
	return "crossref"
}

// ResolveIdentifier sucht den besten Crossref-Treffer für einen Titel und gibt dessen DOI zurück.
func (r *Resolver) ResolveIdentifier(ctx context.Context, title string) (string, bool) {
	params := url.Values{}
	params.Set("query.bibliographic", title)
	params.Set("rows", "1")
	r.addMailto(params)
	searchURL := fmt.Sprintf("%s/works?%s", strings.TrimRight(r.Config.CrossrefBaseURL, "/"), params.Encode())

	log := r.Logger.With(zap.String("title", title))
	log.Debug("Rufe Crossref API für DOI auf.", zap.String("url", searchURL))

	var resp WorksResponse
	if err := r.Client.GetJSON(ctx, searchURL, nil, &resp); err != nil {
		log.Warn("DOI-Lookup fehlgeschlagen.", zap.Error(err))
		return "", false
	}
	if len(resp.Message.Items) == 0 {
		log.Debug("Kein Crossref-Treffer für Titel.")
		return "", false
	}
	doi := strings.TrimSpace(resp.Message.Items[0].DOI)
	if doi == "" {
		log.Debug("Crossref-Treffer ohne DOI.")
		return "", false
	}
	return doi, true
}

// ResolveVenue holt den Journalnamen (container-title) zu einer DOI.
func (r *Resolver) ResolveVenue(ctx context.Context, doi string) (string, bool) {
	workURL := fmt.Sprintf("%s/works/%s", strings.TrimRight(r.Config.CrossrefBaseURL, "/"), escapeDOI(doi))
	if r.Config.CrossrefMailto != "" {
		workURL += "?mailto=" + url.QueryEscape(r.Config.CrossrefMailto)
	}

	log := r.Logger.With(zap.String("doi", doi))
	log.Debug("Rufe Crossref API für Journal auf.", zap.String("url", workURL))

	var resp WorkResponse
	if err := r.Client.GetJSON(ctx, workURL, nil, &resp); err != nil {
		log.Warn("Journal-Lookup fehlgeschlagen.", zap.Error(err))
		return "", false
	}
	for _, name := range resp.Message.ContainerTitle {
		if name = strings.TrimSpace(name); name != "" {
			return name, true
		}
	}
	log.Debug("Kein container-title in Crossref-Antwort.")
	return "", false
}

// Resolve kombiniert beide Lookups. Ohne DOI gibt es keinen Journal-Lookup,
// das Ergebnis ist dann ("DOI not found", "N/A").
func (r *Resolver) Resolve(ctx context.Context, title string) (doi, journal string) {
	doi, ok := r.ResolveIdentifier(ctx, title)
	if !ok {
		metrics.LookupMissesTotal.WithLabelValues("doi").Inc()
		return models.DOINotFound, models.NotAvailable
	}
	journal, ok = r.ResolveVenue(ctx, doi)
	if !ok {
		metrics.LookupMissesTotal.WithLabelValues("journal").Inc()
		return doi, models.JournalNameNotFound
	}
	return doi, journal
}

// Ping prüft, ob die Crossref API erreichbar ist.
func (r *Resolver) Ping(ctx context.Context) error {
	params := url.Values{}
	params.Set("rows", "0")
	r.addMailto(params)
	_, err := r.Client.Get(ctx, fmt.Sprintf("%s/works?%s", strings.TrimRight(r.Config.CrossrefBaseURL, "/"), params.Encode()), http.Header{})
	return err
}

func (r *Resolver) addMailto(params url.Values) {
	if r.Config.CrossrefMailto != "" {
		params.Set("mailto", r.Config.CrossrefMailto)
	}
}

// escapeDOI maskiert die Segmente einer DOI, der Schrägstrich zwischen Präfix und Suffix bleibt erhalten.
func escapeDOI(doi string) string {
	parts := strings.Split(doi, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
