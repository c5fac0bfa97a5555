package models

import (
	"strconv"
	"strings"
)

// Platzhalter für Felder, die bewusst nicht verfügbar sind.
const (
	NotAvailable        = "N/A"
	DOINotFound         = "DOI not found"
	JournalNameNotFound = "Journal name not found"
)

// RawPublication ist ein ungeprüfter Treffer eines Such-Providers (Semantic Scholar, OpenAlex).
// Er lebt nur so lange, bis der Enricher daraus eine Zeile gebaut hat.
type RawPublication struct {
	// Title ist nil, wenn der Provider gar keinen Titel geliefert hat.
	Title *string
	// Authors in Quellreihenfolge. HasAuthors unterscheidet "keine Liste" von "leere Liste".
	Authors    []string
	HasAuthors bool
	// Year ist string, Zahl oder nil – so wie die Quelle es liefert.
	Year          any
	CitationCount *int
	CitationURL   string
	// EprintURL ist der frei zugängliche Volltext-Link, falls vorhanden.
	EprintURL string
	Source    string
}

// TitleOrEmpty gibt den Titel oder "" zurück.
func (p *RawPublication) TitleOrEmpty() string {
	if p == nil || p.Title == nil {
		return ""
	}
	return *p.Title
}

// EnrichedRow ist eine fertige Ergebniszeile. Alle Felder sind immer befüllt,
// fehlende Daten werden durch die Platzhalter oben ersetzt.
type EnrichedRow struct {
	Title         string  `json:"title"`
	Authors       string  `json:"authors"`
	MainAuthor    string  `json:"main_author"`
	Year          string  `json:"year"`
	ImpactFactor  float64 `json:"impact_factor"`
	CitationURL   string  `json:"citation_url"`
	CitationCount int     `json:"num_citations"`
	DOI           string  `json:"doi"`
	JournalName   string  `json:"journal_name"`

	// JournalHomepage (scheme://host der Eprint-URL) steht nur in der JSON-Antwort, nicht im Export.
	JournalHomepage string `json:"journal_homepage,omitempty"`
}

// ResultSet ist die geordnete Trefferliste einer Suche (Reihenfolge der Quelle, keine Deduplizierung).
type ResultSet []EnrichedRow

// ColumnHeader ist die feste Kopfzeile des Exports, in Feldreihenfolge.
var ColumnHeader = []string{
	"Title",
	"Authors",
	"Main Author",
	"Year",
	"Impact Factor",
	"Citation URL",
	"Number of Citations",
	"DOI",
	"Journal Name",
}

// Record gibt die Zeile als Textfelder in der Reihenfolge von ColumnHeader zurück.
func (r EnrichedRow) Record() []string {
	return []string{
		r.Title,
		r.Authors,
		r.MainAuthor,
		r.Year,
		FormatImpact(r.ImpactFactor),
		r.CitationURL,
		strconv.Itoa(r.CitationCount),
		r.DOI,
		r.JournalName,
	}
}

// FormatImpact rendert den Impact-Wert mit mindestens einer Nachkommastelle ("5.0", "0.123").
func FormatImpact(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
