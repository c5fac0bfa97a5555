package services

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"scholar-export/models"

	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"
)

const (
	CSVFilename    = "scholar_results.csv"
	XLSXFilename   = "scholar_results.xlsx"
	CSVContentType = "text/csv; charset=utf-8"
	// XLSXContentType ist der offizielle MIME-Typ für Office Open XML Tabellen.
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// XLSXSheetName ist der Name des einzigen Tabellenblatts.
	XLSXSheetName = "Results"
)

var (
	// ErrNoData: es wurde kein oder ein leerer Ergebnissatz übergeben.
	ErrNoData = errors.New("no data to download")
	// ErrMalformedPayload: der übergebene Ergebnissatz lässt sich nicht lesen.
	ErrMalformedPayload = errors.New("malformed results payload")
)

// Format ist ein unterstütztes Exportformat.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat liest das Format aus einem Request-Parameter. Leer bedeutet CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// Filename gibt den Dateinamen für den Download zurück.
func (f Format) Filename() string {
	if f == FormatXLSX {
		return XLSXFilename
	}
	return CSVFilename
}

// ContentType gibt den MIME-Typ für den Download zurück.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return XLSXContentType
	}
	return CSVContentType
}

// fieldKeys ordnet jedem Feld die akzeptierten Schlüssel zu: JSON-Name und Spaltenname.
var fieldKeys = struct {
	title, authors, mainAuthor, year, impact, url, citations, doi, journal, homepage []string
}{
	title:      []string{"title", "Title"},
	authors:    []string{"authors", "Authors"},
	mainAuthor: []string{"main_author", "Main Author"},
	year:       []string{"year", "Year"},
	impact:     []string{"impact_factor", "Impact Factor"},
	url:        []string{"citation_url", "Citation URL"},
	citations:  []string{"num_citations", "Number of Citations"},
	doi:        []string{"doi", "DOI"},
	journal:    []string{"journal_name", "Journal Name"},
	homepage:   []string{"journal_homepage", "Journal Homepage"},
}

// requiredFields sind die neun Exportspalten; jede Zeile muss alle enthalten.
var requiredFields = []struct {
	name string
	keys []string
}{
	{"title", fieldKeys.title},
	{"authors", fieldKeys.authors},
	{"main_author", fieldKeys.mainAuthor},
	{"year", fieldKeys.year},
	{"impact_factor", fieldKeys.impact},
	{"citation_url", fieldKeys.url},
	{"num_citations", fieldKeys.citations},
	{"doi", fieldKeys.doi},
	{"journal_name", fieldKeys.journal},
}

// ParsePayload liest den vom Client zurückgeschickten Ergebnissatz. Akzeptiert wird ein Array
// von Zeilen oder ein Objekt {"results": [...]}. Lose Typen (z.B. "50" statt 50) werden toleriert.
// Der Impact-Wert wird mit scorer aus der Zitationszahl neu berechnet, der mitgeschickte Wert zählt nicht.
func ParsePayload(raw string, scorer ImpactScorer) (models.ResultSet, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrNoData
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	var extra any
	if err := dec.Decode(&extra); err != io.EOF {
		return nil, fmt.Errorf("%w: unexpected data after payload", ErrMalformedPayload)
	}
	return parseRows(v, scorer)
}

func parseRows(v any, scorer ImpactScorer) (models.ResultSet, error) {
	var items []any
	switch t := v.(type) {
	case nil:
		return nil, ErrNoData
	case []any:
		items = t
	case map[string]any:
		inner, ok := t["results"]
		if !ok || inner == nil {
			return nil, ErrNoData
		}
		// Das Formular kann die Liste auch als JSON-String verschachteln.
		if s, ok := inner.(string); ok {
			return ParsePayload(s, scorer)
		}
		list, ok := inner.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: results must be a list", ErrMalformedPayload)
		}
		items = list
	default:
		return nil, fmt.Errorf("%w: expected a list of rows", ErrMalformedPayload)
	}

	if len(items) == 0 {
		return nil, ErrNoData
	}

	rows := make(models.ResultSet, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: row %d is not an object", ErrMalformedPayload, i)
		}
		row, err := rowFromMap(m, scorer)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedPayload, i, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func rowFromMap(m map[string]any, scorer ImpactScorer) (models.EnrichedRow, error) {
	for _, f := range requiredFields {
		if !hasKey(m, f.keys) {
			return models.EnrichedRow{}, fmt.Errorf("field %s is missing", f.name)
		}
	}

	title := NormalizeText(lookupString(m, fieldKeys.title))
	if title == "" {
		return models.EnrichedRow{}, errors.New("title is empty")
	}
	citations, err := cast.ToIntE(normalizeNumber(lookup(m, fieldKeys.citations)))
	if err != nil {
		return models.EnrichedRow{}, fmt.Errorf("number of citations: %w", err)
	}
	if citations < 0 {
		return models.EnrichedRow{}, fmt.Errorf("number of citations must not be negative, got %d", citations)
	}

	return models.EnrichedRow{
		Title:           title,
		Authors:         lookupString(m, fieldKeys.authors),
		MainAuthor:      orSentinel(lookupString(m, fieldKeys.mainAuthor), models.NotAvailable),
		Year:            orSentinel(lookupString(m, fieldKeys.year), models.NotAvailable),
		ImpactFactor:    scorer.Score(citations),
		CitationURL:     lookupString(m, fieldKeys.url),
		CitationCount:   citations,
		DOI:             orSentinel(lookupString(m, fieldKeys.doi), models.DOINotFound),
		JournalName:     orSentinel(lookupString(m, fieldKeys.journal), models.NotAvailable),
		JournalHomepage: lookupString(m, fieldKeys.homepage),
	}, nil
}

func hasKey(m map[string]any, keys []string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

func orSentinel(s, sentinel string) string {
	if s == "" {
		return sentinel
	}
	return s
}

func lookup(m map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func lookupString(m map[string]any, keys []string) string {
	return strings.TrimSpace(cast.ToString(normalizeNumber(lookup(m, keys))))
}

// normalizeNumber wandelt json.Number und leere Strings in Werte um, die cast versteht.
func normalizeNumber(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		return strings.TrimSpace(t)
	}
	return v
}

// WriteCSV schreibt Kopfzeile und Zeilen als UTF-8 CSV.
func WriteCSV(w io.Writer, rows models.ResultSet) error {
	if len(rows) == 0 {
		return ErrNoData
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(models.ColumnHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row.Record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX schreibt Kopfzeile und Zeilen in das Blatt "Results" einer XLSX-Datei.
func WriteXLSX(w io.Writer, rows models.ResultSet) error {
	if len(rows) == 0 {
		return ErrNoData
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", XLSXSheetName); err != nil {
		return err
	}

	header := make([]interface{}, len(models.ColumnHeader))
	for i, h := range models.ColumnHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(XLSXSheetName, "A1", &header); err != nil {
		return err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			row.Title,
			row.Authors,
			row.MainAuthor,
			row.Year,
			row.ImpactFactor,
			row.CitationURL,
			row.CitationCount,
			row.DOI,
			row.JournalName,
		}
		if err := f.SetSheetRow(XLSXSheetName, cell, &values); err != nil {
			return err
		}
	}
	return f.Write(w)
}

// Write schreibt rows im gewünschten Format.
func Write(w io.Writer, format Format, rows models.ResultSet) error {
	switch format {
	case FormatXLSX:
		return WriteXLSX(w, rows)
	default:
		return WriteCSV(w, rows)
	}
}

// Render schreibt rows in einen Puffer, damit bei Fehlern keine halbe Datei ausgeliefert wird.
func Render(format Format, rows models.ResultSet) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, format, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
