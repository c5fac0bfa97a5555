package services

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeText fasst jede Whitespace-Folge (inkl. Zeilenumbrüche, Tabs, NBSP) zu einem
// einzelnen Leerzeichen zusammen und entfernt führende und abschließende Leerzeichen.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TextNormalizer normalisiert Titel und Autorennamen aus den Such-Providern.
type TextNormalizer struct {
	logger  *zap.Logger
	unicode bool
}

// NewTextNormalizer erstellt einen Normalizer. Mit normalizeUnicode wird zusätzlich NFC angewendet,
// damit gleiche Titel gleiche Lookup-Schlüssel ergeben.
func NewTextNormalizer(logger *zap.Logger, normalizeUnicode bool) *TextNormalizer {
	return &TextNormalizer{logger: logger, unicode: normalizeUnicode}
}

// Normalize wendet NFC (falls aktiviert) und danach das Whitespace-Collapsing an.
func (tn *TextNormalizer) Normalize(s string) string {
	if tn != nil && tn.unicode {
		s = tn.normalizeUnicode(s)
	}
	return NormalizeText(s)
}

// NormalizeAll normalisiert jeden Eintrag und verwirft Einträge, die danach leer sind.
func (tn *TextNormalizer) NormalizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if n := tn.Normalize(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func (tn *TextNormalizer) normalizeUnicode(s string) string {
	if norm.NFC.IsNormalString(s) {
		return s
	}
	normalized, _, err := transform.String(norm.NFC, s)
	if err != nil {
		tn.logger.Debug("NFC-Normalisierung fehlgeschlagen", zap.Error(err))
		return s
	}
	return normalized
}
