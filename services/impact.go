package services

import "math"

// DefaultImpactFactorBase ist der Teiler, wenn keine gültige Basis konfiguriert ist.
const DefaultImpactFactorBase = 10.0

// ImpactScorer berechnet den lokalen Impact-Wert: Zitationen / Base, auf 3 Nachkommastellen gerundet.
// Das ist kein Journal Impact Factor, sondern nur eine grobe Kennzahl pro Paper.
type ImpactScorer struct {
	Base float64
}

// NewImpactScorer erstellt einen Scorer; eine nicht-positive Basis fällt auf 10 zurück.
func NewImpactScorer(base float64) ImpactScorer {
	if base <= 0 || math.IsNaN(base) || math.IsInf(base, 0) {
		base = DefaultImpactFactorBase
	}
	return ImpactScorer{Base: base}
}

// Score gibt round(citations/Base, 3) zurück. Negative Werte werden als 0 behandelt.
func (s ImpactScorer) Score(citations int) float64 {
	if citations <= 0 {
		return 0
	}
	base := s.Base
	if base <= 0 {
		base = DefaultImpactFactorBase
	}
	return math.Round(float64(citations)/base*1000) / 1000
}
