package narrative

import (
	"fmt"

	"github.com/ascod-toast-classifier/internal/domain"
)

// Band is a closed interval of percentage values sharing one phrase.
type Band struct {
	Min    int
	Max    int
	Name   string
	Hint   domain.Grade // grade the band suggests, 0 when none
	format string       // phrase template taking the value, empty for no phrase
}

// Contains reports whether v falls inside the band.
func (b Band) Contains(v int) bool {
	return v >= b.Min && v <= b.Max
}

// Phrase renders the band's phrase for v, or false when the band is not a finding.
func (b Band) Phrase(v int) (string, bool) {
	if b.format == "" {
		return "", false
	}
	return fmt.Sprintf(b.format, v), true
}

// StenosisBands partitions ipsilateral stenosis percentages.
var StenosisBands = []Band{
	{Min: 0, Max: 0, Name: "none"},
	{Min: 1, Max: 29, Name: "mild", Hint: domain.GradeUncertain,
		format: "Estenose arterial ipsilateral leve de %d%% (<30%%, sugestivo de A2)"},
	{Min: 30, Max: 49, Name: "moderate", Hint: domain.GradeUncertain,
		format: "Estenose arterial ipsilateral moderada de %d%% (30-49%%, sugestivo de A2)"},
	{Min: 50, Max: 100, Name: "significant", Hint: domain.GradeCausal,
		format: "Estenose arterial ipsilateral de %d%% (≥50%%, sugestivo de A1)"},
}

// EjectionFractionBands partitions left ventricular ejection fraction values.
var EjectionFractionBands = []Band{
	{Min: 0, Max: 34, Name: "severely reduced", Hint: domain.GradeCausal,
		format: "Fração de ejeção do VE de %d%% (<35%%, sugestivo de C1)"},
	{Min: 35, Max: 49, Name: "reduced", Hint: domain.GradeUncertain,
		format: "Fração de ejeção do VE de %d%% (35-49%%, sugestivo de C2)"},
	{Min: 50, Max: 100, Name: "preserved",
		format: "Fração de ejeção do VE preservada (%d%%)"},
}

func bandFor(bands []Band, v int) (Band, bool) {
	for _, b := range bands {
		if b.Contains(v) {
			return b, true
		}
	}
	return Band{}, false
}

// ClassifyStenosis returns the stenosis band containing pct.
func ClassifyStenosis(pct int) (Band, bool) {
	return bandFor(StenosisBands, pct)
}

// ClassifyEjectionFraction returns the LVEF band containing pct.
func ClassifyEjectionFraction(pct int) (Band, bool) {
	return bandFor(EjectionFractionBands, pct)
}
