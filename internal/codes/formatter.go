// Package codes renders decoded classifications as compact codes.
package codes

import (
	"strings"

	"github.com/ascod-toast-classifier/internal/domain"
)

// Formatter builds DecodedCodes. It is the only place codes are derived.
type Formatter struct{}

// NewFormatter creates a code formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// Format returns "A#-S#-C#-O#-D#" and "TOAST #". A missing half yields an
// empty code; a grade outside the ASCOD scale is rendered as 9.
func (f *Formatter) Format(result *domain.ClassificationResult) domain.DecodedCodes {
	var codes domain.DecodedCodes
	if result == nil {
		return codes
	}
	if result.ASCOD != nil {
		codes.ASCOD = FormatASCOD(result.ASCOD)
	}
	if result.TOAST != nil && result.TOAST.Class.IsValid() {
		codes.TOAST = result.TOAST.Class.Code()
	}
	return codes
}

// FormatASCOD renders a profile in canonical category order.
func FormatASCOD(p *domain.ASCODProfile) string {
	parts := make([]string, 0, len(domain.Categories))
	for _, cat := range domain.Categories {
		g := p.Get(cat).Grade
		if !g.IsValid() {
			g = domain.GradeIncomplete
		}
		parts = append(parts, string(cat)+g.String())
	}
	return strings.Join(parts, "-")
}
