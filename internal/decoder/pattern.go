package decoder

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ascod-toast-classifier/internal/domain"
)

// StrategyPattern is the name recorded for results recovered by regex.
const StrategyPattern = "pattern"

var (
	// Grades and labels capture the whole token so that "D93" or "TOAST 5d"
	// reach the parsers intact and are rejected rather than truncated.
	ascodPattern     = regexp.MustCompile(`\bA(\d+)-S(\d+)-C(\d+)-O(\d+)-D(\d+)\b`)
	toastPattern     = regexp.MustCompile(`(?i)\bTOAST\s+(\d\w*)`)
	bareToastPattern = regexp.MustCompile(`^\s*(\d\w*)`)

	// Legacy Markdown report: "**A (Aterosclerose): Grau 1**" followed by
	// criteria and reasoning bullets, then the TOAST section.
	legacyBlockPatterns = map[domain.Category]*regexp.Regexp{}
	reasoningPattern    = regexp.MustCompile(`(?i)racioc[ií]nio\s*:?\**\s*:?\s*(.+)`)
	conclusionPattern   = regexp.MustCompile(`(?i)conclus[ãa]o\s*:?\**\s*:?\s*(.+)`)
	markdownNoise       = strings.NewReplacer("**", "", "*", "", "__", "")
)

func init() {
	for _, cat := range domain.Categories {
		legacyBlockPatterns[cat] = regexp.MustCompile(
			`(?s)\*\*\s*` + string(cat) + `\s*\([^)]*\)\s*:?\s*Grau\s*\d\s*\**(.*?)(?:\n\s*\*\s+\*\*\s*[ASCOD]\s*\(|---|\z)`)
	}
}

// PatternStrategy extracts compact codes from free-form text. Each half of
// the classification is optional; a response with neither code fails with a
// DecodeError wrapping domain.ErrNoCodes.
type PatternStrategy struct{}

// NewPatternStrategy creates the pattern extraction strategy
func NewPatternStrategy() *PatternStrategy {
	return &PatternStrategy{}
}

// Name returns the strategy name
func (p *PatternStrategy) Name() string {
	return StrategyPattern
}

// Decode extracts the first ASCOD code and the first TOAST label in raw.
func (p *PatternStrategy) Decode(raw string) (*domain.ClassificationResult, error) {
	profile, hasASCOD, err := matchASCOD(raw, raw)
	if err != nil {
		return nil, err
	}

	var toast *domain.ToastEntry
	if m := toastPattern.FindStringSubmatch(raw); m != nil {
		class, err := domain.ParseToastClass(m[1])
		if err != nil {
			return nil, domain.NewDecodeError("toast label", raw, err)
		}
		toast = &domain.ToastEntry{Class: class, Justification: legacyToastJustification(raw)}
	}

	if !hasASCOD && toast == nil {
		return nil, domain.NewDecodeError("no classification codes found", raw, domain.ErrNoCodes)
	}

	result := &domain.ClassificationResult{TOAST: toast, Strategy: StrategyPattern}
	if hasASCOD {
		result.ASCOD = profile
	}
	return result, nil
}

// matchASCOD finds the first ASCOD code in text and attaches any legacy
// justifications found in raw.
func matchASCOD(text, raw string) (*domain.ASCODProfile, bool, error) {
	m := ascodPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, false, nil
	}
	profile := domain.NewIncompleteProfile()
	for i, cat := range domain.Categories {
		grade, err := domain.ParseGrade(m[i+1])
		if err != nil {
			return nil, false, domain.NewDecodeError(fmt.Sprintf("category %s", cat), raw, err)
		}
		entry := domain.ASCODEntry{
			Category:      cat,
			Grade:         grade,
			Justification: legacyJustification(raw, cat),
		}
		if err := profile.Set(entry); err != nil {
			return nil, false, domain.NewDecodeError(fmt.Sprintf("category %s", cat), raw, err)
		}
	}
	return profile, true, nil
}

func legacyJustification(raw string, cat domain.Category) string {
	m := legacyBlockPatterns[cat].FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	block := m[1]
	if r := reasoningPattern.FindStringSubmatch(block); r != nil {
		return cleanMarkdown(r[1])
	}
	return cleanMarkdown(block)
}

func legacyToastJustification(raw string) string {
	if m := conclusionPattern.FindStringSubmatch(raw); m != nil {
		return cleanMarkdown(m[1])
	}
	return ""
}

func cleanMarkdown(s string) string {
	s = markdownNoise.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
