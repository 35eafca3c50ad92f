package decoder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ascod-toast-classifier/internal/domain"
)

// StrategyStructured is the name recorded for results parsed from a JSON document.
const StrategyStructured = "structured"

var (
	fencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\n?(.*?)```")

	gradeKeys         = []string{"grade", "grau"}
	justificationKeys = []string{"justification", "justificativa", "raciocinio", "rationale", "reason"}
	toastClassKeys    = []string{"classification", "classificacao", "class", "classe", "code"}
)

// StructuredStrategy decodes the JSON document the rulebook asks for. It
// tolerates Markdown fences and prose around the document.
type StructuredStrategy struct{}

// NewStructuredStrategy creates the structured-document strategy
func NewStructuredStrategy() *StructuredStrategy {
	return &StructuredStrategy{}
}

// Name returns the strategy name
func (s *StructuredStrategy) Name() string {
	return StrategyStructured
}

// Decode parses raw. A response that holds no usable document fails with a
// DecodeError wrapping domain.ErrNotStructured.
func (s *StructuredStrategy) Decode(raw string) (*domain.ClassificationResult, error) {
	doc, ok := extractDocument(raw)
	if !ok {
		return nil, domain.NewDecodeError("no JSON object found", raw, domain.ErrNotStructured)
	}

	ascodValue, hasASCOD := lookupKey(doc, "ascod")
	toastValue, hasTOAST := lookupKey(doc, "toast")
	if !hasASCOD && !hasTOAST {
		return nil, domain.NewDecodeError("JSON object has neither ascod nor toast", raw, domain.ErrNotStructured)
	}

	profile, err := decodeProfile(ascodValue, raw)
	if err != nil {
		return nil, err
	}
	toast, err := decodeToast(toastValue, raw)
	if err != nil {
		return nil, err
	}

	return &domain.ClassificationResult{
		ASCOD:    profile,
		TOAST:    toast,
		Strategy: StrategyStructured,
	}, nil
}

// extractDocument finds the JSON object carrying the classification, looking
// inside code fences first and then in the whole text. Spans that fail to
// parse are skipped, so stray braces in prose do not hide the document. When
// no object has an ascod or toast key the first parsable one is returned.
func extractDocument(raw string) (map[string]interface{}, bool) {
	candidates := make([]string, 0, 2)
	for _, m := range fencePattern.FindAllStringSubmatch(raw, -1) {
		candidates = append(candidates, m[1])
	}
	candidates = append(candidates, raw)

	var fallback map[string]interface{}
	for _, c := range candidates {
		for from := 0; from < len(c); {
			obj, start, ok := nextObject(c, from)
			if !ok {
				break
			}
			from = start + 1

			dec := json.NewDecoder(bytes.NewReader([]byte(obj)))
			dec.UseNumber()
			var doc map[string]interface{}
			if err := dec.Decode(&doc); err != nil {
				continue
			}
			_, hasASCOD := lookupKey(doc, "ascod")
			_, hasTOAST := lookupKey(doc, "toast")
			if hasASCOD || hasTOAST {
				return doc, true
			}
			if fallback == nil {
				fallback = doc
			}
		}
	}
	return fallback, fallback != nil
}

// nextObject returns the first balanced {...} span starting at or after
// from, skipping braces inside string literals, and the offset it starts at.
func nextObject(s string, from int) (string, int, bool) {
	for {
		idx := strings.IndexByte(s[from:], '{')
		if idx < 0 {
			return "", 0, false
		}
		start := from + idx
		if end, ok := balancedEnd(s, start); ok {
			return s[start : end+1], start, true
		}
		from = start + 1
	}
}

// balancedEnd returns the index of the brace closing the one at start.
func balancedEnd(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// lookupKey finds a key case-insensitively. An exact match wins; otherwise
// the lexically first case-insensitive match is used.
func lookupKey(m map[string]interface{}, names ...string) (interface{}, bool) {
	for _, name := range names {
		if v, ok := m[name]; ok {
			return v, true
		}
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, name := range names {
		for _, k := range keys {
			if strings.EqualFold(strings.TrimSpace(k), name) {
				return m[k], true
			}
		}
	}
	return nil, false
}

func decodeProfile(value interface{}, raw string) (*domain.ASCODProfile, error) {
	profile := domain.NewIncompleteProfile()

	switch v := value.(type) {
	case nil:
		return profile, nil
	case string:
		// a bare code such as "A1-S0-C2-O0-D9"
		parsed, found, err := matchASCOD(v, raw)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, domain.NewDecodeError(fmt.Sprintf("ascod value %q is not a code", v), raw, domain.ErrInvalidGrade)
		}
		return parsed, nil
	case map[string]interface{}:
		for _, cat := range domain.Categories {
			entry := domain.ASCODEntry{Category: cat, Grade: domain.GradeIncomplete}
			item, ok := lookupKey(v, string(cat))
			if ok {
				grade, justification, err := decodeEntry(item)
				if err != nil {
					return nil, domain.NewDecodeError(fmt.Sprintf("category %s", cat), raw, err)
				}
				entry.Grade = grade
				entry.Justification = justification
			}
			if err := profile.Set(entry); err != nil {
				return nil, domain.NewDecodeError(fmt.Sprintf("category %s", cat), raw, err)
			}
		}
		return profile, nil
	default:
		return nil, domain.NewDecodeError("ascod is not an object", raw, domain.ErrInvalidGrade)
	}
}

func decodeEntry(item interface{}) (domain.Grade, string, error) {
	obj, ok := item.(map[string]interface{})
	if !ok {
		g, err := parseGradeValue(item)
		return g, "", err
	}
	gradeValue, _ := lookupKey(obj, gradeKeys...)
	g, err := parseGradeValue(gradeValue)
	if err != nil {
		return 0, "", err
	}
	return g, firstString(obj, justificationKeys), nil
}

// parseGradeValue accepts numbers and strings like "1", "A1" or "Grau 1".
// Missing values fall back to grade 9; out-of-domain values are errors.
func parseGradeValue(v interface{}) (domain.Grade, error) {
	switch t := v.(type) {
	case nil:
		return domain.GradeIncomplete, nil
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return gradeFromInt(n)
		}
		f, err := t.Float64()
		if err != nil || f != float64(int64(f)) {
			return 0, fmt.Errorf("%w: %s", domain.ErrInvalidGrade, t)
		}
		return gradeFromInt(int64(f))
	case float64:
		if t != float64(int64(t)) {
			return 0, fmt.Errorf("%w: %v", domain.ErrInvalidGrade, t)
		}
		return gradeFromInt(int64(t))
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return domain.GradeIncomplete, nil
		}
		lower := strings.ToLower(s)
		for _, prefix := range []string{"grau", "grade"} {
			if strings.HasPrefix(lower, prefix) {
				s = strings.TrimSpace(s[len(prefix):])
				break
			}
		}
		return domain.ParseGrade(s)
	default:
		return 0, fmt.Errorf("%w: unexpected %T", domain.ErrInvalidGrade, v)
	}
}

func gradeFromInt(n int64) (domain.Grade, error) {
	g := domain.Grade(n)
	if n < 0 || n > 9 || !g.IsValid() {
		return 0, fmt.Errorf("%w: %d", domain.ErrInvalidGrade, n)
	}
	return g, nil
}

func decodeToast(value interface{}, raw string) (*domain.ToastEntry, error) {
	var label interface{}
	justification := ""

	switch v := value.(type) {
	case nil:
		return nil, nil
	case map[string]interface{}:
		label, _ = lookupKey(v, toastClassKeys...)
		justification = firstString(v, justificationKeys)
	default:
		label = v
	}

	var text string
	switch l := label.(type) {
	case nil:
		return nil, nil
	case string:
		text = l
	case json.Number:
		text = l.String()
	case float64:
		text = fmt.Sprintf("%v", l)
	default:
		return nil, domain.NewDecodeError("toast classification is not a label", raw, domain.ErrInvalidToastClass)
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	class, err := parseToastLabel(text)
	if err != nil {
		return nil, domain.NewDecodeError("toast classification", raw, err)
	}
	return &domain.ToastEntry{Class: class, Justification: justification}, nil
}

// parseToastLabel accepts "TOAST 5a", "5a" and labels followed by a name,
// e.g. "TOAST 2 - Cardioembólico".
func parseToastLabel(s string) (domain.ToastClass, error) {
	if m := toastPattern.FindStringSubmatch(s); m != nil {
		return domain.ParseToastClass(m[1])
	}
	if m := bareToastPattern.FindStringSubmatch(s); m != nil {
		return domain.ParseToastClass(m[1])
	}
	return domain.ParseToastClass(s)
}

func firstString(m map[string]interface{}, keys []string) string {
	for _, k := range keys {
		if v, ok := lookupKey(m, k); ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
