package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"

	"github.com/ascod-toast-classifier/internal/domain"
)

// Normalizer coerces loosely-typed structured payloads into records.
// It keeps all form coercion rules in one place.
type Normalizer struct {
	registry *Registry
}

// NewNormalizer creates a normalizer over the given registry
func NewNormalizer(reg *Registry) *Normalizer {
	return &Normalizer{registry: reg}
}

// Registry returns the registry the normalizer reads.
func (n *Normalizer) Registry() *Registry {
	return n.registry
}

// Normalize builds a ClinicalRecord from raw. Unknown keys are ignored.
// The first invalid field in registry order is reported as a
// *domain.ValidationError.
func (n *Normalizer) Normalize(raw map[string]interface{}) (domain.ClinicalRecord, error) {
	record := NewRecord(n.registry)

	for _, f := range n.registry.fields {
		switch f.Kind {
		case KindBool:
			if v, ok := lookup(raw, f); ok {
				record.setBool(f.Name, coerceBool(v))
			}
		case KindInt:
			v, ok := lookup(raw, f)
			if !ok || isBlank(v) {
				continue
			}
			num, err := coerceInt(f, v)
			if err != nil {
				return nil, err
			}
			record.setInt(f.Name, num)
		case KindEnum:
			if v, ok := lookup(raw, f); ok {
				if isBlank(v) {
					continue
				}
				value, err := coerceEnum(f, v)
				if err != nil {
					return nil, err
				}
				record.setEnum(f.Name, value)
				continue
			}
			for _, key := range f.flagAliasKeys() {
				if v, ok := raw[key]; ok && coerceBool(v) {
					record.setEnum(f.Name, f.FlagAliases[key])
					break
				}
			}
		}
	}
	return record, nil
}

// lookup returns the canonical value, or the first legacy alias present when
// the canonical key is missing.
func lookup(raw map[string]interface{}, f Field) (interface{}, bool) {
	if v, ok := raw[f.Name]; ok {
		return v, true
	}
	for _, alias := range f.Aliases {
		if v, ok := raw[alias]; ok {
			return v, true
		}
	}
	return nil, false
}

func isBlank(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// coerceBool treats native true, numeric 1 and the tokens "true", "1" and
// "on" as set. Anything else, including unchecked checkboxes that are simply
// missing, is false.
func coerceBool(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "on":
			return true
		}
	case json.Number, float64, float32, int, int64, int32:
		// a numeric 1 is the same token as "1"
		n, err := cast.ToFloat64E(t)
		return err == nil && n == 1
	}
	return false
}

func coerceInt(f Field, v interface{}) (int, error) {
	invalid := func() error {
		return domain.NewValidationError(f.Name, "must be "+f.boundsText(), v)
	}

	switch t := v.(type) {
	case bool:
		return 0, invalid()
	case json.Number:
		v = string(t)
	case string:
		v = strings.TrimSpace(t)
	}

	num, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(num) || math.IsInf(num, 0) {
		return 0, domain.NewValidationError(f.Name, "not a number", v)
	}
	if num != math.Trunc(num) {
		return 0, domain.NewValidationError(f.Name, "must be a whole number", v)
	}
	if num < math.MinInt32 || num > math.MaxInt32 {
		return 0, invalid()
	}
	n := int(num)
	if !f.inBounds(n) {
		return 0, invalid()
	}
	return n, nil
}

func coerceEnum(f Field, v interface{}) (string, error) {
	s, err := cast.ToStringE(v)
	if err == nil {
		s = strings.ToLower(strings.TrimSpace(s))
		if f.AllowsValue(s) {
			return s, nil
		}
	}
	return "", domain.NewValidationError(f.Name,
		fmt.Sprintf("must be one of: %s", strings.Join(f.Values, ", ")), v)
}
