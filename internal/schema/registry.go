// Package schema holds the structured-input field registry and the
// normalizer that coerces loosely-typed form payloads into clinical records.
package schema

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

//go:embed fields.yaml
var fieldsYAML []byte

// Kind is the value type of a registry field.
type Kind string

const (
	KindBool Kind = "bool"
	KindInt  Kind = "int"
	KindEnum Kind = "enum"
)

// Group is the narrative section a field belongs to.
type Group string

const (
	GroupRisk Group = "risk"
	GroupA    Group = "A"
	GroupS    Group = "S"
	GroupC    Group = "C"
	GroupO    Group = "O"
	GroupD    Group = "D"
)

// Field names referenced by the narrative encoder.
const (
	FieldHTN                    = "htn"
	FieldDM                     = "dm"
	FieldDLP                    = "dlp"
	FieldSmoker                 = "smoker"
	FieldStenosis               = "stenosis"
	FieldComplexAorticPlaque    = "a1_complex_aortic_plaque"
	FieldAorticPlaqueLt4mm      = "a2_aortic_plaque_lt4mm"
	FieldCoronaryPeripheral     = "a2_coronary_or_peripheral_disease"
	FieldInfarctType            = "infarct_type"
	FieldLeukoaraiosis          = "leukoaraiosis"
	FieldHasHTNOrDM             = "s_has_htn_or_dm"
	FieldLacunarSyndrome        = "s1_lacunar_infarct_syndrome"
	FieldLacunarPlusSevereLeuko = "s1_lacunar_plus_severe_leuko"
	FieldSevereLeukoIsolated    = "s3_severe_leuko_isolated"
	FieldAFib                   = "afib"
	FieldMechValve              = "mech_valve"
	FieldRecentMI               = "recent_mi"
	FieldLVEF                   = "lvef"
	FieldThrombus               = "thrombus"
	FieldEndocarditis           = "endocarditis"
	FieldPFO                    = "pfo"
	FieldVenousThrombosis       = "venous_thrombosis"
	FieldPFOWithPEOrDVT         = "c1_pfo_pe_dvt"
	FieldPFOWithASA             = "c2_pfo_asa"
	FieldPFOIsolated            = "c3_pfo_isolated"
	FieldVasculitis             = "vasculitis"
	FieldThrombophilia          = "thrombophilia"
	FieldOtherDefiniteCause     = "other_definite_cause"
	FieldOtherProbableCause     = "other_probable_cause"
	FieldDissection             = "dissection"
	FieldDissectionHistory      = "dissection_history"
)

// Infarct type enum values.
const (
	InfarctNone                    = "none"
	InfarctCorticalLarge           = "cortical_large"
	InfarctSubcorticalSmallLacunar = "subcortical_small_lacunar"
	InfarctSubcorticalOtherSize    = "subcortical_other_size"
)

// Field describes one structured input field.
type Field struct {
	Name        string            `yaml:"name"`
	Kind        Kind              `yaml:"kind"`
	Group       Group             `yaml:"category"`
	Default     interface{}       `yaml:"default"`
	Optional    bool              `yaml:"optional"`
	Min         *int              `yaml:"min"`
	Max         *int              `yaml:"max"`
	Values      []string          `yaml:"values"`
	Aliases     []string          `yaml:"aliases"`
	FlagAliases map[string]string `yaml:"flag_aliases"`
}

// DefaultInt returns the integer default. Optional fields have none.
func (f Field) DefaultInt() (int, bool) {
	if f.Optional || f.Default == nil {
		return 0, false
	}
	return cast.ToInt(f.Default), true
}

// DefaultEnum returns the enum default.
func (f Field) DefaultEnum() string {
	return cast.ToString(f.Default)
}

// AllowsValue reports whether v is one of the declared enum values.
func (f Field) AllowsValue(v string) bool {
	for _, allowed := range f.Values {
		if allowed == v {
			return true
		}
	}
	return false
}

// flagAliasKeys returns the flag alias keys in a stable order.
func (f Field) flagAliasKeys() []string {
	keys := make([]string, 0, len(f.FlagAliases))
	for k := range f.FlagAliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (f Field) inBounds(n int) bool {
	if f.Min != nil && n < *f.Min {
		return false
	}
	if f.Max != nil && n > *f.Max {
		return false
	}
	return true
}

func (f Field) boundsText() string {
	switch {
	case f.Min != nil && f.Max != nil:
		return fmt.Sprintf("between %d and %d", *f.Min, *f.Max)
	case f.Min != nil:
		return fmt.Sprintf("at least %d", *f.Min)
	case f.Max != nil:
		return fmt.Sprintf("at most %d", *f.Max)
	default:
		return "an integer"
	}
}

// Registry is the ordered set of structured input fields. It is immutable
// after loading and safe for concurrent use.
type Registry struct {
	version int
	fields  []Field
	byName  map[string]int
}

type registryFile struct {
	Version int     `yaml:"version"`
	Fields  []Field `yaml:"fields"`
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
	defaultRegistryErr  error
)

// DefaultRegistry returns the registry embedded in the binary.
func DefaultRegistry() (*Registry, error) {
	defaultRegistryOnce.Do(func() {
		defaultRegistry, defaultRegistryErr = LoadRegistry(fieldsYAML)
	})
	return defaultRegistry, defaultRegistryErr
}

// MustDefaultRegistry is like DefaultRegistry but panics on a malformed
// embedded registry.
func MustDefaultRegistry() *Registry {
	reg, err := DefaultRegistry()
	if err != nil {
		panic(err)
	}
	return reg
}

// LoadRegistry parses and validates a registry document.
func LoadRegistry(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse field registry: %w", err)
	}
	if len(file.Fields) == 0 {
		return nil, fmt.Errorf("field registry is empty")
	}

	reg := &Registry{
		version: file.Version,
		fields:  file.Fields,
		byName:  make(map[string]int, len(file.Fields)),
	}
	// Canonical names and aliases share one namespace.
	taken := make(map[string]string)
	claim := func(key, owner string) error {
		if prev, ok := taken[key]; ok {
			return fmt.Errorf("field registry: key %q used by both %s and %s", key, prev, owner)
		}
		taken[key] = owner
		return nil
	}

	for i, f := range file.Fields {
		if err := validateField(f); err != nil {
			return nil, err
		}
		if err := claim(f.Name, f.Name); err != nil {
			return nil, err
		}
		for _, alias := range f.Aliases {
			if err := claim(alias, f.Name); err != nil {
				return nil, err
			}
		}
		for _, key := range f.flagAliasKeys() {
			if err := claim(key, f.Name); err != nil {
				return nil, err
			}
		}
		reg.byName[f.Name] = i
	}
	return reg, nil
}

func validateField(f Field) error {
	if f.Name == "" {
		return fmt.Errorf("field registry: field without a name")
	}
	switch f.Group {
	case GroupRisk, GroupA, GroupS, GroupC, GroupO, GroupD:
	default:
		return fmt.Errorf("field registry: %s has unknown category %q", f.Name, f.Group)
	}

	switch f.Kind {
	case KindBool:
		if len(f.FlagAliases) > 0 {
			return fmt.Errorf("field registry: flag aliases are only valid on enum fields (%s)", f.Name)
		}
	case KindInt:
		if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
			return fmt.Errorf("field registry: %s has min greater than max", f.Name)
		}
		if def, ok := f.DefaultInt(); ok {
			if _, err := cast.ToIntE(f.Default); err != nil {
				return fmt.Errorf("field registry: %s default is not an integer: %w", f.Name, err)
			}
			if !f.inBounds(def) {
				return fmt.Errorf("field registry: %s default %d is out of bounds", f.Name, def)
			}
		}
	case KindEnum:
		if len(f.Values) == 0 {
			return fmt.Errorf("field registry: enum %s declares no values", f.Name)
		}
		if !f.AllowsValue(f.DefaultEnum()) {
			return fmt.Errorf("field registry: enum %s default %q is not an allowed value", f.Name, f.DefaultEnum())
		}
		for alias, target := range f.FlagAliases {
			if !f.AllowsValue(target) {
				return fmt.Errorf("field registry: flag alias %s maps to unknown value %q", alias, target)
			}
		}
	default:
		return fmt.Errorf("field registry: %s has unknown kind %q", f.Name, f.Kind)
	}
	return nil
}

// Version returns the schema revision the registry describes.
func (r *Registry) Version() int {
	return r.version
}

// Fields returns the fields in registry order.
func (r *Registry) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Lookup returns the field with the given canonical name.
func (r *Registry) Lookup(name string) (Field, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Field{}, false
	}
	return r.fields[i], true
}
