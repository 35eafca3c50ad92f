package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	reg, err := DefaultRegistry()
	require.NoError(t, err)
	assert.Equal(t, 3, reg.Version())

	names := make([]string, 0)
	for _, f := range reg.Fields() {
		names = append(names, f.Name)
	}
	// Registry order drives error reporting; keep the head stable.
	wantHead := []string{FieldHTN, FieldDM, FieldDLP, FieldSmoker, FieldStenosis}
	if diff := cmp.Diff(wantHead, names[:len(wantHead)]); diff != "" {
		t.Errorf("registry order mismatch (-want +got):\n%s", diff)
	}

	lvef, ok := reg.Lookup(FieldLVEF)
	require.True(t, ok)
	assert.True(t, lvef.Optional)
	_, hasDefault := lvef.DefaultInt()
	assert.False(t, hasDefault)

	infarct, ok := reg.Lookup(FieldInfarctType)
	require.True(t, ok)
	assert.Equal(t, InfarctNone, infarct.DefaultEnum())
	assert.Equal(t, InfarctSubcorticalSmallLacunar, infarct.FlagAliases["lacunarInfarct"])

	_, ok = reg.Lookup("mechValve")
	assert.False(t, ok, "aliases are not canonical names")
}

func TestDefaultRegistry_KnowsEveryEncoderField(t *testing.T) {
	reg := MustDefaultRegistry()

	for _, name := range []string{
		FieldHTN, FieldDM, FieldDLP, FieldSmoker, FieldStenosis, FieldComplexAorticPlaque,
		FieldAorticPlaqueLt4mm, FieldCoronaryPeripheral, FieldInfarctType, FieldLeukoaraiosis,
		FieldHasHTNOrDM, FieldLacunarSyndrome, FieldLacunarPlusSevereLeuko, FieldSevereLeukoIsolated,
		FieldAFib, FieldMechValve, FieldRecentMI, FieldLVEF, FieldThrombus, FieldEndocarditis,
		FieldPFO, FieldVenousThrombosis, FieldPFOWithPEOrDVT, FieldPFOWithASA, FieldPFOIsolated,
		FieldVasculitis, FieldThrombophilia, FieldOtherDefiniteCause, FieldOtherProbableCause,
		FieldDissection, FieldDissectionHistory,
	} {
		_, ok := reg.Lookup(name)
		assert.True(t, ok, name)
	}
}

func TestLoadRegistry_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", "fields: []"},
		{"not yaml", "fields: [ {"},
		{"unknown kind", "fields:\n  - {name: x, kind: float, category: A}"},
		{"unknown category", "fields:\n  - {name: x, kind: bool, category: Z}"},
		{"enum default outside values", "fields:\n  - {name: x, kind: enum, category: S, default: big, values: [small]}"},
		{"int default out of bounds", "fields:\n  - {name: x, kind: int, category: A, default: 200, min: 0, max: 100}"},
		{"alias collides with name", "fields:\n  - {name: x, kind: bool, category: A}\n  - {name: y, kind: bool, category: A, aliases: [x]}"},
		{"flag alias on bool", "fields:\n  - {name: x, kind: bool, category: A, flag_aliases: {y: z}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRegistry([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestRecordMap(t *testing.T) {
	reg := MustDefaultRegistry()
	rec := NewRecord(reg)
	rec.setBool(FieldAFib, true)

	m := rec.Map(reg)
	assert.Equal(t, true, m[FieldAFib])
	assert.Equal(t, 0, m[FieldStenosis])
	assert.Nil(t, m[FieldLVEF])
	assert.Equal(t, InfarctNone, m[FieldInfarctType])
	assert.Len(t, m, len(reg.Fields()))
}
