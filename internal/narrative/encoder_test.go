package narrative

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ascod-toast-classifier/internal/domain"
	"github.com/ascod-toast-classifier/internal/schema"
)

func normalize(t *testing.T, raw map[string]interface{}) domain.ClinicalRecord {
	t.Helper()
	n := schema.NewNormalizer(schema.MustDefaultRegistry())
	rec, err := n.Normalize(raw)
	require.NoError(t, err)
	return rec
}

func TestEncode_NoFindings(t *testing.T) {
	enc := NewEncoder()

	got := enc.Encode(normalize(t, map[string]interface{}{}))
	assert.Equal(t, NoFindings, got)
	assert.NotEmpty(t, got)

	// explicit false values and blank numbers are still no findings
	got = enc.Encode(normalize(t, map[string]interface{}{
		"htn": false, "stenosis": 0, "lvef": nil, "infarct_type": "none",
	}))
	assert.Equal(t, NoFindings, got)
}

func TestEncode_FullCase(t *testing.T) {
	enc := NewEncoder()
	rec := normalize(t, map[string]interface{}{
		"htn":                         true,
		"smoker":                      "on",
		"stenosis":                    70,
		"infarct_type":                "subcortical_small_lacunar",
		"s1_lacunar_infarct_syndrome": true,
		"afib":                        true,
		"lvef":                        30,
		"pfo":                         true,
		"venous_thrombosis":           true,
		"vasculitis":                  true,
		"dissection_history":          true,
	})

	want := strings.Join([]string{
		"Fatores de risco vascular: Hipertensão arterial sistêmica (HAS); Tabagismo.",
		"Aterosclerose (A): Estenose arterial ipsilateral de 70% (≥50%, sugestivo de A1).",
		"Doença de pequenos vasos (S): Infarto subcortical lacunar (<15 mm em TC ou <20 mm em RM-DWI); Síndrome lacunar clássica.",
		"Cardiopatia (C): Fibrilação atrial; Fração de ejeção do VE de 30% (<35%, sugestivo de C1); Forame oval patente (FOP) com trombose venosa concomitante.",
		"Outras causas (O): Vasculite do SNC.",
		"Dissecção (D): História clínica sugestiva de dissecção arterial.",
	}, " ")

	if diff := cmp.Diff(want, enc.Encode(rec)); diff != "" {
		t.Errorf("narrative mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_Deterministic(t *testing.T) {
	enc := NewEncoder()
	raw := map[string]interface{}{
		"htn": true, "dm": true, "dlp": true, "stenosis": 35, "afib": true,
		"a2_aortic_plaque_lt4mm": true, "thrombophilia": true, "dissection": true,
	}

	first := enc.Encode(normalize(t, raw))
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, enc.Encode(normalize(t, raw)))
	}
	assert.Equal(t, first, NewEncoder().Encode(normalize(t, raw)))
}

func TestEncode_ClauseOrder(t *testing.T) {
	enc := NewEncoder()
	got := enc.Encode(normalize(t, map[string]interface{}{
		"dissection": true, "vasculitis": true, "afib": true,
		"leukoaraiosis": true, "stenosis": 10, "dm": true,
	}))

	labels := []string{
		"Fatores de risco vascular:", "Aterosclerose (A):", "Doença de pequenos vasos (S):",
		"Cardiopatia (C):", "Outras causas (O):", "Dissecção (D):",
	}
	last := -1
	for _, label := range labels {
		idx := strings.Index(got, label)
		require.GreaterOrEqual(t, idx, 0, label)
		assert.Greater(t, idx, last, label)
		last = idx
	}
}

func TestEncode_EmptyCategoriesOmitted(t *testing.T) {
	got := NewEncoder().Encode(normalize(t, map[string]interface{}{"afib": true}))
	assert.Equal(t, "Cardiopatia (C): Fibrilação atrial.", got)
}

func TestEncode_LacunarDetailsGated(t *testing.T) {
	enc := NewEncoder()
	details := map[string]interface{}{
		"s_has_htn_or_dm":              true,
		"s1_lacunar_plus_severe_leuko": true,
		"s3_severe_leuko_isolated":     true,
	}

	details["infarct_type"] = "cortical_large"
	got := enc.Encode(normalize(t, details))
	assert.Equal(t, "Doença de pequenos vasos (S): Infarto cortical ou subcortical maior que 1,5 cm.", got)

	details["infarct_type"] = "subcortical_small_lacunar"
	got = enc.Encode(normalize(t, details))
	assert.Contains(t, got, "Infarto lacunar em paciente com hipertensão ou diabetes")
	assert.Contains(t, got, "Infarto lacunar associado a leucoaraiose grave")
	assert.Contains(t, got, "Leucoaraiose grave isolada (Fazekas 3)")
}

func TestEncode_VenousThrombosisOnlyQualifiesPFO(t *testing.T) {
	got := NewEncoder().Encode(normalize(t, map[string]interface{}{"venous_thrombosis": true}))
	assert.Equal(t, NoFindings, got)
}

func TestEncode_DissectionHistorySuppressedByDissection(t *testing.T) {
	got := NewEncoder().Encode(normalize(t, map[string]interface{}{
		"dissection": true, "dissection_history": true,
	}))
	assert.NotContains(t, got, "História clínica")
	assert.Contains(t, got, "Sinais radiológicos de dissecção arterial")
}

func TestEncode_LegacyPayloadMatchesCurrent(t *testing.T) {
	enc := NewEncoder()
	legacy := enc.Encode(normalize(t, map[string]interface{}{
		"mechValve": true, "recentMI": true, "lacunarInfarct": true, "dissectionHistory": true,
	}))
	current := enc.Encode(normalize(t, map[string]interface{}{
		"mech_valve": true, "recent_mi": true, "infarct_type": "subcortical_small_lacunar", "dissection_history": true,
	}))
	assert.Equal(t, current, legacy)
}

func TestStenosisBands(t *testing.T) {
	tests := []struct {
		pct      int
		band     string
		hint     domain.Grade
		contains string
	}{
		{0, "none", domain.GradeAbsent, ""},
		{1, "mild", domain.GradeUncertain, "leve de 1%"},
		{29, "mild", domain.GradeUncertain, "leve de 29%"},
		{30, "moderate", domain.GradeUncertain, "moderada de 30%"},
		{49, "moderate", domain.GradeUncertain, "moderada de 49%"},
		{50, "significant", domain.GradeCausal, "de 50% (≥50%"},
		{100, "significant", domain.GradeCausal, "de 100% (≥50%"},
	}

	for _, tt := range tests {
		b, ok := ClassifyStenosis(tt.pct)
		require.True(t, ok, "pct %d", tt.pct)
		assert.Equal(t, tt.band, b.Name, "pct %d", tt.pct)
		assert.Equal(t, tt.hint, b.Hint, "pct %d", tt.pct)
		phrase, has := b.Phrase(tt.pct)
		assert.Equal(t, tt.contains != "", has)
		assert.Contains(t, phrase, tt.contains)
	}

	at50 := NewEncoder().Encode(normalize(t, map[string]interface{}{"stenosis": 50}))
	at49 := NewEncoder().Encode(normalize(t, map[string]interface{}{"stenosis": 49}))
	assert.Contains(t, at50, "sugestivo de A1")
	assert.Contains(t, at49, "30-49%")
	assert.NotContains(t, at49, "A1")
}

func TestEjectionFractionBands(t *testing.T) {
	for pct, want := range map[int]string{0: "severely reduced", 34: "severely reduced", 35: "reduced", 49: "reduced", 50: "preserved", 100: "preserved"} {
		b, ok := ClassifyEjectionFraction(pct)
		require.True(t, ok)
		assert.Equal(t, want, b.Name, "lvef %d", pct)
	}
}

func TestBandsExhaustiveAndNonOverlapping(t *testing.T) {
	for name, bands := range map[string][]Band{"stenosis": StenosisBands, "lvef": EjectionFractionBands} {
		for v := 0; v <= 100; v++ {
			matches := 0
			for _, b := range bands {
				if b.Contains(v) {
					matches++
				}
			}
			assert.Equal(t, 1, matches, "%s value %d must fall in exactly one band", name, v)
		}
		_, ok := bandFor(bands, 101)
		assert.False(t, ok, name)
	}
}
