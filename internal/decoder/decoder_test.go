package decoder

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ascod-toast-classifier/internal/domain"
)

func grades(p *domain.ASCODProfile) []domain.Grade {
	out := make([]domain.Grade, 0, len(domain.Categories))
	for _, cat := range domain.Categories {
		out = append(out, p.Get(cat).Grade)
	}
	return out
}

func requireDecodeError(t *testing.T, err error, raw string) *domain.DecodeError {
	t.Helper()
	require.Error(t, err)
	var decodeErr *domain.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, raw, decodeErr.Raw)
	return decodeErr
}

func TestStructuredStrategy_FullDocument(t *testing.T) {
	raw := `{
  "ascod": {
    "A": {"grade": 1, "justification": "Estenose de 70%"},
    "S": {"grade": 0, "justification": "Sem lacunas"},
    "C": {"grade": 2, "justificativa": "FEVE 40%"},
    "O": {"grade": 0, "raciocinio": "Sem outras causas"},
    "D": {"grade": 9, "reason": "Angio não realizada"}
  },
  "toast": {"classification": "TOAST 1", "rationale": "Aterosclerose de grande artéria"}
}`

	result, err := NewStructuredStrategy().Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, StrategyStructured, result.Strategy)
	assert.Equal(t, []domain.Grade{1, 0, 2, 0, 9}, grades(result.ASCOD))
	assert.Equal(t, "FEVE 40%", result.ASCOD.Get(domain.CategoryCardiac).Justification)
	assert.Equal(t, "Sem outras causas", result.ASCOD.Get(domain.CategoryOther).Justification)
	assert.Equal(t, "Angio não realizada", result.ASCOD.Get(domain.CategoryDissection).Justification)
	require.NotNil(t, result.TOAST)
	assert.Equal(t, domain.ToastLargeArtery, result.TOAST.Class)
	assert.Equal(t, "Aterosclerose de grande artéria", result.TOAST.Justification)
	assert.False(t, result.IsPartial())
}

func TestStructuredStrategy_FencesAndProse(t *testing.T) {
	raw := "Segue a classificação:\n```json\n{\"ascod\": {\"a\": {\"grau\": \"A1\"}, \"s\": \"0\", \"c\": 3, \"o\": {\"grade\": \"Grau 0\"}, \"d\": {\"grade\": 0}}, \"toast\": \"5b\"}\n```\nEspero ter ajudado. {não é json}"

	result, err := NewStructuredStrategy().Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, []domain.Grade{1, 0, 3, 0, 0}, grades(result.ASCOD))
	assert.Equal(t, domain.ToastNegativeEvaluation, result.TOAST.Class)
}

func TestStructuredStrategy_BracesInsideStrings(t *testing.T) {
	raw := `Resultado: {"ascod": {"A": {"grade": 2, "justification": "placa {<4 mm}"}}, "toast": {"classification": "2"}} fim`

	result, err := NewStructuredStrategy().Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "placa {<4 mm}", result.ASCOD.Get(domain.CategoryAtherosclerosis).Justification)
	assert.Equal(t, domain.ToastCardioembolic, result.TOAST.Class)
}

func TestStructuredStrategy_SkipsBracesInProse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"unparsable span first", `Nota {x}. {"ascod": {"A": {"grade": 1}}, "toast": {"classification": "2"}}`},
		{"unrelated object first", `Entrada {"idade": 70} avaliada. {"ascod": {"A": {"grade": 1}}, "toast": "2"}`},
		{"unclosed brace first", `Resultado { parcial: {"ascod": {"A": {"grade": 1}}, "toast": "2"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewDefaultDecoder().Decode(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, StrategyStructured, result.Strategy)
			assert.Equal(t, domain.Grade(1), result.ASCOD.Get(domain.CategoryAtherosclerosis).Grade)
			assert.Equal(t, domain.ToastCardioembolic, result.TOAST.Class)
		})
	}
}

func TestStructuredStrategy_MissingGradeFallsBackToNine(t *testing.T) {
	raw := `{"ascod": {"A": {"grade": 1}, "S": {"grade": 0}, "C": {"justification": "sem eco"}, "O": {"grade": null}, "D": {"grade": 0}},
	         "toast": {"classification": "TOAST 3"}}`

	result, err := NewStructuredStrategy().Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, []domain.Grade{1, 0, 9, 9, 0}, grades(result.ASCOD))
	assert.Equal(t, "sem eco", result.ASCOD.Get(domain.CategoryCardiac).Justification)
}

func TestStructuredStrategy_MissingCategory(t *testing.T) {
	result, err := NewStructuredStrategy().Decode(`{"ascod": {"A": {"grade": 2}}}`)
	require.NoError(t, err)
	assert.Equal(t, []domain.Grade{2, 9, 9, 9, 9}, grades(result.ASCOD))
	assert.Nil(t, result.TOAST)
	assert.True(t, result.IsPartial())
}

func TestStructuredStrategy_MissingHalves(t *testing.T) {
	t.Run("no ascod object grades everything 9", func(t *testing.T) {
		result, err := NewStructuredStrategy().Decode(`{"toast": {"classification": "TOAST 4"}}`)
		require.NoError(t, err)
		assert.Equal(t, []domain.Grade{9, 9, 9, 9, 9}, grades(result.ASCOD))
		assert.Equal(t, domain.ToastOtherDetermined, result.TOAST.Class)
	})

	t.Run("toast without classification is absent", func(t *testing.T) {
		result, err := NewStructuredStrategy().Decode(`{"ascod": {"A": 1}, "toast": {"justification": "?"}}`)
		require.NoError(t, err)
		assert.Nil(t, result.TOAST)
	})
}

func TestStructuredStrategy_NotStructured(t *testing.T) {
	for _, raw := range []string{
		"A1-S0-C2-O0-D9 e TOAST 3",
		"{not json at all",
		`{"ascod_code": "A1-S0-C2-O0-D9"}`,
		"",
	} {
		_, err := NewStructuredStrategy().Decode(raw)
		decodeErr := requireDecodeError(t, err, raw)
		assert.ErrorIs(t, decodeErr, domain.ErrNotStructured, raw)
	}
}

func TestStructuredStrategy_OutOfDomain(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"grade 4", `{"ascod": {"A": {"grade": 4}}}`, domain.ErrInvalidGrade},
		{"grade 1.5", `{"ascod": {"A": {"grade": 1.5}}}`, domain.ErrInvalidGrade},
		{"grade text", `{"ascod": {"A": {"grade": "alto"}}}`, domain.ErrInvalidGrade},
		{"grade bool", `{"ascod": {"A": {"grade": true}}}`, domain.ErrInvalidGrade},
		{"toast 6", `{"toast": {"classification": "TOAST 6"}}`, domain.ErrInvalidToastClass},
		{"toast 5d", `{"toast": "5d"}`, domain.ErrInvalidToastClass},
		{"prefixed toast 5d", `{"ascod": {"A": {"grade": 1}}, "toast": {"classification": "TOAST 5d"}}`, domain.ErrInvalidToastClass},
		{"toast 5d with name", `{"toast": {"classification": "5d - Indeterminado"}}`, domain.ErrInvalidToastClass},
		{"ascod string with two digit grade", `{"ascod": "A1-S0-C2-O0-D93"}`, domain.ErrInvalidGrade},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStructuredStrategy().Decode(tt.raw)
			decodeErr := requireDecodeError(t, err, tt.raw)
			assert.ErrorIs(t, decodeErr, tt.want)
			assert.NotErrorIs(t, decodeErr, domain.ErrNotStructured)
		})
	}
}

func TestPatternStrategy(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		grades    []domain.Grade
		toast     domain.ToastClass
		wantASCOD bool
		wantTOAST bool
	}{
		{"both codes", "Classificação: A1-S0-C2-O0-D9. Classificação Final: TOAST 3", []domain.Grade{1, 0, 2, 0, 9}, domain.ToastSmallVessel, true, true},
		{"ascod only", "Resultado A3-S1-C0-O0-D0 sem TOAST definido", []domain.Grade{3, 1, 0, 0, 0}, "", true, false},
		{"toast only", "Classificação final: toast 5a", nil, domain.ToastTwoOrMoreCauses, false, true},
		{"first code wins", "A1-S1-C1-O1-D1 ... A2-S2-C2-O2-D2", []domain.Grade{1, 1, 1, 1, 1}, "", true, false},
		{"json residue", `{"ascod_code": "A2-S0-C1-O0-D0", "toast_code": "TOAST 2"}`, []domain.Grade{2, 0, 1, 0, 0}, domain.ToastCardioembolic, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewPatternStrategy().Decode(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, StrategyPattern, result.Strategy)
			if tt.wantASCOD {
				require.NotNil(t, result.ASCOD)
				assert.Equal(t, tt.grades, grades(result.ASCOD))
			} else {
				assert.Nil(t, result.ASCOD)
			}
			if tt.wantTOAST {
				require.NotNil(t, result.TOAST)
				assert.Equal(t, tt.toast, result.TOAST.Class)
			} else {
				assert.Nil(t, result.TOAST)
			}
		})
	}
}

func TestPatternStrategy_Failures(t *testing.T) {
	raw := "O paciente precisa de mais exames."
	_, err := NewPatternStrategy().Decode(raw)
	assert.ErrorIs(t, requireDecodeError(t, err, raw), domain.ErrNoCodes)

	raw = "A1-S4-C0-O0-D0"
	_, err = NewPatternStrategy().Decode(raw)
	assert.ErrorIs(t, requireDecodeError(t, err, raw), domain.ErrInvalidGrade)

	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"toast 7", "TOAST 7", domain.ErrInvalidToastClass},
		{"toast 12", "Classificação final: TOAST 12", domain.ErrInvalidToastClass},
		{"toast 5d not truncated", "Classificação: A1-S0-C2-O0-D9, TOAST 5d", domain.ErrInvalidToastClass},
		{"two digit grade not truncated", "Classificação: A1-S0-C2-O0-D93, TOAST 1", domain.ErrInvalidGrade},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPatternStrategy().Decode(tt.raw)
			assert.ErrorIs(t, requireDecodeError(t, err, tt.raw), tt.want)

			_, err = NewDefaultDecoder().Decode(tt.raw)
			assert.ErrorIs(t, requireDecodeError(t, err, tt.raw), tt.want)
		})
	}
}

func TestPatternStrategy_LegacyReportJustifications(t *testing.T) {
	raw := `**Classificação ASCOD Final:** A1-S0-C0-O0-D9

**Justificativa Detalhada:**

*   **A (Aterosclerose): Grau 1**
    *   **Critério(s) Atendido(s):** A1(1): Estenose ≥50%
    *   **Raciocínio:** Estenose de 70% na carótida interna esquerda.

*   **S (Doença de Pequenos Vasos): Grau 0**
    *   **Critério(s) Atendido(s):** S0
    *   **Raciocínio:** RM sem lacunas.

*   **D (Dissecção): Grau 9**
    *   Angiografia não realizada.

--- CLASSIFICAÇÃO TOAST ---

Classificação Final: TOAST 1 – Aterosclerose de grandes artérias

Conclusão: Estenose significativa ipsilateral.`

	result, err := NewPatternStrategy().Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, []domain.Grade{1, 0, 0, 0, 9}, grades(result.ASCOD))
	assert.Equal(t, "Estenose de 70% na carótida interna esquerda.", result.ASCOD.Get(domain.CategoryAtherosclerosis).Justification)
	assert.Equal(t, "RM sem lacunas.", result.ASCOD.Get(domain.CategorySmallVessel).Justification)
	assert.Equal(t, "Angiografia não realizada.", result.ASCOD.Get(domain.CategoryDissection).Justification)
	assert.Empty(t, result.ASCOD.Get(domain.CategoryCardiac).Justification)
	assert.Equal(t, domain.ToastLargeArtery, result.TOAST.Class)
	assert.Equal(t, "Estenose significativa ipsilateral.", result.TOAST.Justification)
}

func TestProbingDecoder(t *testing.T) {
	dec := NewDefaultDecoder()

	t.Run("structured preferred", func(t *testing.T) {
		result, err := dec.Decode(`{"ascod": {"A": 1, "S": 0, "C": 0, "O": 0, "D": 0}, "toast": "TOAST 1"} A2-S2-C2-O2-D2`)
		require.NoError(t, err)
		assert.Equal(t, StrategyStructured, result.Strategy)
		assert.Equal(t, []domain.Grade{1, 0, 0, 0, 0}, grades(result.ASCOD))
	})

	t.Run("pattern fallback", func(t *testing.T) {
		result, err := dec.Decode("Classificação: A2-S0-C1-O0-D0, TOAST 2")
		require.NoError(t, err)
		assert.Equal(t, StrategyPattern, result.Strategy)
		assert.Equal(t, domain.ToastCardioembolic, result.TOAST.Class)
	})

	t.Run("structured errors do not fall back", func(t *testing.T) {
		raw := `{"ascod": {"A": {"grade": 7}}} A1-S0-C0-O0-D0`
		_, err := dec.Decode(raw)
		decodeErr := requireDecodeError(t, err, raw)
		assert.ErrorIs(t, decodeErr, domain.ErrInvalidGrade)
	})

	t.Run("nothing recognisable", func(t *testing.T) {
		raw := "Não foi possível classificar."
		_, err := dec.Decode(raw)
		decodeErr := requireDecodeError(t, err, raw)
		assert.ErrorIs(t, decodeErr, domain.ErrNoCodes)
	})
}

type strategyFunc func(raw string) (*domain.ClassificationResult, error)

func (f strategyFunc) Name() string { return "custom" }
func (f strategyFunc) Decode(raw string) (*domain.ClassificationResult, error) {
	return f(raw)
}

func TestProbingDecoder_WrapsForeignErrors(t *testing.T) {
	dec := NewProbingDecoder(strategyFunc(func(string) (*domain.ClassificationResult, error) {
		return nil, errors.New("boom")
	}))
	_, err := dec.Decode("raw text")
	decodeErr := requireDecodeError(t, err, "raw text")
	assert.Contains(t, decodeErr.Error(), "boom")

	dec = NewProbingDecoder(strategyFunc(func(string) (*domain.ClassificationResult, error) {
		return &domain.ClassificationResult{}, nil
	}))
	result, err := dec.Decode("x")
	require.NoError(t, err)
	assert.Equal(t, "custom", result.Strategy)

	_, err = NewProbingDecoder().Decode("x")
	requireDecodeError(t, err, "x")
}
