// Package narrative renders normalized clinical records as the Portuguese
// case description submitted to the classifier.
package narrative

import (
	"strings"

	"github.com/ascod-toast-classifier/internal/domain"
	"github.com/ascod-toast-classifier/internal/schema"
)

// NoFindings is emitted when a record triggers no phrase at all.
const NoFindings = "Nenhuma informação clínica fornecida: sem achados registrados para as categorias A, S, C, O e D."

// rule yields one phrase when its finding is present in the record.
type rule func(rec domain.ClinicalRecord) (string, bool)

type section struct {
	label string
	rules []rule
}

// Encoder turns records into narratives. Output depends only on the record,
// so equal records always encode to identical text.
type Encoder struct {
	sections []section
}

// NewEncoder creates the encoder with the standard section layout
func NewEncoder() *Encoder {
	return &Encoder{sections: []section{
		{
			label: "Fatores de risco vascular",
			rules: []rule{
				flag(schema.FieldHTN, "Hipertensão arterial sistêmica (HAS)"),
				flag(schema.FieldDM, "Diabetes mellitus (DM)"),
				flag(schema.FieldDLP, "Dislipidemia (DLP)"),
				flag(schema.FieldSmoker, "Tabagismo"),
			},
		},
		{
			label: "Aterosclerose (A)",
			rules: []rule{
				banded(schema.FieldStenosis, StenosisBands),
				flag(schema.FieldComplexAorticPlaque, "Placa aórtica complexa (≥4 mm, ulcerada ou móvel)"),
				flag(schema.FieldAorticPlaqueLt4mm, "Placa aórtica <4 mm"),
				flag(schema.FieldCoronaryPeripheral, "Doença arterial coronariana ou periférica"),
			},
		},
		{
			label: "Doença de pequenos vasos (S)",
			rules: []rule{
				infarctType,
				flag(schema.FieldLeukoaraiosis, "Leucoaraiose presente"),
				lacunarOnly(flag(schema.FieldHasHTNOrDM, "Infarto lacunar em paciente com hipertensão ou diabetes")),
				lacunarOnly(flag(schema.FieldLacunarSyndrome, "Síndrome lacunar clássica")),
				lacunarOnly(flag(schema.FieldLacunarPlusSevereLeuko, "Infarto lacunar associado a leucoaraiose grave")),
				lacunarOnly(flag(schema.FieldSevereLeukoIsolated, "Leucoaraiose grave isolada (Fazekas 3)")),
			},
		},
		{
			label: "Cardiopatia (C)",
			rules: []rule{
				flag(schema.FieldAFib, "Fibrilação atrial"),
				flag(schema.FieldMechValve, "Prótese valvar mecânica"),
				flag(schema.FieldRecentMI, "Infarto do miocárdio recente"),
				banded(schema.FieldLVEF, EjectionFractionBands),
				flag(schema.FieldThrombus, "Trombo intracardíaco"),
				flag(schema.FieldEndocarditis, "Endocardite"),
				patentForamenOvale,
				flag(schema.FieldPFOWithPEOrDVT, "FOP com embolia pulmonar ou trombose venosa profunda concomitante"),
				flag(schema.FieldPFOWithASA, "FOP associado a aneurisma do septo atrial"),
				flag(schema.FieldPFOIsolated, "FOP isolado"),
			},
		},
		{
			label: "Outras causas (O)",
			rules: []rule{
				flag(schema.FieldVasculitis, "Vasculite do SNC"),
				flag(schema.FieldThrombophilia, "Trombofilia com trombose"),
				flag(schema.FieldOtherDefiniteCause, "Outra causa determinada (ex.: Moyamoya, Fabry)"),
				flag(schema.FieldOtherProbableCause, "Outra causa provável (ex.: enxaqueca com aura)"),
			},
		},
		{
			label: "Dissecção (D)",
			rules: []rule{
				flag(schema.FieldDissection, "Sinais radiológicos de dissecção arterial (hematoma intramural, flap intimal ou sinal do barbante)"),
				dissectionHistory,
			},
		},
	}}
}

// Encode renders the record. Sections without findings are omitted; a record
// with no findings at all yields NoFindings.
func (e *Encoder) Encode(rec domain.ClinicalRecord) string {
	clauses := make([]string, 0, len(e.sections))
	for _, s := range e.sections {
		var phrases []string
		for _, r := range s.rules {
			if p, ok := r(rec); ok {
				phrases = append(phrases, p)
			}
		}
		if len(phrases) == 0 {
			continue
		}
		clauses = append(clauses, s.label+": "+strings.Join(phrases, "; ")+".")
	}
	if len(clauses) == 0 {
		return NoFindings
	}
	return strings.Join(clauses, " ")
}

func flag(field, phrase string) rule {
	return func(rec domain.ClinicalRecord) (string, bool) {
		return phrase, rec.Bool(field)
	}
}

func banded(field string, bands []Band) rule {
	return func(rec domain.ClinicalRecord) (string, bool) {
		v, ok := rec.Int(field)
		if !ok {
			return "", false
		}
		b, ok := bandFor(bands, v)
		if !ok {
			return "", false
		}
		return b.Phrase(v)
	}
}

func lacunarOnly(r rule) rule {
	return func(rec domain.ClinicalRecord) (string, bool) {
		if rec.Enum(schema.FieldInfarctType) != schema.InfarctSubcorticalSmallLacunar {
			return "", false
		}
		return r(rec)
	}
}

func infarctType(rec domain.ClinicalRecord) (string, bool) {
	switch rec.Enum(schema.FieldInfarctType) {
	case schema.InfarctCorticalLarge:
		return "Infarto cortical ou subcortical maior que 1,5 cm", true
	case schema.InfarctSubcorticalSmallLacunar:
		return "Infarto subcortical lacunar (<15 mm em TC ou <20 mm em RM-DWI)", true
	case schema.InfarctSubcorticalOtherSize:
		return "Infarto subcortical de tamanho não lacunar", true
	default:
		return "", false
	}
}

// venous thrombosis only qualifies a patent foramen ovale
func patentForamenOvale(rec domain.ClinicalRecord) (string, bool) {
	if !rec.Bool(schema.FieldPFO) {
		return "", false
	}
	if rec.Bool(schema.FieldVenousThrombosis) {
		return "Forame oval patente (FOP) com trombose venosa concomitante", true
	}
	return "Forame oval patente (FOP)", true
}

func dissectionHistory(rec domain.ClinicalRecord) (string, bool) {
	if rec.Bool(schema.FieldDissection) {
		return "", false
	}
	return "História clínica sugestiva de dissecção arterial", rec.Bool(schema.FieldDissectionHistory)
}
