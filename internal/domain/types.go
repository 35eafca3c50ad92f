// Package domain contains core business entities and types for ischemic stroke
// etiology classification following the ASCOD phenotyping system and the TOAST
// classification.
//
// Reference: Amarenco P, et al. (2013) The ASCOD phenotyping of ischemic stroke
// (updated ASCO phenotyping). Cerebrovasc Dis. 36(1):1-5. doi: 10.1159/000352050
//
// Reference: Adams HP Jr, et al. (1993) Classification of subtype of acute
// ischemic stroke. Stroke. 24(1):35-41. doi: 10.1161/01.str.24.1.35
package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Category identifies one of the five ASCOD categories.
type Category string

const (
	CategoryAtherosclerosis Category = "A"
	CategorySmallVessel     Category = "S"
	CategoryCardiac         Category = "C"
	CategoryOther           Category = "O"
	CategoryDissection      Category = "D"
)

// Categories lists the ASCOD categories in canonical order. Every code and
// every profile follows this order.
var Categories = [5]Category{
	CategoryAtherosclerosis,
	CategorySmallVessel,
	CategoryCardiac,
	CategoryOther,
	CategoryDissection,
}

// IsValid reports whether c is one of the five ASCOD categories.
func (c Category) IsValid() bool {
	return c.index() >= 0
}

// Name returns the Portuguese category name used in reports.
func (c Category) Name() string {
	switch c {
	case CategoryAtherosclerosis:
		return "Aterosclerose"
	case CategorySmallVessel:
		return "Doença de pequenos vasos"
	case CategoryCardiac:
		return "Cardiopatia"
	case CategoryOther:
		return "Outras causas"
	case CategoryDissection:
		return "Dissecção"
	default:
		return "Categoria desconhecida"
	}
}

func (c Category) index() int {
	for i, cat := range Categories {
		if cat == c {
			return i
		}
	}
	return -1
}

// Grade is an ASCOD causality grade.
type Grade int

const (
	GradeAbsent     Grade = 0
	GradeCausal     Grade = 1
	GradeUncertain  Grade = 2
	GradeUnlikely   Grade = 3
	GradeIncomplete Grade = 9
)

// Validation errors for classifier output integrity
var (
	ErrInvalidGrade      = errors.New("invalid ASCOD grade")
	ErrInvalidToastClass = errors.New("invalid TOAST class")
	ErrInvalidCategory   = errors.New("invalid ASCOD category")
)

// IsValid reports whether g is a grade the rulebook defines.
func (g Grade) IsValid() bool {
	switch g {
	case GradeAbsent, GradeCausal, GradeUncertain, GradeUnlikely, GradeIncomplete:
		return true
	default:
		return false
	}
}

// String returns the single digit used in ASCOD codes.
func (g Grade) String() string {
	return strconv.Itoa(int(g))
}

// Meaning returns a human-readable description of the grade.
func (g Grade) Meaning() string {
	switch g {
	case GradeAbsent:
		return "Doença ausente"
	case GradeCausal:
		return "Potencialmente causal"
	case GradeUncertain:
		return "Ligação causal incerta"
	case GradeUnlikely:
		return "Ligação causal improvável, mas doença presente"
	case GradeIncomplete:
		return "Avaliação incompleta"
	default:
		return "Grau desconhecido"
	}
}

// ParseGrade parses a grade token. It accepts a bare digit ("1") or a digit
// prefixed with its category letter ("A1").
func ParseGrade(s string) (Grade, error) {
	s = strings.TrimSpace(s)
	if len(s) == 2 && Category(strings.ToUpper(s[:1])).IsValid() {
		s = s[1:]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidGrade, s)
	}
	g := Grade(n)
	if !g.IsValid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidGrade, n)
	}
	return g, nil
}

// ToastClass is a TOAST etiology label such as "2" or "5a".
type ToastClass string

const (
	ToastLargeArtery        ToastClass = "1"
	ToastCardioembolic      ToastClass = "2"
	ToastSmallVessel        ToastClass = "3"
	ToastOtherDetermined    ToastClass = "4"
	ToastUndetermined       ToastClass = "5"
	ToastTwoOrMoreCauses    ToastClass = "5a"
	ToastNegativeEvaluation ToastClass = "5b"
	ToastIncompleteWorkup   ToastClass = "5c"
)

// IsValid reports whether t is one of the TOAST classes the rulebook defines.
func (t ToastClass) IsValid() bool {
	switch t {
	case ToastLargeArtery, ToastCardioembolic, ToastSmallVessel, ToastOtherDetermined,
		ToastUndetermined, ToastTwoOrMoreCauses, ToastNegativeEvaluation, ToastIncompleteWorkup:
		return true
	default:
		return false
	}
}

// Code returns the canonical short code, e.g. "TOAST 5a".
func (t ToastClass) Code() string {
	return "TOAST " + string(t)
}

// Name returns the Portuguese name of the class.
func (t ToastClass) Name() string {
	switch t {
	case ToastLargeArtery:
		return "Aterosclerose de grandes artérias"
	case ToastCardioembolic:
		return "Cardioembólico"
	case ToastSmallVessel:
		return "Oclusão de pequenas artérias"
	case ToastOtherDetermined:
		return "Outra etiologia determinada"
	case ToastUndetermined:
		return "Etiologia indeterminada"
	case ToastTwoOrMoreCauses:
		return "Etiologia indeterminada: duas ou mais causas"
	case ToastNegativeEvaluation:
		return "Etiologia indeterminada: avaliação negativa (criptogênico)"
	case ToastIncompleteWorkup:
		return "Etiologia indeterminada: avaliação incompleta"
	default:
		return "Classe desconhecida"
	}
}

// ParseToastClass parses "TOAST 5a", "5A", "3" and similar forms.
func ParseToastClass(s string) (ToastClass, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSpace(strings.TrimPrefix(s, "toast"))
	t := ToastClass(s)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidToastClass, s)
	}
	return t, nil
}

// InputType identifies how a classification request supplies clinical data.
type InputType string

const (
	InputText       InputType = "text"
	InputStructured InputType = "structured"
)

// IsValid validates the input type.
func (it InputType) IsValid() bool {
	switch it {
	case InputText, InputStructured:
		return true
	default:
		return false
	}
}
