package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ASCODEntry is the grade assigned to one ASCOD category
type ASCODEntry struct {
	Category      Category `json:"-"`
	Grade         Grade    `json:"grade"`
	Justification string   `json:"justification"`
}

// ASCODProfile holds exactly one entry per category, in canonical order.
type ASCODProfile struct {
	Entries [5]ASCODEntry
}

// NewIncompleteProfile returns a profile where every category is graded 9.
func NewIncompleteProfile() *ASCODProfile {
	p := &ASCODProfile{}
	for i, cat := range Categories {
		p.Entries[i] = ASCODEntry{Category: cat, Grade: GradeIncomplete}
	}
	return p
}

// Get returns the entry for a category.
func (p *ASCODProfile) Get(c Category) ASCODEntry {
	i := c.index()
	if i < 0 {
		return ASCODEntry{Category: c, Grade: GradeIncomplete}
	}
	return p.Entries[i]
}

// Set replaces the entry for a category.
func (p *ASCODProfile) Set(entry ASCODEntry) error {
	i := entry.Category.index()
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, entry.Category)
	}
	if !entry.Grade.IsValid() {
		return fmt.Errorf("category %s: %w: %d", entry.Category, ErrInvalidGrade, entry.Grade)
	}
	p.Entries[i] = entry
	return nil
}

// MarshalJSON renders the profile as an object keyed by category letter,
// keeping the A, S, C, O, D order.
func (p ASCODProfile) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range p.Entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(string(Categories[i]))
		buf.Write(key)
		buf.WriteByte(':')
		body, err := json.Marshal(entry)
		if err != nil {
			return nil, err
		}
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ToastEntry is the TOAST class assigned by the classifier
type ToastEntry struct {
	Class         ToastClass `json:"classification"`
	Justification string     `json:"justification"`
}

// ClassificationResult is the decoded classifier answer. Either half may be
// absent when the response only carried part of the classification.
type ClassificationResult struct {
	ASCOD    *ASCODProfile `json:"ascod,omitempty"`
	TOAST    *ToastEntry   `json:"toast,omitempty"`
	Strategy string        `json:"strategy"`
}

// IsPartial reports whether one half of the classification is missing.
func (r *ClassificationResult) IsPartial() bool {
	return r.ASCOD == nil || r.TOAST == nil
}

// DecodedCodes are the compact codes derived from a ClassificationResult.
// An empty string means the corresponding half was absent.
type DecodedCodes struct {
	ASCOD string `json:"ascod_code"`
	TOAST string `json:"toast_code"`
}

// ClassificationRequest is what gets sent to the external classifier
type ClassificationRequest struct {
	Rulebook  string
	Narrative string
}

// NewClassificationRequest pairs the fixed rulebook with a narrative.
func NewClassificationRequest(narrative string) ClassificationRequest {
	return ClassificationRequest{
		Rulebook:  Rulebook,
		Narrative: narrative,
	}
}

// Prompt renders the single text block submitted to the classifier. The
// rulebook always comes first and is never altered.
func (r ClassificationRequest) Prompt() string {
	return r.Rulebook + "\n\n" + ClassificationInstruction + "\n\n" + r.Narrative
}

// AnalysisResult is the outcome of one pass through the pipeline
type AnalysisResult struct {
	InputType    InputType
	ClinicalText string
	RawResponse  string
	Result       *ClassificationResult
	Codes        DecodedCodes
}
