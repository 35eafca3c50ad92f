package domain

import (
	"context"
)

// RecordNormalizer turns a loosely-typed field map into a ClinicalRecord
type RecordNormalizer interface {
	Normalize(raw map[string]interface{}) (ClinicalRecord, error)
}

// ClinicalRecord is a normalized set of findings keyed by registry field name.
type ClinicalRecord interface {
	Bool(name string) bool
	Int(name string) (int, bool)
	Enum(name string) string
}

// NarrativeEncoder renders a ClinicalRecord as clinical narrative text
type NarrativeEncoder interface {
	Encode(record ClinicalRecord) string
}

// ClassificationRequester submits a request to the external classifier and
// returns its raw text answer unmodified.
type ClassificationRequester interface {
	Classify(ctx context.Context, req ClassificationRequest) (string, error)
}

// ResponseDecoder turns raw classifier text into a ClassificationResult
type ResponseDecoder interface {
	Decode(raw string) (*ClassificationResult, error)
}

// CodeFormatter derives the compact codes from a ClassificationResult
type CodeFormatter interface {
	Format(result *ClassificationResult) DecodedCodes
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetClassifierConfig() *ClassifierConfig
	Reload() error
	Validate() error
	IsProduction() bool
	IsDevelopment() bool
}
