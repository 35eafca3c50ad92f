package service

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ascod-toast-classifier/internal/classifier"
	"github.com/ascod-toast-classifier/internal/codes"
	"github.com/ascod-toast-classifier/internal/decoder"
	"github.com/ascod-toast-classifier/internal/domain"
	"github.com/ascod-toast-classifier/internal/narrative"
	"github.com/ascod-toast-classifier/internal/schema"
)

// BuildAnalyzer wires the pipeline from configuration. Without an API key
// the analyzer is still returned, with the classifier marked unavailable.
func BuildAnalyzer(config domain.ClassifierConfig, logger *logrus.Logger) (*AnalyzerService, error) {
	registry, err := schema.DefaultRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load field registry: %w", err)
	}

	var requester domain.ClassificationRequester
	if strings.TrimSpace(config.APIKey) == "" {
		logger.Warn("GEMINI_API_KEY is not set: classification is disabled, narrative encoding remains available")
	} else {
		requester = classifier.NewResilientRequester(classifier.NewGeminiClient(config), config, logger)
		logger.WithFields(logrus.Fields{
			"model":      config.Model,
			"rate_limit": config.RateLimit,
		}).Info("Classifier configured")
	}

	logger.WithFields(logrus.Fields{
		"schema_version":   registry.Version(),
		"rulebook_version": domain.RulebookVersion,
	}).Debug("Pipeline initialized")

	return NewAnalyzerService(
		logger,
		schema.NewNormalizer(registry),
		narrative.NewEncoder(),
		requester,
		decoder.NewDefaultDecoder(),
		codes.NewFormatter(),
	), nil
}
