package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ascod-toast-classifier/internal/domain"
	"github.com/ascod-toast-classifier/internal/logging"
)

// AnalyzerService runs the stroke etiology pipeline: normalize, encode,
// classify, decode and format.
type AnalyzerService struct {
	logger     *logrus.Logger
	normalizer domain.RecordNormalizer
	encoder    domain.NarrativeEncoder
	requester  domain.ClassificationRequester
	decoder    domain.ResponseDecoder
	formatter  domain.CodeFormatter
}

// NewAnalyzerService creates a new analyzer service. A nil requester marks
// the classifier as unavailable; narrative encoding keeps working.
func NewAnalyzerService(
	logger *logrus.Logger,
	normalizer domain.RecordNormalizer,
	encoder domain.NarrativeEncoder,
	requester domain.ClassificationRequester,
	decoder domain.ResponseDecoder,
	formatter domain.CodeFormatter,
) *AnalyzerService {
	return &AnalyzerService{
		logger:     logger,
		normalizer: normalizer,
		encoder:    encoder,
		requester:  requester,
		decoder:    decoder,
		formatter:  formatter,
	}
}

// ClassifierAvailable reports whether Analyze can reach a classifier.
func (s *AnalyzerService) ClassifierAvailable() bool {
	return s.requester != nil
}

// Encode normalizes structured fields and renders the narrative without
// calling the classifier.
func (s *AnalyzerService) Encode(payload map[string]interface{}) (string, error) {
	record, err := s.normalizer.Normalize(payload)
	if err != nil {
		return "", err
	}
	return s.encoder.Encode(record), nil
}

// Analyze classifies one request payload of the form {"type": "text", "text": ...}
// or {"type": "structured", ...fields}.
func (s *AnalyzerService) Analyze(ctx context.Context, payload map[string]interface{}) (*domain.AnalysisResult, error) {
	startTime := time.Now()
	log := logging.FromContext(ctx, s.logger)

	if !s.ClassifierAvailable() {
		return nil, domain.ErrClassifierUnavailable
	}

	inputType, err := resolveInputType(payload)
	if err != nil {
		return nil, err
	}

	narrative, err := s.narrativeFor(inputType, payload)
	if err != nil {
		log.WithFields(logrus.Fields{
			"input_type": inputType,
			"error":      err.Error(),
		}).Warn("Rejected classification input")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"input_type":       inputType,
		"narrative_length": len(narrative),
	}).Info("Starting stroke etiology classification")
	log.WithField("narrative", narrative).Debug("Narrative sent to classifier")

	raw, err := s.requester.Classify(ctx, domain.NewClassificationRequest(narrative))
	if err != nil {
		log.WithError(err).Error("Classifier request failed")
		return nil, err
	}

	result, err := s.decoder.Decode(raw)
	if err != nil {
		log.WithFields(logrus.Fields{
			"response_length": len(raw),
			"error":           err.Error(),
		}).Error("Failed to decode classifier response")
		return nil, err
	}

	codes := s.formatter.Format(result)

	log.WithFields(logrus.Fields{
		"input_type":  inputType,
		"strategy":    result.Strategy,
		"ascod_code":  codes.ASCOD,
		"toast_code":  codes.TOAST,
		"partial":     result.IsPartial(),
		"duration_ms": time.Since(startTime).Milliseconds(),
	}).Info("Classification completed")

	return &domain.AnalysisResult{
		InputType:    inputType,
		ClinicalText: narrative,
		RawResponse:  raw,
		Result:       result,
		Codes:        codes,
	}, nil
}

func (s *AnalyzerService) narrativeFor(inputType domain.InputType, payload map[string]interface{}) (string, error) {
	if inputType == domain.InputStructured {
		return s.Encode(payload)
	}

	value, ok := payload["text"]
	if !ok || value == nil {
		return "", domain.NewValidationError("text", "clinical text is required", nil)
	}
	text, ok := value.(string)
	if !ok {
		return "", domain.NewValidationError("text", "clinical text must be a string", value)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.NewValidationError("text", "clinical text must not be empty", value)
	}
	return text, nil
}

func resolveInputType(payload map[string]interface{}) (domain.InputType, error) {
	if payload == nil {
		return "", domain.NewValidationError("", "request body is required", nil)
	}
	value, ok := payload["type"]
	if !ok {
		return "", domain.NewValidationError("type", "input type is required", nil)
	}
	raw, ok := value.(string)
	if !ok {
		return "", domain.NewValidationError("type", "input type must be a string", value)
	}
	inputType := domain.InputType(strings.ToLower(strings.TrimSpace(raw)))
	if !inputType.IsValid() {
		return "", domain.NewValidationError("type",
			fmt.Sprintf("must be one of: %s, %s", domain.InputText, domain.InputStructured), raw)
	}
	return inputType, nil
}
