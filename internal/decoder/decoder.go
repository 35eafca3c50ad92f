// Package decoder turns raw classifier text into classification results.
package decoder

import (
	"errors"

	"github.com/ascod-toast-classifier/internal/domain"
)

// Strategy is one way of reading a classifier response.
type Strategy interface {
	Name() string
	Decode(raw string) (*domain.ClassificationResult, error)
}

// ProbingDecoder tries strategies in order. A strategy reporting
// domain.ErrNotStructured passes the response on to the next one; any other
// error is final.
type ProbingDecoder struct {
	strategies []Strategy
}

// NewProbingDecoder creates a decoder over the given strategies
func NewProbingDecoder(strategies ...Strategy) *ProbingDecoder {
	return &ProbingDecoder{strategies: strategies}
}

// NewDefaultDecoder returns the structured strategy with pattern fallback.
func NewDefaultDecoder() *ProbingDecoder {
	return NewProbingDecoder(NewStructuredStrategy(), NewPatternStrategy())
}

// Decode runs the strategy chain. Every error is a *domain.DecodeError
// carrying raw.
func (d *ProbingDecoder) Decode(raw string) (*domain.ClassificationResult, error) {
	lastErr := error(domain.NewDecodeError("no decoding strategy configured", raw, domain.ErrNoCodes))
	for _, s := range d.strategies {
		result, err := s.Decode(raw)
		if err == nil {
			if result.Strategy == "" {
				result.Strategy = s.Name()
			}
			return result, nil
		}
		lastErr = asDecodeError(err, raw)
		if !errors.Is(err, domain.ErrNotStructured) {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func asDecodeError(err error, raw string) error {
	var decodeErr *domain.DecodeError
	if errors.As(err, &decodeErr) {
		if decodeErr.Raw == "" {
			decodeErr.Raw = raw
		}
		return err
	}
	return domain.NewDecodeError("decode failed", raw, err)
}
