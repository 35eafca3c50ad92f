package classifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/ascod-toast-classifier/internal/domain"
)

// ResilientRequester wraps a requester with a rate limiter and a circuit
// breaker. It never retries: one Classify call makes at most one upstream call.
type ResilientRequester struct {
	next    domain.ClassificationRequester
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewResilientRequester creates a resilient requester from configuration
func NewResilientRequester(next domain.ClassificationRequester, config domain.ClassifierConfig, logger *logrus.Logger) *ResilientRequester {
	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 1
	}

	bc := config.Breaker
	if bc.MaxRequests == 0 {
		bc.MaxRequests = 1
	}
	if bc.Interval == 0 {
		bc.Interval = 60 * time.Second
	}
	if bc.Timeout == 0 {
		bc.Timeout = 30 * time.Second
	}
	if bc.MinRequests == 0 {
		bc.MinRequests = 5
	}
	if bc.FailureRatio <= 0 {
		bc.FailureRatio = 0.6
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "classifier",
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= bc.MinRequests && failureRatio >= bc.FailureRatio
		},
		// a caller giving up is not an upstream failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger == nil {
				return
			}
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &ResilientRequester{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
		breaker: breaker,
	}
}

// Classify waits for the rate limiter under ctx, then calls through the breaker.
func (r *ResilientRequester) Classify(ctx context.Context, req domain.ClassificationRequest) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", domain.NewRequestFailedError(fmt.Errorf("rate limit wait failed: %w", err), 0)
	}

	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.next.Classify(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", domain.NewRequestFailedError(fmt.Errorf("classifier circuit breaker: %w", err), 0)
		}
		var reqErr *domain.RequestFailedError
		if errors.As(err, &reqErr) {
			return "", err
		}
		return "", domain.NewRequestFailedError(err, 0)
	}
	return result.(string), nil
}

// State reports the breaker state, e.g. for health checks.
func (r *ResilientRequester) State() string {
	return r.breaker.State().String()
}
