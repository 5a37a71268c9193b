// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package decision

import (
	"errors"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/authzgate/internal/logging"
	"github.com/tomtom215/authzgate/internal/metrics"
)

// BreakerSettings configures the engine circuit breaker.
type BreakerSettings struct {
	Name                string
	MaxRequests         uint32        // requests allowed in half-open state
	Interval            time.Duration // closed-state count reset period
	Timeout             time.Duration // open -> half-open delay
	ConsecutiveFailures uint32        // unreachable outcomes in a row that open the circuit
}

// Breaker wraps a gobreaker circuit breaker and keeps its metrics current.
type Breaker struct {
	cb   *gobreaker.CircuitBreaker[json.RawMessage]
	name string
}

// NewBreaker creates a breaker. Only KindUnreachable failures count against it.
func NewBreaker(s BreakerSettings) *Breaker {
	if s.Name == "" {
		s.Name = "decision-engine"
	}
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}

	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)

	threshold := s.ConsecutiveFailures
	cb := gobreaker.NewCircuitBreaker[json.RawMessage](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			shouldTrip := counts.ConsecutiveFailures >= threshold
			if shouldTrip {
				logging.Warn().
					Str("breaker", s.Name).
					Uint32("consecutive_failures", counts.ConsecutiveFailures).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},
		IsSuccessful: func(err error) bool {
			var f *Failure
			if errors.As(err, &f) {
				return f.Kind != KindUnreachable
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &Breaker{cb: cb, name: s.Name}
}

// Execute runs fn through the breaker. A rejected call returns a KindUnreachable failure.
func (b *Breaker) Execute(fn func() (json.RawMessage, error)) (json.RawMessage, error) {
	result, err := b.cb.Execute(fn)
	if err == nil {
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
		return result, nil
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		return nil, unreachable(err)
	}

	var f *Failure
	if errors.As(err, &f) && f.Kind != KindUnreachable {
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	} else {
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
	}
	return nil, err
}

// State returns the breaker state as closed, half-open or open.
func (b *Breaker) State() string {
	return stateToString(b.cb.State())
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
