// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/authzgate/internal/logging"
	"github.com/tomtom215/authzgate/internal/metrics"
)

// Engine names accepted by Source.Engine.
const (
	EngineRego   = "rego"
	EngineCasbin = "casbin"
)

// Source describes the edge policy to load.
type Source struct {
	Engine string
	Rego   RegoSource
	Casbin CasbinSource
}

// LoadFunc produces a compiled module. It runs at most once per process.
type LoadFunc func(ctx context.Context) (Module, error)

// NewLoadFunc returns the LoadFunc for src.
func NewLoadFunc(src Source) LoadFunc {
	return func(ctx context.Context) (Module, error) {
		switch src.Engine {
		case EngineRego, "":
			return NewRegoModule(ctx, src.Rego)
		case EngineCasbin:
			return NewCasbinModule(src.Casbin)
		default:
			return nil, fmt.Errorf("unknown policy engine %q", src.Engine)
		}
	}
}

// Load runs fn once and settles h with the outcome. It returns
// ErrAlreadySettled if h was settled before, without calling fn. A panic in
// fn settles h as FailedToLoad like any other load error.
func Load(ctx context.Context, h *Holder, fn LoadFunc) error {
	if h.State() != Unloaded {
		return ErrAlreadySettled
	}

	start := time.Now()
	mod, err := callLoad(ctx, fn)
	elapsed := time.Since(start)

	if err != nil {
		if settleErr := h.MarkFailed(err); settleErr != nil {
			return settleErr
		}
		metrics.SetPolicyLoadState(float64(FailedToLoad), elapsed)
		logging.Error().Err(err).Dur("elapsed", elapsed).Msg("Policy failed to load; edge requests will be rejected")
		return err
	}

	if settleErr := h.MarkLoaded(mod); settleErr != nil {
		return settleErr
	}
	metrics.SetPolicyLoadState(float64(Loaded), elapsed)
	logging.Info().Str("policy", mod.Name()).Dur("elapsed", elapsed).Msg("Policy loaded")
	return nil
}

func callLoad(ctx context.Context, fn LoadFunc) (mod Module, err error) {
	defer func() {
		if r := recover(); r != nil {
			mod, err = nil, fmt.Errorf("policy load panicked: %v", r)
		}
	}()
	return fn(ctx)
}
