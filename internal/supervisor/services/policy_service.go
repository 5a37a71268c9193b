// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package services

import (
	"context"
	"errors"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/authzgate/internal/logging"
	"github.com/tomtom215/authzgate/internal/policy"
)

// PolicyLoaderService settles a policy Holder exactly once.
//
// Serve always returns suture.ErrDoNotRestart: a failed load leaves the
// holder in FailedToLoad and the edge keeps rejecting requests until the
// process is restarted.
type PolicyLoaderService struct {
	holder *policy.Holder
	load   policy.LoadFunc
}

// NewPolicyLoaderService returns a loader for holder.
func NewPolicyLoaderService(holder *policy.Holder, load policy.LoadFunc) *PolicyLoaderService {
	return &PolicyLoaderService{holder: holder, load: load}
}

// Serve implements suture.Service.
func (s *PolicyLoaderService) Serve(ctx context.Context) error {
	err := policy.Load(ctx, s.holder, s.load)
	if errors.Is(err, policy.ErrAlreadySettled) {
		logging.Warn().Str("state", s.holder.State().String()).Msg("Policy loader invoked after state settled; ignoring")
	}
	return suture.ErrDoNotRestart
}

// String implements fmt.Stringer.
func (s *PolicyLoaderService) String() string {
	return "policy-loader"
}
