// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package policy

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrNotReady is returned by Holder.Module while no module is loaded.
	ErrNotReady = errors.New("policy not ready")
	// ErrAlreadySettled is returned when a Holder is settled a second time.
	ErrAlreadySettled = errors.New("policy state already settled")
)

// State is the policy load state.
type State int32

// Load states.
const (
	Unloaded State = iota
	Loaded
	FailedToLoad
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loaded:
		return "loaded"
	case FailedToLoad:
		return "failed"
	default:
		return "unknown"
	}
}

type snapshot struct {
	state     State
	module    Module
	err       error
	settledAt time.Time
}

// Holder owns the policy load state. One writer settles it; any number of
// readers observe it without locks.
type Holder struct {
	current atomic.Pointer[snapshot]
	ready   chan struct{}
	once    sync.Once
}

// NewHolder returns a Holder in the Unloaded state.
func NewHolder() *Holder {
	h := &Holder{ready: make(chan struct{})}
	h.current.Store(&snapshot{state: Unloaded})
	return h
}

// State returns the current load state.
func (h *Holder) State() State {
	return h.current.Load().state
}

// Module returns the loaded module, or ErrNotReady (wrapping the load error
// when loading failed).
func (h *Holder) Module() (Module, error) {
	s := h.current.Load()
	switch s.state {
	case Loaded:
		return s.module, nil
	case FailedToLoad:
		return nil, fmt.Errorf("%w: %w", ErrNotReady, s.err)
	default:
		return nil, ErrNotReady
	}
}

// Err returns the load error after FailedToLoad, otherwise nil.
func (h *Holder) Err() error {
	return h.current.Load().err
}

// SettledAt returns when the state settled, or the zero time.
func (h *Holder) SettledAt() time.Time {
	return h.current.Load().settledAt
}

// Ready returns a channel closed once the state leaves Unloaded.
func (h *Holder) Ready() <-chan struct{} {
	return h.ready
}

// MarkLoaded publishes m and settles the holder as Loaded.
func (h *Holder) MarkLoaded(m Module) error {
	if m == nil {
		return h.MarkFailed(errors.New("nil policy module"))
	}
	return h.settle(&snapshot{state: Loaded, module: m, settledAt: time.Now()})
}

// MarkFailed settles the holder as FailedToLoad.
func (h *Holder) MarkFailed(err error) error {
	if err == nil {
		err = errors.New("policy load failed")
	}
	return h.settle(&snapshot{state: FailedToLoad, err: err, settledAt: time.Now()})
}

func (h *Holder) settle(next *snapshot) error {
	settled := false
	h.once.Do(func() {
		h.current.Store(next)
		close(h.ready)
		settled = true
	})
	if !settled {
		return ErrAlreadySettled
	}
	return nil
}
