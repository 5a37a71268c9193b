// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package decisionlog

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
)

// DefaultSubject is the NATS subject decisions are published on.
const DefaultSubject = "authzgate.decisions"

// NATSSink publishes events as JSON on a NATS subject.
type NATSSink struct {
	nc      *nats.Conn
	subject string
}

// NewNATSSink connects to natsURL. The connection retries in the
// background, so a broker that is briefly down does not block startup.
func NewNATSSink(natsURL, subject string) (*NATSSink, error) {
	if natsURL == "" {
		return nil, errors.New("nats url is required")
	}
	if subject == "" {
		subject = DefaultSubject
	}

	nc, err := nats.Connect(natsURL,
		nats.Name("authzgate-decisionlog"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &NATSSink{nc: nc, subject: subject}, nil
}

// Name implements Sink.
func (s *NATSSink) Name() string { return "nats" }

// Subject returns the publish subject.
func (s *NATSSink) Subject() string { return s.subject }

// Write implements Sink.
func (s *NATSSink) Write(event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal decision event: %w", err)
	}
	if err := s.nc.Publish(s.subject, data); err != nil {
		return fmt.Errorf("publish decision event: %w", err)
	}
	return nil
}

// Close flushes pending publishes and closes the connection.
func (s *NATSSink) Close() error {
	if s.nc.IsClosed() {
		return nil
	}
	var err error
	if s.nc.IsConnected() {
		err = s.nc.FlushTimeout(2 * time.Second)
	}
	s.nc.Close()
	if err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("flush NATS connection: %w", err)
	}
	return nil
}
