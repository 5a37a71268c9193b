// Authzgate - Authorization Gateway and Edge Policy Enforcement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authzgate

package decisionlog

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

func startTestNATSServer(t *testing.T) *server.Server {
	t.Helper()

	ns, err := server.NewServer(&server.Options{
		Host:   "127.0.0.1",
		Port:   -1,
		NoLog:  true,
		NoSigs: true,
	})
	if err != nil {
		t.Fatalf("create NATS server: %v", err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}
	t.Cleanup(ns.Shutdown)
	return ns
}

func TestNATSSink_PublishesEvents(t *testing.T) {
	ns := startTestNATSServer(t)

	sub, err := nats.Connect(ns.ClientURL())
	if err != nil {
		t.Fatalf("connect subscriber: %v", err)
	}
	defer sub.Close()

	msgs := make(chan *nats.Msg, 4)
	s, err := sub.ChanSubscribe("test.decisions", msgs)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer func() { _ = s.Unsubscribe() }()
	if err := sub.Flush(); err != nil {
		t.Fatalf("flush subscriber: %v", err)
	}

	sink, err := NewNATSSink(ns.ClientURL(), "test.decisions")
	if err != nil {
		t.Fatalf("NewNATSSink() error = %v", err)
	}

	l := New(Config{BufferSize: 4}, sink)
	l.Log(&Event{ID: "evt-1", Mode: "edge", Method: "GET", Path: "/users/alice", Subject: "alice", Allowed: true, Status: 200})
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	select {
	case msg := <-msgs:
		var got Event
		if err := json.Unmarshal(msg.Data, &got); err != nil {
			t.Fatalf("unmarshal published event: %v", err)
		}
		if got.ID != "evt-1" || got.Subject != "alice" || !got.Allowed {
			t.Errorf("published event = %+v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for published decision")
	}
}

func TestNATSSink_DefaultSubject(t *testing.T) {
	ns := startTestNATSServer(t)

	sink, err := NewNATSSink(ns.ClientURL(), "")
	if err != nil {
		t.Fatalf("NewNATSSink() error = %v", err)
	}
	defer func() { _ = sink.Close() }()

	if sink.Subject() != DefaultSubject {
		t.Errorf("Subject() = %q, want %q", sink.Subject(), DefaultSubject)
	}
	if sink.Name() != "nats" {
		t.Errorf("Name() = %q, want nats", sink.Name())
	}
}

func TestNewNATSSink_RequiresURL(t *testing.T) {
	if _, err := NewNATSSink("", "x"); err == nil {
		t.Fatal("expected error for empty URL")
	}
}
