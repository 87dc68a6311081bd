// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestPollStrategyDelivery(t *testing.T) {
	var pollCalls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case DefaultSubmitPath:
			json.NewEncoder(w).Encode(map[string]any{"success": true, "responseId": "r-42"})
		case DefaultPollPath:
			var req struct {
				ResponseID string `json:"responseId"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			if req.ResponseID != "r-42" {
				t.Errorf("poll responseId = %q, want r-42", req.ResponseID)
			}
			if pollCalls.Add(1) < 2 {
				json.NewEncoder(w).Encode(map[string]any{"success": false})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "Réponse complète."})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	strategy := NewPollStrategy(PollConfig{
		BaseURL:  srv.URL,
		Interval: 10 * time.Millisecond,
		Timeout:  5 * time.Second,
	})
	sess := Open(context.Background(), strategy, Request{Message: "salut", ConversationID: "c1"})

	events := collectEvents(t, sess)
	if len(events) != 2 {
		t.Fatalf("got %d events, want partial+done: %+v", len(events), events)
	}
	if events[0].Kind != EventPartial || events[0].Text != "Réponse complète." {
		t.Errorf("event[0] = %+v, want partial with full text", events[0])
	}
	if events[1].Kind != EventDone || events[1].Text != "Réponse complète." {
		t.Errorf("event[1] = %+v, want done with full text", events[1])
	}
	if pollCalls.Load() < 2 {
		t.Errorf("pollCalls = %d, want at least 2", pollCalls.Load())
	}
}

func TestPollStrategySubmitRejected(t *testing.T) {
	// A refused submission fails immediately: no poll round at all.
	var pollCalls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case DefaultSubmitPath:
			json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "projet invalide"})
		case DefaultPollPath:
			pollCalls.Add(1)
			json.NewEncoder(w).Encode(map[string]any{"success": false})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	strategy := NewPollStrategy(PollConfig{BaseURL: srv.URL, Interval: 10 * time.Millisecond})
	sess := Open(context.Background(), strategy, Request{Message: "salut"})

	events := collectEvents(t, sess)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1: %+v", len(events), events)
	}
	if events[0].Kind != EventError {
		t.Fatalf("event = %+v, want error", events[0])
	}
	if !errors.Is(events[0].Err, ErrSubmitRejected) {
		t.Errorf("error = %v, want ErrSubmitRejected", events[0].Err)
	}
	if !strings.Contains(events[0].Err.Error(), "projet invalide") {
		t.Errorf("error = %v, want server message included", events[0].Err)
	}
	if pollCalls.Load() != 0 {
		t.Errorf("pollCalls = %d, want 0", pollCalls.Load())
	}
}

func TestPollStrategyTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case DefaultSubmitPath:
			json.NewEncoder(w).Encode(map[string]any{"success": true, "responseId": "r-1"})
		default:
			json.NewEncoder(w).Encode(map[string]any{"success": false})
		}
	}))
	defer srv.Close()

	strategy := NewPollStrategy(PollConfig{
		BaseURL:  srv.URL,
		Interval: 10 * time.Millisecond,
		Timeout:  80 * time.Millisecond,
	})
	sess := Open(context.Background(), strategy, Request{Message: "salut"})

	events := collectEvents(t, sess)
	final := events[len(events)-1]
	if final.Kind != EventError {
		t.Fatalf("terminal event = %v, want error", final.Kind)
	}
	if !errors.Is(final.Err, ErrPollTimeout) {
		t.Errorf("error = %v, want ErrPollTimeout", final.Err)
	}
}

func TestPollStrategyDefaults(t *testing.T) {
	p := NewPollStrategy(PollConfig{BaseURL: "http://exemple"})

	if p.interval != DefaultPollInterval {
		t.Errorf("interval = %v, want default", p.interval)
	}
	if p.timeout != DefaultPollTimeout {
		t.Errorf("timeout = %v, want default", p.timeout)
	}
	if p.submitPath != DefaultSubmitPath || p.pollPath != DefaultPollPath {
		t.Error("default paths not applied")
	}
	if p.Name() != "poll" {
		t.Errorf("Name() = %q", p.Name())
	}
}
