// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Poll endpoint defaults.
const (
	DefaultSubmitPath = "/api/addMessageToConversation_ined"
	DefaultPollPath   = "/api/pollResponse_ined"

	// DefaultPollInterval paces the poll loop.
	DefaultPollInterval = 2 * time.Second

	// DefaultPollTimeout bounds the whole wait for one reply.
	DefaultPollTimeout = 3 * time.Minute
)

// =============================================================================
// POLL STRATEGY
// =============================================================================

// PollConfig configures the submit-then-poll delivery strategy.
type PollConfig struct {
	BaseURL    string
	Token      string
	SubmitPath string
	PollPath   string
	Interval   time.Duration
	Timeout    time.Duration
	HTTPClient *http.Client
}

// PollStrategy submits the prompt, then polls until the reply is ready.
// The full reply arrives at once: one partial event carrying the whole
// text, then done, so consumers see the same shape as a stream.
type PollStrategy struct {
	baseURL    string
	token      string
	submitPath string
	pollPath   string
	interval   time.Duration
	timeout    time.Duration
	client     *http.Client
}

// NewPollStrategy creates a poll delivery strategy.
func NewPollStrategy(cfg PollConfig) *PollStrategy {
	p := &PollStrategy{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		submitPath: cfg.SubmitPath,
		pollPath:   cfg.PollPath,
		interval:   cfg.Interval,
		timeout:    cfg.Timeout,
		client:     cfg.HTTPClient,
	}
	if p.submitPath == "" {
		p.submitPath = DefaultSubmitPath
	}
	if p.pollPath == "" {
		p.pollPath = DefaultPollPath
	}
	if p.interval <= 0 {
		p.interval = DefaultPollInterval
	}
	if p.timeout <= 0 {
		p.timeout = DefaultPollTimeout
	}
	if p.client == nil {
		p.client = &http.Client{Timeout: 30 * time.Second}
	}
	return p
}

// Name identifies the strategy.
func (p *PollStrategy) Name() string {
	return "poll"
}

// Deliver submits the prompt and polls for the reply. A refused
// submission terminates immediately with an error event and no poll round.
func (p *PollStrategy) Deliver(ctx context.Context, req Request, emit func(Event)) {
	responseID, err := p.submit(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		emit(Event{Kind: EventError, Err: err})
		return
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(p.interval), 1)
	for {
		// Wait fails fast when the next slot would land past the
		// deadline, so treat any non-cancel failure as a timeout.
		if err := limiter.Wait(ctx); err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return
			}
			emit(Event{Kind: EventError, Err: ErrPollTimeout})
			return
		}

		text, ready, err := p.poll(ctx, responseID)
		if err != nil {
			if ctx.Err() != nil {
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					emit(Event{Kind: EventError, Err: ErrPollTimeout})
				}
				return
			}
			emit(Event{Kind: EventError, Err: err})
			return
		}
		if ready {
			emit(Event{Kind: EventPartial, Text: text})
			emit(Event{Kind: EventDone, Text: text})
			return
		}
	}
}

// submit posts the prompt and returns the response identifier to poll.
func (p *PollStrategy) submit(ctx context.Context, req Request) (string, error) {
	var result struct {
		Success    bool   `json:"success"`
		ResponseID string `json:"responseId"`
		Message    string `json:"message"`
	}
	if err := p.post(ctx, p.submitPath, req, &result); err != nil {
		return "", fmt.Errorf("soumission du message: %w", err)
	}
	if !result.Success || result.ResponseID == "" {
		if result.Message != "" {
			return "", fmt.Errorf("%w : %s", ErrSubmitRejected, result.Message)
		}
		return "", ErrSubmitRejected
	}
	return result.ResponseID, nil
}

// poll asks whether the reply for responseID is ready.
func (p *PollStrategy) poll(ctx context.Context, responseID string) (string, bool, error) {
	payload := struct {
		ResponseID string `json:"responseId"`
	}{ResponseID: responseID}

	var result struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := p.post(ctx, p.pollPath, payload, &result); err != nil {
		return "", false, fmt.Errorf("interrogation de la réponse: %w", err)
	}
	if result.Success && result.Message != "" {
		return result.Message, true, nil
	}
	return "", false, nil
}

// post sends a JSON request and decodes the JSON response.
func (p *PollStrategy) post(ctx context.Context, path string, body, out any) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("statut %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out)
}
