// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultStreamPath is the streaming submission endpoint.
const DefaultStreamPath = "/api/addMessageToConversation_ined_stream"

// defaultStreamClient is shared across deliveries for connection pooling.
// No client timeout: stream lifetime is bounded by the request context.
var defaultStreamClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	},
}

// =============================================================================
// SSE READER
// =============================================================================

// SSEReader parses Server-Sent Events frames from a stream.
type SSEReader struct {
	reader *bufio.Reader
}

// NewSSEReader creates an SSE reader from an io.Reader.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{reader: bufio.NewReader(r)}
}

// ReadFrame reads the next frame: an event name plus its data lines joined
// with newlines. Frames end at a blank line; both LF and CRLF delimiters
// are accepted. A frame still buffered when the stream ends is returned
// before io.EOF.
func (s *SSEReader) ReadFrame() (string, string, error) {
	var name string
	var dataLines []string

	flush := func() (string, string, bool) {
		if name == "" && len(dataLines) == 0 {
			return "", "", false
		}
		return name, strings.Join(dataLines, "\n"), true
	}

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				parseFrameLine(strings.TrimRight(line, "\r\n"), &name, &dataLines)
				if n, d, ok := flush(); ok {
					return n, d, nil
				}
				return "", "", io.EOF
			}
			return "", "", err
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if n, d, ok := flush(); ok {
				return n, d, nil
			}
			continue
		}

		parseFrameLine(line, &name, &dataLines)
	}
}

// parseFrameLine handles one field line. Per the SSE format, exactly one
// space after the data colon is separator, anything beyond is payload.
func parseFrameLine(line string, name *string, dataLines *[]string) {
	switch {
	case strings.HasPrefix(line, "event:"):
		*name = strings.TrimSpace(line[len("event:"):])
	case strings.HasPrefix(line, "data:"):
		value := line[len("data:"):]
		if strings.HasPrefix(value, " ") {
			value = value[1:]
		}
		*dataLines = append(*dataLines, value)
	}
	// id:, retry: and comment lines are ignored.
}

// =============================================================================
// STREAM STRATEGY
// =============================================================================

// StreamConfig configures the SSE delivery strategy.
type StreamConfig struct {
	BaseURL    string
	Token      string
	Path       string
	HTTPClient *http.Client
}

// StreamStrategy delivers replies over the backend's SSE endpoint.
type StreamStrategy struct {
	baseURL string
	token   string
	path    string
	client  *http.Client
}

// NewStreamStrategy creates an SSE delivery strategy.
func NewStreamStrategy(cfg StreamConfig) *StreamStrategy {
	s := &StreamStrategy{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		path:    cfg.Path,
		client:  cfg.HTTPClient,
	}
	if s.path == "" {
		s.path = DefaultStreamPath
	}
	if s.client == nil {
		s.client = defaultStreamClient
	}
	return s
}

// Name identifies the strategy.
func (s *StreamStrategy) Name() string {
	return "stream"
}

// Deliver submits the prompt and relays delta frames until the server
// signals done or error. A connection that drops mid-stream still yields
// a done event with whatever accumulated, flagged Incomplete.
func (s *StreamStrategy) Deliver(ctx context.Context, req Request, emit func(Event)) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		emit(Event{Kind: EventError, Err: fmt.Errorf("encodage de la requête: %w", err)})
		return
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+s.path, bytes.NewReader(bodyBytes))
	if err != nil {
		emit(Event{Kind: EventError, Err: fmt.Errorf("création de la requête: %w", err)})
		return
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")
	if s.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		emit(Event{Kind: EventError, Err: fmt.Errorf("requête de streaming: %w", err)})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		emit(Event{Kind: EventError, Err: fmt.Errorf("statut %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))})
		return
	}

	s.relay(ctx, resp.Body, emit)
}

// relay reads frames and translates them to events.
func (s *StreamStrategy) relay(ctx context.Context, body io.Reader, emit func(Event)) {
	reader := NewSSEReader(body)
	var accumulated strings.Builder

	for {
		if ctx.Err() != nil {
			return
		}

		name, data, err := reader.ReadFrame()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// Stream ended without a terminal frame.
			if accumulated.Len() > 0 {
				emit(Event{Kind: EventDone, Text: accumulated.String(), Incomplete: true})
			} else if err == io.EOF {
				emit(Event{Kind: EventError, Err: ErrStreamTruncated})
			} else {
				emit(Event{Kind: EventError, Err: fmt.Errorf("lecture du flux: %w", err)})
			}
			return
		}

		switch name {
		case "delta":
			accumulated.WriteString(data)
			emit(Event{Kind: EventPartial, Text: data})
		case "done":
			emit(Event{Kind: EventDone, Text: accumulated.String()})
			return
		case "error":
			emit(Event{Kind: EventError, Err: parseStreamError(data)})
			return
		}
		// Unknown frame names are ignored.
	}
}

// parseStreamError extracts the server's message from an error frame.
// The payload is usually {"message": "..."}; anything else is used raw.
func parseStreamError(data string) error {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(data), &payload); err == nil && payload.Message != "" {
		return fmt.Errorf("erreur streaming : %s", payload.Message)
	}
	if strings.TrimSpace(data) == "" {
		return ErrStreamTruncated
	}
	return fmt.Errorf("erreur streaming : %s", strings.TrimSpace(data))
}
