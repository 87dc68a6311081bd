// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the restitution backend.
//
// The backend exposes three surfaces: a JSON login endpoint issuing bearer
// tokens, a GraphQL read side (projects, conversations, transcripts,
// stored files) queried over GET, and REST write endpoints (conversation
// creation, file upload). Streaming delivery lives in the transport
// package; everything request/response shaped is here.
//
// # Key Types
//
//   - Client: authenticated HTTP client, safe for concurrent use
//   - APIError: non-2xx response with the server's message
//   - Project, ConversationRef, RemoteMessage, StoredFile: read models
//
// # Usage
//
//	client := api.NewClient("https://restitution.example.com")
//	res, err := client.Login(ctx, email, password, projectID)
//	if err != nil {
//	    // errors.Is(err, api.ErrAuthFailed) for bad credentials
//	}
//	convs, err := client.Conversations(ctx)
package api
