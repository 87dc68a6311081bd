// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and validates the client configuration.
//
// Configuration lives in ~/.restitution/config.toml. Values not present in
// the file keep their defaults, and a handful of RESTITUTION_* environment
// variables override the file for scripted use. Validation rejects values
// the rest of the program cannot honor (unknown strategy names, negative
// durations) instead of letting them surface later as odd behavior.
//
// # Key Types
//
//   - Config: the full configuration tree
//   - ValidationError / ValidateErrors: field-level validation failures
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
package config
