// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

package skool

import "errors"

// Sentinel errors returned by the client and the credential selector.
// Callers distinguish "nothing found" from "failed" with errors.Is.
var (
	// ErrNotFound is returned for a 404 when the policy treats
	// not-found as terminal rather than transient.
	ErrNotFound = errors.New("skool: not found")

	// ErrUnauthorized is returned for a 401 when the policy treats
	// unauthorized as terminal rather than transient.
	ErrUnauthorized = errors.New("skool: unauthorized")

	// ErrRetriesExhausted is returned after max_retries transient
	// failures. Callers degrade gracefully: a failed page yields partial
	// results for that collection, not a discarded run.
	ErrRetriesExhausted = errors.New("skool: retries exhausted")

	// ErrNoCredential is returned when every candidate account failed
	// the admin verification. Terminal for that organization's run.
	ErrNoCredential = errors.New("skool: no working admin credential")

	// ErrBuildNotFound is returned when the build identifier cannot be
	// scraped from the platform's landing page.
	ErrBuildNotFound = errors.New("skool: build identifier not found in page")

	// ErrCursorStalled is returned when a listing traversal stops
	// making progress: the upstream repeats a cursor, or an open-ended
	// walk exceeds its iteration cap.
	ErrCursorStalled = errors.New("skool: cursor made no progress")

	// ErrMalformedItem marks a payload item missing a structurally
	// required field. The item is skipped; the traversal continues.
	ErrMalformedItem = errors.New("skool: malformed item")
)
