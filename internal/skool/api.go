// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

package skool

import (
	"context"
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"
)

// callJSON executes one upstream call and decodes the body into T. The
// optional validate hook rejects structurally incomplete payloads before
// they reach callers. Terminal outcomes pass the client's sentinel error
// through unchanged so callers can errors.Is on it.
func callJSON[T any](ctx context.Context, c *Client, req Request, policy Policy, validate func(*T) error) (*T, error) {
	res, err := c.Do(ctx, req, policy)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(res.Body, &v); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", req.Endpoint, err)
	}
	if validate != nil {
		if err := validate(&v); err != nil {
			return nil, fmt.Errorf("validating %s response: %w", req.Endpoint, err)
		}
	}
	return &v, nil
}

// authHeader builds the bearer header for a credential token.
func authHeader(token string) http.Header {
	h := make(http.Header)
	h.Set("Authorization", "Bearer "+token)
	h.Set("Accept", "application/json")
	return h
}
