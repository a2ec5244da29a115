// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

// Package identity talks to the external identity/metadata provider
// holding per-organization state. Skooldata only reads the community
// slug and reads/writes the last successful scrape account through
// this boundary; identity storage itself stays external.
package identity

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/PATRICK079/skool-data/internal/config"
	"github.com/PATRICK079/skool-data/internal/logging"
)

// OrgMetadata are the organization fields Skooldata uses.
type OrgMetadata struct {
	SkoolSlug             string `json:"skool_slug"`
	LastSuccessfulAccount string `json:"last_successful_scrape_account"`
}

// Client is an HTTP client for the provider's organization metadata
// endpoints.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a client from configuration.
func NewClient(cfg config.IdentityConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// GetOrg fetches an organization's metadata.
func (c *Client) GetOrg(ctx context.Context, orgID string) (*OrgMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/v1/organizations/%s/metadata", c.baseURL, orgID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching metadata for org %s: %w", orgID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching metadata for org %s: status %d", orgID, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var meta OrgMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("decoding metadata for org %s: %w", orgID, err)
	}
	return &meta, nil
}

// LastSuccessfulAccount returns the recorded account handle, empty when
// none is recorded yet.
func (c *Client) LastSuccessfulAccount(ctx context.Context, orgID string) (string, error) {
	meta, err := c.GetOrg(ctx, orgID)
	if err != nil {
		return "", err
	}
	return meta.LastSuccessfulAccount, nil
}

// SetLastSuccessfulAccount records the account handle that last passed
// admin verification for the organization. A single field update, not
// appended history.
func (c *Client) SetLastSuccessfulAccount(ctx context.Context, orgID, handle string) error {
	payload, err := json.Marshal(map[string]string{"last_successful_scrape_account": handle})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch,
		fmt.Sprintf("%s/v1/organizations/%s/metadata", c.baseURL, orgID), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("updating metadata for org %s: %w", orgID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("updating metadata for org %s: status %d", orgID, resp.StatusCode)
	}
	logging.Debug().Str("org", orgID).Str("account", handle).Msg("last successful account recorded")
	return nil
}
