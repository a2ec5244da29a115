// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

/*
credentials.go - Credential Selector

Picks a working admin credential for an organization's community. The
last successful account, persisted through the external identity
collaborator, is tried first as a hint but never trusted blindly: admin
status can change between runs, so every candidate is verified with a
membership check before use. The remaining configured accounts are
tried in their fixed configuration order.
*/
package skool

import (
	"context"
	"fmt"

	"github.com/PATRICK079/skool-data/internal/config"
	"github.com/PATRICK079/skool-data/internal/logging"
	"github.com/PATRICK079/skool-data/internal/models"
)

// MembershipChecker verifies a credential's admin status against a
// community. Satisfied by *API.
type MembershipChecker interface {
	CheckMembership(ctx context.Context, cred models.Credential, community string) (bool, error)
}

// OrgMetadata is the boundary to the external identity/metadata store
// holding per-organization state. The selector only reads and writes
// the last successful account field through it.
type OrgMetadata interface {
	LastSuccessfulAccount(ctx context.Context, orgID string) (string, error)
	SetLastSuccessfulAccount(ctx context.Context, orgID, handle string) error
}

// CredentialSelector picks an admin credential per organization run.
type CredentialSelector struct {
	accounts []config.AccountConfig
	checker  MembershipChecker
	meta     OrgMetadata
}

// NewCredentialSelector builds a selector over the configured accounts.
// Account order is the fixed candidate priority.
func NewCredentialSelector(accounts []config.AccountConfig, checker MembershipChecker, meta OrgMetadata) *CredentialSelector {
	return &CredentialSelector{accounts: accounts, checker: checker, meta: meta}
}

// Select returns the first configured account that authenticates and is
// confirmed admin of the organization's community, recording it as the
// new last-successful account. ErrNoCredential when every candidate
// fails; callers must treat that as terminal for the organization's
// run.
func (s *CredentialSelector) Select(ctx context.Context, orgID, community string) (models.Credential, error) {
	lastHandle, err := s.meta.LastSuccessfulAccount(ctx, orgID)
	if err != nil {
		logging.Warn().Str("org", orgID).Err(err).Msg("could not read last successful account, trying all candidates")
		lastHandle = ""
	}

	for _, acct := range s.candidates(lastHandle) {
		cred := models.Credential{Handle: acct.Handle, Token: acct.Token, OrgID: orgID}
		ok, err := s.checker.CheckMembership(ctx, cred, community)
		if err != nil {
			logging.Warn().
				Str("org", orgID).
				Str("account", acct.Handle).
				Err(err).
				Msg("admin verification failed, trying next candidate")
			continue
		}
		if !ok {
			logging.Debug().
				Str("org", orgID).
				Str("account", acct.Handle).
				Msg("account is not a community admin")
			continue
		}
		if acct.Handle != lastHandle {
			if err := s.meta.SetLastSuccessfulAccount(ctx, orgID, acct.Handle); err != nil {
				// The credential still works; a stale hint only costs
				// extra verification next run.
				logging.Warn().Str("org", orgID).Err(err).Msg("could not persist last successful account")
			}
		}
		return cred, nil
	}
	return models.Credential{}, fmt.Errorf("organization %s: %w", orgID, ErrNoCredential)
}

// candidates orders the configured accounts with the last successful
// one first, then the rest in configuration order.
func (s *CredentialSelector) candidates(lastHandle string) []config.AccountConfig {
	if lastHandle == "" {
		return s.accounts
	}
	ordered := make([]config.AccountConfig, 0, len(s.accounts))
	for _, acct := range s.accounts {
		if acct.Handle == lastHandle {
			ordered = append(ordered, acct)
			break
		}
	}
	if len(ordered) == 0 {
		// The recorded account is no longer configured.
		return s.accounts
	}
	for _, acct := range s.accounts {
		if acct.Handle != lastHandle {
			ordered = append(ordered, acct)
		}
	}
	return ordered
}
