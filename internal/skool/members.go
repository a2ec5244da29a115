// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

/*
members.go - Member Listing Extraction

Members are served by a page-number-paginated _next/data endpoint with
one tab per membership status. Page 1 doubles as the total-count probe;
the remaining pages are derived from the probe and fetched through the
generic page traversal.

A stale build identifier surfaces as a 404 on the first page; the build
manager refreshes and retries before the 404 is accepted as real.
*/
package skool

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/PATRICK079/skool-data/internal/logging"
	"github.com/PATRICK079/skool-data/internal/models"
)

// MemberTotals are the listing counters from the members endpoint.
type MemberTotals struct {
	Active     int
	Churned    int
	Cancelling int
}

func (t MemberTotals) forTab(status models.MembershipStatus) int {
	switch status {
	case models.StatusChurned:
		return t.Churned
	case models.StatusCancelling:
		return t.Cancelling
	default:
		return t.Active
	}
}

func tabParam(status models.MembershipStatus) string {
	switch status {
	case models.StatusChurned:
		return "churned"
	case models.StatusCancelling:
		return "cancelling"
	default:
		return "active"
	}
}

// FetchMembers retrieves the full member listing for one membership
// status tab. Malformed member records are skipped and logged; the
// listing continues. On a mid-listing page failure the members gathered
// so far are returned with the error.
func (a *API) FetchMembers(ctx context.Context, cred models.Credential, community string, status models.MembershipStatus) ([]*models.Member, MemberTotals, error) {
	var (
		members []*models.Member
		totals  MemberTotals
	)
	err := a.builds.WithBuild(ctx, community, func(buildID string) error {
		first, err := a.fetchMembersPage(ctx, cred, community, buildID, status, 1)
		if err != nil {
			return err
		}
		totals = MemberTotals{
			Active:     first.PageProps.TotalMembers,
			Churned:    first.PageProps.TotalChurned,
			Cancelling: first.PageProps.TotalCancelling,
		}
		members = a.convertMembers(community, status, first.PageProps.Users)

		total := totals.forTab(status)
		rest, err := FetchPages(ctx, total, a.pageSize, a.pageConcurrency, func(ctx context.Context, page int) ([]*models.Member, error) {
			if page == 1 {
				return nil, nil // already fetched as the probe
			}
			pageResp, err := a.fetchMembersPage(ctx, cred, community, buildID, status, page)
			if err != nil {
				return nil, err
			}
			return a.convertMembers(community, status, pageResp.PageProps.Users), nil
		})
		members = append(members, rest...)
		return err
	})
	return members, totals, err
}

func (a *API) fetchMembersPage(ctx context.Context, cred models.Credential, community, buildID string, status models.MembershipStatus, page int) (*MembersPage, error) {
	params := url.Values{}
	params.Set("p", strconv.Itoa(page))
	params.Set("t", tabParam(status))
	params.Set("group", community)
	return callJSON[MembersPage](ctx, a.client, Request{
		Method:   http.MethodGet,
		URL:      fmt.Sprintf("%s/_next/data/%s/%s/-/members.json", a.baseURL, buildID, community),
		Endpoint: "members_page",
		Params:   params,
		Header:   authHeader(cred.Token),
	}, a.policy, func(p *MembersPage) error {
		if p.PageProps.Users == nil && p.PageProps.TotalMembers > 0 && page == 1 {
			return fmt.Errorf("members page without users field: %w", ErrMalformedItem)
		}
		return nil
	})
}

func (a *API) convertMembers(community string, status models.MembershipStatus, records []MemberRecord) []*models.Member {
	out := make([]*models.Member, 0, len(records))
	for i := range records {
		m, err := records[i].ToMember(community, status)
		if err != nil {
			logging.Warn().Str("community", community).Err(err).Msg("skipping malformed member record")
			continue
		}
		out = append(out, m)
	}
	return out
}

// CheckMembership verifies that the credential's account is an admin of
// the community. A 401 or 404 means the account cannot serve and maps
// to (false, nil); other failures are reported as errors so the caller
// can distinguish "not admin" from "could not verify".
func (a *API) CheckMembership(ctx context.Context, cred models.Credential, community string) (bool, error) {
	resp, err := callJSON[MembershipResponse](ctx, a.client, Request{
		Method:   http.MethodGet,
		URL:      fmt.Sprintf("%s/communities/%s/members/%s", a.apiBaseURL, community, cred.Handle),
		Endpoint: "membership_check",
		Params:   nil,
		Header:   authHeader(cred.Token),
	}, a.policy, nil)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnauthorized) {
			return false, nil
		}
		return false, err
	}
	return resp.IsAdmin(), nil
}
