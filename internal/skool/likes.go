// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

package skool

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// FetchLikers retrieves the user IDs of everyone who liked a subject
// (post or comment) via the cursor-paginated vote-users listing.
func (a *API) FetchLikers(ctx context.Context, token, subjectID string) ([]string, error) {
	return FetchCursor(ctx, func(ctx context.Context, cursor string) ([]string, string, error) {
		params := url.Values{}
		if cursor != "" {
			params.Set("cursor", cursor)
		}
		page, err := callJSON[LikersPage](ctx, a.client, Request{
			Method:   http.MethodGet,
			URL:      fmt.Sprintf("%s/content/%s/vote-users", a.apiBaseURL, subjectID),
			Endpoint: "vote_users",
			Params:   params,
			Header:   authHeader(token),
		}, a.policy, nil)
		if err != nil {
			return nil, "", err
		}
		ids := make([]string, 0, len(page.Users))
		for _, u := range page.Users {
			if u.ID == "" {
				continue
			}
			ids = append(ids, u.ID)
		}
		next := page.Cursor
		if !page.HasMore {
			next = ""
		}
		return ids, next, nil
	})
}
