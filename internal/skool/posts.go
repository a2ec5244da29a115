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
	"strconv"

	"github.com/PATRICK079/skool-data/internal/logging"
	"github.com/PATRICK079/skool-data/internal/models"
)

// FetchPosts retrieves the community feed as flat content items. The
// feed is page-number paginated with the total reported on page 1.
func (a *API) FetchPosts(ctx context.Context, cred models.Credential, community string) ([]*models.ContentItem, error) {
	var posts []*models.ContentItem
	err := a.builds.WithBuild(ctx, community, func(buildID string) error {
		first, err := a.fetchPostsPage(ctx, cred, community, buildID, 1)
		if err != nil {
			return err
		}
		posts = a.convertPosts(community, first.PageProps.Posts)

		rest, err := FetchPages(ctx, first.PageProps.TotalPosts, a.pageSize, a.pageConcurrency, func(ctx context.Context, page int) ([]*models.ContentItem, error) {
			if page == 1 {
				return nil, nil
			}
			resp, err := a.fetchPostsPage(ctx, cred, community, buildID, page)
			if err != nil {
				return nil, err
			}
			return a.convertPosts(community, resp.PageProps.Posts), nil
		})
		posts = append(posts, rest...)
		return err
	})
	return posts, err
}

func (a *API) fetchPostsPage(ctx context.Context, cred models.Credential, community, buildID string, page int) (*PostsPage, error) {
	params := url.Values{}
	params.Set("p", strconv.Itoa(page))
	return callJSON[PostsPage](ctx, a.client, Request{
		Method:   http.MethodGet,
		URL:      fmt.Sprintf("%s/_next/data/%s/%s.json", a.baseURL, buildID, community),
		Endpoint: "posts_page",
		Params:   params,
		Header:   authHeader(cred.Token),
	}, a.policy, nil)
}

func (a *API) convertPosts(community string, records []PostRecord) []*models.ContentItem {
	out := make([]*models.ContentItem, 0, len(records))
	for i := range records {
		item, err := records[i].ToContent(community)
		if err != nil {
			logging.Warn().Str("community", community).Err(err).Msg("skipping malformed post record")
			continue
		}
		out = append(out, item)
	}
	return out
}
