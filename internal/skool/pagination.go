// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

/*
pagination.go - Generic Traversal Primitives

Two traversal shapes cover every upstream listing:

  - page-number: a total-count probe fixes the page count up front as
    ceil(total/pageSize); an unknown total falls back to fetching until
    an empty page
  - cursor: each response supplies the next opaque cursor; traversal
    ends on an empty cursor or empty result set, with a non-progress
    guard against servers that repeat a cursor

Both degrade gracefully: a page that fails terminally yields the pages
gathered so far plus the error, never a discarded run.
*/
package skool

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// maxTraversalIterations caps any open-ended traversal, cursor or
// until-empty page walk. No real listing comes close; hitting the cap
// means the server is looping.
const maxTraversalIterations = 10000

// PageFetch retrieves one 1-based page of a listing.
type PageFetch[T any] func(ctx context.Context, page int) ([]T, error)

// FetchPages drives a page-number traversal. A non-negative total fixes
// the page count as ceil(total/pageSize); a negative total means
// unknown and pages are fetched sequentially until one comes back
// empty, bounded by the traversal iteration cap.
// concurrency bounds parallel fetches when the count is known;
// values below 1 mean sequential.
//
// On error the items gathered from succeeded pages are returned
// alongside it, in page order.
func FetchPages[T any](ctx context.Context, total, pageSize, concurrency int, fetch PageFetch[T]) ([]T, error) {
	if pageSize < 1 {
		pageSize = 1
	}
	if total < 0 {
		return fetchPagesUntilEmpty(ctx, fetch)
	}

	pages := (total + pageSize - 1) / pageSize
	if pages == 0 {
		return nil, nil
	}
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([][]T, pages)
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for p := 1; p <= pages; p++ {
		g.Go(func() error {
			items, err := fetch(gctx, p)
			if err != nil {
				return err
			}
			mu.Lock()
			results[p-1] = items
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()

	var all []T
	for _, page := range results {
		all = append(all, page...)
	}
	return all, err
}

func fetchPagesUntilEmpty[T any](ctx context.Context, fetch PageFetch[T]) ([]T, error) {
	var all []T
	for page := 1; page <= maxTraversalIterations; page++ {
		items, err := fetch(ctx, page)
		if err != nil {
			return all, err
		}
		if len(items) == 0 {
			return all, nil
		}
		all = append(all, items...)
	}
	return all, ErrCursorStalled
}

// CursorFetch retrieves one batch of a cursor-paginated listing. An
// empty cursor requests the first batch; the returned next cursor is
// empty when the listing is exhausted.
type CursorFetch[T any] func(ctx context.Context, cursor string) (items []T, next string, err error)

// FetchCursor drives a cursor traversal to completion. Termination on
// an empty next cursor is authoritative even when a previously reported
// total was never reached. A repeated cursor or an iteration count past
// the cap returns the items gathered so far with ErrCursorStalled.
func FetchCursor[T any](ctx context.Context, fetch CursorFetch[T]) ([]T, error) {
	var (
		all    []T
		cursor string
	)
	for i := 0; i < maxTraversalIterations; i++ {
		items, next, err := fetch(ctx, cursor)
		if err != nil {
			return all, err
		}
		all = append(all, items...)
		if next == "" || len(items) == 0 {
			return all, nil
		}
		if next == cursor {
			return all, ErrCursorStalled
		}
		cursor = next
	}
	return all, ErrCursorStalled
}
