// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

/*
engine.go - Synchronization Engine Lifecycle and Orchestration

The engine drives one full extraction-and-reconciliation run per
community: credential selection, member sync with churn transitions,
content and like sync, segmentation, and the post-sync metric snapshot.

Concurrency model:
  - extraction within one community is sequential (shared credential,
    shared build identifier, upstream rate limits)
  - different communities may run concurrently, each with its own
    credential and proxy draws
  - a per-community mutex guarantees at most one concurrent sync per
    community; a second caller blocks until the first run finishes

A terminal failure (no credential, repeated 401/404) aborts the rest of
that community's run without affecting other communities in flight.
Partial failures inside a run are counted and logged, and the run
continues with the remaining work.
*/
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/PATRICK079/skool-data/internal/config"
	"github.com/PATRICK079/skool-data/internal/logging"
	"github.com/PATRICK079/skool-data/internal/metrics"
	"github.com/PATRICK079/skool-data/internal/models"
	"github.com/PATRICK079/skool-data/internal/skool"
)

// Store is the persistent-store surface the engine writes through. The
// store is the single source of truth for diffing.
type Store interface {
	GetMembers(ctx context.Context, community string, status models.MembershipStatus) ([]*models.Member, error)
	ActiveUserIDs(ctx context.Context, community string) ([]string, error)
	UpsertMember(ctx context.Context, m *models.Member) (bool, error)
	ApplyChurnTransitions(ctx context.Context, community string, churned, reactivated []string, now time.Time) error

	UpsertContent(ctx context.Context, items []*models.ContentItem) error
	ContentIDs(ctx context.Context, community string, kind models.ContentKind) ([]string, error)

	Likers(ctx context.Context, subjectID string) (map[string]bool, error)
	InsertLikes(ctx context.Context, likes []models.Like) error

	SetSegment(ctx context.Context, community string, userIDs []string, segment models.Segment, now time.Time) error
	ResetSegments(ctx context.Context, community string, now time.Time) error
	ChurnRiskUserIDs(ctx context.Context, community string, cfg config.ChurnRiskConfig, now time.Time) ([]string, error)
	AscensionUserIDs(ctx context.Context, community string, cfg config.AscensionConfig, now time.Time) ([]string, error)
	OnboardingUserIDs(ctx context.Context, community string, cfg config.OnboardingConfig, now time.Time) ([]string, error)
	ApplyTags(ctx context.Context, tags []models.TagAssignment) error
}

// Upstream is the extraction surface the engine reads from. Satisfied
// by *skool.API.
type Upstream interface {
	FetchMembers(ctx context.Context, cred models.Credential, community string, status models.MembershipStatus) ([]*models.Member, skool.MemberTotals, error)
	FetchPosts(ctx context.Context, cred models.Credential, community string) ([]*models.ContentItem, error)
	FetchCommentTree(ctx context.Context, cred models.Credential, community, postID string) ([]*models.ContentItem, error)
	FetchLikers(ctx context.Context, token, subjectID string) ([]string, error)
}

// Selector picks the admin credential for an organization run.
type Selector interface {
	Select(ctx context.Context, orgID, community string) (models.Credential, error)
}

// Result carries the per-run delta counts. Callers decide whether
// partial success is acceptable.
type Result struct {
	Community string

	MembersUpserted  int
	MembersUnchanged int
	Churned          int
	Reactivated      int

	ContentItems int
	NewLikes     int

	ChurnRisk  int
	Ascension  int
	Onboarding int

	// Failures counts items or collections that failed terminally and
	// were skipped.
	Failures int
}

// Engine coordinates synchronization runs.
type Engine struct {
	store    Store
	upstream Upstream
	selector Selector
	seg      config.SegmentationConfig
	batch    int

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	// now is replaceable in tests.
	now func() time.Time
}

// New builds an engine. batchSize bounds segment-assignment batches.
func New(store Store, upstream Upstream, selector Selector, seg config.SegmentationConfig, batchSize int) *Engine {
	if batchSize < 1 {
		batchSize = 50
	}
	return &Engine{
		store:    store,
		upstream: upstream,
		selector: selector,
		seg:      seg,
		batch:    batchSize,
		locks:    make(map[string]*sync.Mutex),
		now:      time.Now,
	}
}

// lockFor returns the mutex serializing syncs of one community.
func (e *Engine) lockFor(community string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[community]
	if !ok {
		l = &sync.Mutex{}
		e.locks[community] = l
	}
	return l
}

// SyncCommunity runs one full synchronization for an organization's
// community. At most one run per community executes at a time.
func (e *Engine) SyncCommunity(ctx context.Context, orgID, community string) (*Result, error) {
	lock := e.lockFor(community)
	lock.Lock()
	defer lock.Unlock()

	start := e.now()
	defer func() {
		metrics.SyncDuration.WithLabelValues(community).Observe(time.Since(start).Seconds())
	}()

	log := logging.With().Str("org", orgID).Str("community", community).Logger()

	cred, err := e.selector.Select(ctx, orgID, community)
	if err != nil {
		if errors.Is(err, skool.ErrNoCredential) {
			log.Error().Err(err).Msg("no working credential, aborting community run")
		}
		return nil, err
	}
	log.Info().Str("account", cred.Handle).Msg("sync started")

	res := &Result{Community: community}

	if err := e.syncMembers(ctx, cred, community, res); err != nil {
		// Member state is the foundation for everything below; a failed
		// member sync aborts the run rather than diffing against a
		// partial picture.
		return res, fmt.Errorf("community %s: member sync: %w", community, err)
	}

	if err := e.syncContent(ctx, cred, community, res); err != nil {
		log.Warn().Err(err).Msg("content sync incomplete")
		res.Failures++
	}

	if err := e.syncLikes(ctx, cred, community, res); err != nil {
		log.Warn().Err(err).Msg("like sync incomplete")
		res.Failures++
	}

	if err := e.assignSegments(ctx, community, res); err != nil {
		log.Warn().Err(err).Msg("segment assignment incomplete")
		res.Failures++
	}

	log.Info().
		Int("upserted", res.MembersUpserted).
		Int("unchanged", res.MembersUnchanged).
		Int("churned", res.Churned).
		Int("reactivated", res.Reactivated).
		Int("new_likes", res.NewLikes).
		Int("content_items", res.ContentItems).
		Int("failures", res.Failures).
		Msg("sync finished")
	return res, nil
}
