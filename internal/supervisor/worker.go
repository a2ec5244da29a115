// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

package supervisor

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/PATRICK079/skool-data/internal/analytics"
	"github.com/PATRICK079/skool-data/internal/identity"
	"github.com/PATRICK079/skool-data/internal/logging"
	"github.com/PATRICK079/skool-data/internal/metrics"
	"github.com/PATRICK079/skool-data/internal/models"
	"github.com/PATRICK079/skool-data/internal/syncer"
)

// SlugResolver maps an organization to its community slug through the
// identity collaborator.
type SlugResolver interface {
	GetOrg(ctx context.Context, orgID string) (*identity.OrgMetadata, error)
}

// SnapshotStore persists the post-sync metric snapshot.
type SnapshotStore interface {
	GetMembers(ctx context.Context, community string, status models.MembershipStatus) ([]*models.Member, error)
	InsertSnapshot(ctx context.Context, s *models.MetricSnapshot) error
}

// OrgWorker runs the periodic sync loop for one organization. Workers
// for different organizations run concurrently, bounded by the shared
// semaphore; one worker never touches another's community.
type OrgWorker struct {
	OrgID    string
	Interval time.Duration

	Engine   *syncer.Engine
	Resolver SlugResolver
	Store    SnapshotStore

	// Sem bounds how many organizations sync at once. Nil means
	// unbounded.
	Sem *semaphore.Weighted
}

// String names the worker in suture's event log.
func (w *OrgWorker) String() string {
	return "org-worker-" + w.OrgID
}

// Serve runs sync cycles until the context is canceled. A failed cycle
// is logged and retried at the next interval; only a canceled context
// stops the worker cleanly.
func (w *OrgWorker) Serve(ctx context.Context) error {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		if err := w.runOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.Error().Str("org", w.OrgID).Err(err).Msg("sync cycle failed")
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *OrgWorker) runOnce(ctx context.Context) error {
	if w.Sem != nil {
		if err := w.Sem.Acquire(ctx, 1); err != nil {
			return err
		}
		defer w.Sem.Release(1)
	}

	meta, err := w.Resolver.GetOrg(ctx, w.OrgID)
	if err != nil {
		return fmt.Errorf("resolving community slug: %w", err)
	}
	if meta.SkoolSlug == "" {
		return fmt.Errorf("organization %s has no community slug configured", w.OrgID)
	}

	if _, err := w.Engine.SyncCommunity(ctx, w.OrgID, meta.SkoolSlug); err != nil {
		return err
	}
	return w.recordSnapshot(ctx, meta.SkoolSlug)
}

// recordSnapshot derives and persists the metric snapshot from the
// post-sync member set, and refreshes the exported gauges.
func (w *OrgWorker) recordSnapshot(ctx context.Context, community string) error {
	members, err := w.Store.GetMembers(ctx, community, "")
	if err != nil {
		return fmt.Errorf("loading members for snapshot: %w", err)
	}
	snap := analytics.Snapshot(community, members, time.Now())
	if err := w.Store.InsertSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("persisting snapshot: %w", err)
	}
	metrics.CommunityMRR.WithLabelValues(community).Set(snap.MRR)
	metrics.CommunityChurnRate.WithLabelValues(community).Set(snap.ChurnRate)
	logging.Info().
		Str("community", community).
		Float64("mrr", snap.MRR).
		Float64("churn_rate", snap.ChurnRate).
		Int("active_members", snap.ActiveMembers).
		Msg("metric snapshot recorded")
	return nil
}
