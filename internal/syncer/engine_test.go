// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

package syncer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PATRICK079/skool-data/internal/config"
	"github.com/PATRICK079/skool-data/internal/models"
	"github.com/PATRICK079/skool-data/internal/skool"
)

// fakeStore is an in-memory Store with the same merge semantics as the
// real one: upserts are skipped for unchanged rows, likes never shrink.
type fakeStore struct {
	members map[string]*models.Member // keyed community/userID
	content map[string]*models.ContentItem
	likes   map[string]map[string]bool // subjectID -> userID set
	tags    []models.TagAssignment

	churnRisk  []string
	ascension  []string
	onboarding []string

	churnCalls [][]string
	resetCalls int
	segCalls   []segCall
	tagBatches []int

	upsertErr error
	likesErr  error
}

type segCall struct {
	userIDs []string
	segment models.Segment
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		members: make(map[string]*models.Member),
		content: make(map[string]*models.ContentItem),
		likes:   make(map[string]map[string]bool),
	}
}

func memberKey(community, userID string) string { return community + "/" + userID }

func (f *fakeStore) GetMembers(ctx context.Context, community string, status models.MembershipStatus) ([]*models.Member, error) {
	var out []*models.Member
	for _, m := range f.members {
		if m.Community != community {
			continue
		}
		if status != "" && m.Status != status {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (f *fakeStore) ActiveUserIDs(ctx context.Context, community string) ([]string, error) {
	active, err := f.GetMembers(ctx, community, models.StatusActive)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(active))
	for _, m := range active {
		ids = append(ids, m.UserID)
	}
	return ids, nil
}

func (f *fakeStore) UpsertMember(ctx context.Context, m *models.Member) (bool, error) {
	if f.upsertErr != nil {
		return false, f.upsertErr
	}
	key := memberKey(m.Community, m.UserID)
	if prev, ok := f.members[key]; ok && prev.Equal(m) {
		return false, nil
	}
	cp := *m
	f.members[key] = &cp
	return true, nil
}

func (f *fakeStore) ApplyChurnTransitions(ctx context.Context, community string, churned, reactivated []string, now time.Time) error {
	f.churnCalls = append(f.churnCalls, append([]string(nil), churned...))
	for _, id := range churned {
		if m, ok := f.members[memberKey(community, id)]; ok {
			m.Status = models.StatusChurned
			t := now
			m.ChurnedAt = &t
		}
	}
	for _, id := range reactivated {
		if m, ok := f.members[memberKey(community, id)]; ok {
			m.Status = models.StatusActive
			m.ChurnedAt = nil
		}
	}
	return nil
}

func (f *fakeStore) UpsertContent(ctx context.Context, items []*models.ContentItem) error {
	for _, it := range items {
		cp := *it
		f.content[it.ID] = &cp
	}
	return nil
}

func (f *fakeStore) ContentIDs(ctx context.Context, community string, kind models.ContentKind) ([]string, error) {
	var ids []string
	for _, it := range f.content {
		if it.Community == community && (kind == "" || it.Kind == kind) {
			ids = append(ids, it.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeStore) Likers(ctx context.Context, subjectID string) (map[string]bool, error) {
	out := make(map[string]bool, len(f.likes[subjectID]))
	for id := range f.likes[subjectID] {
		out[id] = true
	}
	return out, nil
}

func (f *fakeStore) InsertLikes(ctx context.Context, likes []models.Like) error {
	if f.likesErr != nil {
		return f.likesErr
	}
	for _, l := range likes {
		if f.likes[l.SubjectID] == nil {
			f.likes[l.SubjectID] = make(map[string]bool)
		}
		f.likes[l.SubjectID][l.UserID] = true
	}
	return nil
}

func (f *fakeStore) SetSegment(ctx context.Context, community string, userIDs []string, segment models.Segment, now time.Time) error {
	f.segCalls = append(f.segCalls, segCall{userIDs: append([]string(nil), userIDs...), segment: segment})
	for _, id := range userIDs {
		if m, ok := f.members[memberKey(community, id)]; ok {
			m.Segment = segment
		}
	}
	return nil
}

func (f *fakeStore) ResetSegments(ctx context.Context, community string, now time.Time) error {
	f.resetCalls++
	for _, m := range f.members {
		if m.Community == community {
			m.Segment = models.SegmentChillin
		}
	}
	return nil
}

func (f *fakeStore) ChurnRiskUserIDs(ctx context.Context, community string, cfg config.ChurnRiskConfig, now time.Time) ([]string, error) {
	return f.churnRisk, nil
}

func (f *fakeStore) AscensionUserIDs(ctx context.Context, community string, cfg config.AscensionConfig, now time.Time) ([]string, error) {
	return f.ascension, nil
}

func (f *fakeStore) OnboardingUserIDs(ctx context.Context, community string, cfg config.OnboardingConfig, now time.Time) ([]string, error) {
	return f.onboarding, nil
}

func (f *fakeStore) ApplyTags(ctx context.Context, tags []models.TagAssignment) error {
	f.tagBatches = append(f.tagBatches, len(tags))
	f.tags = append(f.tags, tags...)
	return nil
}

// fakeUpstream serves canned listings keyed by status.
type fakeUpstream struct {
	members map[models.MembershipStatus][]*models.Member
	posts   []*models.ContentItem
	trees   map[string][]*models.ContentItem
	likers  map[string][]string

	memberErr map[models.MembershipStatus]error
	likerErr  map[string]error
}

func (f *fakeUpstream) FetchMembers(ctx context.Context, cred models.Credential, community string, status models.MembershipStatus) ([]*models.Member, skool.MemberTotals, error) {
	if err := f.memberErr[status]; err != nil {
		return nil, skool.MemberTotals{}, err
	}
	members := make([]*models.Member, 0, len(f.members[status]))
	for _, m := range f.members[status] {
		cp := *m
		members = append(members, &cp)
	}
	return members, skool.MemberTotals{Active: len(f.members[models.StatusActive])}, nil
}

func (f *fakeUpstream) FetchPosts(ctx context.Context, cred models.Credential, community string) ([]*models.ContentItem, error) {
	out := make([]*models.ContentItem, 0, len(f.posts))
	for _, p := range f.posts {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeUpstream) FetchCommentTree(ctx context.Context, cred models.Credential, community, postID string) ([]*models.ContentItem, error) {
	out := make([]*models.ContentItem, 0, len(f.trees[postID]))
	for _, it := range f.trees[postID] {
		cp := *it
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeUpstream) FetchLikers(ctx context.Context, token, subjectID string) ([]string, error) {
	if err := f.likerErr[subjectID]; err != nil {
		return nil, err
	}
	return append([]string(nil), f.likers[subjectID]...), nil
}

type fakeSelector struct {
	cred models.Credential
	err  error
}

func (f *fakeSelector) Select(ctx context.Context, orgID, community string) (models.Credential, error) {
	return f.cred, f.err
}

func activeMember(community, userID string) *models.Member {
	return &models.Member{
		Community:    community,
		UserID:       userID,
		Handle:       "h-" + userID,
		Status:       models.StatusActive,
		JoinedAt:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		LastActiveAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Price:        29,
		Interval:     models.IntervalMonthly,
	}
}

func testEngine(store *fakeStore, up *fakeUpstream) *Engine {
	seg := config.SegmentationConfig{
		ChurnRisk:  config.ChurnRiskConfig{LookbackDays: 7, MinActivity: 1, MaxActivity: 14},
		Ascension:  config.AscensionConfig{LookbackDays: 70, MinActiveDays: 7, MaxDaysOffline: 1},
		Onboarding: config.OnboardingConfig{MaxDaysInCommunity: 3, MinPosts: 1, MinComments: 1},
	}
	e := New(store, up, &fakeSelector{cred: models.Credential{Handle: "alpha", Token: "tok"}}, seg, 50)
	e.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return e
}

func TestSyncCommunityIsIdempotent(t *testing.T) {
	up := &fakeUpstream{
		members: map[models.MembershipStatus][]*models.Member{
			models.StatusActive: {activeMember("ai-builders", "u1"), activeMember("ai-builders", "u2")},
		},
		posts: []*models.ContentItem{
			{ID: "p1", Community: "ai-builders", Kind: models.KindPost, RootPostID: "p1"},
		},
		likers: map[string][]string{"p1": {"u1", "u2"}},
	}
	store := newFakeStore()
	e := testEngine(store, up)

	first, err := e.SyncCommunity(context.Background(), "org-1", "ai-builders")
	require.NoError(t, err)
	assert.Equal(t, 2, first.MembersUpserted)
	assert.Equal(t, 2, first.NewLikes)
	assert.Equal(t, 0, first.Churned)

	second, err := e.SyncCommunity(context.Background(), "org-1", "ai-builders")
	require.NoError(t, err)
	assert.Equal(t, 0, second.MembersUpserted, "unchanged members must not be rewritten")
	assert.Equal(t, 2, second.MembersUnchanged)
	assert.Equal(t, 0, second.NewLikes, "already stored likes must not be reinserted")
	assert.Equal(t, 0, second.Churned)
}

func TestSyncCommunityMarksExactlyTheDisappearedMembers(t *testing.T) {
	store := newFakeStore()
	for _, id := range []string{"A", "B", "C"} {
		m := activeMember("ai-builders", id)
		m.Segment = models.SegmentChillin
		store.members[memberKey("ai-builders", id)] = m
	}

	up := &fakeUpstream{
		members: map[models.MembershipStatus][]*models.Member{
			models.StatusActive: {activeMember("ai-builders", "A"), activeMember("ai-builders", "C")},
		},
	}
	e := testEngine(store, up)

	res, err := e.SyncCommunity(context.Background(), "org-1", "ai-builders")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Churned)

	require.Len(t, store.churnCalls, 1)
	assert.Equal(t, []string{"B"}, store.churnCalls[0], "exactly the absent member transitions")

	assert.Equal(t, models.StatusChurned, store.members[memberKey("ai-builders", "B")].Status)
	assert.Equal(t, models.StatusActive, store.members[memberKey("ai-builders", "A")].Status)
	assert.Equal(t, models.StatusActive, store.members[memberKey("ai-builders", "C")].Status)
}

func TestSyncCommunityCountsReactivations(t *testing.T) {
	store := newFakeStore()
	gone := activeMember("ai-builders", "u1")
	gone.Status = models.StatusChurned
	churnedAt := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	gone.ChurnedAt = &churnedAt
	gone.Segment = models.SegmentChillin
	store.members[memberKey("ai-builders", "u1")] = gone

	up := &fakeUpstream{
		members: map[models.MembershipStatus][]*models.Member{
			models.StatusActive: {activeMember("ai-builders", "u1")},
		},
	}
	e := testEngine(store, up)

	res, err := e.SyncCommunity(context.Background(), "org-1", "ai-builders")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Reactivated)
	assert.Equal(t, 0, res.Churned)
	assert.Equal(t, models.StatusActive, store.members[memberKey("ai-builders", "u1")].Status)
}

func TestSyncCommunityDoesNotCountCancellingAsReactivated(t *testing.T) {
	store := newFakeStore()
	leaving := activeMember("ai-builders", "u1")
	leaving.Status = models.StatusCancelling
	store.members[memberKey("ai-builders", "u1")] = leaving

	// The upstream keeps a cancelling member in the active tab and in
	// the cancelling tab until the subscription ends.
	inActiveTab := activeMember("ai-builders", "u1")
	inCancellingTab := activeMember("ai-builders", "u1")
	inCancellingTab.Status = models.StatusCancelling
	up := &fakeUpstream{
		members: map[models.MembershipStatus][]*models.Member{
			models.StatusActive:     {inActiveTab},
			models.StatusCancelling: {inCancellingTab},
		},
	}
	e := testEngine(store, up)

	res, err := e.SyncCommunity(context.Background(), "org-1", "ai-builders")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Reactivated, "a steady-state cancelling member is not a comeback")
	assert.Equal(t, 0, res.Churned)
}

func TestSyncCommunityPreservesAssignedSegments(t *testing.T) {
	store := newFakeStore()
	hot := activeMember("ai-builders", "u1")
	hot.Segment = models.SegmentHot
	store.members[memberKey("ai-builders", "u1")] = hot

	up := &fakeUpstream{
		members: map[models.MembershipStatus][]*models.Member{
			models.StatusActive: {activeMember("ai-builders", "u1")},
		},
	}
	e := testEngine(store, up)

	// The upstream record has no segment; the locally assigned one must
	// survive the merge. The run then resets segments as its last step.
	res, err := e.SyncCommunity(context.Background(), "org-1", "ai-builders")
	require.NoError(t, err)
	assert.Equal(t, 0, res.MembersUpserted, "segment carry-over keeps the row unchanged")
	assert.Equal(t, 1, res.MembersUnchanged)
}

func TestSyncCommunityAbortsWithoutCredential(t *testing.T) {
	e := New(newFakeStore(), &fakeUpstream{}, &fakeSelector{err: fmt.Errorf("org org-1: %w", skool.ErrNoCredential)}, config.SegmentationConfig{}, 50)

	_, err := e.SyncCommunity(context.Background(), "org-1", "ai-builders")
	require.ErrorIs(t, err, skool.ErrNoCredential)
}

func TestSyncCommunityAbortsOnCompleteMemberFetchFailure(t *testing.T) {
	up := &fakeUpstream{
		memberErr: map[models.MembershipStatus]error{
			models.StatusActive: errors.New("upstream down"),
		},
	}
	store := newFakeStore()
	e := testEngine(store, up)

	_, err := e.SyncCommunity(context.Background(), "org-1", "ai-builders")
	require.Error(t, err)
	assert.Empty(t, store.churnCalls, "no churn diff on a failed member fetch")
}

func TestSyncCommunitySkipsChurnDiffOnPartialListing(t *testing.T) {
	store := newFakeStore()
	store.members[memberKey("ai-builders", "u1")] = func() *models.Member {
		m := activeMember("ai-builders", "u1")
		m.Segment = models.SegmentChillin
		return m
	}()

	// The churned tab fails after the active tab succeeded. u1 is absent
	// from the (complete) active listing below, but the run must not mark
	// anyone churned while the picture is partial.
	up := &fakeUpstream{
		members: map[models.MembershipStatus][]*models.Member{
			models.StatusActive: {activeMember("ai-builders", "u2")},
		},
		memberErr: map[models.MembershipStatus]error{
			models.StatusChurned: errors.New("tab unavailable"),
		},
	}
	e := testEngine(store, up)

	_, err := e.SyncCommunity(context.Background(), "org-1", "ai-builders")
	require.Error(t, err)
	assert.Empty(t, store.churnCalls)
	assert.Equal(t, models.StatusActive, store.members[memberKey("ai-builders", "u1")].Status)
	// The page that did arrive is still merged.
	assert.Contains(t, store.members, memberKey("ai-builders", "u2"))
}

func TestSyncCommunityStoresContentTrees(t *testing.T) {
	up := &fakeUpstream{
		members: map[models.MembershipStatus][]*models.Member{
			models.StatusActive: {activeMember("ai-builders", "u1")},
		},
		posts: []*models.ContentItem{
			{ID: "p1", Community: "ai-builders", Kind: models.KindPost, RootPostID: "p1", ReplyCount: 2},
			{ID: "p2", Community: "ai-builders", Kind: models.KindPost, RootPostID: "p2"},
		},
		trees: map[string][]*models.ContentItem{
			"p1": {
				{ID: "c1", Community: "ai-builders", Kind: models.KindComment, ParentID: "p1", RootPostID: "p1"},
				{ID: "r1", Community: "ai-builders", Kind: models.KindReply, ParentID: "c1", RootPostID: "p1"},
			},
		},
	}
	store := newFakeStore()
	e := testEngine(store, up)

	res, err := e.SyncCommunity(context.Background(), "org-1", "ai-builders")
	require.NoError(t, err)
	assert.Equal(t, 4, res.ContentItems)
	assert.Contains(t, store.content, "c1")
	assert.Contains(t, store.content, "r1")
	// p2 has no replies, its tree is never fetched.
	assert.NotContains(t, store.content, "p2-tree")
}
