// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

package syncer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PATRICK079/skool-data/internal/config"
	"github.com/PATRICK079/skool-data/internal/models"
)

func TestNormalizeTag(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Needs Onboarding", "needs_onboarding"},
		{"  Hot Lead  ", "hot_lead"},
		{"already_normal", "already_normal"},
		{"Multi Word Tag Name", "multi_word_tag_name"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTag(tt.in); got != tt.want {
			t.Errorf("NormalizeTag(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAssignSegmentsResetsThenOverwrites(t *testing.T) {
	store := newFakeStore()
	for _, id := range []string{"u1", "u2", "u3", "u4"} {
		m := activeMember("ai-builders", id)
		m.Segment = models.SegmentHot
		store.members[memberKey("ai-builders", id)] = m
	}
	store.churnRisk = []string{"u2"}
	store.ascension = []string{"u4"}
	store.onboarding = []string{"u3"}

	e := testEngine(store, &fakeUpstream{})
	res := &Result{Community: "ai-builders"}
	require.NoError(t, e.assignSegments(context.Background(), "ai-builders", res))

	assert.Equal(t, 1, store.resetCalls)
	assert.Equal(t, models.SegmentChillin, store.members[memberKey("ai-builders", "u1")].Segment)
	assert.Equal(t, models.SegmentChurnRisk, store.members[memberKey("ai-builders", "u2")].Segment)
	assert.Equal(t, models.SegmentHot, store.members[memberKey("ai-builders", "u4")].Segment)
	assert.Equal(t, 1, res.ChurnRisk)
	assert.Equal(t, 1, res.Ascension)
	assert.Equal(t, 1, res.Onboarding)

	require.Len(t, store.tags, 1)
	assert.Equal(t, "needs_onboarding", store.tags[0].Label)
	assert.Equal(t, "u3", store.tags[0].UserID)
}

func TestAssignSegmentsHotWinsOverChurnRisk(t *testing.T) {
	store := newFakeStore()
	m := activeMember("ai-builders", "u1")
	store.members[memberKey("ai-builders", "u1")] = m
	store.churnRisk = []string{"u1"}
	store.ascension = []string{"u1"}

	e := testEngine(store, &fakeUpstream{})
	require.NoError(t, e.assignSegments(context.Background(), "ai-builders", &Result{}))

	assert.Equal(t, models.SegmentHot, store.members[memberKey("ai-builders", "u1")].Segment)
}

func TestAssignSegmentsAppliesTagsInBatches(t *testing.T) {
	store := newFakeStore()
	store.onboarding = []string{"u1", "u2", "u3", "u4", "u5"}

	e := New(store, &fakeUpstream{}, &fakeSelector{}, config.SegmentationConfig{}, 2)
	require.NoError(t, e.assignSegments(context.Background(), "ai-builders", &Result{}))

	assert.Equal(t, []int{2, 2, 1}, store.tagBatches)
	assert.Len(t, store.tags, 5)
}

func TestAssignSegmentBatches(t *testing.T) {
	store := newFakeStore()
	e := New(store, &fakeUpstream{}, &fakeSelector{}, config.SegmentationConfig{}, 2)

	ids := []string{"u1", "u2", "u3", "u4", "u5"}
	require.NoError(t, e.AssignSegment(context.Background(), "ai-builders", ids, models.SegmentHot))

	require.Len(t, store.segCalls, 3)
	assert.Equal(t, []string{"u1", "u2"}, store.segCalls[0].userIDs)
	assert.Equal(t, []string{"u3", "u4"}, store.segCalls[1].userIDs)
	assert.Equal(t, []string{"u5"}, store.segCalls[2].userIDs)
	for _, c := range store.segCalls {
		assert.Equal(t, models.SegmentHot, c.segment)
	}
}

func TestAssignSegmentEmptyListWritesNothing(t *testing.T) {
	store := newFakeStore()
	e := New(store, &fakeUpstream{}, &fakeSelector{}, config.SegmentationConfig{}, 50)
	require.NoError(t, e.AssignSegment(context.Background(), "ai-builders", nil, models.SegmentHot))
	assert.Empty(t, store.segCalls)
}
