// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

package models

import "time"

// ContentKind distinguishes the three levels of the content tree.
type ContentKind string

// Content kinds. The tree is at most two levels deep below the post
// root: post -> comment -> reply.
const (
	KindPost    ContentKind = "post"
	KindComment ContentKind = "comment"
	KindReply   ContentKind = "reply"
)

// ContentItem is one post, comment, or reply, merged by ID.
//
// ParentID links a comment to its post and a reply to its comment;
// RootPostID always points at the post root so a flattened tree can be
// grouped without walking parents.
type ContentItem struct {
	ID         string
	Community  string
	Kind       ContentKind
	ParentID   string
	RootPostID string
	AuthorID   string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	LikeCount  int
	ReplyCount int
}

// Like is one (subject, liker) pair. The upstream does not reliably
// report unlikes, so the stored set only grows.
type Like struct {
	Community string
	SubjectID string
	UserID    string
	CreatedAt time.Time
}

// TagAssignment is a free-form label applied to a member by the
// segmentation logic. Labels are normalized before storage.
type TagAssignment struct {
	Community  string
	UserID     string
	Label      string
	AssignedAt time.Time
}
