// Skooldata - Community Platform Extraction and Revenue Analytics
// Copyright 2026 Patrick O. (PATRICK079)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/PATRICK079/skool-data

/*
models.go - Upstream Wire Schemas

Typed response shapes for the platform's private endpoints. Required
fields are validated at the boundary; an item missing a structural field
is skipped with ErrMalformedItem rather than aborting the traversal.
*/
package skool

import (
	"fmt"
	"time"

	"github.com/PATRICK079/skool-data/internal/models"
)

// MembersPage is the _next/data members.json envelope.
type MembersPage struct {
	PageProps MembersPageProps `json:"pageProps"`
}

// MembersPageProps carries the member listing for one page plus the
// total counters used to derive page counts.
type MembersPageProps struct {
	TotalMembers    int            `json:"totalMembers"`
	TotalChurned    int            `json:"totalChurnedMembers"`
	TotalCancelling int            `json:"totalCancellingMembers"`
	Users           []MemberRecord `json:"users"`
}

// MemberRecord is one member as the platform reports it.
type MemberRecord struct {
	ID           string         `json:"id"`
	Handle       string         `json:"name"`
	FirstName    string         `json:"firstName"`
	LastName     string         `json:"lastName"`
	Email        string         `json:"email"`
	CreatedAt    time.Time      `json:"createdAt"`
	LastActiveAt time.Time      `json:"lastActiveAt"`
	CancelledAt  *time.Time     `json:"cancelledAt"`
	ChurnedAt    *time.Time     `json:"churnedAt"`
	Disabled     bool           `json:"disabled"`
	Pinned       bool           `json:"pinned"`
	PostCount    int            `json:"posts"`
	CommentCount int            `json:"comments"`
	Billing      *BillingRecord `json:"billing"`
}

// BillingRecord is the subscription the member pays for, if any.
type BillingRecord struct {
	// Interval is "month", "year", or "one_time".
	Interval string `json:"interval"`
	// Amount is the price in the interval's unit, in dollars.
	Amount float64 `json:"amount"`
}

// ToMember converts the wire record into a domain member with the given
// membership status. A missing ID is a structural defect.
func (r *MemberRecord) ToMember(community string, status models.MembershipStatus) (*models.Member, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("member record without id: %w", ErrMalformedItem)
	}
	m := &models.Member{
		Community:    community,
		UserID:       r.ID,
		Handle:       r.Handle,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Email:        r.Email,
		Status:       status,
		JoinedAt:     r.CreatedAt,
		LastActiveAt: r.LastActiveAt,
		CancelledAt:  r.CancelledAt,
		ChurnedAt:    r.ChurnedAt,
		PostCount:    r.PostCount,
		CommentCount: r.CommentCount,
		Disabled:     r.Disabled,
		Pinned:       r.Pinned,
	}
	if r.Billing != nil {
		m.Price = r.Billing.Amount
		switch r.Billing.Interval {
		case "month":
			m.Interval = models.IntervalMonthly
		case "year":
			m.Interval = models.IntervalAnnual
		case "one_time":
			m.Interval = models.IntervalOneTime
		default:
			return nil, fmt.Errorf("member %s: unknown billing interval %q: %w", r.ID, r.Billing.Interval, ErrMalformedItem)
		}
	}
	return m, nil
}

// PostsPage is the _next/data community-feed envelope.
type PostsPage struct {
	PageProps PostsPageProps `json:"pageProps"`
}

// PostsPageProps carries one page of the community feed.
type PostsPageProps struct {
	TotalPosts int          `json:"totalPosts"`
	Posts      []PostRecord `json:"posts"`
}

// PostRecord is one post as the platform reports it.
type PostRecord struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"userId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Upvotes      int       `json:"upvotes"`
	CommentCount int       `json:"comments"`
}

// ToContent converts a post record into a domain content item.
func (r *PostRecord) ToContent(community string) (*models.ContentItem, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("post record without id: %w", ErrMalformedItem)
	}
	return &models.ContentItem{
		ID:         r.ID,
		Community:  community,
		Kind:       models.KindPost,
		RootPostID: r.ID,
		AuthorID:   r.AuthorID,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		LikeCount:  r.Upvotes,
		ReplyCount: r.CommentCount,
	}, nil
}

// CommentsResponse is one batch of comments under a post. Last is the
// watermark for the next created_gt request; zero means the listing is
// exhausted.
type CommentsResponse struct {
	Comments []CommentRecord `json:"comments"`
	Last     int64           `json:"last"`
}

// CommentRecord is one comment or reply. Replies surface through the
// cursor-paginated replies endpoint keyed by the comment ID.
type CommentRecord struct {
	ID         string    `json:"id"`
	PostID     string    `json:"postId"`
	ParentID   string    `json:"parentId"`
	AuthorID   string    `json:"userId"`
	CreatedAt  time.Time `json:"createdAt"`
	Upvotes    int       `json:"upvotes"`
	ReplyCount int       `json:"replies"`
}

// RepliesPage is one cursor page of replies under a comment.
type RepliesPage struct {
	Replies []CommentRecord `json:"replies"`
	Cursor  string          `json:"cursor"`
	HasMore bool            `json:"has_more"`
}

// LikersPage is one cursor page of the users who liked a subject.
type LikersPage struct {
	Users   []LikerRecord `json:"users"`
	Cursor  string        `json:"cursor"`
	HasMore bool          `json:"has_more"`
}

// LikerRecord identifies one liker.
type LikerRecord struct {
	ID string `json:"id"`
}

// MembershipResponse is the membership check used for admin
// verification during credential selection.
type MembershipResponse struct {
	Member struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	} `json:"member"`
}

// IsAdmin reports whether the checked account holds an admin role in
// the community.
func (r *MembershipResponse) IsAdmin() bool {
	return r.Member.Role == "admin" || r.Member.Role == "owner"
}
