// Package repository declares the persistence interfaces the service layer
// programs against. The concrete SQLite implementation lives in the sqlite
// subpackage; tests use in-memory mocks. Neither the services nor the
// handlers ever import a database driver.
package repository

import (
	"context"

	"github.com/sakif/snippetshare/internal/model"
)

// SortKey selects the ordering of the public listing.
type SortKey string

const (
	// SortLatest orders by creation time, newest first. The default.
	SortLatest SortKey = "latest"
	// SortPopular orders by like count, tie-broken by creation time.
	SortPopular SortKey = "popular"
	// SortCommented orders by comment count, tie-broken by creation time.
	// The count is computed by aggregation at query time — there is no
	// materialized counter on the snippet itself.
	SortCommented SortKey = "commented"
)

// ListOptions narrows and pages the public snippet listing.
// Zero-value filter fields mean "no constraint".
type ListOptions struct {
	Sort     SortKey
	Limit    int
	Offset   int
	Query    string // free-text match against title and description
	Language string
	Tag      string
}

// SnippetRepository is the persistence contract for snippets, their like
// set, and their version history.
//
// Method names carry the entity (CreateSnippet, not Create) because one
// concrete store implements all three repository interfaces on a single
// type — the SQLite DB value.
type SnippetRepository interface {
	CreateSnippet(ctx context.Context, snippet *model.Snippet) error

	// GetSnippetByID loads a snippet with its author expanded and its
	// likedBy set populated. Returns apperror.ErrNotFound if no such snippet.
	GetSnippetByID(ctx context.Context, id string) (*model.Snippet, error)

	// ListPublic returns public snippets matching opts plus the total
	// number of public snippets matching the filters (ignoring paging).
	ListPublic(ctx context.Context, opts ListOptions) ([]model.Snippet, int, error)

	// ListByAuthor returns all snippets owned by authorID, any
	// visibility, newest first.
	ListByAuthor(ctx context.Context, authorID string) ([]model.Snippet, error)

	// UpdateSnippet overwrites the mutable fields of the snippet. When
	// snapshot is non-nil the pre-update code revision is appended to the
	// version history in the same transaction as the overwrite.
	UpdateSnippet(ctx context.Context, snippet *model.Snippet, snapshot *model.SnippetVersion) error

	// DeleteSnippet removes the snippet together with its comments, likes
	// and version history in a single transaction.
	DeleteSnippet(ctx context.Context, id string) error

	// IncrementViews bumps the view counter by exactly one, atomically
	// in the store (never read-then-write).
	IncrementViews(ctx context.Context, id string) error

	// ToggleLike flips userID's membership in the snippet's like set and
	// adjusts the counter to match, atomically. Returns the resulting
	// membership and the counter value after the toggle.
	ToggleLike(ctx context.Context, id, userID string) (liked bool, likes int, err error)

	// Versions returns the snippet's code history, oldest first.
	Versions(ctx context.Context, id string) ([]model.SnippetVersion, error)
}

// CommentRepository is the persistence contract for comments.
type CommentRepository interface {
	// CreateComment persists the comment and fills in its expanded Author.
	CreateComment(ctx context.Context, comment *model.Comment) error

	// ListBySnippet returns the snippet's comments newest first, with
	// authors expanded.
	ListBySnippet(ctx context.Context, snippetID string) ([]model.Comment, error)
}

// UserRepository is the persistence contract for user accounts.
// Users are never deleted.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)

	// GetUserByEmail returns apperror.ErrNotFound if no account uses the email.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}
