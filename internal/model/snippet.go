// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Visibility is the access tier of a snippet.
//
// WHY A NAMED STRING TYPE?
// A plain string would accept any value ("pubic", "hidden", ...). A named
// type plus constants gives us one place that lists the legal values, and
// function signatures that document themselves: IsListed(v Visibility) is
// clearer than IsListed(v string).
type Visibility string

const (
	// VisibilityPublic snippets are listed in the explore feed and readable by anyone.
	VisibilityPublic Visibility = "public"
	// VisibilityUnlisted snippets are readable via direct link but never listed.
	VisibilityUnlisted Visibility = "unlisted"
	// VisibilityPrivate snippets are readable by their author only.
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether v is one of the three known visibility tiers.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityUnlisted, VisibilityPrivate:
		return true
	}
	return false
}

// Author is the expanded author reference attached to snippets and comments
// at the query boundary.
//
// The database stores only the author's id (a foreign key). When a snippet
// or comment is read, the repository joins the users table and fills in
// this small projection — never the full User record, which would leak the
// email and password hash into API responses.
type Author struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// SnippetVersion is one entry of a snippet's code history: the code body,
// the time it was last touched, and the version number it carried — all as
// they were BEFORE the update that displaced it.
type SnippetVersion struct {
	Code      string    `json:"code"`
	UpdatedAt time.Time `json:"updatedAt"`
	Version   int       `json:"version"`
}

// Snippet is the central entity: a stored unit of code plus metadata.
//
// Version starts at 1 and increments only when the code body changes on
// update; metadata-only edits (title, tags, ...) leave it alone. So version
// counts code revisions, not edits, and PreviousVersions holds exactly
// version-1 snapshots.
//
// AuthorID is the stored foreign key and is immutable after creation.
// Author is the expanded {id, name, image} projection, populated by the
// repository on reads and omitted from JSON when not loaded.
type Snippet struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Code        string     `json:"code"`
	Language    string     `json:"language"`
	Visibility  Visibility `json:"visibility"`
	AuthorID    string     `json:"authorId"`
	Author      *Author    `json:"author,omitempty"`
	Tags        []string   `json:"tags"`

	Views   int `json:"views"`
	Likes   int `json:"likes"`
	Version int `json:"version"`

	// LikedBy is the set of user ids that currently like this snippet.
	// Uniqueness is enforced by the store; loaded on single-snippet reads.
	LikedBy []string `json:"likedBy,omitempty"`

	// PreviousVersions is ordered oldest-first; loaded on demand.
	PreviousVersions []SnippetVersion `json:"previousVersions,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
