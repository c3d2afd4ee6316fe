// Package model defines the data structures used throughout the application.
package model

import "time"

// Comment is a user comment on a snippet.
//
// Comments are created by any authenticated user who can view the snippet
// and are only ever deleted as part of the snippet's delete cascade —
// there is no standalone comment delete.
//
// AuthorID/SnippetID are the stored foreign keys; Author is the expanded
// {id, name, image} projection filled in by the repository on reads.
type Comment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"` // ≤ 1000 characters
	AuthorID  string    `json:"authorId"`
	Author    *Author   `json:"author,omitempty"`
	SnippetID string    `json:"snippetId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
