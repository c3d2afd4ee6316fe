package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/snippetshare/internal/model"
	"github.com/sakif/snippetshare/internal/repository"
)

// compile-time check that *DB implements repository.CommentRepository
var _ repository.CommentRepository = (*DB)(nil)

// CreateComment inserts a comment and fills in the expanded author
// projection, so the caller can return the comment without a second round
// trip.
//
// The snippet's existence is checked by the service layer before this is
// called; the foreign key is the backstop.
func (db *DB) CreateComment(ctx context.Context, comment *model.Comment) error {
	comment.ID = xid.New().String()

	now := time.Now()
	comment.CreatedAt = now
	comment.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO comments (id, snippet_id, author_id, content, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		comment.ID,
		comment.SnippetID,
		comment.AuthorID,
		comment.Content,
		comment.CreatedAt,
		comment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating comment: %w", err)
	}

	var author model.Author
	err = db.conn.QueryRowContext(ctx,
		`SELECT id, name, image FROM users WHERE id = ?`, comment.AuthorID,
	).Scan(&author.ID, &author.Name, &author.Image)
	if err != nil {
		return fmt.Errorf("sqlite: expanding comment author %s: %w", comment.AuthorID, err)
	}
	comment.Author = &author

	return nil
}

// ListBySnippet returns the snippet's comments newest first, each with its
// author expanded to {id, name, image}.
func (db *DB) ListBySnippet(ctx context.Context, snippetID string) ([]model.Comment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT c.id, c.snippet_id, c.author_id, c.content, c.created_at, c.updated_at,
		        u.name, u.image
		 FROM comments c
		 JOIN users u ON u.id = c.author_id
		 WHERE c.snippet_id = ?
		 ORDER BY c.created_at DESC`,
		snippetID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments for snippet %s: %w", snippetID, err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var (
			c      model.Comment
			author model.Author
		)
		if err := rows.Scan(
			&c.ID, &c.SnippetID, &c.AuthorID, &c.Content, &c.CreatedAt, &c.UpdatedAt,
			&author.Name, &author.Image,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		author.ID = c.AuthorID
		c.Author = &author
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating comments: %w", err)
	}

	return comments, nil
}
