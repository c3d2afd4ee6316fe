package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/snippetshare/internal/apperror"
	"github.com/sakif/snippetshare/internal/model"
	"github.com/sakif/snippetshare/internal/repository"
)

// Compile-time check that *DB implements repository.SnippetRepository.
// `var _ X = (*Y)(nil)` fails the build immediately if a method is missing,
// instead of at the first call site that needs the interface.
var _ repository.SnippetRepository = (*DB)(nil)

// snippetColumns is the join used by every snippet read: the snippet row
// plus the author projection. Keep the column order in sync with scanSnippet.
const snippetColumns = `
	s.id, s.title, s.description, s.code, s.language, s.visibility,
	s.author_id, s.tags, s.views, s.likes, s.version, s.created_at, s.updated_at,
	u.name, u.image`

const snippetFrom = ` FROM snippets s JOIN users u ON u.id = s.author_id`

// scanSnippet reads one joined row into a model.Snippet, decoding the JSON
// tags column and filling the expanded Author.
func scanSnippet(row interface{ Scan(...any) error }) (*model.Snippet, error) {
	var (
		s        model.Snippet
		tagsJSON string
		author   model.Author
	)
	err := row.Scan(
		&s.ID, &s.Title, &s.Description, &s.Code, &s.Language, &s.Visibility,
		&s.AuthorID, &tagsJSON, &s.Views, &s.Likes, &s.Version, &s.CreatedAt, &s.UpdatedAt,
		&author.Name, &author.Image,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &s.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags for snippet %s: %w", s.ID, err)
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
	author.ID = s.AuthorID
	s.Author = &author
	return &s, nil
}

// CreateSnippet inserts a new snippet. ID, timestamps, and the counter/version
// zero state are assigned here; the caller's struct is updated in place.
func (db *DB) CreateSnippet(ctx context.Context, snippet *model.Snippet) error {
	snippet.ID = xid.New().String()

	now := time.Now()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now
	snippet.Views = 0
	snippet.Likes = 0
	snippet.Version = 1
	if snippet.Tags == nil {
		snippet.Tags = []string{}
	}

	tagsJSON, err := json.Marshal(snippet.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: encoding tags: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO snippets
		 (id, title, description, code, language, visibility, author_id, tags,
		  views, likes, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0, 1, ?, ?)`,
		snippet.ID,
		snippet.Title,
		snippet.Description,
		snippet.Code,
		snippet.Language,
		string(snippet.Visibility),
		snippet.AuthorID,
		string(tagsJSON),
		snippet.CreatedAt,
		snippet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	return nil
}

// GetSnippetByID retrieves a single snippet with its author expanded and
// its likedBy set loaded. The view counter is NOT touched here — that is a
// separate, explicitly atomic operation (IncrementViews).
func (db *DB) GetSnippetByID(ctx context.Context, id string) (*model.Snippet, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT`+snippetColumns+snippetFrom+` WHERE s.id = ?`, id)

	snippet, err := scanSnippet(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}

	likedBy, err := db.likedBy(ctx, id)
	if err != nil {
		return nil, err
	}
	snippet.LikedBy = likedBy

	return snippet, nil
}

// likedBy loads the set of user ids that like the snippet, in like order.
func (db *DB) likedBy(ctx context.Context, snippetID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id FROM snippet_likes WHERE snippet_id = ? ORDER BY created_at`,
		snippetID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading likes for snippet %s: %w", snippetID, err)
	}
	defer rows.Close()

	likedBy := []string{}
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("sqlite: scanning like row: %w", err)
		}
		likedBy = append(likedBy, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating likes: %w", err)
	}
	return likedBy, nil
}

// ListPublic returns public snippets matching opts plus the total count of
// matches (ignoring paging), so callers can compute page counts.
//
// The filters narrow the public set; an empty filter field means "no
// constraint". Private and unlisted snippets never appear here, whoever
// asks.
func (db *DB) ListPublic(ctx context.Context, opts repository.ListOptions) ([]model.Snippet, int, error) {
	where := `WHERE s.visibility = 'public'`
	args := []any{}

	if opts.Query != "" {
		where += ` AND (s.title LIKE ? OR s.description LIKE ?)`
		pattern := "%" + opts.Query + "%"
		args = append(args, pattern, pattern)
	}
	if opts.Language != "" {
		where += ` AND s.language = ?`
		args = append(args, opts.Language)
	}
	if opts.Tag != "" {
		// The tags column is a JSON array; json_each unnests it so we can
		// match a single tag exactly instead of substring-matching the blob.
		where += ` AND EXISTS (SELECT 1 FROM json_each(s.tags) WHERE json_each.value = ?)`
		args = append(args, opts.Tag)
	}

	var orderBy string
	switch opts.Sort {
	case repository.SortPopular:
		orderBy = `ORDER BY s.likes DESC, s.created_at DESC`
	case repository.SortCommented:
		// No materialized comment counter exists, so the count is
		// aggregated at query time.
		orderBy = `ORDER BY (SELECT COUNT(*) FROM comments c WHERE c.snippet_id = s.id) DESC,
		           s.created_at DESC`
	default:
		orderBy = `ORDER BY s.created_at DESC`
	}

	// Total first — same filters, no paging.
	var total int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM snippets s `+where, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting public snippets: %w", err)
	}

	query := `SELECT` + snippetColumns + snippetFrom + ` ` + where + ` ` + orderBy +
		` LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing public snippets: %w", err)
	}
	defer rows.Close()

	snippets := make([]model.Snippet, 0, opts.Limit)
	for rows.Next() {
		s, err := scanSnippet(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}

	return snippets, total, nil
}

// ListByAuthor returns every snippet owned by authorID, newest first,
// including private and unlisted ones. Callers are responsible for only
// asking on behalf of the author themselves.
func (db *DB) ListByAuthor(ctx context.Context, authorID string) ([]model.Snippet, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT`+snippetColumns+snippetFrom+
			` WHERE s.author_id = ? ORDER BY s.created_at DESC`,
		authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets for author %s: %w", authorID, err)
	}
	defer rows.Close()

	snippets := []model.Snippet{}
	for rows.Next() {
		s, err := scanSnippet(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}

	return snippets, nil
}

// UpdateSnippet overwrites the snippet's mutable fields. When snapshot is
// non-nil the displaced code revision is recorded in the same transaction,
// so the history can never gain a row without the snippet advancing (or
// vice versa). The id, author and created_at are immutable and never written.
func (db *DB) UpdateSnippet(ctx context.Context, snippet *model.Snippet, snapshot *model.SnippetVersion) error {
	snippet.UpdatedAt = time.Now()

	tagsJSON, err := json.Marshal(snippet.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: encoding tags: %w", err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning update transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE snippets
		 SET title = ?, description = ?, code = ?, language = ?, visibility = ?,
		     tags = ?, version = ?, updated_at = ?
		 WHERE id = ?`,
		snippet.Title,
		snippet.Description,
		snippet.Code,
		snippet.Language,
		string(snippet.Visibility),
		string(tagsJSON),
		snippet.Version,
		snippet.UpdatedAt,
		snippet.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %s: %w", snippet.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", snippet.ID)
	}

	if snapshot != nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO snippet_versions (snippet_id, version, code, updated_at)
			 VALUES (?, ?, ?, ?)`,
			snippet.ID,
			snapshot.Version,
			snapshot.Code,
			snapshot.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("sqlite: recording version %d of snippet %s: %w",
				snapshot.Version, snippet.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing update: %w", err)
	}

	return nil
}

// DeleteSnippet removes a snippet and everything hanging off it — comments,
// likes and version history — in a single transaction. Either the whole
// cascade happens or none of it does; orphaned comments can't exist.
func (db *DB) DeleteSnippet(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning delete transaction: %w", err)
	}
	defer tx.Rollback()

	// Children first — the foreign keys point at the snippet.
	for _, stmt := range []string{
		`DELETE FROM comments WHERE snippet_id = ?`,
		`DELETE FROM snippet_likes WHERE snippet_id = ?`,
		`DELETE FROM snippet_versions WHERE snippet_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("sqlite: cascading delete for snippet %s: %w", id, err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM snippets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing delete: %w", err)
	}

	return nil
}

// IncrementViews bumps the view counter by exactly one.
//
// This is `views = views + 1` IN SQL, on purpose. Reading the counter into
// Go and writing back counter+1 loses updates when two requests interleave;
// pushing the arithmetic into the store makes each increment atomic.
func (db *DB) IncrementViews(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets SET views = views + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: incrementing views for snippet %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", id)
	}

	return nil
}

// ToggleLike flips userID's membership in the snippet's like set.
//
// The whole toggle runs in one transaction:
//  1. INSERT OR IGNORE into snippet_likes — the composite primary key
//     gives us set semantics, so a duplicate like is a no-op we can detect
//     via RowsAffected.
//  2. Adjust the counter with `likes + 1` / `likes - 1` in SQL.
//  3. Read the counter back, so the returned count reflects this toggle
//     rather than a stale pre-update value ± 1.
func (db *DB) ToggleLike(ctx context.Context, id, userID string) (bool, int, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, fmt.Errorf("sqlite: beginning like transaction: %w", err)
	}
	defer tx.Rollback()

	// Confirm the snippet exists — a missing snippet must be NotFound,
	// not a foreign key violation.
	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM snippets WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return false, 0, fmt.Errorf("sqlite: checking snippet %s: %w", id, err)
	}
	if exists == 0 {
		return false, 0, apperror.NotFound("snippet", id)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO snippet_likes (snippet_id, user_id, created_at)
		 VALUES (?, ?, ?)`,
		id, userID, time.Now(),
	)
	if err != nil {
		return false, 0, fmt.Errorf("sqlite: inserting like: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return false, 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}

	liked := inserted == 1
	if liked {
		_, err = tx.ExecContext(ctx,
			`UPDATE snippets SET likes = likes + 1 WHERE id = ?`, id)
	} else {
		// Already a member — this toggle is an unlike.
		if _, err = tx.ExecContext(ctx,
			`DELETE FROM snippet_likes WHERE snippet_id = ? AND user_id = ?`,
			id, userID); err == nil {
			_, err = tx.ExecContext(ctx,
				`UPDATE snippets SET likes = MAX(likes - 1, 0) WHERE id = ?`, id)
		}
	}
	if err != nil {
		return false, 0, fmt.Errorf("sqlite: toggling like on snippet %s: %w", id, err)
	}

	var likes int
	if err := tx.QueryRowContext(ctx,
		`SELECT likes FROM snippets WHERE id = ?`, id).Scan(&likes); err != nil {
		return false, 0, fmt.Errorf("sqlite: reading like count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("sqlite: committing like toggle: %w", err)
	}

	return liked, likes, nil
}

// Versions returns the snippet's code history, oldest first. A snippet that
// has never had its code changed has an empty history.
func (db *DB) Versions(ctx context.Context, id string) ([]model.SnippetVersion, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT code, updated_at, version
		 FROM snippet_versions
		 WHERE snippet_id = ?
		 ORDER BY version`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing versions for snippet %s: %w", id, err)
	}
	defer rows.Close()

	versions := []model.SnippetVersion{}
	for rows.Next() {
		var v model.SnippetVersion
		if err := rows.Scan(&v.Code, &v.UpdatedAt, &v.Version); err != nil {
			return nil, fmt.Errorf("sqlite: scanning version row: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating versions: %w", err)
	}

	return versions, nil
}
