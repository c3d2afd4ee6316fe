// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces ownership/visibility
//	Repository (Data layer)  → reads/writes the database
//
// Services accept primitives and small input structs, never *http.Request,
// and return domain errors from the apperror package, never status codes.
// The handler translates both directions. Ownership and visibility rules
// live HERE, in one place — not scattered across handlers.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/rs/xid"
	"github.com/sakif/snippetshare/internal/apperror"
	"github.com/sakif/snippetshare/internal/model"
	"github.com/sakif/snippetshare/internal/repository"
)

// Validation limits for snippet fields.
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
	MaxCodeLength        = 100000 // ~100KB of code

	DefaultPageSize = 12
	MaxPageSize     = 50
)

// checkID rejects malformed identifiers before they reach the store.
// IDs are xids; anything that doesn't parse can't name an entity, and the
// caller deserves a 400 InvalidID rather than a 404.
func checkID(resource, id string) error {
	if _, err := xid.FromString(id); err != nil {
		return apperror.InvalidID(resource, id)
	}
	return nil
}

// SnippetInput is the full mutable field set of a snippet, used by both
// Create and Update. Update requires the whole set — it overwrites, it
// does not patch.
type SnippetInput struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Code        string           `json:"code"`
	Language    string           `json:"language"`
	Visibility  model.Visibility `json:"visibility"`
	Tags        []string         `json:"tags"`
}

// SnippetDetail is what a single-snippet fetch returns: the snippet with
// author and likedBy expanded, its comments newest-first, and the viewer's
// own like state.
type SnippetDetail struct {
	Snippet   *model.Snippet  `json:"snippet"`
	Comments  []model.Comment `json:"comments"`
	LikeCount int             `json:"likeCount"`
	Liked     bool            `json:"liked"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// Listing is one page of the public feed.
type Listing struct {
	Snippets   []model.Snippet `json:"snippets"`
	Pagination Pagination      `json:"pagination"`
}

// ListParams are the raw listing knobs as they come off the query string.
type ListParams struct {
	Sort     string
	Page     int
	Limit    int
	Query    string
	Language string
	Tag      string
}

// SnippetService handles the snippet lifecycle: create, fetch with
// visibility enforcement and view counting, update with code versioning,
// delete with cascade, and the listing queries.
type SnippetService struct {
	snippets repository.SnippetRepository
	comments repository.CommentRepository
	logger   *slog.Logger
}

// NewSnippetService creates a SnippetService. The caller decides which
// repository implementation to inject (SQLite in production, mocks in tests).
func NewSnippetService(
	snippets repository.SnippetRepository,
	comments repository.CommentRepository,
	logger *slog.Logger,
) *SnippetService {
	return &SnippetService{
		snippets: snippets,
		comments: comments,
		logger:   logger,
	}
}

// validateInput enforces the field rules shared by Create and Update.
// Title, code and language are required; title/description are capped; the
// visibility must be one of the three tiers (empty defaults to public).
func validateInput(in *SnippetInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Language = strings.TrimSpace(in.Language)

	if in.Title == "" {
		return apperror.ValidationFailed("title", "title is required")
	}
	if len(in.Title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if len(in.Description) > MaxDescriptionLength {
		return apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}
	if in.Code == "" {
		return apperror.ValidationFailed("code", "code is required")
	}
	if len(in.Code) > MaxCodeLength {
		return apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	}
	if in.Language == "" {
		return apperror.ValidationFailed("language", "language is required")
	}

	if in.Visibility == "" {
		in.Visibility = model.VisibilityPublic
	}
	if !in.Visibility.Valid() {
		return apperror.ValidationFailed("visibility",
			"visibility must be public, private or unlisted")
	}

	// Normalize tags: trim, drop empties, keep order.
	tags := make([]string, 0, len(in.Tags))
	for _, tag := range in.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	in.Tags = tags

	return nil
}

// Create validates and saves a new snippet owned by authorID.
// A new snippet always starts at version 1 with zeroed counters and an
// empty like set and history.
func (s *SnippetService) Create(ctx context.Context, authorID string, in SnippetInput) (*model.Snippet, error) {
	if authorID == "" {
		return nil, apperror.Unauthorized("sign in to create snippets")
	}
	if err := validateInput(&in); err != nil {
		return nil, err
	}

	snippet := &model.Snippet{
		Title:       in.Title,
		Description: in.Description,
		Code:        in.Code,
		Language:    in.Language,
		Visibility:  in.Visibility,
		AuthorID:    authorID,
		Tags:        in.Tags,
	}

	if err := s.snippets.CreateSnippet(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("author", authorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("author", authorID),
		slog.String("language", snippet.Language),
	)

	return snippet, nil
}

// checkVisibility enforces the read rule: private snippets are author-only.
// Anonymous callers get Unauthorized, other signed-in users get Forbidden.
// Public and unlisted snippets are readable by anyone holding the id.
func checkVisibility(snippet *model.Snippet, viewerID string) error {
	if snippet.Visibility != model.VisibilityPrivate || viewerID == snippet.AuthorID {
		return nil
	}
	if viewerID == "" {
		return apperror.Unauthorized("sign in to view this snippet")
	}
	return apperror.Forbidden("this snippet is private")
}

// Get fetches a snippet for viewerID (empty = anonymous), enforcing the
// visibility rule, and returns it together with its comments.
//
// A successful read by anyone but the author counts one view. The
// increment happens in the store (views = views + 1), so concurrent reads
// each land; we mirror it on the in-memory copy so the response already
// shows the new count.
func (s *SnippetService) Get(ctx context.Context, viewerID, id string) (*SnippetDetail, error) {
	if err := checkID("snippet", id); err != nil {
		return nil, err
	}

	snippet, err := s.snippets.GetSnippetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := checkVisibility(snippet, viewerID); err != nil {
		return nil, err
	}

	if viewerID != snippet.AuthorID {
		if err := s.snippets.IncrementViews(ctx, id); err != nil {
			return nil, fmt.Errorf("counting view: %w", err)
		}
		snippet.Views++
	}

	comments, err := s.comments.ListBySnippet(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading comments: %w", err)
	}

	liked := false
	for _, userID := range snippet.LikedBy {
		if userID == viewerID && viewerID != "" {
			liked = true
			break
		}
	}

	return &SnippetDetail{
		Snippet:   snippet,
		Comments:  comments,
		LikeCount: len(snippet.LikedBy),
		Liked:     liked,
	}, nil
}

// Update overwrites the snippet's mutable fields on behalf of callerID.
//
// VERSIONING RULE: the incoming code is compared byte-for-byte with the
// stored code. If it differs, the pre-update {code, updatedAt, version}
// snapshot is pushed onto the history and the version advances by one —
// atomically with the overwrite. If only metadata changed, the version and
// history are untouched. Only the code field is versioned; title and tag
// edits are not retained in history.
func (s *SnippetService) Update(ctx context.Context, callerID, id string, in SnippetInput) (*model.Snippet, error) {
	if callerID == "" {
		return nil, apperror.Unauthorized("sign in to edit snippets")
	}
	if err := checkID("snippet", id); err != nil {
		return nil, err
	}

	snippet, err := s.snippets.GetSnippetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if snippet.AuthorID != callerID {
		return nil, apperror.Forbidden("only the author can edit this snippet")
	}

	if err := validateInput(&in); err != nil {
		return nil, err
	}

	var snapshot *model.SnippetVersion
	if in.Code != snippet.Code {
		snapshot = &model.SnippetVersion{
			Code:      snippet.Code,
			UpdatedAt: snippet.UpdatedAt,
			Version:   snippet.Version,
		}
		snippet.Version++
	}

	snippet.Title = in.Title
	snippet.Description = in.Description
	snippet.Code = in.Code
	snippet.Language = in.Language
	snippet.Visibility = in.Visibility
	snippet.Tags = in.Tags

	if err := s.snippets.UpdateSnippet(ctx, snippet, snapshot); err != nil {
		s.logger.Error("failed to update snippet",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating snippet: %w", err)
	}

	s.logger.Info("snippet updated",
		slog.String("id", snippet.ID),
		slog.Int("version", snippet.Version),
		slog.Bool("codeChanged", snapshot != nil),
	)

	return snippet, nil
}

// Delete removes callerID's snippet and everything attached to it. The
// repository cascades comments, likes and version history in one
// transaction.
func (s *SnippetService) Delete(ctx context.Context, callerID, id string) error {
	if callerID == "" {
		return apperror.Unauthorized("sign in to delete snippets")
	}
	if err := checkID("snippet", id); err != nil {
		return err
	}

	snippet, err := s.snippets.GetSnippetByID(ctx, id)
	if err != nil {
		return err
	}
	if snippet.AuthorID != callerID {
		return apperror.Forbidden("only the author can delete this snippet")
	}

	if err := s.snippets.DeleteSnippet(ctx, id); err != nil {
		return fmt.Errorf("deleting snippet: %w", err)
	}

	s.logger.Info("snippet deleted", slog.String("id", id))
	return nil
}

// List returns one page of the public feed. Only public snippets ever
// appear, whoever asks — private and unlisted are excluded from listings
// regardless of identity.
func (s *SnippetService) List(ctx context.Context, params ListParams) (*Listing, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	var sort repository.SortKey
	switch params.Sort {
	case string(repository.SortPopular):
		sort = repository.SortPopular
	case string(repository.SortCommented):
		sort = repository.SortCommented
	default:
		sort = repository.SortLatest
	}

	snippets, total, err := s.snippets.ListPublic(ctx, repository.ListOptions{
		Sort:     sort,
		Limit:    limit,
		Offset:   (page - 1) * limit,
		Query:    strings.TrimSpace(params.Query),
		Language: strings.TrimSpace(params.Language),
		Tag:      strings.TrimSpace(params.Tag),
	})
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing snippets: %w", err)
	}

	return &Listing{
		Snippets: snippets,
		Pagination: Pagination{
			Total: total,
			Page:  page,
			Limit: limit,
			Pages: int(math.Ceil(float64(total) / float64(limit))),
		},
	}, nil
}

// ListOwn returns all of callerID's snippets, every visibility, newest
// first. This is the only listing that surfaces private and unlisted
// snippets — and only to their author.
func (s *SnippetService) ListOwn(ctx context.Context, callerID string) ([]model.Snippet, error) {
	if callerID == "" {
		return nil, apperror.Unauthorized("sign in to view your snippets")
	}

	snippets, err := s.snippets.ListByAuthor(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("listing own snippets: %w", err)
	}

	return snippets, nil
}

// GetForRun returns the snippet for code execution, under the same
// visibility rule as Get. Running a snippet is not a read — it does not
// count a view.
func (s *SnippetService) GetForRun(ctx context.Context, viewerID, id string) (*model.Snippet, error) {
	if err := checkID("snippet", id); err != nil {
		return nil, err
	}

	snippet, err := s.snippets.GetSnippetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkVisibility(snippet, viewerID); err != nil {
		return nil, err
	}

	return snippet, nil
}

// Versions returns the snippet's code history, oldest first, under the
// same visibility rule as Get. Reading history does not count a view.
func (s *SnippetService) Versions(ctx context.Context, viewerID, id string) ([]model.SnippetVersion, error) {
	if err := checkID("snippet", id); err != nil {
		return nil, err
	}

	snippet, err := s.snippets.GetSnippetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkVisibility(snippet, viewerID); err != nil {
		return nil, err
	}

	versions, err := s.snippets.Versions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading versions: %w", err)
	}

	return versions, nil
}
