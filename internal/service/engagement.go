// Package service — engagement: likes and comments.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/snippetshare/internal/apperror"
	"github.com/sakif/snippetshare/internal/model"
	"github.com/sakif/snippetshare/internal/repository"
)

// MaxCommentLength caps comment content, matching the stored schema.
const MaxCommentLength = 1000

// LikeResult is the outcome of a like toggle: the caller's resulting
// membership in the like set and the counter after the toggle.
type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"likeCount"`
}

// EngagementService handles likes and comments on snippets.
//
// Both operations require an authenticated caller and an existing,
// viewable snippet; neither requires ownership — engagement is exactly the
// thing non-authors do.
type EngagementService struct {
	snippets repository.SnippetRepository
	comments repository.CommentRepository
	logger   *slog.Logger
}

// NewEngagementService creates an EngagementService.
func NewEngagementService(
	snippets repository.SnippetRepository,
	comments repository.CommentRepository,
	logger *slog.Logger,
) *EngagementService {
	return &EngagementService{
		snippets: snippets,
		comments: comments,
		logger:   logger,
	}
}

// ToggleLike flips userID's like on the snippet.
//
// The toggle is set-membership first: if the user is in likedBy this is an
// unlike, otherwise a like. The repository performs membership change and
// counter adjustment atomically in one transaction, so liking twice
// concurrently nets exactly one like — the set, not the counter, is the
// source of truth.
func (s *EngagementService) ToggleLike(ctx context.Context, userID, snippetID string) (*LikeResult, error) {
	if userID == "" {
		return nil, apperror.Unauthorized("sign in to like snippets")
	}
	if err := checkID("snippet", snippetID); err != nil {
		return nil, err
	}

	liked, likes, err := s.snippets.ToggleLike(ctx, snippetID, userID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("like toggled",
		slog.String("snippet", snippetID),
		slog.String("user", userID),
		slog.Bool("liked", liked),
	)

	return &LikeResult{Liked: liked, LikeCount: likes}, nil
}

// AddComment posts a comment by userID on the snippet.
//
// Any authenticated user who can view the snippet may comment; the same
// visibility rule as fetching applies, so nobody can probe a private
// snippet by commenting on it.
func (s *EngagementService) AddComment(ctx context.Context, userID, snippetID, content string) (*model.Comment, error) {
	if userID == "" {
		return nil, apperror.Unauthorized("sign in to comment")
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "comment content is required")
	}
	if len(content) > MaxCommentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("comment must be %d characters or less", MaxCommentLength))
	}

	if err := checkID("snippet", snippetID); err != nil {
		return nil, err
	}

	snippet, err := s.snippets.GetSnippetByID(ctx, snippetID)
	if err != nil {
		return nil, err
	}
	if err := checkVisibility(snippet, userID); err != nil {
		return nil, err
	}

	comment := &model.Comment{
		Content:   content,
		AuthorID:  userID,
		SnippetID: snippetID,
	}

	if err := s.comments.CreateComment(ctx, comment); err != nil {
		s.logger.Error("failed to create comment",
			slog.String("snippet", snippetID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating comment: %w", err)
	}

	s.logger.Info("comment added",
		slog.String("id", comment.ID),
		slog.String("snippet", snippetID),
	)

	return comment, nil
}
