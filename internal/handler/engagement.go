package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/snippetshare/internal/service"
)

// EngagementHandler manages likes and comments on snippets.
type EngagementHandler struct {
	service *service.EngagementService
	logger  *slog.Logger
}

// NewEngagementHandler creates a new EngagementHandler.
func NewEngagementHandler(svc *service.EngagementService, logger *slog.Logger) *EngagementHandler {
	return &EngagementHandler{service: svc, logger: logger}
}

// HandleToggleLike flips the caller's like on a snippet.
//
// HTTP: POST /api/snippets/{id}/like
// Auth: Required
//
// WHY ONE TOGGLE ENDPOINT INSTEAD OF LIKE + UNLIKE?
// The client never has to know the current state before acting — it sends
// the same request either way and the response says what happened:
//
//	{"liked":true,"likeCount":5}
func (h *EngagementHandler) HandleToggleLike(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ToggleLike(r.Context(), viewerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// commentRequest is the expected body for posting a comment.
type commentRequest struct {
	Content string `json:"content"`
}

// HandleCreateComment posts a comment on a snippet.
//
// HTTP: POST /api/snippets/{id}/comments
// Auth: Required
// REQUEST BODY: {"content":"nice trick with the channel select"}
func (h *EngagementHandler) HandleCreateComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid comment JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	comment, err := h.service.AddComment(r.Context(), viewerID(r), r.PathValue("id"), req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, comment)
}
