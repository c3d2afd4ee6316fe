package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/snippetshare/internal/executor"
	"github.com/sakif/snippetshare/internal/service"
)

// RunHandler executes a stored snippet in a sandboxed container and
// returns its output.
type RunHandler struct {
	service *service.SnippetService
	exec    executor.Executor
	logger  *slog.Logger
}

// NewRunHandler creates a new RunHandler. exec may be nil when no Docker
// daemon is available; the run route then responds 503.
func NewRunHandler(svc *service.SnippetService, exec executor.Executor, logger *slog.Logger) *RunHandler {
	return &RunHandler{
		service: svc,
		exec:    exec,
		logger:  logger,
	}
}

// HandleRun executes the snippet's current code.
//
// HTTP: POST /api/snippets/{id}/run
// Auth: Optional — same visibility rule as fetching the snippet. Running
// does not count a view.
//
// The code that runs is the STORED code, not a client-supplied body: the
// endpoint lets a reader try a snippet out, not execute arbitrary input.
func (h *RunHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	if h.exec == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   "execution_unavailable",
			Message: "code execution is not enabled on this server",
		})
		return
	}

	snippet, err := h.service.GetForRun(r.Context(), viewerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	if !h.exec.Supports(snippet.Language) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: fmt.Sprintf("language %q cannot be executed", snippet.Language),
		})
		return
	}

	h.logger.Info("executing snippet",
		slog.String("id", snippet.ID),
		slog.String("language", snippet.Language),
	)

	result, err := h.exec.Execute(r.Context(), executor.ExecutionRequest{
		Code:     snippet.Code,
		Language: snippet.Language,
	})
	if err != nil {
		h.logger.Error("snippet execution failed",
			slog.String("id", snippet.ID),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "execution failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, result)
}
