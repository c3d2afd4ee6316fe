package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/snippetshare/internal/auth"
	"github.com/sakif/snippetshare/internal/service"
)

// SnippetHandler manages CRUD operations for code snippets.
//
// WHY A SEPARATE HANDLER?
// Each handler struct "owns" one area of functionality. Snippet lifecycle
// and listing live here; likes and comments live in EngagementHandler;
// sessions live in AuthHandler. This makes code easier to:
// - Test (mock dependencies independently)
// - Understand (find all snippet logic in one place)
// - Modify (change listing behavior without touching auth)
//
// The handler only parses requests and writes responses. Ownership,
// visibility, and versioning rules are the service's job — a handler never
// decides who may see what.
type SnippetHandler struct {
	service *service.SnippetService
	logger  *slog.Logger
}

// NewSnippetHandler creates a new SnippetHandler.
func NewSnippetHandler(svc *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{service: svc, logger: logger}
}

// viewerID returns the authenticated user's id, or "" for anonymous
// requests. Routes behind OptionalAuth use this: identity changes the
// outcome but is never required.
func viewerID(r *http.Request) string {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

// HandleList returns one page of the public feed.
//
// HTTP: GET /api/snippets?sort=latest&page=1&limit=12&query=&language=&tag=
//
// QUERY PARAMETERS:
//   - sort:     latest (default) | popular | commented
//   - page:     1-based page number
//   - limit:    page size, capped server-side
//   - query:    substring match on title and description
//   - language: exact match
//   - tag:      exact match against the snippet's tag list
//
// RESPONSE FORMAT:
//
//	{"snippets":[...],"pagination":{"total":57,"page":1,"limit":12,"pages":5}}
//
// Only public snippets appear here, whoever asks.
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// Atoi errors are deliberately ignored: a malformed page or limit
	// parses to 0 and the service falls back to its defaults.
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	listing, err := h.service.List(r.Context(), service.ListParams{
		Sort:     q.Get("sort"),
		Page:     page,
		Limit:    limit,
		Query:    q.Get("query"),
		Language: q.Get("language"),
		Tag:      q.Get("tag"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listing)
}

// HandleMine returns all of the caller's own snippets, every visibility,
// newest first.
//
// HTTP: GET /api/user/snippets
// Auth: Required
func (h *SnippetHandler) HandleMine(w http.ResponseWriter, r *http.Request) {
	snippets, err := h.service.ListOwn(r.Context(), viewerID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}

// HandleCreate saves a new snippet owned by the caller.
//
// HTTP: POST /api/snippets
// Auth: Required
// REQUEST BODY: {"title":"...","code":"...","language":"go","visibility":"public","tags":["a"]}
//
// JSON DECODING:
// json.NewDecoder(r.Body) reads the request body as a stream and decodes it
// into the input struct — no need to buffer the entire body in memory.
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.SnippetInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.logger.Warn("invalid snippet JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	snippet, err := h.service.Create(r.Context(), viewerID(r), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, snippet)
}

// HandleGetByID returns a single snippet with comments and the caller's
// like state.
//
// HTTP: GET /api/snippets/{id}
// Auth: Optional — anonymous readers see public and unlisted snippets;
// private ones are author-only.
//
// URL PARAMETERS:
// Chi provides r.PathValue("id") to extract URL parameters. For
// GET /api/snippets/abc123, PathValue("id") returns "abc123".
func (h *SnippetHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.Get(r.Context(), viewerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// HandleUpdate overwrites the snippet's mutable fields. Changing the code
// advances the version and snapshots the previous one.
//
// HTTP: PUT /api/snippets/{id}
// Auth: Required (author only)
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in service.SnippetInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.logger.Warn("invalid snippet JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	snippet, err := h.service.Update(r.Context(), viewerID(r), r.PathValue("id"), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleDelete removes a snippet along with its comments, likes and
// version history.
//
// HTTP: DELETE /api/snippets/{id}
// Auth: Required (author only)
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), viewerID(r), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "snippet deleted"})
}

// HandleVersions returns the snippet's code history, oldest first.
//
// HTTP: GET /api/snippets/{id}/versions
// Auth: Optional — same visibility rule as fetching the snippet.
func (h *SnippetHandler) HandleVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.service.Versions(r.Context(), viewerID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, versions)
}
