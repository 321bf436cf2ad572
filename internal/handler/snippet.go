package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mlatour/codestash/internal/apperror"
	"github.com/mlatour/codestash/internal/auth"
	"github.com/mlatour/codestash/internal/repository"
	"github.com/mlatour/codestash/internal/service"
)

// SnippetHandler serves the snippet CRUD, revision and tagging
// endpoints.
type SnippetHandler struct {
	service *service.SnippetService
	logger  *slog.Logger
}

func NewSnippetHandler(service *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{
		service: service,
		logger:  logger,
	}
}

type snippetRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Content     string  `json:"content"`
	Language    string  `json:"language"`
	FolderID    *string `json:"folderId"`
	IsPublic    bool    `json:"isPublic"`
}

// reviseRequest is the body of PUT /api/snippets/{id}. Content is a
// pointer so a request that omits the field entirely can be told apart
// from one that sets it to "" (clearing the snippet is legitimate,
// forgetting the field is a 400). BaseVersion is optional: zero (or
// absent) means last-writer-wins, a positive value asks for an
// optimistic concurrency check against the stored version.
type reviseRequest struct {
	Content     *string `json:"content"`
	BaseVersion int     `json:"baseVersion"`
}

func (r snippetRequest) toInput() service.SnippetInput {
	return service.SnippetInput{
		Title:       r.Title,
		Description: r.Description,
		Content:     r.Content,
		Language:    r.Language,
		FolderID:    r.FolderID,
		IsPublic:    r.IsPublic,
	}
}

// Create handles POST /api/snippets.
func (h *SnippetHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req snippetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	snippet, err := h.service.Create(r.Context(), userID, req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, snippet)
}

// Get handles GET /api/snippets/{id}. Public snippets are readable by
// anyone with a session; everything else is owner-only.
func (h *SnippetHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	snippet, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// List handles GET /api/snippets with optional folder, limit and
// offset query parameters.
func (h *SnippetHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	opts := repository.ListOptions{
		Limit:    queryInt(r, "limit"),
		Offset:   queryInt(r, "offset"),
		FolderID: r.URL.Query().Get("folder"),
	}

	snippets, err := h.service.List(r.Context(), userID, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}

// UpdateMeta handles PATCH /api/snippets/{id}. It updates title,
// description, language, folder and visibility; the content and
// version are only ever changed through Revise.
func (h *SnippetHandler) UpdateMeta(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req snippetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	snippet, err := h.service.UpdateMeta(r.Context(), chi.URLParam(r, "id"), userID, req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// Revise handles PUT /api/snippets/{id}. The previous content is
// archived as a history entry and the version counter advances by one.
func (h *SnippetHandler) Revise(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req reviseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Content == nil {
		writeError(w, apperror.ValidationFailed("content", "content is required"))
		return
	}

	snippet, err := h.service.Revise(r.Context(), chi.URLParam(r, "id"), userID, *req.Content, req.BaseVersion)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// History handles GET /api/snippets/{id}/history, returning archived
// versions oldest first.
func (h *SnippetHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	entries, err := h.service.History(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// Delete handles DELETE /api/snippets/{id}.
func (h *SnippetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AttachTag handles PUT /api/snippets/{id}/tags/{tagID}. Attaching a
// tag that is already present is a no-op.
func (h *SnippetHandler) AttachTag(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	err := h.service.AttachTag(r.Context(), chi.URLParam(r, "id"), userID, chi.URLParam(r, "tagID"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DetachTag handles DELETE /api/snippets/{id}/tags/{tagID}.
func (h *SnippetHandler) DetachTag(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	err := h.service.DetachTag(r.Context(), chi.URLParam(r, "id"), userID, chi.URLParam(r, "tagID"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// requireUser pulls the authenticated user ID from the request
// context. The auth middleware puts it there; a miss means the route
// was mounted without RequireAuth.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return "", false
	}
	return userID, true
}

// queryInt parses an integer query parameter, returning 0 when it is
// absent or malformed. The service clamps ranges.
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}
