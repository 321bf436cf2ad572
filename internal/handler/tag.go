package handler

import (
	"log/slog"
	"net/http"

	"github.com/mlatour/codestash/internal/service"
)

// TagHandler serves the tag endpoints. Tags are shared across users.
type TagHandler struct {
	service *service.TagService
	logger  *slog.Logger
}

func NewTagHandler(service *service.TagService, logger *slog.Logger) *TagHandler {
	return &TagHandler{
		service: service,
		logger:  logger,
	}
}

type tagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Create handles POST /api/tags.
func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	var req tagRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tag, err := h.service.Create(r.Context(), req.Name, req.Color)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tag)
}

// List handles GET /api/tags.
func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	tags, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tags)
}
