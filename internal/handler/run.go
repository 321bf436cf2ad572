package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mlatour/codestash/internal/executor"
	"github.com/mlatour/codestash/internal/service"
)

// RunHandler executes a snippet's current content in the sandbox.
type RunHandler struct {
	snippets *service.SnippetService
	runner   executor.Runner // nil when Docker is unavailable
	logger   *slog.Logger
}

func NewRunHandler(snippets *service.SnippetService, runner executor.Runner, logger *slog.Logger) *RunHandler {
	return &RunHandler{
		snippets: snippets,
		runner:   runner,
		logger:   logger,
	}
}

type runResponse struct {
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ExitCode   int    `json:"exitCode"`
	DurationMs int64  `json:"durationMs"`
}

// Run handles POST /api/snippets/{id}/run. The snippet must be
// readable by the caller; its stored content is executed as-is.
func (h *RunHandler) Run(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if h.runner == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   "unavailable",
			Message: "code execution is not available",
		})
		return
	}

	snippet, err := h.snippets.GetByID(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.runner.Run(r.Context(), executor.RunRequest{
		Language: snippet.Language,
		Code:     snippet.Content,
	})
	if err != nil {
		if errors.Is(err, executor.ErrUnsupportedLanguage) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "validation_error",
				Message: "language cannot be executed: " + snippet.Language,
			})
			return
		}
		h.logger.Error("snippet execution failed",
			slog.String("snippet_id", snippet.ID),
			slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "execution failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, runResponse{
		Stdout:     result.Stdout,
		Stderr:     result.Stderr,
		ExitCode:   result.ExitCode,
		DurationMs: result.Duration.Milliseconds(),
	})
}
