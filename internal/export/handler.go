package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/inamate/vecta/backend-go/internal/document"
	"github.com/inamate/vecta/backend-go/internal/store"
)

// DocumentSource returns the current document of a project.
type DocumentSource interface {
	Document(ctx context.Context, projectID string) ([]document.Entity, error)
}

type Handler struct {
	docs DocumentSource
}

func NewHandler(docs DocumentSource) *Handler {
	return &Handler{docs: docs}
}

// ExportSVG serves GET /api/projects/{projectId}/export.svg?t=ms. The
// optional background query parameter fills the canvas.
func (h *Handler) ExportSVG(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	t := 0.0
	if raw := r.URL.Query().Get("t"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			http.Error(w, "invalid time: must be a non-negative number of milliseconds", http.StatusBadRequest)
			return
		}
		t = v
	}

	entities, err := h.docs.Document(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "project not found", http.StatusNotFound)
			return
		}
		slog.Error("load document for export", "error", err, "project", projectID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	opts := DefaultOptions()
	opts.Background = r.URL.Query().Get("background")

	var buf bytes.Buffer
	if err := WriteSVG(&buf, entities, t, opts); err != nil {
		slog.Error("write svg", "error", err, "project", projectID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.svg"`, sanitizeName(projectID)))
	w.Write(buf.Bytes())
}

func sanitizeName(name string) string {
	if name == "" {
		return "drawing"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}
