package project

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/inamate/vecta/backend-go/internal/document"
)

const maxBodySize = 10 << 20 // 10MB

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Create(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, info)
}

func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	entities, err := h.service.Document(r.Context(), projectID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeEntities(w, entities)
}

func (h *Handler) PutDocument(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	var raw json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	entities, err := document.Decode(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body must be an entity array"})
		return
	}

	info, err := h.service.Replace(r.Context(), projectID, entities)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// ImportSVG converts an uploaded SVG body to the entity array without
// storing it; the client adds the entities through its session.
func (h *Handler) ImportSVG(w http.ResponseWriter, r *http.Request) {
	entities, err := h.service.Import(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		slog.Debug("svg import failed", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "could not read svg document"})
		return
	}

	writeEntities(w, entities)
}

func writeEntities(w http.ResponseWriter, entities []document.Entity) {
	data, err := document.Encode(entities)
	if err != nil {
		slog.Error("encode entities", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrInvalidProjectID):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid project id"})
	case errors.Is(err, ErrProjectOpen):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "project is open in a live session"})
	case errors.Is(err, ErrNoStorage):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "storage unavailable"})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
