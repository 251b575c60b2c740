package naming

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/davitt-io/granary/internal/naming"
)

type Handler struct {
	svc *naming.Service
}

func NewHandler(svc *naming.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/suggest", h.suggest)
	r.Post("/", h.learn)
}

type suggestResponse struct {
	RawSupplier   string `json:"raw_supplier"`
	CanonicalName string `json:"canonical_name"`
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	rawSupplier := r.URL.Query().Get("raw_supplier")
	if rawSupplier == "" {
		http.Error(w, "raw_supplier query parameter is required", http.StatusBadRequest)
		return
	}

	canonical, err := h.svc.Suggest(r.Context(), rawSupplier)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(suggestResponse{
		RawSupplier:   rawSupplier,
		CanonicalName: canonical,
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type learnRequest struct {
	RawPattern    string `json:"raw_pattern"`
	CanonicalName string `json:"canonical_name"`
}

func (h *Handler) learn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.RawPattern == "" || req.CanonicalName == "" {
		http.Error(w, "raw_pattern and canonical_name are required", http.StatusBadRequest)
		return
	}

	if err := h.svc.Learn(r.Context(), req.RawPattern, req.CanonicalName); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
}
