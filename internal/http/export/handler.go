package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/davitt-io/granary/internal/export"
	"github.com/davitt-io/granary/internal/record"
)

type Handler struct {
	svc       *export.Service
	recordSvc *record.Service
}

func NewHandler(svc *export.Service, recordSvc *record.Service) *Handler {
	return &Handler{svc: svc, recordSvc: recordSvc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.metadata)
	r.Post("/download", h.download)
}

type exportRequest struct {
	Kind      string     `json:"kind,omitempty"`
	Status    string     `json:"status,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Format    string     `json:"format,omitempty"`
}

func (h *Handler) parseFilter(req exportRequest) (record.ListFilter, error) {
	filter := record.ListFilter{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}

	if req.Kind != "" {
		kind, ok := record.ParseKind(req.Kind)
		if !ok {
			return filter, fmt.Errorf("invalid kind: %q", req.Kind)
		}

		filter.Kind = new(kind)
	}

	if req.Status != "" {
		status, ok := record.ParseStatus(req.Status)
		if !ok {
			return filter, fmt.Errorf("invalid status: %q", req.Status)
		}

		filter.Status = new(status)
	}

	return filter, nil
}

type exportMetadataResponse struct {
	Count   int    `json:"count"`
	Summary string `json:"summary"`
}

// metadata previews an export: how many records match and the
// per-category summary, without producing a file.
func (h *Handler) metadata(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	filter, err := h.parseFilter(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	recs, err := h.recordSvc.Query(r.Context(), filter, record.Criteria{})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(exportMetadataResponse{
		Count:   len(recs),
		Summary: h.svc.GenerateSummary(recs),
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	filter, err := h.parseFilter(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	format := export.FormatCSV
	if req.Format != "" {
		format, err = export.ParseFormat(req.Format)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	contentType := "text/csv"
	if format == export.FormatXLSX {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"records_%s.%s\"", time.Now().Format("20060102"), format))

	if _, err := h.svc.Export(r.Context(), filter, record.Criteria{}, format, w); err != nil {
		// Headers are already out; all we can do is log.
		slog.Error("failed to write export", "error", err)
	}
}
