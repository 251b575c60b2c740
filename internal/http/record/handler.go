package record

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davitt-io/granary/internal/record"
)

type Handler struct {
	svc *record.Service
}

func NewHandler(svc *record.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/transfers", h.transfers)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
	r.Patch("/{id}/status", h.updateStatus)
	r.Patch("/{id}", h.update)
}

type createRecordRequest struct {
	Kind                string           `json:"kind"`
	Operation           string           `json:"operation,omitempty"`
	Name                string           `json:"name,omitempty"`
	SupplierName        string           `json:"supplier_name,omitempty"`
	BuyerName           string           `json:"buyer_name,omitempty"`
	BuyerContact        string           `json:"buyer_contact,omitempty"`
	SourceLocation      string           `json:"source_location,omitempty"`
	DestinationLocation string           `json:"destination_location,omitempty"`
	PartnerTransfer     *bool            `json:"partner_transfer,omitempty"`
	SellingPrice        *decimal.Decimal `json:"selling_price,omitempty"`
	BuyingPrice         *decimal.Decimal `json:"buying_price,omitempty"`
	Humidity            *float64         `json:"humidity,omitempty"`
	WeightKg            *float64         `json:"weight_kg,omitempty"`
	Amount              *decimal.Decimal `json:"amount,omitempty"`
	BatchID             string           `json:"batch_id,omitempty"`
	BillNumber          string           `json:"bill_number,omitempty"`
	ExpenseType         string           `json:"expense_type,omitempty"`
	ExpenseDetails      string           `json:"expense_details,omitempty"`
	Notes               string           `json:"notes,omitempty"`
	Date                time.Time        `json:"date"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	kind, ok := record.ParseKind(req.Kind)
	if !ok {
		http.Error(w, "invalid kind", http.StatusBadRequest)
		return
	}

	params := record.CreateParams{
		Kind:                kind,
		Status:              record.StatusCompleted,
		Name:                req.Name,
		SupplierName:        req.SupplierName,
		BuyerName:           req.BuyerName,
		BuyerContact:        req.BuyerContact,
		SourceLocation:      req.SourceLocation,
		DestinationLocation: req.DestinationLocation,
		PartnerTransfer:     req.PartnerTransfer,
		SellingPrice:        req.SellingPrice,
		BuyingPrice:         req.BuyingPrice,
		Humidity:            req.Humidity,
		WeightKg:            req.WeightKg,
		Amount:              req.Amount,
		BatchID:             req.BatchID,
		BillNumber:          req.BillNumber,
		ExpenseType:         req.ExpenseType,
		ExpenseDetails:      req.ExpenseDetails,
		Notes:               req.Notes,
		CreatedAt:           req.Date,
	}

	if req.Operation != "" {
		op, ok := record.ParseCategory(req.Operation)
		if !ok {
			http.Error(w, "invalid operation", http.StatusBadRequest)
			return
		}

		params.Operation = op
	}

	rec, err := h.svc.Create(r.Context(), params)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(rec)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// list serves both plain listing and filtered queries. The coarse
// filters (kind, status, date bounds) hit the database; search,
// relative ranges, calendar buckets and sorting run in the query
// engine.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := record.ListFilter{}

	if s := q.Get("kind"); s != "" {
		kind, ok := record.ParseKind(s)
		if !ok {
			http.Error(w, "invalid kind", http.StatusBadRequest)
			return
		}

		filter.Kind = new(kind)
	}

	// "all" is the inactive sentinel, same as for time_range and
	// date_filter.
	if s := q.Get("status"); s != "" && !strings.EqualFold(strings.TrimSpace(s), "all") {
		status, ok := record.ParseStatus(s)
		if !ok {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}

		filter.Status = new(status)
	}

	if s := q.Get("start_date"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.StartDate = new(t)
		}
	}

	if s := q.Get("end_date"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.EndDate = new(t)
		}
	}

	criteria := record.Criteria{Search: q.Get("search")}

	if s := q.Get("time_range"); s != "" {
		tr, ok := record.ParseTimeRange(s)
		if !ok {
			http.Error(w, "invalid time_range", http.StatusBadRequest)
			return
		}

		criteria.TimeRange = tr
	}

	if s := q.Get("date_filter"); s != "" {
		dr, ok := record.ParseDateRange(s)
		if !ok {
			http.Error(w, "invalid date_filter", http.StatusBadRequest)
			return
		}

		criteria.DateRange = dr
	}

	// Unrecognized sort keys are accepted and fall back to the default
	// ordering, so older clients keep working.
	criteria.Sort = record.SortKey(q.Get("sort"))

	recs, err := h.svc.Query(r.Context(), filter, criteria)
	if err != nil {
		if errors.Is(err, record.ErrMissingSortField) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponseList(recs)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type transfersResponse struct {
	Partner    []recordResponse `json:"partner"`
	Relocation []recordResponse `json:"relocation"`
}

func (h *Handler) transfers(w http.ResponseWriter, r *http.Request) {
	partner, relocation, err := h.svc.PartitionTransfers(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(transfersResponse{
		Partner:    toResponseList(partner),
		Relocation: toResponseList(relocation),
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	rec, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			http.Error(w, "record not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(rec)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type updateRecordRequest struct {
	Operation           *string          `json:"operation,omitempty"`
	Name                *string          `json:"name,omitempty"`
	SupplierName        *string          `json:"supplier_name,omitempty"`
	BuyerName           *string          `json:"buyer_name,omitempty"`
	BuyerContact        *string          `json:"buyer_contact,omitempty"`
	SourceLocation      *string          `json:"source_location,omitempty"`
	DestinationLocation *string          `json:"destination_location,omitempty"`
	PartnerTransfer     *bool            `json:"partner_transfer,omitempty"`
	SellingPrice        *decimal.Decimal `json:"selling_price,omitempty"`
	BuyingPrice         *decimal.Decimal `json:"buying_price,omitempty"`
	Humidity            *float64         `json:"humidity,omitempty"`
	WeightKg            *float64         `json:"weight_kg,omitempty"`
	Amount              *decimal.Decimal `json:"amount,omitempty"`
	BatchID             *string          `json:"batch_id,omitempty"`
	Notes               *string          `json:"notes,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req updateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			http.Error(w, "record not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	if req.Operation != nil {
		op, ok := record.ParseCategory(*req.Operation)
		if !ok {
			http.Error(w, "invalid operation", http.StatusBadRequest)
			return
		}

		rec.Operation = op
	}

	if req.Name != nil {
		rec.Name = *req.Name
	}

	if req.SupplierName != nil {
		rec.SupplierName = *req.SupplierName
	}

	if req.BuyerName != nil {
		rec.BuyerName = *req.BuyerName
	}

	if req.BuyerContact != nil {
		rec.BuyerContact = *req.BuyerContact
	}

	if req.SourceLocation != nil {
		rec.SourceLocation = *req.SourceLocation
	}

	if req.DestinationLocation != nil {
		rec.DestinationLocation = *req.DestinationLocation
	}

	if req.PartnerTransfer != nil {
		rec.PartnerTransfer = req.PartnerTransfer
	}

	if req.SellingPrice != nil {
		rec.SellingPrice = req.SellingPrice
	}

	if req.BuyingPrice != nil {
		rec.BuyingPrice = req.BuyingPrice
	}

	if req.Humidity != nil {
		rec.Humidity = req.Humidity
	}

	if req.WeightKg != nil {
		rec.WeightKg = req.WeightKg
	}

	if req.Amount != nil {
		rec.Amount = req.Amount
	}

	if req.BatchID != nil {
		rec.BatchID = *req.BatchID
	}

	if req.Notes != nil {
		rec.Notes = *req.Notes
	}

	if err := h.svc.Update(r.Context(), rec); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(rec)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	status, ok := record.ParseStatus(req.Status)
	if !ok {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	if err := h.svc.UpdateStatus(r.Context(), id, status); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
