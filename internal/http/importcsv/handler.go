package importcsv

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/davitt-io/granary/internal/importer"
	"github.com/davitt-io/granary/internal/naming"
	"github.com/davitt-io/granary/internal/record"
)

type Handler struct {
	importSvc *importer.Service
	recordSvc *record.Service
	namingSvc *naming.Service
}

func NewHandler(importSvc *importer.Service, recordSvc *record.Service, namingSvc *naming.Service) *Handler {
	return &Handler{
		importSvc: importSvc,
		recordSvc: recordSvc,
		namingSvc: namingSvc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importCSV)
	r.Post("/confirm", h.confirmImport)
}

type recordResponse struct {
	ID           uuid.UUID        `json:"id"`
	Kind         record.Kind      `json:"kind"`
	Status       record.Status    `json:"status"`
	SupplierName string           `json:"supplier_name"`
	RawSupplier  string           `json:"raw_supplier,omitempty"`
	BatchID      string           `json:"batch_id,omitempty"`
	WeightKg     *float64         `json:"weight_kg,omitempty"`
	Humidity     *float64         `json:"humidity,omitempty"`
	BuyingPrice  *decimal.Decimal `json:"buying_price,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	Date         time.Time        `json:"date"`
	CreatedAt    time.Time        `json:"created_at"`
}

type importSuccessResponse struct {
	Imported int              `json:"imported"`
	Records  []recordResponse `json:"records"`
}

type createParamsDTO struct {
	SupplierName string           `json:"supplier_name"`
	RawSupplier  string           `json:"raw_supplier"`
	BatchID      string           `json:"batch_id,omitempty"`
	WeightKg     *float64         `json:"weight_kg,omitempty"`
	Humidity     *float64         `json:"humidity,omitempty"`
	BuyingPrice  *decimal.Decimal `json:"buying_price,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	Notes        string           `json:"notes,omitempty"`
	Date         time.Time        `json:"date"`
}

type conflictDTO struct {
	Incoming createParamsDTO `json:"incoming"`
	Existing recordResponse  `json:"existing"`
}

type importConflictResponse struct {
	New       []createParamsDTO `json:"new"`
	Conflicts []conflictDTO     `json:"conflicts"`
}

type confirmRequest struct {
	Params []createParamsDTO `json:"params"`
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	source := importer.Source(r.FormValue("source"))
	if source == "" {
		http.Error(w, "source field is required", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	params, err := h.importSvc.Import(source, file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	for i, p := range params {
		suggested, err := h.namingSvc.Suggest(r.Context(), p.RawSupplier)
		if err != nil {
			continue
		}

		if suggested == "" {
			continue
		}

		params[i].SupplierName = suggested
	}

	result, err := h.recordSvc.ImportBatch(r.Context(), params)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if len(result.Conflicts) > 0 {
		resp := importConflictResponse{
			New:       make([]createParamsDTO, 0, len(result.New)),
			Conflicts: make([]conflictDTO, 0, len(result.Conflicts)),
		}
		for _, p := range result.New {
			resp.New = append(resp.New, toParamsDTO(p))
		}

		for _, c := range result.Conflicts {
			resp.Conflicts = append(resp.Conflicts, conflictDTO{
				Incoming: toParamsDTO(c.Incoming),
				Existing: toRecordResponse(c.Existing),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)

		if err := json.NewEncoder(w).Encode(resp); err != nil {
			slog.Error("failed to encode response", "error", err)
		}

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toSuccessResponse(result.Imported)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) confirmImport(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	params := make([]record.CreateParams, 0, len(req.Params))
	for _, p := range req.Params {
		params = append(params, record.CreateParams{
			Kind:         record.KindReceipt,
			Status:       record.StatusPending,
			SupplierName: p.SupplierName,
			RawSupplier:  p.RawSupplier,
			BatchID:      p.BatchID,
			WeightKg:     p.WeightKg,
			Humidity:     p.Humidity,
			BuyingPrice:  p.BuyingPrice,
			Amount:       p.Amount,
			Notes:        p.Notes,
			CreatedAt:    p.Date,
		})
	}

	recs, err := h.recordSvc.CreateBatch(r.Context(), params)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toSuccessResponse(recs)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func toSuccessResponse(recs []*record.Record) importSuccessResponse {
	responses := make([]recordResponse, 0, len(recs))
	for _, rec := range recs {
		responses = append(responses, toRecordResponse(rec))
	}

	return importSuccessResponse{
		Imported: len(recs),
		Records:  responses,
	}
}

func toRecordResponse(rec *record.Record) recordResponse {
	return recordResponse{
		ID:           rec.ID,
		Kind:         rec.Kind,
		Status:       rec.Status,
		SupplierName: rec.SupplierName,
		RawSupplier:  rec.RawSupplier,
		BatchID:      rec.BatchID,
		WeightKg:     rec.WeightKg,
		Humidity:     rec.Humidity,
		BuyingPrice:  rec.BuyingPrice,
		Amount:       rec.Amount,
		Date:         rec.CreatedAt,
		CreatedAt:    rec.CreatedAt,
	}
}

func toParamsDTO(p record.CreateParams) createParamsDTO {
	return createParamsDTO{
		SupplierName: p.SupplierName,
		RawSupplier:  p.RawSupplier,
		BatchID:      p.BatchID,
		WeightKg:     p.WeightKg,
		Humidity:     p.Humidity,
		BuyingPrice:  p.BuyingPrice,
		Amount:       p.Amount,
		Notes:        p.Notes,
		Date:         p.CreatedAt,
	}
}
