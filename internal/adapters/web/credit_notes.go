package web

import (
	"encoding/json"
	"net/http"

	"retail-pos/internal/core"

	"github.com/shopspring/decimal"
)

type creditNoteItemRequest struct {
	ProductID    int64           `json:"productId"`
	Quantity     int             `json:"quantity"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	Reason       string          `json:"reason"`
}

type creditNoteRequest struct {
	OriginalBillID int64                   `json:"originalBillId"`
	Items          []creditNoteItemRequest `json:"items"`
	Reason         string                  `json:"reason"`
}

// issueCreditNote handles POST /api/credit-notes.
func (h *Handler) issueCreditNote(w http.ResponseWriter, r *http.Request) {
	var req creditNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	items := make([]core.CreditNoteItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, core.CreditNoteItemInput{
			ProductID:    it.ProductID,
			Quantity:     it.Quantity,
			SellingPrice: it.SellingPrice,
			Reason:       it.Reason,
		})
	}

	note, err := h.svc.IssueCreditNote(r.Context(), core.IssueCreditNoteInput{
		OriginalBillID: req.OriginalBillID,
		Items:          items,
		Reason:         req.Reason,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// getCreditNote handles GET /api/credit-notes/{id}.
func (h *Handler) getCreditNote(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid credit note id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	note, err := h.svc.GetCreditNote(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// listCreditNotes handles GET /api/credit-notes.
func (h *Handler) listCreditNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.GetCreditNotes(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if notes == nil {
		notes = []core.CreditNote{}
	}
	writeJSON(w, http.StatusOK, notes)
}

// creditNotesForBill handles GET /api/credit-notes/bill/{id}.
func (h *Handler) creditNotesForBill(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid bill id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	notes, err := h.svc.GetCreditNotesForBill(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if notes == nil {
		notes = []core.CreditNote{}
	}
	writeJSON(w, http.StatusOK, notes)
}
