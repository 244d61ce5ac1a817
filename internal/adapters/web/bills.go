package web

import (
	"encoding/json"
	"net/http"

	"retail-pos/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type billItemRequest struct {
	ProductID    int64           `json:"productId"`
	Quantity     int             `json:"quantity"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	Discount     decimal.Decimal `json:"discount"`
	Comment      string          `json:"comment"`
}

type billRequest struct {
	CustomerName   string            `json:"customerName"`
	CustomerPhone  string            `json:"customerPhone"`
	Items          []billItemRequest `json:"items"`
	GlobalDiscount decimal.Decimal   `json:"globalDiscount"`
	PaymentType    string            `json:"paymentType"`
}

func (req billRequest) itemInputs() []core.BillItemInput {
	items := make([]core.BillItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, core.BillItemInput{
			ProductID:    it.ProductID,
			Quantity:     it.Quantity,
			SellingPrice: it.SellingPrice,
			Discount:     it.Discount,
			Comment:      it.Comment,
		})
	}
	return items
}

// createBill handles POST /api/bills.
func (h *Handler) createBill(w http.ResponseWriter, r *http.Request) {
	var req billRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	bill, err := h.svc.CreateBill(r.Context(), core.CreateBillInput{
		CustomerName:   req.CustomerName,
		CustomerPhone:  req.CustomerPhone,
		Items:          req.itemInputs(),
		GlobalDiscount: req.GlobalDiscount,
		PaymentType:    core.PaymentType(req.PaymentType),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, bill)
}

// updateBill handles PUT /api/bills/{id}.
func (h *Handler) updateBill(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid bill id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	var req billRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, "invalid JSON body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	bill, err := h.svc.UpdateBill(r.Context(), id, core.UpdateBillInput{
		CustomerName:   req.CustomerName,
		CustomerPhone:  req.CustomerPhone,
		Items:          req.itemInputs(),
		GlobalDiscount: req.GlobalDiscount,
		PaymentType:    core.PaymentType(req.PaymentType),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

// deleteBill handles DELETE /api/bills/{id}.
func (h *Handler) deleteBill(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid bill id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if err := h.svc.DeleteBill(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "bill deleted"})
}

// getBill handles GET /api/bills/{id}.
func (h *Handler) getBill(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid bill id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	bill, err := h.svc.GetBill(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

// listBills handles GET /api/bills.
func (h *Handler) listBills(w http.ResponseWriter, r *http.Request) {
	bills, err := h.svc.GetBills(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if bills == nil {
		bills = []core.Bill{}
	}
	writeJSON(w, http.StatusOK, bills)
}

// searchBills handles GET /api/bills/search/{query}.
func (h *Handler) searchBills(w http.ResponseWriter, r *http.Request) {
	query := chi.URLParam(r, "query")
	bills, err := h.svc.SearchBills(r.Context(), query)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if bills == nil {
		bills = []core.Bill{}
	}
	writeJSON(w, http.StatusOK, bills)
}

// billWhatsApp handles GET /api/bills/{id}/whatsapp.
func (h *Handler) billWhatsApp(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, r, "invalid bill id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	share, err := h.svc.GetBillShare(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, share)
}
