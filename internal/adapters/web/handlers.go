package web

import (
	"net/http"
	"strconv"

	"retail-pos/internal/app"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc app.ApplicationService
	log *zap.Logger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, log *zap.Logger, allowedOrigins string) http.Handler {
	h := &Handler{svc: svc, log: log}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(allowedOrigins))
	r.Use(RequestBodyLimit(1 << 20)) // 1 MB

	r.Get("/api/health", h.health)

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.Get("/{id}", h.getProduct)
		r.Put("/{id}", h.updateProduct)
		r.Delete("/{id}", h.deleteProduct)
	})

	r.Route("/api/bills", func(r chi.Router) {
		r.Get("/", h.listBills)
		r.Post("/", h.createBill)
		r.Get("/search/{query}", h.searchBills)
		r.Get("/{id}", h.getBill)
		r.Put("/{id}", h.updateBill)
		r.Delete("/{id}", h.deleteBill)
		r.Get("/{id}/whatsapp", h.billWhatsApp)
	})

	r.Route("/api/credit-notes", func(r chi.Router) {
		r.Get("/", h.listCreditNotes)
		r.Post("/", h.issueCreditNote)
		r.Get("/bill/{id}", h.creditNotesForBill)
		r.Get("/{id}", h.getCreditNote)
	})

	r.Route("/api/reports", func(r chi.Router) {
		r.Get("/comprehensive/{period}", h.comprehensiveReport)
		r.Get("/sales/{period}", h.salesReport)
		r.Get("/inventory/{period}", h.inventoryReport)
		r.Get("/cash/{period}", h.cashReport)
	})

	r.Route("/api/settings", func(r chi.Router) {
		r.Get("/", h.getSettings)
		r.Put("/", h.updateSettings)
	})

	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// idParam parses the {id} URL parameter as an int64.
func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}
