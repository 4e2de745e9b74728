package handlers

import (
	"net/http"

	"github.com/markjakearzadon/donation-gobackend/internal/services"
)

type AdminHandler struct {
	reconciler *services.Reconciler
}

func NewAdminHandler(reconciler *services.Reconciler) *AdminHandler {
	return &AdminHandler{reconciler: reconciler}
}

// Reconcile settles confirmation events that stopped part way and reports
// what it repaired.
func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciler.Run(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
