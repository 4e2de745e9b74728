package handlers

import (
	"log"
	"net/http"

	"github.com/markjakearzadon/donation-gobackend/internal/auth"
	"github.com/markjakearzadon/donation-gobackend/internal/documents"
	"github.com/markjakearzadon/donation-gobackend/internal/models"
	"github.com/markjakearzadon/donation-gobackend/internal/services"
)

type DocumentHandler struct {
	service *services.DocumentService
}

func NewDocumentHandler(service *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// Certificates handles GET /api/certificates
func (h *DocumentHandler) Certificates(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	certs, err := h.service.CertificatesForUser(r.Context(), id.UserID)
	if err != nil {
		fail(w, r, err)
		return
	}
	if certs == nil {
		certs = []models.Certificate{}
	}
	writeJSON(w, http.StatusOK, certs)
}

// Invoices handles GET /api/invoices
func (h *DocumentHandler) Invoices(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	invoices, err := h.service.InvoicesForUser(r.Context(), id.UserID)
	if err != nil {
		fail(w, r, err)
		return
	}
	if invoices == nil {
		invoices = []models.Invoice{}
	}
	writeJSON(w, http.StatusOK, invoices)
}

// CertificateImage renders a certificate the caller owns, or any
// certificate for staff with ledger access.
func (h *DocumentHandler) CertificateImage(w http.ResponseWriter, r *http.Request) {
	certID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	caller := auth.FromContext(r.Context())
	cert, err := h.service.Certificate(r.Context(), certID, caller.UserID, caller.Can(auth.CapViewLedger))
	if err != nil {
		fail(w, r, err)
		return
	}
	img, err := documents.RenderCertificate(cert)
	if err != nil {
		fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `inline; filename="`+cert.CertificateNumber+`.png"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img); err != nil {
		log.Printf("Failed to write certificate %s: %v", cert.CertificateNumber, err)
	}
}
