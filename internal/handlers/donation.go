package handlers

import (
	"errors"
	"log"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/markjakearzadon/donation-gobackend/internal/auth"
	"github.com/markjakearzadon/donation-gobackend/internal/models"
	"github.com/markjakearzadon/donation-gobackend/internal/services"
	"github.com/markjakearzadon/donation-gobackend/internal/uploads"
)

type DonationHandler struct {
	ledger          *services.LedgerService
	uploads         uploads.Store
	confirmationURL string
}

func NewDonationHandler(ledger *services.LedgerService, store uploads.Store, confirmationURL string) *DonationHandler {
	return &DonationHandler{ledger: ledger, uploads: store, confirmationURL: confirmationURL}
}

type donationRequest struct {
	Amount            amountField          `json:"amount"`
	Type              string               `json:"type"`
	DonorName         string               `json:"donor_name"`
	PaymentMethod     models.PaymentMethod `json:"payment_method"`
	BankTransferPhoto string               `json:"bank_transfer_photo"`
}

// CreateDonation accepts JSON or a multipart form with an optional
// bank_transfer_photo file. Guests are allowed.
func (h *DonationHandler) CreateDonation(w http.ResponseWriter, r *http.Request) {
	var req donationRequest
	if isMultipart(r) {
		if err := r.ParseMultipartForm(uploads.MaxFileSize + maxBodyBytes); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid_body")
			return
		}
		req = donationRequest{
			Amount:        amountField(r.FormValue("amount")),
			Type:          r.FormValue("type"),
			DonorName:     r.FormValue("donor_name"),
			PaymentMethod: models.PaymentMethod(r.FormValue("payment_method")),
		}
		if file, header, err := r.FormFile("bank_transfer_photo"); err == nil {
			defer file.Close()
			ref, err := h.uploads.Save(r.Context(), header.Filename, header.Size, file)
			if err != nil {
				fail(w, r, err)
				return
			}
			req.BankTransferPhoto = ref
		}
	} else if !decodeJSON(w, r, &req) {
		return
	}

	intent := services.DonationIntent{
		Amount:            string(req.Amount),
		Type:              req.Type,
		DonorName:         req.DonorName,
		PaymentMethod:     req.PaymentMethod,
		BankTransferPhoto: req.BankTransferPhoto,
	}
	if id := auth.FromContext(r.Context()); id != nil {
		userID := id.UserID
		intent.UserID = &userID
	}

	result, err := h.ledger.CreateIntent(r.Context(), intent)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// callbackMethods are the intents the gateway may resolve. Bank transfer
// intents are confirmed by staff only.
var callbackMethods = []models.PaymentMethod{models.PaymentOnline}

// Callback is where the gateway returns the donor. It always redirects to
// the confirmation page; the page reads the resulting status from the query.
func (h *DonationHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("ref")
	status := "error"

	outcome, err := services.ParseOutcome(r.URL.Query().Get("status"))
	if err == nil {
		var res *services.Resolution
		res, err = h.ledger.ResolveByReference(r.Context(), ref, outcome, callbackMethods)
		switch {
		case err == nil:
			status = string(res.Donation.Status)
		case errors.Is(err, services.ErrNotFound):
			status = "not_found"
		}
	}
	if err != nil {
		log.Printf("Callback for ref %q not applied: %v", ref, err)
	}

	http.Redirect(w, r, h.confirmationTarget(ref, status), http.StatusSeeOther)
}

func (h *DonationHandler) confirmationTarget(ref, status string) string {
	u, err := url.Parse(h.confirmationURL)
	if err != nil {
		u = &url.URL{Path: "/"}
	}
	q := u.Query()
	q.Set("ref", ref)
	q.Set("status", status)
	u.RawQuery = q.Encode()
	return u.String()
}

// MyDonations handles GET /api/donations
func (h *DonationHandler) MyDonations(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	donations, err := h.ledger.ListForUser(r.Context(), id.UserID)
	if err != nil {
		fail(w, r, err)
		return
	}
	if donations == nil {
		donations = []models.Donation{}
	}
	writeJSON(w, http.StatusOK, donations)
}

// ListDonations is the staff ledger view with status and date filters.
func (h *DonationHandler) ListDonations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseDay(q.Get("from"), false)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, services.CodeInvalidDate)
		return
	}
	to, err := parseDay(q.Get("to"), true)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, services.CodeInvalidDate)
		return
	}

	filter := models.DonationFilter{Status: models.DonationStatus(q.Get("status")), From: from, To: to}
	donations, err := h.ledger.List(r.Context(), filter)
	if err != nil {
		fail(w, r, err)
		return
	}
	if donations == nil {
		donations = []models.Donation{}
	}
	writeJSON(w, http.StatusOK, donations)
}

type resolveRequest struct {
	Status string `json:"status"`
}

type resolveResponse struct {
	Donation    *models.Donation    `json:"donation"`
	Changed     bool                `json:"changed"`
	Certificate *models.Certificate `json:"certificate,omitempty"`
	Invoice     *models.Invoice     `json:"invoice,omitempty"`
}

// Resolve lets staff confirm or fail a pending intent by reference, for
// bank transfer intents that never go through the review queue.
func (h *DonationHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	outcome, err := services.ParseOutcome(req.Status)
	if err != nil {
		fail(w, r, err)
		return
	}

	ref := mux.Vars(r)["ref"]
	res, err := h.ledger.ResolveByReference(r.Context(), ref, outcome, models.PaymentMethods)
	if err != nil {
		fail(w, r, err)
		return
	}
	log.Printf("Donation %s resolved by %s: status=%s changed=%t", ref, auth.FromContext(r.Context()).UserID.Hex(), res.Donation.Status, res.Changed)

	resp := resolveResponse{Donation: res.Donation, Changed: res.Changed}
	if res.Settlement != nil {
		resp.Certificate = res.Settlement.Certificate
		resp.Invoice = res.Settlement.Invoice
	}
	writeJSON(w, http.StatusOK, resp)
}
