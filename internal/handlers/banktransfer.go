package handlers

import (
	"net/http"

	"github.com/markjakearzadon/donation-gobackend/internal/auth"
	"github.com/markjakearzadon/donation-gobackend/internal/models"
	"github.com/markjakearzadon/donation-gobackend/internal/services"
	"github.com/markjakearzadon/donation-gobackend/internal/uploads"
)

type BankTransferHandler struct {
	review  *services.ReviewService
	uploads uploads.Store
}

func NewBankTransferHandler(review *services.ReviewService, store uploads.Store) *BankTransferHandler {
	return &BankTransferHandler{review: review, uploads: store}
}

// Submit takes a multipart form; the receipt file is required.
func (h *BankTransferHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(uploads.MaxFileSize + maxBodyBytes); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_body")
		return
	}
	file, header, err := r.FormFile("receipt")
	if err != nil {
		fail(w, r, &services.ValidationError{Code: services.CodeMissingField, Field: "receipt"})
		return
	}
	defer file.Close()

	ref, err := h.uploads.Save(r.Context(), header.Filename, header.Size, file)
	if err != nil {
		fail(w, r, err)
		return
	}

	in := services.SubmissionInput{
		Amount:       r.FormValue("amount"),
		Type:         r.FormValue("type"),
		BankName:     r.FormValue("bank_name"),
		TransferDate: r.FormValue("transfer_date"),
		ReceiptImage: ref,
		DonorName:    r.FormValue("donor_name"),
		DonorPhone:   r.FormValue("donor_phone"),
	}
	if id := auth.FromContext(r.Context()); id != nil {
		userID := id.UserID
		in.UserID = &userID
	}

	sub, err := h.review.Submit(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":     sub.ID.Hex(),
		"status": sub.Status,
	})
}

// List handles GET /api/bank-transfers
func (h *BankTransferHandler) List(w http.ResponseWriter, r *http.Request) {
	status := models.SubmissionStatus(r.URL.Query().Get("status"))
	subs, err := h.review.List(r.Context(), status)
	if err != nil {
		fail(w, r, err)
		return
	}
	if subs == nil {
		subs = []models.BankTransferSubmission{}
	}
	writeJSON(w, http.StatusOK, subs)
}

// Get handles GET /api/bank-transfers/{id}
func (h *BankTransferHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	sub, err := h.review.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

type reviewRequest struct {
	Status models.SubmissionStatus `json:"status"`
	Notes  string                  `json:"notes"`
}

// Review approves or rejects a pending submission. A second review of the
// same submission answers 409.
func (h *BankTransferHandler) Review(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req reviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reviewer := auth.FromContext(r.Context())
	result, err := h.review.Review(r.Context(), id, req.Status, req.Notes, reviewer.UserID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
