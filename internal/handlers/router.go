package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"

	"github.com/markjakearzadon/donation-gobackend/internal/auth"
	"github.com/markjakearzadon/donation-gobackend/internal/services"
	"github.com/markjakearzadon/donation-gobackend/internal/uploads"
)

type Deps struct {
	Users      *services.UserService
	Ledger     *services.LedgerService
	Review     *services.ReviewService
	Documents  *services.DocumentService
	Reconciler *services.Reconciler

	Tokens   *auth.TokenIssuer
	Sessions *auth.Sessions

	Uploads uploads.Store
	// UploadDir is served to reviewers when receipts are stored locally.
	UploadDir       string
	ConfirmationURL string
}

func NewRouter(d Deps) http.Handler {
	userHandler := NewUserHandler(d.Users, d.Tokens, d.Sessions)
	donationHandler := NewDonationHandler(d.Ledger, d.Uploads, d.ConfirmationURL)
	bankTransferHandler := NewBankTransferHandler(d.Review, d.Uploads)
	documentHandler := NewDocumentHandler(d.Documents)
	adminHandler := NewAdminHandler(d.Reconciler)

	authed := func(h http.HandlerFunc) http.Handler { return auth.RequireAuth(h) }
	can := func(c auth.Capability, h http.HandlerFunc) http.Handler { return auth.RequireCapability(c)(h) }

	router := mux.NewRouter()
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET", "HEAD")

	router.HandleFunc("/api/register", userHandler.Register).Methods("POST")
	router.HandleFunc("/api/login", userHandler.Login).Methods("POST")
	router.HandleFunc("/api/logout", userHandler.Logout).Methods("POST")
	router.Handle("/api/me", authed(userHandler.Me)).Methods("GET")
	router.Handle("/api/me", authed(userHandler.UpdateMe)).Methods("PATCH")
	router.HandleFunc("/api/donors/public", userHandler.PublicDonors).Methods("GET")

	router.HandleFunc("/api/donations", donationHandler.CreateDonation).Methods("POST")
	router.Handle("/api/donations", authed(donationHandler.MyDonations)).Methods("GET")
	router.HandleFunc("/api/donations/callback", donationHandler.Callback).Methods("GET")

	router.HandleFunc("/api/bank-transfers", bankTransferHandler.Submit).Methods("POST")
	router.Handle("/api/bank-transfers", can(auth.CapReviewTransfers, bankTransferHandler.List)).Methods("GET")
	router.Handle("/api/bank-transfers/{id}", can(auth.CapReviewTransfers, bankTransferHandler.Get)).Methods("GET")
	router.Handle("/api/bank-transfers/{id}/review", can(auth.CapReviewTransfers, bankTransferHandler.Review)).Methods("PATCH", "PUT")

	router.Handle("/api/certificates", authed(documentHandler.Certificates)).Methods("GET")
	router.Handle("/api/certificates/{id}/image", authed(documentHandler.CertificateImage)).Methods("GET")
	router.Handle("/api/invoices", authed(documentHandler.Invoices)).Methods("GET")

	router.Handle("/api/admin/donations", can(auth.CapViewLedger, donationHandler.ListDonations)).Methods("GET")
	router.Handle("/api/admin/donations/{ref}/resolve", can(auth.CapResolveIntents, donationHandler.Resolve)).Methods("POST")
	router.Handle("/api/admin/users", can(auth.CapProvisionUsers, userHandler.Provision)).Methods("POST")
	router.Handle("/api/admin/reconcile", can(auth.CapReconcile, adminHandler.Reconcile)).Methods("POST")

	if d.UploadDir != "" {
		files := http.StripPrefix("/uploads/", http.FileServer(http.Dir(d.UploadDir)))
		router.PathPrefix("/uploads/").Handler(auth.RequireCapability(auth.CapReviewTransfers)(files)).Methods("GET")
	}

	authn := &auth.Authenticator{Tokens: d.Tokens, Sessions: d.Sessions}
	return chi.Chain(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		authn.Identify,
	).Handler(router)
}
