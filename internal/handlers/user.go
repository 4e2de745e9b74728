package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/markjakearzadon/donation-gobackend/internal/auth"
	"github.com/markjakearzadon/donation-gobackend/internal/models"
	"github.com/markjakearzadon/donation-gobackend/internal/services"
)

type UserHandler struct {
	service  *services.UserService
	tokens   *auth.TokenIssuer
	sessions *auth.Sessions
}

func NewUserHandler(service *services.UserService, tokens *auth.TokenIssuer, sessions *auth.Sessions) *UserHandler {
	return &UserHandler{service: service, tokens: tokens, sessions: sessions}
}

type credentials struct {
	FullName string      `json:"fullname"`
	Mobile   string      `json:"mobile"`
	Password string      `json:"password"`
	Role     models.Role `json:"role,omitempty"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register handles POST /api/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.service.Register(r.Context(), req.FullName, req.Mobile, req.Password)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.signIn(w, r, user, http.StatusCreated)
}

// Login handles POST /api/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.service.Login(r.Context(), req.Mobile, req.Password)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.signIn(w, r, user, http.StatusOK)
}

// signIn returns a bearer token and also sets the browser session.
func (h *UserHandler) signIn(w http.ResponseWriter, r *http.Request, user *models.User, status int) {
	token, err := h.tokens.Issue(user)
	if err != nil {
		fail(w, r, err)
		return
	}
	if h.sessions != nil {
		if err := h.sessions.Save(w, r, user); err != nil {
			log.Printf("Failed to save session for %s: %v", user.ID.Hex(), err)
		}
	}
	writeJSON(w, status, loginResponse{Token: token, User: user})
}

// Logout handles POST /api/logout
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.sessions != nil {
		if err := h.sessions.Clear(w, r); err != nil {
			log.Printf("Failed to clear session: %v", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	user, err := h.service.Profile(r.Context(), id.UserID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateMe handles PATCH /api/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var upd models.ProfileUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}
	id := auth.FromContext(r.Context())
	user, err := h.service.UpdateProfile(r.Context(), id.UserID, upd)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// PublicDonors handles GET /api/donors/public
func (h *UserHandler) PublicDonors(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	donors, err := h.service.PublicDonors(r.Context(), limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	if donors == nil {
		donors = []models.PublicDonor{}
	}
	writeJSON(w, http.StatusOK, donors)
}

// Provision creates staff accounts. The caller's session is left alone.
func (h *UserHandler) Provision(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.service.Provision(r.Context(), req.FullName, req.Mobile, req.Password, req.Role)
	if err != nil {
		fail(w, r, err)
		return
	}
	log.Printf("User provisioned: id=%s role=%s by=%s", user.ID.Hex(), user.Role, auth.FromContext(r.Context()).UserID.Hex())
	writeJSON(w, http.StatusCreated, user)
}
