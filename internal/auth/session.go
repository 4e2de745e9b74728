package auth

import (
	"net/http"

	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/markjakearzadon/donation-gobackend/internal/models"
)

const sessionName = "session"

// Sessions keeps the browser login in a signed cookie for the donor pages.
type Sessions struct {
	store *sessions.CookieStore
}

func NewSessions(secret string, secure bool) *Sessions {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: store}
}

func (s *Sessions) Save(w http.ResponseWriter, r *http.Request, u *models.User) error {
	session, _ := s.store.Get(r, sessionName)
	session.Values["user_id"] = u.ID.Hex()
	session.Values["role"] = string(u.Role)
	session.Values["name"] = u.FullName
	return session.Save(r, w)
}

func (s *Sessions) Clear(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.Get(r, sessionName)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

func (s *Sessions) Identity(r *http.Request) (*Identity, bool) {
	session, err := s.store.Get(r, sessionName)
	if err != nil {
		return nil, false
	}
	rawID, _ := session.Values["user_id"].(string)
	rawRole, _ := session.Values["role"].(string)
	name, _ := session.Values["name"].(string)
	userID, err := primitive.ObjectIDFromHex(rawID)
	if err != nil {
		return nil, false
	}
	role := models.Role(rawRole)
	if !role.Valid() {
		return nil, false
	}
	return &Identity{UserID: userID, Role: role, Name: name}, true
}
