package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/markjakearzadon/donation-gobackend/internal/i18n"
	"github.com/markjakearzadon/donation-gobackend/internal/services"
	"github.com/markjakearzadon/donation-gobackend/internal/uploads"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeError sends {"error": <localized message>, "code": <code>}.
func writeError(w http.ResponseWriter, r *http.Request, status int, code string) {
	tag := i18n.Match(r.Header.Get("Accept-Language"))
	body := map[string]string{"error": i18n.Message(tag, code), "code": code}
	writeJSON(w, status, body)
}

// fail maps a service error onto a status and code. Unknown errors are
// logged and reported as internal.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		body := map[string]string{
			"error": i18n.Message(i18n.Match(r.Header.Get("Accept-Language")), verr.Code),
			"code":  verr.Code,
		}
		if verr.Field != "" {
			body["field"] = verr.Field
		}
		writeJSON(w, http.StatusBadRequest, body)
	case errors.Is(err, uploads.ErrTooLarge):
		writeError(w, r, http.StatusBadRequest, "file_too_large")
	case errors.Is(err, uploads.ErrBadType):
		writeError(w, r, http.StatusBadRequest, "file_type")
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, "invalid_credentials")
	case errors.Is(err, services.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "forbidden")
	case errors.Is(err, services.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not_found")
	case errors.Is(err, services.ErrAlreadyProcessed):
		writeError(w, r, http.StatusConflict, "already_processed")
	default:
		log.Printf("Request %s %s failed: %v", r.Method, r.URL.Path, err)
		writeError(w, r, http.StatusInternalServerError, "internal")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_body")
		return false
	}
	return true
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)[name])
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_id")
		return primitive.NilObjectID, false
	}
	return id, true
}

// amountField accepts 150, 150.5 or "150.50" and keeps the literal text so
// the amount never passes through float64.
type amountField string

func (a *amountField) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountField(s)
		return nil
	}
	*a = amountField(b)
	return nil
}

// parseDay accepts a date or an RFC 3339 timestamp. A bare date used as an
// upper bound covers the whole day.
func parseDay(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
