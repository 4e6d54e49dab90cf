package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"ward-pickup-service/internal/api/auth"
	"ward-pickup-service/internal/domain"
	"ward-pickup-service/internal/platform/obs"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		obs.FromContext(r.Context()).WithError(err).WithField("path", r.URL.Path).Warn("encode response failed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeJSON(w, r, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps engine errors onto HTTP statuses. Anything outside
// the error taxonomy is logged and reported as a bare 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		status := http.StatusInternalServerError
		switch de.Kind {
		case domain.KindValidation, domain.KindConflict:
			status = http.StatusBadRequest
		case domain.KindAuthorization:
			status = http.StatusForbidden
		case domain.KindNotFound:
			status = http.StatusNotFound
		}
		writeError(w, r, status, string(de.Kind), de.Message)
		return
	}

	obs.FromContext(r.Context()).WithError(err).WithField("path", r.URL.Path).Error("request failed")
	writeError(w, r, http.StatusInternalServerError, "internal_server_error", "internal server error")
}

// decodeJSON reads exactly one JSON object from the request body.
// An empty body decodes to the zero value.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		writeError(w, r, http.StatusBadRequest, string(domain.KindValidation), "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, string(domain.KindValidation), "body must contain only one JSON object")
		return false
	}
	return true
}

// principal returns the authenticated caller or writes a 401.
func principal(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.PrincipalID(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthorized", "authentication required")
		return "", false
	}
	return id, true
}
