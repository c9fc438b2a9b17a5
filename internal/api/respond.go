package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"shareit/internal/apperr"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorBody{Message: message, Code: statusCode})
}

// writeServiceError maps a service error to its status. Messages of internal
// errors stay in the log.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *zerolog.Logger, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		logger.Error().Err(err).Str("request_id", RequestIDFrom(r.Context())).Str("path", r.URL.Path).Msg("request failed")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteError(w, kind.HTTPStatus(), err.Error())
}

func badRequest(format string, args ...any) error {
	return apperr.BadRequest(format, args...)
}

// UserIDFromHeader reads the acting user id.
func UserIDFromHeader(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get(models.HeaderUserID))
	if raw == "" {
		return 0, badRequest("Required request header '%s' is not present", models.HeaderUserID)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, badRequest("Header '%s' must be a number, got %q", models.HeaderUserID, raw)
	}
	return id, nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, badRequest("Path variable '%s' must be a number, got %q", name, raw)
	}
	return id, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("Parameter '%s' must be a number, got %q", name, raw)
	}
	return v, nil
}

// PageFromQuery reads from/size with their defaults. from must not be
// negative and size must be positive.
func PageFromQuery(r *http.Request) (models.Page, error) {
	from, err := queryInt(r, "from", models.DefaultPageFrom)
	if err != nil {
		return models.Page{}, err
	}
	size, err := queryInt(r, "size", models.DefaultPageSize)
	if err != nil {
		return models.Page{}, err
	}
	if from < 0 {
		return models.Page{}, badRequest("Parameter 'from' must not be negative")
	}
	if size <= 0 {
		return models.Page{}, badRequest("Parameter 'size' must be positive")
	}
	return models.Page{From: from, Size: size}, nil
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("Request body is missing")
		}
		return badRequest("Malformed JSON request: %v", err)
	}
	return nil
}

func requireID(name string, v *int64) error {
	if v == nil {
		return badRequest("%s must not be null", name)
	}
	return nil
}
