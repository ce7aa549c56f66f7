package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/prizeplay/internal/errs"
)

const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("body must not be empty")

// readJSON decodes a single JSON value. Unknown fields are rejected.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("%w: body contains badly-formed JSON (at character %d)", errs.ErrValidation, syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return fmt.Errorf("%w: body contains badly-formed JSON", errs.ErrValidation)
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("%w: body contains incorrect JSON type for field %q", errs.ErrValidation, unmarshalTypeError.Field)
			}
			return fmt.Errorf("%w: body contains incorrect JSON type (at character %d)", errs.ErrValidation, unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errEmptyBody
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			return fmt.Errorf("%w: body contains unknown key %s", errs.ErrValidation, strings.TrimPrefix(err.Error(), "json: unknown field "))
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("%w: body must not be larger than %d bytes", errs.ErrValidation, maxBodyBytes)
		default:
			return fmt.Errorf("%w: %v", errs.ErrValidation, err)
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: body must only contain a single JSON value", errs.ErrValidation)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	js, err := json.Marshal(data)
	if err != nil {
		log.Error("Failed to encode response", "error", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(js, '\n'))
}

func errorResponse(w http.ResponseWriter, status int, body jsonResponse) {
	writeJSON(w, status, body)
}

// writeError maps the error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errEmptyBody):
		errorResponse(w, http.StatusBadRequest, jsonResponse{"error": err.Error()})
	case errors.Is(err, errs.ErrAlreadyDistributed):
		errorResponse(w, http.StatusConflict, jsonResponse{"error": err.Error(), "code": "already_distributed"})
	case errors.Is(err, errs.ErrValidation):
		errorResponse(w, http.StatusBadRequest, jsonResponse{"error": err.Error()})
	case errors.Is(err, errs.ErrNotFound):
		errorResponse(w, http.StatusNotFound, jsonResponse{"error": err.Error()})
	case errors.Is(err, errs.ErrForbidden):
		errorResponse(w, http.StatusForbidden, jsonResponse{"error": err.Error()})
	case errors.Is(err, errs.ErrPolicyViolation):
		errorResponse(w, http.StatusConflict, jsonResponse{"error": err.Error()})
	default:
		log.Error("Request failed", "method", r.Method, "url", r.URL.String(), "error", err)
		errorResponse(w, http.StatusInternalServerError, jsonResponse{"error": "the server encountered a problem and could not process your request"})
	}
}
