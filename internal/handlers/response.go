package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/markjakearzadon/projectboard-gobackend/internal/logger"
	"github.com/markjakearzadon/projectboard-gobackend/internal/services"
)

type errorResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, l logger.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		l.Error("failed to encode response", zap.Error(err))
	}
}

// writeError maps the service error kinds to a status code. Anything
// unrecognised is a server error.
func writeError(w http.ResponseWriter, l logger.Logger, err error) {
	var (
		validationErr *services.ValidationError
		notFoundErr   *services.NotFoundError
		storageErr    *services.StorageError
	)

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, l, http.StatusBadRequest, errorResponse{Message: validationErr.Error()})
	case errors.As(err, &notFoundErr):
		writeJSON(w, l, http.StatusNotFound, errorResponse{Message: notFoundErr.Error()})
	case errors.As(err, &storageErr):
		writeJSON(w, l, http.StatusInternalServerError, errorResponse{Message: storageErr.Error()})
	default:
		writeJSON(w, l, http.StatusInternalServerError, errorResponse{Message: err.Error()})
	}
}

// decodeBody decodes a JSON request body. Fields the target does not declare
// are ignored.
func decodeBody(r *http.Request, v interface{}) error {
	return decodeWith(json.NewDecoder(r.Body), v)
}

// decodeStrictBody is decodeBody but rejects fields the target does not
// declare.
func decodeStrictBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return decodeWith(dec, v)
}

func decodeWith(dec *json.Decoder, v interface{}) error {
	if err := dec.Decode(v); err != nil {
		return &services.ValidationError{Message: "Invalid request body: " + err.Error()}
	}
	return nil
}
