package api

import (
	"encoding/json"
	"errors"
	"net/http"

	tberr "github.com/amterp/taskboard/internal/errors"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Error writes an error response, mapping domain errors to HTTP status codes.
func Error(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	var notFound *tberr.NotFoundError
	var alreadyExists *tberr.AlreadyExistsError
	var validation *tberr.ValidationError
	var dropTarget *tberr.InvalidDropTargetError

	switch {
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &alreadyExists):
		status = http.StatusConflict
	case errors.As(err, &validation):
		status = http.StatusBadRequest
	case errors.As(err, &dropTarget):
		status = http.StatusConflict
	case tberr.IsPersistenceUnavailable(err):
		status = http.StatusServiceUnavailable
	}

	JSON(w, status, map[string]string{"error": message})
}

// BadRequest writes a 400 error with the given message.
func BadRequest(w http.ResponseWriter, message string) {
	JSON(w, http.StatusBadRequest, map[string]string{"error": message})
}
