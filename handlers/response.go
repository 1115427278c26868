package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"worklog/apperr"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy to a status and a human-readable
// message. Anything outside the taxonomy becomes an opaque 500.
func writeError(w http.ResponseWriter, err error) {
	var code int
	message := err.Error()
	switch {
	case apperr.IsValidation(err):
		code = http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, apperr.ErrForbidden):
		code = http.StatusForbidden
	case errors.Is(err, apperr.ErrUnauthorized):
		code = http.StatusUnauthorized
	case errors.Is(err, apperr.ErrConflict):
		code = http.StatusConflict
	default:
		code = http.StatusInternalServerError
		message = "internal error"
	}
	writeJSON(w, code, map[string]string{"error": message})
}

// decode parses the JSON body into v and runs struct validation.
func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := validate.Struct(v); err != nil {
		return apperr.Validation("%s", err.Error())
	}
	return nil
}
