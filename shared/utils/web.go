package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/practix/practix/shared/api"
	"github.com/practix/practix/shared/errors"
	"github.com/practix/practix/shared/logger"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validator returns the shared validator instance. It is safe for concurrent use.
func Validator() *validator.Validate {
	return validate
}

// WriteJSON writes v wrapped in a successful result.
func WriteJSON[T any](w http.ResponseWriter, status int, v T) {
	w.Header().Set("Content-Type", "application/json")
	payload, err := json.Marshal(api.Ok(v))
	if err != nil {
		logger.Log.Error("failed to encode response", "error", err)
		WriteErrorAndStatusCode(w, errors.New(errors.KindInternal, "internal error"))
		return
	}
	w.WriteHeader(status)
	w.Write(append(payload, '\n'))
}

// WriteErrorAndStatusCode writes err as a failed result. Internal errors are
// logged and their text is not exposed.
func WriteErrorAndStatusCode(w http.ResponseWriter, err error) {
	kind := errors.KindOf(err)
	message := err.Error()
	if kind == errors.KindInternal {
		logger.Log.Error("internal error", "error", err)
		message = "internal error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(kind.StatusCode())
	json.NewEncoder(w).Encode(api.Fail(kind, message))
}

func DecodeValidate(r io.ReadCloser, body any) error {
	if err := Decode(r, body); err != nil {
		return err
	}
	if err := validate.Struct(body); err != nil {
		logger.Log.Debug("request validation failed", "error", err)
		return errors.Validation(fmt.Sprintf("Invalid fields: %s", FieldErrors(err)))
	}
	return nil
}

func Decode(r io.ReadCloser, body any) error {
	if err := json.NewDecoder(r).Decode(body); err != nil {
		logger.Log.Debug("request body is not valid json", "error", err)
		return errors.Validation("Body is invalid json")
	}
	return nil
}

// FieldErrors lists the failing fields of a validator error, e.g. "Capacity(min), Title(required)".
func FieldErrors(err error) string {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	s := ""
	for i, fe := range validationErrs {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s(%s)", fe.Namespace(), fe.Tag())
	}
	return s
}
