// Package response holds the JSON bodies returned by the HTTP API on failure.
package response

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

var (
	EmptyRequestBodyResponse = Response{
		Status:  StatusError,
		Message: "Request body is empty",
	}

	InvalidRequestBodyResponse = Response{
		Status:  StatusError,
		Message: "Invalid JSON in request body",
	}

	ResourceNotFoundResponse = Response{
		Status:  StatusError,
		Message: "Short URL not found",
	}

	ResourceGoneResponse = Response{
		Status:  StatusError,
		Message: "Short URL is no longer active",
	}

	ServerErrorResponse = Response{
		Status:  StatusError,
		Message: "Internal server error",
	}
)

type validationError struct {
	Field string `json:"field"`
	Value any    `json:"value"`
	Issue string `json:"issue"`
}

type Response struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Errors  []validationError `json:"errors,omitempty"`
}

// ErrorResponse builds an error body with a client-facing message.
func ErrorResponse(msg string) Response {
	return Response{
		Status:  StatusError,
		Message: msg,
	}
}

// ValidationErrorResponse lists every failed field of a validator error.
func ValidationErrorResponse(err error) Response {
	return Response{
		Status:  StatusError,
		Message: "Validation error",
		Errors:  getValidationErrors(err),
	}
}

func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "This field is required."
	case "url", "http_url":
		return "Invalid url."
	default:
		return "Invalid value."
	}
}

func getValidationErrors(err error) []validationError {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}

	validationErrs := make([]validationError, 0, len(errs))
	for _, e := range errs {
		validationErrs = append(validationErrs, validationError{
			Field: e.Field(),
			Value: e.Value(),
			Issue: messageForTag(e.Tag()),
		})
	}

	return validationErrs
}
