package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/nkiryanov/mediashare/internal/apperrors"
)

const (
	ValidationErrorType = "validation_failed"
	DecodingErrorType   = "decoding_failed"
	ServiceErrorType    = "service_error"
)

var validate = newValidator()

type Struct any

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func JSON(w http.ResponseWriter, data any) {
	jsonWithStatus(w, data, http.StatusOK)
}

func JSONWithStatus(w http.ResponseWriter, data any, code int) {
	jsonWithStatus(w, data, code)
}

// Render ServiceError
func ServiceError(w http.ResponseWriter, error string, code int) {
	response := ErrorResponse{
		Error:   ServiceErrorType,
		Message: error,
	}

	jsonWithStatus(w, response, code)
}

// Render json DecodeError
func DecodeError(w http.ResponseWriter, err error) {
	response := ErrorResponse{
		Error:   DecodingErrorType,
		Message: "",
	}

	// Try to provide more specific error message based on error type
	switch err := err.(type) {
	case *json.UnmarshalTypeError:
		response.Message = fmt.Sprintf("Invalid data type for field '%s'", err.Field)
	default:
		response.Message = fmt.Sprintf("Failed to parse JSON: %s", err.Error())
	}

	jsonWithStatus(w, response, http.StatusBadRequest)
}

// Render ValidationErrors
func ValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	response := ErrorResponse{
		Error:   ValidationErrorType,
		Message: "Request validation failed",
		Fields:  make(map[string]string, len(errs)),
	}

	// Create user-friendly error messages based on validation tag
	for _, fieldError := range errs {
		var message string
		switch fieldError.Tag() {
		case "required":
			message = "This field is required"
		case "min":
			message = fmt.Sprintf("Value is too short (minimum %s)", fieldError.Param())
		case "max":
			message = fmt.Sprintf("Value is too long (maximum %s)", fieldError.Param())
		case "email":
			message = "Invalid email"
		case "username":
			message = "Must not contain '@' or spaces"
		default:
			message = "Invalid value"
		}

		response.Fields[fieldError.Field()] = message
	}

	jsonWithStatus(w, response, http.StatusBadRequest)
}

// Render service layer error with status matching its kind
func AppError(w http.ResponseWriter, err error) {
	var vErr *apperrors.ValidationError

	switch {
	case errors.As(err, &vErr):
		response := ErrorResponse{
			Error:   ValidationErrorType,
			Message: "Request validation failed",
			Fields:  map[string]string{vErr.Field: vErr.Reason},
		}
		jsonWithStatus(w, response, http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrValidation):
		jsonWithStatus(w, ErrorResponse{Error: ValidationErrorType, Message: err.Error()}, http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrAuth):
		ServiceError(w, "Invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, apperrors.ErrTokenReused):
		ServiceError(w, "Refresh token is expired or used", http.StatusUnauthorized)
	case errors.Is(err, apperrors.ErrTokenInvalid):
		ServiceError(w, "Invalid token", http.StatusUnauthorized)
	case errors.Is(err, apperrors.ErrUnauthorized):
		ServiceError(w, "Unauthorized", http.StatusUnauthorized)
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		ServiceError(w, "User with email or username already exists", http.StatusConflict)
	case errors.Is(err, apperrors.ErrConflict):
		ServiceError(w, "Conflicting concurrent request, try again", http.StatusConflict)
	case errors.Is(err, apperrors.ErrUserNotFound):
		ServiceError(w, "User not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrRelationNotFound):
		ServiceError(w, "Not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		ServiceError(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
	default:
		ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// BindAndValidate decodes JSON request body into type T and validates it using struct tags.
// Returns the decoded value and writes appropriate error responses for decoding or validation failures.
func BindAndValidate[T Struct](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	err := json.NewDecoder(r.Body).Decode(&value)
	if err != nil {
		DecodeError(w, err)
		return value, err
	}

	err = validate.Struct(value)
	if err != nil {
		// pretty sure cast will be ok cause expecting T is valid struct
		errs := err.(validator.ValidationErrors)
		ValidationErrors(w, errs)
		return value, err
	}

	return value, nil
}

// renderJSONWithStatus sends data as json and enforces status code
func jsonWithStatus(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)

	if err := enc.Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
