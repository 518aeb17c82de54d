package util

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"

	"github.com/fadilmartias/job-matcher/internal/config"
	"github.com/fadilmartias/job-matcher/internal/errs"
)

type SuccessResponseFormat struct {
	Code    int
	Message string
	Data    any
	Meta    any
}

type OrderedSuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Meta    any    `json:"meta,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type ErrorResponseFormat struct {
	Code       int
	Message    string
	DevMessage string
	Details    any
	Trace      string
}

type OrderedErrorResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	DevMessage string `json:"dev_message,omitempty"`
	Details    any    `json:"details,omitempty"`
	Trace      string `json:"trace,omitempty"`
}

type FormError struct {
	Errors  map[string]string
	Message string
}

func (e *FormError) Error() string {
	return fmt.Sprintf("form error: %s", e.Message)
}

func NewFormError(message string, errors map[string]string) *FormError {
	return &FormError{
		Message: message,
		Errors:  errors,
	}
}

// SuccessResponse writes the standard success envelope.
func SuccessResponse(c *fiber.Ctx, params SuccessResponseFormat) error {
	response := OrderedSuccessResponse{
		Success: true,
		Message: params.Message,
		Data:    params.Data,
		Meta:    params.Meta,
	}
	code := params.Code
	if code == 0 {
		code = fiber.StatusOK
	}
	return c.Status(code).JSON(response)
}

// NotReadyResponse tells a polling client the value is still being computed.
func NotReadyResponse(c *fiber.Ctx, message string) error {
	return SuccessResponse(c, SuccessResponseFormat{
		Code:    fiber.StatusAccepted,
		Message: message,
		Data:    fiber.Map{"status": "not_ready"},
	})
}

// ErrorResponse writes the standard error envelope. Outside production the
// underlying error and a stack trace are included.
func ErrorResponse(c *fiber.Ctx, params ErrorResponseFormat, errs ...error) error {
	response := OrderedErrorResponse{
		Success: false,
		Message: params.Message,
	}
	if params.Details != nil {
		response.Details = params.Details
	}
	if !config.LoadAppConfig().IsProduction() {
		if len(errs) > 0 && errs[0] != nil {
			response.DevMessage = errs[0].Error()
			response.Trace = string(debug.Stack())
		}
		if params.DevMessage != "" {
			response.DevMessage = params.DevMessage
		}
		if params.Trace != "" {
			response.Trace = params.Trace
		}
	}

	errorCode := params.Code
	if params.Code == 0 {
		errorCode = fiber.StatusInternalServerError
	}
	return c.Status(errorCode).JSON(response)
}

// FromError maps the pipeline error taxonomy onto HTTP responses. A value
// that is still being computed is a 202, never a zero score.
func FromError(c *fiber.Ctx, message string, err error) error {
	var formErr *FormError
	switch {
	case errors.As(err, &formErr):
		return ErrorResponse(c, ErrorResponseFormat{Code: fiber.StatusBadRequest, Message: formErr.Message, Details: formErr.Errors}, err)
	case errors.Is(err, errs.ErrEmbeddingNotReady):
		return NotReadyResponse(c, message+": not ready yet, retry later")
	case errors.Is(err, errs.ErrNotFound), errors.Is(err, errs.ErrSourceDeleted):
		return ErrorResponse(c, ErrorResponseFormat{Code: fiber.StatusNotFound, Message: message + ": not found"}, err)
	case errors.Is(err, errs.ErrInvalidInput):
		return ErrorResponse(c, ErrorResponseFormat{Code: fiber.StatusBadRequest, Message: message + ": invalid input"}, err)
	case errors.Is(err, errs.ErrParseFailure):
		return ErrorResponse(c, ErrorResponseFormat{Code: fiber.StatusUnprocessableEntity, Message: message + ": model output could not be parsed"}, err)
	case errors.Is(err, errs.ErrProviderUnavailable):
		return ErrorResponse(c, ErrorResponseFormat{Code: fiber.StatusServiceUnavailable, Message: message + ": provider unavailable"}, err)
	}
	return ErrorResponse(c, ErrorResponseFormat{Message: message}, err)
}
