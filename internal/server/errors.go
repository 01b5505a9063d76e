package server

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	nferrors "github.com/Aman-CERP/nlpfinder/internal/errors"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}

	switch nferrors.GetCode(err) {
	case nferrors.ErrCodeInvalidInput, nferrors.ErrCodeQueryEmpty, nferrors.ErrCodeInvalidDirectory,
		nferrors.ErrCodeConfigInvalid, nferrors.ErrCodeUnsupportedExtension, nferrors.ErrCodeFileRead:
		return fiber.StatusBadRequest
	case nferrors.ErrCodeIndexNotFound, nferrors.ErrCodeFileNotFound:
		return fiber.StatusNotFound
	case nferrors.ErrCodeIndexInProgress, nferrors.ErrCodeClearWhileRunning:
		return fiber.StatusConflict
	case nferrors.ErrCodeServiceUnavailable, nferrors.ErrCodeModelUnavailable, nferrors.ErrCodeNetworkTimeout:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// errorHandler renders errors returned by handlers as ErrorResponse.
func errorHandler(c fiber.Ctx, err error) error {
	status := statusFor(err)

	body := ErrorResponse{Error: err.Error(), Code: nferrors.ErrCodeInternal}
	var fe *fiber.Error
	if ne, ok := nferrors.As(err); ok {
		body.Error = ne.Message
		body.Code = ne.Code
		if ne.Suggestion != "" {
			body.Error += ". " + ne.Suggestion
		}
	} else if errors.As(err, &fe) {
		body.Error = fe.Message
		body.Code = nferrors.ErrCodeInvalidInput
		if fe.Code >= fiber.StatusInternalServerError {
			body.Code = nferrors.ErrCodeInternal
		}
	}

	if status >= fiber.StatusInternalServerError {
		slog.Error("http_error", append([]any{slog.String("path", c.Path())}, nferrors.FormatForLog(err)...)...)
	}
	return c.Status(status).JSON(body)
}

// badRequest wraps a body-decoding failure.
func badRequest(err error) error {
	return nferrors.ValidationError("invalid request body", err)
}
