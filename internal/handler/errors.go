package handler

import (
	"context"
	"errors"
	"net/http"

	domain "github.com/oggyb/exotel-gateway/internal/domain/message"
	"github.com/oggyb/exotel-gateway/internal/response"
	"github.com/oggyb/exotel-gateway/pkg/exotel"
)

// domainValidation lists errors that mean the client sent a bad message.
var domainValidation = []error{
	domain.ErrEmptySender,
	domain.ErrEmptyRecipient,
	domain.ErrEmptyBody,
	domain.ErrBodyTooLong,
	domain.ErrInvalidPriority,
	domain.ErrUnknownStatus,
}

// statusFor maps service and Exotel errors to an HTTP status and a message
// safe to show the caller.
func statusFor(err error) (int, string) {
	var perr *exotel.ProviderError

	switch {
	case errors.Is(err, exotel.ErrInsufficientParameters):
		return http.StatusBadRequest, err.Error()
	case exotel.IsRateLimited(err):
		return http.StatusTooManyRequests, "exotel rate limit exceeded, retry later"
	case errors.As(err, &perr):
		if perr.StatusCode == http.StatusNotFound {
			return http.StatusNotFound, perr.Message
		}
		return http.StatusBadGateway, perr.Message
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "upstream timeout"
	}

	for _, v := range domainValidation {
		if errors.Is(err, v) {
			return http.StatusBadRequest, err.Error()
		}
	}
	return http.StatusInternalServerError, "internal error"
}

func respondErr(w http.ResponseWriter, err error) {
	status, msg := statusFor(err)
	response.RespondError(w, status, msg)
}
