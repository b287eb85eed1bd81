package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/campaign-copy/internal/config"
	"github.com/jonathan/campaign-copy/internal/llm"
	"github.com/jonathan/campaign-copy/internal/pipeline"
	"github.com/jonathan/campaign-copy/internal/reference"
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	ChannelID string `json:"channel_id,omitempty"`
}

// NewErrorResponse describes err, naming the failed channel when there is one
func NewErrorResponse(err error) ErrorResponse {
	resp := ErrorResponse{Error: err.Error(), Kind: ErrorKind(err)}
	var chErr *pipeline.ChannelError
	if errors.As(err, &chErr) {
		resp.ChannelID = chErr.ChannelID
	}
	return resp
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *pipeline.ValidationError
		notFoundErr   *reference.NotFoundError
		transportErr  *llm.TransportError
		protocolErr   *llm.ProtocolError
		configErr     *config.ConfigurationError
	)

	switch {
	case err == nil:
		return http.StatusInternalServerError
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &transportErr):
		if transportErr.Timeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case errors.As(err, &protocolErr):
		return http.StatusBadGateway
	case errors.As(err, &configErr):
		return http.StatusInternalServerError
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ErrorKind names the failure category reported to clients
func ErrorKind(err error) string {
	var (
		validationErr *pipeline.ValidationError
		notFoundErr   *reference.NotFoundError
		transportErr  *llm.TransportError
		protocolErr   *llm.ProtocolError
		configErr     *config.ConfigurationError
	)

	switch {
	case errors.As(err, &validationErr):
		return "validation"
	case errors.As(err, &notFoundErr):
		return "not_found"
	case errors.As(err, &transportErr):
		return "transport"
	case errors.As(err, &protocolErr):
		return "protocol"
	case errors.As(err, &configErr):
		return "configuration"
	default:
		return "internal"
	}
}

func kindForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusServiceUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// requestError turns a decoding or validator failure into a ValidationError
func requestError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		msg := fmt.Sprintf("failed on the '%s' rule", fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("failed on the '%s=%s' rule", fe.Tag(), fe.Param())
		}
		return &pipeline.ValidationError{Field: fe.Field(), Message: msg}
	}
	return &pipeline.ValidationError{Field: "body", Message: err.Error()}
}
