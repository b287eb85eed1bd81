package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"unicode/utf8"

	"github.com/openai/openai-go"
	"google.golang.org/api/googleapi"
)

// TransportError represents a failure reaching the generation service:
// network failures, non-success statuses and timeouts.
type TransportError struct {
	Provider   Provider
	StatusCode int // zero when no response was received
	Timeout    bool
	Message    string
	Cause      error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("generation service error (%s)", e.Provider)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s status %d", msg, e.StatusCode)
	}
	if e.Timeout {
		msg += " timed out"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// ProtocolError represents a reply that arrived but could not be used:
// no content, malformed JSON or a missing variants array.
type ProtocolError struct {
	Message string
	Payload string // the reply text, truncated for logs
	Cause   error
}

func (e *ProtocolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("unusable generation reply: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("unusable generation reply: %s", e.Message)
}

func (e *ProtocolError) Unwrap() error {
	return e.Cause
}

const maxPayloadLen = 512

func newProtocolError(message, payload string, cause error) *ProtocolError {
	if len(payload) > maxPayloadLen {
		cut := maxPayloadLen
		for cut > 0 && !utf8.RuneStart(payload[cut]) {
			cut--
		}
		payload = payload[:cut] + "..."
	}
	return &ProtocolError{Message: message, Payload: payload, Cause: cause}
}

// classifyError maps a provider error onto the transport/protocol taxonomy.
// Errors already classified pass through unchanged.
func classifyError(provider Provider, err error) error {
	if err == nil {
		return nil
	}

	var transportErr *TransportError
	var protocolErr *ProtocolError
	if errors.As(err, &transportErr) || errors.As(err, &protocolErr) {
		return err
	}

	result := &TransportError{Provider: provider, Cause: err}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		result.Timeout = true
	case errors.As(err, &netErr) && netErr.Timeout():
		result.Timeout = true
	}

	var openaiErr *openai.Error
	var googleErr *googleapi.Error
	switch {
	case errors.As(err, &openaiErr):
		result.StatusCode = openaiErr.StatusCode
	case errors.As(err, &googleErr):
		result.StatusCode = googleErr.Code
	}

	return result
}
