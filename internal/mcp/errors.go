// Package mcp exposes the context-assembly engine over the Model Context
// Protocol so MCP-speaking clients can consume assembled contexts directly.
package mcp

import (
	"errors"
	"fmt"

	rcerrors "github.com/WildfireRanch/relayctx/internal/errors"
)

// JSON-RPC error codes used by the server.
const (
	ErrCodeInvalidParams = -32602
	ErrCodeInternalError = -32603

	// ErrCodeRetrievalFailed indicates a tier's backend failed during
	// retrieval and tier isolation was not enabled.
	ErrCodeRetrievalFailed = -32001
)

// ProtocolError is an MCP protocol error with code and message.
type ProtocolError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// NewInvalidParamsError creates an invalid-params protocol error.
func NewInvalidParamsError(message string) *ProtocolError {
	return &ProtocolError{Code: ErrCodeInvalidParams, Message: message}
}

// MapError converts engine errors to protocol errors. Configuration and
// validation problems surface as invalid params; retrieval failures get
// their own code so clients can distinguish backend trouble from bad input.
func MapError(err error) *ProtocolError {
	if err == nil {
		return nil
	}

	var re *rcerrors.RelayError
	if errors.As(err, &re) {
		switch re.Category {
		case rcerrors.CategoryConfig, rcerrors.CategoryValidation:
			return &ProtocolError{Code: ErrCodeInvalidParams, Message: re.Message}
		case rcerrors.CategoryRetrieval:
			return &ProtocolError{Code: ErrCodeRetrievalFailed, Message: re.Message}
		}
	}
	return &ProtocolError{Code: ErrCodeInternalError, Message: err.Error()}
}
