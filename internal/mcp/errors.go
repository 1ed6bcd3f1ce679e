// Package mcp implements the Model Context Protocol (MCP) server for
// TSBridge: lookup tools, knowledge resources, and planning prompts for
// Python to TypeScript migration.
package mcp

import (
	"errors"
	"fmt"

	tsberrors "github.com/tsbridge/tsbridge/internal/errors"
)

// Custom MCP error codes for TSBridge.
const (
	// ErrCodeKnowledgeUnavailable indicates the knowledge base failed to
	// load or reload.
	ErrCodeKnowledgeUnavailable = -32001

	// ErrCodeInterpreterMissing indicates python3 or node is not on PATH.
	ErrCodeInterpreterMissing = -32002

	// ErrCodeTimeout indicates a differential test run timed out.
	ErrCodeTimeout = -32003

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// NewInvalidParamsError creates an invalid-params protocol error.
func NewInvalidParamsError(message string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: message}
}

// MapError converts internal errors to MCP protocol errors. Structured
// TSBErrors map by category and code; anything else becomes an internal
// error.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var tsbErr *tsberrors.TSBError
	if errors.As(err, &tsbErr) {
		return mapTSBError(tsbErr)
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}

	return &MCPError{Code: ErrCodeInternalError, Message: err.Error()}
}

func mapTSBError(e *tsberrors.TSBError) *MCPError {
	msg := e.Message
	if e.Suggestion != "" {
		msg += ". " + e.Suggestion
	}

	switch e.Code {
	case tsberrors.ErrCodeInterpreterMissing:
		return &MCPError{Code: ErrCodeInterpreterMissing, Message: msg}
	case tsberrors.ErrCodeSubprocessTimeout:
		return &MCPError{Code: ErrCodeTimeout, Message: msg}
	}

	switch e.Category {
	case tsberrors.CategoryValidation:
		return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
	case tsberrors.CategoryData:
		return &MCPError{Code: ErrCodeKnowledgeUnavailable, Message: msg}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: msg}
	}
}
