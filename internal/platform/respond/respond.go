// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package respond provides a unified JSON response envelope for the
control-plane HTTP surface (health, readiness, admin operations).

Architecture:

  - Envelope: every response, success or error, follows a predictable shape.
  - JSON: default content-type is 'application/json; charset=utf-8'.
  - Errors: logs 5xx-equivalent failures with the per-request logger before
    writing the client-safe payload.

This package eliminates manual JSON marshalling in the admin handlers.
*/
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/vivat7on/filmindex/internal/platform/ctxkey"
)

// # JSON Envelopes

// SuccessEnvelope is the JSON envelope for successful responses.
type SuccessEnvelope struct {
	Data interface{} `json:"data"`
}

// ErrorEnvelope is the JSON envelope for error responses.
type ErrorEnvelope struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// # Response Helpers

// JSON writes a JSON response with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// OK writes a 200 OK response with data wrapped in the standard success envelope.
func OK(writer http.ResponseWriter, data interface{}) {
	JSON(writer, http.StatusOK, SuccessEnvelope{Data: data})
}

// Accepted writes a 202 Accepted response, used when an admin operation has
// been queued rather than completed synchronously.
func Accepted(writer http.ResponseWriter, data interface{}) {
	JSON(writer, http.StatusAccepted, SuccessEnvelope{Data: data})
}

// # Error Handling

// Error writes a standardized JSON error response and, for server-side
// failures, logs the cause with the per-request logger.
func Error(writer http.ResponseWriter, request *http.Request, status int, code, message string, cause error) {
	if status >= http.StatusInternalServerError {
		logger := getLoggerFromContext(request)
		logger.ErrorContext(request.Context(), "admin_api_error",
			slog.String("code", code),
			slog.String("request_id", getRequestIDFromContext(request)),
			slog.Any("cause", cause),
		)
	}

	JSON(writer, status, ErrorEnvelope{Error: message, Code: code})
}

func getLoggerFromContext(request *http.Request) *slog.Logger {
	if logger, ok := request.Context().Value(ctxkey.KeyLogger).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

func getRequestIDFromContext(request *http.Request) string {
	if id, ok := request.Context().Value(ctxkey.KeyRequestID).(string); ok {
		return id
	}
	return ""
}
