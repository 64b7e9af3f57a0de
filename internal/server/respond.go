// Package server exposes the HTTP surface: the JSON response envelope,
// token and permission guards, and the chi router wiring them together.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Response codes carried in the envelope alongside the HTTP status.
const (
	CodeOK                 = "OK"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeSessionInvalid     = "SESSION_INVALID"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeValidation         = "VALIDATION_ERROR"
	CodeInternal           = "INTERNAL"
)

// Envelope is the shape of every response body, success or error.
type Envelope struct {
	Success   bool   `json:"success"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId"`
	Timestamp string `json:"timestamp"`
	Payload   any    `json:"payload"`
}

// WriteSuccess renders payload in the envelope with the given HTTP status.
func WriteSuccess(w http.ResponseWriter, r *http.Request, status int, message string, payload any) {
	writeEnvelope(w, r, status, Envelope{
		Success: true,
		Code:    CodeOK,
		Message: message,
		Payload: payload,
	})
}

// WriteError renders an error envelope with a nil payload. The message
// is what the client sees; internal detail stays server-side.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeEnvelope(w, r, status, Envelope{
		Success: false,
		Code:    code,
		Message: message,
		Payload: nil,
	})
}

// WriteInternal logs err with the request id and renders a generic 500.
func WriteInternal(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("request %s: %v", middleware.GetReqID(r.Context()), err)
	WriteError(w, r, http.StatusInternalServerError, CodeInternal, "internal server error")
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, status int, env Envelope) {
	env.RequestID = middleware.GetReqID(r.Context())
	env.Timestamp = time.Now().UTC().Format(time.RFC3339)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Printf("request %s: write response: %v", env.RequestID, err)
	}
}

// decodeJSON decodes the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
