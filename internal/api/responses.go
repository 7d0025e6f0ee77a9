package api

import (
	"encoding/json"
	"net/http"
)

// TokenResponse is returned by registration and login.
type TokenResponse struct {
	Token string `json:"token"`
}

// MessageResponse carries a single human readable outcome, e.g. {"msg":"Post removed"}.
type MessageResponse struct {
	Msg string `json:"msg"`
}

// FieldError mirrors one entry of a request-validation error list.
type FieldError struct {
	Msg      string `json:"msg"`
	Param    string `json:"param,omitempty"`
	Location string `json:"location,omitempty"`
	Value    any    `json:"value,omitempty"`
}

// ErrorsResponse is the 400 body listing every violated field.
type ErrorsResponse struct {
	Errors []FieldError `json:"errors"`
}

// Errors builds an ErrorsResponse holding a single message without a field.
func Errors(msg string) ErrorsResponse {
	return ErrorsResponse{Errors: []FieldError{{Msg: msg}}}
}

// WriteJSON writes v as the JSON body of a response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteServerError answers 500 with a plain text body; the cause is logged by the caller.
func WriteServerError(w http.ResponseWriter) {
	http.Error(w, "Server Error", http.StatusInternalServerError)
}
