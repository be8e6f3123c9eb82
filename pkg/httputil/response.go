// Package httputil はHTTPレスポンス生成のユーティリティを提供する。
package httputil

import (
	"encoding/json"
	"net/http"
)

// ErrorBody はエラーレスポンスの中身。
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Envelope は全レスポンス共通の形式。dataとerrorは常に一方のみ非nil。
type Envelope struct {
	Data  any        `json:"data"`
	Error *ErrorBody `json:"error"`
}

// JSON は成功レスポンスを返す。
func JSON(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{Data: data})
}

// Error はエラーレスポンスを返す。
func Error(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, Envelope{Error: &ErrorBody{Code: code, Message: message}})
}

// ErrorWithDetails は診断情報付きのエラーレスポンスを返す。
func ErrorWithDetails(w http.ResponseWriter, status int, code string, message string, details map[string]any) {
	writeJSON(w, status, Envelope{Error: &ErrorBody{Code: code, Message: message, Details: details}})
}

func writeJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// ヘッダーは既に送信済みのため、エラーレスポンスには変更できない
		http.Error(w, "", http.StatusInternalServerError)
	}
}
