// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"api-key-service/internal/domain"
)

// HeaderAPIKey はAPIキーを受け取るリクエストヘッダ名。
const HeaderAPIKey = "X-API-Key"

// KeyValidator は提示された鍵を検証するインターフェース。
type KeyValidator interface {
	ValidateKey(ctx context.Context, platform domain.PlatformType, presentedKey string) domain.KeyValidationResult
}

// RequireAPIKey は指定プラットフォームのAPIキーを要求するミドルウェアを返す。
// キャッシュは行わず、リクエストごとにサービスへ再検証を委譲する。
func RequireAPIKey(validator KeyValidator, platform domain.PlatformType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presentedKey := r.Header.Get(HeaderAPIKey)
			if presentedKey == "" {
				writeError(w, http.StatusUnauthorized, "API key is required")
				return
			}

			result := validator.ValidateKey(r.Context(), platform, presentedKey)
			if !result.IsValid {
				// 検証の不一致と基盤側の失敗を区別して返す
				if result.Error != nil && isInfrastructureError(result.Error.Code) {
					writeError(w, http.StatusInternalServerError, "Error validating API key")
					return
				}
				message := "Invalid API key"
				if result.Error != nil {
					message = result.Error.Message
				}
				writeError(w, http.StatusUnauthorized, message)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isInfrastructureError は検証不一致ではなく基盤障害に起因するコードか判定する。
func isInfrastructureError(code domain.ErrorCode) bool {
	switch code {
	case domain.ErrCodeDatabaseError, domain.ErrCodeDecryptionFailed, domain.ErrCodeEncryptionFailed:
		return true
	}
	return false
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
