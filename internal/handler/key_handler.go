// Package handler はHTTPハンドラを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"api-key-service/internal/domain"
	"api-key-service/internal/middleware"
	"api-key-service/internal/usecase"
	"api-key-service/pkg/httputil"
)

// KeyHandler はHTTPハンドラを提供する。
type KeyHandler struct {
	service *usecase.APIKeyService
}

// NewKeyHandler は新しいKeyHandlerを生成する。
func NewKeyHandler(service *usecase.APIKeyService) *KeyHandler {
	return &KeyHandler{service: service}
}

// AddKeyRequest はAPIキー登録のリクエスト形式。
type AddKeyRequest struct {
	Platform  string `json:"platform"`
	Key       string `json:"key"`
	Name      string `json:"name"`
	ExpiresAt string `json:"expires_at,omitempty"` // RFC3339、省略可
}

// RotateKeyRequest はAPIキーローテーションのリクエスト形式。
type RotateKeyRequest struct {
	Key string `json:"key"`
}

// KeyResponse はAPIキーレコードのレスポンス形式。平文は含まない。
type KeyResponse struct {
	ID           string         `json:"id"`
	PlatformType string         `json:"platform_type"`
	KeyName      string         `json:"key_name"`
	EncryptedKey string         `json:"encrypted_key"`
	IsActive     bool           `json:"is_active"`
	ExpiresAt    string         `json:"expires_at,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    string         `json:"created_at"`
	UpdatedAt    string         `json:"updated_at"`
}

// KeyListResponse はAPIキー一覧のレスポンス形式。
type KeyListResponse struct {
	Keys []KeyResponse `json:"keys"`
}

// ActiveKeyResponse は有効鍵取得のレスポンス形式。
// 復号済みの鍵は即時の呼び出し元にのみ返す。
type ActiveKeyResponse struct {
	Platform string `json:"platform"`
	Key      string `json:"key"`
}

func toKeyResponse(key *domain.APIKey) KeyResponse {
	resp := KeyResponse{
		ID:           key.ID,
		PlatformType: string(key.PlatformType),
		KeyName:      key.KeyName,
		EncryptedKey: key.EncryptedKey,
		IsActive:     key.IsActive,
		Metadata:     key.Metadata,
		CreatedAt:    key.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    key.UpdatedAt.Format(time.RFC3339),
	}
	if key.ExpiresAt != nil {
		resp.ExpiresAt = key.ExpiresAt.Format(time.RFC3339)
	}
	return resp
}

// writeServiceError は型付きエラーをHTTPステータスに対応付けて返す。
func writeServiceError(w http.ResponseWriter, err error) {
	var e *domain.Error
	if !errors.As(err, &e) {
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	status := http.StatusInternalServerError
	switch e.Code {
	case domain.ErrCodeValidationError, domain.ErrCodeInvalidKey:
		status = http.StatusBadRequest
	case domain.ErrCodeKeyNotFound:
		status = http.StatusNotFound
	case domain.ErrCodeKeyExpired:
		status = http.StatusGone
	}
	httputil.ErrorWithDetails(w, status, string(e.Code), e.Message, e.Details)
}

func parsePlatform(raw string) (domain.PlatformType, error) {
	platform := domain.PlatformType(raw)
	if !platform.IsValid() {
		return "", domain.ErrInvalidPlatform
	}
	return platform, nil
}

// AddKey は新しいAPIキーを登録する。
func (h *KeyHandler) AddKey(w http.ResponseWriter, r *http.Request) {
	var req AddKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	platform, err := parsePlatform(req.Platform)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid platform type")
		return
	}

	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			httputil.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "expires_at must be RFC3339")
			return
		}
		expiresAt = &t
	}

	key, err := h.service.AddKey(r.Context(), platform, req.Key, req.Name, expiresAt)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "ADD_KEY", platform, "", "FAILED")
		writeServiceError(w, err)
		return
	}

	middleware.WriteAuditLog(r.Context(), "ADD_KEY", platform, key.ID, "SUCCESS")
	httputil.JSON(w, http.StatusCreated, toKeyResponse(key))
}

// RotateKey は既存のAPIキーの秘密情報を差し替える。
func (h *KeyHandler) RotateKey(w http.ResponseWriter, r *http.Request) {
	keyID := chi.URLParam(r, "key_id")

	var req RotateKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	key, err := h.service.RotateKey(r.Context(), keyID, req.Key)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "ROTATE_KEY", "", keyID, "FAILED")
		writeServiceError(w, err)
		return
	}

	middleware.WriteAuditLog(r.Context(), "ROTATE_KEY", key.PlatformType, keyID, "SUCCESS")
	httputil.JSON(w, http.StatusOK, toKeyResponse(key))
}

// DeactivateKey はAPIキーを無効化する。レコードは削除しない。
func (h *KeyHandler) DeactivateKey(w http.ResponseWriter, r *http.Request) {
	keyID := chi.URLParam(r, "key_id")

	key, err := h.service.DeactivateKey(r.Context(), keyID)
	if err != nil {
		// 失敗時はレコード未取得のためプラットフォームは不明
		middleware.WriteAuditLog(r.Context(), "DEACTIVATE_KEY", "", keyID, "FAILED")
		writeServiceError(w, err)
		return
	}

	middleware.WriteAuditLog(r.Context(), "DEACTIVATE_KEY", key.PlatformType, keyID, "SUCCESS")
	w.WriteHeader(http.StatusAccepted)
}

// ListKeys はAPIキー一覧を取得する。
func (h *KeyHandler) ListKeys(w http.ResponseWriter, r *http.Request) {
	var platform domain.PlatformType
	if raw := r.URL.Query().Get("platform"); raw != "" {
		p, err := parsePlatform(raw)
		if err != nil {
			httputil.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid platform type")
			return
		}
		platform = p
	}

	keys, err := h.service.ListKeys(r.Context(), platform)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "LIST_KEYS", platform, "", "FAILED")
		writeServiceError(w, err)
		return
	}

	middleware.WriteAuditLog(r.Context(), "LIST_KEYS", platform, "", "SUCCESS")
	response := KeyListResponse{Keys: make([]KeyResponse, len(keys))}
	for i, k := range keys {
		response.Keys[i] = toKeyResponse(k)
	}
	httputil.JSON(w, http.StatusOK, response)
}

// GetActiveKey は指定プラットフォームの有効鍵を復号して返す。
func (h *KeyHandler) GetActiveKey(w http.ResponseWriter, r *http.Request) {
	platform, err := parsePlatform(chi.URLParam(r, "platform"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid platform type")
		return
	}

	plaintext, err := h.service.GetActiveKey(r.Context(), platform)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "GET_ACTIVE_KEY", platform, "", "FAILED")
		writeServiceError(w, err)
		return
	}

	middleware.WriteAuditLog(r.Context(), "GET_ACTIVE_KEY", platform, "", "SUCCESS")
	httputil.JSON(w, http.StatusOK, ActiveKeyResponse{
		Platform: string(platform),
		Key:      plaintext,
	})
}
