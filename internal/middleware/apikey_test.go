package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"api-key-service/internal/domain"
)

// mockValidator はテスト用の鍵検証スタブ。
type mockValidator struct {
	result       domain.KeyValidationResult
	gotPlatform  domain.PlatformType
	gotPresented string
	called       bool
}

func (m *mockValidator) ValidateKey(ctx context.Context, platform domain.PlatformType, presentedKey string) domain.KeyValidationResult {
	m.called = true
	m.gotPlatform = platform
	m.gotPresented = presentedKey
	return m.result
}

func runMiddleware(t *testing.T, validator *mockValidator, apiKey string) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/platforms/twitter/content/validate", nil)
	if apiKey != "" {
		req.Header.Set(HeaderAPIKey, apiKey)
	}
	rec := httptest.NewRecorder()

	RequireAPIKey(validator, domain.PlatformTwitter)(next).ServeHTTP(rec, req)
	return rec, nextCalled
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body["error"]
}

func TestRequireAPIKey_ValidKey(t *testing.T) {
	validator := &mockValidator{result: domain.KeyValidationResult{IsValid: true}}

	rec, nextCalled := runMiddleware(t, validator, "secret123")

	if !nextCalled {
		t.Error("want request to reach the handler")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("want status 200, got %d", rec.Code)
	}
	if validator.gotPlatform != domain.PlatformTwitter {
		t.Errorf("want platform twitter, got %s", validator.gotPlatform)
	}
	if validator.gotPresented != "secret123" {
		t.Errorf("want presented key forwarded, got %q", validator.gotPresented)
	}
}

func TestRequireAPIKey_MissingHeader(t *testing.T) {
	validator := &mockValidator{}

	rec, nextCalled := runMiddleware(t, validator, "")

	if nextCalled {
		t.Error("want request to be rejected")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("want status 401, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "API key is required" {
		t.Errorf("want message API key is required, got %q", msg)
	}
	// ヘッダがない場合は検証サービスを呼ばない
	if validator.called {
		t.Error("want validator not to be called")
	}
}

func TestRequireAPIKey_InvalidKey(t *testing.T) {
	validator := &mockValidator{result: domain.KeyValidationResult{
		IsValid: false,
		Error:   domain.NewError(domain.ErrCodeInvalidKey, "Invalid API key"),
	}}

	rec, nextCalled := runMiddleware(t, validator, "wrong-key")

	if nextCalled {
		t.Error("want request to be rejected")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("want status 401, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "Invalid API key" {
		t.Errorf("want message Invalid API key, got %q", msg)
	}
}

func TestRequireAPIKey_NoActiveKey(t *testing.T) {
	validator := &mockValidator{result: domain.KeyValidationResult{
		IsValid: false,
		Error:   domain.NewError(domain.ErrCodeKeyNotFound, "No active API key found for platform: twitter"),
	}}

	rec, nextCalled := runMiddleware(t, validator, "some-key")

	if nextCalled {
		t.Error("want request to be rejected")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("want status 401, got %d", rec.Code)
	}
}

func TestRequireAPIKey_InfrastructureFailure(t *testing.T) {
	cases := []struct {
		name string
		code domain.ErrorCode
	}{
		{"database error", domain.ErrCodeDatabaseError},
		{"decryption failure", domain.ErrCodeDecryptionFailed},
		{"encryption failure", domain.ErrCodeEncryptionFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			validator := &mockValidator{result: domain.KeyValidationResult{
				IsValid: false,
				Error:   domain.NewError(tc.code, "internal detail that must not leak"),
			}}

			rec, nextCalled := runMiddleware(t, validator, "some-key")

			if nextCalled {
				t.Error("want request to be rejected")
			}
			if rec.Code != http.StatusInternalServerError {
				t.Errorf("want status 500, got %d", rec.Code)
			}
			// 基盤側の失敗では内部詳細を返さない
			if msg := decodeError(t, rec); msg != "Error validating API key" {
				t.Errorf("want generic message, got %q", msg)
			}
		})
	}
}
