package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"api-key-service/internal/domain"
)

func TestValidateContent_WithinLimit(t *testing.T) {
	h := setupHandler(&mockKeyRepository{}, &mockEncryptor{})

	body := `{"content":"hello world"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/platforms/twitter/content/validate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ValidateContent(domain.PlatformTwitter)(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("want status 200, got %d", rec.Code)
	}

	env := decodeEnvelope(t, rec)
	var resp ValidateContentResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if !resp.Valid {
		t.Error("want valid=true")
	}
	if resp.CharLimit != 280 {
		t.Errorf("want char_limit 280, got %d", resp.CharLimit)
	}
	if resp.Length != 11 {
		t.Errorf("want length 11, got %d", resp.Length)
	}
}

func TestValidateContent_ExceedsLimit(t *testing.T) {
	h := setupHandler(&mockKeyRepository{}, &mockEncryptor{})

	content := strings.Repeat("a", 281)
	body := `{"content":"` + content + `"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/platforms/twitter/content/validate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ValidateContent(domain.PlatformTwitter)(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("want status 422, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("want VALIDATION_ERROR, got %+v", env.Error)
	}
	if env.Error != nil && !strings.Contains(env.Error.Message, "281/280") {
		t.Errorf("want length and limit in message, got %q", env.Error.Message)
	}
}

func TestValidateContent_NoLimitPlatform(t *testing.T) {
	h := setupHandler(&mockKeyRepository{}, &mockEncryptor{})

	// openaiは文字数制限を持たない
	content := strings.Repeat("a", 100000)
	body := `{"content":"` + content + `"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/platforms/openai/content/validate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ValidateContent(domain.PlatformOpenAI)(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("want status 200, got %d", rec.Code)
	}
}

func TestValidateContent_InvalidBody(t *testing.T) {
	h := setupHandler(&mockKeyRepository{}, &mockEncryptor{})

	req := httptest.NewRequest(http.MethodPost, "/v1/platforms/twitter/content/validate", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.ValidateContent(domain.PlatformTwitter)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("want status 400, got %d", rec.Code)
	}
}
