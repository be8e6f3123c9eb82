package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"api-key-service/config"
	"api-key-service/internal/domain"
	"api-key-service/internal/middleware"
)

// contentPlatforms は投稿本文検証を提供するプラットフォーム。
var contentPlatforms = []domain.PlatformType{
	domain.PlatformTwitter,
	domain.PlatformLinkedIn,
	domain.PlatformFacebook,
	domain.PlatformInstagram,
}

// NewRouter はルーターを生成する。
func NewRouter(h *KeyHandler, validator middleware.KeyValidator, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// ミドルウェア
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)

	// 鍵管理ルート
	r.Route("/v1/keys", func(r chi.Router) {
		r.Post("/", h.AddKey)
		r.Get("/", h.ListKeys)
		r.Post("/{key_id}/rotate", h.RotateKey)
		r.Delete("/{key_id}", h.DeactivateKey)
	})

	r.Get("/v1/platforms/{platform}/keys/active", h.GetActiveKey)

	// APIキー検証ミドルウェアで保護されたルート
	for _, platform := range contentPlatforms {
		path := fmt.Sprintf("/v1/platforms/%s/content/validate", platform)
		r.With(middleware.RequireAPIKey(validator, platform)).Post(path, h.ValidateContent(platform))
	}

	if cfg != nil && cfg.OtelEnabled {
		return otelhttp.NewHandler(r, "api-key-service")
	}
	return r
}
