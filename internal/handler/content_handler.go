package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"api-key-service/internal/domain"
	"api-key-service/pkg/httputil"
)

// ValidateContentRequest は投稿本文検証のリクエスト形式。
type ValidateContentRequest struct {
	Content string `json:"content"`
}

// ValidateContentResponse は投稿本文検証のレスポンス形式。
type ValidateContentResponse struct {
	Valid     bool   `json:"valid"`
	Platform  string `json:"platform"`
	CharLimit int    `json:"char_limit"`
	Length    int    `json:"length"`
}

// ValidateContent は指定プラットフォーム向けの投稿本文検証ハンドラを返す。
// プラットフォームごとにAPIキー検証ミドルウェアの内側に配置される。
func (h *KeyHandler) ValidateContent(platform domain.PlatformType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ValidateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
			return
		}

		length := len([]rune(req.Content))
		limit := platform.CharLimit()

		if err := domain.ValidateContent(req.Content, platform); err != nil {
			httputil.Error(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR",
				fmt.Sprintf("Exceeds %s's character limit (%d/%d)", platform, length, limit))
			return
		}

		httputil.JSON(w, http.StatusOK, ValidateContentResponse{
			Valid:     true,
			Platform:  string(platform),
			CharLimit: limit,
			Length:    length,
		})
	}
}
