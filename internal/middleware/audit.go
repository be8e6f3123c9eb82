package middleware

import (
	"context"
	"log/slog"
	"time"

	"api-key-service/internal/domain"
)

// WriteAuditLog はAPIキー操作の監査ログを出力する。
// 鍵の平文・暗号文はログに含めない。
func WriteAuditLog(ctx context.Context, operation string, platform domain.PlatformType, keyID string, result string) {
	slog.InfoContext(ctx, "api key operation completed",
		"operation", operation,
		"platform", platform,
		"key_id", keyID,
		"result", result,
		"timestamp", time.Now().UTC().Format(time.RFC3339),
	)
}
