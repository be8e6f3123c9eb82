// Package domain はドメインモデルとビジネスルールを定義する。
package domain

import "time"

// APIKey はプラットフォーム認証情報のエンティティを表す。
// EncryptedKeyは暗号化エンジンの出力（エンベロープ）であり、
// このエンティティを扱うコードからは不透明なブロブとして扱う。
type APIKey struct {
	ID           string
	PlatformType PlatformType
	KeyName      string
	EncryptedKey string
	IsActive     bool
	ExpiresAt    *time.Time // nilは無期限
	Metadata     map[string]any
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsExpired は指定時刻において鍵が期限切れかどうかを返す。
// ExpiresAtと同時刻は期限切れとして扱う。
func (k *APIKey) IsExpired(now time.Time) bool {
	if k.ExpiresAt == nil {
		return false
	}
	return !k.ExpiresAt.After(now)
}

// KeyValidationResult は提示された鍵の検証結果を表す。
type KeyValidationResult struct {
	IsValid bool
	Error   *Error
}
