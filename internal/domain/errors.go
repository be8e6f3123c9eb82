package domain

import (
	"errors"
	"fmt"
)

// ErrorCode はAPIキー操作のエラー分類を表す。
type ErrorCode string

const (
	// ErrCodeEncryptionFailed は暗号化処理の失敗を表す。
	ErrCodeEncryptionFailed ErrorCode = "ENCRYPTION_FAILED"
	// ErrCodeDecryptionFailed は復号処理の失敗を表す。
	ErrCodeDecryptionFailed ErrorCode = "DECRYPTION_FAILED"
	// ErrCodeKeyNotFound は有効な鍵が存在しない場合のエラー。
	ErrCodeKeyNotFound ErrorCode = "KEY_NOT_FOUND"
	// ErrCodeKeyExpired は鍵が期限切れの場合のエラー。
	ErrCodeKeyExpired ErrorCode = "KEY_EXPIRED"
	// ErrCodeDatabaseError は永続化層の失敗を表す。
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	// ErrCodeInvalidKey は提示された鍵が一致しない場合のエラー。
	ErrCodeInvalidKey ErrorCode = "INVALID_KEY"
	// ErrCodeValidationError は入力検証の失敗を表す。
	ErrCodeValidationError ErrorCode = "VALIDATION_ERROR"
)

// Error はAPIキーサービスが返す型付きエラー。
// サービスの全公開操作はこの型のエラーのみを返す。
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]any
}

// Error はエラーメッセージを返す。
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError は型付きエラーを生成する。
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorWithDetails は診断情報付きの型付きエラーを生成する。
func NewErrorWithDetails(code ErrorCode, message string, details map[string]any) *Error {
	return &Error{Code: code, Message: message, Details: details}
}

// CodeOf はエラーからErrorCodeを取り出す。
// 型付きエラーでない場合は空文字列を返す。
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// コンテンツ検証のエラー
var (
	// ErrContentTooLong は投稿本文がプラットフォームの文字数上限を超えた場合のエラー。
	ErrContentTooLong = errors.New("content exceeds platform character limit")
	// ErrInvalidPlatform はプラットフォーム種別が不正な場合のエラー。
	ErrInvalidPlatform = errors.New("invalid platform type")
)
