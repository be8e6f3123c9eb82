// Package usecase はアプリケーションのユースケースを実装する。
package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"api-key-service/internal/domain"
)

// KeyRepository はデータアクセスのインターフェース。
type KeyRepository interface {
	Create(ctx context.Context, key *domain.APIKey) error
	FindByID(ctx context.Context, id string) (*domain.APIKey, error)
	FindAll(ctx context.Context, platform domain.PlatformType) ([]*domain.APIKey, error)
	FindActiveByPlatform(ctx context.Context, platform domain.PlatformType) (*domain.APIKey, error)
	CountByPlatform(ctx context.Context, platform domain.PlatformType) (int64, error)
	UpdateEncryptedKey(ctx context.Context, id string, encryptedKey string) error
	UpdateActive(ctx context.Context, id string, active bool) error
}

// Encryptor は暗号化/復号のインターフェース。
type Encryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Config はAPIキーサービスのビジネスルール設定。
type Config struct {
	MinKeyNameLength      int
	MaxKeyNameLength      int
	MaxKeysPerPlatform    int // 0は無制限
	DefaultExpirationDays int // 0は無期限

	// AllowMultipleActiveKeys は同一プラットフォームに複数の有効鍵を
	// 許容するかのポリシーフラグ。書き込み時には強制しない。
	// 複数有効鍵が存在する場合、GetActiveKeyはストアの選択順
	// （作成日時の新しい順）で1件を返す。
	AllowMultipleActiveKeys bool
}

// DefaultConfig は既定のビジネスルール設定を返す。
func DefaultConfig() Config {
	return Config{
		MinKeyNameLength:        3,
		MaxKeyNameLength:        50,
		AllowMultipleActiveKeys: true,
	}
}

// APIKeyService はAPIキーのライフサイクル管理を提供する。
// APIKeyRecordの唯一の読み書き主体であり、暗号化と永続化を編成する。
type APIKeyService struct {
	repo      KeyRepository
	encryptor Encryptor
	config    Config
	now       func() time.Time
}

// NewAPIKeyService は新しいAPIKeyServiceを生成する。
func NewAPIKeyService(repo KeyRepository, encryptor Encryptor, config Config) *APIKeyService {
	return &APIKeyService{
		repo:      repo,
		encryptor: encryptor,
		config:    config,
		now:       time.Now,
	}
}

// validateKeyName は鍵名の長さを設定された範囲で検証する。
func (s *APIKeyService) validateKeyName(name string) *domain.Error {
	length := len([]rune(name))
	if length < s.config.MinKeyNameLength || length > s.config.MaxKeyNameLength {
		return domain.NewError(domain.ErrCodeValidationError,
			fmt.Sprintf("Key name must be between %d and %d characters",
				s.config.MinKeyNameLength, s.config.MaxKeyNameLength))
	}
	return nil
}

// AddKey は新しいAPIキーを暗号化して登録する。
// 生の鍵が永続化されることはない。
func (s *APIKeyService) AddKey(ctx context.Context, platform domain.PlatformType, rawKey, name string, expiresAt *time.Time) (*domain.APIKey, error) {
	if err := s.validateKeyName(name); err != nil {
		return nil, err
	}

	// 永続化を試みる前に暗号化する
	encrypted, err := s.encryptor.Encrypt(rawKey)
	if err != nil {
		return nil, domain.NewError(domain.ErrCodeEncryptionFailed, "Failed to encrypt API key")
	}

	if s.config.MaxKeysPerPlatform > 0 {
		count, err := s.repo.CountByPlatform(ctx, platform)
		if err != nil {
			return nil, databaseError(err)
		}
		if count >= int64(s.config.MaxKeysPerPlatform) {
			return nil, domain.NewError(domain.ErrCodeValidationError,
				fmt.Sprintf("Maximum number of keys reached for platform: %s", platform))
		}
	}

	if expiresAt == nil && s.config.DefaultExpirationDays > 0 {
		t := s.now().AddDate(0, 0, s.config.DefaultExpirationDays)
		expiresAt = &t
	}

	key := &domain.APIKey{
		PlatformType: platform,
		KeyName:      name,
		EncryptedKey: encrypted,
		IsActive:     true,
		ExpiresAt:    expiresAt,
	}
	if err := s.repo.Create(ctx, key); err != nil {
		return nil, databaseError(err)
	}

	return key, nil
}

// RotateKey は既存レコードの暗号文をその場で差し替える。
// ID・プラットフォーム・鍵名は変更しない。
func (s *APIKeyService) RotateKey(ctx context.Context, keyID, newRawKey string) (*domain.APIKey, error) {
	encrypted, err := s.encryptor.Encrypt(newRawKey)
	if err != nil {
		return nil, domain.NewError(domain.ErrCodeEncryptionFailed, "Failed to encrypt API key")
	}

	key, err := s.repo.FindByID(ctx, keyID)
	if err != nil {
		return nil, databaseError(err)
	}
	if key == nil {
		return nil, domain.NewError(domain.ErrCodeKeyNotFound,
			fmt.Sprintf("API key not found: %s", keyID))
	}

	if err := s.repo.UpdateEncryptedKey(ctx, keyID, encrypted); err != nil {
		return nil, databaseError(err)
	}

	// 更新後のタイムスタンプを反映したレコードを返す
	updated, err := s.repo.FindByID(ctx, keyID)
	if err != nil {
		return nil, databaseError(err)
	}
	return updated, nil
}

// DeactivateKey はAPIキーを論理削除し、無効化後のレコードを返す。
// レコードは監査用に保持される。既に無効化済みの鍵に対しても成功する（冪等）。
func (s *APIKeyService) DeactivateKey(ctx context.Context, keyID string) (*domain.APIKey, error) {
	key, err := s.repo.FindByID(ctx, keyID)
	if err != nil {
		return nil, databaseError(err)
	}
	if key == nil {
		return nil, domain.NewError(domain.ErrCodeKeyNotFound,
			fmt.Sprintf("API key not found: %s", keyID))
	}

	if err := s.repo.UpdateActive(ctx, keyID, false); err != nil {
		return nil, databaseError(err)
	}
	key.IsActive = false
	return key, nil
}

// ListKeys は登録済みAPIキーの一覧を取得する。
// レコードには暗号文が含まれるが平文は含まれない。
func (s *APIKeyService) ListKeys(ctx context.Context, platform domain.PlatformType) ([]*domain.APIKey, error) {
	keys, err := s.repo.FindAll(ctx, platform)
	if err != nil {
		return nil, databaseError(err)
	}
	return keys, nil
}

// GetActiveKey は指定プラットフォームの有効な鍵を復号して平文で返す。
// 平文は呼び出し元にのみ渡し、ログには出力しない。
func (s *APIKeyService) GetActiveKey(ctx context.Context, platform domain.PlatformType) (string, error) {
	key, err := s.repo.FindActiveByPlatform(ctx, platform)
	if err != nil {
		return "", databaseError(err)
	}
	if key == nil {
		return "", domain.NewError(domain.ErrCodeKeyNotFound,
			fmt.Sprintf("No active API key found for platform: %s", platform))
	}

	// 期限切れの鍵は有効フラグに関わらず返さない
	if key.IsExpired(s.now()) {
		return "", domain.NewError(domain.ErrCodeKeyExpired,
			fmt.Sprintf("API key for platform %s has expired", platform))
	}

	plaintext, err := s.encryptor.Decrypt(key.EncryptedKey)
	if err != nil {
		return "", domain.NewError(domain.ErrCodeDecryptionFailed, "Failed to decrypt API key")
	}
	return plaintext, nil
}

// ValidateKey は提示された鍵を有効な保存鍵と比較して検証する。
// 比較は定数時間で行う。
func (s *APIKeyService) ValidateKey(ctx context.Context, platform domain.PlatformType, presentedKey string) domain.KeyValidationResult {
	activeKey, err := s.GetActiveKey(ctx, platform)
	if err != nil {
		return domain.KeyValidationResult{IsValid: false, Error: asTypedError(err)}
	}

	if subtle.ConstantTimeCompare([]byte(activeKey), []byte(presentedKey)) != 1 {
		return domain.KeyValidationResult{
			IsValid: false,
			Error:   domain.NewError(domain.ErrCodeInvalidKey, "Invalid API key"),
		}
	}
	return domain.KeyValidationResult{IsValid: true}
}

// databaseError は永続化層のエラーを型付きエラーに変換する。
// 元のエラーメッセージは診断用にDetailsへ残す。
func databaseError(err error) *domain.Error {
	return domain.NewErrorWithDetails(domain.ErrCodeDatabaseError,
		"Database operation failed",
		map[string]any{"cause": err.Error()})
}

// asTypedError はエラーを型付きエラーとして取り出す。
func asTypedError(err error) *domain.Error {
	var e *domain.Error
	if errors.As(err, &e) {
		return e
	}
	return domain.NewError(domain.ErrCodeDatabaseError, err.Error())
}
