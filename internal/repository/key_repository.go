// Package repository はデータアクセス層の実装を提供する。
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"api-key-service/internal/domain"
)

// APIKeyModel はgorm用のモデル定義。
type APIKeyModel struct {
	ID           string     `gorm:"type:char(36);primaryKey"`
	PlatformType string     `gorm:"type:varchar(32);not null;index:idx_platform_active"`
	KeyName      string     `gorm:"type:varchar(64);not null"`
	EncryptedKey string     `gorm:"type:text;not null"`
	IsActive     bool       `gorm:"not null;default:true;index:idx_platform_active"`
	ExpiresAt    *time.Time `gorm:"type:datetime(6)"`
	Metadata     []byte     `gorm:"type:json"`
	CreatedAt    time.Time  `gorm:"type:datetime(6);not null;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"type:datetime(6);not null;autoUpdateTime"`
}

// TableName はテーブル名を返す。
func (APIKeyModel) TableName() string {
	return "api_keys"
}

// BeforeCreate はレコード作成前にUUIDを生成する。
func (m *APIKeyModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// toDomain はモデルをドメインエンティティに変換する。
func (m *APIKeyModel) toDomain() *domain.APIKey {
	key := &domain.APIKey{
		ID:           m.ID,
		PlatformType: domain.PlatformType(m.PlatformType),
		KeyName:      m.KeyName,
		EncryptedKey: m.EncryptedKey,
		IsActive:     m.IsActive,
		ExpiresAt:    m.ExpiresAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if len(m.Metadata) > 0 {
		// 不正なJSONは無視してmetadataなしとして扱う
		_ = json.Unmarshal(m.Metadata, &key.Metadata)
	}
	return key
}

// KeyRepository はデータアクセスを提供する。
type KeyRepository struct {
	db *gorm.DB
}

// NewKeyRepository は新しいKeyRepositoryを生成する。
func NewKeyRepository(db *gorm.DB) *KeyRepository {
	return &KeyRepository{db: db}
}

// Create は新しいAPIキーを保存する。
func (r *KeyRepository) Create(ctx context.Context, key *domain.APIKey) error {
	model := &APIKeyModel{
		ID:           key.ID,
		PlatformType: string(key.PlatformType),
		KeyName:      key.KeyName,
		EncryptedKey: key.EncryptedKey,
		IsActive:     key.IsActive,
		ExpiresAt:    key.ExpiresAt,
	}
	if key.Metadata != nil {
		data, err := json.Marshal(key.Metadata)
		if err != nil {
			return err
		}
		model.Metadata = data
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		slog.ErrorContext(ctx, "failed to create api key",
			"operation", "create",
			"platform", key.PlatformType,
			"error", err,
		)
		return err
	}
	// gormで設定された値をドメインエンティティに反映
	key.ID = model.ID
	key.CreatedAt = model.CreatedAt
	key.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByID は指定されたIDのAPIキーを取得する。存在しない場合はnilを返す。
func (r *KeyRepository) FindByID(ctx context.Context, id string) (*domain.APIKey, error) {
	var model APIKeyModel
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.ErrorContext(ctx, "failed to find api key",
			"operation", "find_by_id",
			"id", id,
			"error", err,
		)
		return nil, err
	}
	return model.toDomain(), nil
}

// FindAll は全APIキーを取得する。platformを指定した場合はそのプラットフォームに絞る。
func (r *KeyRepository) FindAll(ctx context.Context, platform domain.PlatformType) ([]*domain.APIKey, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if platform != "" {
		query = query.Where("platform_type = ?", string(platform))
	}

	var models []APIKeyModel
	if err := query.Find(&models).Error; err != nil {
		slog.ErrorContext(ctx, "failed to find api keys",
			"operation", "find_all",
			"platform", platform,
			"error", err,
		)
		return nil, err
	}

	keys := make([]*domain.APIKey, len(models))
	for i, m := range models {
		keys[i] = m.toDomain()
	}
	return keys, nil
}

// FindActiveByPlatform は指定プラットフォームの有効なAPIキーを1件取得する。
// 複数存在する場合は作成日時が最新のものを返す。存在しない場合はnilを返す。
func (r *KeyRepository) FindActiveByPlatform(ctx context.Context, platform domain.PlatformType) (*domain.APIKey, error) {
	var model APIKeyModel
	err := r.db.WithContext(ctx).
		Where("platform_type = ? AND is_active = ?", string(platform), true).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.ErrorContext(ctx, "failed to find active api key",
			"operation", "find_active_by_platform",
			"platform", platform,
			"error", err,
		)
		return nil, err
	}
	return model.toDomain(), nil
}

// CountByPlatform は指定プラットフォームのAPIキー件数を取得する。
func (r *KeyRepository) CountByPlatform(ctx context.Context, platform domain.PlatformType) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&APIKeyModel{}).
		Where("platform_type = ?", string(platform)).
		Count(&count).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to count api keys",
			"operation", "count_by_platform",
			"platform", platform,
			"error", err,
		)
		return 0, err
	}
	return count, nil
}

// UpdateEncryptedKey は指定されたIDのAPIキーの暗号文を更新する。
// updated_atはgormにより自動更新される。
func (r *KeyRepository) UpdateEncryptedKey(ctx context.Context, id string, encryptedKey string) error {
	err := r.db.WithContext(ctx).
		Model(&APIKeyModel{}).
		Where("id = ?", id).
		Update("encrypted_key", encryptedKey).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to update encrypted key",
			"operation", "update_encrypted_key",
			"id", id,
			"error", err,
		)
		return err
	}
	return nil
}

// UpdateActive は指定されたIDのAPIキーの有効フラグを更新する。
func (r *KeyRepository) UpdateActive(ctx context.Context, id string, active bool) error {
	err := r.db.WithContext(ctx).
		Model(&APIKeyModel{}).
		Where("id = ?", id).
		Update("is_active", active).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to update active flag",
			"operation", "update_active",
			"id", id,
			"active", active,
			"error", err,
		)
		return err
	}
	return nil
}
