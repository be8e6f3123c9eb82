// Package encryption はマスターキーに基づく秘密文字列の暗号化・復号を提供する。
//
// 出力フォーマット: base64(salt(16) ‖ iv(12) ‖ tag(16) ‖ ciphertext)。
// 呼び出しごとにランダムなソルトからscryptで鍵を導出するため、
// 同じ平文・同じマスターキーでも出力は毎回異なる。
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

const (
	keyLength  = 32 // AES-256
	saltLength = 16
	ivLength   = 12 // GCM標準ノンス長
	tagLength  = 16
	minLength  = saltLength + ivLength + tagLength + 1

	// scryptパラメータ
	scryptN = 16384
	scryptR = 8
	scryptP = 1
)

var (
	// ErrInvalidCiphertext は暗号文の構造が不正な場合のエラー。
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")

	// ErrDecryptionFailed は復号に失敗した場合のエラー。
	// 認証タグ不一致・マスターキー不一致などの詳細は区別せず
	// 単一のエラーとして報告する。
	ErrDecryptionFailed = errors.New("decryption failed")
)

// Engine はマスターキーを保持する暗号化エンジン。
type Engine struct {
	masterKey []byte
}

// NewEngine は指定されたマスターキーでエンジンを生成する。
func NewEngine(masterKey string) *Engine {
	return &Engine{masterKey: []byte(masterKey)}
}

// deriveKey はソルトとマスターキーから暗号鍵を導出する。
func (e *Engine) deriveKey(salt []byte) ([]byte, error) {
	key, err := scrypt.Key(e.masterKey, salt, scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}
	return key, nil
}

// Encrypt は平文を暗号化しエンベロープをbase64文字列で返す。
func (e *Engine) Encrypt(plaintext string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	iv := make([]byte, ivLength)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generating iv: %w", err)
	}

	key, err := e.deriveKey(salt)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("creating gcm: %w", err)
	}

	// Sealの出力は ciphertext ‖ tag の順のため、
	// エンベロープの tag ‖ ciphertext 順に並べ替える
	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	ciphertext := sealed[:len(sealed)-tagLength]
	tag := sealed[len(sealed)-tagLength:]

	combined := make([]byte, 0, saltLength+ivLength+tagLength+len(ciphertext))
	combined = append(combined, salt...)
	combined = append(combined, iv...)
	combined = append(combined, tag...)
	combined = append(combined, ciphertext...)

	return base64.StdEncoding.EncodeToString(combined), nil
}

// Decrypt はエンベロープを復号し平文を返す。
// 構造が不正な場合はErrInvalidCiphertext、復号に失敗した場合は
// ErrDecryptionFailedを返す。
func (e *Engine) Decrypt(ciphertext string) (string, error) {
	combined, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil || len(combined) < minLength {
		return "", ErrInvalidCiphertext
	}

	salt := combined[:saltLength]
	iv := combined[saltLength : saltLength+ivLength]
	tag := combined[saltLength+ivLength : saltLength+ivLength+tagLength]
	encrypted := combined[saltLength+ivLength+tagLength:]

	key, err := e.deriveKey(salt)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	sealed := make([]byte, 0, len(encrypted)+tagLength)
	sealed = append(sealed, encrypted...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}

// IsValidCiphertext はエンベロープの構造のみを検証する。復号は試みない。
func (e *Engine) IsValidCiphertext(ciphertext string) bool {
	combined, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return false
	}
	return len(combined) >= minLength
}

// RotateMasterKey は暗号文を現在のマスターキーで復号し、
// 新しいマスターキーで再暗号化する。平文は永続化しない。
func (e *Engine) RotateMasterKey(ciphertext, newMasterKey string) (string, error) {
	plaintext, err := e.Decrypt(ciphertext)
	if err != nil {
		return "", err
	}
	return NewEngine(newMasterKey).Encrypt(plaintext)
}
