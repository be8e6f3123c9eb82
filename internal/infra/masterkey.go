package infra

import (
	"context"
	"encoding/base64"
	"fmt"

	kms "cloud.google.com/go/kms/apiv1"
	kmspb "cloud.google.com/go/kms/apiv1/kmspb"

	"api-key-service/config"
)

// KMSClient はCloud KMSクライアントをラップする。
// マスターキーをKMSでラップして保管する構成で使用する。
type KMSClient struct {
	client  *kms.KeyManagementClient
	keyName string
}

// NewKMSClient は指定されたキー名でKMSClientを生成する。
func NewKMSClient(ctx context.Context, keyName string) (*KMSClient, error) {
	if keyName == "" {
		return nil, fmt.Errorf("KMS key name is required")
	}

	client, err := kms.NewKeyManagementClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating KMS client: %w", err)
	}

	return &KMSClient{
		client:  client,
		keyName: keyName,
	}, nil
}

// Decrypt は暗号文をCloud KMSで復号する。
func (c *KMSClient) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	req := &kmspb.DecryptRequest{
		Name:       c.keyName,
		Ciphertext: ciphertext,
	}
	resp, err := c.client.Decrypt(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}
	return resp.Plaintext, nil
}

// Close はKMSクライアントを閉じる。
func (c *KMSClient) Close() error {
	return c.client.Close()
}

// ResolveMasterKey は暗号化エンジンのマスターキーを解決する。
// MASTER_KEYが設定されていればそのまま使用し、そうでなければ
// ENCRYPTED_MASTER_KEY（base64）をCloud KMSで復号して使用する。
// マスターキーはコードにもログにも残さない。
func ResolveMasterKey(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.MasterKey != "" {
		return cfg.MasterKey, nil
	}

	if cfg.EncryptedMasterKey == "" {
		return "", fmt.Errorf("MASTER_KEY or ENCRYPTED_MASTER_KEY environment variable is required")
	}

	wrapped, err := base64.StdEncoding.DecodeString(cfg.EncryptedMasterKey)
	if err != nil {
		return "", fmt.Errorf("decoding ENCRYPTED_MASTER_KEY: %w", err)
	}

	kmsClient, err := NewKMSClient(ctx, cfg.KMSKeyName)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = kmsClient.Close()
	}()

	masterKey, err := kmsClient.Decrypt(ctx, wrapped)
	if err != nil {
		return "", fmt.Errorf("unwrapping master key: %w", err)
	}

	return string(masterKey), nil
}
