// Package main はCLIツールのエントリポイント。
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var (
	apiURL  string
	output  string
	timeout time.Duration
)

// HTTPクライアント
var httpClient *http.Client

func main() {
	rootCmd := &cobra.Command{
		Use:   "apikeyctl",
		Short: "API Key Service CLI",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if apiURL == "" {
				apiURL = os.Getenv("APIKEYCTL_API_URL")
			}
			httpClient = &http.Client{Timeout: timeout}
		},
	}

	// グローバルフラグ
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "API endpoint URL (or set APIKEYCTL_API_URL)")
	rootCmd.PersistentFlags().StringVar(&output, "output", "text", "Output format: text, json")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")

	// サブコマンド登録
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(rotateCmd())
	rootCmd.AddCommand(deactivateCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(getActiveCmd())
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// versionCmd はバージョン情報を表示する。
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("apikeyctl version %s\n", version)
		},
	}
}

// envelope はAPIのレスポンス形式。
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// doRequest はAPIリクエストを実行し、レスポンスのdata部を返す。
func doRequest(method, url string, body any) (json.RawMessage, error) {
	if apiURL == "" {
		return nil, fmt.Errorf("--api-url is required (or set APIKEYCTL_API_URL)")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusAccepted || len(raw) == 0 {
		return nil, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if env.Error != nil {
		return nil, fmt.Errorf("%s: %s", env.Error.Code, env.Error.Message)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return env.Data, nil
}

// addCmd はAPIキーの登録コマンド。
func addCmd() *cobra.Command {
	var platform, key, name, expiresAt string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new API key for a platform",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{
				"platform": platform,
				"key":      key,
				"name":     name,
			}
			if expiresAt != "" {
				body["expires_at"] = expiresAt
			}

			data, err := doRequest(http.MethodPost, apiURL+"/v1/keys", body)
			if err != nil {
				return err
			}

			if output == "json" {
				fmt.Println(string(data))
				return nil
			}

			var result map[string]any
			if err := json.Unmarshal(data, &result); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}
			fmt.Printf("Added key %q for platform %q (id: %v)\n", name, platform, result["id"])
			return nil
		},
	}
	cmd.Flags().StringVar(&platform, "platform", "", "Platform type (required)")
	cmd.Flags().StringVar(&key, "key", "", "Raw API key (required)")
	cmd.Flags().StringVar(&name, "name", "", "Key name (required)")
	cmd.Flags().StringVar(&expiresAt, "expires-at", "", "Expiration timestamp (RFC3339)")
	cmd.MarkFlagRequired("platform")
	cmd.MarkFlagRequired("key")
	cmd.MarkFlagRequired("name")
	return cmd
}

// rotateCmd はAPIキーのローテーションコマンド。
func rotateCmd() *cobra.Command {
	var keyID, key string
	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Rotate the secret of an existing API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			url := fmt.Sprintf("%s/v1/keys/%s/rotate", apiURL, keyID)
			data, err := doRequest(http.MethodPost, url, map[string]string{"key": key})
			if err != nil {
				return err
			}

			if output == "json" {
				fmt.Println(string(data))
				return nil
			}
			fmt.Printf("Rotated key %s\n", keyID)
			return nil
		},
	}
	cmd.Flags().StringVar(&keyID, "id", "", "Key ID (required)")
	cmd.Flags().StringVar(&key, "key", "", "New raw API key (required)")
	cmd.MarkFlagRequired("id")
	cmd.MarkFlagRequired("key")
	return cmd
}

// deactivateCmd はAPIキーの無効化コマンド。
func deactivateCmd() *cobra.Command {
	var keyID string
	cmd := &cobra.Command{
		Use:   "deactivate",
		Short: "Deactivate an API key (record is kept for audit)",
		RunE: func(cmd *cobra.Command, args []string) error {
			url := fmt.Sprintf("%s/v1/keys/%s", apiURL, keyID)
			if _, err := doRequest(http.MethodDelete, url, nil); err != nil {
				return err
			}
			fmt.Printf("Deactivated key %s\n", keyID)
			return nil
		},
	}
	cmd.Flags().StringVar(&keyID, "id", "", "Key ID (required)")
	cmd.MarkFlagRequired("id")
	return cmd
}

// listCmd はAPIキー一覧の取得コマンド。
func listCmd() *cobra.Command {
	var platform string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			url := apiURL + "/v1/keys"
			if platform != "" {
				url += "?platform=" + platform
			}

			data, err := doRequest(http.MethodGet, url, nil)
			if err != nil {
				return err
			}

			if output == "json" {
				fmt.Println(string(data))
				return nil
			}

			var result struct {
				Keys []struct {
					ID           string `json:"id"`
					PlatformType string `json:"platform_type"`
					KeyName      string `json:"key_name"`
					IsActive     bool   `json:"is_active"`
					ExpiresAt    string `json:"expires_at"`
				} `json:"keys"`
			}
			if err := json.Unmarshal(data, &result); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tPLATFORM\tNAME\tACTIVE\tEXPIRES AT")
			for _, k := range result.Keys {
				expires := "-"
				if k.ExpiresAt != "" {
					expires = k.ExpiresAt
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", k.ID, k.PlatformType, k.KeyName, k.IsActive, expires)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&platform, "platform", "", "Filter by platform type")
	return cmd
}

// getActiveCmd は有効鍵の取得コマンド。
func getActiveCmd() *cobra.Command {
	var platform string
	cmd := &cobra.Command{
		Use:   "get-active",
		Short: "Get the decrypted active key for a platform",
		RunE: func(cmd *cobra.Command, args []string) error {
			url := fmt.Sprintf("%s/v1/platforms/%s/keys/active", apiURL, platform)
			data, err := doRequest(http.MethodGet, url, nil)
			if err != nil {
				return err
			}

			if output == "json" {
				fmt.Println(string(data))
				return nil
			}

			var result struct {
				Key string `json:"key"`
			}
			if err := json.Unmarshal(data, &result); err != nil {
				return fmt.Errorf("parsing response: %w", err)
			}
			fmt.Println(result.Key)
			return nil
		},
	}
	cmd.Flags().StringVar(&platform, "platform", "", "Platform type (required)")
	cmd.MarkFlagRequired("platform")
	return cmd
}
