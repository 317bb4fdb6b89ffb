// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// バックエンド設定
	APIBase    string // 変換バックエンドのオリジン（末尾スラッシュは除去済み）
	PageOrigin string // APIBase 未設定時に相対パスを解決するオリジン

	// 送信オプションの既定値（nil はフォームに含めない）
	Quality   *string // fast / print / ultra
	WidthPx   *int    // PNG 幅（0 = 自動）
	DPI       *int    // PNG 解像度
	FillColor *string // 塗り色（空文字は送信時に既定色へ置き換える）

	// ポーリング設定
	PollInterval  time.Duration // 取得成功後の待ち時間
	RetryInterval time.Duration // 取得失敗後の待ち時間

	// 成果物
	DownloadDir string // ダウンロード先ディレクトリ

	// ダッシュボード設定
	Port               string // ダッシュボードのポート番号
	GinMode            string // Ginの実行モード (debug, release, test)
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	// .env.local ファイルを読み込む（存在しない場合はスキップ）
	loadEnvFile()

	config := &Config{
		APIBase:    strings.TrimRight(strings.TrimSpace(getEnv("API_BASE", "")), "/"),
		PageOrigin: getEnv("PAGE_ORIGIN", "http://localhost:5000"),

		Quality:   lookupEnv("DEFAULT_QUALITY"),
		WidthPx:   lookupEnvAsInt("PNG_WIDTH_PX"),
		DPI:       lookupEnvAsInt("PNG_DPI"),
		FillColor: lookupEnv("FILL_COLOR"),

		PollInterval:  time.Duration(getEnvAsInt("POLL_INTERVAL_MS", 500)) * time.Millisecond,
		RetryInterval: time.Duration(getEnvAsInt("POLL_RETRY_INTERVAL_MS", 800)) * time.Millisecond,

		DownloadDir: getEnv("DOWNLOAD_DIR", "downloads"),

		Port:               getEnv("PORT", "8080"),
		GinMode:            getEnv("GIN_MODE", "debug"),
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
	}

	// 必須設定のバリデーション
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	if c.APIBase != "" {
		if err := validateOrigin("API_BASE", c.APIBase); err != nil {
			return err
		}
	}
	if err := validateOrigin("PAGE_ORIGIN", c.PageOrigin); err != nil {
		return err
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL_MS must be positive")
	}
	if c.RetryInterval <= 0 {
		return fmt.Errorf("POLL_RETRY_INTERVAL_MS must be positive")
	}

	// 本番ではバックエンドを明示させる
	if c.GinMode == "release" && c.APIBase == "" {
		return fmt.Errorf("API_BASE is required in release mode")
	}

	return nil
}

func validateOrigin(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https: %q", key, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host: %q", key, raw)
	}
	return nil
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// lookupEnv は設定されている場合だけ値を返します。空文字も「設定あり」として扱います。
func lookupEnv(key string) *string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	value = strings.TrimSpace(value)
	return &value
}

// lookupEnvAsInt は整数として解釈できる場合だけ値を返します。
func lookupEnvAsInt(key string) *int {
	raw := lookupEnv(key)
	if raw == nil || *raw == "" {
		return nil
	}
	value, err := strconv.Atoi(*raw)
	if err != nil {
		return nil
	}
	return &value
}
