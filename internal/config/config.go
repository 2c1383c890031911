package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	StatePath  string
	BrandsPath string
	Timezone   string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
	GoogleRefreshToken string

	SlackBotToken   string
	SlackChannelID  string
	SlackWebhookURL string

	KakaoBaseURL     string
	KakaoToken       string
	KakaoAdminChatID string
	KakaoTimeoutMs   int
	KakaoSendDelayMs int
	KakaoRateRPS     int

	RenderBaseURL   string
	RenderTimeoutMs int

	RetryAttempts int
	RetryBaseMs   int

	DispatchMaxRunMs int
	DispatchPageRows int

	SyncChunkRowsBig   int
	SyncChunkRowsSmall int
	SyncCellCeiling    int

	ExclusionWindowDays int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		StatePath:  getEnv("STATE_DB_PATH", filepath.Join(cwd, "data", "state.db")),
		BrandsPath: getEnv("BRANDS_PATH", filepath.Join(cwd, "brands.yaml")),
		Timezone:   getEnv("TIMEZONE", "Asia/Seoul"),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  getEnv("GOOGLE_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GoogleRefreshToken: getEnv("GOOGLE_REFRESH_TOKEN", ""),

		SlackBotToken:   getEnv("SLACK_BOT_TOKEN", ""),
		SlackChannelID:  getEnv("SLACK_CHANNEL_ID", ""),
		SlackWebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),

		KakaoBaseURL:     getEnv("KAKAO_BASE_URL", ""),
		KakaoToken:       getEnv("KAKAO_TOKEN", ""),
		KakaoAdminChatID: getEnv("KAKAO_ADMIN_CHAT_ID", ""),
		KakaoTimeoutMs:   getEnvInt("KAKAO_TIMEOUT_MS", 30000),
		KakaoSendDelayMs: getEnvInt("KAKAO_SEND_DELAY_MS", 3000),
		KakaoRateRPS:     getEnvInt("KAKAO_RATE_LIMIT_RPS", 1),

		RenderBaseURL:   getEnv("RENDER_BASE_URL", ""),
		RenderTimeoutMs: getEnvInt("RENDER_TIMEOUT_MS", 30000),

		RetryAttempts: getEnvInt("RETRY_ATTEMPTS", 5),
		RetryBaseMs:   getEnvInt("RETRY_BASE_MS", 400),

		DispatchMaxRunMs: getEnvInt("DISPATCH_MAX_RUN_MS", int(5*time.Minute/time.Millisecond)),
		DispatchPageRows: getEnvInt("DISPATCH_PAGE_ROWS", 20),

		SyncChunkRowsBig:   getEnvInt("SYNC_CHUNK_ROWS_BIG", 1000),
		SyncChunkRowsSmall: getEnvInt("SYNC_CHUNK_ROWS_SMALL", 500),
		SyncCellCeiling:    getEnvInt("SYNC_CELL_CEILING", 200000),

		ExclusionWindowDays: getEnvInt("EXCLUSION_WINDOW_DAYS", 60),
	}

	return cfg, nil
}

func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
