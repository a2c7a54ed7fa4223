package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	APIToken     string
	StocksAPIURL string
	PricesAPIURL string
	TimeoutMs    int
	RateLimitRPS int
	MaxAttempts  int
	BatchSize    int
	RetryBackoff int // ms, multiplied by attempt number
	BatchPauseMs int
	FailurePause int // ms, pause after a failed batch
	ZeroPauseSec int // pause between zeroing and the update step of a full run

	BaseDir     string
	DownloadDir string
	TargetDir   string

	Brands          []string
	PriceMultiplier float64

	ExcludedWarehouseID int64
	TargetWarehouseID   int64 // 0 means every listed warehouse

	MappingFile        string
	MappingFilePattern string

	MailProvider       string
	MailScanMax        int
	EmailFrom          string
	AttachmentFilename string

	IMAPServer   string
	IMAPPort     int
	IMAPLogin    string
	IMAPPassword string

	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURI  string
	GmailRefreshToken string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	token := getEnv("WB_API_TOKEN", "")
	if token == "" {
		// legacy variable name, kept for older .env files
		token = getEnv("WB_KEY", "")
	}

	cfg := Config{
		APIToken:     token,
		StocksAPIURL: getEnv("WB_STOCKS_API_URL", "https://marketplace-api.wildberries.ru/api/v3"),
		PricesAPIURL: getEnv("WB_PRICES_API_URL", "https://discounts-prices-api.wildberries.ru/api/v2"),
		TimeoutMs:    getEnvInt("WB_TIMEOUT_MS", 30000),
		RateLimitRPS: getEnvInt("WB_RATE_LIMIT_RPS", 3),
		MaxAttempts:  getEnvInt("WB_MAX_ATTEMPTS", 3),
		BatchSize:    getEnvInt("WB_BATCH_SIZE", 100),
		RetryBackoff: getEnvInt("WB_RETRY_BACKOFF_MS", 2000),
		BatchPauseMs: getEnvInt("WB_BATCH_PAUSE_MS", 500),
		FailurePause: getEnvInt("WB_FAILURE_PAUSE_MS", 3000),
		ZeroPauseSec: getEnvInt("ZERO_PAUSE_SEC", 30),

		BaseDir:     getEnv("BASE_DIR", filepath.Join(cwd, "data")),
		DownloadDir: getEnv("DOWNLOAD_DIR", filepath.Join(cwd, "data", "tmp")),
		TargetDir:   getEnv("TARGET_DIR", filepath.Join(cwd, "data", "price")),

		Brands:          splitList(getEnv("BRANDS", "BOSCH,TRIALLI,MANN")),
		PriceMultiplier: getEnvFloat("PRICE_MULTIPLIER", 1.5),

		ExcludedWarehouseID: getEnvInt64("EXCLUDED_WAREHOUSE_ID", 0),
		TargetWarehouseID:   getEnvInt64("TARGET_WAREHOUSE_ID", 0),

		MappingFile:        getEnv("MAPPING_FILE", ""),
		MappingFilePattern: getEnv("MAPPING_FILE_PATTERN", "Баркоды"),

		MailProvider:       getEnv("MAIL_PROVIDER", "imap"),
		MailScanMax:        getEnvInt("MAIL_SCAN_MAX", 50),
		EmailFrom:          getEnv("EMAIL_FROM", ""),
		AttachmentFilename: getEnv("ATTACHMENT_FILENAME", ""),

		IMAPServer:   getEnv("IMAP_SERVER", "imap.mail.ru"),
		IMAPPort:     getEnvInt("IMAP_PORT", 993),
		IMAPLogin:    getEnv("IMAP_LOGIN", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRedirectURI:  getEnv("GMAIL_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

// RequireToken is the pre-flight credential check. It must pass before any
// network call is attempted.
func (c Config) RequireToken() error {
	if strings.TrimSpace(c.APIToken) == "" {
		return fmt.Errorf("missing required env var: WB_API_TOKEN")
	}
	return nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
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

func getEnvInt64(key string, fallback int64) int64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
