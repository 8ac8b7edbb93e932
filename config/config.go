package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持します
type Config struct {
	// JIRA API設定
	JiraURL        string
	JiraEmail      string // 設定された場合はBasic認証、空の場合はBearer認証
	JiraProjectKey string

	// Smartsheet API設定
	SmartsheetURL string

	// ファイルパス
	RulesFile   string
	SecretsFile string
	ReportCSV   string
	MetricsFile string

	// 実行設定
	LogLevel string
	DryRun   bool
}

// LoadConfig は環境変数から設定を読み込みます
func LoadConfig() (*Config, error) {
	// .envファイルを読み込む
	_ = godotenv.Load()

	config := &Config{
		JiraURL:        strings.TrimRight(getEnvWithDefault("JIRA_URL", "https://issues.redhat.com"), "/"),
		JiraEmail:      os.Getenv("JIRA_EMAIL"),
		JiraProjectKey: getEnvWithDefault("JIRA_PROJECT_KEY", "JBEAP"),
		SmartsheetURL:  strings.TrimRight(getEnvWithDefault("SMARTSHEET_URL", "https://api.smartsheet.com/2.0"), "/"),
		RulesFile:      getEnvWithDefault("RULES_FILE", "default-transformers.yaml"),
		SecretsFile:    getEnvWithDefault("SECRETS_FILE", "secrets.yaml"),
		ReportCSV:      os.Getenv("REPORT_CSV"),
		MetricsFile:    os.Getenv("METRICS_FILE"),
		LogLevel:       getEnvWithDefault("LOG_LEVEL", "info"),
		DryRun:         getEnvAsBoolWithDefault("DRY_RUN", false),
	}

	return config, nil
}

// デフォルト値付きで環境変数を取得
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// デフォルト値付きで環境変数を真偽値として取得
func getEnvAsBoolWithDefault(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
