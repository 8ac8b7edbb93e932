package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"smartsheet2jira/models"
)

// シークレット名
const (
	SecretSmartsheetToken = "smartsheetAccessToken"
	SecretJiraToken       = "jiraAccessToken"
)

var (
	// ErrInvalidRules はルール一覧が読めない、または不正な場合のエラーです
	ErrInvalidRules = errors.New("invalid transform rules")
	// ErrMissingSecret は必須のシークレットが見つからない場合のエラーです
	ErrMissingSecret = errors.New("missing secret")
)

// secretEnvKeys はシークレット名に対応する環境変数名です
var secretEnvKeys = map[string]string{
	SecretSmartsheetToken: "SMARTSHEET_ACCESS_TOKEN",
	SecretJiraToken:       "JIRA_ACCESS_TOKEN",
}

// Provider は変換ルールとシークレットの取得元です
type Provider interface {
	Rules() ([]models.TransformRule, error)
	Secret(name string) (string, error)
}

// FileProvider はYAMLファイルからルールとシークレットを読み込みます
type FileProvider struct {
	rulesPath   string
	secretsPath string

	once    sync.Once
	secrets map[string]string
	loadErr error
}

// NewFileProvider は新しいファイルプロバイダーを作成します
func NewFileProvider(rulesPath, secretsPath string) *FileProvider {
	return &FileProvider{
		rulesPath:   rulesPath,
		secretsPath: secretsPath,
	}
}

// Rules はルールファイルを読み込み、検証します
func (p *FileProvider) Rules() ([]models.TransformRule, error) {
	data, err := os.ReadFile(p.rulesPath)
	if err != nil {
		return nil, fmt.Errorf("%w: ルールファイル読み込みエラー %s: %v", ErrInvalidRules, p.rulesPath, err)
	}
	return ParseRules(data)
}

// ParseRules はYAMLのルール一覧を解析します
func ParseRules(data []byte) ([]models.TransformRule, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var rules []models.TransformRule
	if err := dec.Decode(&rules); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: ルールが定義されていません", ErrInvalidRules)
		}
		return nil, fmt.Errorf("%w: YAML解析エラー: %v", ErrInvalidRules, err)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: ルールが定義されていません", ErrInvalidRules)
	}

	for i, rule := range rules {
		switch {
		case strings.TrimSpace(rule.SheetName) == "":
			return nil, fmt.Errorf("%w: ルール %d: sheetName が空です", ErrInvalidRules, i+1)
		case rule.TaskPattern == "":
			return nil, fmt.Errorf("%w: ルール %d: taskPattern が空です", ErrInvalidRules, i+1)
		case rule.FixVersionFormat == "":
			return nil, fmt.Errorf("%w: ルール %d: fixVersionFormat が空です", ErrInvalidRules, i+1)
		}
	}

	return rules, nil
}

// Secret はシークレットを返します。ファイルにない場合は環境変数を参照します
func (p *FileProvider) Secret(name string) (string, error) {
	p.once.Do(p.loadSecrets)
	if p.loadErr != nil {
		return "", p.loadErr
	}

	if value := strings.TrimSpace(p.secrets[name]); value != "" {
		return value, nil
	}
	if envKey, ok := secretEnvKeys[name]; ok {
		if value := strings.TrimSpace(os.Getenv(envKey)); value != "" {
			return value, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrMissingSecret, name)
}

// シークレットファイルを読み込む (ファイルがない場合は環境変数のみを使う)
func (p *FileProvider) loadSecrets() {
	p.secrets = make(map[string]string)
	if p.secretsPath == "" {
		return
	}

	data, err := os.ReadFile(p.secretsPath)
	if err != nil {
		if !os.IsNotExist(err) {
			p.loadErr = fmt.Errorf("シークレットファイル読み込みエラー %s: %w", p.secretsPath, err)
		}
		return
	}

	if err := yaml.Unmarshal(data, &p.secrets); err != nil {
		p.loadErr = fmt.Errorf("シークレットファイル解析エラー %s: %w", p.secretsPath, err)
	}
}
