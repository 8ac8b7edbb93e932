package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestRulesLoadsInOrder(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "rules.yaml", `
- sheetName: "R1"
  taskPattern: "CP GA EAP 8\\.0\\.(\\d[\\.\\d]*).*"
  fixVersionFormat: "8.0 Update %s"
- sheetName: "R2"
  taskPattern: "XP (\\d+)"
  fixVersionFormat: "XP %s"
`)

	rules, err := NewFileProvider(path, "").Rules()
	if err != nil {
		t.Fatalf("Rules() error = %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if rules[0].SheetName != "R1" || rules[1].SheetName != "R2" {
		t.Fatalf("unexpected rule order %+v", rules)
	}
	if rules[0].TaskPattern != `CP GA EAP 8\.0\.(\d[\.\d]*).*` {
		t.Fatalf("unexpected pattern %q", rules[0].TaskPattern)
	}
	if rules[0].FixVersionFormat != "8.0 Update %s" {
		t.Fatalf("unexpected format %q", rules[0].FixVersionFormat)
	}
}

func TestRulesRejectsMalformedConfiguration(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"empty list":    "[]",
		"not a list":    "sheetName: R1\n",
		"unknown field": "- sheetName: R1\n  taskPattern: x\n  fixVersionFormat: y\n  typo: z\n",
		"missing sheet": "- taskPattern: x\n  fixVersionFormat: y\n",
		"missing fmt":   "- sheetName: R1\n  taskPattern: x\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseRules([]byte(content)); !errors.Is(err, ErrInvalidRules) {
				t.Fatalf("expected ErrInvalidRules, got %v", err)
			}
		})
	}
}

func TestRulesMissingFile(t *testing.T) {
	_, err := NewFileProvider(filepath.Join(t.TempDir(), "missing.yaml"), "").Rules()
	if !errors.Is(err, ErrInvalidRules) {
		t.Fatalf("expected ErrInvalidRules, got %v", err)
	}
}

func TestSecretFromFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "secrets.yaml", "smartsheetAccessToken: sheet-token\njiraAccessToken: jira-token\n")
	t.Setenv("JIRA_ACCESS_TOKEN", "env-token")

	p := NewFileProvider("", path)
	got, err := p.Secret(SecretJiraToken)
	if err != nil {
		t.Fatalf("Secret() error = %v", err)
	}
	if got != "jira-token" {
		t.Fatalf("expected file value to win, got %q", got)
	}
}

func TestSecretFallsBackToEnvironment(t *testing.T) {
	t.Setenv("SMARTSHEET_ACCESS_TOKEN", "env-token")

	p := NewFileProvider("", filepath.Join(t.TempDir(), "missing.yaml"))
	got, err := p.Secret(SecretSmartsheetToken)
	if err != nil {
		t.Fatalf("Secret() error = %v", err)
	}
	if got != "env-token" {
		t.Fatalf("unexpected secret %q", got)
	}
}

func TestSecretMissing(t *testing.T) {
	t.Setenv("JIRA_ACCESS_TOKEN", "")

	dir := t.TempDir()
	path := writeFile(t, dir, "secrets.yaml", "smartsheetAccessToken: sheet-token\n")
	_, err := NewFileProvider("", path).Secret(SecretJiraToken)
	if !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
}

func TestSecretMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "secrets.yaml", "- not\n- a map\n")
	if _, err := NewFileProvider("", path).Secret(SecretJiraToken); err == nil {
		t.Fatal("expected error for malformed secrets file")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JIRA_URL", "https://jira.example.com/")
	t.Setenv("JIRA_PROJECT_KEY", "")
	t.Setenv("DRY_RUN", "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.JiraURL != "https://jira.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.JiraURL)
	}
	if cfg.JiraProjectKey != "JBEAP" {
		t.Fatalf("unexpected default project %q", cfg.JiraProjectKey)
	}
	if !cfg.DryRun {
		t.Fatal("expected dry run from environment")
	}
}
