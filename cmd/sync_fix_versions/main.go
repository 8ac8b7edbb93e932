package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"smartsheet2jira/api"
	"smartsheet2jira/config"
	"smartsheet2jira/services"
	"smartsheet2jira/utils"
)

var version = "dev"

// flags はコマンドラインで上書きできる設定です (空の場合は環境変数の値を使う)
type flags struct {
	project     string
	rules       string
	secrets     string
	report      string
	metricsFile string
	logLevel    string
	dryRun      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		utils.LogError("同期処理に失敗しました: %v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "sync_fix_versions",
		Short: "Smartsheet → JIRA Fix Version 同期ツール",
		Long: `Smartsheet のシートの行から Fix Version 名を求め、
完了予定日 (Finish) と完了フラグ (Done checkbox) を JIRA の
リリース日とリリース済みフラグに反映します。

環境変数:
  JIRA_URL                 JIRA URL (デフォルト: https://issues.redhat.com)
  JIRA_PROJECT_KEY         JIRAプロジェクトキー (デフォルト: JBEAP)
  JIRA_EMAIL               設定した場合はBasic認証を使用
  SMARTSHEET_URL           Smartsheet API URL (デフォルト: https://api.smartsheet.com/2.0)
  RULES_FILE               変換ルールのYAML (デフォルト: default-transformers.yaml)
  SECRETS_FILE             シークレットのYAML (デフォルト: secrets.yaml)
  SMARTSHEET_ACCESS_TOKEN  シークレットファイルにない場合のSmartsheetトークン
  JIRA_ACCESS_TOKEN        シークレットファイルにない場合のJIRAトークン
  REPORT_CSV               結果レポートCSVの出力先
  METRICS_FILE             Prometheus textfile の出力先
  LOG_LEVEL                ログレベル (デフォルト: info)
  DRY_RUN                  true の場合はJIRAを更新しない`,
		Args:          cobra.NoArgs,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&f.project, "project", "p", "", "JIRAプロジェクトキー")
	cmd.Flags().StringVar(&f.rules, "rules", "", "変換ルールのYAMLファイル")
	cmd.Flags().StringVar(&f.secrets, "secrets", "", "シークレットのYAMLファイル")
	cmd.Flags().StringVar(&f.report, "report", "", "結果レポートCSVの出力先")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "Prometheus textfile の出力先")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "ログレベル (debug, info, warn, error)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "JIRAを更新せずに差分のみ表示する")

	return cmd
}

// apply はコマンドラインで指定された値で設定を上書きします
func (f flags) apply(cmd *cobra.Command, cfg *config.Config) {
	if f.project != "" {
		cfg.JiraProjectKey = f.project
	}
	if f.rules != "" {
		cfg.RulesFile = f.rules
	}
	if f.secrets != "" {
		cfg.SecretsFile = f.secrets
	}
	if f.report != "" {
		cfg.ReportCSV = f.report
	}
	if f.metricsFile != "" {
		cfg.MetricsFile = f.metricsFile
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun = f.dryRun
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := utils.SetLevel(cfg.LogLevel); err != nil {
		return err
	}

	utils.LogInfo("Smartsheet → JIRA Fix Version 同期ツール (%s)", version)

	// シークレットの読み込み (どちらかが欠けている場合は更新前に終了)
	provider := config.NewFileProvider(cfg.RulesFile, cfg.SecretsFile)
	sheetToken, err := provider.Secret(config.SecretSmartsheetToken)
	if err != nil {
		return err
	}
	jiraToken, err := provider.Secret(config.SecretJiraToken)
	if err != nil {
		return err
	}

	smartsheetClient := api.NewSmartsheetClient(cfg, sheetToken)
	jiraClient := api.NewJiraClient(cfg, jiraToken)
	metrics := services.NewRunMetrics()

	syncService := services.NewSyncService(provider, smartsheetClient, jiraClient, services.SyncOptions{
		ProjectKey: cfg.JiraProjectKey,
		DryRun:     cfg.DryRun,
		Metrics:    metrics,
	})

	summary, runErr := syncService.Run(ctx)

	if cfg.ReportCSV != "" && summary != nil {
		if err := services.WriteReport(cfg.ReportCSV, summary.RunID, summary.Outcomes); err != nil {
			utils.LogError("レポート書き込みに失敗しました: %v", err)
		}
	}
	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			utils.LogError("メトリクス書き込みに失敗しました: %v", err)
		}
	}

	return runErr
}
