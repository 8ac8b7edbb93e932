package main

import (
	"os"

	"github.com/spf13/cobra"

	"smartsheet2jira/api"
	"smartsheet2jira/config"
	"smartsheet2jira/utils"
)

func main() {
	cmd := &cobra.Command{
		Use:   "auth_check",
		Short: "Smartsheet と JIRA の認証情報を確認します",
		Long: `このツールは Smartsheet API と JIRA API の認証情報が正しく設定されているかを確認します。
認証が成功すれば、同期ツールも正常に動作する可能性が高いです。`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			utils.LogInfo("認証確認ツール")

			// 設定の読み込み
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			provider := config.NewFileProvider(cfg.RulesFile, cfg.SecretsFile)

			sheetToken, err := provider.Secret(config.SecretSmartsheetToken)
			if err != nil {
				return err
			}
			utils.LogInfo("Smartsheet APIの認証を確認しています...")
			if err := api.NewSmartsheetClient(cfg, sheetToken).CheckAuth(cmd.Context()); err != nil {
				return err
			}
			utils.LogInfo("Smartsheet認証成功！ 接続先: %s", cfg.SmartsheetURL)

			jiraToken, err := provider.Secret(config.SecretJiraToken)
			if err != nil {
				return err
			}
			utils.LogInfo("JIRA APIの認証を確認しています...")
			if err := api.NewJiraClient(cfg, jiraToken).CheckAuth(cmd.Context()); err != nil {
				return err
			}
			utils.LogInfo("JIRA認証成功！ 接続先: %s", cfg.JiraURL)
			return nil
		},
	}

	if err := cmd.Execute(); err != nil {
		utils.LogError("認証エラー: %v", err)
		utils.LogError("認証情報を確認してください。")
		os.Exit(1)
	}
}
