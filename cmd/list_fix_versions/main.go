package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"smartsheet2jira/api"
	"smartsheet2jira/config"
	"smartsheet2jira/models"
	"smartsheet2jira/utils"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		utils.LogError("Fix Version一覧の取得に失敗しました: %v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var project, secrets string

	cmd := &cobra.Command{
		Use:           "list_fix_versions",
		Short:         "JIRAプロジェクトのFix Versionとリリース日を一覧表示します",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if project != "" {
				cfg.JiraProjectKey = project
			}
			if secrets != "" {
				cfg.SecretsFile = secrets
			}

			token, err := config.NewFileProvider(cfg.RulesFile, cfg.SecretsFile).Secret(config.SecretJiraToken)
			if err != nil {
				return err
			}

			versions, err := api.NewJiraClient(cfg, token).GetProjectVersions(cmd.Context(), cfg.JiraProjectKey)
			if err != nil {
				return err
			}
			printVersions(cmd.OutOrStdout(), versions)
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "JIRAプロジェクトキー")
	cmd.Flags().StringVar(&secrets, "secrets", "", "シークレットのYAMLファイル")
	return cmd
}

func printVersions(w io.Writer, versions []models.RemoteVersion) {
	for _, v := range versions {
		fmt.Fprintf(w, "%s - %s - %t\n", v.Name, utils.FormatDate(v.ReleaseDate), v.Released)
	}
}
