package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"smartsheet2jira/config"
	"smartsheet2jira/models"
	"smartsheet2jira/utils"
)

// JiraClient はJIRA APIとのやり取りを処理します
type JiraClient struct {
	config *config.Config
	client *http.Client
	token  string
}

// jiraVersion は /rest/api/2/project/{key}/versions のレスポンス要素です
type jiraVersion struct {
	Self        string `json:"self"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"releaseDate"`
	Released    bool   `json:"released"`
	Archived    bool   `json:"archived"`
}

// NewJiraClient は新しいJIRAクライアントを作成します
func NewJiraClient(cfg *config.Config, token string) *JiraClient {
	return &JiraClient{
		config: cfg,
		client: &http.Client{},
		token:  token,
	}
}

// 認証ヘッダーを設定する (JIRA_EMAIL がある場合はBasic認証、ない場合はPATによるBearer認証)
func (j *JiraClient) authorize(req *http.Request) {
	if j.config.JiraEmail != "" {
		req.SetBasicAuth(j.config.JiraEmail, j.token)
		return
	}
	req.Header.Set("Authorization", "Bearer "+j.token)
}

// CheckAuth はJIRA認証をチェックします
func (j *JiraClient) CheckAuth(ctx context.Context) error {
	url := fmt.Sprintf("%s/rest/api/2/myself", j.config.JiraURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("リクエスト作成エラー: %w", err)
	}

	j.authorize(req)

	resp, err := j.client.Do(req)
	if err != nil {
		return fmt.Errorf("リクエスト送信エラー: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("認証失敗 (%d): %s", resp.StatusCode, string(body))
	}

	return nil
}

// GetProjectVersions はプロジェクトのFix Version一覧を取得します
func (j *JiraClient) GetProjectVersions(ctx context.Context, projectKey string) ([]models.RemoteVersion, error) {
	endpoint := fmt.Sprintf("%s/rest/api/2/project/%s/versions", j.config.JiraURL, url.PathEscape(projectKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成エラー: %w", err)
	}

	j.authorize(req)
	req.Header.Set("Accept", "application/json")

	resp, err := j.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("リクエスト送信エラー: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("バージョン一覧取得失敗 (%d): %s", resp.StatusCode, string(body))
	}

	var result []jiraVersion
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("レスポンス解析エラー: %w", err)
	}

	versions := make([]models.RemoteVersion, 0, len(result))
	for _, v := range result {
		version := models.RemoteVersion{
			ID:       v.ID,
			Self:     v.Self,
			Name:     v.Name,
			Released: v.Released,
			Archived: v.Archived,
		}
		if v.ReleaseDate != "" {
			releaseDate, err := utils.ParseDate(v.ReleaseDate)
			if err != nil {
				return nil, fmt.Errorf("バージョン %s のリリース日解析エラー: %w", v.Name, err)
			}
			version.ReleaseDate = &releaseDate
		}
		versions = append(versions, version)
	}

	return versions, nil
}

// UpdateVersion はFix Versionのリリース日とリリース済みフラグを1回のリクエストで更新します
func (j *JiraClient) UpdateVersion(ctx context.Context, version models.RemoteVersion, update models.VersionUpdate) error {
	endpoint := version.Self
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/rest/api/2/version/%s", j.config.JiraURL, url.PathEscape(version.ID))
	}

	// 変更があるフィールドのみ送る
	payload := map[string]interface{}{}
	if update.ReleaseDate != nil {
		payload["releaseDate"] = update.ReleaseDate.Format(utils.DateLayout)
	}
	if update.Released != nil {
		payload["released"] = *update.Released
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("JSONエンコードエラー: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return fmt.Errorf("リクエスト作成エラー: %w", err)
	}

	j.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := j.client.Do(req)
	if err != nil {
		return fmt.Errorf("リクエスト送信エラー: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("バージョン更新失敗 (%d): %s", resp.StatusCode, string(body))
	}

	return nil
}
