package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"smartsheet2jira/config"
	"smartsheet2jira/models"
)

// シート一覧取得時の1ページあたりの件数
const sheetPageSize = 100

// SmartsheetClient はSmartsheet APIとのやり取りを処理します
type SmartsheetClient struct {
	config *config.Config
	client *http.Client
	token  string
}

type smartsheetPage struct {
	PageNumber int `json:"pageNumber"`
	TotalPages int `json:"totalPages"`
	Data       []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"data"`
}

type smartsheetSheet struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Columns []struct {
		ID    int64  `json:"id"`
		Index int    `json:"index"`
		Title string `json:"title"`
	} `json:"columns"`
	Rows []struct {
		ID    int64 `json:"id"`
		Cells []struct {
			ColumnID int64       `json:"columnId"`
			Value    interface{} `json:"value"`
		} `json:"cells"`
	} `json:"rows"`
}

// NewSmartsheetClient は新しいSmartsheetクライアントを作成します
func NewSmartsheetClient(cfg *config.Config, token string) *SmartsheetClient {
	return &SmartsheetClient{
		config: cfg,
		client: &http.Client{},
		token:  token,
	}
}

// GETリクエストを送信し、JSONレスポンスを out にデコードする
func (s *SmartsheetClient) get(ctx context.Context, path string, out interface{}) error {
	url := s.config.SmartsheetURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("リクエスト作成エラー: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("リクエスト送信エラー: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s 取得失敗 (%d): %s", path, resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("レスポンス解析エラー: %w", err)
	}
	return nil
}

// CheckAuth はSmartsheet認証をチェックします
func (s *SmartsheetClient) CheckAuth(ctx context.Context) error {
	if err := s.get(ctx, "/users/me", nil); err != nil {
		return fmt.Errorf("認証失敗: %w", err)
	}
	return nil
}

// ListSheets はアクセス可能なシートの一覧を全ページ分取得します
func (s *SmartsheetClient) ListSheets(ctx context.Context) ([]models.SheetSummary, error) {
	var sheets []models.SheetSummary

	for page := 1; ; page++ {
		var result smartsheetPage
		path := fmt.Sprintf("/sheets?page=%d&pageSize=%d", page, sheetPageSize)
		if err := s.get(ctx, path, &result); err != nil {
			return nil, fmt.Errorf("シート一覧取得エラー: %w", err)
		}

		for _, d := range result.Data {
			sheets = append(sheets, models.SheetSummary{ID: d.ID, Name: d.Name})
		}

		if page >= result.TotalPages || len(result.Data) == 0 {
			break
		}
	}

	return sheets, nil
}

// GetSheet はシートの列と全行を取得します。各行のセルは列インデックスの位置に並べます
func (s *SmartsheetClient) GetSheet(ctx context.Context, id int64) (*models.Sheet, error) {
	var result smartsheetSheet
	if err := s.get(ctx, fmt.Sprintf("/sheets/%d", id), &result); err != nil {
		return nil, fmt.Errorf("シート取得エラー: %w", err)
	}

	sheet := &models.Sheet{
		ID:      result.ID,
		Name:    result.Name,
		Columns: make([]models.Column, 0, len(result.Columns)),
		Rows:    make([]models.Row, 0, len(result.Rows)),
	}

	width := 0
	columnIndex := make(map[int64]int, len(result.Columns))
	for _, c := range result.Columns {
		sheet.Columns = append(sheet.Columns, models.Column{ID: c.ID, Title: c.Title, Index: c.Index})
		columnIndex[c.ID] = c.Index
		if c.Index+1 > width {
			width = c.Index + 1
		}
	}

	for _, r := range result.Rows {
		cells := make([]interface{}, width)
		for i, cell := range r.Cells {
			idx, ok := columnIndex[cell.ColumnID]
			if !ok {
				// columnId がない場合は並び順で配置
				idx = i
			}
			if idx >= 0 && idx < width {
				cells[idx] = cell.Value
			}
		}
		sheet.Rows = append(sheet.Rows, models.Row{ID: r.ID, Cells: cells})
	}

	return sheet, nil
}
