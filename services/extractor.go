package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"smartsheet2jira/models"
	"smartsheet2jira/utils"
)

// 同期に必要な列のタイトル
const (
	ColumnTaskName = "Task Name"
	ColumnFinish   = "Finish"
	ColumnDone     = "Done checkbox"
)

var (
	// ErrMissingColumn はシートに必須の列がない場合のエラーです
	ErrMissingColumn = errors.New("missing required column")
	// ErrInvalidDate は Finish 列の値を日付として解析できない場合のエラーです
	ErrInvalidDate = errors.New("invalid finish date")
)

// ColumnIndex はシートごとの列タイトル → 列インデックスの対応です
type ColumnIndex struct {
	taskName int
	finish   int
	done     int
}

// NewColumnIndex はシートの列定義から必須列の位置を求めます
func NewColumnIndex(sheet *models.Sheet) (ColumnIndex, error) {
	byTitle := make(map[string]int, len(sheet.Columns))
	for _, column := range sheet.Columns {
		byTitle[column.Title] = column.Index
	}

	lookup := func(title string) (int, error) {
		idx, ok := byTitle[title]
		if !ok {
			return 0, fmt.Errorf("%w: シート %s に列 '%s' がありません", ErrMissingColumn, sheet.Name, title)
		}
		return idx, nil
	}

	var (
		index ColumnIndex
		err   error
	)
	if index.taskName, err = lookup(ColumnTaskName); err != nil {
		return ColumnIndex{}, err
	}
	if index.finish, err = lookup(ColumnFinish); err != nil {
		return ColumnIndex{}, err
	}
	if index.done, err = lookup(ColumnDone); err != nil {
		return ColumnIndex{}, err
	}

	return index, nil
}

// Extract は1行からタスク名・完了予定日・完了フラグを取り出します。
// 日付が解析できない場合もタスク名と完了フラグは返します。
func (c ColumnIndex) Extract(row models.Row) (models.SheetRow, error) {
	result := models.SheetRow{
		TaskName: cellString(cellAt(row, c.taskName)),
		Done:     cellBool(cellAt(row, c.done)),
	}

	if finish := strings.TrimSpace(cellString(cellAt(row, c.finish))); finish != "" {
		date, err := utils.ParseDate(finish)
		if err != nil {
			return result, fmt.Errorf("%w: タスク '%s': %v", ErrInvalidDate, result.TaskName, err)
		}
		result.Finish = &date
	}

	return result, nil
}

// 範囲外のセルは値なしとして扱う
func cellAt(row models.Row, idx int) interface{} {
	if idx < 0 || idx >= len(row.Cells) {
		return nil
	}
	return row.Cells[idx]
}

func cellString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func cellBool(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return false
	}
}
