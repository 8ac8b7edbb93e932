package services

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"smartsheet2jira/models"
	"smartsheet2jira/utils"
)

// reportHeaders はレポートCSVの列と順序です
var reportHeaders = []string{
	"Run ID", "Sheet", "Task Name", "Fix Version", "Outcome",
	"Finish", "Done", "JIRA Release Date", "JIRA Released",
	"New Release Date", "New Released", "Dry Run", "Error",
}

// WriteReport は実行結果を1行1件のCSVとして保存します
func WriteReport(path, runID string, outcomes []models.Outcome) error {
	utils.LogInfo("レポートCSV '%s' を作成します", path)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("CSVファイル作成エラー: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(reportHeaders); err != nil {
		return fmt.Errorf("ヘッダー書き込みエラー: %w", err)
	}

	for _, outcome := range outcomes {
		if err := writer.Write(reportRow(runID, outcome)); err != nil {
			return fmt.Errorf("行書き込みエラー: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("CSV書き込み完了エラー: %w", err)
	}

	utils.LogInfo("CSV書き込み完了: %d 行", len(outcomes))
	return nil
}

func reportRow(runID string, o models.Outcome) []string {
	row := []string{
		runID, o.SheetName, o.TaskName, o.VersionKey, string(o.Kind),
		utils.FormatDate(o.Finish), strconv.FormatBool(o.Done), "", "",
		"", "", strconv.FormatBool(o.DryRun), "",
	}
	if o.Previous != nil {
		row[7] = utils.FormatDate(o.Previous.ReleaseDate)
		row[8] = strconv.FormatBool(o.Previous.Released)
	}
	if o.Update.ReleaseDate != nil {
		row[9] = utils.FormatDate(o.Update.ReleaseDate)
	}
	if o.Update.Released != nil {
		row[10] = strconv.FormatBool(*o.Update.Released)
	}
	if o.Err != nil {
		row[12] = o.Err.Error()
	}
	return row
}
