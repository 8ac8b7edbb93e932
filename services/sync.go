package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"smartsheet2jira/models"
	"smartsheet2jira/utils"
)

// RuleSource は変換ルールの取得元です
type RuleSource interface {
	Rules() ([]models.TransformRule, error)
}

// SheetSource はシートサービス側の操作です
type SheetSource interface {
	ListSheets(ctx context.Context) ([]models.SheetSummary, error)
	GetSheet(ctx context.Context, id int64) (*models.Sheet, error)
}

// VersionTracker はトラッカー側の操作です
type VersionTracker interface {
	VersionUpdater
	GetProjectVersions(ctx context.Context, projectKey string) ([]models.RemoteVersion, error)
}

// RunState は同期処理の状態です
type RunState string

const (
	StateInit               RunState = "init"
	StateRulesLoaded        RunState = "rules_loaded"
	StateDirectoriesFetched RunState = "directories_fetched"
	StateSheetResolved      RunState = "sheet_resolved"
	StateRowsProcessed      RunState = "rows_processed"
	StateDone               RunState = "done"
)

// SyncOptions は同期処理の設定です
type SyncOptions struct {
	ProjectKey string
	DryRun     bool
	Metrics    *RunMetrics // nil の場合は実行ごとに新規作成
}

// RunSummary は1回の実行結果です
type RunSummary struct {
	RunID         string
	Outcomes      []models.Outcome
	SkippedRules  []string // シートが見つからなかったルールのシート名
	AbortedSheets []string // 日付エラーなどで途中終了したシート名
	NoMatch       int
	Duplicates    int
}

// Count は指定した種類の結果の件数を返します
func (s *RunSummary) Count(kind models.OutcomeKind) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Kind == kind {
			n++
		}
	}
	return n
}

// SyncService はSmartsheetからJIRAへのFix Version同期を処理します
type SyncService struct {
	rules   RuleSource
	sheets  SheetSource
	tracker VersionTracker
	opts    SyncOptions
	state   RunState
}

// NewSyncService は新しい同期サービスを作成します
func NewSyncService(rules RuleSource, sheets SheetSource, tracker VersionTracker, opts SyncOptions) *SyncService {
	if opts.Metrics == nil {
		opts.Metrics = NewRunMetrics()
	}
	return &SyncService{
		rules:   rules,
		sheets:  sheets,
		tracker: tracker,
		opts:    opts,
		state:   StateInit,
	}
}

// State は現在の状態を返します
func (s *SyncService) State() RunState {
	return s.state
}

// Metrics は実行のメトリクスを返します
func (s *SyncService) Metrics() *RunMetrics {
	return s.opts.Metrics
}

func (s *SyncService) transition(to RunState) {
	utils.Logger().Debug("state transition", "from", s.state, "to", to)
	s.state = to
}

// Run は同期処理全体を実行します。
// 設定・認証・必須列のエラーは error として返し、それ以外の失敗はログに記録して処理を続けます。
func (s *SyncService) Run(ctx context.Context) (*RunSummary, error) {
	startTime := time.Now()
	defer utils.TrackTime(startTime, "同期処理全体")

	summary := &RunSummary{RunID: uuid.NewString()}
	utils.LogInfo("同期処理を開始します (run=%s, project=%s, dry-run=%t)", summary.RunID, s.opts.ProjectKey, s.opts.DryRun)

	// ルールの読み込みとコンパイル
	rules, err := s.rules.Rules()
	if err != nil {
		return summary, fmt.Errorf("ルール読み込みエラー: %w", err)
	}
	compiled, err := CompileRules(rules)
	if err != nil {
		return summary, fmt.Errorf("ルールコンパイルエラー: %w", err)
	}
	s.transition(StateRulesLoaded)
	utils.LogInfo("ルールを読み込みました: %d 件", len(compiled))

	// シート一覧とFix Version一覧は1回だけ取得する
	sheetList, err := s.sheets.ListSheets(ctx)
	if err != nil {
		return summary, fmt.Errorf("シート一覧取得エラー: %w", err)
	}
	sheetDir := make(map[string]int64, len(sheetList))
	for _, sheet := range sheetList {
		if _, dup := sheetDir[sheet.Name]; dup {
			utils.LogWarn("同名のシートが複数あります: %s (後のシートを使用)", sheet.Name)
		}
		sheetDir[sheet.Name] = sheet.ID
	}

	versionList, err := s.tracker.GetProjectVersions(ctx, s.opts.ProjectKey)
	if err != nil {
		return summary, fmt.Errorf("Fix Version一覧取得エラー: %w", err)
	}
	versions := make(map[string]models.RemoteVersion, len(versionList))
	for _, v := range versionList {
		versions[v.Name] = v
	}
	s.transition(StateDirectoriesFetched)
	utils.LogInfo("シート %d 件、Fix Version %d 件を取得しました", len(sheetDir), len(versions))

	processed := NewProcessedSet()
	reconciler := NewReconciler(s.tracker, s.opts.DryRun)

	for _, rule := range compiled {
		sheetName := rule.Rule.SheetName
		id, ok := sheetDir[sheetName]
		if !ok {
			utils.LogWarn("シートが見つかりません: %s", sheetName)
			summary.SkippedRules = append(summary.SkippedRules, sheetName)
			s.opts.Metrics.ObserveRule(RuleSheetNotFound)
			continue
		}

		sheet, err := s.sheets.GetSheet(ctx, id)
		if err != nil {
			utils.LogError("シート %s の取得に失敗: %v", sheetName, err)
			summary.AbortedSheets = append(summary.AbortedSheets, sheetName)
			s.opts.Metrics.ObserveRule(RuleAborted)
			continue
		}
		s.transition(StateSheetResolved)
		utils.LogInfo("シート %s を処理します: %d 行", sheet.Name, len(sheet.Rows))

		err = s.processSheet(ctx, rule, sheet, versions, processed, reconciler, summary)
		switch {
		case errors.Is(err, ErrMissingColumn):
			return summary, err
		case err != nil:
			utils.LogError("シート %s の処理を中断しました: %v", sheet.Name, err)
			summary.AbortedSheets = append(summary.AbortedSheets, sheetName)
			s.opts.Metrics.ObserveRule(RuleAborted)
			continue
		}
		s.transition(StateRowsProcessed)
		s.opts.Metrics.ObserveRule(RuleProcessed)
	}

	s.transition(StateDone)
	s.opts.Metrics.MarkFinished(time.Now())

	utils.LogInfo("同期処理が完了しました: 更新=%d, 変更なし=%d, 未作成=%d, 失敗=%d, 競合=%d",
		summary.Count(models.OutcomeUpdated), summary.Count(models.OutcomeUnchanged),
		summary.Count(models.OutcomeUnmatched), summary.Count(models.OutcomeFailed),
		summary.Count(models.OutcomeConflict))
	return summary, nil
}

// processSheet は1つのシートの全行をルールで照合します
func (s *SyncService) processSheet(
	ctx context.Context,
	rule *CompiledRule,
	sheet *models.Sheet,
	versions map[string]models.RemoteVersion,
	processed *ProcessedSet,
	reconciler *Reconciler,
	summary *RunSummary,
) error {
	index, err := NewColumnIndex(sheet)
	if err != nil {
		return err
	}

	for i, row := range sheet.Rows {
		sheetRow, extractErr := index.Extract(row)

		key, _, ok := rule.Derive(sheetRow.TaskName)
		if !ok {
			summary.NoMatch++
			continue
		}
		// 重複したタスクは最初の1行のみ処理する
		if !processed.ShouldProcess(sheetRow.TaskName) {
			utils.LogDebug("処理済みのタスクをスキップします: %s", sheetRow.TaskName)
			summary.Duplicates++
			continue
		}
		if extractErr != nil {
			return fmt.Errorf("行 %d: %w", i+1, extractErr)
		}

		outcome := reconciler.Reconcile(ctx, key, sheetRow.TaskName, sheetRow.Finish, sheetRow.Done, versions)
		outcome.SheetName = sheet.Name
		logOutcome(outcome)

		summary.Outcomes = append(summary.Outcomes, outcome)
		s.opts.Metrics.ObserveOutcome(outcome)
		processed.MarkProcessed(sheetRow.TaskName)
	}

	return nil
}

// logOutcome は1件の照合結果を運用者向けに出力します
func logOutcome(o models.Outcome) {
	switch o.Kind {
	case models.OutcomeUnmatched:
		utils.LogWarn("未作成のバージョン %s - %s - %t", o.VersionKey, utils.FormatDate(o.Finish), o.Done)
	case models.OutcomeUnchanged:
		utils.LogInfo("%s - %s - %t", o.VersionKey, utils.FormatDate(o.Previous.ReleaseDate), o.Previous.Released)
	case models.OutcomeUpdated:
		suffix := ""
		if o.DryRun {
			suffix = " (dry-run)"
		}
		utils.LogInfo("%s - %s - %s%s", o.VersionKey, describeDate(o), describeReleased(o), suffix)
	case models.OutcomeFailed:
		utils.LogError("%s - %s - %s: %v", o.VersionKey, describeDate(o), describeReleased(o), o.Err)
	case models.OutcomeConflict:
		utils.LogWarn("%s: %v", o.VersionKey, o.Err)
	}
}

func describeDate(o models.Outcome) string {
	if o.Update.ReleaseDate == nil {
		return utils.FormatDate(o.Previous.ReleaseDate)
	}
	return utils.FormatDate(o.Previous.ReleaseDate) + " > " + utils.FormatDate(o.Update.ReleaseDate)
}

func describeReleased(o models.Outcome) string {
	if o.Update.Released == nil {
		return fmt.Sprint(o.Previous.Released)
	}
	return fmt.Sprintf("%t > %t", o.Previous.Released, *o.Update.Released)
}
