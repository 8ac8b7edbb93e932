package models

import "time"

// TransformRule はシート名・タスク名パターン・Fix Versionフォーマットの組です
type TransformRule struct {
	SheetName        string `yaml:"sheetName"`
	TaskPattern      string `yaml:"taskPattern"`
	FixVersionFormat string `yaml:"fixVersionFormat"`
}

// SheetSummary はシート一覧の1件を表します
type SheetSummary struct {
	ID   int64
	Name string
}

// Column はシートの列定義です
type Column struct {
	ID    int64
	Title string
	Index int
}

// Row はシートの1行です (Cells は列インデックス順、値がない場合は nil)
type Row struct {
	ID    int64
	Cells []interface{}
}

// Sheet はシートの列と行を保持します
type Sheet struct {
	ID      int64
	Name    string
	Columns []Column
	Rows    []Row
}

// SheetRow はシートの1行から取り出した同期対象の値です
type SheetRow struct {
	TaskName string
	Finish   *time.Time // nil の場合は日付なし
	Done     bool
}

// RemoteVersion はJIRAのFix Versionを表します
type RemoteVersion struct {
	ID          string
	Self        string // 更新に使うURL
	Name        string
	ReleaseDate *time.Time
	Released    bool
	Archived    bool
}

// VersionUpdate はFix Versionの更新内容です (nil のフィールドは変更なし)
type VersionUpdate struct {
	ReleaseDate *time.Time
	Released    *bool
}

// Empty は更新内容が空かどうかを返します
func (u VersionUpdate) Empty() bool {
	return u.ReleaseDate == nil && u.Released == nil
}

// OutcomeKind は1行の同期結果の種類です
type OutcomeKind string

const (
	OutcomeUnchanged OutcomeKind = "unchanged"
	OutcomeUpdated   OutcomeKind = "updated"
	OutcomeUnmatched OutcomeKind = "unmatched"
	OutcomeFailed    OutcomeKind = "failed"
	OutcomeConflict  OutcomeKind = "conflict"
)

// Outcome は1つのバージョンキーに対する同期結果です
type Outcome struct {
	Kind       OutcomeKind
	VersionKey string
	TaskName   string
	SheetName  string
	Finish     *time.Time
	Done       bool
	Previous   *RemoteVersion // 一致したJIRA側の値 (Unmatched の場合は nil)
	Update     VersionUpdate
	DryRun     bool
	Err        error
}
