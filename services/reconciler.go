package services

import (
	"context"
	"fmt"
	"time"

	"smartsheet2jira/models"
	"smartsheet2jira/utils"
)

// VersionUpdater はFix Versionを更新するトラッカー側の操作です
type VersionUpdater interface {
	UpdateVersion(ctx context.Context, version models.RemoteVersion, update models.VersionUpdate) error
}

// Reconciler はシートの値とJIRAのFix Versionを比較し、差分があれば更新します
type Reconciler struct {
	updater VersionUpdater
	dryRun  bool

	// この実行で照合済みのバージョンキー → 最初に照合したタスク名
	claimed map[string]string
}

// NewReconciler は新しいReconcilerを作成します。dryRun の場合は更新リクエストを送りません
func NewReconciler(updater VersionUpdater, dryRun bool) *Reconciler {
	return &Reconciler{
		updater: updater,
		dryRun:  dryRun,
		claimed: make(map[string]string),
	}
}

// Reconcile はバージョンキーに対応するFix Versionを照合します。
// 更新の失敗は Failed として返し、呼び出し側の処理は止めません。
func (r *Reconciler) Reconcile(ctx context.Context, key, taskName string, finish *time.Time, done bool, versions map[string]models.RemoteVersion) models.Outcome {
	outcome := models.Outcome{
		VersionKey: key,
		TaskName:   taskName,
		Finish:     finish,
		Done:       done,
	}

	version, ok := versions[key]
	if !ok {
		outcome.Kind = models.OutcomeUnmatched
		return outcome
	}
	outcome.Previous = &version

	// 同じバージョンへの2回目以降の書き込みは行わない (最初のタスクが優先)
	if owner, seen := r.claimed[key]; seen && owner != taskName {
		outcome.Kind = models.OutcomeConflict
		outcome.Err = fmt.Errorf("バージョン %s はこの実行でタスク '%s' により照合済みです", key, owner)
		return outcome
	}
	r.claimed[key] = taskName

	var update models.VersionUpdate
	// シート側に日付がない場合はJIRAの日付を上書きしない
	if finish != nil && !utils.SameDay(finish, version.ReleaseDate) {
		date := utils.TruncateDay(*finish)
		update.ReleaseDate = &date
	}
	if done != version.Released {
		released := done
		update.Released = &released
	}

	if update.Empty() {
		outcome.Kind = models.OutcomeUnchanged
		return outcome
	}
	outcome.Update = update

	if r.dryRun {
		outcome.Kind = models.OutcomeUpdated
		outcome.DryRun = true
		return outcome
	}

	if err := r.updater.UpdateVersion(ctx, version, update); err != nil {
		outcome.Kind = models.OutcomeFailed
		outcome.Err = fmt.Errorf("バージョン %s の更新に失敗: %w", key, err)
		return outcome
	}

	outcome.Kind = models.OutcomeUpdated
	return outcome
}
