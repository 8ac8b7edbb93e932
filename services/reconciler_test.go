package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"smartsheet2jira/models"
)

type updateCall struct {
	version models.RemoteVersion
	update  models.VersionUpdate
}

// spyTracker はトラッカーへの呼び出しを記録します
type spyTracker struct {
	versions  []models.RemoteVersion
	listErr   error
	updateErr map[string]error
	calls     []updateCall
}

func (s *spyTracker) GetProjectVersions(_ context.Context, _ string) ([]models.RemoteVersion, error) {
	return s.versions, s.listErr
}

func (s *spyTracker) UpdateVersion(_ context.Context, version models.RemoteVersion, update models.VersionUpdate) error {
	s.calls = append(s.calls, updateCall{version: version, update: update})
	return s.updateErr[version.Name]
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func versionMap(versions ...models.RemoteVersion) map[string]models.RemoteVersion {
	out := make(map[string]models.RemoteVersion, len(versions))
	for _, v := range versions {
		out[v.Name] = v
	}
	return out
}

func TestReconcileUnchanged(t *testing.T) {
	spy := &spyTracker{}
	r := NewReconciler(spy, false)
	versions := versionMap(models.RemoteVersion{Name: "8.0 Update 5", ReleaseDate: date(2024, 5, 1), Released: true})

	out := r.Reconcile(context.Background(), "8.0 Update 5", "task", date(2024, 5, 1), true, versions)
	if out.Kind != models.OutcomeUnchanged {
		t.Fatalf("expected unchanged, got %s", out.Kind)
	}
	if len(spy.calls) != 0 {
		t.Fatalf("expected no update calls, got %d", len(spy.calls))
	}
}

func TestReconcileDateOnlyChange(t *testing.T) {
	spy := &spyTracker{}
	r := NewReconciler(spy, false)
	versions := versionMap(models.RemoteVersion{Name: "v", ReleaseDate: date(2024, 5, 1), Released: false})

	out := r.Reconcile(context.Background(), "v", "task", date(2024, 6, 1), false, versions)
	if out.Kind != models.OutcomeUpdated {
		t.Fatalf("expected updated, got %s (%v)", out.Kind, out.Err)
	}
	if len(spy.calls) != 1 {
		t.Fatalf("expected 1 update call, got %d", len(spy.calls))
	}
	update := spy.calls[0].update
	if update.ReleaseDate == nil || !update.ReleaseDate.Equal(*date(2024, 6, 1)) {
		t.Fatalf("unexpected release date %v", update.ReleaseDate)
	}
	if update.Released != nil && *update.Released != false {
		t.Fatal("released flag must not be reset")
	}
}

func TestReconcileBundlesDateAndReleased(t *testing.T) {
	spy := &spyTracker{}
	r := NewReconciler(spy, false)
	versions := versionMap(models.RemoteVersion{Name: "v", ReleaseDate: date(2024, 5, 1)})

	out := r.Reconcile(context.Background(), "v", "task", date(2024, 6, 1), true, versions)
	if out.Kind != models.OutcomeUpdated {
		t.Fatalf("expected updated, got %s", out.Kind)
	}
	if len(spy.calls) != 1 {
		t.Fatalf("expected a single bundled update call, got %d", len(spy.calls))
	}
	update := spy.calls[0].update
	if update.ReleaseDate == nil || update.Released == nil || !*update.Released {
		t.Fatalf("expected date and released in one update, got %+v", update)
	}
}

func TestReconcileAbsentFinishNeverChangesDate(t *testing.T) {
	spy := &spyTracker{}
	r := NewReconciler(spy, false)
	versions := versionMap(models.RemoteVersion{Name: "v", ReleaseDate: date(2024, 3, 1), Released: false})

	out := r.Reconcile(context.Background(), "v", "task", nil, false, versions)
	if out.Kind != models.OutcomeUnchanged {
		t.Fatalf("expected unchanged, got %s", out.Kind)
	}

	out = r.Reconcile(context.Background(), "v", "task", nil, true, versions)
	if out.Kind != models.OutcomeUpdated {
		t.Fatalf("expected updated, got %s", out.Kind)
	}
	if out.Update.ReleaseDate != nil {
		t.Fatalf("absent finish must not touch release date, got %v", out.Update.ReleaseDate)
	}
}

func TestReconcileSetsDateWhenRemoteHasNone(t *testing.T) {
	spy := &spyTracker{}
	r := NewReconciler(spy, false)
	versions := versionMap(models.RemoteVersion{Name: "v"})

	out := r.Reconcile(context.Background(), "v", "task", date(2024, 6, 1), false, versions)
	if out.Kind != models.OutcomeUpdated || out.Update.ReleaseDate == nil || out.Update.Released != nil {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestReconcileUnmatched(t *testing.T) {
	spy := &spyTracker{}
	r := NewReconciler(spy, false)

	out := r.Reconcile(context.Background(), "8.0 Update 5", "task", date(2024, 6, 1), true, versionMap())
	if out.Kind != models.OutcomeUnmatched {
		t.Fatalf("expected unmatched, got %s", out.Kind)
	}
	if out.VersionKey != "8.0 Update 5" || !out.Done || !out.Finish.Equal(*date(2024, 6, 1)) {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if len(spy.calls) != 0 {
		t.Fatalf("expected no update calls, got %d", len(spy.calls))
	}
}

func TestReconcileUpdateFailure(t *testing.T) {
	spy := &spyTracker{updateErr: map[string]error{"v": errors.New("403")}}
	r := NewReconciler(spy, false)
	versions := versionMap(models.RemoteVersion{Name: "v"})

	out := r.Reconcile(context.Background(), "v", "task", nil, true, versions)
	if out.Kind != models.OutcomeFailed || out.Err == nil {
		t.Fatalf("expected failed outcome with error, got %+v", out)
	}
}

func TestReconcileDryRun(t *testing.T) {
	spy := &spyTracker{}
	r := NewReconciler(spy, true)
	versions := versionMap(models.RemoteVersion{Name: "v"})

	out := r.Reconcile(context.Background(), "v", "task", nil, true, versions)
	if out.Kind != models.OutcomeUpdated || !out.DryRun {
		t.Fatalf("expected dry-run update, got %+v", out)
	}
	if len(spy.calls) != 0 {
		t.Fatalf("dry run must not call the tracker, got %d calls", len(spy.calls))
	}
}

func TestReconcileFirstWriterWins(t *testing.T) {
	spy := &spyTracker{}
	r := NewReconciler(spy, false)
	versions := versionMap(models.RemoteVersion{Name: "v"})

	first := r.Reconcile(context.Background(), "v", "task A", date(2024, 6, 1), false, versions)
	second := r.Reconcile(context.Background(), "v", "task B", date(2024, 7, 1), true, versions)
	if first.Kind != models.OutcomeUpdated {
		t.Fatalf("expected first update, got %s", first.Kind)
	}
	if second.Kind != models.OutcomeConflict || second.Err == nil {
		t.Fatalf("expected conflict, got %+v", second)
	}
	if len(spy.calls) != 1 {
		t.Fatalf("expected only the first write, got %d calls", len(spy.calls))
	}
}
