package findings

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"themis-hq/themis/pkg/extraction"
	"themis-hq/themis/pkg/policy/pipeline"
	"themis-hq/themis/pkg/policy/result"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(&Config{
		Path:          filepath.Join(t.TempDir(), "findings.db"),
		RetentionDays: 30,
		PruneSchedule: "0 3 * * *",
	}, nil)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testReport(runID string, completedAt time.Time) *pipeline.Report {
	return &pipeline.Report{
		RunID:              runID,
		StartedAt:          completedAt.Add(-time.Second),
		CompletedAt:        completedAt,
		AggregateCompliant: false,
		Results: []*result.PolicyResult{
			{
				PolicyID:   "global.v1.fairness",
				PolicyName: "Fairness",
				Compliant:  true,
				Metrics: map[string]extraction.MetricValue{
					"ftu_satisfied": extraction.NewBool("ftu_satisfied", "FTU", true),
				},
				Timestamp: completedAt,
			},
			{
				PolicyID:   "global.v1.toxicity",
				PolicyName: "Toxicity",
				Compliant:  false,
				Reason:     "toxicity above threshold",
				Timestamp:  completedAt,
			},
		},
	}
}

func TestRecordAndGetRun(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	want := testReport("run-1", time.Now().UTC().Truncate(time.Second))
	if err := store.Record(ctx, want); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.AggregateCompliant {
		t.Error("AggregateCompliant = true, want false")
	}
	if len(got.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(got.Results))
	}
	if got.Results[0].PolicyID != "global.v1.fairness" {
		t.Errorf("results not ordered by policy_id: %s", got.Results[0].PolicyID)
	}

	ftu := got.Results[0].Metrics["ftu_satisfied"]
	if ftu.Kind != extraction.KindBool || !ftu.Bool {
		t.Errorf("metric did not survive round trip: %+v", ftu)
	}
	if got.Results[1].Reason != "toxicity above threshold" {
		t.Errorf("Reason = %q", got.Results[1].Reason)
	}
}

func TestGetRunUnknown(t *testing.T) {
	store := testStore(t)
	if _, err := store.GetRun(context.Background(), "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"old", "mid", "new"} {
		if err := store.Record(ctx, testReport(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want limit 2", len(runs))
	}
	if runs[0].RunID != "new" || runs[1].RunID != "mid" {
		t.Errorf("order = %s, %s, want new, mid", runs[0].RunID, runs[1].RunID)
	}
	if runs[0].ResultCount != 2 {
		t.Errorf("ResultCount = %d, want 2", runs[0].ResultCount)
	}
}

func TestPruneRemovesOldRunsAndFindings(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	if err := store.Record(ctx, testReport("old", now.Add(-48*time.Hour))); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record(ctx, testReport("recent", now)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	removed, err := store.Prune(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	if _, err := store.GetRun(ctx, "old"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("pruned run still present: %v", err)
	}
	if _, err := store.GetRun(ctx, "recent"); err != nil {
		t.Errorf("recent run lost: %v", err)
	}

	var orphans int
	if err := store.db.QueryRow(`SELECT COUNT(*) FROM findings WHERE run_id = 'old'`).Scan(&orphans); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if orphans != 0 {
		t.Errorf("found %d orphaned findings after prune", orphans)
	}
}

type stubPruner struct {
	cutoff  time.Time
	removed int64
}

func (p *stubPruner) Prune(_ context.Context, olderThan time.Time) (int64, error) {
	p.cutoff = olderThan
	return p.removed, nil
}

func TestSchedulerRunNow(t *testing.T) {
	pruner := &stubPruner{removed: 3}
	sched := NewScheduler(pruner, &Config{RetentionDays: 7, PruneSchedule: "0 3 * * *"}, nil)

	removed, err := sched.RunNow(context.Background())
	if err != nil {
		t.Fatalf("RunNow failed: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}

	wantCutoff := time.Now().UTC().Add(-7 * 24 * time.Hour)
	if diff := pruner.cutoff.Sub(wantCutoff); diff < -time.Minute || diff > time.Minute {
		t.Errorf("cutoff = %v, want about %v", pruner.cutoff, wantCutoff)
	}
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	sched := NewScheduler(&stubPruner{}, &Config{RetentionDays: 7, PruneSchedule: "not a schedule"}, nil)
	if err := sched.Start(); err == nil {
		sched.Stop()
		t.Error("expected error for invalid cron expression")
	}
}
