package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"ContentBriefs/internal/config"
	"ContentBriefs/internal/domain"
	"ContentBriefs/internal/ports"
)

func openTestRepo(t *testing.T) *RunRepository {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "history.db") + "?_pragma=foreign_keys(1)"
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewRunRepository(db, "sqlite")
}

func sampleRun(id string, started time.Time) domain.RunRecord {
	return domain.RunRecord{
		ID:          id,
		Provider:    domain.ProviderClaude,
		StartedAt:   started,
		FinishedAt:  started.Add(90 * time.Second),
		Total:       2,
		Succeeded:   1,
		Failed:      1,
		ArchiveName: "content_briefs.zip",
		Results: []domain.ResultRecord{
			{Row: 3, Topic: "second", Status: domain.ResultError, Error: "quota"},
			{Row: 2, Topic: "first", Status: domain.ResultSuccess, Filename: "a.docx", Errors: 1, Warnings: 2},
		},
	}
}

func TestSaveAndGetRun(t *testing.T) {
	t.Parallel()

	repo := openTestRepo(t)
	ctx := context.Background()
	started := time.Date(2025, time.May, 1, 10, 0, 0, 0, time.UTC)

	if err := repo.SaveRun(ctx, sampleRun("run-1", started)); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := repo.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Provider != domain.ProviderClaude || !got.StartedAt.Equal(started) || got.FinishedAt.Sub(got.StartedAt) != 90*time.Second {
		t.Fatalf("unexpected run %+v", got)
	}
	if len(got.Results) != 2 || got.Results[0].Row != 2 || got.Results[0].Warnings != 2 || got.Results[1].Error != "quota" {
		t.Fatalf("unexpected results %+v", got.Results)
	}

	if _, err := repo.GetRun(ctx, "missing"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListAndPruneRuns(t *testing.T) {
	t.Parallel()

	repo := openTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "middle", "new"} {
		run := sampleRun(id, base.Add(time.Duration(i)*24*time.Hour))
		run.Cancelled = id == "new"
		if err := repo.SaveRun(ctx, run); err != nil {
			t.Fatalf("SaveRun %s: %v", id, err)
		}
	}

	runs, err := repo.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "new" || !runs[0].Cancelled || runs[1].ID != "middle" {
		t.Fatalf("unexpected runs %+v", runs)
	}

	removed, err := repo.PruneBefore(ctx, base.Add(36*time.Hour))
	if err != nil {
		t.Fatalf("PruneBefore: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 pruned runs, got %d", removed)
	}

	runs, err = repo.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "new" {
		t.Fatalf("unexpected runs after prune %+v", runs)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	if _, err := Open(config.DatabaseConfig{Driver: "oracle", DSN: "x"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestSaveRunWithManyResults(t *testing.T) {
	t.Parallel()

	repo := openTestRepo(t)
	ctx := context.Background()

	const n = 5000
	run := sampleRun("big", time.Date(2025, time.May, 2, 9, 0, 0, 0, time.UTC))
	run.Total, run.Succeeded, run.Failed = n, n, 0
	run.Results = make([]domain.ResultRecord, 0, n)
	for row := 1; row <= n; row++ {
		run.Results = append(run.Results, domain.ResultRecord{Row: row, Topic: "t", Status: domain.ResultSuccess, Filename: "f.docx"})
	}

	if err := repo.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	got, err := repo.GetRun(ctx, "big")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if len(got.Results) != n || got.Results[0].Row != 1 || got.Results[n-1].Row != n {
		t.Fatalf("expected %d results in row order, got %d", n, len(got.Results))
	}
}
