package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"predigt/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "logs", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

	runs := []history.Run{
		{RunID: "a", Kind: history.KindPipeline, SourceID: "vid1", Status: history.StatusFailed, FailedStep: "compress", ErrorLabel: "ToolInvocationFailed", StartedAt: base, FinishedAt: base.Add(time.Minute)},
		{RunID: "b", Kind: history.KindPipeline, SourceID: "vid2", Status: history.StatusCompleted, FinalPath: "/ready/2024-03-05 - Gnade.mp3", StartedAt: base, FinishedAt: base.Add(2 * time.Minute)},
		{RunID: "c", Kind: history.KindPublish, Status: history.StatusCompleted, RemoteName: "predigt-2024-03-05_tpk.mp3", StartedAt: base, FinishedAt: base.Add(3 * time.Minute)},
	}
	for _, run := range runs {
		if err := store.Record(ctx, run); err != nil {
			t.Fatalf("Record %s: %v", run.RunID, err)
		}
	}

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 || recent[0].RunID != "c" || recent[1].RunID != "b" {
		t.Fatalf("unexpected order %+v", recent)
	}
	if recent[1].Duration() != 2*time.Minute {
		t.Fatalf("unexpected duration %s", recent[1].Duration())
	}

	got, ok, err := store.Get(ctx, "a")
	if err != nil || !ok {
		t.Fatalf("Get: %v %v", ok, err)
	}
	if got.FailedStep != "compress" || got.ErrorLabel != "ToolInvocationFailed" || got.Status != history.StatusFailed {
		t.Fatalf("unexpected row %+v", got)
	}
	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing run, got %v %v", ok, err)
	}
}

func TestLastPublished(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	name := "predigt-2024-03-05_tpk.mp3"

	if _, ok, err := store.LastPublished(ctx, name); err != nil || ok {
		t.Fatalf("expected no publication yet, got %v %v", ok, err)
	}
	if err := store.Record(ctx, history.Run{RunID: "p1", Kind: history.KindPublish, Status: history.StatusFailed, RemoteName: name}); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := store.LastPublished(ctx, name); ok {
		t.Fatal("failed publish must not count")
	}
	if err := store.Record(ctx, history.Run{RunID: "p2", Kind: history.KindPublish, Status: history.StatusCompleted, RemoteName: name}); err != nil {
		t.Fatal(err)
	}
	run, ok, err := store.LastPublished(ctx, name)
	if err != nil || !ok || run.RunID != "p2" {
		t.Fatalf("unexpected last publish %+v %v %v", run, ok, err)
	}
}

func TestRecordRequiresRunID(t *testing.T) {
	store := openStore(t)
	if err := store.Record(context.Background(), history.Run{}); err == nil {
		t.Fatal("expected error for empty run id")
	}
}

func TestReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Record(context.Background(), history.Run{RunID: "x", Kind: history.KindPipeline, Status: history.StatusCompleted}); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	runs, err := reopened.Recent(context.Background(), 0)
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected 1 run after reopen, got %d %v", len(runs), err)
	}
	if errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatal("unexpected schema mismatch")
	}
}
