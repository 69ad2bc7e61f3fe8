package publish_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gofrs/flock"

	"predigt/internal/history"
	"predigt/internal/logging"
	"predigt/internal/notifications"
	"predigt/internal/publish"
	"predigt/internal/services"
	"predigt/internal/testsupport"
)

type stubNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
	err    error
}

func (n *stubNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

type memRecorder struct {
	runs []history.Run
}

func (r *memRecorder) Record(_ context.Context, run history.Run) error {
	r.runs = append(r.runs, run)
	return nil
}

func writeFinal(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("sermon audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDateToken(t *testing.T) {
	cases := []struct {
		name    string
		wantErr bool
	}{
		{"2024-03-05 - Gnade.mp3", false},
		{"/ready/2024-03-05 - Teil - 2.mp3", false},
		{"notadate - Sermon.mp3", true},
		{"2024-02-30 - Gnade.mp3", true},
		{"2024-03-05-Gnade.mp3", true},
		{"", true},
	}
	for _, tc := range cases {
		_, err := publish.DateToken(tc.name)
		if (err != nil) != tc.wantErr {
			t.Fatalf("DateToken(%q) err=%v, wantErr=%v", tc.name, err, tc.wantErr)
		}
	}
}

func TestMakePlan(t *testing.T) {
	plan, err := publish.MakePlan("/ready/2024-03-05 - Gnade und Wahrheit.MP3", "tpk")
	if err != nil {
		t.Fatal(err)
	}
	if plan.RemoteName != "predigt-2024-03-05_tpk.mp3" {
		t.Fatalf("unexpected remote name %q", plan.RemoteName)
	}
	if plan.Title != "Gnade und Wahrheit" {
		t.Fatalf("unexpected title %q", plan.Title)
	}
}

func TestPublishRejectsInvalidDateWithoutTransfer(t *testing.T) {
	store := testsupport.NewFakeStore()
	notifier := &stubNotifier{}
	coord := publish.New(store, notifier, nil, publish.Options{Slug: "tpk", RejectExisting: true, LockDir: t.TempDir()}, logging.NewNop())
	path := writeFinal(t, "notadate - Sermon.mp3")

	_, err := coord.Publish(context.Background(), path)
	if !errors.Is(err, services.ErrPublishRejected) {
		t.Fatalf("expected ErrPublishRejected, got %v", err)
	}
	if store.CallCount() != 0 {
		t.Fatalf("expected zero store invocations, got %v", store.Calls)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Fatalf("local file must be untouched: %v", statErr)
	}
	if len(notifier.events) != 0 {
		t.Fatalf("rejections must not notify, got %v", notifier.events)
	}
}

func TestPublishUploadsUnderCanonicalName(t *testing.T) {
	store := testsupport.NewFakeStore()
	notifier := &stubNotifier{}
	recorder := &memRecorder{}
	coord := publish.New(store, notifier, recorder, publish.Options{Slug: "tpk", LockDir: t.TempDir()}, nil)
	path := writeFinal(t, "2024-03-05 - Gnade.mp3")

	result, err := coord.Publish(context.Background(), path)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if result.RemoteName != "predigt-2024-03-05_tpk.mp3" {
		t.Fatalf("unexpected remote name %q", result.RemoteName)
	}
	if got := string(store.Entries["predigt-2024-03-05_tpk.mp3"]); got != "sermon audio" {
		t.Fatalf("unexpected uploaded content %q", got)
	}
	if len(store.Calls) != 1 || store.Calls[0] != "store predigt-2024-03-05_tpk.mp3" {
		t.Fatalf("expected a single store call, got %v", store.Calls)
	}
	if filepath.Base(result.PublishedPath) != "predigt-2024-03-05_tpk.mp3" {
		t.Fatalf("expected local rename, got %q", result.PublishedPath)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected original name gone, stat err=%v", err)
	}
	if len(notifier.events) != 1 || notifier.events[0] != notifications.EventPublished {
		t.Fatalf("expected one published notification, got %v", notifier.events)
	}
	if len(recorder.runs) != 1 || recorder.runs[0].Status != history.StatusCompleted || recorder.runs[0].SermonDate != "2024-03-05" {
		t.Fatalf("unexpected history %+v", recorder.runs)
	}
}

func TestPublishRejectExisting(t *testing.T) {
	store := testsupport.NewFakeStore("predigt-2024-03-05_tpk.mp3")
	coord := publish.New(store, nil, nil, publish.Options{Slug: "tpk", RejectExisting: true}, nil)
	path := writeFinal(t, "2024-03-05 - Gnade.mp3")

	_, err := coord.Publish(context.Background(), path)
	if !errors.Is(err, services.ErrAlreadyPublished) {
		t.Fatalf("expected ErrAlreadyPublished, got %v", err)
	}
	for _, call := range store.Calls {
		if call == "store predigt-2024-03-05_tpk.mp3" {
			t.Fatal("transfer must not run when the name already exists")
		}
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Fatalf("local file must keep its finalized name: %v", statErr)
	}
}

func TestPublishTransferFailure(t *testing.T) {
	store := testsupport.NewFakeStore()
	store.StoreErr = errors.New("530 Login incorrect")
	notifier := &stubNotifier{}
	recorder := &memRecorder{}
	coord := publish.New(store, notifier, recorder, publish.Options{Slug: "tpk"}, nil)

	_, err := coord.Publish(context.Background(), writeFinal(t, "2024-03-05 - Gnade.mp3"))
	if !errors.Is(err, services.ErrPublishTransferFailed) {
		t.Fatalf("expected ErrPublishTransferFailed, got %v", err)
	}
	if len(notifier.events) != 1 || notifier.events[0] != notifications.EventError {
		t.Fatalf("expected error notification, got %v", notifier.events)
	}
	if len(recorder.runs) != 1 || recorder.runs[0].ErrorLabel != "PublishTransferFailed" {
		t.Fatalf("unexpected history %+v", recorder.runs)
	}
}

func TestPublishNotificationFailureIsWarning(t *testing.T) {
	store := testsupport.NewFakeStore()
	notifier := &stubNotifier{err: errors.New("website down")}
	coord := publish.New(store, notifier, nil, publish.Options{Slug: "tpk"}, nil)

	result, err := coord.Publish(context.Background(), writeFinal(t, "2024-03-05 - Gnade.mp3"))
	if err != nil {
		t.Fatalf("notification failure must not fail publish: %v", err)
	}
	if !errors.Is(result.NotificationErr, services.ErrNotificationFailed) {
		t.Fatalf("expected NotificationFailed warning, got %v", result.NotificationErr)
	}
	if result.Warning() == "" {
		t.Fatal("expected warning text")
	}
	if len(store.StoredNames()) != 1 {
		t.Fatalf("transfer must stand, got %v", store.StoredNames())
	}
}

func TestPublishLockBusy(t *testing.T) {
	lockDir := t.TempDir()
	held := flock.New(filepath.Join(lockDir, "predigt-2024-03-05_tpk.mp3.lock"))
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("pre-lock: %v %v", locked, err)
	}
	defer held.Unlock()

	store := testsupport.NewFakeStore()
	coord := publish.New(store, nil, nil, publish.Options{Slug: "tpk", LockDir: lockDir}, nil)
	_, err = coord.Publish(context.Background(), writeFinal(t, "2024-03-05 - Gnade.mp3"))
	if !errors.Is(err, services.ErrPublishRejected) {
		t.Fatalf("expected ErrPublishRejected while locked, got %v", err)
	}
	if store.CallCount() != 0 {
		t.Fatalf("expected no store calls, got %v", store.Calls)
	}
}

func TestPublishRetryAfterTransferFailure(t *testing.T) {
	store := testsupport.NewFakeStore()
	store.StoreErr = errors.New("421 Service not available")
	coord := publish.New(store, nil, nil, publish.Options{Slug: "tpk", LockDir: t.TempDir()}, nil)
	path := writeFinal(t, "2024-03-05 - Gnade.mp3")

	result, err := coord.Publish(context.Background(), path)
	if !errors.Is(err, services.ErrPublishTransferFailed) {
		t.Fatalf("expected ErrPublishTransferFailed, got %v", err)
	}
	if result.PublishedPath != "" {
		t.Fatalf("failed transfer must not report a published path, got %q", result.PublishedPath)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Fatalf("finalized file must keep its dated name after a failed transfer: %v", statErr)
	}
	if _, statErr := os.Stat(filepath.Join(filepath.Dir(path), "predigt-2024-03-05_tpk.mp3")); !os.IsNotExist(statErr) {
		t.Fatalf("renamed copy must not linger, stat err=%v", statErr)
	}

	store.StoreErr = nil
	result, err = coord.Publish(context.Background(), path)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if filepath.Base(result.PublishedPath) != "predigt-2024-03-05_tpk.mp3" {
		t.Fatalf("unexpected published path %q", result.PublishedPath)
	}
	if got := store.StoredNames(); len(got) != 1 || got[0] != "predigt-2024-03-05_tpk.mp3" {
		t.Fatalf("unexpected remote contents %v", got)
	}
}

func TestPublishUnderPipelineRunKeepsOwnLedgerID(t *testing.T) {
	recorder := &memRecorder{}
	coord := publish.New(testsupport.NewFakeStore(), nil, recorder, publish.Options{Slug: "tpk"}, nil)
	ctx := services.WithRunID(context.Background(), "pipeline-run")

	if _, err := coord.Publish(ctx, writeFinal(t, "2024-03-05 - Gnade.mp3")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(recorder.runs) != 1 {
		t.Fatalf("expected one ledger row, got %+v", recorder.runs)
	}
	if recorder.runs[0].RunID == "" || recorder.runs[0].RunID == "pipeline-run" {
		t.Fatalf("publish row must not reuse the pipeline run id, got %q", recorder.runs[0].RunID)
	}
}
