package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"predigt/internal/inventory"
	"predigt/internal/logging"
	"predigt/internal/services"
	"predigt/internal/testsupport"
)

func TestExtractDate(t *testing.T) {
	cases := []struct {
		name  string
		want  time.Time
		dated bool
	}{
		{"predigt-2024-03-05_tpk.mp3", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"2024-01-01 - Neujahr.mp3", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"2023-12-24- Weihnachten.mp3", time.Date(2023, 12, 24, 0, 0, 0, 0, time.UTC), true},
		{"predigt-2024-13-40_tpk.mp3", inventory.Oldest, false},
		{"garbage-name", inventory.Oldest, false},
		{"", inventory.Oldest, false},
		{"\x00\xff", inventory.Oldest, false},
	}
	for _, tc := range cases {
		got, dated := inventory.ExtractDate(tc.name)
		if !got.Equal(tc.want) || dated != tc.dated {
			t.Fatalf("ExtractDate(%q) = %v %v, want %v %v", tc.name, got, dated, tc.want, tc.dated)
		}
	}
}

func TestRankIsStable(t *testing.T) {
	names := []string{
		"2024-01-01 - Neujahr.mp3",
		"2024-03-05 - Erste.mp3",
		"garbage-name",
		"predigt-2024-03-05_tpk.mp3",
	}
	got := inventory.Rank(names, 3)
	want := []string{"2024-03-05 - Erste.mp3", "predigt-2024-03-05_tpk.mp3", "2024-01-01 - Neujahr.mp3"}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %+v", len(want), got)
	}
	for i := range want {
		if got[i].Name != want[i] {
			t.Fatalf("position %d: got %q, want %q", i, got[i].Name, want[i])
		}
	}
}

func TestRankFiltersPlaceholders(t *testing.T) {
	got := inventory.Rank([]string{".", "..", ".empty", "archiv/", "garbage-name", "predigt-2024-03-05_tpk.mp3"}, 0)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %+v", got)
	}
	if got[0].Name != "predigt-2024-03-05_tpk.mp3" || got[1].Name != "garbage-name" {
		t.Fatalf("unexpected order %+v", got)
	}
	if got[1].Dated || !got[1].Date.Equal(inventory.Oldest) {
		t.Fatalf("expected sentinel for undated entry, got %+v", got[1])
	}
}

func TestListWrapsStoreFailure(t *testing.T) {
	store := testsupport.NewFakeStore("predigt-2024-03-05_tpk.mp3")
	store.ListErr = errors.New("connection refused")
	inv := inventory.New(store, logging.NewNop())

	entries, err := inv.List(context.Background(), inventory.DefaultLimit)
	if !errors.Is(err, services.ErrListingFailed) {
		t.Fatalf("expected ErrListingFailed, got %v", err)
	}
	if entries != nil {
		t.Fatalf("expected no partial result, got %+v", entries)
	}
}

func TestListLimits(t *testing.T) {
	store := testsupport.NewFakeStore(
		"predigt-2024-03-03_tpk.mp3",
		"predigt-2024-03-10_tpk.mp3",
		"predigt-2024-03-17_tpk.mp3",
	)
	inv := inventory.New(store, nil)
	entries, err := inv.List(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Name != "predigt-2024-03-17_tpk.mp3" {
		t.Fatalf("unexpected entries %+v", entries)
	}
}
