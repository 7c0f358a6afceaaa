package archive

import (
	"context"
	"testing"
	"time"
)

func testRecord(id, question string) Record {
	now := time.Now().Truncate(time.Second)
	return Record{
		SessionID:   id,
		Question:    question,
		Role:        "student",
		StartedAt:   now.Add(-time.Minute),
		CompletedAt: now,
		Stages: []StageRecord{
			{Position: 0, Name: "problem analysis", Content: "breaking down the question about timers"},
			{Position: 1, Name: "summary", Content: "prescaler and auto-reload decide the period"},
		},
	}
}

func TestStoreRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	rec := testRecord("sess-1", "How do timers work?")
	if err := store.Record(ctx, rec); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].Question != rec.Question {
		t.Errorf("expected question %q, got %q", rec.Question, got[0].Question)
	}
	if len(got[0].Stages) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(got[0].Stages))
	}
	if got[0].Stages[1].Name != "summary" {
		t.Errorf("expected stages in position order, got %+v", got[0].Stages)
	}
}

func TestStoreRecentOrdering(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	older := testRecord("sess-old", "old question")
	older.CompletedAt = time.Now().Add(-time.Hour)
	newer := testRecord("sess-new", "new question")

	if err := store.Record(ctx, older); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record(ctx, newer); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, err := store.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 1 || got[0].SessionID != "sess-new" {
		t.Errorf("expected newest record first, got %+v", got)
	}
}

func TestStoreRecordRequiresID(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	if err := store.Record(ctx, Record{Question: "q"}); err == nil {
		t.Fatal("expected error for record without session id")
	}
}

func TestStoreSearch(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	if err := store.Record(ctx, testRecord("sess-1", "How do timers work?")); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	hits, err := store.Search(ctx, "prescaler", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].SessionID != "sess-1" || hits[0].Stage != "summary" {
		t.Errorf("unexpected hit: %+v", hits[0])
	}

	none, err := store.Search(ctx, "nonexistentterm", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no hits, got %+v", none)
	}
}

func TestStoreSearchCancelledContext(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	if err := store.Record(ctx, testRecord("sess-1", "How do timers work?")); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := store.Search(cancelled, "prescaler", 5); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestStoreReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := Open(ctx, dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := store.Record(ctx, testRecord("sess-1", "persisted?")); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(ctx, dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 1 || got[0].Question != "persisted?" {
		t.Errorf("expected persisted record, got %+v", got)
	}
}
