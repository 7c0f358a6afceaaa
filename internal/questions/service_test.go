package questions

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeFetcher struct {
	calls    atomic.Int64
	fail     bool
	response []Question
}

func (f *fakeFetcher) ExampleQuestions(ctx context.Context, q Query) ([]Question, error) {
	f.calls.Add(1)
	if f.fail {
		return nil, errors.New("connection refused")
	}
	return f.response, nil
}

func TestQuestionsCachesWithinTTL(t *testing.T) {
	fetcher := &fakeFetcher{response: []Question{{ID: "q1", Text: "t"}}}
	svc := NewService(fetcher, time.Minute)
	query := Query{PageContext: "ai_assistant", Role: "student", Limit: 5}

	first := svc.Questions(context.Background(), query)
	second := svc.Questions(context.Background(), query)

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected 1 question, got %d and %d", len(first), len(second))
	}
	if got := fetcher.calls.Load(); got != 1 {
		t.Errorf("expected 1 upstream call, got %d", got)
	}
}

func TestQuestionsExpiryRefetches(t *testing.T) {
	fetcher := &fakeFetcher{response: []Question{{ID: "q1"}}}
	svc := NewService(fetcher, time.Minute)

	current := time.Now()
	var mu sync.Mutex
	svc.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	query := Query{Role: "student"}
	svc.Questions(context.Background(), query)

	mu.Lock()
	current = current.Add(2 * time.Minute)
	mu.Unlock()

	svc.Questions(context.Background(), query)
	if got := fetcher.calls.Load(); got != 2 {
		t.Errorf("expected refetch after expiry, got %d calls", got)
	}
}

func TestQuestionsFallbackOnFailure(t *testing.T) {
	fetcher := &fakeFetcher{fail: true}
	svc := NewService(fetcher, time.Minute)

	got := svc.Questions(context.Background(), Query{Role: "student", Limit: 3})
	if len(got) != 3 {
		t.Fatalf("expected 3 fallback questions, got %d", len(got))
	}

	// Fallback results are not cached: the next call hits upstream again.
	svc.Questions(context.Background(), Query{Role: "student", Limit: 3})
	if calls := fetcher.calls.Load(); calls != 2 {
		t.Errorf("expected 2 upstream attempts, got %d", calls)
	}
}

func TestQuestionsFallbackPerRole(t *testing.T) {
	svc := NewService(nil, 0)

	student := svc.Questions(context.Background(), Query{Role: "student"})
	teacher := svc.Questions(context.Background(), Query{Role: "teacher"})

	if len(student) == 0 || len(teacher) == 0 {
		t.Fatal("expected non-empty fallback lists")
	}
	if student[0].ID == teacher[0].ID {
		t.Error("expected distinct lists per role")
	}
}

func TestQuestionsConcurrentMissesCollapse(t *testing.T) {
	fetcher := &fakeFetcher{response: []Question{{ID: "q1"}}}
	svc := NewService(fetcher, time.Minute)
	query := Query{Role: "student"}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Questions(context.Background(), query)
		}()
	}
	wg.Wait()

	if got := fetcher.calls.Load(); got != 1 {
		t.Errorf("expected concurrent misses to collapse into 1 call, got %d", got)
	}
}
