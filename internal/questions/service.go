// Package questions serves the example questions that seed the assistant
// panel. Results come from the reasoning service through a read-through
// cache with a coarse expiry; when the service is unreachable a small
// built-in per-role list is served instead, so lookups never fail.
package questions

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Question is one static advisory question.
type Question struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
}

// Query selects which example questions to fetch.
type Query struct {
	PageContext string
	Role        string
	Level       string
	Limit       int
}

func (q Query) key() string {
	return fmt.Sprintf("%s|%s|%s|%d", q.PageContext, q.Role, q.Level, q.Limit)
}

// Fetcher retrieves example questions from the service. transport.Client is
// the production implementation.
type Fetcher interface {
	ExampleQuestions(ctx context.Context, q Query) ([]Question, error)
}

// DefaultTTL is the cache expiry used when none is configured.
const DefaultTTL = 5 * time.Minute

// Service is the read-through cache over the example-question endpoint.
// Concurrent misses for the same query collapse into one upstream call.
type Service struct {
	fetcher Fetcher
	ttl     time.Duration
	now     func() time.Time // test hook

	group singleflight.Group
	mu    sync.Mutex
	cache map[string]entry
}

type entry struct {
	questions []Question
	expires   time.Time
}

// NewService creates a Service over fetcher. A nil fetcher serves only the
// built-in fallback lists; a non-positive ttl selects DefaultTTL.
func NewService(fetcher Fetcher, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		fetcher: fetcher,
		ttl:     ttl,
		now:     time.Now,
		cache:   make(map[string]entry),
	}
}

// Questions returns the example questions for q. It never fails: on any
// upstream error the per-role fallback list is returned instead. Fallback
// results are not cached, so recovery is picked up on the next call.
func (s *Service) Questions(ctx context.Context, q Query) []Question {
	if s.fetcher == nil {
		return fallbackFor(q.Role, q.Limit)
	}

	key := q.key()
	s.mu.Lock()
	if e, ok := s.cache[key]; ok && s.now().Before(e.expires) {
		s.mu.Unlock()
		return e.questions
	}
	s.mu.Unlock()

	v, _, _ := s.group.Do(key, func() (any, error) {
		fetched, err := s.fetcher.ExampleQuestions(ctx, q)
		if err != nil || len(fetched) == 0 {
			if err != nil {
				log.Printf("example questions: serving built-in list: %v", err)
			}
			return fallbackFor(q.Role, q.Limit), nil
		}
		s.mu.Lock()
		s.cache[key] = entry{questions: fetched, expires: s.now().Add(s.ttl)}
		s.mu.Unlock()
		return fetched, nil
	})
	return v.([]Question)
}
