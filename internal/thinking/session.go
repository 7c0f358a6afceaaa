package thinking

import (
	"time"

	"github.com/google/uuid"
)

// Session is the state of one in-flight deep-thinking run. It is owned
// exclusively by the Manager for its lifetime; callbacks and accessors only
// ever see value copies.
type Session struct {
	ID       string
	Question string
	Role     string

	StartedAt time.Time

	// TotalStages is 0 until it is known. The simulator fixes it up front;
	// the remote path leaves it open-ended.
	TotalStages     int
	CompletedStages int

	// Active is true from creation until a terminal event or cancellation.
	Active bool
}

func newSession(question, role string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Question:  question,
		Role:      role,
		StartedAt: time.Now(),
		Active:    true,
	}
}
