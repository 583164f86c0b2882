// Package cooldown implements the cross-request pause primitive used by
// the bulk pipeline. The batch handler blocks on a token created here;
// a resume request arriving on a separate connection — or the safety
// timer — resolves the token. Resolution is exactly-once.
package cooldown

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Token represents one pending cooldown. It resolves at most once,
// either by an explicit Resume call or by the safety timer.
type Token struct {
	id        string
	createdAt time.Time
	done      chan struct{}
	timer     *time.Timer
	resolved  bool
}

// ID returns the token's unique request id.
func (t *Token) ID() string { return t.id }

// Done returns a channel that is closed when the token resolves.
func (t *Token) Done() <-chan struct{} { return t.done }

// Coordinator owns the process-wide token table. Begin and Resume are
// its only operations; all table access is serialized by the mutex
// because the two paths run on independent request goroutines.
type Coordinator struct {
	mu      sync.Mutex
	tokens  map[string]*Token
	ceiling time.Duration
}

// DefaultCeiling bounds how long any cooldown can block the pipeline
// when no resume call ever arrives.
const DefaultCeiling = 60 * time.Second

// NewCoordinator creates a coordinator with the given safety ceiling.
// A non-positive ceiling falls back to DefaultCeiling.
func NewCoordinator(ceiling time.Duration) *Coordinator {
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	return &Coordinator{
		tokens:  make(map[string]*Token),
		ceiling: ceiling,
	}
}

// Begin registers a new cooldown token and schedules the safety timer.
// The caller should block on Token.Done. The timer guarantees forward
// progress even if the batch's stream was aborted and nobody resumes.
func (c *Coordinator) Begin() *Token {
	t := &Token{
		id:        uuid.New().String(),
		createdAt: time.Now().UTC(),
		done:      make(chan struct{}),
	}

	c.mu.Lock()
	c.tokens[t.id] = t
	c.mu.Unlock()

	t.timer = time.AfterFunc(c.ceiling, func() {
		if c.resolve(t.id) {
			zap.L().Debug("cooldown: safety timeout fired", zap.String("request_id", t.id))
		}
	})

	return t
}

// Resume resolves the token with the given id. Returns false when the
// id is unknown or already resolved — callers treat that as a
// non-error, so calling twice (or racing the safety timer) is safe.
func (c *Coordinator) Resume(id string) bool {
	return c.resolve(id)
}

// Pending returns the number of unresolved tokens.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tokens)
}

// resolve marks the token done and removes it from the table. The
// resolved check under the lock makes double-resolution a no-op.
func (c *Coordinator) resolve(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.tokens[id]
	if !ok || t.resolved {
		return false
	}
	t.resolved = true
	delete(c.tokens, id)
	if t.timer != nil {
		t.timer.Stop()
	}
	close(t.done)
	return true
}
