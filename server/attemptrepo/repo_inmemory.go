package attemptrepo

import (
	"sync"
	"time"

	"github.com/tokenforge/tokenforge/flow"
	"github.com/tokenforge/tokenforge/internal/errors"
)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo
// interface. Attempts expire after a fixed lifetime; expired entries are
// dropped lazily on access.
type InMemoryRepo struct {
	mu       sync.RWMutex
	attempts map[string]*flow.Attempt
	lifetime time.Duration
	now      Clock
}

// NewInMemoryRepo creates a repository whose attempts expire after lifetime.
func NewInMemoryRepo(lifetime time.Duration) *InMemoryRepo {
	return &InMemoryRepo{
		attempts: make(map[string]*flow.Attempt),
		lifetime: lifetime,
		now:      defaultClock,
	}
}

// SetClock replaces the time source. Test hook.
func (r *InMemoryRepo) SetClock(clock Clock) {
	r.now = clock
}

// Upsert stores or updates an attempt keyed by its ID.
func (r *InMemoryRepo) Upsert(attempt *flow.Attempt) error {
	if attempt == nil {
		return errors.Wrapf(errors.ErrAttemptNotFound, "nil attempt")
	}
	if attempt.ID == "" {
		return errors.Wrapf(errors.ErrAttemptNotFound, "attempt has no ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.purgeExpiredLocked()
	r.attempts[attempt.ID] = attempt
	return nil
}

// Get retrieves a live attempt. Expired attempts are removed and reported
// as expired so the wizard can tell the user to start over.
func (r *InMemoryRepo) Get(id string) (*flow.Attempt, error) {
	if id == "" {
		return nil, errors.Wrapf(errors.ErrAttemptNotFound, "empty attempt ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	attempt, ok := r.attempts[id]
	if !ok {
		return nil, errors.ErrAttemptNotFound
	}
	if r.expired(attempt) {
		delete(r.attempts, id)
		return nil, errors.ErrAttemptExpired
	}
	return attempt, nil
}

// Delete removes an attempt. Deleting a missing attempt is not an error.
func (r *InMemoryRepo) Delete(id string) error {
	if id == "" {
		return errors.Wrapf(errors.ErrAttemptNotFound, "empty attempt ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.attempts, id)
	return nil
}

func (r *InMemoryRepo) expired(attempt *flow.Attempt) bool {
	return r.now().After(attempt.ExpiresAt(r.lifetime))
}

func (r *InMemoryRepo) purgeExpiredLocked() {
	for id, attempt := range r.attempts {
		if r.expired(attempt) {
			delete(r.attempts, id)
		}
	}
}
