// Package attemptrepo stores in-progress authorization attempts. Attempts
// live only in memory: the service keeps no state between runs, and an
// uploaded credential file exists nowhere but inside its attempt.
package attemptrepo

import (
	"time"

	"github.com/tokenforge/tokenforge/flow"
)

type Repo interface {
	Upsert(attempt *flow.Attempt) error
	Get(id string) (*flow.Attempt, error)
	Delete(id string) error
}

// Clock is overridable for expiry tests.
type Clock func() time.Time

var defaultClock Clock = time.Now
