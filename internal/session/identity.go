package session

import (
	"context"
	"sync"
	"time"

	"github.com/turtacn/Tether/pkg/errors"
	"github.com/turtacn/Tether/pkg/logger"
)

// Identity is the session key issued by the server, delivered once by the
// authorization step and awaited by the bootstrap.
type Identity struct {
	once  sync.Once
	ready chan struct{}
	key   string
	err   error
}

func NewIdentity() *Identity {
	return &Identity{ready: make(chan struct{})}
}

// Resolve delivers the session key. Only the first Resolve or Reject counts.
func (id *Identity) Resolve(key string) {
	id.once.Do(func() {
		id.key = key
		close(id.ready)
	})
}

// Reject fails every current and future Await with err.
func (id *Identity) Reject(err error) {
	id.once.Do(func() {
		id.err = err
		close(id.ready)
	})
}

// Await blocks until the key is delivered, ctx is done or timeout elapses.
func (id *Identity) Await(ctx context.Context, timeout time.Duration) (string, error) {
	logger.Log.Debug("Waiting for session identity...", "timeout", timeout)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-id.ready:
		if id.err != nil {
			return "", id.err
		}
		return id.key, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return "", errors.New(errors.ErrCodeIdentityTimeout, "session.Await", "no session key delivered", errors.ErrIdentityTimeout)
	}
}

// Personal.AI order the ending
