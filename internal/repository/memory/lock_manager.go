package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"rides/internal/repository"
)

var _ repository.LockManager = (*LockManager)(nil)

// LockManager holds TTL-bounded reservations in process memory. The dispatcher
// takes "driver:<id>" while it writes a trip for that driver, so two requests
// racing on the same least-loaded driver spread out instead of piling on.
//
// This version only coordinates goroutines inside one process. Deployments
// with more than one instance use the Redis lock manager instead.
//
// Go Learning Note — Channels for Signaling:
// stop is a chan struct{} used purely as a signal. Closing it wakes every
// receiver at once, which is how Stop tells the sweeper goroutine to exit.
type LockManager struct {
	mu       sync.Mutex
	locks    map[string]reservation
	stop     chan struct{}
	stopOnce sync.Once
}

type reservation struct {
	token     string
	expiresAt time.Time
}

// NewLockManager creates a LockManager and starts the goroutine that sweeps
// expired reservations. Call Stop on shutdown.
func NewLockManager() *LockManager {
	lm := &LockManager{
		locks: make(map[string]reservation),
		stop:  make(chan struct{}),
	}
	go lm.sweepExpired(time.Second)
	return lm
}

// AcquireLock returns a fresh token and true when the key was free or its
// previous holder let it expire, and false while somebody else holds it. This
// is the in-process twin of Redis's `SET key token NX PX ttl`.
func (lm *LockManager) AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	lm.mu.Lock()
	defer lm.mu.Unlock()

	now := time.Now()
	if r, held := lm.locks[key]; held && now.Before(r.expiresAt) {
		return "", false, nil
	}
	token := uuid.NewString()
	lm.locks[key] = reservation{token: token, expiresAt: now.Add(ttl)}
	return token, true, nil
}

// ReleaseLock frees key only if token still owns it.
func (lm *LockManager) ReleaseLock(ctx context.Context, key, token string) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if r, held := lm.locks[key]; held && r.token == token {
		delete(lm.locks, key)
	}
	return nil
}

// sweepExpired drops reservations whose holder never released them, e.g. a
// request that panicked between acquire and release.
//
// Go Learning Note — time.NewTicker:
// A ticker repeats until stopped. Always defer ticker.Stop() so the runtime
// can release the timer once the goroutine exits.
func (lm *LockManager) sweepExpired(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lm.mu.Lock()
			now := time.Now()
			for key, r := range lm.locks {
				if !now.Before(r.expiresAt) {
					delete(lm.locks, key)
				}
			}
			lm.mu.Unlock()
		case <-lm.stop:
			return
		}
	}
}

// Stop ends the sweeper goroutine. Safe to call more than once.
func (lm *LockManager) Stop() {
	lm.stopOnce.Do(func() { close(lm.stop) })
}
