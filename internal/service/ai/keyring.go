package ai

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"elenchus/internal/domain"
)

// Credential is one entry in the provider key pool. Each credential carries
// its own rate limiter so a burst against one key does not starve the rest.
type Credential struct {
	Key     string
	limiter *rate.Limiter
}

// Limiter returns the credential's rate limiter.
func (c *Credential) Limiter() *rate.Limiter {
	return c.limiter
}

// Keyring manages a static pool of provider credentials: round-robin
// selection skipping credentials inside their failure cooldown. No
// credential is ever removed; a failed one becomes eligible again once its
// cooldown elapses.
type Keyring struct {
	mu       sync.Mutex
	creds    []*Credential
	failedAt map[*Credential]time.Time
	next     int
	cooldown time.Duration
	now      func() time.Time
}

// NewKeyring creates a keyring over the given keys. cooldown is how long a
// credential is skipped after a reported failure; rps and burst set each
// credential's rate limiter, so the cap can track the provider tier.
// Non-positive values fall back to 1 rps with a burst of 3.
func NewKeyring(keys []string, cooldown time.Duration, rps float64, burst int) (*Keyring, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("credential pool is empty")
	}
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 3
	}

	creds := make([]*Credential, len(keys))
	for i, key := range keys {
		creds[i] = &Credential{
			Key:     key,
			limiter: rate.NewLimiter(rate.Limit(rps), burst),
		}
	}

	return &Keyring{
		creds:    creds,
		failedAt: make(map[*Credential]time.Time),
		cooldown: cooldown,
		now:      time.Now,
	}, nil
}

// Acquire returns the next usable credential, round-robin with failure skip.
// When every credential is cooling down it returns domain.ErrExhaustedPool:
// the caller should surface "service busy" rather than retry indefinitely.
func (k *Keyring) Acquire() (*Credential, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	for i := 0; i < len(k.creds); i++ {
		cred := k.creds[k.next]
		k.next = (k.next + 1) % len(k.creds)

		if failed, ok := k.failedAt[cred]; ok {
			if now.Sub(failed) < k.cooldown {
				continue
			}
			delete(k.failedAt, cred)
		}
		return cred, nil
	}

	return nil, domain.ErrExhaustedPool
}

// ReportFailure marks a credential unusable for the cooldown window.
// Repeated reports for the same failed call are idempotent.
func (k *Keyring) ReportFailure(cred *Credential) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.failedAt[cred] = k.now()
}

// Size returns the pool size.
func (k *Keyring) Size() int {
	return len(k.creds)
}
