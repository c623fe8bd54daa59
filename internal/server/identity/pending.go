package identity

import (
	"context"
	"strings"
	"sync"
	"time"
)

// PendingRegistration is the transient pre-verification state for one email
// address. It lives in process memory only: a restart drops all pending
// registrations, which is an accepted trade-off of the design.
type PendingRegistration struct {
	Username     string
	Email        string
	PasswordHash string
	Code         string
	CreatedAt    time.Time
}

// PendingStore holds pending registrations keyed by lowercased email until
// they are promoted into the directory or their verification window lapses.
// An expired entry is never returned, even if the sweep has not removed it
// yet.
type PendingStore struct {
	mu      sync.Mutex
	entries map[string]PendingRegistration
	window  time.Duration

	now func() time.Time
}

func NewPendingStore(window time.Duration) *PendingStore {
	return &PendingStore{
		entries: make(map[string]PendingRegistration),
		window:  window,
		now:     time.Now,
	}
}

func pendingKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Put stores reg under its email, stamping CreatedAt. A previous entry for
// the same email is overwritten: re-registering before verification restarts
// the window with a fresh code, it never accumulates.
func (p *PendingStore) Put(reg PendingRegistration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	reg.CreatedAt = p.now()
	p.entries[pendingKey(reg.Email)] = reg
}

// Get returns the live entry for email, if any. Entries past the window are
// dropped on sight and reported absent.
func (p *PendingStore) Get(email string) (PendingRegistration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := pendingKey(email)
	reg, ok := p.entries[key]
	if !ok {
		return PendingRegistration{}, false
	}
	if p.now().Sub(reg.CreatedAt) >= p.window {
		delete(p.entries, key)
		return PendingRegistration{}, false
	}
	return reg, true
}

// Remove discards the entry for email, if present.
func (p *PendingStore) Remove(email string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, pendingKey(email))
}

// Len returns the number of stored entries, expired ones included.
func (p *PendingStore) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Sweep drops every expired entry and returns how many were removed.
func (p *PendingStore) Sweep() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	removed := 0
	now := p.now()
	for key, reg := range p.entries {
		if now.Sub(reg.CreatedAt) >= p.window {
			delete(p.entries, key)
			removed++
		}
	}
	return removed
}

// Run sweeps expired entries every interval until ctx is cancelled.
func (p *PendingStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Sweep()
		}
	}
}
