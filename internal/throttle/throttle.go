// Package throttle slows down online password guessing: after too many
// failed verifications for the same username inside the eviction window,
// further attempts are rejected until the counter falls out of the cache.
package throttle

import (
	"encoding/binary"
	"time"

	"github.com/allegro/bigcache/v3"
)

type (
	Limiter struct {
		cache *bigcache.BigCache
		limit int
	}
)

// New builds a limiter that blocks a username after limit failures within
// roughly one window. Counters live only in memory, a restart forgives
// everyone.
func New(limit int, window time.Duration) (*Limiter, error) {
	cache, err := bigcache.NewBigCache(bigcache.DefaultConfig(window))
	if err != nil {
		return nil, err
	}
	return &Limiter{cache: cache, limit: limit}, nil
}

// Allow reports whether username may attempt a verification right now.
func (l *Limiter) Allow(username string) bool {
	return l.count(username) < uint64(l.limit)
}

// Failure records one failed attempt for username.
func (l *Limiter) Failure(username string) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], l.count(username)+1)
	l.cache.Set(username, buf[:])
}

// Success clears the failure counter for username.
func (l *Limiter) Success(username string) {
	l.cache.Delete(username)
}

func (l *Limiter) count(username string) uint64 {
	buf, err := l.cache.Get(username)
	if err != nil || len(buf) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(buf)
}
