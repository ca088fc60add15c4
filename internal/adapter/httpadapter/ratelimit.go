package httpadapter

import (
	"context"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// ClientLimiter keeps one token bucket per client address. Buckets idle for
// longer than the sweep window are dropped by Sweep.
type ClientLimiter struct {
	limiters sync.Map // string -> *clientBucket
	rate     rate.Limit
	burst    int
	clock    clockwork.Clock
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// NewClientLimiter creates a limiter allowing perSecond requests per client
// with the given burst. A nil clock uses the real clock.
func NewClientLimiter(perSecond float64, burst int, clock clockwork.Clock) *ClientLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ClientLimiter{
		rate:  rate.Limit(perSecond),
		burst: burst,
		clock: clock,
	}
}

// Allow reports whether the client may make a request now.
func (l *ClientLimiter) Allow(client string) bool {
	b := l.bucket(client)
	b.lastSeen.Store(l.clock.Now().UnixNano())
	return b.limiter.Allow()
}

func (l *ClientLimiter) bucket(client string) *clientBucket {
	if v, ok := l.limiters.Load(client); ok {
		return v.(*clientBucket)
	}
	v, _ := l.limiters.LoadOrStore(client, &clientBucket{limiter: rate.NewLimiter(l.rate, l.burst)})
	return v.(*clientBucket)
}

// Sweep drops the buckets of clients not seen within idle and returns how
// many were removed.
func (l *ClientLimiter) Sweep(idle time.Duration) int {
	cutoff := l.clock.Now().Add(-idle).UnixNano()
	removed := 0
	l.limiters.Range(func(key, value any) bool {
		if value.(*clientBucket).lastSeen.Load() < cutoff {
			l.limiters.CompareAndDelete(key, value)
			removed++
		}
		return true
	})
	return removed
}

// Len returns the number of tracked clients.
func (l *ClientLimiter) Len() int {
	n := 0
	l.limiters.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Run sweeps idle clients every interval until ctx is cancelled.
func (l *ClientLimiter) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := l.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			l.Sweep(idle)
		}
	}
}

// clientKey is the remote host without its port.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
