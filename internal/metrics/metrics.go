package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Counter names reported on /health.
const (
	CheckoutSessionsCreated = "checkout_sessions_created"
	CheckoutSessionsFailed  = "checkout_sessions_failed"
	WebhooksReceived        = "webhooks_received"
	WebhooksRejected        = "webhooks_rejected"
	WebhooksDuplicate       = "webhooks_duplicate"
	OrdersCreated           = "orders_created"
	OrdersReplayed          = "orders_replayed"
	OrdersFailed            = "orders_failed"
	RefundsIssued           = "refunds_issued"
	EmailsFailed            = "emails_failed"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Registry hands out counters by name.
type Registry struct {
	mu       sync.RWMutex
	counters map[string]*Counter
	started  time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		counters: make(map[string]*Counter),
		started:  time.Now(),
	}
}

var defaultRegistry = NewRegistry()

func Default() *Registry {
	return defaultRegistry
}

// Inc increments a counter on the default registry.
func Inc(name string) {
	defaultRegistry.Counter(name).Inc()
}

func (r *Registry) Counter(name string) *Counter {
	r.mu.RLock()
	c, ok := r.counters[name]
	r.mu.RUnlock()
	if ok {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok = r.counters[name]; !ok {
		c = &Counter{}
		r.counters[name] = c
	}
	return c
}

func (r *Registry) Snapshot() map[string]uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]uint64, len(r.counters))
	for name, c := range r.counters {
		out[name] = c.Load()
	}
	return out
}

func (r *Registry) Names() []string {
	snap := r.Snapshot()
	names := make([]string, 0, len(snap))
	for n := range snap {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Uptime() time.Duration {
	return time.Since(r.started)
}
