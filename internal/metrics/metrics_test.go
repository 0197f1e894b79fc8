package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCounter(t *testing.T) {
	var c Counter
	c.Inc()
	c.Add(4)
	assert.Equal(t, uint64(5), c.Load())
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Counter(OrdersCreated).Inc()
		}()
	}
	wg.Wait()
	r.Counter(RefundsIssued).Inc()

	snap := r.Snapshot()
	assert.Equal(t, uint64(50), snap[OrdersCreated])
	assert.Equal(t, uint64(1), snap[RefundsIssued])
	assert.Equal(t, []string{OrdersCreated, RefundsIssued}, r.Names())
	assert.Same(t, r.Counter(OrdersCreated), r.Counter(OrdersCreated))
}

func TestTimer(t *testing.T) {
	timer := StartTimer()
	time.Sleep(time.Millisecond)
	assert.GreaterOrEqual(t, timer.Duration(), time.Millisecond)
}

func TestDefaultInc(t *testing.T) {
	before := Default().Counter(WebhooksReceived).Load()
	Inc(WebhooksReceived)
	assert.Equal(t, before+1, Default().Counter(WebhooksReceived).Load())
}
