// Package hub fans freshly built reports out to live subscribers such as websocket clients.
package hub

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/atikulmunna/pageview/internal/report"
)

const subscriberBuffer = 16

// Hub receives reports and broadcasts them to all subscribers.
type Hub struct {
	input       <-chan *report.Report
	logger      *zap.Logger
	mu          sync.RWMutex
	subscribers map[chan *report.Report]struct{}
	latest      *report.Report
	dropped     int64
	closed      bool
}

// New creates a Hub that reads from the input channel. A nil logger discards logs.
func New(input <-chan *report.Report, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		input:       input,
		logger:      logger,
		subscribers: make(map[chan *report.Report]struct{}),
	}
}

// Subscribe returns a buffered channel that receives every report published after
// the call. The most recent report, if any, is delivered first.
func (h *Hub) Subscribe() <-chan *report.Report {
	ch := make(chan *report.Report, subscriberBuffer)
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(ch)
		return ch
	}
	if h.latest != nil {
		ch <- h.latest
	}
	h.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe stops delivery to ch and closes it. Unknown channels are ignored.
func (h *Hub) Unsubscribe(sub <-chan *report.Report) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		if ch == sub {
			delete(h.subscribers, ch)
			close(ch)
			return
		}
	}
}

// Subscribers returns the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Latest returns the last report received, or nil.
func (h *Hub) Latest() *report.Report {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// Dropped returns the total number of reports dropped due to slow consumers.
func (h *Hub) Dropped() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// Start begins reading from the input channel and broadcasting.
// Blocks until the context is cancelled or the input channel is closed.
func (h *Hub) Start(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case rep, ok := <-h.input:
			if !ok {
				return
			}
			h.broadcast(rep)
		}
	}
}

// broadcast sends a report to all subscribers.
// If a subscriber's channel is full, the report is dropped for that subscriber.
func (h *Hub) broadcast(rep *report.Report) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = rep
	for ch := range h.subscribers {
		select {
		case ch <- rep:
		default:
			h.dropped++
			h.logger.Warn("dropped report for slow consumer", zap.Int64("dropped_total", h.dropped))
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		close(ch)
	}
	h.subscribers = make(map[chan *report.Report]struct{})
	h.closed = true
}
