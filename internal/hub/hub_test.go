package hub

import (
	"context"
	"testing"
	"time"

	"github.com/atikulmunna/pageview/internal/aggregator"
	"github.com/atikulmunna/pageview/internal/report"
)

func newReport(visits int) *report.Report {
	return &report.Report{Totals: aggregator.Stats{Visits: visits}}
}

func receive(t *testing.T, name string, ch <-chan *report.Report) *report.Report {
	t.Helper()
	select {
	case rep, ok := <-ch:
		if !ok {
			t.Fatalf("%s: channel closed", name)
		}
		return rep
	case <-time.After(1 * time.Second):
		t.Fatalf("%s: timed out", name)
		return nil
	}
}

// waitFor polls cond until it holds or a second has passed.
func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(1 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestHubBroadcast(t *testing.T) {
	input := make(chan *report.Report, 10)
	h := New(input, nil)

	sub1 := h.Subscribe()
	sub2 := h.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Start(ctx)

	input <- newReport(7)

	// Both subscribers should receive it.
	if rep := receive(t, "sub1", sub1); rep.Totals.Visits != 7 {
		t.Errorf("sub1: expected 7 visits, got %d", rep.Totals.Visits)
	}
	if rep := receive(t, "sub2", sub2); rep.Totals.Visits != 7 {
		t.Errorf("sub2: expected 7 visits, got %d", rep.Totals.Visits)
	}
}

func TestHubLateSubscriberGetsLatest(t *testing.T) {
	input := make(chan *report.Report, 10)
	h := New(input, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Start(ctx)

	input <- newReport(3)
	if !waitFor(t, func() bool { return h.Latest() != nil }) {
		t.Fatal("report was never received")
	}

	if rep := receive(t, "late", h.Subscribe()); rep.Totals.Visits != 3 {
		t.Errorf("expected latest report with 3 visits, got %d", rep.Totals.Visits)
	}
}

func TestHubUnsubscribe(t *testing.T) {
	h := New(make(chan *report.Report), nil)

	sub := h.Subscribe()
	if n := h.Subscribers(); n != 1 {
		t.Fatalf("expected 1 subscriber, got %d", n)
	}

	h.Unsubscribe(sub)
	if n := h.Subscribers(); n != 0 {
		t.Errorf("expected 0 subscribers, got %d", n)
	}
	if _, ok := <-sub; ok {
		t.Error("expected unsubscribed channel to be closed")
	}

	// Unsubscribing twice is a no-op.
	h.Unsubscribe(sub)
}

func TestHubSlowConsumer(t *testing.T) {
	input := make(chan *report.Report, 10)
	h := New(input, nil)

	// Subscribe but never read: a slow consumer.
	_ = h.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Start(ctx)

	// Fill beyond the subscriber buffer.
	for i := 0; i < subscriberBuffer+10; i++ {
		input <- newReport(i)
	}

	if !waitFor(t, func() bool { return h.Dropped() == 10 }) {
		t.Errorf("expected 10 dropped reports for slow consumer, got %d", h.Dropped())
	}
}

func TestHubClosesSubscribersOnStop(t *testing.T) {
	input := make(chan *report.Report)
	h := New(input, nil)
	sub := h.Subscribe()

	done := make(chan struct{})
	go func() {
		h.Start(context.Background())
		close(done)
	}()
	close(input)
	<-done

	if _, ok := <-sub; ok {
		t.Error("expected subscriber channel to be closed after stop")
	}
	if _, ok := <-h.Subscribe(); ok {
		t.Error("expected subscription after stop to be closed")
	}
}
