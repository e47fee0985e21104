//nolint:testpackage // Shares fakes with the pipeline tests
package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/citypulse/enrichment/internal/domain"
)

func TestQueue_ProcessesAllSubmittedReports(t *testing.T) {
	const n = 40

	reports := make([]*domain.Report, 0, n)
	for i := 0; i < n; i++ {
		r := testReport(domain.StageCreated)
		r.ID = fmt.Sprintf("r-%d", i)
		reports = append(reports, r)
	}
	store := newFakeStore(reports...)
	agg := &fakeAggregator{}
	p := newTestPipeline(store, &fakeAnalyzer{result: negativeResult()}, agg, nil)

	q := NewQueue(p, 4, 8, nil, nil)
	require.NoError(t, q.Start(context.Background()))

	for _, r := range reports {
		q.Submit(r.ID)
	}
	q.Stop()

	agg.mu.Lock()
	defer agg.mu.Unlock()
	require.Len(t, agg.folds, n)
}

func TestQueue_SubmitNeverBlocks(t *testing.T) {
	store := newFakeStore()
	p := newTestPipeline(store, &fakeAnalyzer{result: negativeResult()}, &fakeAggregator{}, nil)

	// Queue not started: nothing drains the buffer.
	q := NewQueue(p, 1, 2, nil, nil)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			q.Submit(fmt.Sprintf("r-%d", i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Submit blocked on a full queue")
	}
}

func TestQueue_SubmitRacingStopDoesNotPanic(t *testing.T) {
	const n = 50

	reports := make([]*domain.Report, 0, n)
	for i := 0; i < n; i++ {
		r := testReport(domain.StageCreated)
		r.ID = fmt.Sprintf("r-%d", i)
		reports = append(reports, r)
	}
	store := newFakeStore(reports...)
	p := newTestPipeline(store, &fakeAnalyzer{result: negativeResult()}, &fakeAggregator{}, nil)

	// Tiny buffer forces overflow handoffs while Stop is closing the channel.
	q := NewQueue(p, 2, 1, nil, nil)
	require.NoError(t, q.Start(context.Background()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, r := range reports {
			q.Submit(r.ID)
		}
	}()

	q.Stop()
	<-done

	// Late submissions against a stopped queue are dropped, not panics.
	q.Submit("r-late")
}

func TestQueue_StartTwiceFails(t *testing.T) {
	p := newTestPipeline(newFakeStore(), &fakeAnalyzer{}, &fakeAggregator{}, nil)
	q := NewQueue(p, 1, 1, nil, nil)

	require.NoError(t, q.Start(context.Background()))
	require.Error(t, q.Start(context.Background()))
	q.Stop()
}

func TestPoller_ResubmitsStaleReports(t *testing.T) {
	stale := testReport(domain.StageCreated)
	stale.CreatedAt = time.Now().Add(-time.Hour)
	store := newFakeStore(stale)

	agg := &fakeAggregator{}
	p := newTestPipeline(store, &fakeAnalyzer{result: negativeResult()}, agg, nil)

	q := NewQueue(p, 1, 4, nil, nil)
	require.NoError(t, q.Start(context.Background()))

	poller := NewPoller(store, q, PollerConfig{
		Interval: 10 * time.Millisecond,
		StaleAge: time.Minute,
		Batch:    10,
	}, nil)
	require.NoError(t, poller.Start(context.Background()))

	require.Eventually(t, func() bool {
		agg.mu.Lock()
		defer agg.mu.Unlock()
		return len(agg.folds) == 1
	}, 2*time.Second, 10*time.Millisecond)

	poller.Stop()
	q.Stop()
}

func TestPoller_StartTwiceFails(t *testing.T) {
	store := newFakeStore()
	p := newTestPipeline(store, &fakeAnalyzer{}, &fakeAggregator{}, nil)
	q := NewQueue(p, 1, 1, nil, nil)

	poller := NewPoller(store, q, PollerConfig{Interval: time.Hour}, nil)
	require.NoError(t, poller.Start(context.Background()))
	require.Error(t, poller.Start(context.Background()))
	poller.Stop()
}
