package worker

import (
	"context"
	"sync/atomic"
	"testing"
)

type testJob struct {
	id      int
	counter *int64
	block   chan struct{} // optional: job waits here or for ctx
}

type testResult struct {
	id  int
	err error
}

func (r *testResult) GetError() error { return r.err }

func (j *testJob) Execute(ctx context.Context) Result {
	if j.block != nil {
		select {
		case <-j.block:
		case <-ctx.Done():
			return &testResult{id: j.id, err: ctx.Err()}
		}
	}
	atomic.AddInt64(j.counter, 1)
	return &testResult{id: j.id}
}

func TestPool_RunsAllJobs(t *testing.T) {
	pool := NewPool(context.Background(), 4)
	pool.Start()

	var counter int64
	const jobs = 20
	for i := 0; i < jobs; i++ {
		pool.Submit(&testJob{id: i, counter: &counter})
	}

	results := pool.Wait()
	if len(results) != jobs {
		t.Errorf("expected %d results, got %d", jobs, len(results))
	}
	if atomic.LoadInt64(&counter) != jobs {
		t.Errorf("expected %d executions, got %d", jobs, counter)
	}
	for _, r := range results {
		if r.GetError() != nil {
			t.Errorf("unexpected job error: %v", r.GetError())
		}
	}
}

func TestPool_SingleWorkerSerializes(t *testing.T) {
	pool := NewPool(context.Background(), 1)
	pool.Start()

	var counter int64
	for i := 0; i < 5; i++ {
		pool.Submit(&testJob{id: i, counter: &counter})
	}

	results := pool.Wait()
	if len(results) != 5 {
		t.Errorf("expected 5 results, got %d", len(results))
	}
}

func TestPool_ParentCancellationReachesJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, 2)
	pool.Start()

	var counter int64
	block := make(chan struct{})
	pool.Submit(&testJob{id: 0, counter: &counter, block: block})

	cancel()
	results := pool.Wait()

	for _, r := range results {
		if r.GetError() == nil {
			t.Error("blocked job must observe cancellation")
		}
	}
	if atomic.LoadInt64(&counter) != 0 {
		t.Errorf("cancelled job must not complete, counter %d", counter)
	}
}

func TestPool_WaitWithNoJobs(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()

	results := pool.Wait()
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}
