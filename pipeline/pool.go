package pipeline

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/aouyang1/go-forecast-api/metrics"
)

const (
	DefaultQueueTimeout = 5 * time.Second
	DefaultFitTimeout   = 60 * time.Second
)

// Pool bounds the number of concurrent model fits. Work that cannot get a slot within the
// queue timeout is rejected with ErrOverloaded and work that outlives the fit timeout is
// abandoned with ErrTimeout. Abandoned work keeps its slot until it returns.
type Pool struct {
	sem          *semaphore.Weighted
	queueTimeout time.Duration
	fitTimeout   time.Duration
	recorder     *metrics.Recorder
}

// NewPool creates a pool of size slots. A size of 0 uses the number of CPUs.
func NewPool(size int, queueTimeout, fitTimeout time.Duration, recorder *metrics.Recorder) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	if fitTimeout <= 0 {
		fitTimeout = DefaultFitTimeout
	}
	return &Pool{
		sem:          semaphore.NewWeighted(int64(size)),
		queueTimeout: queueTimeout,
		fitTimeout:   fitTimeout,
		recorder:     recorder,
	}
}

// Do runs fn on a pool slot
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	if err := p.acquire(ctx); err != nil {
		return err
	}

	done := make(chan error, 1)
	p.recorder.FitStarted()
	go func() {
		defer p.sem.Release(1)
		defer p.recorder.FitFinished()
		done <- fn()
	}()

	timer := time.NewTimer(p.fitTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		p.recorder.RecordRejection("timeout")
		return ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) acquire(ctx context.Context) error {
	if p.queueTimeout <= 0 {
		if !p.sem.TryAcquire(1) {
			p.recorder.RecordRejection("overloaded")
			return ErrOverloaded
		}
		return nil
	}

	acquireCtx, cancel := context.WithTimeout(ctx, p.queueTimeout)
	defer cancel()
	if err := p.sem.Acquire(acquireCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.recorder.RecordRejection("overloaded")
		return ErrOverloaded
	}
	return nil
}
