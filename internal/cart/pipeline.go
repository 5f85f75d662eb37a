package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	pkgerrors "github.com/verdantmarket/cartsync/pkg/errors"
	"github.com/verdantmarket/cartsync/pkg/logger"
	"github.com/verdantmarket/cartsync/pkg/metrics"
)

// errNoop marks a mutation that matched nothing; the store keeps its state
// and skips the persistence dispatch.
var errNoop = errors.New("cart: mutation matched no line")

// persistJob carries one published snapshot to the worker. The backend is
// captured at dispatch time so a backend swap never redirects an older list.
type persistJob struct {
	seq      uint64
	op       string
	backend  Backend
	lines    []Line
	snapshot []Line
}

// pipeline serializes replace-all writes on a single worker goroutine. A job
// whose sequence is no longer the latest is dropped: each write is a full-list
// overwrite, so only the newest snapshot may reach the backend, and a stale
// failure must not roll back newer state.
type pipeline struct {
	store    *Store
	jobs     chan persistJob
	pending  sync.WaitGroup
	stopOnce sync.Once
	stopped  chan struct{}
	timeout  time.Duration
	logg     *logger.Logger
	notifier Notifier
	metrics  *metrics.CartMetrics
}

func newPipeline(store *Store, opts StoreOptions) *pipeline {
	p := &pipeline{
		store:    store,
		jobs:     make(chan persistJob, opts.QueueSize),
		stopped:  make(chan struct{}),
		timeout:  opts.PersistTimeout,
		logg:     opts.Logger,
		notifier: opts.Notifier,
		metrics:  opts.Metrics,
	}
	go p.run()
	return p
}

func (p *pipeline) enqueue(job persistJob) {
	p.pending.Add(1)
	p.jobs <- job
}

func (p *pipeline) flush() {
	p.pending.Wait()
}

func (p *pipeline) close() {
	p.stopOnce.Do(func() {
		p.pending.Wait()
		close(p.jobs)
		<-p.stopped
	})
}

func (p *pipeline) run() {
	for job := range p.jobs {
		p.process(job)
		p.pending.Done()
	}
	close(p.stopped)
}

func (p *pipeline) process(job persistJob) {
	if p.store.latestSeq() != job.seq {
		p.metrics.IncStaleDiscard()
		return
	}

	// Detached from the request context: the mutation is already published,
	// so a client disconnect must not abort its write.
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	start := time.Now()
	err := job.backend.ReplaceAll(ctx, job.lines)
	p.metrics.ObservePersist(job.backend.Name(), time.Since(start), err)

	if err == nil {
		p.notifier.MutationPersisted(ctx, job.op)
		return
	}

	failure := pkgerrors.Wrap(pkgerrors.CodeDependency, err, "could not save your cart")
	if p.store.rollback(job.seq, job.snapshot) {
		p.metrics.IncRollback()
		if p.logg != nil {
			p.logg.Error(p.logg.WithField(ctx, "op", job.op), "cart write failed, rolled back to previous state", err)
		}
		p.notifier.MutationFailed(ctx, job.op, failure)
		return
	}

	// A newer mutation was published while this write was in flight; its own
	// persistence attempt owns the outcome now.
	p.metrics.IncStaleDiscard()
	if p.logg != nil {
		p.logg.Warn(p.logg.WithField(ctx, "op", job.op), "stale cart write failed, superseded by a newer mutation")
	}
}
