// Package worker runs a single tenant's live deployment: one goroutine
// pinned to one isolate, serving a FIFO queue of in-flight requests until it
// idles out.
package worker

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/edgefunc/pkg/isolate"
	"github.com/cuemby/edgefunc/pkg/log"
	"github.com/cuemby/edgefunc/pkg/metrics"
	"github.com/cuemby/edgefunc/pkg/types"
)

// request is one queued HTTP request awaiting a response from the worker's
// isolate.
type request struct {
	httpReq *http.Request
	body    []byte
	done    chan types.SessionResult
}

// Config holds the parameters needed to spawn a Worker.
type Config struct {
	TenantID      string
	Descriptor    types.DeploymentDescriptor
	Cwd           string // unpacked archive directory, read into globalThis.cwd
	EntryScript   string // the entry script's source
	QueueCapacity int
	IdleTimeout   time.Duration
	KV            isolate.KVCapability // nil disables the script-visible "kv" global
}

// Worker owns exactly one isolate for exactly one tenant's current
// deployment. It is the runtime-side analog of the original implementation's
// per-App Runtime + handle_request loop: a dedicated goroutine reading off a
// bounded channel, terminating the isolate and exiting after IdleTimeout
// with no work.
type Worker struct {
	tenantID    string
	queue       chan *request
	idleTimeout time.Duration
	logger      zerolog.Logger

	iso *isolate.Isolate

	stopCh chan struct{}
	doneCh chan struct{} // closed once run() returns, for any reason
}

// Spawn starts a Worker's isolate and its request-handling goroutine. The
// returned Worker is not usable until its isolate finishes bootstrapping;
// Spawn blocks until that happens (or fails).
func Spawn(cfg Config) (*Worker, error) {
	iso, err := isolate.New(isolate.Options{
		Cwd:               cfg.Cwd,
		EntryScriptSource: cfg.EntryScript,
		Permissions:       cfg.Descriptor.Permissions,
		TenantID:          cfg.TenantID,
		KV:                cfg.KV,
	})
	if err != nil {
		return nil, fmt.Errorf("spawn worker for tenant %s: %w", cfg.TenantID, err)
	}

	w := &Worker{
		tenantID:    cfg.TenantID,
		queue:       make(chan *request, cfg.QueueCapacity),
		idleTimeout: cfg.IdleTimeout,
		logger:      log.WithTenant(cfg.TenantID),
		iso:         iso,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}

	metrics.WorkerSpawnsTotal.Inc()
	metrics.WorkersLive.WithLabelValues(cfg.TenantID).Set(1)

	go w.run()

	return w, nil
}

// Submit enqueues an HTTP request for this worker to handle. When the
// queue is at capacity, Submit blocks until space frees up (backpressure),
// ctx is done, or the worker stops — it never rejects a request just
// because the queue is momentarily full. It returns false if ctx is done
// or the worker has already stopped before the request could be enqueued.
func (w *Worker) Submit(ctx context.Context, r *http.Request, body []byte) (chan types.SessionResult, bool) {
	done := make(chan types.SessionResult, 1)
	req := &request{httpReq: r, body: body, done: done}

	select {
	case w.queue <- req:
		metrics.RequestQueueDepth.WithLabelValues(w.tenantID).Set(float64(len(w.queue)))
		return done, true
	case <-w.stopCh:
		return nil, false
	case <-ctx.Done():
		return nil, false
	}
}

// Stop requests that the worker's run loop exit after its current request,
// without waiting for the idle timeout.
func (w *Worker) Stop() {
	select {
	case <-w.doneCh:
		// already stopped
	default:
		close(w.stopCh)
	}
}

// Done returns a channel that closes once the worker's goroutine has
// exited, whether due to Stop, idle timeout, or isolate failure.
func (w *Worker) Done() <-chan struct{} {
	return w.doneCh
}

// run is the worker's main loop: the Go equivalent of the original
// implementation's handle_request tokio::select! between rx.recv() and a
// 5-second sleep that terminates the runtime when nothing arrives in time.
func (w *Worker) run() {
	defer close(w.doneCh)
	defer w.teardown()

	w.logger.Info().Msg("worker started")

	idle := time.NewTimer(w.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case req := <-w.queue:
			if !idle.Stop() {
				<-idle.C
			}

			result, err := w.iso.HandleRequest(req.httpReq, req.body)
			if err != nil {
				req.done <- types.SessionResult{Err: err}
			} else {
				req.done <- *result
			}

			metrics.RequestQueueDepth.WithLabelValues(w.tenantID).Set(float64(len(w.queue)))
			idle.Reset(w.idleTimeout)

		case <-idle.C:
			w.logger.Info().Dur("idle_timeout", w.idleTimeout).Msg("idle timeout reached, reaping worker")
			metrics.WorkerIdleReapsTotal.Inc()
			return

		case <-w.stopCh:
			w.logger.Info().Msg("worker stopped")
			return
		}
	}
}

func (w *Worker) teardown() {
	w.iso.Terminate("worker shutting down")
	metrics.WorkersLive.WithLabelValues(w.tenantID).Set(0)
}
