// Package app implements the App runtime slot: the binding between a
// tenant's current deployment and its (possibly absent) live Worker.
package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/cuemby/edgefunc/pkg/log"
	"github.com/cuemby/edgefunc/pkg/types"
	"github.com/cuemby/edgefunc/pkg/worker"
)

// SpawnFunc builds a Worker for a resolved deployment. Production code wires
// this to worker.Spawn after unpacking the deployment archive; tests can
// substitute a fake.
type SpawnFunc func(descriptor types.DeploymentDescriptor, cwd, entryScript string) (*worker.Worker, error)

// App is the runtime-side binding of one tenant to its live worker. Its
// slot transitions Empty -> Spawning -> Live -> Closing -> Empty, mirroring
// the original implementation's Arc<RwLock<Option<Sender>>> runtime slot: a
// single read/write-locked optional handle, cleared by a watcher once the
// worker's channel closes.
type App struct {
	tenantID string
	spawn    SpawnFunc

	mu     sync.RWMutex
	state  types.AppState
	worker *worker.Worker
}

// New creates an empty App for tenantID. spawn is invoked, at most once per
// live period, to build a fresh worker when the slot is empty.
func New(tenantID string, spawn SpawnFunc) *App {
	return &App{tenantID: tenantID, spawn: spawn, state: types.AppStateEmpty}
}

// State returns the App's current runtime slot state.
func (a *App) State() types.AppState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// GetOrSpawnWorker returns the tenant's live worker, spawning one from
// descriptor/cwd/entryScript if the slot is currently empty. Concurrent
// callers racing into an empty slot all block on the same spawn; only one
// worker is ever created per live period, mirroring the original
// implementation's get_runtime(): acquire a read lock, and only fall
// through to acquiring a write lock and spawning if the slot was empty.
func (a *App) GetOrSpawnWorker(descriptor types.DeploymentDescriptor, cwd, entryScript string) (*worker.Worker, error) {
	a.mu.RLock()
	if a.state == types.AppStateLive && a.worker != nil {
		w := a.worker
		a.mu.RUnlock()
		return w, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// re-check: another goroutine may have won the race while we waited
	// for the write lock.
	if a.state == types.AppStateLive && a.worker != nil {
		return a.worker, nil
	}

	a.state = types.AppStateSpawning
	w, err := a.spawn(descriptor, cwd, entryScript)
	if err != nil {
		a.state = types.AppStateEmpty
		return nil, fmt.Errorf("spawn worker for tenant %s: %w", a.tenantID, err)
	}

	a.worker = w
	a.state = types.AppStateLive

	go a.watch(w)

	return w, nil
}

// watch clears the runtime slot back to Empty once the worker it holds
// exits, the Go equivalent of the original implementation's watcher task
// observing tx.closed() on the runtime channel.
func (a *App) watch(w *worker.Worker) {
	<-w.Done()

	a.mu.Lock()
	defer a.mu.Unlock()

	// only clear the slot if it still points at this worker: a newer
	// worker may already have replaced it.
	if a.worker == w {
		a.state = types.AppStateClosing
		a.worker = nil
		a.state = types.AppStateEmpty
		log.WithTenant(a.tenantID).Info().Msg("runtime slot cleared")
	}
}

// Close tears down the App's live worker, if any, and waits up to timeout
// for its slot to clear.
func (a *App) Close(timeout time.Duration) {
	a.mu.RLock()
	w := a.worker
	a.mu.RUnlock()

	if w == nil {
		return
	}

	w.Stop()
	select {
	case <-w.Done():
		a.mu.Lock()
		if a.worker == w {
			a.worker = nil
			a.state = types.AppStateEmpty
		}
		a.mu.Unlock()
	case <-time.After(timeout):
		log.WithTenant(a.tenantID).Warn().Msg("worker did not stop within close timeout")
	}
}
