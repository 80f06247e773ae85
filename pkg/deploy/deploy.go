// Package deploy implements the Deployment Loader: it resolves a tenant's
// current deployment, unpacks its archive to local disk, and keeps every
// App's cached deployment in sync with the control plane on a ticker.
package deploy

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cuemby/edgefunc/pkg/app"
	"github.com/cuemby/edgefunc/pkg/isolate"
	"github.com/cuemby/edgefunc/pkg/log"
	"github.com/cuemby/edgefunc/pkg/metrics"
	"github.com/cuemby/edgefunc/pkg/objectstore"
	"github.com/cuemby/edgefunc/pkg/store"
	"github.com/cuemby/edgefunc/pkg/types"
	"github.com/cuemby/edgefunc/pkg/worker"
	"github.com/rs/zerolog"
)

// Loader owns every tenant's App and keeps each one's unpacked deployment
// current. It is grounded on the teacher's Reconciler: a ticker-driven loop
// timed with metrics.Timer, logging with a component logger, tolerating
// per-tenant failures without aborting the cycle.
type Loader struct {
	store      store.Store
	objects    *objectstore.Client
	kv         isolate.KVCapability
	unpackRoot string

	queueCapacity int
	idleTimeout   time.Duration
	interval      time.Duration

	logger zerolog.Logger

	mu          sync.RWMutex
	apps        map[string]*app.App
	archiveKeys map[string]string // tenantID -> last unpacked archive key
	tenants     []*types.Tenant   // known tenants, sorted by ID, refreshed each cycle

	stopCh chan struct{}
}

// Config configures a Loader.
type Config struct {
	Store               store.Store
	Objects             *objectstore.Client
	KV                  isolate.KVCapability // nil disables the script-visible "kv" global
	UnpackRoot          string
	ReconcileInterval   time.Duration
	WorkerIdleTimeout   time.Duration
	WorkerQueueCapacity int
}

// NewLoader builds a Loader. Call Start to begin its reconciliation loop.
func NewLoader(cfg Config) *Loader {
	return &Loader{
		store:         cfg.Store,
		objects:       cfg.Objects,
		kv:            cfg.KV,
		unpackRoot:    cfg.UnpackRoot,
		queueCapacity: cfg.WorkerQueueCapacity,
		idleTimeout:   cfg.WorkerIdleTimeout,
		interval:      cfg.ReconcileInterval,
		logger:        log.WithComponent("deploy"),
		apps:          make(map[string]*app.App),
		archiveKeys:   make(map[string]string),
		stopCh:        make(chan struct{}),
	}
}

// Start begins the reconciliation loop in a new goroutine.
func (l *Loader) Start() {
	go l.run()
}

// Stop ends the reconciliation loop and closes every live App.
func (l *Loader) Stop() {
	close(l.stopCh)

	l.mu.RLock()
	apps := make([]*app.App, 0, len(l.apps))
	for _, a := range l.apps {
		apps = append(apps, a)
	}
	l.mu.RUnlock()

	for _, a := range apps {
		a.Close(5 * time.Second)
	}
}

// Dispatch resolves tenantID's App (creating it on first use), ensures its
// deployment is unpacked locally, and submits r to its live worker.
func (l *Loader) Dispatch(ctx context.Context, tenantID string, r *http.Request, body []byte) (chan types.SessionResult, bool, error) {
	descriptor, cwd, entryScriptSource, err := l.resolveDeployment(ctx, tenantID)
	if err != nil {
		return nil, false, err
	}

	a := l.appFor(tenantID)
	w, err := a.GetOrSpawnWorker(descriptor, cwd, entryScriptSource)
	if err != nil {
		return nil, false, err
	}

	done, ok := w.Submit(ctx, r, body)
	return done, ok, nil
}

func (l *Loader) appFor(tenantID string) *app.App {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.apps[tenantID]
	if !ok {
		metrics.AppsTotal.Inc()
		a = app.New(tenantID, func(descriptor types.DeploymentDescriptor, cwd, entryScript string) (*worker.Worker, error) {
			return worker.Spawn(worker.Config{
				TenantID:      descriptor.TenantID,
				Descriptor:    descriptor,
				Cwd:           cwd,
				EntryScript:   entryScript,
				QueueCapacity: l.queueCapacity,
				IdleTimeout:   l.idleTimeout,
				KV:            l.kv,
			})
		})
		l.apps[tenantID] = a
	}
	return a
}

// resolveDeployment fetches tenantID's latest deployment archive key,
// unpacking it locally if it is new, and returns the descriptor, the
// unpacked directory, and the entry script's source.
func (l *Loader) resolveDeployment(ctx context.Context, tenantID string) (types.DeploymentDescriptor, string, string, error) {
	archiveKey, err := l.store.LatestDeploymentKey(ctx, tenantID)
	if err != nil {
		return types.DeploymentDescriptor{}, "", "", fmt.Errorf("resolve deployment for tenant %s: %w", tenantID, err)
	}

	destDir := filepath.Join(l.unpackRoot, tenantID)

	l.mu.RLock()
	current, unpacked := l.archiveKeys[tenantID]
	l.mu.RUnlock()

	if !unpacked || current != archiveKey {
		archive, err := l.objects.FetchObject(ctx, archiveKey)
		if err != nil {
			return types.DeploymentDescriptor{}, "", "", fmt.Errorf("fetch archive %q: %w", archiveKey, err)
		}
		if err := unpackArchive(archive, destDir); err != nil {
			return types.DeploymentDescriptor{}, "", "", fmt.Errorf("unpack archive %q: %w", archiveKey, err)
		}

		l.mu.Lock()
		l.archiveKeys[tenantID] = archiveKey
		l.mu.Unlock()

		l.logger.Info().Str("tenant_id", tenantID).Str("archive_key", archiveKey).Msg("unpacked deployment")
	}

	descriptor := types.DeploymentDescriptor{
		ID:          archiveKey,
		TenantID:    tenantID,
		ArchiveKey:  archiveKey,
		EntryScript: "main.js",
	}

	entrySource, err := readEntryScript(destDir, descriptor.EntryScript)
	if err != nil {
		return types.DeploymentDescriptor{}, "", "", err
	}

	return descriptor, destDir, entrySource, nil
}

// run is the Loader's ticker-driven reconciliation loop, grounded on the
// teacher's Reconciler.run(): a ticker/select loop timed with
// metrics.Timer, logging errors without aborting the cycle.
func (l *Loader) run() {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.logger.Info().Dur("interval", l.interval).Msg("deployment loader started")

	for {
		select {
		case <-ticker.C:
			l.reconcile()
		case <-l.stopCh:
			l.logger.Info().Msg("deployment loader stopped")
			return
		}
	}
}

// reconcile re-checks every known tenant's latest deployment key against
// the key last unpacked for it. When they differ and the tenant's App has a
// live worker, that worker is closed; reconcile itself does not unpack, so
// the next Dispatch unpacks the new archive and respawns against it.
func (l *Loader) reconcile() {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.ReconcileDuration)
		metrics.ReconcileCyclesTotal.Inc()
	}()

	ctx := context.Background()
	tenants, err := l.store.ListTenants(ctx)
	if err != nil {
		l.logger.Error().Err(err).Msg("failed to list tenants")
		return
	}
	l.cacheTenants(tenants)

	for _, tenant := range tenants {
		archiveKey, err := l.store.LatestDeploymentKey(ctx, tenant.ID)
		if err != nil {
			l.logger.Debug().Err(err).Str("tenant_id", tenant.ID).Msg("no deployment for tenant")
			continue
		}

		l.mu.RLock()
		current, known := l.archiveKeys[tenant.ID]
		l.mu.RUnlock()

		if known && current == archiveKey {
			continue
		}

		l.mu.RLock()
		a, hasApp := l.apps[tenant.ID]
		l.mu.RUnlock()

		if hasApp && a.State() == types.AppStateLive {
			l.logger.Info().Str("tenant_id", tenant.ID).Msg("new deployment detected, closing stale worker")
			a.Close(5 * time.Second)
		}
	}
}

func (l *Loader) cacheTenants(tenants []*types.Tenant) {
	sorted := make([]*types.Tenant, len(tenants))
	copy(sorted, tenants)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	l.mu.Lock()
	l.tenants = sorted
	l.mu.Unlock()
}

// ResolveTenant selects the tenant the Request Router should route to.
// When name is non-empty, it must match a known tenant's Name exactly;
// otherwise the first tenant in ID order is selected (deterministic
// default routing, as there is no x-app header to disambiguate).
func (l *Loader) ResolveTenant(ctx context.Context, name string) (*types.Tenant, error) {
	l.mu.RLock()
	tenants := l.tenants
	l.mu.RUnlock()

	if tenants == nil {
		fetched, err := l.store.ListTenants(ctx)
		if err != nil {
			return nil, fmt.Errorf("list tenants: %w", err)
		}
		l.cacheTenants(fetched)
		l.mu.RLock()
		tenants = l.tenants
		l.mu.RUnlock()
	}

	if name != "" {
		for _, t := range tenants {
			if t.Name == name {
				return t, nil
			}
		}
		return nil, ErrUnknownApp
	}

	if len(tenants) == 0 {
		return nil, ErrUnknownApp
	}
	return tenants[0], nil
}

// ErrUnknownApp is returned when no tenant matches the requested app name,
// or when no tenant exists at all for default routing.
var ErrUnknownApp = fmt.Errorf("no matching app")

// DropWorker force-closes tenantID's live worker, resetting its runtime
// slot to Empty. The Request Router calls this when a script throws or the
// isolate otherwise crashes, so the next request respawns a clean worker.
func (l *Loader) DropWorker(tenantID string) {
	l.mu.RLock()
	a, ok := l.apps[tenantID]
	l.mu.RUnlock()

	if ok {
		a.Close(5 * time.Second)
	}
}
