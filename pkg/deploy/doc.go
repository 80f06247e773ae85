/*
Package deploy implements the Deployment Loader: the component that turns a
tenant's latest archive key, recorded in Postgres, into a locally unpacked
directory and a live App.

# Architecture

	Store.LatestDeploymentKey ──▶ Loader.resolveDeployment ──▶ objectstore.FetchObject
	                                       │                         │
	                                       ▼                         ▼
	                              unpack under UnpackRoot     App.GetOrSpawnWorker

Dispatch resolves a tenant's deployment (unpacking it on first sight or on
change) and submits the inbound request to the tenant's App, spawning a
worker on demand.

A ticker-driven reconciliation loop, grounded on the teacher's Reconciler,
periodically re-checks every known tenant's latest deployment key and closes
any live worker whose code has gone stale, so the next request respawns it
against the new archive.

# Integration Points

  - pkg/store: LatestDeploymentKey, ListTenants
  - pkg/objectstore: FetchObject
  - pkg/app: one App per tenant
  - pkg/worker: spawned via App's SpawnFunc
  - pkg/metrics: edgefunc_apps_total, edgefunc_reconcile_cycles_total, edgefunc_reconcile_duration_seconds
*/
package deploy
