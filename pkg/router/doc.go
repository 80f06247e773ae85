/*
Package router implements the Request Router, the system's single HTTP
front door.

Routing key: the x-app header selects a tenant by name; its absence falls
back to the first known tenant in deterministic (ID) order. /healthz,
/readyz, and /metrics are carved out ahead of this catch-all so they can
never collide with tenant routing.

# Integration Points

  - pkg/deploy: Loader.ResolveTenant, Loader.Dispatch, Loader.DropWorker
  - pkg/isolate: ErrNoResponse distinguishes a 502 from a 500
  - pkg/metrics: edgefunc_http_requests_total, by status
*/
package router
