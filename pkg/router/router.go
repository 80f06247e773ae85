// Package router implements the Request Router: the front HTTP listener
// that resolves an inbound request to a tenant, forwards it onto that
// tenant's worker queue, and translates the result back into an HTTP
// response. It is grounded on the teacher's pkg/api/health.go ServeMux
// pattern, generalized from a health-only mux into one that carves out
// /healthz, /readyz, and /metrics ahead of a tenant catch-all.
package router

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cuemby/edgefunc/pkg/deploy"
	"github.com/cuemby/edgefunc/pkg/isolate"
	"github.com/cuemby/edgefunc/pkg/log"
	"github.com/cuemby/edgefunc/pkg/metrics"
)

// AppHeader is the header clients use to select a tenant explicitly.
const AppHeader = "x-app"

// Router is the HTTP front door: a plain net/http server and mux, with
// tenant dispatch delegated to a deploy.Loader.
type Router struct {
	loader *deploy.Loader
	mux    *http.ServeMux
	logger zerolog.Logger
}

// New builds a Router bound to loader. Call Handler to obtain the
// http.Handler, or ListenAndServe to run it directly.
func New(loader *deploy.Loader) *Router {
	r := &Router{loader: loader, mux: http.NewServeMux(), logger: log.WithComponent("router")}

	r.mux.HandleFunc("/healthz", r.healthz)
	r.mux.HandleFunc("/readyz", r.readyz)
	r.mux.Handle("/metrics", metrics.Handler())
	r.mux.HandleFunc("/", r.dispatchTenant)

	return r
}

// Handler returns the Router's http.Handler, for embedding in a custom
// *http.Server (so callers control timeouts, TLS, etc).
func (r *Router) Handler() http.Handler {
	return r.mux
}

// ListenAndServe runs the Router on addr until the process exits or the
// server errors.
func (r *Router) ListenAndServe(addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      r.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	r.logger.Info().Str("addr", addr).Msg("request router listening")
	return server.ListenAndServe()
}

func (r *Router) healthz(w http.ResponseWriter, req *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Router) readyz(w http.ResponseWriter, req *http.Request) {
	// The fabric has no external dependency it must probe beyond the
	// database connection the Postgres Store already holds open; reaching
	// this handler at all means the process finished startup.
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// dispatchTenant resolves the target tenant, buffers the request body,
// forwards it onto that tenant's worker queue, and translates the result
// per the error-handling design: 400 missing/unknown app, 503 transient
// worker unavailability, 502 script produced no response, 500 script
// threw or the isolate crashed (dropping the worker).
func (r *Router) dispatchTenant(w http.ResponseWriter, req *http.Request) {
	requestID := uuid.New().String()
	reqLogger := r.logger.With().Str("request_id", requestID).Logger()

	if req.Host == "" {
		respondStatus(w, http.StatusBadRequest, "missing Host header")
		return
	}

	appName := req.Header.Get(AppHeader)
	tenant, err := r.loader.ResolveTenant(req.Context(), appName)
	if err != nil {
		reqLogger.Debug().Str("app", appName).Msg("no matching tenant")
		metrics.HTTPRequestsTotal.WithLabelValues("400").Inc()
		respondStatus(w, http.StatusBadRequest, "unknown app")
		return
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		respondStatus(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	done, ok, err := r.loader.Dispatch(req.Context(), tenant.ID, req, body)
	if err != nil {
		reqLogger.Error().Err(err).Str("tenant_id", tenant.ID).Msg("failed to resolve deployment")
		metrics.HTTPRequestsTotal.WithLabelValues("503").Inc()
		respondStatus(w, http.StatusServiceUnavailable, "app temporarily unavailable")
		return
	}
	if !ok {
		// Submit only fails to enqueue (rather than blocking for space) when
		// the client disconnected while waiting or the worker stopped out
		// from under the request; a full queue blocks instead of landing
		// here.
		if req.Context().Err() != nil {
			metrics.HTTPRequestsTotal.WithLabelValues("499").Inc()
			return
		}
		metrics.HTTPRequestsTotal.WithLabelValues("503").Inc()
		respondStatus(w, http.StatusServiceUnavailable, "worker unavailable")
		return
	}

	select {
	case result, open := <-done:
		if !open {
			metrics.HTTPRequestsTotal.WithLabelValues("502").Inc()
			respondStatus(w, http.StatusBadGateway, "no response from app")
			return
		}
		if result.Err != nil {
			r.writeScriptError(w, tenant.ID, result.Err)
			return
		}

		status := result.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		for k, v := range result.Headers {
			w.Header().Set(k, v)
		}
		metrics.HTTPRequestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
		w.WriteHeader(status)
		_, _ = w.Write(result.Body)

	case <-req.Context().Done():
		metrics.HTTPRequestsTotal.WithLabelValues("499").Inc()
	}
}

func (r *Router) writeScriptError(w http.ResponseWriter, tenantID string, err error) {
	if errors.Is(err, isolate.ErrNoResponse) {
		metrics.HTTPRequestsTotal.WithLabelValues("502").Inc()
		respondStatus(w, http.StatusBadGateway, "script produced no response")
		return
	}

	r.logger.Warn().Err(err).Str("tenant_id", tenantID).Msg("script failed, dropping worker")
	r.loader.DropWorker(tenantID)
	metrics.HTTPRequestsTotal.WithLabelValues("500").Inc()
	respondStatus(w, http.StatusInternalServerError, "script execution failed")
}

func respondStatus(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	_, _ = w.Write([]byte(message))
}
