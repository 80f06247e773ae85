// Package isolate embeds a single-tenant JavaScript execution environment
// using goja, the Go analog of the original implementation's per-App
// deno_core JsRuntime pinned to a dedicated OS thread.
package isolate

import (
	_ "embed"
	"errors"
	"fmt"
	"net/http"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/eventloop"
	gojaurl "github.com/dop251/goja_nodejs/url"

	"github.com/cuemby/edgefunc/pkg/types"
)

// ErrNoResponse is returned when the event loop drained without the
// script's onRequest handler ever calling respondWith. The Request Router
// translates this into a 502, keeping the Worker alive.
var ErrNoResponse = errors.New("onRequest handler never called respondWith")

//go:embed bootstrap.js
var bootstrapScript string

// Isolate is one script's execution environment: a goja.Runtime driven by a
// dedicated event loop, the Go equivalent of deno_core's isolate bound to a
// single OS thread in the original implementation.
type Isolate struct {
	loop        *eventloop.EventLoop
	vm          *goja.Runtime
	cwd         string
	permissions types.PermissionSet
}

// Options configures a new Isolate.
type Options struct {
	Cwd               string
	EntryScriptSource string
	Permissions       types.PermissionSet
	TenantID          string
	KV                KVCapability // nil disables the "kv" global
}

// New registers console, url, fetch, and kv (the Web-API and capability
// surface the original implementation's deno_console/deno_url/ext_kv
// extensions provided), then evaluates bootstrap.js plus the deployment's
// entry script. loop.Run blocks until the runtime is quiescent — any
// top-level async work the entry script kicks off on load has already
// settled by the time New returns.
func New(opts Options) (*Isolate, error) {
	loop := eventloop.NewEventLoop()
	iso := &Isolate{loop: loop, cwd: opts.Cwd, permissions: opts.Permissions}

	var initErr error
	loop.Run(func(vm *goja.Runtime) {
		iso.vm = vm
		console.Enable(vm)
		gojaurl.Enable(vm)

		if err := registerFetch(vm, opts.Permissions); err != nil {
			initErr = fmt.Errorf("register fetch: %w", err)
			return
		}

		if err := registerKV(vm, opts.KV, opts.TenantID); err != nil {
			initErr = fmt.Errorf("register kv: %w", err)
			return
		}

		if err := vm.Set("cwd", opts.Cwd); err != nil {
			initErr = fmt.Errorf("set cwd: %w", err)
			return
		}

		if _, err := vm.RunString(bootstrapScript); err != nil {
			initErr = fmt.Errorf("evaluate bootstrap: %w", err)
			return
		}

		if _, err := vm.RunString(opts.EntryScriptSource); err != nil {
			initErr = fmt.Errorf("evaluate entry script: %w", err)
			return
		}
	})

	if initErr != nil {
		return nil, initErr
	}

	return iso, nil
}

// HandleRequest marshals r into the event object and invokes the script's
// onRequest handler. loop.Run does not return until the isolate's event
// loop has drained every microtask and timer the handler scheduled — the
// Go analog of the original runtime's separate run_event_loop(false).await
// step — so an async onRequest that awaits kv calls before calling
// respondWith has already finished its continuation by the time
// readRequestResult runs.
func (i *Isolate) HandleRequest(r *http.Request, body []byte) (*types.SessionResult, error) {
	var callErr error

	i.loop.Run(func(vm *goja.Runtime) {
		onRequest := vm.Get("onRequest")
		if onRequest == nil || goja.IsUndefined(onRequest) {
			callErr = fmt.Errorf("script defines no onRequest handler")
			return
		}
		fn, ok := goja.AssertFunction(onRequest)
		if !ok {
			callErr = fmt.Errorf("onRequest is not callable")
			return
		}

		event := buildRequestEvent(vm, r, body)
		if _, err := fn(goja.Undefined(), event); err != nil {
			callErr = fmt.Errorf("onRequest handler failed: %w", err)
		}
	})
	if callErr != nil {
		return nil, callErr
	}

	resp, ok := readRequestResult(i.vm)
	if !ok {
		return nil, ErrNoResponse
	}

	return &types.SessionResult{
		StatusCode: resp.Status,
		Headers:    resp.Headers,
		Body:       []byte(resp.Body),
	}, nil
}

// Terminate interrupts any in-flight script execution. vm.Interrupt is the
// one call in this package safe to make from outside the isolate's own
// goroutine — the Go analog of the original implementation's
// isolate.thread_safe_handle().terminate_execution() used on idle timeout.
// Between requests loop.Run has already parked the isolate's goroutine, so
// there is normally nothing to interrupt; this only does real work when
// Terminate races a still-running HandleRequest.
func (i *Isolate) Terminate(reason string) {
	if i.vm != nil {
		i.vm.Interrupt(reason)
	}
}
