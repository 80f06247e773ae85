/*
Package isolate is the Go equivalent of the original implementation's
deno_core-based Runtime: a single script's JavaScript execution environment
driven by a goja_nodejs/eventloop.EventLoop, with console, url, fetch, and
kv capabilities available and a synchronous request/response marshalling
protocol (onRequest / respondWith / requestResult) defined in bootstrap.js.

Every call into the runtime — the initial bootstrap/entry-script load in
New, and each request in HandleRequest — goes through eventloop.Run rather
than the fire-and-forget RunOnLoop: Run does not return to its caller until
the loop it just scheduled work on has drained every microtask and timer,
the Go equivalent of the original's separate run_event_loop(false).await
step. That guarantees an onRequest handler that awaits a kv call before
calling respondWith has already finished its continuation by the time the
host reads globalThis.requestResult back.

Where the original used v8's thread_safe_handle().terminate_execution() to
interrupt a runtime from another thread, this package calls
goja.Runtime.Interrupt directly — the one call documented as safe to make
from outside the isolate's own goroutine, used by Terminate to abort
whatever Run call happens to be in flight.
*/
package isolate
