/*
Package worker runs a single tenant's live deployment.

A Worker owns exactly one isolate (pkg/isolate) and a bounded FIFO queue of
pending HTTP requests. Its goroutine is the Go analog of the original
implementation's handle_request loop: it blocks on either the next queued
request or a 5-second (configurable) idle timer, and tears down its isolate
the moment the idle timer wins.

# Lifecycle

Spawn starts the isolate and the request loop; Submit enqueues work,
blocking while the queue is full, and returns false only if its context is
done or the worker stops before the request is enqueued (callers translate
that into a 503); Stop requests an early, graceful shutdown; Done reports
when the goroutine has actually exited, for any reason.
*/
package worker
