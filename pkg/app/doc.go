/*
Package app implements the App runtime slot described in the original
implementation's src/app.rs: a single read/write-locked optional worker
handle per tenant, lazily spawned on first request and cleared by a watcher
goroutine once the worker it holds exits.
*/
package app
