/*
Package kv adapts pkg/store's relational KV primitives into the per-tenant
capability surface a Script Worker binds to its isolate's kv.set/kv.get
globals. Grounded on the original implementation's op_kv_set/op_kv_get,
which scoped every KV operation to the caller's "default" namespace; delete,
clear, and all are supplements this implementation adds on top of that.
*/
package kv
