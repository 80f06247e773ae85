package isolate

import (
	"context"

	"github.com/dop251/goja"
)

// KVCapability is the per-tenant key-value surface a Worker hands to its
// Isolate, satisfied by pkg/kv.Store. Defined locally so this package
// depends only on the method set it actually calls.
type KVCapability interface {
	Set(ctx context.Context, tenantID, key string, value []byte) error
	Get(ctx context.Context, tenantID, key string) ([]byte, bool, error)
	Delete(ctx context.Context, tenantID, key string) error
	Clear(ctx context.Context, tenantID string) error
	All(ctx context.Context, tenantID string) (map[string][]byte, error)
}

// registerKV installs the global "kv" object the original implementation's
// ext/kv/01_kv.js exposed to scripts, scoped to tenantID and backed by cap.
// Calls run synchronously on the isolate's own goroutine, the same
// simplification documented for respondWith in bootstrap.js: no script in
// this system's request/response contract needs to await a KV call.
func registerKV(vm *goja.Runtime, cap KVCapability, tenantID string) error {
	if cap == nil {
		return nil
	}

	obj := vm.NewObject()

	_ = obj.Set("set", func(call goja.FunctionCall) goja.Value {
		key := call.Argument(0).String()
		value := call.Argument(1).String()
		if err := cap.Set(context.Background(), tenantID, key, []byte(value)); err != nil {
			panic(vm.ToValue(err.Error()))
		}
		return goja.Undefined()
	})

	_ = obj.Set("get", func(call goja.FunctionCall) goja.Value {
		key := call.Argument(0).String()
		value, ok, err := cap.Get(context.Background(), tenantID, key)
		if err != nil {
			panic(vm.ToValue(err.Error()))
		}
		if !ok {
			return goja.Undefined()
		}
		return vm.ToValue(string(value))
	})

	_ = obj.Set("delete", func(call goja.FunctionCall) goja.Value {
		key := call.Argument(0).String()
		if err := cap.Delete(context.Background(), tenantID, key); err != nil {
			panic(vm.ToValue(err.Error()))
		}
		return goja.Undefined()
	})

	_ = obj.Set("clear", func(call goja.FunctionCall) goja.Value {
		if err := cap.Clear(context.Background(), tenantID); err != nil {
			panic(vm.ToValue(err.Error()))
		}
		return goja.Undefined()
	})

	_ = obj.Set("all", func(call goja.FunctionCall) goja.Value {
		all, err := cap.All(context.Background(), tenantID)
		if err != nil {
			panic(vm.ToValue(err.Error()))
		}
		result := make(map[string]interface{}, len(all))
		for k, v := range all {
			result[k] = string(v)
		}
		return vm.ToValue(result)
	})

	return vm.Set("kv", obj)
}
