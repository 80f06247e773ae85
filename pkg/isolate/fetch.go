package isolate

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dop251/goja"

	"github.com/cuemby/edgefunc/pkg/types"
)

var fetchClient = &http.Client{Timeout: 10 * time.Second}

// registerFetch installs a minimal synchronous "fetch(url)" global, gated
// by perms via NetAllowed. There is no corresponding extension in the
// original implementation's retrieved sources to ground this on directly;
// it completes the permission surface PermissionSet.AllowNet otherwise has
// no caller for.
func registerFetch(vm *goja.Runtime, perms types.PermissionSet) error {
	return vm.Set("fetch", func(call goja.FunctionCall) goja.Value {
		target := call.Argument(0).String()

		parsed, err := url.Parse(target)
		if err != nil {
			panic(vm.ToValue(fmt.Sprintf("fetch: invalid url %q: %v", target, err)))
		}

		if !NetAllowed(perms, parsed.Hostname()) {
			panic(vm.ToValue(fmt.Sprintf("fetch: network access to %q is not permitted", parsed.Hostname())))
		}

		resp, err := fetchClient.Get(target)
		if err != nil {
			panic(vm.ToValue(fmt.Sprintf("fetch: %v", err)))
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			panic(vm.ToValue(fmt.Sprintf("fetch: read body: %v", err)))
		}

		headers := make(map[string]interface{}, len(resp.Header))
		for k := range resp.Header {
			headers[k] = resp.Header.Get(k)
		}

		return vm.ToValue(map[string]interface{}{
			"status":     resp.StatusCode,
			"statusText": resp.Status,
			"headers":    headers,
			"body":       string(body),
		})
	})
}
