package isolate

import (
	"encoding/json"
	"net/http"

	"github.com/dop251/goja"
)

// requestEvent is the shape handed to a script's onRequest(event) handler:
// an object carrying only `request`. respondWith is a separate global
// defined in bootstrap.js, not a property of the event.
type requestEvent struct {
	Request requestInfo `json:"request"`
}

type requestInfo struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

// buildRequestEvent converts an inbound HTTP request into the JS value
// passed as the sole argument to onRequest.
func buildRequestEvent(vm *goja.Runtime, r *http.Request, body []byte) goja.Value {
	headers := make(map[string]string, len(r.Header))
	for key := range r.Header {
		headers[key] = r.Header.Get(key)
	}

	info := requestInfo{
		URL:     requestURL(r),
		Method:  r.Method,
		Headers: headers,
		Body:    string(body),
	}

	return vm.ToValue(map[string]interface{}{
		"request": map[string]interface{}{
			"url":     info.URL,
			"method":  info.Method,
			"headers": info.Headers,
			"body":    info.Body,
		},
	})
}

// requestURL reconstructs the absolute URL the original runtime built as
// fmt!("http://{}{}", host_header, path): scheme (https if the connection
// was TLS-terminated here, http otherwise) plus the Host header plus the
// request's path and query, since a server-side r.URL never carries a
// scheme or host of its own.
func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

// jsResponse mirrors the shape respondWith() in bootstrap.js assigns to
// globalThis.requestResult.
type jsResponse struct {
	Headers    map[string]string `json:"headers"`
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
	Body       string            `json:"body"`
}

// readRequestResult reads and clears the requestResult global, the Go
// analog of the original runtime reading window.requestResult off the v8
// global object after the event loop drains.
func readRequestResult(vm *goja.Runtime) (*jsResponse, bool) {
	value := vm.Get("requestResult")
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return nil, false
	}
	defer vm.GlobalObject().Delete("requestResult")

	// Round-trip through encoding/json so the lowercase property names
	// respondWith assigns land on jsResponse via its json tags.
	data, err := json.Marshal(value.Export())
	if err != nil {
		return nil, false
	}
	var resp jsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, false
	}
	if resp.Status == 0 {
		resp.Status = http.StatusOK
	}
	return &resp, true
}
