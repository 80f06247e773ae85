package isolate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/edgefunc/pkg/types"
)

const echoScript = `
function onRequest(event) {
    respondWith({
        status: 200,
        statusText: "OK",
        headers: { "content-type": "text/plain" },
        body: "hello from " + event.request.method + " " + event.request.url,
    });
}
`

// fakeKV is an in-memory KVCapability used to exercise the script-visible
// "kv" global without a real store.Store behind it.
type fakeKV struct {
	data map[string][]byte
}

func newFakeKV() *fakeKV { return &fakeKV{data: make(map[string][]byte)} }

func (f *fakeKV) Set(_ context.Context, _, key string, value []byte) error {
	f.data[key] = value
	return nil
}

func (f *fakeKV) Get(_ context.Context, _, key string) ([]byte, bool, error) {
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeKV) Delete(_ context.Context, _, key string) error {
	delete(f.data, key)
	return nil
}

func (f *fakeKV) Clear(_ context.Context, _ string) error {
	f.data = make(map[string][]byte)
	return nil
}

func (f *fakeKV) All(_ context.Context, _ string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(f.data))
	for k, v := range f.data {
		out[k] = v
	}
	return out, nil
}

func TestHandleRequestInvokesOnRequest(t *testing.T) {
	iso, err := New(Options{Cwd: "/tmp/app", EntryScriptSource: echoScript, Permissions: types.PermissionSet{}})
	require.NoError(t, err)
	defer iso.Terminate("test complete")

	req := httptest.NewRequest(http.MethodGet, "/hello", nil)
	result, err := iso.HandleRequest(req, nil)
	require.NoError(t, err)

	assert.Equal(t, 200, result.StatusCode)
	assert.Equal(t, "text/plain", result.Headers["content-type"])
	assert.Contains(t, string(result.Body), "GET")
}

func TestHandleRequestWithoutRespondWithFails(t *testing.T) {
	iso, err := New(Options{Cwd: "/tmp/app", EntryScriptSource: `function onRequest(event) {}`, Permissions: types.PermissionSet{}})
	require.NoError(t, err)
	defer iso.Terminate("test complete")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err = iso.HandleRequest(req, nil)
	assert.ErrorIs(t, err, ErrNoResponse)
}

func TestNewFailsOnSyntaxError(t *testing.T) {
	_, err := New(Options{Cwd: "/tmp/app", EntryScriptSource: `function onRequest( {`, Permissions: types.PermissionSet{}})
	assert.Error(t, err)
}

func TestKVRoundTripsThroughScript(t *testing.T) {
	script := `
function onRequest(event) {
    kv.set("greeting", "hi");
    respondWith({ status: 200, statusText: "OK", headers: {}, body: kv.get("greeting") });
}
`
	iso, err := New(Options{
		Cwd:               "/tmp/app",
		EntryScriptSource: script,
		Permissions:       types.PermissionSet{},
		TenantID:          "tenant-1",
		KV:                newFakeKV(),
	})
	require.NoError(t, err)
	defer iso.Terminate("test complete")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	result, err := iso.HandleRequest(req, nil)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(result.Body))
}

func TestKVGetMissingKeyReturnsUndefined(t *testing.T) {
	script := `
function onRequest(event) {
    var v = kv.get("absent");
    respondWith({ status: 200, statusText: "OK", headers: {}, body: v === undefined ? "missing" : "present" });
}
`
	iso, err := New(Options{
		Cwd:               "/tmp/app",
		EntryScriptSource: script,
		Permissions:       types.PermissionSet{},
		TenantID:          "tenant-1",
		KV:                newFakeKV(),
	})
	require.NoError(t, err)
	defer iso.Terminate("test complete")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	result, err := iso.HandleRequest(req, nil)
	require.NoError(t, err)
	assert.Equal(t, "missing", string(result.Body))
}

func TestFetchDeniedByPermissionsPanics(t *testing.T) {
	script := `
function onRequest(event) {
    fetch("https://blocked.example.com");
    respondWith({ status: 200, statusText: "OK", headers: {}, body: "unreachable" });
}
`
	iso, err := New(Options{
		Cwd:               "/tmp/app",
		EntryScriptSource: script,
		Permissions:       types.PermissionSet{AllowNet: []string{}},
	})
	require.NoError(t, err)
	defer iso.Terminate("test complete")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err = iso.HandleRequest(req, nil)
	assert.Error(t, err)
}
