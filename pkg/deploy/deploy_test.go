package deploy

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/edgefunc/pkg/config"
	"github.com/cuemby/edgefunc/pkg/objectstore"
	"github.com/cuemby/edgefunc/pkg/types"
)

// fakeStore implements store.Store with an in-memory map of tenant ->
// archive key, enough to exercise the Loader without Postgres.
type fakeStore struct {
	tenants     []*types.Tenant
	archiveKeys map[string]string
}

func (f *fakeStore) ListTenants(ctx context.Context) ([]*types.Tenant, error) { return f.tenants, nil }
func (f *fakeStore) GetTenant(ctx context.Context, id string) (*types.Tenant, error) {
	return nil, nil
}
func (f *fakeStore) GetTenantByClientID(ctx context.Context, clientID string) (*types.Tenant, error) {
	return nil, nil
}
func (f *fakeStore) LatestDeploymentKey(ctx context.Context, tenantID string) (string, error) {
	return f.archiveKeys[tenantID], nil
}
func (f *fakeStore) GetNamespace(ctx context.Context, tenantID, name string) (*types.Namespace, error) {
	return nil, nil
}
func (f *fakeStore) KVSet(ctx context.Context, namespaceID, key string, value []byte) error {
	return nil
}
func (f *fakeStore) KVGet(ctx context.Context, namespaceID, key string) ([]byte, bool, error) {
	return nil, false, nil
}
func (f *fakeStore) KVDelete(ctx context.Context, namespaceID, key string) error { return nil }
func (f *fakeStore) KVClear(ctx context.Context, namespaceID string) error      { return nil }
func (f *fakeStore) KVAll(ctx context.Context, namespaceID string) (map[string][]byte, error) {
	return nil, nil
}
func (f *fakeStore) Close() {}

func buildZipArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, contents := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(contents))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestUnpackArchiveWritesFiles(t *testing.T) {
	dir := t.TempDir()
	archive := buildZipArchive(t, map[string]string{
		"index.js":      "function onRequest(event) {}",
		"lib/helper.js": "module.exports = {}",
	})

	require.NoError(t, unpackArchive(archive, dir))

	entry, err := readEntryScript(dir, "index.js")
	require.NoError(t, err)
	assert.Equal(t, "function onRequest(event) {}", entry)

	helper, err := readEntryScript(dir, "lib/helper.js")
	require.NoError(t, err)
	assert.Equal(t, "module.exports = {}", helper)
}

func TestUnpackArchiveRejectsZipSlip(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("../escape.js")
	require.NoError(t, err)
	_, err = w.Write([]byte("malicious"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	err = unpackArchive(buf.Bytes(), dir)
	require.Error(t, err)
}

func newTestLoader(t *testing.T, archive []byte, tenantID string) *Loader {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(archive)
	}))
	t.Cleanup(server.Close)

	cfg := &config.Config{
		S3AccessKey: "test-key",
		S3SecretKey: "test-secret",
		S3Bucket:    "deployments",
		S3Region:    "us-east-1",
		S3Endpoint:  server.URL,
	}
	objects, err := objectstore.New(context.Background(), cfg)
	require.NoError(t, err)

	fs := &fakeStore{
		tenants:     []*types.Tenant{{ID: tenantID, Name: tenantID}},
		archiveKeys: map[string]string{tenantID: "v1/deploy.zip"},
	}

	return NewLoader(Config{
		Store:               fs,
		Objects:             objects,
		UnpackRoot:          t.TempDir(),
		ReconcileInterval:   50 * time.Millisecond,
		WorkerIdleTimeout:   time.Second,
		WorkerQueueCapacity: 4,
	})
}

func TestResolveDeploymentUnpacksAndCachesArchiveKey(t *testing.T) {
	archive := buildZipArchive(t, map[string]string{
		"main.js": `function onRequest(event) { respondWith({status:200,statusText:"OK",headers:{},body:""}); }`,
	})
	loader := newTestLoader(t, archive, "tenant-a")

	descriptor, cwd, source, err := loader.resolveDeployment(context.Background(), "tenant-a")
	require.NoError(t, err)
	assert.Equal(t, "v1/deploy.zip", descriptor.ArchiveKey)
	assert.Contains(t, source, "onRequest")

	_, err = os.Stat(cwd)
	require.NoError(t, err)

	loader.mu.RLock()
	cached := loader.archiveKeys["tenant-a"]
	loader.mu.RUnlock()
	assert.Equal(t, "v1/deploy.zip", cached)
}

func TestDispatchSpawnsWorkerAndHandlesRequest(t *testing.T) {
	archive := buildZipArchive(t, map[string]string{
		"main.js": `function onRequest(event) { respondWith({status:200,statusText:"OK",headers:{},body:"hello"}); }`,
	})
	loader := newTestLoader(t, archive, "tenant-b")

	req, err := http.NewRequest(http.MethodGet, "http://tenant-b.edgefunc.dev/", nil)
	require.NoError(t, err)

	done, ok, err := loader.Dispatch(context.Background(), "tenant-b", req, nil)
	require.NoError(t, err)
	require.True(t, ok)

	select {
	case result := <-done:
		require.NoError(t, result.Err)
		assert.Equal(t, 200, result.StatusCode)
		assert.Equal(t, "hello", string(result.Body))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result")
	}

	loader.Stop()
}
