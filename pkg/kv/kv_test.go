package kv

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/edgefunc/pkg/types"
)

type fakeStore struct {
	namespaces map[string]*types.Namespace // key: tenantID
	data       map[string]map[string][]byte // key: namespaceID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		namespaces: map[string]*types.Namespace{
			"tenant-1": {ID: "ns-1", TenantID: "tenant-1", Name: defaultNamespace},
		},
		data: map[string]map[string][]byte{},
	}
}

func (f *fakeStore) ListTenants(ctx context.Context) ([]*types.Tenant, error) { return nil, nil }
func (f *fakeStore) GetTenant(ctx context.Context, id string) (*types.Tenant, error) {
	return nil, nil
}
func (f *fakeStore) GetTenantByClientID(ctx context.Context, clientID string) (*types.Tenant, error) {
	return nil, nil
}
func (f *fakeStore) LatestDeploymentKey(ctx context.Context, tenantID string) (string, error) {
	return "", nil
}

func (f *fakeStore) GetNamespace(ctx context.Context, tenantID, name string) (*types.Namespace, error) {
	ns, ok := f.namespaces[tenantID]
	if !ok || ns.Name != name {
		return nil, errors.New("namespace not found")
	}
	return ns, nil
}

func (f *fakeStore) KVSet(ctx context.Context, namespaceID, key string, value []byte) error {
	if f.data[namespaceID] == nil {
		f.data[namespaceID] = map[string][]byte{}
	}
	f.data[namespaceID][key] = value
	return nil
}

func (f *fakeStore) KVGet(ctx context.Context, namespaceID, key string) ([]byte, bool, error) {
	v, ok := f.data[namespaceID][key]
	return v, ok, nil
}

func (f *fakeStore) KVDelete(ctx context.Context, namespaceID, key string) error {
	delete(f.data[namespaceID], key)
	return nil
}

func (f *fakeStore) KVClear(ctx context.Context, namespaceID string) error {
	f.data[namespaceID] = map[string][]byte{}
	return nil
}

func (f *fakeStore) KVAll(ctx context.Context, namespaceID string) (map[string][]byte, error) {
	return f.data[namespaceID], nil
}

func (f *fakeStore) Close() {}

func TestSetGetDeleteRoundTrip(t *testing.T) {
	backend := newFakeStore()
	s := New(backend)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "tenant-1", "greeting", []byte("hello")))

	v, ok, err := s.Get(ctx, "tenant-1", "greeting")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("hello"), v)

	require.NoError(t, s.Delete(ctx, "tenant-1", "greeting"))

	_, ok, err = s.Get(ctx, "tenant-1", "greeting")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetMissingTenantNamespaceFails(t *testing.T) {
	backend := newFakeStore()
	s := New(backend)

	_, _, err := s.Get(context.Background(), "unknown-tenant", "key")
	assert.Error(t, err)
}

func TestClearAndAll(t *testing.T) {
	backend := newFakeStore()
	s := New(backend)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "tenant-1", "a", []byte("1")))
	require.NoError(t, s.Set(ctx, "tenant-1", "b", []byte("2")))

	all, err := s.All(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, s.Clear(ctx, "tenant-1"))

	all, err = s.All(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Empty(t, all)
}
