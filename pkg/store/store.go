// Package store provides persistent access to tenants, namespaces, and KV
// records backed by Postgres.
package store

import (
	"context"

	"github.com/cuemby/edgefunc/pkg/types"
)

// Store defines the persistence surface the runtime fabric needs: tenant
// lookup (to resolve a Deployment Descriptor) and the per-namespace KV
// primitives of the Key-Value Store component.
type Store interface {
	// Tenants
	ListTenants(ctx context.Context) ([]*types.Tenant, error)
	GetTenant(ctx context.Context, id string) (*types.Tenant, error)
	GetTenantByClientID(ctx context.Context, clientID string) (*types.Tenant, error)
	LatestDeploymentKey(ctx context.Context, tenantID string) (string, error)

	// Namespaces
	GetNamespace(ctx context.Context, tenantID, name string) (*types.Namespace, error)

	// KV Store — scoped to a single namespace, as a self-contained
	// transaction per call (no transaction spans two capability calls).
	KVSet(ctx context.Context, namespaceID, key string, value []byte) error
	KVGet(ctx context.Context, namespaceID, key string) ([]byte, bool, error)
	KVDelete(ctx context.Context, namespaceID, key string) error
	KVClear(ctx context.Context, namespaceID string) error
	KVAll(ctx context.Context, namespaceID string) (map[string][]byte, error)

	Close()
}
