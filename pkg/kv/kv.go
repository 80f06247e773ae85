// Package kv implements the per-tenant key-value capability exposed to
// scripts inside the isolate, namespace "default" scoping.
package kv

import (
	"context"
	"fmt"

	"github.com/cuemby/edgefunc/pkg/metrics"
	"github.com/cuemby/edgefunc/pkg/store"
)

// defaultNamespace is the only namespace name the original implementation
// ever resolved a KV operation against; every tenant is provisioned with one.
const defaultNamespace = "default"

// Store is the KV capability surface handed to the Script Worker. It
// resolves the caller's default namespace once per call and times the
// underlying store operation for the edgefunc_kv_op_duration_seconds metric.
type Store struct {
	backend store.Store
}

// New wraps backend with namespace resolution and metrics.
func New(backend store.Store) *Store {
	return &Store{backend: backend}
}

func (s *Store) namespaceID(ctx context.Context, tenantID string) (string, error) {
	ns, err := s.backend.GetNamespace(ctx, tenantID, defaultNamespace)
	if err != nil {
		return "", fmt.Errorf("tenant %s has no default namespace: %w", tenantID, err)
	}
	return ns.ID, nil
}

// Set stores value under key in tenantID's default namespace.
func (s *Store) Set(ctx context.Context, tenantID, key string, value []byte) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.KVOpDuration, "set")

	nsID, err := s.namespaceID(ctx, tenantID)
	if err != nil {
		return err
	}
	return s.backend.KVSet(ctx, nsID, key, value)
}

// Get returns the value for key, or ok == false if it is unset.
func (s *Store) Get(ctx context.Context, tenantID, key string) ([]byte, bool, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.KVOpDuration, "get")

	nsID, err := s.namespaceID(ctx, tenantID)
	if err != nil {
		return nil, false, err
	}
	return s.backend.KVGet(ctx, nsID, key)
}

// Delete removes key from tenantID's default namespace. Deleting an absent
// key is not an error.
func (s *Store) Delete(ctx context.Context, tenantID, key string) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.KVOpDuration, "delete")

	nsID, err := s.namespaceID(ctx, tenantID)
	if err != nil {
		return err
	}
	return s.backend.KVDelete(ctx, nsID, key)
}

// Clear removes every key in tenantID's default namespace.
func (s *Store) Clear(ctx context.Context, tenantID string) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.KVOpDuration, "clear")

	nsID, err := s.namespaceID(ctx, tenantID)
	if err != nil {
		return err
	}
	return s.backend.KVClear(ctx, nsID)
}

// All returns every key-value pair in tenantID's default namespace.
func (s *Store) All(ctx context.Context, tenantID string) (map[string][]byte, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.KVOpDuration, "all")

	nsID, err := s.namespaceID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return s.backend.KVAll(ctx, nsID)
}
