// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package profiles

import (
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// StoreCache lazily loads tenant stores on first use and keeps them resident.
// Concurrent first requests for the same tenant share a single load via
// singleflight; a failed load is not cached so the next request retries.
type StoreCache struct {
	registry *Registry
	group    singleflight.Group

	mu     sync.RWMutex
	stores map[string]*Store
}

// NewStoreCache builds an empty cache over the registry.
func NewStoreCache(registry *Registry) *StoreCache {
	return &StoreCache{
		registry: registry,
		stores:   make(map[string]*Store),
	}
}

// Get returns the tenant's store, loading it from disk on first use.
//
// # Outputs
//   - *Store: the resident store for the tenant.
//   - error: *UnknownTenantError or *StoreLoadError.
func (c *StoreCache) Get(tenantID string) (*Store, error) {
	c.mu.RLock()
	store, ok := c.stores[tenantID]
	c.mu.RUnlock()
	if ok {
		return store, nil
	}

	v, err, shared := c.group.Do(tenantID, func() (any, error) {
		profile, err := c.registry.Resolve(tenantID)
		if err != nil {
			return nil, err
		}
		slog.Info("Loading tenant store", "tenant", tenantID, "index_path", profile.IndexPath)
		store, err := LoadStore(profile)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.stores[tenantID] = store
		c.mu.Unlock()
		slog.Info("Tenant store loaded", "tenant", tenantID, "fragments", store.Len())
		return store, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.Debug("Tenant store load was shared", "tenant", tenantID)
	}
	return v.(*Store), nil
}

// Evict removes a tenant's store so the next Get reloads it from disk.
// Used after an index rebuild.
func (c *StoreCache) Evict(tenantID string) {
	c.mu.Lock()
	delete(c.stores, tenantID)
	c.mu.Unlock()
}
