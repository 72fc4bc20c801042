// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package profiles manages the per-tenant knowledge stores: the tenant
// registry, the file-backed vector indexes, and nearest-neighbor retrieval.
// Tenants are isolated from each other; nothing in this package ever mixes
// fragments across tenant boundaries.
package profiles

import (
	"sort"

	"github.com/atharva9trix/plamboBE/services/orchestrator/config"
)

// Profile is one tenant's resolved configuration.
type Profile struct {
	ID           string
	DisplayName  string
	IndexPath    string
	MetadataPath string
}

// Registry holds the set of configured tenants. It is immutable after
// construction and safe for concurrent use.
type Registry struct {
	profiles map[string]Profile
	ids      []string
}

// NewRegistry builds a registry from the tenant section of the config.
// IDs are kept in sorted order so listings are deterministic.
func NewRegistry(tenants map[string]config.TenantConfig) *Registry {
	r := &Registry{profiles: make(map[string]Profile, len(tenants))}
	for id, t := range tenants {
		name := t.DisplayName
		if name == "" {
			name = id
		}
		r.profiles[id] = Profile{
			ID:           id,
			DisplayName:  name,
			IndexPath:    t.IndexPath,
			MetadataPath: t.MetadataPath,
		}
		r.ids = append(r.ids, id)
	}
	sort.Strings(r.ids)
	return r
}

// Resolve looks up a tenant by id.
//
// # Inputs
//   - tenantID: the caller-supplied tenant identifier.
//
// # Outputs
//   - Profile: the tenant's resolved configuration.
//   - error: *UnknownTenantError when the id is not configured.
func (r *Registry) Resolve(tenantID string) (Profile, error) {
	p, ok := r.profiles[tenantID]
	if !ok {
		return Profile{}, &UnknownTenantError{TenantID: tenantID}
	}
	return p, nil
}

// ListIDs returns all configured tenant ids in sorted order.
func (r *Registry) ListIDs() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// List returns every profile in id order.
func (r *Registry) List() []Profile {
	out := make([]Profile, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.profiles[id])
	}
	return out
}
