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

import "fmt"

// UnknownTenantError is returned when a request names a tenant that is not
// configured. Handlers map this to HTTP 404.
type UnknownTenantError struct {
	TenantID string
}

// Error implements the error interface for UnknownTenantError.
func (e *UnknownTenantError) Error() string {
	return fmt.Sprintf("unknown tenant: %q", e.TenantID)
}

// IsUnknownTenant checks if an error is an UnknownTenantError.
//
// # Description
//
// Type assertion helper so handlers can map a failed tenant lookup to 404
// without string matching.
//
// # Inputs
//
//   - err: The error to check.
//
// # Outputs
//
//   - bool: True if err is a *UnknownTenantError.
func IsUnknownTenant(err error) bool {
	_, ok := err.(*UnknownTenantError)
	return ok
}

// StoreLoadError is returned when a tenant is configured but its index or
// metadata files cannot be loaded. Handlers map this to HTTP 503 since the
// tenant may become available after a rebuild.
type StoreLoadError struct {
	TenantID string
	Path     string
	Err      error
}

// Error implements the error interface for StoreLoadError.
func (e *StoreLoadError) Error() string {
	return fmt.Sprintf("failed to load store for tenant %q from %s: %v", e.TenantID, e.Path, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *StoreLoadError) Unwrap() error { return e.Err }

// IsStoreLoadError checks if an error is a StoreLoadError.
func IsStoreLoadError(err error) bool {
	_, ok := err.(*StoreLoadError)
	return ok
}
