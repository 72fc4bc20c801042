// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

// =============================================================================
// Session Types
// =============================================================================

// SessionKey identifies one analytical conversation for one user.
type SessionKey struct {
	UserID    string
	SessionID int
}

// ExchangeEntry is one question/answer pair in a session's append-only log.
// Answer holds the serialized plan plus execution status, not just prose,
// so history replay can seed the compiler with prior SQL.
type ExchangeEntry struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Timestamp int64  `json:"timestamp"`
}

// BootstrapResponse is the body returned by GET /v1/sessions/bootstrap.
// SessionID is the id the caller should use for subsequent analytical
// requests. Resumed is true when an open session was reused rather than
// a new one created.
type BootstrapResponse struct {
	Status    string `json:"status"`
	UserID    string `json:"user_id"`
	SessionID int    `json:"session_id"`
	Resumed   bool   `json:"resumed"`
}

// HistoryResponse is the body returned by the session history endpoint.
// Entries are ordered oldest first.
type HistoryResponse struct {
	Status    string          `json:"status"`
	UserID    string          `json:"user_id"`
	SessionID int             `json:"session_id"`
	Exchanges []ExchangeEntry `json:"exchanges"`
}

// TenantInfo describes one configured tenant in the listing endpoint.
type TenantInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// TenantListResponse is the body returned by GET /v1/tenants.
type TenantListResponse struct {
	Status  string       `json:"status"`
	Tenants []TenantInfo `json:"tenants"`
}
