// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sessions

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/atharva9trix/plamboBE/services/orchestrator/datatypes"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBootstrapNewUser(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	id, resumed, err := store.Bootstrap(ctx, "alice")
	if err != nil {
		t.Fatalf("Bootstrap() failed: %v", err)
	}
	if id != 1 {
		t.Errorf("session id = %d, want 1", id)
	}
	if resumed {
		t.Error("resumed = true for a brand new user")
	}
}

func TestBootstrapIdempotentWhileOpen(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first, _, err := store.Bootstrap(ctx, "alice")
	if err != nil {
		t.Fatalf("Bootstrap() failed: %v", err)
	}
	second, resumed, err := store.Bootstrap(ctx, "alice")
	if err != nil {
		t.Fatalf("Bootstrap() failed: %v", err)
	}
	if second != first {
		t.Errorf("second bootstrap = %d, want %d (open session reused)", second, first)
	}
	if !resumed {
		t.Error("resumed = false when reusing an open session")
	}
}

func TestBootstrapAllocatesAfterActivity(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first, _, err := store.Bootstrap(ctx, "alice")
	if err != nil {
		t.Fatalf("Bootstrap() failed: %v", err)
	}
	key := datatypes.SessionKey{UserID: "alice", SessionID: first}
	if err := store.MarkActive(ctx, key); err != nil {
		t.Fatalf("MarkActive() failed: %v", err)
	}

	next, resumed, err := store.Bootstrap(ctx, "alice")
	if err != nil {
		t.Fatalf("Bootstrap() failed: %v", err)
	}
	if next != first+1 {
		t.Errorf("next session = %d, want %d", next, first+1)
	}
	if resumed {
		t.Error("resumed = true for a freshly allocated session")
	}
}

func TestBootstrapUsersIndependent(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	a, _, _ := store.Bootstrap(ctx, "alice")
	b, _, err := store.Bootstrap(ctx, "bob")
	if err != nil {
		t.Fatalf("Bootstrap(bob) failed: %v", err)
	}
	if a != 1 || b != 1 {
		t.Errorf("session ids = (%d, %d), want (1, 1): numbering is per user", a, b)
	}
}

func TestAppendAndRecent(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	key := datatypes.SessionKey{UserID: "alice", SessionID: 1}

	for i := 1; i <= 7; i++ {
		q := fmt.Sprintf("question %d", i)
		a := fmt.Sprintf("answer %d", i)
		if err := store.Append(ctx, key, q, a); err != nil {
			t.Fatalf("Append() failed: %v", err)
		}
	}

	recent, err := store.Recent(ctx, key, 5)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if len(recent) != 5 {
		t.Fatalf("got %d entries, want 5", len(recent))
	}
	// Window keeps the latest entries, ordered oldest first.
	if recent[0].Question != "question 3" {
		t.Errorf("first entry = %q, want %q", recent[0].Question, "question 3")
	}
	if recent[4].Question != "question 7" {
		t.Errorf("last entry = %q, want %q", recent[4].Question, "question 7")
	}
	for i := 1; i < len(recent); i++ {
		if recent[i].Timestamp < recent[i-1].Timestamp {
			t.Errorf("entries not in ascending timestamp order at index %d", i)
		}
	}
}

func TestHistoryCompleteAndIsolated(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	keyA := datatypes.SessionKey{UserID: "alice", SessionID: 1}
	keyB := datatypes.SessionKey{UserID: "alice", SessionID: 2}

	if err := store.Append(ctx, keyA, "qa", "aa"); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}
	if err := store.Append(ctx, keyB, "qb", "ab"); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}

	hist, err := store.History(ctx, keyA)
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(hist) != 1 || hist[0].Question != "qa" {
		t.Errorf("History(keyA) = %+v, want only qa", hist)
	}
}

func TestAppendConcurrent(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	key := datatypes.SessionKey{UserID: "alice", SessionID: 1}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := store.Append(ctx, key, fmt.Sprintf("q%d", i), "a"); err != nil {
				t.Errorf("Append() failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	hist, err := store.History(ctx, key)
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(hist) != 20 {
		t.Errorf("got %d entries, want 20", len(hist))
	}
}
