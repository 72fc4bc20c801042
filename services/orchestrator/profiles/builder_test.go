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
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/atharva9trix/plamboBE/services/orchestrator/datatypes"
)

type countingEmbedder struct {
	byText map[string][]float32
	err    error
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.byText[text], nil
}

func TestBuildVectorsOrder(t *testing.T) {
	embedder := &countingEmbedder{byText: map[string][]float32{
		"alpha": {1, 0},
		"beta":  {0, 1},
	}}
	fragments := []datatypes.Fragment{
		{Text: "alpha", Source: "a.md"},
		{Text: "beta", Source: "b.md"},
	}

	vectors, err := BuildVectors(context.Background(), embedder, fragments)
	if err != nil {
		t.Fatalf("BuildVectors() error = %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vectors))
	}
	if vectors[0][0] != 1 || vectors[1][1] != 1 {
		t.Errorf("vectors not aligned with fragment order: %v", vectors)
	}
}

func TestBuildVectorsStopsOnError(t *testing.T) {
	wantErr := errors.New("embedding service down")
	embedder := &countingEmbedder{err: wantErr}

	_, err := BuildVectors(context.Background(), embedder,
		[]datatypes.Fragment{{Text: "alpha", Source: "a.md"}})
	if !errors.Is(err, wantErr) {
		t.Errorf("BuildVectors() error = %v, want wrapped %v", err, wantErr)
	}
}

func TestWriteStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	profile := Profile{
		ID:           "acme",
		DisplayName:  "Acme Corp",
		IndexPath:    filepath.Join(dir, "index.json"),
		MetadataPath: filepath.Join(dir, "meta.json"),
	}
	vectors := [][]float32{{1, 0}, {}, {0, 1}}
	fragments := []datatypes.Fragment{
		{Text: "first", Source: "a.md"},
		{Text: "deleted", Source: "b.md"},
		{Text: "second", Source: "c.md"},
	}

	if err := WriteStore(profile, vectors, fragments); err != nil {
		t.Fatalf("WriteStore() error = %v", err)
	}

	store, err := LoadStore(profile)
	if err != nil {
		t.Fatalf("LoadStore() error = %v", err)
	}
	if store.Len() != 3 {
		t.Errorf("store.Len() = %d, want 3", store.Len())
	}

	// The tombstone row must be skipped during search.
	results, err := store.Search([]float32{1, 0}, 5, 0.3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for _, r := range results {
		if r.Fragment.Text == "deleted" {
			t.Error("tombstoned fragment returned from search")
		}
	}
	if len(results) == 0 || results[0].Fragment.Text != "first" {
		t.Errorf("Search() top result = %+v, want fragment %q", results, "first")
	}
}

func TestWriteStoreMisaligned(t *testing.T) {
	dir := t.TempDir()
	profile := Profile{
		ID:           "acme",
		IndexPath:    filepath.Join(dir, "index.json"),
		MetadataPath: filepath.Join(dir, "meta.json"),
	}

	err := WriteStore(profile, [][]float32{{1}}, nil)
	if err == nil {
		t.Fatal("WriteStore() accepted a misaligned matrix")
	}
	if _, statErr := os.Stat(profile.IndexPath); statErr == nil {
		t.Error("index file written despite alignment failure")
	}
}
