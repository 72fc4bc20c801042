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
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/atharva9trix/plamboBE/services/orchestrator/datatypes"
)

// =============================================================================
// On-Disk Formats
// =============================================================================

// indexFile is the serialized form of a tenant's vector index. Rows align
// one-to-one with the fragment metadata file; an empty row is a tombstone
// and is skipped during search.
type indexFile struct {
	Dim     int         `json:"dim"`
	Vectors [][]float32 `json:"vectors"`
}

// =============================================================================
// Store
// =============================================================================

// Store is one tenant's in-memory vector index plus fragment metadata.
// It is immutable after load and safe for concurrent search.
type Store struct {
	tenantID  string
	dim       int
	vectors   [][]float32
	fragments []datatypes.Fragment
}

// LoadStore reads a tenant's index and metadata files into memory.
//
// # Description
//
// The index file holds the embedding matrix, the metadata file the fragment
// texts and source names, aligned by row. A row count mismatch is a build
// defect and fails the load rather than silently misattributing sources.
//
// # Inputs
//   - p: the tenant profile naming both file paths.
//
// # Outputs
//   - *Store: the loaded store.
//   - error: *StoreLoadError on any read, parse, or alignment failure.
func LoadStore(p Profile) (*Store, error) {
	idxData, err := os.ReadFile(p.IndexPath)
	if err != nil {
		return nil, &StoreLoadError{TenantID: p.ID, Path: p.IndexPath, Err: err}
	}
	var idx indexFile
	if err := json.Unmarshal(idxData, &idx); err != nil {
		return nil, &StoreLoadError{TenantID: p.ID, Path: p.IndexPath, Err: err}
	}

	metaData, err := os.ReadFile(p.MetadataPath)
	if err != nil {
		return nil, &StoreLoadError{TenantID: p.ID, Path: p.MetadataPath, Err: err}
	}
	var fragments []datatypes.Fragment
	if err := json.Unmarshal(metaData, &fragments); err != nil {
		return nil, &StoreLoadError{TenantID: p.ID, Path: p.MetadataPath, Err: err}
	}

	if len(idx.Vectors) != len(fragments) {
		return nil, &StoreLoadError{
			TenantID: p.ID,
			Path:     p.IndexPath,
			Err: fmt.Errorf("index has %d vectors but metadata has %d fragments",
				len(idx.Vectors), len(fragments)),
		}
	}

	return &Store{
		tenantID:  p.ID,
		dim:       idx.Dim,
		vectors:   idx.Vectors,
		fragments: fragments,
	}, nil
}

// TenantID returns the owning tenant's id.
func (s *Store) TenantID() string { return s.tenantID }

// Len returns the number of indexed rows, tombstones included.
func (s *Store) Len() int { return len(s.vectors) }

// Search finds the fragments nearest to the query embedding.
//
// # Description
//
// Exhaustive L2 scan over the tenant's matrix. Distance is converted to a
// similarity score via 1/(1+d), so identical vectors score 1.0 and scores
// decay toward zero with distance. Rows are skipped when tombstoned or when
// the score misses the threshold. Results are ordered by descending score
// and capped at topK.
//
// # Inputs
//   - query: the query embedding. Must match the index dimension.
//   - topK: maximum number of results.
//   - threshold: minimum similarity score to include a fragment.
//
// # Outputs
//   - []datatypes.RetrievalResult: matching fragments, best first. May be
//     empty; never nil on success.
//   - error: dimension mismatch between query and index.
func (s *Store) Search(query []float32, topK int, threshold float64) ([]datatypes.RetrievalResult, error) {
	if s.dim != 0 && len(query) != s.dim {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d",
			len(query), s.dim)
	}

	results := make([]datatypes.RetrievalResult, 0, topK)
	for i, vec := range s.vectors {
		if len(vec) == 0 {
			continue
		}
		if len(vec) != len(query) {
			continue
		}
		score := 1.0 / (1.0 + l2Distance(query, vec))
		if score < threshold {
			continue
		}
		results = append(results, datatypes.RetrievalResult{
			Fragment:   s.fragments[i],
			Similarity: score,
		})
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Similarity > results[b].Similarity
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func l2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
