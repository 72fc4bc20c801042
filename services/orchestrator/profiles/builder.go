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
	"encoding/json"
	"fmt"
	"os"

	"github.com/atharva9trix/plamboBE/services/orchestrator/datatypes"
)

// BuildVectors embeds every fragment text in order.
//
// # Description
//
// Produces the embedding matrix for a tenant index, one row per fragment,
// in fragment order so the two files stay aligned. Fails on the first
// embedding error rather than writing a partial index.
//
// # Inputs
//   - ctx: cancellation for the embedding calls.
//   - embedder: the embedding backend.
//   - fragments: the fragment texts to embed.
//
// # Outputs
//   - [][]float32: the embedding matrix, aligned with fragments.
//   - error: the first embedding failure, wrapped with the row number.
func BuildVectors(ctx context.Context, embedder Embedder, fragments []datatypes.Fragment) ([][]float32, error) {
	vectors := make([][]float32, 0, len(fragments))
	for i, frag := range fragments {
		vec, err := embedder.Embed(ctx, frag.Text)
		if err != nil {
			return nil, fmt.Errorf("embedding fragment %d (%s): %w", i, frag.Source, err)
		}
		vectors = append(vectors, vec)
	}
	return vectors, nil
}

// WriteStore persists a tenant's index and metadata files.
//
// # Description
//
// Writes the embedding matrix to the profile's index path and the fragment
// metadata to its metadata path, in the layout LoadStore expects. Rejects a
// misaligned matrix up front. The matrix dimension is taken from the first
// non-empty row; empty rows are preserved as tombstones.
//
// # Inputs
//   - p: the tenant profile naming both file paths.
//   - vectors: the embedding matrix.
//   - fragments: fragment metadata aligned with vectors.
//
// # Outputs
//   - error: alignment or file write failure.
func WriteStore(p Profile, vectors [][]float32, fragments []datatypes.Fragment) error {
	if len(vectors) != len(fragments) {
		return fmt.Errorf("tenant %s: %d vectors but %d fragments",
			p.ID, len(vectors), len(fragments))
	}

	dim := 0
	for _, vec := range vectors {
		if len(vec) > 0 {
			dim = len(vec)
			break
		}
	}

	idxData, err := json.Marshal(indexFile{Dim: dim, Vectors: vectors})
	if err != nil {
		return fmt.Errorf("tenant %s: marshaling index: %w", p.ID, err)
	}
	if err := os.WriteFile(p.IndexPath, idxData, 0o644); err != nil {
		return fmt.Errorf("tenant %s: writing index: %w", p.ID, err)
	}

	metaData, err := json.Marshal(fragments)
	if err != nil {
		return fmt.Errorf("tenant %s: marshaling metadata: %w", p.ID, err)
	}
	if err := os.WriteFile(p.MetadataPath, metaData, 0o644); err != nil {
		return fmt.Errorf("tenant %s: writing metadata: %w", p.ID, err)
	}
	return nil
}
