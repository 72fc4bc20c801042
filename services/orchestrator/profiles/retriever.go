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
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/atharva9trix/plamboBE/services/orchestrator/datatypes"
)

// Retriever answers "what does this tenant know about this query". It embeds
// the query and searches the tenant's resident store.
type Retriever struct {
	cache     *StoreCache
	embedder  Embedder
	topK      int
	threshold float64
}

// NewRetriever wires a retriever over the store cache and embedder.
func NewRetriever(cache *StoreCache, embedder Embedder, topK int, threshold float64) *Retriever {
	return &Retriever{
		cache:     cache,
		embedder:  embedder,
		topK:      topK,
		threshold: threshold,
	}
}

// Retrieve returns the fragments of the tenant's knowledge most relevant to
// the query, best first. An empty result is a normal outcome and signals the
// caller to refuse rather than answer.
//
// # Inputs
//   - ctx: request context; bounds the embedding call.
//   - tenantID: which tenant's store to search.
//   - query: the user's question, embedded verbatim.
//
// # Outputs
//   - []datatypes.RetrievalResult: relevant fragments, possibly empty.
//   - error: tenant lookup, store load, or embedding failure.
func (r *Retriever) Retrieve(ctx context.Context, tenantID, query string) ([]datatypes.RetrievalResult, error) {
	ctx, span := tracer.Start(ctx, "Retriever.Retrieve")
	defer span.End()
	span.SetAttributes(attribute.String("tenant.id", tenantID))

	store, err := r.cache.Get(tenantID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	results, err := store.Search(vec, r.topK, r.threshold)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("retrieval.results", len(results)))
	slog.Debug("Retrieval complete", "tenant", tenantID, "results", len(results))
	return results, nil
}
