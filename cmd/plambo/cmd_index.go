// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/atharva9trix/plamboBE/pkg/logging"
	"github.com/atharva9trix/plamboBE/services/orchestrator/datatypes"
	"github.com/atharva9trix/plamboBE/services/orchestrator/profiles"
)

// buildEmbedder picks the embedding backend the same way the service does:
// the configured embedding service when one is set, OpenAI otherwise.
func buildEmbedder() (profiles.Embedder, error) {
	if cfg.Embedding.ServiceURL != "" {
		return profiles.NewHTTPEmbedder(cfg.Embedding.ServiceURL, cfg.Embedding.Model)
	}
	return profiles.NewOpenAIEmbedder(os.Getenv("OPENAI_API_KEY"), cfg.Embedding.Model)
}

// runIndexBuild embeds a tenant's fragment file and writes the index and
// metadata files named by that tenant's configuration.
//
// The fragment file is a JSON array of {"text": ..., "source": ...}
// objects. The whole index is rebuilt; rows are written in file order.
func runIndexBuild(cmd *cobra.Command, args []string) {
	logger := logging.New(logging.Config{Service: "cli"})
	defer logger.Close()

	tenantID, fragPath := args[0], args[1]

	registry := profiles.NewRegistry(cfg.Tenants)
	profile, err := registry.Resolve(tenantID)
	if err != nil {
		log.Fatalf("Unknown tenant %q. Known tenants: %v", tenantID, registry.ListIDs())
	}

	data, err := os.ReadFile(fragPath)
	if err != nil {
		log.Fatalf("Error reading fragment file: %v", err)
	}
	var fragments []datatypes.Fragment
	if err := json.Unmarshal(data, &fragments); err != nil {
		log.Fatalf("Error parsing fragment file: %v", err)
	}
	if len(fragments) == 0 {
		log.Fatalf("Fragment file %s is empty", fragPath)
	}

	embedder, err := buildEmbedder()
	if err != nil {
		log.Fatalf("Error initializing embedder: %v", err)
	}

	logger.Info("building index", "tenant", tenantID, "fragments", len(fragments))
	vectors, err := profiles.BuildVectors(context.Background(), embedder, fragments)
	if err != nil {
		log.Fatalf("Error embedding fragments: %v", err)
	}

	if err := profiles.WriteStore(profile, vectors, fragments); err != nil {
		log.Fatalf("Error writing index files: %v", err)
	}
	logger.Info("index written",
		"tenant", tenantID,
		"index", profile.IndexPath,
		"metadata", profile.MetadataPath)
}

// runTenants prints the tenants the loaded configuration serves.
func runTenants(cmd *cobra.Command, args []string) {
	registry := profiles.NewRegistry(cfg.Tenants)
	for _, p := range registry.List() {
		cmd.Printf("%s\t%s\n", p.ID, p.DisplayName)
	}
}
