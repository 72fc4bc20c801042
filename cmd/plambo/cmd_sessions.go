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
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/atharva9trix/plamboBE/services/orchestrator/datatypes"
	"github.com/atharva9trix/plamboBE/services/orchestrator/sessions"
)

// runSessionsHistory prints one conversation's exchanges, oldest first,
// straight from the session store on disk.
func runSessionsHistory(cmd *cobra.Command, args []string) {
	userID := args[0]
	sessionID, err := strconv.Atoi(args[1])
	if err != nil {
		log.Fatalf("session_id must be an integer, got %q", args[1])
	}

	store, err := sessions.Open(cfg.Analytics.SessionsDBPath)
	if err != nil {
		log.Fatalf("Error opening session store: %v", err)
	}
	defer store.Close()

	key := datatypes.SessionKey{UserID: userID, SessionID: sessionID}
	exchanges, err := store.History(context.Background(), key)
	if err != nil {
		log.Fatalf("Error reading history: %v", err)
	}

	if asJSON {
		out, err := json.MarshalIndent(exchanges, "", "  ")
		if err != nil {
			log.Fatalf("Error encoding history: %v", err)
		}
		cmd.Println(string(out))
		return
	}

	if len(exchanges) == 0 {
		cmd.Printf("No exchanges for user %s session %d\n", userID, sessionID)
		return
	}
	for i, ex := range exchanges {
		ts := time.Unix(0, ex.Timestamp).Format(time.RFC3339)
		cmd.Printf("[%d] %s\n  Q: %s\n  A: %s\n", i+1, ts, ex.Question, ex.Answer)
	}
}
