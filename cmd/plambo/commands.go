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
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath string
	asJSON     bool

	rootCmd = &cobra.Command{
		Use:   "plambo",
		Short: "A cli to manage plambo tenant indexes and conversation data",
		Long: `Plambo is a multi-tenant question answering backend. This tool
builds tenant vector indexes and inspects conversation history without
going through the running service.`,
	}

	// --- Index building ---
	indexCmd = &cobra.Command{
		Use:   "index",
		Short: "Manage tenant vector indexes.",
	}
	indexBuildCmd = &cobra.Command{
		Use:   "build [tenant] [fragments.json]",
		Short: "Embed a tenant's fragments and write its index files",
		Args:  cobra.ExactArgs(2),
		Run:   runIndexBuild, // Defined in cmd_index.go
	}

	// --- Tenants ---
	tenantsCmd = &cobra.Command{
		Use:   "tenants",
		Short: "List the tenants in the loaded configuration",
		Run:   runTenants,
	}

	// --- Sessions ---
	sessionsCmd = &cobra.Command{
		Use:   "sessions",
		Short: "Inspect stored conversations.",
	}
	sessionsHistoryCmd = &cobra.Command{
		Use:   "history [user_id] [session_id]",
		Short: "Print every exchange of one conversation",
		Args:  cobra.ExactArgs(2),
		Run:   runSessionsHistory, // Defined in cmd_sessions.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml",
		"Path to the service configuration file")

	indexCmd.AddCommand(indexBuildCmd)

	sessionsHistoryCmd.Flags().BoolVar(&asJSON, "json", false,
		"Print exchanges as JSON instead of text")
	sessionsCmd.AddCommand(sessionsHistoryCmd)

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(tenantsCmd)
	rootCmd.AddCommand(sessionsCmd)
}
