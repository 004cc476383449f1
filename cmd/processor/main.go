// Copyright (C) 2025 ApexPrep AI (engineering@apexprep.ai)
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
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var config Config

var rootCmd = &cobra.Command{
	Use:   "processor",
	Short: "A cli to process AP Calculus course material into the knowledge base",
	Long: `Processor ingests AP Calculus PDFs, classifies the content,
optionally paraphrases it, embeds it, and stores the result in Weaviate.`,
}

func main() {
	log.Println("Starting up the AP Calculus processor")
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		loaded, err := LoadConfig("config.yaml")
		if err != nil {
			log.Fatalf("Error loading configuration: %v", err)
		}
		config = loaded
	}
}
