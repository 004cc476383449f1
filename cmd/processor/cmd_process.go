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
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"github.com/ApexPrepAI/apcalc/services/processor/embeddings"
	"github.com/ApexPrepAI/apcalc/services/processor/ingest"
	"github.com/ApexPrepAI/apcalc/services/processor/kbstore"
	"github.com/ApexPrepAI/apcalc/services/processor/paraphrase"
	"github.com/ApexPrepAI/apcalc/services/processor/tagging"
)

var (
	pdfPath       string
	partition     string
	contentYear   int
	contentType   string
	examVariant   string
	doParaphrase  bool
	dryRun        bool
	maxConcurrent int

	processCmd = &cobra.Command{
		Use:   "process",
		Short: "Run a PDF through the full ingestion pipeline",
		Run:   runProcess,
	}

	sourcesCmd = &cobra.Command{
		Use:   "sources",
		Short: "Manage ingested source files",
	}
	sourcesListCmd = &cobra.Command{
		Use:   "list",
		Short: "List source files present in the knowledge base",
		Run:   runSourcesList,
	}
	sourcesDeleteCmd = &cobra.Command{
		Use:   "delete [source file]",
		Short: "Delete every segment ingested from a source file",
		Args:  cobra.ExactArgs(1),
		Run:   runSourcesDelete,
	}
)

func init() {
	processCmd.Flags().StringVar(&pdfPath, "pdf", "", "Path to the PDF file (required)")
	processCmd.Flags().StringVar(&partition, "partition", "public_kb", "Storage partition (public_kb or paraphrased_kb)")
	processCmd.Flags().IntVar(&contentYear, "year", 0, "Year of the content (required)")
	processCmd.Flags().StringVar(&contentType, "type", "", "Content type: Notes, Practice, Review, or Example (required)")
	processCmd.Flags().StringVar(&examVariant, "variant", "", "Exam variant: calc_ab or calc_bc (required)")
	processCmd.Flags().BoolVar(&doParaphrase, "paraphrase", false, "Rewrite segments through the chat model before embedding")
	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Extract and tag only; no API calls, no database writes")
	processCmd.Flags().IntVar(&maxConcurrent, "max-concurrent", 5, "Maximum concurrent API calls")
	_ = processCmd.MarkFlagRequired("pdf")
	_ = processCmd.MarkFlagRequired("year")
	_ = processCmd.MarkFlagRequired("type")
	_ = processCmd.MarkFlagRequired("variant")

	sourcesCmd.AddCommand(sourcesListCmd, sourcesDeleteCmd)
	rootCmd.AddCommand(processCmd, sourcesCmd)
}

func validProcessFlags() error {
	switch partition {
	case "public_kb", "paraphrased_kb":
	default:
		return fmt.Errorf("invalid partition %q", partition)
	}
	switch contentType {
	case string(tagging.TypeNotes), string(tagging.TypePractice),
		string(tagging.TypeReview), string(tagging.TypeExample):
	default:
		return fmt.Errorf("invalid content type %q", contentType)
	}
	switch examVariant {
	case string(tagging.VariantAB), string(tagging.VariantBC):
	default:
		return fmt.Errorf("invalid variant %q", examVariant)
	}
	return nil
}

func runProcess(cmd *cobra.Command, args []string) {
	if err := validProcessFlags(); err != nil {
		log.Fatalf("Invalid flags: %v", err)
	}

	ctx := context.Background()

	// Step 1: extract and segment
	segments, err := ingest.LoadPDF(pdfPath)
	if err != nil {
		log.Fatalf("Failed to ingest PDF: %v", err)
	}
	segments, err = ingest.SegmentByTopic(segments, config.Processing.MaxSegmentLength)
	if err != nil {
		log.Fatalf("Failed to segment content: %v", err)
	}
	if len(segments) == 0 {
		log.Fatalf("No content extracted from %s", pdfPath)
	}
	fmt.Printf("Extracted %d segments from %s\n", len(segments), pdfPath)

	// Step 2: tag
	tags := make([]tagging.ContentTag, len(segments))
	for i, seg := range segments {
		tags[i] = tagging.TagContent(seg.Content)
	}
	tagStats := tagging.Summarize(tags)
	fmt.Printf("Tagged %d segments (avg confidence %.2f, %d low-confidence)\n",
		tagStats.TotalContent, tagStats.AverageConfidence, tagStats.LowConfidenceCount)

	if dryRun {
		fmt.Println("Dry run: stopping before API calls and database writes")
		for variant, count := range tagStats.VariantDistribution {
			fmt.Printf("  detected %s: %d segments\n", variant, count)
		}
		return
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatalf("OPENAI_API_KEY is required unless --dry-run is set")
	}

	// Step 3: optional paraphrase
	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Content
	}
	if doParaphrase {
		opts := []paraphrase.Option{paraphrase.WithRequestsPerMinute(config.OpenAI.RequestsPerMinute)}
		if config.OpenAI.Model != "" {
			opts = append(opts, paraphrase.WithModel(config.OpenAI.Model))
		}
		paraphraser := paraphrase.New(apiKey, opts...)
		results := paraphraser.ParaphraseBatch(ctx, texts, maxConcurrent)
		stats := paraphrase.Summarize(results)
		fmt.Printf("Paraphrased %d segments, skipped %d (avg confidence %.2f)\n",
			stats.Paraphrased, stats.Skipped, stats.AverageConfidence)
		for i, res := range results {
			texts[i] = res.ParaphrasedText
		}
	}

	// Step 4: embed
	var embedOpts []embeddings.Option
	if config.OpenAI.EmbeddingModel != "" {
		embedOpts = append(embedOpts, embeddings.WithModel(openai.EmbeddingModel(config.OpenAI.EmbeddingModel)))
	}
	generator := embeddings.New(apiKey, embedOpts...)
	embedResults := generator.EmbedBatch(ctx, texts, maxConcurrent)
	embedStats := embeddings.Summarize(embedResults)
	fmt.Printf("Embedded %d/%d segments (%d dimensions)\n",
		embedStats.Successful, embedStats.TotalTexts, embedStats.Dimensions)

	// Step 5: upsert
	store, err := connectStore()
	if err != nil {
		log.Fatalf("Failed to connect to Weaviate: %v", err)
	}

	var docs []kbstore.Document
	var vectors [][]float32
	for i, seg := range segments {
		if !embedResults[i].Success {
			slog.Warn("skipping segment without embedding",
				"page", seg.PageNumber, "error", embedResults[i].Error)
			continue
		}
		docs = append(docs, kbstore.Document{
			Content:       texts[i],
			Partition:     partition,
			Year:          contentYear,
			ContentType:   contentType,
			Variant:       examVariant,
			SourceFile:    pdfPath,
			PageNumber:    seg.PageNumber,
			FigureCaption: seg.FigureCaption,
		})
		vectors = append(vectors, embedResults[i].Embedding)
	}

	upserted, err := store.UpsertBatch(ctx, docs, vectors)
	if err != nil {
		log.Fatalf("Failed to upsert documents: %v", err)
	}
	fmt.Printf("Upserted %d/%d documents (%d failed)\n",
		upserted.Successful, upserted.Attempted, upserted.Failed)
}

func runSourcesList(cmd *cobra.Command, args []string) {
	store, err := connectStore()
	if err != nil {
		log.Fatalf("Failed to connect to Weaviate: %v", err)
	}
	sources, err := store.ListSources(context.Background())
	if err != nil {
		log.Fatalf("Failed to list sources: %v", err)
	}
	if len(sources) == 0 {
		fmt.Println("No sources ingested yet")
		return
	}
	for _, source := range sources {
		fmt.Println(source)
	}
}

func runSourcesDelete(cmd *cobra.Command, args []string) {
	store, err := connectStore()
	if err != nil {
		log.Fatalf("Failed to connect to Weaviate: %v", err)
	}
	if err := store.DeleteBySource(context.Background(), args[0]); err != nil {
		log.Fatalf("Failed to delete source: %v", err)
	}
	fmt.Printf("Deleted all segments from %s\n", args[0])
}

func connectStore() (*kbstore.Store, error) {
	rawURL := strings.Trim(config.Weaviate.URL, "\"' ")
	if rawURL == "" {
		return nil, fmt.Errorf("weaviate URL not configured (set WEAVIATE_SERVICE_URL or weaviate.url)")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid weaviate URL %q", rawURL)
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Host:   parsed.Host,
		Scheme: parsed.Scheme,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Weaviate client: %w", err)
	}
	if err := kbstore.EnsureSchema(client); err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return kbstore.NewStore(client), nil
}
