// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/atharva9trix/plamboBE/services/llm"
	"github.com/atharva9trix/plamboBE/services/orchestrator/config"
	"github.com/atharva9trix/plamboBE/services/orchestrator/guardrails"
	"github.com/atharva9trix/plamboBE/services/orchestrator/observability"
	"github.com/atharva9trix/plamboBE/services/orchestrator/profiles"
	"github.com/atharva9trix/plamboBE/services/orchestrator/routes"
	"github.com/atharva9trix/plamboBE/services/orchestrator/services"
	"github.com/atharva9trix/plamboBE/services/orchestrator/sessions"
	"github.com/atharva9trix/plamboBE/services/orchestrator/sqlagent"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func initTracer(endpoint string) (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("plambo-orchestrator")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

func buildEmbedder(cfg *config.Config) (profiles.Embedder, error) {
	if cfg.Embedding.ServiceURL != "" {
		return profiles.NewHTTPEmbedder(cfg.Embedding.ServiceURL, cfg.Embedding.Model)
	}
	slog.Info("no embedding service configured, using OpenAI embeddings")
	return profiles.NewOpenAIEmbedder(os.Getenv("OPENAI_API_KEY"), cfg.Embedding.Model)
}

func main() {
	configPath := os.Getenv("PLAMBO_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config %s: %v", configPath, err)
	}

	// --- Init the tracer ---
	cleanup, err := initTracer(cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	observability.InitMetrics()

	log.Println("Configuring the LLM Client")
	generator, err := llm.NewClient(cfg.LLM.Backend, cfg.LLM.BaseURL, cfg.LLM.Model)
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}
	plannerModel := cfg.LLM.PlannerModel
	if plannerModel == "" {
		plannerModel = cfg.LLM.Model
	}
	planner, err := llm.NewClient(cfg.LLM.Backend, cfg.LLM.BaseURL, plannerModel)
	if err != nil {
		log.Fatalf("Failed to initialize planner LLM client: %v", err)
	}
	slog.Info("LLM backend ready", "backend", cfg.LLM.Backend,
		"model", cfg.LLM.Model, "planner_model", plannerModel)

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize embedder: %v", err)
	}

	registry := profiles.NewRegistry(cfg.Tenants)
	cache := profiles.NewStoreCache(registry)
	retriever := profiles.NewRetriever(cache, embedder,
		cfg.Retrieval.TopK, cfg.Retrieval.RelevanceThreshold)
	synthesizer := guardrails.NewSynthesizer(generator,
		cfg.GenerationTimeout(), cfg.Retrieval.AllowNoContext).
		WithExtraInstructions(cfg.Guardrails.ExtraInstructions)

	compiler := sqlagent.NewCompiler(planner)
	executor := sqlagent.NewExecutor(cfg.Analytics.DatasetDir, cfg.ExecTimeout())

	sessionStore, err := sessions.Open(cfg.Analytics.SessionsDBPath)
	if err != nil {
		log.Fatalf("Failed to open session store: %v", err)
	}
	defer sessionStore.Close()

	answerSvc := services.NewAnswerService(registry, retriever, synthesizer)
	analyticsSvc := services.NewAnalyticsService(compiler, executor,
		sessionStore, generator, cfg.Analytics.HistoryWindow)

	router := gin.Default()
	router.Use(otelgin.Middleware("plambo-orchestrator"))

	routes.SetupRoutes(router, registry, answerSvc, analyticsSvc, sessionStore)

	slog.Info("serving tenants", "count", len(registry.ListIDs()))
	log.Println("Starting the orchestrator server on port ", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
