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
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/AleutianAI/AleutianAnswers/analytics"
	"github.com/AleutianAI/AleutianAnswers/knowledge"
	"github.com/AleutianAI/AleutianAnswers/llm"
	"github.com/AleutianAI/AleutianAnswers/middleware"
	"github.com/AleutianAI/AleutianAnswers/observability"
	"github.com/AleutianAI/AleutianAnswers/retrieval"
	"github.com/AleutianAI/AleutianAnswers/routes"
	"github.com/AleutianAI/AleutianAnswers/services"
	"github.com/AleutianAI/AleutianAnswers/session"
)

const defaultKnowledgePath = "seed/knowledge.yaml"

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "aleutian-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("answers-service")))
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

// envInt reads an integer env var, returning fallback on absence or a
// value that fails to parse.
func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("Invalid integer env var, using default", "key", key, "value", raw)
		return fallback
	}
	return n
}

func buildLLMClient() (llm.Client, error) {
	llmBackendType := os.Getenv("LLM_BACKEND_TYPE")
	switch llmBackendType {
	case "openai":
		slog.Info("Using OpenAI LLM backend")
		return llm.NewOpenAIClient()
	case "ollama":
		slog.Info("Using Ollama LLM backend")
		return llm.NewOllamaClient()
	default:
		slog.Warn("LLM_BACKEND_TYPE not set or invalid, defaulting to ollama")
		return llm.NewOllamaClient()
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, relying on process environment")
	}

	port := os.Getenv("ANSWERS_PORT")
	if port == "" {
		port = "12310"
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// --- Init the tracer ---
	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Knowledge base ---
	store := knowledge.NewStore()
	defer store.Close()

	knowledgePath := os.Getenv("KNOWLEDGE_BASE_PATH")
	if knowledgePath == "" {
		knowledgePath = defaultKnowledgePath
	}
	docs, err := knowledge.LoadSeedFile(knowledgePath)
	if err != nil {
		slog.Warn("Failed to load the knowledge base, starting empty",
			"path", knowledgePath, "error", err)
	} else {
		if err := store.Replace(docs); err != nil {
			log.Fatalf("Failed to install the seeded knowledge base: %v", err)
		}
		slog.Info("Loaded knowledge base", "path", knowledgePath, "documents", len(docs))
	}
	watcher := knowledge.NewWatcher(store, knowledgePath)

	// --- Sessions ---
	sessions := session.NewStore(session.Config{
		MaxSessions: envInt("SESSION_MAX_COUNT", session.DefaultMaxSessions),
		IdleTTL:     time.Duration(envInt("SESSION_IDLE_TTL_MINUTES", 0)) * time.Minute,
		OnEvict: func(sessionID string, turns int) {
			observability.Default.SessionsEvictedTotal.Inc()
		},
	})
	observability.RegisterSessionGauge(func() float64 {
		return float64(sessions.Count())
	})
	sweeper := session.NewSweeper(sessions, session.DefaultSweepInterval)

	// --- Analytics ---
	ledger := analytics.NewLedger()

	// --- LLM client and chat service ---
	llmClient, err := buildLLMClient()
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}
	chatSvc := services.NewChatService(
		retrieval.NewEngine(store), sessions, ledger, llmClient, services.Config{})

	// --- HTTP surface ---
	router := gin.Default()
	router.Use(otelgin.Middleware("answers-service"))
	router.Use(middleware.RequestLogger())
	limiter := middleware.NewRateLimiter(
		float64(envInt("RATE_LIMIT_RPS", middleware.DefaultRequestsPerSecond)),
		envInt("RATE_LIMIT_BURST", middleware.DefaultBurst))
	router.Use(limiter.Middleware())

	routes.SetupRoutes(router, chatSvc, sessions, ledger)

	srv := &http.Server{Addr: ":" + port, Handler: router}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Starting the answers server", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sweeper.Run(gctx)
	})
	g.Go(func() error {
		if err := watcher.Run(gctx); err != nil {
			slog.Error("Knowledge base watcher stopped", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				limiter.SweepIdle(time.Now())
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
	slog.Info("Server shut down cleanly")
}
