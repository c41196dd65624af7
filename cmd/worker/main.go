package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	tactivity "go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/yourorg/bda-pipeline/internal/activities"
	"github.com/yourorg/bda-pipeline/internal/bda"
	"github.com/yourorg/bda-pipeline/internal/db"
	bdametrics "github.com/yourorg/bda-pipeline/internal/metrics"
	"github.com/yourorg/bda-pipeline/internal/storage"
	"github.com/yourorg/bda-pipeline/internal/workflow"
)

func main() {
	_ = godotenv.Load()

	// Support both TEMPORAL_TARGET_HOST and TEMPORAL_ADDRESS for compatibility
	taddr := getenv("TEMPORAL_TARGET_HOST", getenv("TEMPORAL_ADDRESS", "localhost:7233"))
	ns := getenv("TEMPORAL_NAMESPACE", "default")
	q := getenv("TEMPORAL_TASK_QUEUE", "bda-pipeline")
	tmpDir := getenv("BDA_TMP_DIR", "/var/bda-pipeline")
	// Ensure scratch dir exists and is writable
	_ = os.MkdirAll(tmpDir, 0o777)

	// Structured logger (zap)
	zl := newZap(getenv("LOG_LEVEL", "info"))
	defer zl.Sync()

	// Metrics server
	bdametrics.Init()
	go func() {
		addr := bdametrics.AddrFromEnv()
		_ = bdametrics.Serve(addr)
	}()

	ctx := context.Background()
	control, runtime, err := bda.NewClients(ctx)
	if err != nil {
		log.Fatal("aws clients:", err)
	}
	store, err := storage.NewS3(ctx)
	if err != nil {
		log.Fatal("s3 client:", err)
	}

	var invocations db.InvocationRepository
	if pool, err := db.Connect(ctx, db.FromEnv()); err != nil {
		zl.Warn("invocation ledger unavailable, continuing without it", zap.Error(err))
	} else {
		defer pool.Close()
		if err := db.EnsureSchema(ctx, pool); err != nil {
			zl.Warn("schema check failed, continuing without ledger", zap.Error(err))
		} else {
			invocations = db.NewInvocationRepo(pool)
		}
	}

	c, err := client.Dial(client.Options{HostPort: taddr, Namespace: ns})
	if err != nil {
		log.Fatal("temporal client:", err)
	}
	defer c.Close()

	w := worker.New(c, q, worker.Options{})
	acts := activities.New(
		activities.Config{ScratchDir: tmpDir, FetchWorkers: 4},
		activities.Deps{Control: control, Runtime: runtime, Store: store, Invocations: invocations},
	)
	// Register activities with explicit names matching workflow.ExecuteActivity calls
	w.RegisterActivityWithOptions(acts.EnsureProject, tactivity.RegisterOptions{Name: "Activities.EnsureProject"})
	w.RegisterActivityWithOptions(acts.SubmitInvocation, tactivity.RegisterOptions{Name: "Activities.SubmitInvocation"})
	w.RegisterActivityWithOptions(acts.AwaitInvocation, tactivity.RegisterOptions{Name: "Activities.AwaitInvocation"})
	w.RegisterActivityWithOptions(acts.MaterializeResults, tactivity.RegisterOptions{Name: "Activities.MaterializeResults"})
	w.RegisterWorkflow(workflow.ExtractionPipelineWorkflow)

	zl.Info("worker started", zap.String("namespace", ns), zap.String("taskQueue", q), zap.String("tmp", tmpDir), zap.String("metrics", getenv("METRICS_ADDR", ":9090")))
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatal("worker failed:", err)
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func newZap(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
