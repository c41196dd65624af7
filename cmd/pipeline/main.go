// Command pipeline runs one extraction job end to end without Temporal:
// ensure project, submit, poll, materialize. Useful for ad-hoc runs and
// smoke testing a new project configuration.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/yourorg/bda-pipeline/internal/bda"
	"github.com/yourorg/bda-pipeline/internal/db"
	"github.com/yourorg/bda-pipeline/internal/pipeline"
	"github.com/yourorg/bda-pipeline/internal/storage"
	"github.com/yourorg/bda-pipeline/internal/types"
)

func main() {
	_ = godotenv.Load()

	var (
		projectName  = flag.String("project", "MultimodalExtractionProject", "extraction project name")
		description  = flag.String("description", "Multimodal extraction project", "project description")
		stage        = flag.String("stage", "LIVE", "project stage (LIVE or DEVELOPMENT)")
		blueprint    = flag.String("blueprint", "Advertisement", "service blueprint to bind")
		inputURI     = flag.String("input", "", "s3:// URI of the input media (required)")
		outputPrefix = flag.String("output", "", "s3:// prefix for service results (required)")
		profileARN   = flag.String("profile-arn", "", "data-automation profile ARN (required)")
		resultBucket = flag.String("result-bucket", "", "bucket for the normalized parquet artifact (required)")
		pollInterval = flag.Int("poll-interval", 10, "seconds between status polls")
		timeout      = flag.Duration("timeout", 6*time.Hour, "overall run deadline")
	)
	flag.Parse()
	if *inputURI == "" || *outputPrefix == "" || *profileARN == "" || *resultBucket == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("logger:", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	control, runtime, err := bda.NewClients(ctx)
	if err != nil {
		logger.Fatal("aws clients", zap.Error(err))
	}
	store, err := storage.NewS3(ctx)
	if err != nil {
		logger.Fatal("s3 client", zap.Error(err))
	}

	var invocations db.InvocationRepository
	if pool, err := db.Connect(ctx, db.FromEnv()); err != nil {
		logger.Warn("invocation ledger unavailable, continuing without it", zap.Error(err))
	} else {
		defer pool.Close()
		if err := db.EnsureSchema(ctx, pool); err == nil {
			invocations = db.NewInvocationRepo(pool)
		}
	}

	p := pipeline.New(pipeline.Config{
		Control:      control,
		Runtime:      runtime,
		Store:        store,
		Invocations:  invocations,
		FetchWorkers: 4,
		Logger:       logger,
	})

	result, err := p.Run(ctx, types.PipelineParams{
		Project: types.ProjectSpec{
			Name:          *projectName,
			Description:   *description,
			Stage:         *stage,
			BlueprintName: *blueprint,
		},
		InputURI:            *inputURI,
		OutputPrefix:        *outputPrefix,
		ProfileARN:          *profileARN,
		ResultBucket:        *resultBucket,
		PollIntervalSeconds: *pollInterval,
	})
	if err != nil {
		logger.Fatal("pipeline run failed", zap.Error(err))
	}
	if result.Await.Status != bda.StatusSucceeded {
		logger.Error("job did not succeed",
			zap.String("status", result.Await.Status),
			zap.String("error_type", result.Await.ErrorType),
			zap.String("error_message", result.Await.ErrorMsg))
		os.Exit(1)
	}
	logger.Info("pipeline complete",
		zap.String("invocation_id", result.Submit.InvocationID),
		zap.String("artifact_uri", result.Materialize.ArtifactURI),
		zap.Int("rows", result.Materialize.Rows))
}
