package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"

	"github.com/yourorg/bda-pipeline/internal/api"
	"github.com/yourorg/bda-pipeline/internal/db"
)

func main() {
	_ = godotenv.Load()
	ctx := context.Background()

	// Invocation ledger (optional; the API degrades to workflow-only views)
	var invocations db.InvocationRepository
	if pool, err := db.Connect(ctx, db.FromEnv()); err != nil {
		log.Printf("Warning: invocation ledger unavailable: %v", err)
	} else {
		defer pool.Close()
		if err := db.EnsureSchema(ctx, pool); err != nil {
			log.Printf("Warning: schema check failed: %v", err)
		} else {
			invocations = db.NewInvocationRepo(pool)
		}
	}

	// Initialize Gin
	r := gin.Default()
	r.MaxMultipartMemory = 8 << 20 // 8MB

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// Initialize Temporal client
	temporalClient, err := client.Dial(client.Options{
		HostPort:  getEnv("TEMPORAL_ADDRESS", "localhost:7233"),
		Namespace: getEnv("TEMPORAL_NAMESPACE", "default"),
	})
	if err != nil {
		log.Fatalf("Failed to connect to Temporal: %v", err)
	}
	defer temporalClient.Close()

	// API routes
	apiV1 := r.Group("/api/v1")
	{
		handler := api.NewPipelineHandler(temporalClient, invocations)
		uploadHandler := api.NewUploadHandler(temporalClient)

		apiV1.POST("/pipelines", handler.StartPipeline)
		apiV1.GET("/pipelines/:id/status", handler.GetPipelineStatus)

		apiV1.GET("/invocations", handler.ListInvocations)
		apiV1.GET("/invocations/:id", handler.GetInvocation)

		apiV1.POST("/uploads", uploadHandler.UploadBatch)
	}

	// Start server
	port := getEnv("PORT", "8080")
	log.Printf("Server starting on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
