package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"github.com/yourorg/bda-pipeline/internal/db"
	"github.com/yourorg/bda-pipeline/internal/types"
)

// TaskQueue must match the queue the worker listens on.
const TaskQueue = "bda-pipeline"

type PipelineHandler struct {
	temporalClient client.Client
	invocations    db.InvocationRepository
}

func NewPipelineHandler(temporalClient client.Client, invocations db.InvocationRepository) *PipelineHandler {
	return &PipelineHandler{
		temporalClient: temporalClient,
		invocations:    invocations,
	}
}

type StartPipelineRequest struct {
	ProjectName   string `json:"project_name" binding:"required"`
	Description   string `json:"description"`
	Stage         string `json:"stage"`
	BlueprintName string `json:"blueprint_name"`
	InputURI      string `json:"input_uri" binding:"required"`
	OutputPrefix  string `json:"output_prefix" binding:"required"`
	ProfileARN    string `json:"profile_arn" binding:"required"`
	ResultBucket  string `json:"result_bucket" binding:"required"`
	PollInterval  int    `json:"poll_interval_seconds"`
}

type StartPipelineResponse struct {
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`
}

func (r StartPipelineRequest) params() types.PipelineParams {
	stage := r.Stage
	if stage == "" {
		stage = "LIVE"
	}
	return types.PipelineParams{
		Project: types.ProjectSpec{
			Name:          r.ProjectName,
			Description:   r.Description,
			Stage:         stage,
			BlueprintName: r.BlueprintName,
		},
		InputURI:            r.InputURI,
		OutputPrefix:        r.OutputPrefix,
		ProfileARN:          r.ProfileARN,
		ResultBucket:        r.ResultBucket,
		PollIntervalSeconds: r.PollInterval,
	}
}

// StartPipeline starts a new extraction pipeline workflow for one input.
func (h *PipelineHandler) StartPipeline(c *gin.Context) {
	var req StartPipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	options := client.StartWorkflowOptions{
		ID:        "extract-" + uuid.NewString(),
		TaskQueue: TaskQueue,
	}
	workflowRun, err := h.temporalClient.ExecuteWorkflow(
		c.Request.Context(),
		options,
		"ExtractionPipelineWorkflow", // Must match the registered workflow name
		req.params(),
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start workflow: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, StartPipelineResponse{
		WorkflowID: workflowRun.GetID(),
		RunID:      workflowRun.GetRunID(),
	})
}

// GetPipelineStatus gets the status of a pipeline workflow execution.
func (h *PipelineHandler) GetPipelineStatus(c *gin.Context) {
	workflowID := c.Param("id")
	if workflowID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Workflow ID is required"})
		return
	}

	workflowRun := h.temporalClient.GetWorkflow(c.Request.Context(), workflowID, "")

	var result types.PipelineResult
	err := workflowRun.Get(c.Request.Context(), &result)
	if err != nil {
		// Workflow is still running or failed
		describe, descErr := h.temporalClient.DescribeWorkflowExecution(
			c.Request.Context(),
			workflowID,
			"",
		)
		if descErr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to describe workflow: " + descErr.Error()})
			return
		}

		status := describe.WorkflowExecutionInfo.Status.String()
		c.JSON(http.StatusOK, gin.H{
			"workflow_id": workflowID,
			"status":      status,
			"start_time":  describe.WorkflowExecutionInfo.StartTime,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"workflow_id": workflowID,
		"status":      "COMPLETED",
		"result":      result,
	})
}

// ListInvocations returns the newest ledger records.
func (h *PipelineHandler) ListInvocations(c *gin.Context) {
	if h.invocations == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "invocation ledger not configured"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	invs, err := h.invocations.ListRecent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invocations": invs})
}

// GetInvocation returns one ledger record by invocation id.
func (h *PipelineHandler) GetInvocation(c *gin.Context) {
	if h.invocations == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "invocation ledger not configured"})
		return
	}
	inv, err := h.invocations.GetByInvocationID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "invocation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, inv)
}
