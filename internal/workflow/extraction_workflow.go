package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/yourorg/bda-pipeline/internal/types"
)

// ExtractionPipelineWorkflow drives one extraction job end to end: ensure
// the project exists, submit the job, poll to a terminal state, then
// materialize the normalized table. A FAILED job ends the workflow without
// error; the result carries the failure payload.
func ExtractionPipelineWorkflow(ctx workflow.Context, p types.PipelineParams) (types.PipelineResult, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	// Submission is not retried: a retry would start a second job on the
	// service side.
	submitAO := ao
	submitAO.RetryPolicy = &temporal.RetryPolicy{MaximumAttempts: 1}
	submitCtx := workflow.WithActivityOptions(ctx, submitAO)

	// Polling runs for as long as the job does; heartbeats bound failure
	// detection instead of the start-to-close timeout.
	awaitAO := ao
	awaitAO.StartToCloseTimeout = 12 * time.Hour
	awaitAO.HeartbeatTimeout = 2 * time.Minute
	awaitAO.RetryPolicy = &temporal.RetryPolicy{MaximumAttempts: 1}
	awaitCtx := workflow.WithActivityOptions(ctx, awaitAO)

	materializeAO := ao
	materializeAO.StartToCloseTimeout = 1 * time.Hour
	materializeAO.HeartbeatTimeout = 5 * time.Minute
	materializeCtx := workflow.WithActivityOptions(ctx, materializeAO)

	var result types.PipelineResult

	if err := workflow.ExecuteActivity(ctx, "Activities.EnsureProject", p.Project).Get(ctx, &result.Provision); err != nil {
		return types.PipelineResult{}, err
	}

	if err := workflow.ExecuteActivity(submitCtx, "Activities.SubmitInvocation", p, result.Provision).Get(ctx, &result.Submit); err != nil {
		return types.PipelineResult{}, err
	}

	if err := workflow.ExecuteActivity(awaitCtx, "Activities.AwaitInvocation", result.Submit, p.PollIntervalSeconds).Get(ctx, &result.Await); err != nil {
		return types.PipelineResult{}, err
	}
	if result.Await.Status != "SUCCEEDED" {
		return result, nil
	}

	mp := types.MaterializeParams{
		ProjectName:   p.Project.Name,
		BlueprintName: p.Project.BlueprintName,
		InvocationID:  result.Submit.InvocationID,
		ManifestURI:   result.Await.ManifestURI,
		ResultBucket:  p.ResultBucket,
	}
	if err := workflow.ExecuteActivity(materializeCtx, "Activities.MaterializeResults", mp).Get(ctx, &result.Materialize); err != nil {
		return types.PipelineResult{}, err
	}
	return result, nil
}
