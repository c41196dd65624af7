package activities

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"go.temporal.io/sdk/activity"

	"github.com/yourorg/bda-pipeline/internal/bda"
	"github.com/yourorg/bda-pipeline/internal/db"
	"github.com/yourorg/bda-pipeline/internal/pipeline"
	"github.com/yourorg/bda-pipeline/internal/reconcile"
	"github.com/yourorg/bda-pipeline/internal/types"
)

// SubmitInvocation starts one asynchronous extraction job. Not retried by
// the workflow: a rejection is surfaced to the caller as-is.
func (a *Activities) SubmitInvocation(ctx context.Context, params types.PipelineParams, provision types.ProvisionResult) (types.SubmitResult, error) {
	logger := activity.GetLogger(ctx)

	handle, err := bda.NewSubmitter(a.deps.Runtime).Submit(ctx, bda.SubmitParams{
		ProjectARN:   provision.ProjectARN,
		Stage:        params.Project.Stage,
		InputURI:     params.InputURI,
		OutputPrefix: params.OutputPrefix,
		ProfileARN:   params.ProfileARN,
	})
	if err != nil {
		return types.SubmitResult{}, err
	}
	logger.Info("Submitted extraction job",
		"invocation_arn", handle.InvocationARN, "input_uri", params.InputURI)

	if a.deps.Invocations != nil {
		_, err := a.deps.Invocations.Record(ctx, db.Invocation{
			ProjectName:   params.Project.Name,
			ProjectARN:    provision.ProjectARN,
			InvocationARN: handle.InvocationARN,
			InvocationID:  handle.InvocationID,
			InputURI:      params.InputURI,
		})
		if err != nil {
			logger.Warn("Invocation ledger insert failed", "error", err)
		}
	}
	return types.SubmitResult{InvocationARN: handle.InvocationARN, InvocationID: handle.InvocationID}, nil
}

// AwaitInvocation polls the job to a terminal state, heartbeating on every
// poll so a stuck worker is detected by the server rather than by a local
// timeout.
func (a *Activities) AwaitInvocation(ctx context.Context, submit types.SubmitResult, pollIntervalSeconds int) (types.AwaitResult, error) {
	logger := activity.GetLogger(ctx)

	poller := bda.NewPoller(a.deps.Runtime)
	poller.OnPoll = func(status string, polls int) {
		activity.RecordHeartbeat(ctx, map[string]any{"status": status, "polls": polls})
	}
	res, err := poller.AwaitCompletion(ctx, bda.JobHandle{
		InvocationARN: submit.InvocationARN,
		InvocationID:  submit.InvocationID,
	}, time.Duration(pollIntervalSeconds)*time.Second)
	if err != nil {
		return types.AwaitResult{}, err
	}
	logger.Info("Job reached terminal state",
		"invocation_arn", submit.InvocationARN, "status", res.Status, "polls", res.Polls)

	if res.Status != bda.StatusSucceeded && a.deps.Invocations != nil {
		msg := res.ErrorMsg
		if err := a.deps.Invocations.MarkTerminal(ctx, submit.InvocationARN, "failed", &msg, nil, nil); err != nil {
			logger.Warn("Invocation ledger update failed", "error", err)
		}
	}
	return res, nil
}

// MaterializeResults loads the manifest, reconciles the output trees and
// writes the parquet artifact. Detail documents are cached in a badger store
// under the scratch dir so a retried attempt does not refetch them.
func (a *Activities) MaterializeResults(ctx context.Context, params types.MaterializeParams) (types.MaterializeResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Materializing results", "manifest_uri", params.ManifestURI)

	// The cache outlives failed attempts on purpose: a retry reuses it and
	// only refetches what it never saw. It is removed once the artifact is
	// written.
	var cache reconcile.DetailCache = reconcile.NopCache{}
	var bc *reconcile.BadgerCache
	cachePath := ""
	if a.cfg.ScratchDir != "" {
		cachePath = filepath.Join(a.cfg.ScratchDir, params.InvocationID+".badger")
		var err error
		bc, err = reconcile.OpenBadgerCache(cachePath)
		if err != nil {
			logger.Warn("Badger cache unavailable, fetching without cache", "error", err)
			bc, cachePath = nil, ""
		} else {
			cache = bc
		}
	}

	p := pipeline.New(pipeline.Config{
		Control:      a.deps.Control,
		Runtime:      a.deps.Runtime,
		Store:        a.deps.Store,
		Cache:        cache,
		FetchWorkers: a.cfg.FetchWorkers,
		// Heartbeat per settled fetch so long materializations are not
		// failed by the server's heartbeat timeout.
		OnFetch: func(done, total int) {
			activity.RecordHeartbeat(ctx, map[string]any{"fetched": done, "total": total})
		},
	})
	res, err := p.Materialize(ctx, params)
	if bc != nil {
		_ = bc.Close()
	}
	if err != nil {
		return types.MaterializeResult{}, err
	}
	logger.Info("Materialized results",
		"artifact_uri", res.ArtifactURI, "rows", res.Rows,
		"segments", res.Segments, "skipped", len(res.SkippedLocations))
	if cachePath != "" {
		_ = os.RemoveAll(cachePath)
	}

	if a.deps.Invocations != nil {
		stats, _ := json.Marshal(res)
		arn := invocationARNFromID(ctx, a, params.InvocationID)
		if arn != "" {
			if err := a.deps.Invocations.MarkTerminal(ctx, arn, "succeeded", nil, &res.ArtifactURI, stats); err != nil {
				logger.Warn("Invocation ledger update failed", "error", err)
			}
		}
	}
	return res, nil
}

func invocationARNFromID(ctx context.Context, a *Activities, invocationID string) string {
	inv, err := a.deps.Invocations.GetByInvocationID(ctx, invocationID)
	if err != nil {
		return ""
	}
	return inv.InvocationARN
}
