// Package pipeline composes submission, polling, result loading,
// reconciliation and the columnar sink into one run. All collaborators are
// injected; nothing here holds process-wide state.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/bda-pipeline/internal/bda"
	"github.com/yourorg/bda-pipeline/internal/db"
	"github.com/yourorg/bda-pipeline/internal/manifest"
	"github.com/yourorg/bda-pipeline/internal/reconcile"
	"github.com/yourorg/bda-pipeline/internal/storage"
	"github.com/yourorg/bda-pipeline/internal/table"
	"github.com/yourorg/bda-pipeline/internal/types"
)

// Config wires a Pipeline. Control, Runtime and Store are required;
// Invocations and Cache are optional.
type Config struct {
	Control     bda.ControlAPI
	Runtime     bda.RuntimeAPI
	Store       storage.ObjectStore
	Invocations db.InvocationRepository
	Cache       reconcile.DetailCache
	// FetchWorkers bounds concurrent detail-document fetches.
	FetchWorkers int
	// OnFetch is forwarded to the reconciler; the activity heartbeats from it.
	OnFetch func(done, total int)
	Logger  *zap.Logger
}

type Pipeline struct {
	provisioner *bda.Provisioner
	submitter   *bda.Submitter
	poller      *bda.Poller
	cfg         Config
	logger      *zap.Logger
}

func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		provisioner: bda.NewProvisioner(cfg.Control),
		submitter:   bda.NewSubmitter(cfg.Runtime),
		poller:      bda.NewPoller(cfg.Runtime),
		cfg:         cfg,
		logger:      logger,
	}
}

// Run drives one extraction job end to end: ensure the project, submit,
// await the terminal state, then materialize results on success. A FAILED
// job is a valid terminal outcome, reported in the result rather than as an
// error.
func (p *Pipeline) Run(ctx context.Context, params types.PipelineParams) (types.PipelineResult, error) {
	var result types.PipelineResult

	project, created, err := p.provisioner.EnsureProject(ctx, params.Project)
	if err != nil {
		return result, fmt.Errorf("ensure project: %w", err)
	}
	result.Provision = types.ProvisionResult{ProjectARN: project.ARN, Stage: project.Stage, Created: created}
	p.logger.Info("project ensured",
		zap.String("project_arn", project.ARN), zap.Bool("created", created))

	handle, err := p.submitter.Submit(ctx, bda.SubmitParams{
		ProjectARN:   project.ARN,
		Stage:        params.Project.Stage,
		InputURI:     params.InputURI,
		OutputPrefix: params.OutputPrefix,
		ProfileARN:   params.ProfileARN,
	})
	if err != nil {
		return result, err
	}
	result.Submit = types.SubmitResult{InvocationARN: handle.InvocationARN, InvocationID: handle.InvocationID}
	p.recordSubmission(ctx, params, project, handle)

	await, err := p.poller.AwaitCompletion(ctx, handle, time.Duration(params.PollIntervalSeconds)*time.Second)
	if err != nil {
		return result, err
	}
	result.Await = await

	if await.Status != bda.StatusSucceeded {
		p.logger.Warn("job failed",
			zap.String("invocation_arn", handle.InvocationARN),
			zap.String("error_type", await.ErrorType),
			zap.String("error_message", await.ErrorMsg))
		p.markTerminal(ctx, handle.InvocationARN, "failed", &await.ErrorMsg, nil, nil)
		return result, nil
	}

	mat, err := p.Materialize(ctx, types.MaterializeParams{
		ProjectName:   params.Project.Name,
		BlueprintName: params.Project.BlueprintName,
		InvocationID:  handle.InvocationID,
		ManifestURI:   await.ManifestURI,
		ResultBucket:  params.ResultBucket,
	})
	if err != nil {
		msg := err.Error()
		p.markTerminal(ctx, handle.InvocationARN, "materialize_failed", &msg, nil, nil)
		return result, err
	}
	result.Materialize = mat

	stats, _ := json.Marshal(mat)
	p.markTerminal(ctx, handle.InvocationARN, "succeeded", nil, &mat.ArtifactURI, stats)
	return result, nil
}

// Materialize loads the manifest, reconciles standard and custom outputs and
// writes the normalized table to its deterministic artifact location.
func (p *Pipeline) Materialize(ctx context.Context, params types.MaterializeParams) (types.MaterializeResult, error) {
	segments, stats, err := manifest.Load(ctx, p.cfg.Store, params.ManifestURI)
	if err != nil {
		return types.MaterializeResult{}, err
	}

	rec, err := reconcile.New(reconcile.Config{
		Store:           p.cfg.Store,
		Cache:           p.cfg.Cache,
		Workers:         p.cfg.FetchWorkers,
		BlueprintSchema: p.blueprintSchema(ctx, params.BlueprintName),
		OnFetch:         p.cfg.OnFetch,
		Logger:          p.logger,
	})
	if err != nil {
		return types.MaterializeResult{}, fmt.Errorf("build reconciler: %w", err)
	}
	tbl, res, err := rec.Reconcile(ctx, segments)
	if err != nil {
		return types.MaterializeResult{}, err
	}

	// A manifest whose rows were all dropped, or that listed no assets at
	// all, yields an empty table. That is a valid zero-row outcome, not an
	// error; there is just no artifact to write.
	if len(tbl.Rows) == 0 {
		p.logger.Warn("no rows to materialize, skipping artifact",
			zap.String("manifest_uri", params.ManifestURI),
			zap.Int("dropped_rows", stats.Dropped))
		return types.MaterializeResult{
			Segments:         stats.Segments,
			DroppedRows:      stats.Dropped,
			SkippedLocations: res.Skipped,
		}, nil
	}

	uri := table.ArtifactURI(params.ResultBucket, params.ProjectName, params.InvocationID)
	if err := table.WriteParquet(ctx, p.cfg.Store, tbl, uri); err != nil {
		return types.MaterializeResult{}, err
	}
	p.logger.Info("normalized table written",
		zap.String("artifact_uri", uri),
		zap.Int("rows", res.Records),
		zap.Int("segments", stats.Segments),
		zap.Int("skipped_locations", len(res.Skipped)))

	return types.MaterializeResult{
		ArtifactURI:      uri,
		Rows:             res.Records,
		Segments:         stats.Segments,
		DroppedRows:      stats.Dropped,
		SkippedLocations: res.Skipped,
	}, nil
}

// blueprintSchema resolves the blueprint's declared schema for custom-output
// validation. Validation is enrichment only, so lookup failures just disable
// it.
func (p *Pipeline) blueprintSchema(ctx context.Context, blueprintName string) string {
	if blueprintName == "" || p.cfg.Control == nil {
		return ""
	}
	arn, err := bda.FindServiceBlueprint(ctx, p.cfg.Control, blueprintName)
	if err != nil {
		p.logger.Warn("blueprint lookup failed, skipping custom validation",
			zap.String("blueprint", blueprintName), zap.Error(err))
		return ""
	}
	schema, err := bda.BlueprintSchema(ctx, p.cfg.Control, arn, "LIVE")
	if err != nil {
		p.logger.Warn("blueprint schema fetch failed, skipping custom validation",
			zap.String("blueprint", blueprintName), zap.Error(err))
		return ""
	}
	return schema
}

func (p *Pipeline) recordSubmission(ctx context.Context, params types.PipelineParams, project bda.Project, handle bda.JobHandle) {
	if p.cfg.Invocations == nil {
		return
	}
	_, err := p.cfg.Invocations.Record(ctx, db.Invocation{
		ProjectName:   params.Project.Name,
		ProjectARN:    project.ARN,
		InvocationARN: handle.InvocationARN,
		InvocationID:  handle.InvocationID,
		InputURI:      params.InputURI,
	})
	if err != nil {
		p.logger.Warn("invocation ledger insert failed", zap.Error(err))
	}
}

func (p *Pipeline) markTerminal(ctx context.Context, invocationARN, status string, errMsg, artifactURI *string, stats []byte) {
	if p.cfg.Invocations == nil {
		return
	}
	if err := p.cfg.Invocations.MarkTerminal(ctx, invocationARN, status, errMsg, artifactURI, stats); err != nil {
		p.logger.Warn("invocation ledger update failed", zap.Error(err))
	}
}
