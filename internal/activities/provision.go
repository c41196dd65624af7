package activities

import (
	"context"

	"go.temporal.io/sdk/activity"

	"github.com/yourorg/bda-pipeline/internal/bda"
	"github.com/yourorg/bda-pipeline/internal/types"
)

// EnsureProject provisions the extraction project if it does not already
// exist. Safe to retry: an existing project is returned unchanged and no
// second create call is issued.
func (a *Activities) EnsureProject(ctx context.Context, spec types.ProjectSpec) (types.ProvisionResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Ensuring extraction project", "name", spec.Name, "stage", spec.Stage)

	project, created, err := bda.NewProvisioner(a.deps.Control).EnsureProject(ctx, spec)
	if err != nil {
		return types.ProvisionResult{}, err
	}
	if created {
		logger.Info("Created extraction project", "project_arn", project.ARN)
	} else {
		logger.Info("Reusing existing extraction project", "project_arn", project.ARN)
	}
	return types.ProvisionResult{ProjectARN: project.ARN, Stage: project.Stage, Created: created}, nil
}
