package bda

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	bdasvc "github.com/aws/aws-sdk-go-v2/service/bedrockdataautomation"
	bdart "github.com/aws/aws-sdk-go-v2/service/bedrockdataautomationruntime"
)

// ControlAPI is the subset of the data-automation control-plane client used
// here; allows test fakes.
type ControlAPI interface {
	ListDataAutomationProjects(ctx context.Context, params *bdasvc.ListDataAutomationProjectsInput, optFns ...func(*bdasvc.Options)) (*bdasvc.ListDataAutomationProjectsOutput, error)
	CreateDataAutomationProject(ctx context.Context, params *bdasvc.CreateDataAutomationProjectInput, optFns ...func(*bdasvc.Options)) (*bdasvc.CreateDataAutomationProjectOutput, error)
	ListBlueprints(ctx context.Context, params *bdasvc.ListBlueprintsInput, optFns ...func(*bdasvc.Options)) (*bdasvc.ListBlueprintsOutput, error)
	GetBlueprint(ctx context.Context, params *bdasvc.GetBlueprintInput, optFns ...func(*bdasvc.Options)) (*bdasvc.GetBlueprintOutput, error)
}

// RuntimeAPI is the subset of the data-automation runtime client used here.
type RuntimeAPI interface {
	InvokeDataAutomationAsync(ctx context.Context, params *bdart.InvokeDataAutomationAsyncInput, optFns ...func(*bdart.Options)) (*bdart.InvokeDataAutomationAsyncOutput, error)
	GetDataAutomationStatus(ctx context.Context, params *bdart.GetDataAutomationStatusInput, optFns ...func(*bdart.Options)) (*bdart.GetDataAutomationStatusOutput, error)
}

// NewClients builds the control-plane and runtime clients from default AWS config.
func NewClients(ctx context.Context) (ControlAPI, RuntimeAPI, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	return bdasvc.NewFromConfig(cfg), bdart.NewFromConfig(cfg), nil
}
