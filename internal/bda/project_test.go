package bda

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	bdasvc "github.com/aws/aws-sdk-go-v2/service/bedrockdataautomation"
	ctltypes "github.com/aws/aws-sdk-go-v2/service/bedrockdataautomation/types"

	"github.com/yourorg/bda-pipeline/internal/types"
)

type fakeControl struct {
	projects   []ctltypes.DataAutomationProjectSummary
	blueprints []ctltypes.BlueprintSummary

	createCalls int
	listCalls   int
}

func (f *fakeControl) ListDataAutomationProjects(ctx context.Context, params *bdasvc.ListDataAutomationProjectsInput, optFns ...func(*bdasvc.Options)) (*bdasvc.ListDataAutomationProjectsOutput, error) {
	f.listCalls++
	// Serve one project per page to exercise pagination.
	if len(f.projects) == 0 {
		return &bdasvc.ListDataAutomationProjectsOutput{}, nil
	}
	idx := 0
	if params.NextToken != nil {
		idx = len(f.projects) - 1 // last page
	}
	out := &bdasvc.ListDataAutomationProjectsOutput{
		Projects: f.projects[idx : idx+1],
	}
	if params.NextToken == nil && len(f.projects) > 1 {
		out.NextToken = aws.String("page2")
	}
	return out, nil
}

func (f *fakeControl) CreateDataAutomationProject(ctx context.Context, params *bdasvc.CreateDataAutomationProjectInput, optFns ...func(*bdasvc.Options)) (*bdasvc.CreateDataAutomationProjectOutput, error) {
	f.createCalls++
	arn := "arn:aws:bedrock:us-east-1:123456789012:data-automation-project/" + aws.ToString(params.ProjectName)
	f.projects = append(f.projects, ctltypes.DataAutomationProjectSummary{
		ProjectArn:   aws.String(arn),
		ProjectName:  params.ProjectName,
		ProjectStage: params.ProjectStage,
	})
	return &bdasvc.CreateDataAutomationProjectOutput{
		ProjectArn:   aws.String(arn),
		ProjectStage: params.ProjectStage,
	}, nil
}

func (f *fakeControl) ListBlueprints(ctx context.Context, params *bdasvc.ListBlueprintsInput, optFns ...func(*bdasvc.Options)) (*bdasvc.ListBlueprintsOutput, error) {
	return &bdasvc.ListBlueprintsOutput{Blueprints: f.blueprints}, nil
}

func (f *fakeControl) GetBlueprint(ctx context.Context, params *bdasvc.GetBlueprintInput, optFns ...func(*bdasvc.Options)) (*bdasvc.GetBlueprintOutput, error) {
	for _, bp := range f.blueprints {
		if aws.ToString(bp.BlueprintArn) == aws.ToString(params.BlueprintArn) {
			return &bdasvc.GetBlueprintOutput{
				Blueprint: &ctltypes.Blueprint{
					BlueprintArn: bp.BlueprintArn,
					Schema:       aws.String(`{"type":"object"}`),
				},
			}, nil
		}
	}
	return nil, errors.New("no such blueprint")
}

func adSpec() types.ProjectSpec {
	return types.ProjectSpec{
		Name:          "ECommerceExtraction",
		Description:   "e-commerce media extraction",
		Stage:         "LIVE",
		BlueprintName: "Advertisement",
	}
}

func TestEnsureProjectIdempotent(t *testing.T) {
	fake := &fakeControl{
		blueprints: []ctltypes.BlueprintSummary{{
			BlueprintArn:  aws.String("arn:aws:bedrock:us-east-1:aws:blueprint/advertisement"),
			BlueprintName: aws.String("Advertisement"),
		}},
	}
	prov := NewProvisioner(fake)

	first, created, err := prov.EnsureProject(context.Background(), adSpec())
	if err != nil {
		t.Fatalf("first EnsureProject: %v", err)
	}
	if !created {
		t.Fatal("expected first call to create the project")
	}
	if fake.createCalls != 1 {
		t.Fatalf("createCalls=%d; want 1", fake.createCalls)
	}

	second, created, err := prov.EnsureProject(context.Background(), adSpec())
	if err != nil {
		t.Fatalf("second EnsureProject: %v", err)
	}
	if created {
		t.Fatal("expected second call to reuse the existing project")
	}
	if fake.createCalls != 1 {
		t.Fatalf("createCalls=%d after second ensure; want 1", fake.createCalls)
	}
	if first.ARN != second.ARN {
		t.Fatalf("ARN mismatch: %q vs %q", first.ARN, second.ARN)
	}
}

func TestEnsureProjectFindsAcrossPages(t *testing.T) {
	fake := &fakeControl{
		projects: []ctltypes.DataAutomationProjectSummary{
			{ProjectArn: aws.String("arn:p/other"), ProjectName: aws.String("Other")},
			{ProjectArn: aws.String("arn:p/target"), ProjectName: aws.String("ECommerceExtraction"), ProjectStage: ctltypes.DataAutomationProjectStageLive},
		},
	}
	prov := NewProvisioner(fake)

	p, created, err := prov.EnsureProject(context.Background(), adSpec())
	if err != nil {
		t.Fatalf("EnsureProject: %v", err)
	}
	if created || fake.createCalls != 0 {
		t.Fatal("expected lookup hit on the second page, no create")
	}
	if p.ARN != "arn:p/target" {
		t.Fatalf("ARN=%q; want arn:p/target", p.ARN)
	}
}

func TestEnsureProjectMissingBlueprint(t *testing.T) {
	prov := NewProvisioner(&fakeControl{})
	_, _, err := prov.EnsureProject(context.Background(), adSpec())
	if !errors.Is(err, ErrBlueprintNotFound) {
		t.Fatalf("err=%v; want ErrBlueprintNotFound", err)
	}
}
