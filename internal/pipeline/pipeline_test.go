package pipeline

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	bdasvc "github.com/aws/aws-sdk-go-v2/service/bedrockdataautomation"
	ctltypes "github.com/aws/aws-sdk-go-v2/service/bedrockdataautomation/types"
	bdart "github.com/aws/aws-sdk-go-v2/service/bedrockdataautomationruntime"
	rttypes "github.com/aws/aws-sdk-go-v2/service/bedrockdataautomationruntime/types"

	"github.com/yourorg/bda-pipeline/internal/bda"
	"github.com/yourorg/bda-pipeline/internal/storage"
	"github.com/yourorg/bda-pipeline/internal/types"
)

type stubControl struct{}

func (stubControl) ListDataAutomationProjects(ctx context.Context, params *bdasvc.ListDataAutomationProjectsInput, optFns ...func(*bdasvc.Options)) (*bdasvc.ListDataAutomationProjectsOutput, error) {
	return &bdasvc.ListDataAutomationProjectsOutput{
		Projects: []ctltypes.DataAutomationProjectSummary{{
			ProjectArn:   aws.String("arn:p/pipe"),
			ProjectName:  aws.String("PipeProject"),
			ProjectStage: ctltypes.DataAutomationProjectStageLive,
		}},
	}, nil
}

func (stubControl) CreateDataAutomationProject(ctx context.Context, params *bdasvc.CreateDataAutomationProjectInput, optFns ...func(*bdasvc.Options)) (*bdasvc.CreateDataAutomationProjectOutput, error) {
	return &bdasvc.CreateDataAutomationProjectOutput{}, nil
}

func (stubControl) ListBlueprints(ctx context.Context, params *bdasvc.ListBlueprintsInput, optFns ...func(*bdasvc.Options)) (*bdasvc.ListBlueprintsOutput, error) {
	return &bdasvc.ListBlueprintsOutput{}, nil
}

func (stubControl) GetBlueprint(ctx context.Context, params *bdasvc.GetBlueprintInput, optFns ...func(*bdasvc.Options)) (*bdasvc.GetBlueprintOutput, error) {
	return &bdasvc.GetBlueprintOutput{}, nil
}

type stubRuntime struct {
	status      rttypes.AutomationJobStatus
	manifestURI string
}

func (s stubRuntime) InvokeDataAutomationAsync(ctx context.Context, params *bdart.InvokeDataAutomationAsyncInput, optFns ...func(*bdart.Options)) (*bdart.InvokeDataAutomationAsyncOutput, error) {
	return &bdart.InvokeDataAutomationAsyncOutput{
		InvocationArn: aws.String("arn:aws:bedrock:us-east-1:1:data-automation-invocation/inv-1"),
	}, nil
}

func (s stubRuntime) GetDataAutomationStatus(ctx context.Context, params *bdart.GetDataAutomationStatusInput, optFns ...func(*bdart.Options)) (*bdart.GetDataAutomationStatusOutput, error) {
	out := &bdart.GetDataAutomationStatusOutput{Status: s.status}
	if s.status == rttypes.AutomationJobStatusSuccess {
		out.OutputConfiguration = &rttypes.OutputConfiguration{S3Uri: aws.String(s.manifestURI)}
	} else {
		out.ErrorType = aws.String("ServiceError")
		out.ErrorMessage = aws.String("model unavailable")
	}
	return out, nil
}

func pipelineParams() types.PipelineParams {
	return types.PipelineParams{
		Project: types.ProjectSpec{
			Name:          "PipeProject",
			Stage:         "LIVE",
			BlueprintName: "Advertisement",
		},
		InputURI:            "s3://in/ad.mp4",
		OutputPrefix:        "s3://results/jobs",
		ProfileARN:          "arn:profile",
		ResultBucket:        "results",
		PollIntervalSeconds: 1,
	}
}

func TestRunSuccess(t *testing.T) {
	manifestURI := "s3://results/jobs/inv-1/job_metadata.json"
	ms := storage.NewMemStore()
	ms.Objects[manifestURI] = []byte(`{
	  "output_metadata": [
	    {
	      "asset_id": "a0",
	      "segment_metadata": [
	        {"semantic_modality": "VIDEO", "standard_output_path": "s3://results/jobs/inv-1/0/standard.json", "custom_output_path": "s3://results/jobs/inv-1/0/custom.json", "custom_output_status": "MATCH"}
	      ]
	    }
	  ]
	}`)
	ms.Objects["s3://results/jobs/inv-1/0/standard.json"] = []byte(`{"video": {"summary": "spot"}}`)
	ms.Objects["s3://results/jobs/inv-1/0/custom.json"] = []byte(`{"matched_blueprint": {"name": "Advertisement"}, "inference_result": {"brand": "Acme"}}`)

	p := New(Config{
		Control: stubControl{},
		Runtime: stubRuntime{status: rttypes.AutomationJobStatusSuccess, manifestURI: manifestURI},
		Store:   ms,
	})

	result, err := p.Run(context.Background(), pipelineParams())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Provision.ProjectARN != "arn:p/pipe" || result.Provision.Created {
		t.Fatalf("Provision=%+v; want existing project reused", result.Provision)
	}
	if result.Submit.InvocationID != "inv-1" {
		t.Fatalf("InvocationID=%q", result.Submit.InvocationID)
	}
	if result.Await.Status != bda.StatusSucceeded {
		t.Fatalf("Await.Status=%q", result.Await.Status)
	}
	// One custom row plus one standard row.
	if result.Materialize.Rows != 2 || result.Materialize.Segments != 1 {
		t.Fatalf("Materialize=%+v; want 2 rows from 1 segment", result.Materialize)
	}

	wantArtifact := "s3://results/output/PipeProject/inv-1/normalized_rows.parquet"
	if result.Materialize.ArtifactURI != wantArtifact {
		t.Fatalf("ArtifactURI=%q; want %q", result.Materialize.ArtifactURI, wantArtifact)
	}
	if body := ms.Objects[wantArtifact]; len(body) == 0 {
		t.Fatal("artifact not written to the store")
	}
}

func TestRunEmptyManifest(t *testing.T) {
	manifestURI := "s3://results/jobs/inv-1/job_metadata.json"
	ms := storage.NewMemStore()
	ms.Objects[manifestURI] = []byte(`{"output_metadata": []}`)

	p := New(Config{
		Control: stubControl{},
		Runtime: stubRuntime{status: rttypes.AutomationJobStatusSuccess, manifestURI: manifestURI},
		Store:   ms,
	})

	result, err := p.Run(context.Background(), pipelineParams())
	if err != nil {
		t.Fatalf("a manifest with no assets is a valid zero-row run: %v", err)
	}
	if result.Await.Status != bda.StatusSucceeded {
		t.Fatalf("Await.Status=%q", result.Await.Status)
	}
	if result.Materialize.Rows != 0 || result.Materialize.ArtifactURI != "" {
		t.Fatalf("Materialize=%+v; want zero rows and no artifact", result.Materialize)
	}
	for uri := range ms.Objects {
		if uri != manifestURI {
			t.Fatalf("unexpected object written: %s", uri)
		}
	}
}

func TestRunJobFailure(t *testing.T) {
	p := New(Config{
		Control: stubControl{},
		Runtime: stubRuntime{status: rttypes.AutomationJobStatusServiceError},
		Store:   storage.NewMemStore(),
	})

	result, err := p.Run(context.Background(), pipelineParams())
	if err != nil {
		t.Fatalf("a failed job is a valid outcome, not an error: %v", err)
	}
	if result.Await.Status != bda.StatusFailed {
		t.Fatalf("Await.Status=%q; want %q", result.Await.Status, bda.StatusFailed)
	}
	if result.Await.ErrorMsg != "model unavailable" {
		t.Fatalf("ErrorMsg=%q", result.Await.ErrorMsg)
	}
	if result.Materialize.ArtifactURI != "" {
		t.Fatal("failed job must not materialize an artifact")
	}
}
