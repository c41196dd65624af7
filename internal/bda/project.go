package bda

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	bdasvc "github.com/aws/aws-sdk-go-v2/service/bedrockdataautomation"
	ctltypes "github.com/aws/aws-sdk-go-v2/service/bedrockdataautomation/types"

	"github.com/yourorg/bda-pipeline/internal/types"
)

// Project identifies a provisioned data-automation project.
type Project struct {
	ARN   string
	Name  string
	Stage string
}

// Provisioner ensures extraction projects exist. Created projects carry the
// fixed per-modality standard output feature set plus one blueprint binding.
type Provisioner struct {
	api ControlAPI
}

func NewProvisioner(api ControlAPI) *Provisioner { return &Provisioner{api: api} }

// EnsureProject looks the project up by name and creates it only when absent.
// The second return reports whether a create call was issued.
func (p *Provisioner) EnsureProject(ctx context.Context, spec types.ProjectSpec) (Project, bool, error) {
	existing, err := p.findProject(ctx, spec.Name)
	if err != nil {
		return Project{}, false, err
	}
	if existing != nil {
		return *existing, false, nil
	}

	blueprintARN, err := FindServiceBlueprint(ctx, p.api, spec.BlueprintName)
	if err != nil {
		return Project{}, false, err
	}

	out, err := p.api.CreateDataAutomationProject(ctx, &bdasvc.CreateDataAutomationProjectInput{
		ProjectName:                 aws.String(spec.Name),
		ProjectDescription:          aws.String(spec.Description),
		ProjectStage:                projectStage(spec.Stage),
		StandardOutputConfiguration: standardOutputConfiguration(),
		CustomOutputConfiguration: &ctltypes.CustomOutputConfiguration{
			Blueprints: []ctltypes.BlueprintItem{
				{
					BlueprintArn:   aws.String(blueprintARN),
					BlueprintStage: blueprintStage(spec.Stage),
				},
			},
		},
	})
	if err != nil {
		return Project{}, false, fmt.Errorf("create project %s: %w", spec.Name, err)
	}
	return Project{
		ARN:   aws.ToString(out.ProjectArn),
		Name:  spec.Name,
		Stage: string(out.ProjectStage),
	}, true, nil
}

func (p *Provisioner) findProject(ctx context.Context, name string) (*Project, error) {
	var next *string
	for {
		out, err := p.api.ListDataAutomationProjects(ctx, &bdasvc.ListDataAutomationProjectsInput{
			NextToken: next,
		})
		if err != nil {
			return nil, fmt.Errorf("list projects: %w", err)
		}
		for _, pr := range out.Projects {
			if aws.ToString(pr.ProjectName) == name {
				return &Project{
					ARN:   aws.ToString(pr.ProjectArn),
					Name:  name,
					Stage: string(pr.ProjectStage),
				}, nil
			}
		}
		if out.NextToken == nil {
			return nil, nil
		}
		next = out.NextToken
	}
}

// standardOutputConfiguration is the fixed extraction feature set: page and
// element granularity with bounding boxes and markdown for documents, text
// detection and summaries for images, transcripts and summaries for video
// and audio.
func standardOutputConfiguration() *ctltypes.StandardOutputConfiguration {
	return &ctltypes.StandardOutputConfiguration{
		Document: &ctltypes.DocumentStandardOutputConfiguration{
			Extraction: &ctltypes.DocumentStandardExtraction{
				Granularity: &ctltypes.DocumentExtractionGranularity{
					Types: []ctltypes.DocumentExtractionGranularityType{
						ctltypes.DocumentExtractionGranularityTypePage,
						ctltypes.DocumentExtractionGranularityTypeElement,
					},
				},
				BoundingBox: &ctltypes.DocumentBoundingBox{State: ctltypes.StateEnabled},
			},
			GenerativeField: &ctltypes.DocumentStandardGenerativeField{State: ctltypes.StateEnabled},
			OutputFormat: &ctltypes.DocumentOutputFormat{
				TextFormat: &ctltypes.DocumentOutputTextFormat{
					Types: []ctltypes.DocumentOutputTextFormatType{ctltypes.DocumentOutputTextFormatTypeMarkdown},
				},
				AdditionalFileFormat: &ctltypes.DocumentOutputAdditionalFileFormat{State: ctltypes.StateEnabled},
			},
		},
		Image: &ctltypes.ImageStandardOutputConfiguration{
			Extraction: &ctltypes.ImageStandardExtraction{
				Category: &ctltypes.ImageExtractionCategory{
					State: ctltypes.StateEnabled,
					Types: []ctltypes.ImageExtractionCategoryType{ctltypes.ImageExtractionCategoryTypeTextDetection},
				},
				BoundingBox: &ctltypes.ImageBoundingBox{State: ctltypes.StateEnabled},
			},
			GenerativeField: &ctltypes.ImageStandardGenerativeField{
				State: ctltypes.StateEnabled,
				Types: []ctltypes.ImageStandardGenerativeFieldType{ctltypes.ImageStandardGenerativeFieldTypeImageSummary},
			},
		},
		Video: &ctltypes.VideoStandardOutputConfiguration{
			Extraction: &ctltypes.VideoStandardExtraction{
				Category: &ctltypes.VideoExtractionCategory{
					State: ctltypes.StateEnabled,
					Types: []ctltypes.VideoExtractionCategoryType{ctltypes.VideoExtractionCategoryTypeTranscript},
				},
				BoundingBox: &ctltypes.VideoBoundingBox{State: ctltypes.StateEnabled},
			},
			GenerativeField: &ctltypes.VideoStandardGenerativeField{
				State: ctltypes.StateEnabled,
				Types: []ctltypes.VideoStandardGenerativeFieldType{ctltypes.VideoStandardGenerativeFieldTypeVideoSummary},
			},
		},
		Audio: &ctltypes.AudioStandardOutputConfiguration{
			Extraction: &ctltypes.AudioStandardExtraction{
				Category: &ctltypes.AudioExtractionCategory{
					State: ctltypes.StateEnabled,
					Types: []ctltypes.AudioExtractionCategoryType{ctltypes.AudioExtractionCategoryTypeTranscript},
				},
			},
			GenerativeField: &ctltypes.AudioStandardGenerativeField{
				State: ctltypes.StateEnabled,
				Types: []ctltypes.AudioStandardGenerativeFieldType{ctltypes.AudioStandardGenerativeFieldTypeAudioSummary},
			},
		},
	}
}

func projectStage(stage string) ctltypes.DataAutomationProjectStage {
	if stage == "DEVELOPMENT" {
		return ctltypes.DataAutomationProjectStageDevelopment
	}
	return ctltypes.DataAutomationProjectStageLive
}
