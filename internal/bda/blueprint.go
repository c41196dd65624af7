package bda

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	bdasvc "github.com/aws/aws-sdk-go-v2/service/bedrockdataautomation"
	ctltypes "github.com/aws/aws-sdk-go-v2/service/bedrockdataautomation/types"
)

// FindServiceBlueprint resolves a service-owned blueprint by name to its ARN.
// Returns ErrBlueprintNotFound when no blueprint of that name exists.
func FindServiceBlueprint(ctx context.Context, api ControlAPI, name string) (string, error) {
	var next *string
	for {
		out, err := api.ListBlueprints(ctx, &bdasvc.ListBlueprintsInput{
			ResourceOwner: ctltypes.ResourceOwnerService,
			NextToken:     next,
		})
		if err != nil {
			return "", fmt.Errorf("list blueprints: %w", err)
		}
		for _, bp := range out.Blueprints {
			if aws.ToString(bp.BlueprintName) == name {
				return aws.ToString(bp.BlueprintArn), nil
			}
		}
		if out.NextToken == nil {
			break
		}
		next = out.NextToken
	}
	return "", fmt.Errorf("%w: %s", ErrBlueprintNotFound, name)
}

// BlueprintSchema fetches the JSON schema a blueprint declares for its
// extraction output. The schema is used to validate custom-output documents;
// an empty schema means validation is skipped.
func BlueprintSchema(ctx context.Context, api ControlAPI, arn string, stage string) (string, error) {
	out, err := api.GetBlueprint(ctx, &bdasvc.GetBlueprintInput{
		BlueprintArn:   aws.String(arn),
		BlueprintStage: blueprintStage(stage),
	})
	if err != nil {
		return "", fmt.Errorf("get blueprint %s: %w", arn, err)
	}
	if out.Blueprint == nil || out.Blueprint.Schema == nil {
		return "", nil
	}
	return *out.Blueprint.Schema, nil
}

func blueprintStage(stage string) ctltypes.BlueprintStage {
	if stage == "DEVELOPMENT" {
		return ctltypes.BlueprintStageDevelopment
	}
	return ctltypes.BlueprintStageLive
}
