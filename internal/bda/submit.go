package bda

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	bdart "github.com/aws/aws-sdk-go-v2/service/bedrockdataautomationruntime"
	rttypes "github.com/aws/aws-sdk-go-v2/service/bedrockdataautomationruntime/types"
	"github.com/google/uuid"

	"github.com/yourorg/bda-pipeline/internal/metrics"
)

// SubmitParams describes one asynchronous extraction job.
type SubmitParams struct {
	ProjectARN   string
	Stage        string // LIVE or DEVELOPMENT
	InputURI     string // s3:// media object
	OutputPrefix string // s3:// prefix for service-written results
	ProfileARN   string
}

// Submitter starts extraction jobs. It retains no state beyond the handle it
// returns.
type Submitter struct {
	api RuntimeAPI
}

func NewSubmitter(api RuntimeAPI) *Submitter { return &Submitter{api: api} }

// Submit invokes one asynchronous job and returns its invocation handle.
// A non-resolving project reference maps to ErrConfigurationNotFound; any
// other service rejection maps to ErrSubmissionRejected.
func (s *Submitter) Submit(ctx context.Context, p SubmitParams) (JobHandle, error) {
	out, err := s.api.InvokeDataAutomationAsync(ctx, &bdart.InvokeDataAutomationAsyncInput{
		InputConfiguration:  &rttypes.InputConfiguration{S3Uri: aws.String(p.InputURI)},
		OutputConfiguration: &rttypes.OutputConfiguration{S3Uri: aws.String(p.OutputPrefix)},
		DataAutomationConfiguration: &rttypes.DataAutomationConfiguration{
			DataAutomationProjectArn: aws.String(p.ProjectARN),
			Stage:                    automationStage(p.Stage),
		},
		DataAutomationProfileArn: aws.String(p.ProfileARN),
		ClientToken:              aws.String(uuid.NewString()),
	})
	if err != nil {
		var nf *rttypes.ResourceNotFoundException
		if errors.As(err, &nf) {
			return JobHandle{}, fmt.Errorf("%w: %s: %v", ErrConfigurationNotFound, p.ProjectARN, err)
		}
		return JobHandle{}, fmt.Errorf("%w: %v", ErrSubmissionRejected, err)
	}
	metrics.JobsSubmitted.Inc()
	arn := aws.ToString(out.InvocationArn)
	return JobHandle{InvocationARN: arn, InvocationID: invocationID(arn)}, nil
}

// JobHandle is the opaque reference to a submitted job.
type JobHandle struct {
	InvocationARN string
	InvocationID  string
}

// invocationID extracts the trailing id component of an invocation ARN.
func invocationID(arn string) string {
	if i := strings.LastIndexByte(arn, '/'); i >= 0 {
		return arn[i+1:]
	}
	return arn
}

func automationStage(stage string) rttypes.DataAutomationStage {
	if stage == "DEVELOPMENT" {
		return rttypes.DataAutomationStageDevelopment
	}
	return rttypes.DataAutomationStageLive
}
