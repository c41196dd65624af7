package bda

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	bdart "github.com/aws/aws-sdk-go-v2/service/bedrockdataautomationruntime"
	rttypes "github.com/aws/aws-sdk-go-v2/service/bedrockdataautomationruntime/types"

	"github.com/yourorg/bda-pipeline/internal/metrics"
	"github.com/yourorg/bda-pipeline/internal/types"
)

// Terminal status values reported by AwaitCompletion.
const (
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
)

// Poller drives a submitted job's status to a terminal state with a fixed
// inter-poll delay. It observes only; the job is never mutated from here.
type Poller struct {
	api RuntimeAPI

	// OnPoll, when set, is invoked after each status query (activity heartbeats).
	OnPoll func(status string, polls int)

	// sleep is overridden in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewPoller(api RuntimeAPI) *Poller {
	return &Poller{api: api, sleep: sleepCtx}
}

// AwaitCompletion blocks until the job reaches a terminal state or ctx is
// done. There is no built-in timeout; callers bound the wait through ctx.
// A transport failure is not retried and surfaces as ErrStatusQueryFailed,
// leaving the job indeterminate from the caller's perspective.
func (p *Poller) AwaitCompletion(ctx context.Context, handle JobHandle, interval time.Duration) (types.AwaitResult, error) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	polls := 0
	for {
		out, err := p.api.GetDataAutomationStatus(ctx, &bdart.GetDataAutomationStatusInput{
			InvocationArn: aws.String(handle.InvocationARN),
		})
		if err != nil {
			return types.AwaitResult{}, fmt.Errorf("%w: %s: %v", ErrStatusQueryFailed, handle.InvocationARN, err)
		}
		polls++
		metrics.StatusPolls.Inc()
		if p.OnPoll != nil {
			p.OnPoll(string(out.Status), polls)
		}

		switch out.Status {
		case rttypes.AutomationJobStatusCreated, rttypes.AutomationJobStatusInProgress:
			if err := p.sleep(ctx, interval); err != nil {
				return types.AwaitResult{}, err
			}
		case rttypes.AutomationJobStatusSuccess:
			res := types.AwaitResult{Status: StatusSucceeded, Polls: polls}
			if out.OutputConfiguration != nil {
				res.ManifestURI = aws.ToString(out.OutputConfiguration.S3Uri)
			}
			return res, nil
		default:
			// ServiceError, ClientError and anything the service adds later.
			return types.AwaitResult{
				Status:    StatusFailed,
				ErrorType: aws.ToString(out.ErrorType),
				ErrorMsg:  aws.ToString(out.ErrorMessage),
				Polls:     polls,
			}, nil
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
