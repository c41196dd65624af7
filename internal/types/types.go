package types

// ProjectSpec describes the extraction project to provision. The standard
// output feature set is fixed in the provisioner; callers only choose
// identity, stage and the blueprint binding.
type ProjectSpec struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Stage         string `json:"stage"`          // "LIVE" or "DEVELOPMENT"
	BlueprintName string `json:"blueprint_name"` // service-owned blueprint to bind, e.g. "Advertisement"
}

// PipelineParams is the input of the extraction pipeline workflow: one
// asynchronous extraction job from submission through materialized results.
type PipelineParams struct {
	Project      ProjectSpec `json:"project"`
	InputURI     string      `json:"input_uri"`     // s3:// location of the media to extract
	OutputPrefix string      `json:"output_prefix"` // s3:// prefix the service writes results under
	ProfileARN   string      `json:"profile_arn"`   // data-automation profile
	ResultBucket string      `json:"result_bucket"` // bucket receiving the normalized parquet artifact
	// PollIntervalSeconds between status checks; defaults to 10 when zero.
	PollIntervalSeconds int `json:"poll_interval_seconds"`
}

// ProvisionResult reports the ensured project.
type ProvisionResult struct {
	ProjectARN string `json:"project_arn"`
	Stage      string `json:"stage"`
	Created    bool   `json:"created"` // false when an existing project was reused
}

// SubmitResult carries the job handle returned at submission.
type SubmitResult struct {
	InvocationARN string `json:"invocation_arn"`
	InvocationID  string `json:"invocation_id"`
}

// AwaitResult is the terminal status payload of a polled job.
type AwaitResult struct {
	Status      string `json:"status"` // SUCCEEDED or FAILED
	ManifestURI string `json:"manifest_uri,omitempty"`
	ErrorType   string `json:"error_type,omitempty"`
	ErrorMsg    string `json:"error_message,omitempty"`
	Polls       int    `json:"polls"`
}

// MaterializeParams drives result loading, reconciliation and the sink.
type MaterializeParams struct {
	ProjectName   string `json:"project_name"`
	BlueprintName string `json:"blueprint_name"`
	InvocationID  string `json:"invocation_id"`
	ManifestURI   string `json:"manifest_uri"`
	ResultBucket  string `json:"result_bucket"`
}

// MaterializeResult summarizes the produced artifact.
type MaterializeResult struct {
	ArtifactURI      string   `json:"artifact_uri"`
	Rows             int      `json:"rows"`
	Segments         int      `json:"segments"`
	DroppedRows      int      `json:"dropped_rows"`      // manifest rows that failed to decode
	SkippedLocations []string `json:"skipped_locations"` // detail documents that could not be fetched
}

// PipelineResult is the workflow's final output.
type PipelineResult struct {
	Provision   ProvisionResult   `json:"provision"`
	Submit      SubmitResult      `json:"submit"`
	Await       AwaitResult       `json:"await"`
	Materialize MaterializeResult `json:"materialize"`
}
