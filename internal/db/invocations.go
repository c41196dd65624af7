package db

import (
	"context"
	"time"
)

// Invocation is one submitted extraction job as tracked locally. The service
// owns the job's lifecycle; this ledger only records what was submitted and
// what the poller observed at the end.
type Invocation struct {
	ID            int64
	ProjectName   string
	ProjectARN    string
	InvocationARN string
	InvocationID  string
	InputURI      string
	Status        string
	Error         *string
	ArtifactURI   *string
	StatsJSON     []byte
	CreatedAt     time.Time
}

type InvocationRepository interface {
	// Record inserts a submitted invocation with status 'submitted'.
	Record(ctx context.Context, inv Invocation) (Invocation, error)
	// MarkTerminal stores the observed terminal status, error and artifact.
	MarkTerminal(ctx context.Context, invocationARN, status string, errMsg, artifactURI *string, statsJSON []byte) error
	// GetByInvocationID fetches one record; ErrNotFound if absent.
	GetByInvocationID(ctx context.Context, invocationID string) (Invocation, error)
	// ListRecent returns the newest records first.
	ListRecent(ctx context.Context, limit int) ([]Invocation, error)
}

func NewInvocationRepo(p *Pool) InvocationRepository { return &invocationRepo{p: p} }

type invocationRepo struct{ p *Pool }

const invocationCols = `id, project_name, project_arn, invocation_arn, invocation_id,
input_uri, status, error, artifact_uri, coalesce(stats,'{}'::jsonb), created_at`

func (r *invocationRepo) Record(ctx context.Context, inv Invocation) (Invocation, error) {
	const q = `insert into invocation
	             (project_name, project_arn, invocation_arn, invocation_id, input_uri, status)
	           values ($1, $2, $3, $4, $5, 'submitted')
	           returning ` + invocationCols
	var out Invocation
	err := r.p.QueryRow(ctx, q,
		inv.ProjectName, inv.ProjectARN, inv.InvocationARN, inv.InvocationID, inv.InputURI,
	).Scan(&out.ID, &out.ProjectName, &out.ProjectARN, &out.InvocationARN, &out.InvocationID,
		&out.InputURI, &out.Status, &out.Error, &out.ArtifactURI, &out.StatsJSON, &out.CreatedAt)
	if err != nil {
		return Invocation{}, mapPgErr(err)
	}
	return out, nil
}

func (r *invocationRepo) MarkTerminal(ctx context.Context, invocationARN, status string, errMsg, artifactURI *string, statsJSON []byte) error {
	const q = `update invocation
	           set status=$1, error=$2, artifact_uri=$3, stats=coalesce($4::jsonb, stats)
	           where invocation_arn=$5`
	var stats *string
	if statsJSON != nil {
		s := string(statsJSON)
		stats = &s
	}
	_, err := r.p.Exec(ctx, q, status, errMsg, artifactURI, stats, invocationARN)
	return mapPgErr(err)
}

func (r *invocationRepo) GetByInvocationID(ctx context.Context, invocationID string) (Invocation, error) {
	const q = `select ` + invocationCols + ` from invocation where invocation_id=$1`
	var out Invocation
	err := r.p.QueryRow(ctx, q, invocationID).
		Scan(&out.ID, &out.ProjectName, &out.ProjectARN, &out.InvocationARN, &out.InvocationID,
			&out.InputURI, &out.Status, &out.Error, &out.ArtifactURI, &out.StatsJSON, &out.CreatedAt)
	if err != nil {
		return Invocation{}, mapPgErr(err)
	}
	return out, nil
}

func (r *invocationRepo) ListRecent(ctx context.Context, limit int) ([]Invocation, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const q = `select ` + invocationCols + ` from invocation order by id desc limit $1`
	rows, err := r.p.Query(ctx, q, limit)
	if err != nil {
		return nil, mapPgErr(err)
	}
	defer rows.Close()
	var out []Invocation
	for rows.Next() {
		var inv Invocation
		if err := rows.Scan(&inv.ID, &inv.ProjectName, &inv.ProjectARN, &inv.InvocationARN, &inv.InvocationID,
			&inv.InputURI, &inv.Status, &inv.Error, &inv.ArtifactURI, &inv.StatsJSON, &inv.CreatedAt); err != nil {
			return nil, mapPgErr(err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}
