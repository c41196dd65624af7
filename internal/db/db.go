package db

import "context"

// EnsureSchema creates the invocation ledger table when absent. Idempotent;
// called from mains at startup.
func EnsureSchema(ctx context.Context, p *Pool) error {
	const ddl = `
create table if not exists invocation (
    id             bigserial primary key,
    project_name   text not null,
    project_arn    text not null,
    invocation_arn text not null unique,
    invocation_id  text not null,
    input_uri      text not null,
    status         text not null,
    error          text,
    artifact_uri   text,
    stats          jsonb,
    created_at     timestamptz not null default now()
);
create index if not exists invocation_invocation_id_idx on invocation (invocation_id);
`
	_, err := p.Exec(ctx, ddl)
	return err
}
