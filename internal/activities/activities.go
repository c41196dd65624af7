package activities

import (
	"github.com/yourorg/bda-pipeline/internal/bda"
	"github.com/yourorg/bda-pipeline/internal/db"
	"github.com/yourorg/bda-pipeline/internal/storage"
)

type Config struct {
	// ScratchDir hosts per-invocation badger caches for detail-document fetches.
	ScratchDir string
	// FetchWorkers bounds concurrent detail-document fetches during materialization.
	FetchWorkers int
}

// Deps are the external collaborators; all injected, none global.
type Deps struct {
	Control bda.ControlAPI
	Runtime bda.RuntimeAPI
	Store   storage.ObjectStore
	// Invocations is optional; when nil no ledger records are written.
	Invocations db.InvocationRepository
}

type Activities struct {
	cfg  Config
	deps Deps
}

func New(cfg Config, deps Deps) *Activities { return &Activities{cfg: cfg, deps: deps} }
