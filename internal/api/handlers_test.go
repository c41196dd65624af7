package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yourorg/bda-pipeline/internal/db"
)

type fakeInvocations struct {
	inv db.Invocation
	err error
}

func (f *fakeInvocations) Record(ctx context.Context, inv db.Invocation) (db.Invocation, error) {
	return inv, nil
}

func (f *fakeInvocations) MarkTerminal(ctx context.Context, invocationARN, status string, errMsg, artifactURI *string, statsJSON []byte) error {
	return nil
}

func (f *fakeInvocations) GetByInvocationID(ctx context.Context, invocationID string) (db.Invocation, error) {
	return f.inv, f.err
}

func (f *fakeInvocations) ListRecent(ctx context.Context, limit int) ([]db.Invocation, error) {
	return []db.Invocation{f.inv}, f.err
}

func getInvocation(t *testing.T, repo db.InvocationRepository, id string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/invocations/"+id, nil)
	c.Params = gin.Params{{Key: "id", Value: id}}

	NewPipelineHandler(nil, repo).GetInvocation(c)
	return w
}

func TestGetInvocationNotFound(t *testing.T) {
	// Repositories may wrap the sentinel; classification must survive that.
	repo := &fakeInvocations{err: fmt.Errorf("get invocation: %w", db.ErrNotFound)}
	if w := getInvocation(t, repo, "missing"); w.Code != http.StatusNotFound {
		t.Fatalf("status=%d; want %d", w.Code, http.StatusNotFound)
	}
}

func TestGetInvocationFound(t *testing.T) {
	repo := &fakeInvocations{inv: db.Invocation{InvocationID: "inv-1", Status: "succeeded"}}
	if w := getInvocation(t, repo, "inv-1"); w.Code != http.StatusOK {
		t.Fatalf("status=%d; want %d", w.Code, http.StatusOK)
	}
}

func TestGetInvocationNoLedger(t *testing.T) {
	if w := getInvocation(t, nil, "inv-1"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d; want %d", w.Code, http.StatusServiceUnavailable)
	}
}
