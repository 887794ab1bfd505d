package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.temporal.io/api/enums/v1"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/edvin/maildns/internal/metrics"
	"github.com/edvin/maildns/internal/model"
	"github.com/edvin/maildns/internal/workflow"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint rejects a write.
	ErrConflict = errors.New("already exists")
)

// DB defines the database operations used by services.
// *pgxpool.Pool satisfies this interface.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// skipWorkflowKey is a context key that suppresses workflow execution.
// It lets rows be written without scheduling checks.
type skipWorkflowKey struct{}

// WithSkipWorkflow returns a context that causes enqueueCheck to be a no-op.
func WithSkipWorkflow(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipWorkflowKey{}, true)
}

// enqueueCheck starts a DomainCheckWorkflow under immediate:<id>. While a
// check for the domain is still running the call attaches to it instead of
// starting a second one.
func enqueueCheck(ctx context.Context, tc temporalclient.Client, domainID string) (string, error) {
	if v, _ := ctx.Value(skipWorkflowKey{}).(bool); v {
		return "", nil
	}

	run, err := tc.ExecuteWorkflow(ctx, temporalclient.StartWorkflowOptions{
		ID:                       workflow.ImmediateWorkflowID(domainID),
		TaskQueue:                workflow.TaskQueue,
		WorkflowIDConflictPolicy: enums.WORKFLOW_ID_CONFLICT_POLICY_USE_EXISTING,
		RetryPolicy:              workflow.JobRetryPolicy,
	}, workflow.DomainCheckWorkflow, workflow.DomainCheckParams{
		DomainID: domainID,
		Trigger:  model.TriggerImmediate,
	})
	if err != nil {
		return "", fmt.Errorf("start DomainCheckWorkflow: %w", err)
	}
	metrics.DomainChecksEnqueuedTotal.WithLabelValues(model.TriggerImmediate).Inc()
	return run.GetRunID(), nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrConflict
	}
	return err
}
