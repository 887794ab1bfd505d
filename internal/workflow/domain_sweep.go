package workflow

import (
	"time"

	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/edvin/maildns/internal/metrics"
	"github.com/edvin/maildns/internal/model"
)

// SweepWorkflowID is the child workflow ID used for a domain during a sweep.
func SweepWorkflowID(domainID string) string {
	return model.TriggerSweep + ":" + domainID
}

// ImmediateWorkflowID is the workflow ID used for a user-triggered check.
func ImmediateWorkflowID(domainID string) string {
	return model.TriggerImmediate + ":" + domainID
}

// DomainSweepWorkflow is a cron workflow that enqueues a DomainCheckWorkflow
// for every enabled domain. Children are abandoned so the sweep finishes as
// soon as they are started. A child already running for a domain counts as
// enqueued.
func DomainSweepWorkflow(ctx workflow.Context) error {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:    3,
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2.0,
		},
	})
	logger := workflow.GetLogger(ctx)

	var ids []string
	if err := workflow.ExecuteActivity(ctx, "ListSweepMailDomainIDs").Get(ctx, &ids); err != nil {
		return err
	}

	var started, deduped, failed int
	for _, id := range ids {
		childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
			WorkflowID:               SweepWorkflowID(id),
			TaskQueue:                TaskQueue,
			ParentClosePolicy:        enums.PARENT_CLOSE_POLICY_ABANDON,
			WorkflowExecutionTimeout: 30 * time.Minute,
			RetryPolicy:              JobRetryPolicy,
		})
		fut := workflow.ExecuteChildWorkflow(childCtx, DomainCheckWorkflow, DomainCheckParams{
			DomainID: id,
			Trigger:  model.TriggerSweep,
		})
		err := fut.GetChildWorkflowExecution().Get(ctx, nil)
		switch {
		case err == nil:
			started++
		case temporal.IsWorkflowExecutionAlreadyStartedError(err):
			deduped++
		default:
			failed++
			logger.Error("failed to start domain check", "domainID", id, "error", err)
		}
	}

	if !workflow.IsReplaying(ctx) {
		metrics.DomainChecksEnqueuedTotal.WithLabelValues(model.TriggerSweep).Add(float64(started))
	}
	logger.Info("domain sweep enqueued", "domains", len(ids), "started", started, "deduplicated", deduped, "failed", failed)
	return nil
}
