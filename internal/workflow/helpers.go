package workflow

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/edvin/maildns/internal/activity"
	"github.com/edvin/maildns/internal/model"
)

// TaskQueue is the Temporal task queue served by the mail DNS worker.
const TaskQueue = "mail-dns-tasks"

// JobRetryPolicy bounds a whole domain check to three attempts. Activities
// inside the job are not retried on their own, a failure re-runs the job.
var JobRetryPolicy = &temporal.RetryPolicy{
	MaximumAttempts:    3,
	InitialInterval:    10 * time.Second,
	MaximumInterval:    2 * time.Minute,
	BackoffCoefficient: 2.0,
}

func jobActivityCtx(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})
}

// sendAlert is best-effort: alert failures are logged but never fail the job.
func sendAlert(ctx workflow.Context, alert model.Alert) {
	alertCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:    3,
			InitialInterval:    1 * time.Second,
			MaximumInterval:    10 * time.Second,
			BackoffCoefficient: 2.0,
		},
	})
	if err := workflow.ExecuteActivity(alertCtx, "SendAlert", alert).Get(ctx, nil); err != nil {
		workflow.GetLogger(ctx).Warn("failed to send alert",
			"domainID", alert.DomainID, "severity", alert.Severity, "error", err)
	}
}

func isNotFound(err error) bool {
	var appErr *temporal.ApplicationError
	return errors.As(err, &appErr) && appErr.Type() == activity.ErrTypeNotFound
}
