package workflow

import (
	"context"
	"errors"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/interceptor"
	"go.temporal.io/sdk/temporal"

	"github.com/edvin/maildns/internal/metrics"
)

// ActivityInterceptor times every activity and gives untyped activity errors
// the activity name as their error type, so a failed RefreshMailServerDNS
// shows up as such in the Temporal UI instead of a generic ApplicationError.
type ActivityInterceptor struct {
	interceptor.WorkerInterceptorBase
}

func (e *ActivityInterceptor) InterceptActivity(
	ctx context.Context,
	next interceptor.ActivityInboundInterceptor,
) interceptor.ActivityInboundInterceptor {
	return &activityInterceptor{next: next}
}

type activityInterceptor struct {
	interceptor.ActivityInboundInterceptorBase
	next interceptor.ActivityInboundInterceptor
}

func (e *activityInterceptor) Init(outbound interceptor.ActivityOutboundInterceptor) error {
	return e.next.Init(outbound)
}

func (e *activityInterceptor) ExecuteActivity(
	ctx context.Context,
	in *interceptor.ExecuteActivityInput,
) (interface{}, error) {
	name := activity.GetInfo(ctx).ActivityType.Name
	start := time.Now()

	result, err := e.next.ExecuteActivity(ctx, in)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.ActivityDuration.WithLabelValues(name, outcome).Observe(time.Since(start).Seconds())

	if err == nil {
		return result, nil
	}
	return result, typedError(name, err)
}

// typedError leaves errors that already carry a type alone.
func typedError(activityName string, err error) error {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) && appErr.Type() != "" {
		return err
	}
	return temporal.NewApplicationError(err.Error(), activityName, err)
}
