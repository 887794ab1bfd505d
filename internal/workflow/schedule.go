package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.temporal.io/api/enums/v1"
	temporalclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
)

// SweepScheduleID identifies the Temporal schedule that starts DomainSweepWorkflow.
const SweepScheduleID = "domain-dns-sweep"

// RegisterSweepSchedule creates the sweep schedule, or points an existing one
// at cron so that a changed DNS_SWEEP_CRON takes effect on redeploy. It
// returns true when the schedule was created.
func RegisterSweepSchedule(ctx context.Context, sc temporalclient.ScheduleClient, cron string) (bool, error) {
	spec := temporalclient.ScheduleSpec{CronExpressions: []string{cron}}

	_, err := sc.Create(ctx, temporalclient.ScheduleOptions{
		ID:      SweepScheduleID,
		Spec:    spec,
		Overlap: enums.SCHEDULE_OVERLAP_POLICY_SKIP,
		Action: &temporalclient.ScheduleWorkflowAction{
			ID:        SweepScheduleID,
			Workflow:  DomainSweepWorkflow,
			TaskQueue: TaskQueue,
		},
	})
	if err == nil {
		return true, nil
	}
	if !scheduleExists(err) {
		return false, fmt.Errorf("create schedule %s: %w", SweepScheduleID, err)
	}

	err = sc.GetHandle(ctx, SweepScheduleID).Update(ctx, temporalclient.ScheduleUpdateOptions{
		DoUpdate: func(in temporalclient.ScheduleUpdateInput) (*temporalclient.ScheduleUpdate, error) {
			sched := in.Description.Schedule
			sched.Spec = &spec
			return &temporalclient.ScheduleUpdate{Schedule: &sched}, nil
		},
	})
	if err != nil {
		return false, fmt.Errorf("update schedule %s: %w", SweepScheduleID, err)
	}
	return false, nil
}

func scheduleExists(err error) bool {
	if errors.Is(err, temporal.ErrScheduleAlreadyRunning) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "AlreadyExists") || strings.Contains(msg, "already registered")
}
