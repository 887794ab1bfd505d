package activity

import (
	"context"
	"errors"

	"go.temporal.io/sdk/temporal"

	"github.com/edvin/maildns/internal/alert"
	"github.com/edvin/maildns/internal/model"
)

// Notifier delivers a single alert.
type Notifier interface {
	Send(ctx context.Context, a model.Alert) error
}

// Alerts contains the activity that emits domain check notifications.
type Alerts struct {
	notifier Notifier
}

// NewAlerts creates a new Alerts activity struct.
func NewAlerts(notifier Notifier) *Alerts {
	return &Alerts{notifier: notifier}
}

// SendAlert sends one alert. A 4xx from the webhook is not retried.
func (a *Alerts) SendAlert(ctx context.Context, params model.Alert) error {
	err := a.notifier.Send(ctx, params)
	var statusErr *alert.StatusError
	if errors.As(err, &statusErr) && !statusErr.Temporary() {
		return temporal.NewNonRetryableApplicationError(statusErr.Error(), "CLIENT_ERROR", err)
	}
	return err
}
