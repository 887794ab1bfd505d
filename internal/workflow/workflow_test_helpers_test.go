package workflow

import (
	"go.temporal.io/sdk/testsuite"

	"github.com/edvin/maildns/internal/activity"
)

// registerActivities registers activity structs with the test workflow
// environment so that parameter and return types can be deserialized correctly
// by the Temporal test framework. All activities are mocked via OnActivity.
func registerActivities(env *testsuite.TestWorkflowEnvironment) {
	env.RegisterActivity(&activity.CoreDB{})
	env.RegisterActivity(&activity.DNS{})
	env.RegisterActivity(&activity.MailServer{})
	env.RegisterActivity(&activity.Alerts{})
	env.RegisterActivity(&activity.Archive{})
}
