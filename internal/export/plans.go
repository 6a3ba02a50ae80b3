package export

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPlanHandle reports a product handle with no provisioned plan.
	ErrUnknownPlanHandle = errors.New("unknown plan handle")
	// ErrUnknownState reports a subscription state with no mapped status.
	ErrUnknownState = errors.New("unknown subscription state")
)

// planIDByHandle maps upstream product handles to the plan IDs provisioned
// in the target billing system. The mapping is closed on purpose: a handle
// missing here must fail the cycle loudly and get a row added, not export
// a guessed plan.
var planIDByHandle = map[string]string{
	"unlimited": "unlimited-gbp",
	"pro-plus":  "professional-gbp",
	"pro":       "scale-gbp",
	"basic":     "starter-gbp",
}

// statusByState maps upstream subscription states to target statuses.
// Past-due subscriptions stay active (dunning restarts downstream) and
// every terminal state folds into cancelled. Closed, like planIDByHandle.
var statusByState = map[string]string{
	"active":      "active",
	"canceled":    "cancelled",
	"expired":     "cancelled",
	"trial_ended": "cancelled",
	"trialing":    "trial",
	"past_due":    "active",
	"on_hold":     "paused",
}

func planIDFor(handle string) (string, error) {
	plan, ok := planIDByHandle[handle]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownPlanHandle, handle)
	}
	return plan, nil
}

func statusFor(state string) (string, error) {
	status, ok := statusByState[state]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownState, state)
	}
	return status, nil
}
