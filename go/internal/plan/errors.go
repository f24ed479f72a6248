package plan

import "errors"

// ErrPlanNotFound is returned when a plan-level operation names an id that
// is not in storage.
var ErrPlanNotFound = errors.New("plan not found")

// ErrLastPlan is returned when deleting the only remaining plan. The plan
// set must never become empty.
var ErrLastPlan = errors.New("cannot delete the last remaining plan")
