package billing

import (
	"errors"
	"fmt"
	"slices"
)

// Plan is a tenant's subscription tier. It governs limits and feature flags
// only; it carries no access-control meaning and is a distinct type from
// access.Role so the two cannot be conflated.
type Plan string

const (
	PlanSolo       Plan = "solo"
	PlanTeam       Plan = "team"
	PlanBusiness   Plan = "business"
	PlanEnterprise Plan = "enterprise"
)

var (
	ErrUserLimitReached      = errors.New("billing: plan user limit reached")
	ErrWorkOrderLimitReached = errors.New("billing: plan work order limit reached")
)

// Valid reports whether p is a known plan.
func (p Plan) Valid() bool {
	switch p {
	case PlanSolo, PlanTeam, PlanBusiness, PlanEnterprise:
		return true
	default:
		return false
	}
}

// Limits describes what a plan allows. A zero limit means unlimited.
// MaxWorkOrdersPerMonth counts creations in a rolling 30-day window.
type Limits struct {
	MaxUsers              int
	MaxWorkOrdersPerMonth int
	Features              []string
}

// Feature flags gated by plan.
const (
	FeatureReports       = "reports"
	FeatureSlackNotify   = "slack_notify"
	FeatureLiveDispatch  = "live_dispatch"
	FeatureInvoiceExport = "invoice_export"
)

//nolint:gochecknoglobals // static plan table
var planLimits = map[Plan]Limits{
	PlanSolo:       {MaxUsers: 1, MaxWorkOrdersPerMonth: 50, Features: []string{FeatureReports}},
	PlanTeam:       {MaxUsers: 10, MaxWorkOrdersPerMonth: 500, Features: []string{FeatureReports, FeatureSlackNotify}},
	PlanBusiness:   {MaxUsers: 50, MaxWorkOrdersPerMonth: 2500, Features: []string{FeatureReports, FeatureSlackNotify, FeatureLiveDispatch}},
	PlanEnterprise: {Features: []string{FeatureReports, FeatureSlackNotify, FeatureLiveDispatch, FeatureInvoiceExport}},
}

// LimitsFor returns the limits for a plan. Unknown plans get the most
// restrictive tier.
func LimitsFor(p Plan) Limits {
	if l, ok := planLimits[p]; ok {
		return l
	}
	return planLimits[PlanSolo]
}

// HasFeature reports whether the plan enables a feature flag.
func (p Plan) HasFeature(feature string) bool {
	return slices.Contains(LimitsFor(p).Features, feature)
}

// CheckUserLimit returns ErrUserLimitReached when adding one more user to a
// tenant with currentUsers members would exceed the plan.
func CheckUserLimit(p Plan, currentUsers int) error {
	limits := LimitsFor(p)
	if limits.MaxUsers == 0 {
		return nil
	}
	if currentUsers >= limits.MaxUsers {
		return fmt.Errorf("%w: plan %q allows %d users", ErrUserLimitReached, p, limits.MaxUsers)
	}
	return nil
}

// CheckWorkOrderLimit returns ErrWorkOrderLimitReached when creating one more
// work order would exceed the plan's rolling monthly allowance.
func CheckWorkOrderLimit(p Plan, createdThisMonth int) error {
	limits := LimitsFor(p)
	if limits.MaxWorkOrdersPerMonth == 0 {
		return nil
	}
	if createdThisMonth >= limits.MaxWorkOrdersPerMonth {
		return fmt.Errorf("%w: plan %q allows %d work orders per month", ErrWorkOrderLimitReached, p, limits.MaxWorkOrdersPerMonth)
	}
	return nil
}
