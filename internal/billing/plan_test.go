package billing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fieldsuite/fieldops/internal/billing"
)

func TestPlanValid(t *testing.T) {
	t.Parallel()

	for _, p := range []billing.Plan{
		billing.PlanSolo, billing.PlanTeam, billing.PlanBusiness, billing.PlanEnterprise,
	} {
		assert.True(t, p.Valid(), string(p))
	}

	assert.False(t, billing.Plan("platinum").Valid())
	assert.False(t, billing.Plan("").Valid())
}

func TestLimitsFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, billing.LimitsFor(billing.PlanSolo).MaxUsers)
	assert.Equal(t, 10, billing.LimitsFor(billing.PlanTeam).MaxUsers)
	assert.Equal(t, 50, billing.LimitsFor(billing.PlanBusiness).MaxUsers)
	assert.Equal(t, 0, billing.LimitsFor(billing.PlanEnterprise).MaxUsers, "enterprise is unlimited")

	assert.Equal(t, 50, billing.LimitsFor(billing.PlanSolo).MaxWorkOrdersPerMonth)
	assert.Equal(t, 500, billing.LimitsFor(billing.PlanTeam).MaxWorkOrdersPerMonth)
	assert.Equal(t, 2500, billing.LimitsFor(billing.PlanBusiness).MaxWorkOrdersPerMonth)
	assert.Equal(t, 0, billing.LimitsFor(billing.PlanEnterprise).MaxWorkOrdersPerMonth)

	unknown := billing.LimitsFor(billing.Plan("platinum"))
	assert.Equal(t, billing.LimitsFor(billing.PlanSolo), unknown, "unknown plans get the most restrictive tier")
}

func TestHasFeature(t *testing.T) {
	t.Parallel()

	assert.True(t, billing.PlanSolo.HasFeature(billing.FeatureReports))
	assert.False(t, billing.PlanSolo.HasFeature(billing.FeatureSlackNotify))
	assert.True(t, billing.PlanTeam.HasFeature(billing.FeatureSlackNotify))
	assert.False(t, billing.PlanTeam.HasFeature(billing.FeatureLiveDispatch))
	assert.True(t, billing.PlanBusiness.HasFeature(billing.FeatureLiveDispatch))
	assert.False(t, billing.PlanBusiness.HasFeature(billing.FeatureInvoiceExport))
	assert.True(t, billing.PlanEnterprise.HasFeature(billing.FeatureInvoiceExport))
}

func TestCheckUserLimit(t *testing.T) {
	t.Parallel()

	t.Run("under_limit", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, billing.CheckUserLimit(billing.PlanTeam, 9))
	})

	t.Run("at_limit", func(t *testing.T) {
		t.Parallel()
		assert.ErrorIs(t, billing.CheckUserLimit(billing.PlanSolo, 1), billing.ErrUserLimitReached)
		assert.ErrorIs(t, billing.CheckUserLimit(billing.PlanTeam, 10), billing.ErrUserLimitReached)
	})

	t.Run("unlimited_plan", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, billing.CheckUserLimit(billing.PlanEnterprise, 100000))
	})
}

func TestCheckWorkOrderLimit(t *testing.T) {
	t.Parallel()

	t.Run("under_limit", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, billing.CheckWorkOrderLimit(billing.PlanSolo, 49))
	})

	t.Run("at_limit", func(t *testing.T) {
		t.Parallel()
		assert.ErrorIs(t, billing.CheckWorkOrderLimit(billing.PlanSolo, 50), billing.ErrWorkOrderLimitReached)
		assert.ErrorIs(t, billing.CheckWorkOrderLimit(billing.PlanTeam, 500), billing.ErrWorkOrderLimitReached)
	})

	t.Run("unlimited_plan", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, billing.CheckWorkOrderLimit(billing.PlanEnterprise, 100000))
	})
}
