package cycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/school_scheduler/internal/model"
)

func TestSessionLimit(t *testing.T) {
	tests := []struct {
		cycle   model.BillingCycle
		cadence model.SessionCadence
		want    int
	}{
		{model.BillingCycleMonthly, model.Cadence1h, 8},
		{model.BillingCycleMonthly, model.Cadence30m, 16},
		{model.BillingCycleMonthly, model.Cadence40m, 12},
		{model.BillingCycleYearly, model.Cadence1h, 104},
		{model.BillingCycleYearly, model.Cadence30m, 208},
		{model.BillingCycleYearly, model.Cadence40m, 156},
		{model.BillingCycleFreeTrial, "", 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.cycle)+"/"+string(tt.cadence), func(t *testing.T) {
			got, err := SessionLimit(tt.cycle, tt.cadence)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			if tt.cycle != model.BillingCycleFreeTrial {
				weeks, err := WeeksInCycle(tt.cycle)
				require.NoError(t, err)
				weekly, _ := tt.cadence.WeeklySessions()
				assert.Equal(t, weeks*weekly, got)
			}
		})
	}
}

func TestSessionLimit_InvalidCadence(t *testing.T) {
	_, err := SessionLimit(model.BillingCycleMonthly, "45m")
	assert.ErrorIs(t, err, model.ErrInvalidCadence)

	_, err = SessionLimit(model.BillingCycleMonthly, "")
	assert.ErrorIs(t, err, model.ErrInvalidCadence)
}

func TestCompute_MonthlyJuly2025(t *testing.T) {
	res, err := Compute(Request{
		PlanType:     "monthly-tier-1",
		BillingCycle: model.BillingCycleMonthly,
		Cadence:      model.Cadence1h,
		AnchorMonth:  time.July,
		AnchorYear:   2025,
	}, DefaultPrices(), time.UTC)
	require.NoError(t, err)

	assert.WithinDuration(t, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), res.StartDate, 0)
	assert.WithinDuration(t, time.Date(2025, time.July, 31, 23, 59, 59, 0, time.UTC), res.EndDate, 0)
	assert.Equal(t, 8, res.SessionLimit)
	assert.Equal(t, int64(4000), res.PriceQuote)
}

func TestCompute_ReferenceZone(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	res, err := Compute(Request{
		PlanType:     "monthly-tier-2",
		BillingCycle: model.BillingCycleMonthly,
		Cadence:      model.Cadence30m,
		AnchorMonth:  time.February,
		AnchorYear:   2024,
	}, DefaultPrices(), loc)
	require.NoError(t, err)

	assert.Equal(t, "2024-02-01T00:00:00+05:30", res.StartDate.Format(time.RFC3339))
	assert.Equal(t, "2024-02-29T23:59:59+05:30", res.EndDate.Format(time.RFC3339))
	assert.Equal(t, 16, res.SessionLimit)
	assert.Equal(t, int64(6600), res.PriceQuote)
}

func TestCompute_Yearly(t *testing.T) {
	res, err := Compute(Request{
		PlanType:     "yearly-tier-1",
		BillingCycle: model.BillingCycleYearly,
		Cadence:      model.Cadence40m,
		AnchorMonth:  time.March,
		AnchorYear:   2025,
	}, DefaultPrices(), time.UTC)
	require.NoError(t, err)

	assert.WithinDuration(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), res.StartDate, 0)
	assert.WithinDuration(t, time.Date(2026, time.February, 28, 23, 59, 59, 0, time.UTC), res.EndDate, 0)
	assert.Equal(t, 156, res.SessionLimit)
	assert.Equal(t, int64(4200*11), res.PriceQuote)
}

func TestCompute_FreeTrial(t *testing.T) {
	now := time.Date(2025, time.May, 10, 14, 30, 0, 0, time.UTC)

	res, err := Compute(Request{
		PlanType:     model.PlanTypeFreeTrial,
		BillingCycle: model.BillingCycleFreeTrial,
		Now:          now,
	}, DefaultPrices(), time.UTC)
	require.NoError(t, err)

	assert.WithinDuration(t, now, res.StartDate, 0)
	assert.WithinDuration(t, now.Add(7*24*time.Hour), res.EndDate, 0)
	assert.Equal(t, 1, res.SessionLimit)
	assert.Zero(t, res.PriceQuote)
}

func TestCompute_Errors(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{
			name: "unknown plan type",
			req:  Request{PlanType: "weekly-tier-1", BillingCycle: model.BillingCycleMonthly, Cadence: model.Cadence1h, AnchorMonth: time.July, AnchorYear: 2025},
			want: model.ErrInvalidPlanType,
		},
		{
			name: "cycle mismatch",
			req:  Request{PlanType: "yearly-tier-1", BillingCycle: model.BillingCycleMonthly, Cadence: model.Cadence1h, AnchorMonth: time.July, AnchorYear: 2025},
			want: model.ErrPlanTypeMismatch,
		},
		{
			name: "invalid cadence",
			req:  Request{PlanType: "monthly-tier-1", BillingCycle: model.BillingCycleMonthly, Cadence: "2h", AnchorMonth: time.July, AnchorYear: 2025},
			want: model.ErrInvalidCadence,
		},
		{
			name: "missing anchor",
			req:  Request{PlanType: "monthly-tier-1", BillingCycle: model.BillingCycleMonthly, Cadence: model.Cadence1h},
			want: model.ErrInvalidAnchor,
		},
		{
			name: "unknown tier",
			req:  Request{PlanType: "monthly-tier-9", BillingCycle: model.BillingCycleMonthly, Cadence: model.Cadence1h, AnchorMonth: time.July, AnchorYear: 2025},
			want: model.ErrUnknownTier,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(tt.req, DefaultPrices(), time.UTC)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNextAnchor(t *testing.T) {
	tests := []struct {
		name      string
		end       time.Time
		wantMonth time.Month
		wantYear  int
	}{
		{"mid year", time.Date(2025, time.July, 31, 23, 59, 59, 0, time.UTC), time.August, 2025},
		{"december rolls over", time.Date(2025, time.December, 31, 23, 59, 59, 0, time.UTC), time.January, 2026},
		{"yearly plan end", time.Date(2026, time.February, 28, 23, 59, 59, 0, time.UTC), time.March, 2026},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			month, year := NextAnchor(tt.end, time.UTC)
			assert.Equal(t, tt.wantMonth, month)
			assert.Equal(t, tt.wantYear, year)
		})
	}
}

func TestNextAnchor_NoGapNoOverlap(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	req := Request{
		PlanType:     "monthly-tier-1",
		BillingCycle: model.BillingCycleMonthly,
		Cadence:      model.Cadence1h,
		AnchorMonth:  time.January,
		AnchorYear:   2025,
	}

	prev, err := Compute(req, DefaultPrices(), loc)
	require.NoError(t, err)

	for i := 0; i < 24; i++ {
		req.AnchorMonth, req.AnchorYear = NextAnchor(prev.EndDate, loc)

		next, err := Compute(req, DefaultPrices(), loc)
		require.NoError(t, err)

		assert.True(t, prev.EndDate.Add(time.Second).Equal(next.StartDate), "cycle %d", i)
		prev = next
	}
}

func TestParsePriceTable(t *testing.T) {
	table, err := ParsePriceTable("1:1h=4000, 2:30m=6600")
	require.NoError(t, err)

	price, err := table.MonthlyPrice(2, model.Cadence30m)
	require.NoError(t, err)
	assert.Equal(t, int64(6600), price)

	_, err = table.MonthlyPrice(2, model.Cadence1h)
	assert.ErrorIs(t, err, model.ErrUnknownTier)

	for _, bad := range []string{"1:1h", "x:1h=1", "1:2h=1", "1:1h=-5", "11h=5"} {
		_, err := ParsePriceTable(bad)
		assert.Error(t, err, bad)
	}
}
