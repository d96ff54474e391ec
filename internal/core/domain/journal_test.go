package domain_test

import (
	"testing"
	"time"

	"github.com/openbooks-app/openbooks/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextPeriodState_LegalTransitions(t *testing.T) {
	testCases := []struct {
		name    string
		current domain.PeriodState
		action  domain.PeriodAction
		want    domain.PeriodState
	}{
		{"open to soft closed", domain.PeriodOpen, domain.SoftClose, domain.PeriodSoftClosed},
		{"soft closed to closed", domain.PeriodSoftClosed, domain.Close, domain.PeriodClosed},
		{"closed reopens soft", domain.PeriodClosed, domain.ReopenSoft, domain.PeriodSoftClosed},
		{"closed reopens full", domain.PeriodClosed, domain.ReopenFull, domain.PeriodOpen},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			next, err := domain.NextPeriodState(tc.current, tc.action)
			require.NoError(t, err)
			assert.Equal(t, tc.want, next)
		})
	}
}

func TestNextPeriodState_RejectsIllegalTransitions(t *testing.T) {
	testCases := []struct {
		name    string
		current domain.PeriodState
		action  domain.PeriodAction
	}{
		{"open cannot close directly", domain.PeriodOpen, domain.Close},
		{"open cannot reopen", domain.PeriodOpen, domain.ReopenFull},
		{"soft closed cannot soft close again", domain.PeriodSoftClosed, domain.SoftClose},
		{"soft closed cannot reopen soft", domain.PeriodSoftClosed, domain.ReopenSoft},
		{"closed cannot close again", domain.PeriodClosed, domain.Close},
		{"closed cannot soft close", domain.PeriodClosed, domain.SoftClose},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			next, err := domain.NextPeriodState(tc.current, tc.action)
			assert.Error(t, err)
			assert.Equal(t, tc.current, next, "state must not move on a rejected transition")
		})
	}
}

func TestPeriodAction_RequiresApproval(t *testing.T) {
	assert.True(t, domain.Close.RequiresApproval())
	assert.True(t, domain.ReopenFull.RequiresApproval())
	assert.False(t, domain.SoftClose.RequiresApproval())
	assert.False(t, domain.ReopenSoft.RequiresApproval())
}

func TestFiscalCalendar_PeriodFor(t *testing.T) {
	january := domain.FiscalCalendar{PeriodsPerYear: 12, OpeningMonth: 1}
	april := domain.FiscalCalendar{PeriodsPerYear: 12, OpeningMonth: 4}
	quarterly := domain.FiscalCalendar{PeriodsPerYear: 4, OpeningMonth: 1}

	d := func(y int, m time.Month, day int) time.Time {
		return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	}

	assert.Equal(t, domain.PeriodRef{FiscalYear: 2025, Period: 1}, january.PeriodFor(d(2025, time.January, 15)))
	assert.Equal(t, domain.PeriodRef{FiscalYear: 2025, Period: 12}, january.PeriodFor(d(2025, time.December, 31)))

	// April-opening calendar: March 2026 is period 12 of fiscal 2025.
	assert.Equal(t, domain.PeriodRef{FiscalYear: 2025, Period: 1}, april.PeriodFor(d(2025, time.April, 1)))
	assert.Equal(t, domain.PeriodRef{FiscalYear: 2025, Period: 12}, april.PeriodFor(d(2026, time.March, 31)))

	assert.Equal(t, domain.PeriodRef{FiscalYear: 2025, Period: 1}, quarterly.PeriodFor(d(2025, time.February, 10)))
	assert.Equal(t, domain.PeriodRef{FiscalYear: 2025, Period: 4}, quarterly.PeriodFor(d(2025, time.November, 5)))
}
