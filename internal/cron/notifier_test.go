package cron

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compliance-backend/internal/compliance"
)

func at(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 9, 0, 0, 0, time.UTC)
}

func TestReminderForEscalatesPreviousPeriod(t *testing.T) {
	prev := compliance.Period{Month: 3, Year: 2024}

	// Before the due date — silence.
	_, ok := reminderFor(prev, "Tower A", at(2024, time.April, 5))
	assert.False(t, ok)

	// Past the 7th — overdue notice.
	rem, ok := reminderFor(prev, "Tower A", at(2024, time.April, 10))
	require.True(t, ok)
	assert.Equal(t, "submission_overdue", rem.Type)
	assert.Contains(t, rem.Message, "March 2024")
	assert.Contains(t, rem.Message, "3 days overdue")

	// Past the 14th — final notice.
	rem, ok = reminderFor(prev, "Tower A", at(2024, time.April, 20))
	require.True(t, ok)
	assert.Equal(t, "submission_final", rem.Type)
	assert.Contains(t, rem.Message, "13 days overdue")
}

func TestReminderForCurrentPeriodOnlyNudges(t *testing.T) {
	cur := compliance.Period{Month: 4, Year: 2024}

	// The current period can never be overdue inside its own month; before
	// the last week there is nothing to say.
	for day := 1; day < 24; day++ {
		rem, ok := reminderFor(cur, "Tower A", at(2024, time.April, day))
		assert.False(t, ok, "day %d fired %q", day, rem.Type)
	}

	// Last week of the month — proactive reminder, never an escalation.
	for day := 24; day <= 30; day++ {
		rem, ok := reminderFor(cur, "Tower A", at(2024, time.April, day))
		require.True(t, ok, "day %d", day)
		assert.Equal(t, "submission_reminder", rem.Type)
	}
}

func TestReminderForDecemberRollover(t *testing.T) {
	// Early January: December of the prior year is the period being chased.
	prev := compliance.PreviousPeriod(at(2024, time.January, 10))
	require.Equal(t, compliance.Period{Month: 12, Year: 2023}, prev)

	rem, ok := reminderFor(prev, "Tower A", at(2024, time.January, 10))
	require.True(t, ok)
	assert.Equal(t, "submission_overdue", rem.Type)
	assert.Contains(t, rem.Message, "December 2023")
}

func TestReminderForRejectsInvalidPeriod(t *testing.T) {
	_, ok := reminderFor(compliance.Period{Month: 0, Year: 2024}, "Tower A", at(2024, time.April, 10))
	assert.False(t, ok)
}
