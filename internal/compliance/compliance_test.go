package compliance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCanSubmitForPeriod(t *testing.T) {
	now := date(2024, time.March, 15)

	tests := []struct {
		name   string
		period Period
		now    time.Time
		want   bool
	}{
		{"current month", Period{Month: 3, Year: 2024}, now, true},
		{"previous month", Period{Month: 2, Year: 2024}, now, true},
		{"two months back", Period{Month: 1, Year: 2024}, now, false},
		{"next month", Period{Month: 4, Year: 2024}, now, false},
		{"same month last year", Period{Month: 3, Year: 2023}, now, false},
		{"january keeps december open", Period{Month: 12, Year: 2023}, date(2024, time.January, 15), true},
		{"january current month", Period{Month: 1, Year: 2024}, date(2024, time.January, 15), true},
		{"november not open in january", Period{Month: 11, Year: 2023}, date(2024, time.January, 15), false},
		{"december of current year in january", Period{Month: 12, Year: 2024}, date(2024, time.January, 15), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanSubmitForPeriod(tt.period, tt.now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanSubmitForPeriodInvalidMonth(t *testing.T) {
	_, err := CanSubmitForPeriod(Period{Month: 0, Year: 2024}, date(2024, time.March, 1))
	assert.ErrorIs(t, err, ErrInvalidMonth)

	_, err = CanSubmitForPeriod(Period{Month: 13, Year: 2024}, date(2024, time.March, 1))
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestAreAnnualDocumentsDue(t *testing.T) {
	assert.True(t, AreAnnualDocumentsDue(date(2025, time.January, 1)))
	assert.True(t, AreAnnualDocumentsDue(date(2025, time.January, 31)))
	assert.False(t, AreAnnualDocumentsDue(date(2025, time.February, 1)))
	assert.False(t, AreAnnualDocumentsDue(date(2024, time.December, 31)))
}

func TestIsOverdueThresholdIsStrict(t *testing.T) {
	p := Period{Month: 3, Year: 2024}

	// Exactly at the threshold instant — NOT overdue (strict "after").
	atThreshold := date(2024, time.April, 7)
	overdue, err := IsOverdue(p, atThreshold)
	require.NoError(t, err)
	assert.False(t, overdue)

	// One second past the threshold — overdue.
	overdue, err = IsOverdue(p, atThreshold.Add(time.Second))
	require.NoError(t, err)
	assert.True(t, overdue)

	// A full day past the threshold — still overdue.
	overdue, err = IsOverdue(p, date(2024, time.April, 8))
	require.NoError(t, err)
	assert.True(t, overdue)
}

func TestIsOverdueDecemberRollsIntoJanuary(t *testing.T) {
	p := Period{Month: 12, Year: 2023}

	overdue, err := IsOverdue(p, date(2024, time.January, 7))
	require.NoError(t, err)
	assert.False(t, overdue)

	overdue, err = IsOverdue(p, date(2024, time.January, 8))
	require.NoError(t, err)
	assert.True(t, overdue)
}

func TestIsAtRisk(t *testing.T) {
	p := Period{Month: 3, Year: 2024}

	atRisk, err := IsAtRisk(p, date(2024, time.April, 14))
	require.NoError(t, err)
	assert.False(t, atRisk, "exactly at the at-risk threshold is not yet at risk")

	atRisk, err = IsAtRisk(p, date(2024, time.April, 15))
	require.NoError(t, err)
	assert.True(t, atRisk)
}

func TestCurrentAndPreviousPeriod(t *testing.T) {
	now := date(2024, time.April, 15)
	assert.Equal(t, Period{Month: 4, Year: 2024}, CurrentPeriod(now))
	assert.Equal(t, Period{Month: 3, Year: 2024}, PreviousPeriod(now))

	january := date(2024, time.January, 2)
	assert.Equal(t, Period{Month: 1, Year: 2024}, CurrentPeriod(january))
	assert.Equal(t, Period{Month: 12, Year: 2023}, PreviousPeriod(january),
		"January rolls back into December of the prior year")
}

// A period's thresholds fall in the FOLLOWING month, so the current period
// can never be overdue or at risk at any instant inside its own month —
// escalation always concerns the previous period.
func TestOnlyPreviousPeriodEscalates(t *testing.T) {
	for month := time.January; month <= time.December; month++ {
		first := date(2024, month, 1)
		instants := []time.Time{
			first,
			first.AddDate(0, 0, 15),
			first.AddDate(0, 1, 0).Add(-time.Second), // last instant of the month
		}
		for _, now := range instants {
			cur := CurrentPeriod(now)
			overdue, err := IsOverdue(cur, now)
			require.NoError(t, err)
			assert.False(t, overdue, "%s: current period overdue at %s", month, now)

			atRisk, err := IsAtRisk(cur, now)
			require.NoError(t, err)
			assert.False(t, atRisk, "%s: current period at risk at %s", month, now)

			status, err := StatusFor(false, cur, now)
			require.NoError(t, err)
			assert.Equal(t, StatusOnTrack, status)
		}

		// The previous period, by contrast, is overdue past the 7th and at
		// risk past the 14th — while still inside its submission window.
		prev := PreviousPeriod(first)
		eighth := date(2024, month, 8)
		overdue, err := IsOverdue(prev, eighth)
		require.NoError(t, err)
		assert.True(t, overdue, "%s: previous period not overdue on the 8th", month)

		ok, err := CanSubmitForPeriod(prev, eighth)
		require.NoError(t, err)
		assert.True(t, ok, "%s: previous period window closed on the 8th", month)

		atRisk, err := IsAtRisk(prev, date(2024, month, 15))
		require.NoError(t, err)
		assert.True(t, atRisk, "%s: previous period not at risk on the 15th", month)
	}
}

// At-risk must imply overdue for every period and instant.
func TestAtRiskImpliesOverdue(t *testing.T) {
	p := Period{Month: 6, Year: 2024}
	for day := 1; day <= 28; day++ {
		now := date(2024, time.July, day)
		atRisk, err := IsAtRisk(p, now)
		require.NoError(t, err)
		if !atRisk {
			continue
		}
		overdue, err := IsOverdue(p, now)
		require.NoError(t, err)
		assert.True(t, overdue, "at-risk on day %d without being overdue", day)
	}
}

func TestDaysOverdue(t *testing.T) {
	p := Period{Month: 3, Year: 2024}

	days, err := DaysOverdue(p, date(2024, time.April, 5))
	require.NoError(t, err)
	assert.Equal(t, 0, days)

	days, err = DaysOverdue(p, date(2024, time.April, 10))
	require.NoError(t, err)
	assert.Equal(t, 3, days)
}

func TestStatusFor(t *testing.T) {
	p := Period{Month: 3, Year: 2024}

	status, err := StatusFor(true, p, date(2024, time.May, 1))
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, status)

	status, err = StatusFor(false, p, date(2024, time.March, 20))
	require.NoError(t, err)
	assert.Equal(t, StatusOnTrack, status)

	status, err = StatusFor(false, p, date(2024, time.April, 10))
	require.NoError(t, err)
	assert.Equal(t, StatusOverdue, status)

	status, err = StatusFor(false, p, date(2024, time.April, 20))
	require.NoError(t, err)
	assert.Equal(t, StatusAtRisk, status)
}

func TestCalculateCompletionPercentage(t *testing.T) {
	tests := []struct {
		name                        string
		metrics, docs, docsRequired int
		want                        int
	}{
		{"everything provided", 11, 5, 5, 100},
		{"nothing provided", 0, 0, 5, 0},
		{"partial", 6, 3, 5, 57}, // round(6/11*50 + 3/5*50) = round(57.27)
		{"metrics only", 11, 0, 4, 50},
		{"docs only", 0, 4, 4, 50},
		{"zero docs required contributes nothing", 11, 0, 0, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateCompletionPercentage(tt.metrics, tt.docs, tt.docsRequired)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculateCompletionPercentageRejectsBadInput(t *testing.T) {
	_, err := CalculateCompletionPercentage(-1, 0, 4)
	assert.ErrorIs(t, err, ErrNegativeCount)

	_, err = CalculateCompletionPercentage(12, 0, 4)
	assert.ErrorIs(t, err, ErrMetricsOverCap)

	_, err = CalculateCompletionPercentage(5, 6, 5)
	assert.ErrorIs(t, err, ErrDocumentsOverCap)

	_, err = CalculateCompletionPercentage(5, 1, 0)
	assert.ErrorIs(t, err, ErrDocumentsOverCap)
}

func TestAnnualCompletionPercentage(t *testing.T) {
	pct, err := AnnualCompletionPercentage(18)
	require.NoError(t, err)
	assert.Equal(t, 100, pct)

	pct, err = AnnualCompletionPercentage(9)
	require.NoError(t, err)
	assert.Equal(t, 50, pct)

	pct, err = AnnualCompletionPercentage(0)
	require.NoError(t, err)
	assert.Equal(t, 0, pct)

	_, err = AnnualCompletionPercentage(19)
	assert.ErrorIs(t, err, ErrDocumentsOverCap)
}

func TestHasIncidents(t *testing.T) {
	assert.False(t, HasIncidents(MetricSet{TotalWorkerHours: 4000, ToolboxTalks: 4}),
		"activity metrics alone never count as incidents")

	assert.True(t, HasIncidents(MetricSet{MedicalAidInjuries: 1}))
	assert.True(t, HasIncidents(MetricSet{NearMisses: 2}))
	assert.True(t, HasIncidents(MetricSet{EnvironmentalIncidents: 1}))
	assert.False(t, HasIncidents(MetricSet{}))
}

func TestRequiredMonthlyDocuments(t *testing.T) {
	docs := RequiredMonthlyDocuments(MetricSet{})
	require.Len(t, docs, 4)
	assert.NotContains(t, docs, IncidentInvestigationReport)

	docs = RequiredMonthlyDocuments(MetricSet{FirstAidInjuries: 1})
	require.Len(t, docs, 5)
	assert.Equal(t, IncidentInvestigationReport, docs[4], "conditional item is appended last")
}

func TestRequiredAnnualDocuments(t *testing.T) {
	docs := RequiredAnnualDocuments()
	require.Len(t, docs, AnnualDocCount)

	var withExpiry []string
	for _, d := range docs {
		if d.NeedsExpiry {
			withExpiry = append(withExpiry, d.Name)
		}
	}
	assert.Equal(t, []string{
		"Valid WSIB Clearance Certificate",
		"Proof of Liability Insurance",
	}, withExpiry)

	// Returned slice is a copy — mutating it must not poison the catalog.
	docs[0].Name = "tampered"
	assert.Equal(t, "Health & Safety Policy Statement", RequiredAnnualDocuments()[0].Name)
}

func TestMetricSetValidate(t *testing.T) {
	assert.NoError(t, MetricSet{ToolboxTalks: 3}.Validate())
	assert.ErrorIs(t, MetricSet{NearMisses: -1}.Validate(), ErrNegativeCount)
}

// Pure functions: identical inputs always produce identical outputs.
func TestIdempotence(t *testing.T) {
	p := Period{Month: 5, Year: 2024}
	now := date(2024, time.June, 10)

	a, err := IsOverdue(p, now)
	require.NoError(t, err)
	b, err := IsOverdue(p, now)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	x, err := CalculateCompletionPercentage(6, 3, 5)
	require.NoError(t, err)
	y, err := CalculateCompletionPercentage(6, 3, 5)
	require.NoError(t, err)
	assert.Equal(t, x, y)
}
