// Package compliance provides pure functions for construction-safety
// compliance calculations: submission windows, overdue/at-risk escalation,
// completion percentages, and the required document catalogs. These functions
// have ZERO dependencies on HTTP, database, or any other infrastructure —
// making them trivially testable and reusable. Every calendar-dependent
// function takes an explicit "now" instead of reading the system clock.
package compliance

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ── Derived Submission Status Constants ──────────────────────────
// Status is always computed from (period, submitted, now).
// It is never stored in the database.

const (
	StatusSubmitted = "submitted" // Report is in — no further escalation
	StatusOnTrack   = "on_track"  // Window open, not yet past the due date
	StatusOverdue   = "overdue"   // Past the 7th of the following month
	StatusAtRisk    = "at_risk"   // Past the 14th of the following month
)

// ── Validation Errors ────────────────────────────────────────────

var (
	ErrInvalidMonth     = errors.New("month must be between 1 and 12")
	ErrNegativeCount    = errors.New("counts must not be negative")
	ErrMetricsOverCap   = errors.New("metricsProvided exceeds the number of metric fields")
	ErrDocumentsOverCap = errors.New("documentsProvided exceeds totalDocumentsRequired")
)

// ── Reporting Period ─────────────────────────────────────────────

// Period identifies one subcontractor-project-month reporting cycle.
type Period struct {
	Month int `json:"month"` // 1-12
	Year  int `json:"year"`
}

// Validate rejects months outside the calendar range.
func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("period %d-%d: %w", p.Year, p.Month, ErrInvalidMonth)
	}
	return nil
}

// Label returns a human-readable form such as "March 2024".
func (p Period) Label() string {
	return fmt.Sprintf("%s %d", time.Month(p.Month), p.Year)
}

// CurrentPeriod returns the reporting period containing now.
func CurrentPeriod(now time.Time) Period {
	return Period{Month: int(now.Month()), Year: now.Year()}
}

// PreviousPeriod returns the period immediately before the one containing
// now, rolling January back into December of the prior year. This is the
// period that can actually be overdue or at risk while its submission
// window is still open: a period's thresholds fall inside the FOLLOWING
// month, so the current period never escalates within its own month.
func PreviousPeriod(now time.Time) Period {
	p := CurrentPeriod(now)
	p.Month--
	if p.Month == 0 {
		p.Month = 12
		p.Year--
	}
	return p
}

// ── Safety Metrics ───────────────────────────────────────────────

// MetricFieldCount is the number of required monthly metric fields.
const MetricFieldCount = 11

// MetricSet holds the eleven required monthly safety metrics.
// The six incident fields drive the conditional investigation-report
// requirement; the remaining five are activity metrics.
type MetricSet struct {
	// Incident metrics
	LostTimeInjuries       int `json:"lostTimeInjuries"`
	MedicalAidInjuries     int `json:"medicalAidInjuries"`
	FirstAidInjuries       int `json:"firstAidInjuries"`
	PropertyDamage         int `json:"propertyDamage"`
	EnvironmentalIncidents int `json:"environmentalIncidents"`
	NearMisses             int `json:"nearMisses"`

	// Activity metrics
	TotalWorkerHours      int `json:"totalWorkerHours"`
	HazardIdentifications int `json:"hazardIdentifications"`
	SafetyInspections     int `json:"safetyInspections"`
	ToolboxTalks          int `json:"toolboxTalks"`
	WorkersSiteOriented   int `json:"workersSiteOriented"`
}

// fields returns all eleven metric values in declaration order.
func (m MetricSet) fields() [MetricFieldCount]int {
	return [MetricFieldCount]int{
		m.LostTimeInjuries, m.MedicalAidInjuries, m.FirstAidInjuries,
		m.PropertyDamage, m.EnvironmentalIncidents, m.NearMisses,
		m.TotalWorkerHours, m.HazardIdentifications, m.SafetyInspections,
		m.ToolboxTalks, m.WorkersSiteOriented,
	}
}

// fieldNames matches the order of fields() for validation messages.
var fieldNames = [MetricFieldCount]string{
	"lostTimeInjuries", "medicalAidInjuries", "firstAidInjuries",
	"propertyDamage", "environmentalIncidents", "nearMisses",
	"totalWorkerHours", "hazardIdentifications", "safetyInspections",
	"toolboxTalks", "workersSiteOriented",
}

// Validate rejects negative metric values. Upstream data-entry bugs should
// surface immediately rather than be silently clamped.
func (m MetricSet) Validate() error {
	for i, v := range m.fields() {
		if v < 0 {
			return fmt.Errorf("%s: %w", fieldNames[i], ErrNegativeCount)
		}
	}
	return nil
}

// HasIncidents reports whether any of the six incident metrics is nonzero.
// A true result makes the Incident Investigation Report mandatory.
func HasIncidents(m MetricSet) bool {
	return m.LostTimeInjuries > 0 ||
		m.MedicalAidInjuries > 0 ||
		m.FirstAidInjuries > 0 ||
		m.PropertyDamage > 0 ||
		m.EnvironmentalIncidents > 0 ||
		m.NearMisses > 0
}

// TotalIncidents sums the six incident metrics (dashboard aggregate).
func TotalIncidents(m MetricSet) int {
	return m.LostTimeInjuries + m.MedicalAidInjuries + m.FirstAidInjuries +
		m.PropertyDamage + m.EnvironmentalIncidents + m.NearMisses
}

// ── Monthly Document Catalog ─────────────────────────────────────

// IncidentInvestigationReport is required only when incidents were reported.
const IncidentInvestigationReport = "Incident Investigation Report"

// monthlyDocTypes are the four unconditional monthly uploads.
var monthlyDocTypes = [...]string{
	"Daily Hazard Assessments (FLRA/PWHA)",
	"Safety Inspection Reports",
	"Toolbox Talk Attendance Sheet",
	"Equipment Pre-Use Inspection Forms",
}

// RequiredMonthlyDocuments returns the monthly document list for the given
// metrics: the fixed four items, plus the Incident Investigation Report when
// any incident metric is nonzero. Order matters for display only — completion
// counting is a set-membership check.
func RequiredMonthlyDocuments(m MetricSet) []string {
	docs := make([]string, 0, len(monthlyDocTypes)+1)
	docs = append(docs, monthlyDocTypes[:]...)
	if HasIncidents(m) {
		docs = append(docs, IncidentInvestigationReport)
	}
	return docs
}

// IsMonthlyDocType reports whether name is a recognised monthly document type
// (including the conditional investigation report).
func IsMonthlyDocType(name string) bool {
	for _, d := range monthlyDocTypes {
		if d == name {
			return true
		}
	}
	return name == IncidentInvestigationReport
}

// ── Annual Document Catalog ──────────────────────────────────────

// AnnualDocCount is the size of the fixed annual catalog.
const AnnualDocCount = 18

// AnnualDocType is one entry in the annual compliance-document catalog.
type AnnualDocType struct {
	Name        string `json:"name"`
	NeedsExpiry bool   `json:"needsExpiry"`
}

// annualDocTypes is the fixed 18-item annual catalog: 6 policy documents,
// 6 training/record documents, 6 compliance/safety documents. Exactly two
// entries (WSIB clearance and liability insurance) carry an expiry date.
var annualDocTypes = [AnnualDocCount]AnnualDocType{
	// Policies and procedures
	{Name: "Health & Safety Policy Statement"},
	{Name: "Violence and Harassment Policy Statement"},
	{Name: "Full Violence and Harassment Policy and Procedure"},
	{Name: "Hazard Identification and Risk Assessment Procedure"},
	{Name: "Incident and Accident Reporting and Investigation Procedure"},
	{Name: "Emergency Response Plan"},

	// Training and records
	{Name: "Five (5) samples of recent Daily Hazard Assessments"},
	{Name: "Supervisor Training Records"},
	{Name: "Three (3) samples of recent Job Site Inspections"},
	{Name: "Valid WSIB Clearance Certificate", NeedsExpiry: true},
	{Name: "Current Company Health and Safety Manual"},
	{Name: "Proof of Liability Insurance", NeedsExpiry: true},

	// Compliance and safety
	{Name: "Signed Acknowledgement of Site Rules"},
	{Name: "Training Certificates for Workers"},
	{Name: "Fit for Duty Policy"},
	{Name: "Disciplinary Policy for Health and Safety Violations"},
	{Name: "Minutes from Recent Safety Meeting/JHSC Meeting"},
	{Name: "List of All Workers Assigned to the project"},
}

// RequiredAnnualDocuments returns the fixed annual catalog. Static reference
// data — callers get a fresh copy and may not mutate the catalog.
func RequiredAnnualDocuments() []AnnualDocType {
	docs := make([]AnnualDocType, AnnualDocCount)
	copy(docs, annualDocTypes[:])
	return docs
}

// IsAnnualDocType reports whether name is in the annual catalog.
func IsAnnualDocType(name string) bool {
	for _, d := range annualDocTypes {
		if d.Name == name {
			return true
		}
	}
	return false
}

// AnnualDocNeedsExpiry reports whether the named annual document requires
// an expiry date. Unknown names return false.
func AnnualDocNeedsExpiry(name string) bool {
	for _, d := range annualDocTypes {
		if d.Name == name {
			return d.NeedsExpiry
		}
	}
	return false
}

// ── Submission Windows ───────────────────────────────────────────

// CanSubmitForPeriod reports whether a monthly report may be submitted for
// the given period: the current calendar month of now, or the immediately
// preceding one. In January the preceding month is December of the prior
// year, so that period is eligible too. Future periods and anything older
// than one month are rejected.
func CanSubmitForPeriod(p Period, now time.Time) (bool, error) {
	if err := p.Validate(); err != nil {
		return false, err
	}

	curMonth := int(now.Month())
	curYear := now.Year()

	if p.Year == curYear && (p.Month == curMonth || p.Month == curMonth-1) {
		return true, nil
	}
	// Year rollover: December stays open through January.
	if curMonth == 1 && p.Year == curYear-1 && p.Month == 12 {
		return true, nil
	}
	return false, nil
}

// AreAnnualDocumentsDue reports whether annual compliance documents are due:
// true for the whole of January.
func AreAnnualDocumentsDue(now time.Time) bool {
	return now.Month() == time.January
}

// ── Overdue / At-Risk Thresholds ─────────────────────────────────

// overdueGraceDays is the grace window after the period month ends.
const overdueGraceDays = 7

// OverdueThreshold returns the instant a period's submission becomes overdue:
// midnight on the 7th of the following month, in the given location. A
// submission is overdue strictly AFTER this instant, never at it.
func OverdueThreshold(p Period, loc *time.Location) time.Time {
	// time.Date normalises month 13 to January of the next year.
	return time.Date(p.Year, time.Month(p.Month+1), overdueGraceDays, 0, 0, 0, 0, loc)
}

// AtRiskThreshold returns the overdue threshold plus a further seven days
// (the 14th of the following month).
func AtRiskThreshold(p Period, loc *time.Location) time.Time {
	return OverdueThreshold(p, loc).AddDate(0, 0, 7)
}

// IsOverdue reports whether now is strictly after the period's overdue
// threshold. Callers are expected to only ask for not-yet-submitted periods;
// a submitted report is never overdue by definition.
func IsOverdue(p Period, now time.Time) (bool, error) {
	if err := p.Validate(); err != nil {
		return false, err
	}
	return now.After(OverdueThreshold(p, now.Location())), nil
}

// IsAtRisk reports whether now is strictly after the at-risk threshold.
// At-risk always implies overdue — these are escalating severities, not
// mutually exclusive states.
func IsAtRisk(p Period, now time.Time) (bool, error) {
	if err := p.Validate(); err != nil {
		return false, err
	}
	return now.After(AtRiskThreshold(p, now.Location())), nil
}

// DaysOverdue returns the number of whole days now is past the overdue
// threshold, or 0 when the period is not overdue.
func DaysOverdue(p Period, now time.Time) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	threshold := OverdueThreshold(p, now.Location())
	if !now.After(threshold) {
		return 0, nil
	}
	return int(now.Sub(threshold).Hours() / 24), nil
}

// StatusFor derives the badge status for a submission slot from its
// submitted flag, period, and now.
func StatusFor(submitted bool, p Period, now time.Time) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	if submitted {
		return StatusSubmitted, nil
	}
	if atRisk, _ := IsAtRisk(p, now); atRisk {
		return StatusAtRisk, nil
	}
	if overdue, _ := IsOverdue(p, now); overdue {
		return StatusOverdue, nil
	}
	return StatusOnTrack, nil
}

// ── Completion Percentage ────────────────────────────────────────

// CalculateCompletionPercentage blends metric completeness and document
// completeness, weighted 50% each, and rounds half up to an integer in
// [0,100]. totalDocumentsRequired == 0 contributes 0 for the document half
// rather than dividing by zero. Inputs exceeding their caps are rejected so
// the result can never exceed 100.
func CalculateCompletionPercentage(metricsProvided, documentsProvided, totalDocumentsRequired int) (int, error) {
	if metricsProvided < 0 || documentsProvided < 0 || totalDocumentsRequired < 0 {
		return 0, ErrNegativeCount
	}
	if metricsProvided > MetricFieldCount {
		return 0, ErrMetricsOverCap
	}
	if documentsProvided > totalDocumentsRequired {
		return 0, ErrDocumentsOverCap
	}

	metricsPct := float64(metricsProvided) / MetricFieldCount * 50
	docsPct := 0.0
	if totalDocumentsRequired > 0 {
		docsPct = float64(documentsProvided) / float64(totalDocumentsRequired) * 50
	}

	return int(math.Round(metricsPct + docsPct)), nil
}

// AnnualCompletionPercentage is the annual-set variant: no metrics exist, so
// completion is simply documents provided over the 18-item catalog, rounded
// half up.
func AnnualCompletionPercentage(documentsProvided int) (int, error) {
	if documentsProvided < 0 {
		return 0, ErrNegativeCount
	}
	if documentsProvided > AnnualDocCount {
		return 0, ErrDocumentsOverCap
	}
	return int(math.Round(float64(documentsProvided) / AnnualDocCount * 100)), nil
}
