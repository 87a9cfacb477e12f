package models

// ── Admin Analytics ──────────────────────────────────────────────

// AnalyticsOverview holds the platform-wide dashboard statistics.
type AnalyticsOverview struct {
	TotalUsers          int                 `json:"totalUsers"`
	TotalProjects       int                 `json:"totalProjects"`
	TotalSubmissions    int                 `json:"totalSubmissions"`
	SubmissionsByStatus SubmissionsByStatus `json:"submissionsByStatus"`
	ComplianceRate      int                 `json:"complianceRate"` // % of submissions that are Submitted
	OnTimeRate          int                 `json:"onTimeRate"`     // % submitted before the overdue threshold
	TotalIncidents      int                 `json:"totalIncidents"`
	TopPerformers       []TopPerformer      `json:"topPerformers"`
	AtRiskProjects      []AtRiskProject     `json:"atRiskProjects"`
}

// SubmissionsByStatus breaks submissions down for the dashboard chart.
type SubmissionsByStatus struct {
	Submitted int `json:"submitted"`
	Pending   int `json:"pending"`
	Overdue   int `json:"overdue"`
}

// TopPerformer is one subcontractor ranked by compliance rate.
type TopPerformer struct {
	SubcontractorID string `json:"subcontractorId"`
	Name            string `json:"name"` // company name, falling back to email
	ComplianceRate  int    `json:"complianceRate"`
}

// AtRiskProject flags a project with overdue submissions.
type AtRiskProject struct {
	ProjectID   string `json:"projectId"`
	ProjectName string `json:"projectName"`
	DaysOverdue int    `json:"daysOverdue"` // worst offender across its subcontractors
}

// ── Advisor Dashboard ────────────────────────────────────────────

// AdvisorProjectStatus is the per-project view for an advisor: the state of
// the current reporting period for every assigned subcontractor.
type AdvisorProjectStatus struct {
	ProjectID      string              `json:"projectId"`
	ProjectName    string              `json:"projectName"`
	Month          int                 `json:"month"`
	Year           int                 `json:"year"`
	Subcontractors []SubcontractorSlot `json:"subcontractors"`
}

// SubcontractorSlot is one subcontractor's slot in the current period.
type SubcontractorSlot struct {
	SubcontractorID      string `json:"subcontractorId"`
	CompanyName          string `json:"companyName"`
	Email                string `json:"email"`
	Status               string `json:"status"` // derived: on_track | overdue | at_risk | submitted
	CompletionPercentage int    `json:"completionPercentage"`
	DaysOverdue          int    `json:"daysOverdue"`
}

// ── Notifications ────────────────────────────────────────────────

// Notification is an in-app alert generated by the reminder cycle.
type Notification struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	Type       string `json:"type"` // submission_reminder | submission_overdue | submission_final | annual_due
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
	IsRead     bool   `json:"isRead"`
	CreatedAt  string `json:"createdAt"`
}
