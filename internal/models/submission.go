package models

import (
	"time"

	"compliance-backend/internal/compliance"
)

// Submission status values as stored. Everything else about a submission's
// health (overdue, at risk) is derived by the rules engine, never stored.
const (
	SubmissionSubmitted    = "Submitted"
	SubmissionNotSubmitted = "Not Submitted"
)

// DocumentRef is one uploaded supporting document attached to a monthly
// submission or an annual document set.
type DocumentRef struct {
	ID               string     `json:"id,omitempty"`
	DocType          string     `json:"docType"`
	StoragePath      string     `json:"storagePath"`
	DownloadURL      string     `json:"downloadUrl"`
	OriginalFileName string     `json:"originalFileName"`
	FileSize         int64      `json:"fileSize"`
	UploadedAt       time.Time  `json:"uploadedAt"`
	ExpiryDate       *string    `json:"expiryDate,omitempty"` // only WSIB / liability insurance
}

// Submission is one subcontractor's monthly safety report for one project.
// At most one submission exists per (project, subcontractor, month, year).
type Submission struct {
	ID                   string                `json:"id"`
	ProjectID            string                `json:"projectId"`
	SubcontractorID      string                `json:"subcontractorId"`
	Month                int                   `json:"month"`
	Year                 int                   `json:"year"`
	Status               string                `json:"status"` // "Submitted" | "Not Submitted"
	CompletionPercentage int                   `json:"completionPercentage"`
	HasIncidents         bool                  `json:"hasIncidents"`
	SubmittedAt          *time.Time            `json:"submittedAt,omitempty"`
	Metrics              compliance.MetricSet  `json:"metrics"`
	Documents            []DocumentRef         `json:"documents"`
	CreatedAt            time.Time             `json:"createdAt"`
	UpdatedAt            time.Time             `json:"updatedAt"`
}

// Period returns the submission's reporting period.
func (s *Submission) Period() compliance.Period {
	return compliance.Period{Month: s.Month, Year: s.Year}
}

// SubmissionWithStatus decorates a submission with fields computed on every
// read from a single "now" snapshot.
type SubmissionWithStatus struct {
	Submission

	DerivedStatus     string   `json:"derivedStatus"` // on_track | overdue | at_risk | submitted
	DaysOverdue       int      `json:"daysOverdue"`
	RequiredDocuments []string `json:"requiredDocuments"`
}

// SubmissionWithContext adds project and company names for list views.
type SubmissionWithContext struct {
	SubmissionWithStatus
	ProjectName string `json:"projectName"`
	CompanyName string `json:"companyName"`
}

// CreateSubmissionRequest carries a monthly report from a subcontractor.
// completionPercentage and hasIncidents are NOT accepted from the client —
// the server recomputes both.
type CreateSubmissionRequest struct {
	Month     int                  `json:"month"`
	Year      int                  `json:"year"`
	Status    string               `json:"status"` // "Submitted" or "Not Submitted" (draft)
	Metrics   compliance.MetricSet `json:"metrics"`
	Documents []DocumentRef        `json:"documents"`
}

// Validate checks period, status, metrics, and document types.
func (r *CreateSubmissionRequest) Validate() map[string]string {
	errors := map[string]string{}

	if err := (compliance.Period{Month: r.Month, Year: r.Year}).Validate(); err != nil {
		errors["month"] = "Month must be between 1 and 12"
	}
	if r.Year < 2000 || r.Year > 2100 {
		errors["year"] = "Year is out of range"
	}
	if r.Status != SubmissionSubmitted && r.Status != SubmissionNotSubmitted {
		errors["status"] = "Status must be 'Submitted' or 'Not Submitted'"
	}
	if err := r.Metrics.Validate(); err != nil {
		errors["metrics"] = err.Error()
	}
	for _, d := range r.Documents {
		if !compliance.IsMonthlyDocType(d.DocType) {
			errors["documents"] = "Unknown monthly document type: " + d.DocType
			break
		}
	}

	return errors
}

// UpdateSubmissionRequest edits a draft. Submitted reports are immutable.
type UpdateSubmissionRequest struct {
	Status    *string               `json:"status,omitempty"`
	Metrics   *compliance.MetricSet `json:"metrics,omitempty"`
	Documents *[]DocumentRef        `json:"documents,omitempty"`
}

// Validate checks status, metrics, and document types when present.
func (r *UpdateSubmissionRequest) Validate() map[string]string {
	errors := map[string]string{}

	if r.Status != nil && *r.Status != SubmissionSubmitted && *r.Status != SubmissionNotSubmitted {
		errors["status"] = "Status must be 'Submitted' or 'Not Submitted'"
	}
	if r.Metrics != nil {
		if err := r.Metrics.Validate(); err != nil {
			errors["metrics"] = err.Error()
		}
	}
	if r.Documents != nil {
		for _, d := range *r.Documents {
			if !compliance.IsMonthlyDocType(d.DocType) {
				errors["documents"] = "Unknown monthly document type: " + d.DocType
				break
			}
		}
	}

	return errors
}
