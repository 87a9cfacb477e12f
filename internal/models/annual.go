package models

import (
	"time"

	"compliance-backend/internal/compliance"
)

// Annual document set status values as stored.
const (
	AnnualComplete   = "Complete"
	AnnualIncomplete = "Incomplete"
)

// AnnualDocumentSet is one subcontractor's yearly compliance-document bundle.
// Company-wide, not per-project; at most one set per (subcontractor, year).
type AnnualDocumentSet struct {
	ID                   string        `json:"id"`
	SubcontractorID      string        `json:"subcontractorId"`
	Year                 int           `json:"year"`
	Status               string        `json:"status"` // "Complete" | "Incomplete"
	CompletionPercentage int           `json:"completionPercentage"`
	SubmittedAt          *time.Time    `json:"submittedAt,omitempty"`
	Documents            []DocumentRef `json:"documents"`
	CreatedAt            time.Time     `json:"createdAt"`
	UpdatedAt            time.Time     `json:"updatedAt"`
}

// UpsertAnnualRequest creates or replaces the document list of a
// subcontractor's annual set for one year.
type UpsertAnnualRequest struct {
	Year      int           `json:"year"`
	Documents []DocumentRef `json:"documents"`
}

// Validate checks the year, catalog membership, duplicates, and the expiry
// requirement for WSIB clearance and liability insurance.
func (r *UpsertAnnualRequest) Validate() map[string]string {
	errors := map[string]string{}

	if r.Year < 2000 || r.Year > 2100 {
		errors["year"] = "Year is out of range"
	}

	seen := map[string]bool{}
	for _, d := range r.Documents {
		if !compliance.IsAnnualDocType(d.DocType) {
			errors["documents"] = "Unknown annual document type: " + d.DocType
			break
		}
		if seen[d.DocType] {
			errors["documents"] = "Duplicate annual document type: " + d.DocType
			break
		}
		seen[d.DocType] = true

		if compliance.AnnualDocNeedsExpiry(d.DocType) && (d.ExpiryDate == nil || *d.ExpiryDate == "") {
			errors["documents"] = d.DocType + " requires an expiry date"
			break
		}
	}

	return errors
}
