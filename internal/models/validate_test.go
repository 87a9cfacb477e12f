package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"compliance-backend/internal/compliance"
)

func strPtr(s string) *string { return &s }

func TestCreateUserRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateUserRequest
		wantKey string
	}{
		{
			name: "valid advisor",
			req:  CreateUserRequest{Email: "a@b.com", Password: "secret1", Role: "advisor"},
		},
		{
			name: "valid subcontractor with company",
			req: CreateUserRequest{
				Email: "s@b.com", Password: "secret1",
				Role: "subcontractor", CompanyName: strPtr("Acme Steel"),
			},
		},
		{
			name:    "missing email",
			req:     CreateUserRequest{Password: "secret1", Role: "advisor"},
			wantKey: "email",
		},
		{
			name:    "short password",
			req:     CreateUserRequest{Email: "a@b.com", Password: "abc", Role: "advisor"},
			wantKey: "password",
		},
		{
			name:    "unknown role",
			req:     CreateUserRequest{Email: "a@b.com", Password: "secret1", Role: "owner"},
			wantKey: "role",
		},
		{
			name:    "subcontractor without company",
			req:     CreateUserRequest{Email: "s@b.com", Password: "secret1", Role: "subcontractor"},
			wantKey: "companyName",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.req.Validate()
			if tt.wantKey == "" {
				assert.Empty(t, errs)
			} else {
				assert.Contains(t, errs, tt.wantKey)
			}
		})
	}
}

func TestCreateSubmissionRequestValidate(t *testing.T) {
	valid := CreateSubmissionRequest{
		Month:  4,
		Year:   2024,
		Status: SubmissionNotSubmitted,
		Documents: []DocumentRef{
			{DocType: "Safety Inspection Reports"},
			{DocType: compliance.IncidentInvestigationReport},
		},
	}
	assert.Empty(t, valid.Validate())

	bad := valid
	bad.Month = 13
	assert.Contains(t, bad.Validate(), "month")

	bad = valid
	bad.Year = 1999
	assert.Contains(t, bad.Validate(), "year")

	bad = valid
	bad.Status = "Draft"
	assert.Contains(t, bad.Validate(), "status")

	bad = valid
	bad.Metrics = compliance.MetricSet{NearMisses: -1}
	assert.Contains(t, bad.Validate(), "metrics")

	bad = valid
	bad.Documents = []DocumentRef{{DocType: "Crane Permit"}}
	assert.Contains(t, bad.Validate(), "documents")
}

func TestUpdateSubmissionRequestValidate(t *testing.T) {
	empty := UpdateSubmissionRequest{}
	assert.Empty(t, empty.Validate(), "all-nil update is a no-op, not an error")

	status := "Submitted"
	ok := UpdateSubmissionRequest{Status: &status}
	assert.Empty(t, ok.Validate())

	badStatus := "Pending"
	bad := UpdateSubmissionRequest{Status: &badStatus}
	assert.Contains(t, bad.Validate(), "status")

	badMetrics := compliance.MetricSet{ToolboxTalks: -2}
	bad = UpdateSubmissionRequest{Metrics: &badMetrics}
	assert.Contains(t, bad.Validate(), "metrics")
}

func TestUpsertAnnualRequestValidate(t *testing.T) {
	expiry := "2025-06-30"

	valid := UpsertAnnualRequest{
		Year: 2024,
		Documents: []DocumentRef{
			{DocType: "Health & Safety Policy Statement"},
			{DocType: "Valid WSIB Clearance Certificate", ExpiryDate: &expiry},
		},
	}
	assert.Empty(t, valid.Validate())

	bad := valid
	bad.Year = 0
	assert.Contains(t, bad.Validate(), "year")

	bad = valid
	bad.Documents = []DocumentRef{{DocType: "Some Random Paper"}}
	assert.Contains(t, bad.Validate(), "documents")

	bad = valid
	bad.Documents = []DocumentRef{
		{DocType: "Emergency Response Plan"},
		{DocType: "Emergency Response Plan"},
	}
	assert.Contains(t, bad.Validate(), "documents", "duplicates rejected")

	// Expiry-bearing documents must carry a date.
	bad = valid
	bad.Documents = []DocumentRef{{DocType: "Proof of Liability Insurance"}}
	assert.Contains(t, bad.Validate(), "documents")
}

func TestSubmissionPeriod(t *testing.T) {
	s := Submission{Month: 12, Year: 2024}
	assert.Equal(t, compliance.Period{Month: 12, Year: 2024}, s.Period())
}
