package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"compliance-backend/internal/compliance"
	"compliance-backend/internal/models"
)

func TestCountProvidedDocs(t *testing.T) {
	required := compliance.RequiredMonthlyDocuments(compliance.MetricSet{})

	docs := []models.DocumentRef{
		{DocType: "Safety Inspection Reports"},
		{DocType: "Safety Inspection Reports"}, // duplicate counts once
		{DocType: "Toolbox Talk Attendance Sheet"},
		{DocType: "Not A Real Document"}, // unknown never counts
	}

	assert.Equal(t, 2, countProvidedDocs(docs, required))
	assert.Equal(t, 0, countProvidedDocs(nil, required))
	assert.Equal(t, 0, countProvidedDocs(docs, nil))
}

func TestHasDocType(t *testing.T) {
	docs := []models.DocumentRef{
		{DocType: compliance.IncidentInvestigationReport},
	}
	assert.True(t, hasDocType(docs, compliance.IncidentInvestigationReport))
	assert.False(t, hasDocType(docs, "Safety Inspection Reports"))
	assert.False(t, hasDocType(nil, compliance.IncidentInvestigationReport))
}

func TestDecorate(t *testing.T) {
	now := time.Date(2024, 4, 20, 12, 0, 0, 0, time.UTC)

	draft := models.Submission{
		Month:  3,
		Year:   2024,
		Status: models.SubmissionNotSubmitted,
	}
	got := decorate(draft, now)
	assert.Equal(t, compliance.StatusAtRisk, got.DerivedStatus)
	assert.Equal(t, 13, got.DaysOverdue)
	assert.Len(t, got.RequiredDocuments, 4)
	assert.NotNil(t, got.Documents)

	submitted := draft
	submitted.Status = models.SubmissionSubmitted
	got = decorate(submitted, now)
	assert.Equal(t, compliance.StatusSubmitted, got.DerivedStatus)
	assert.Equal(t, 0, got.DaysOverdue)

	withIncidents := draft
	withIncidents.Metrics.NearMisses = 2
	got = decorate(withIncidents, now)
	assert.Contains(t, got.RequiredDocuments, compliance.IncidentInvestigationReport)
}

func TestCsvEscape(t *testing.T) {
	assert.Equal(t, "plain", csvEscape("plain"))
	assert.Equal(t, `"a,b"`, csvEscape("a,b"))
	assert.Equal(t, `"say ""hi"""`, csvEscape(`say "hi"`))
}

func TestAllowedUploadType(t *testing.T) {
	assert.True(t, allowedUploadType("application/pdf", "report.pdf"))
	assert.True(t, allowedUploadType("image/png", "photo.png"))
	assert.False(t, allowedUploadType("text/html", "page.html"))

	// Word documents sniff as zip; only the .docx extension is let through.
	assert.True(t, allowedUploadType("application/zip", "policy.docx"))
	assert.True(t, allowedUploadType("application/zip", "POLICY.DOCX"))
	assert.False(t, allowedUploadType("application/zip", "archive.zip"))
	assert.False(t, allowedUploadType("application/zip", "policy"))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "report.pdf", sanitizeFilename("../../report.pdf"))
	assert.Equal(t, "site_photo.png", sanitizeFilename("site photo.png"))
}
