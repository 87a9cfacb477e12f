package handlers

import (
	"net/http"

	"compliance-backend/internal/compliance"
)

// ReferenceHandler exposes the fixed document catalogs so clients render
// forms from the same source of truth the server validates against.
type ReferenceHandler struct{}

// NewReferenceHandler creates a ReferenceHandler.
func NewReferenceHandler() *ReferenceHandler {
	return &ReferenceHandler{}
}

// MonthlyCatalog returns the monthly document types: the four unconditional
// items plus the conditional incident report.
// GET /api/reference/monthly-documents
func (h *ReferenceHandler) MonthlyCatalog(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"required":    compliance.RequiredMonthlyDocuments(compliance.MetricSet{}),
		"conditional": compliance.IncidentInvestigationReport,
	})
}

// AnnualCatalog returns the fixed 18-item annual catalog.
// GET /api/reference/annual-documents
func (h *ReferenceHandler) AnnualCatalog(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"data": compliance.RequiredAnnualDocuments(),
	})
}
