package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"compliance-backend/internal/compliance"
	"compliance-backend/internal/ctxkeys"
	"compliance-backend/internal/database"
	"compliance-backend/internal/models"
)

// SubmissionHandler handles monthly safety report submissions.
// All compliance verdicts (eligibility, completion, overdue status) come
// from the rules engine — nothing derived is ever trusted from the client
// or stored beyond the completion snapshot.
type SubmissionHandler struct {
	db database.Service
}

// NewSubmissionHandler creates a new SubmissionHandler.
func NewSubmissionHandler(db database.Service) *SubmissionHandler {
	return &SubmissionHandler{db: db}
}

// ── Create ─────────────────────────────────────────────────────

// Create records a monthly safety report for a project.
// POST /api/projects/{id}/submissions
func (h *SubmissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	subcontractorID, _ := r.Context().Value(ctxkeys.UserID).(string)

	if !checkProjectAccess(r.Context(), projectID) {
		JSONError(w, http.StatusForbidden, "No access to this project")
		return
	}

	var req models.CreateSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		JSONValidation(w, errs)
		return
	}

	now := time.Now()
	period := compliance.Period{Month: req.Month, Year: req.Year}

	ok, err := compliance.CanSubmitForPeriod(period, now)
	if err != nil {
		JSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if !ok {
		JSONError(w, http.StatusUnprocessableEntity,
			"Submissions are only accepted for the current month and the previous month")
		return
	}

	hasIncidents := compliance.HasIncidents(req.Metrics)
	required := compliance.RequiredMonthlyDocuments(req.Metrics)
	docsProvided := countProvidedDocs(req.Documents, required)

	// Submitting with incidents requires the investigation report.
	if req.Status == models.SubmissionSubmitted && hasIncidents &&
		!hasDocType(req.Documents, compliance.IncidentInvestigationReport) {
		JSONError(w, http.StatusUnprocessableEntity,
			"Incident Investigation Report is required when incidents are reported")
		return
	}

	completion, err := compliance.CalculateCompletionPercentage(
		compliance.MetricFieldCount, docsProvided, len(required))
	if err != nil {
		JSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var submittedAt *time.Time
	if req.Status == models.SubmissionSubmitted {
		submittedAt = &now
	}

	docsJSON, err := json.Marshal(req.Documents)
	if err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid document list")
		return
	}
	metricsJSON, err := json.Marshal(req.Metrics)
	if err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid metrics")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var sub models.Submission
	err = pool.QueryRow(ctx, `
		INSERT INTO submissions (
			project_id, subcontractor_id, month, year, status,
			completion_percentage, has_incidents, submitted_at, metrics, documents
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, project_id::text, subcontractor_id::text, month, year, status,
			completion_percentage, has_incidents, submitted_at, metrics, documents,
			created_at, updated_at
	`, projectID, subcontractorID, req.Month, req.Year, req.Status,
		completion, hasIncidents, submittedAt, metricsJSON, docsJSON,
	).Scan(
		&sub.ID, &sub.ProjectID, &sub.SubcontractorID, &sub.Month, &sub.Year,
		&sub.Status, &sub.CompletionPercentage, &sub.HasIncidents,
		&sub.SubmittedAt, &sub.Metrics, &sub.Documents,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			JSONError(w, http.StatusConflict,
				"A submission for this project and period already exists")
			return
		}
		log.Printf("Error creating submission: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create submission")
		return
	}

	JSON(w, http.StatusCreated, map[string]interface{}{
		"data":    decorate(sub, now),
		"message": "Submission saved successfully",
	})
}

// ── Update ─────────────────────────────────────────────────────

// Update edits a draft submission. Once a report has status "Submitted" it
// is immutable — the compliance history must not change after the fact.
// PUT /api/submissions/{id}
func (h *SubmissionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !checkSubmissionAccess(r.Context(), h.db.GetPool(), id) {
		JSONError(w, http.StatusForbidden, "No access to this submission")
		return
	}

	var req models.UpdateSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		JSONValidation(w, errs)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var sub models.Submission
	err := pool.QueryRow(ctx, `
		SELECT id, project_id::text, subcontractor_id::text, month, year, status,
			completion_percentage, has_incidents, submitted_at, metrics, documents,
			created_at, updated_at
		FROM submissions WHERE id = $1
	`, id).Scan(
		&sub.ID, &sub.ProjectID, &sub.SubcontractorID, &sub.Month, &sub.Year,
		&sub.Status, &sub.CompletionPercentage, &sub.HasIncidents,
		&sub.SubmittedAt, &sub.Metrics, &sub.Documents,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		JSONError(w, http.StatusNotFound, "Submission not found")
		return
	}

	if sub.Status == models.SubmissionSubmitted {
		JSONError(w, http.StatusConflict, "Submitted reports cannot be edited")
		return
	}

	if req.Metrics != nil {
		sub.Metrics = *req.Metrics
	}
	if req.Documents != nil {
		sub.Documents = *req.Documents
	}
	if req.Status != nil {
		sub.Status = *req.Status
	}

	now := time.Now()
	sub.HasIncidents = compliance.HasIncidents(sub.Metrics)
	required := compliance.RequiredMonthlyDocuments(sub.Metrics)
	docsProvided := countProvidedDocs(sub.Documents, required)

	if sub.Status == models.SubmissionSubmitted {
		ok, err := compliance.CanSubmitForPeriod(sub.Period(), now)
		if err != nil || !ok {
			JSONError(w, http.StatusUnprocessableEntity,
				"The submission window for this period has closed")
			return
		}
		if sub.HasIncidents && !hasDocType(sub.Documents, compliance.IncidentInvestigationReport) {
			JSONError(w, http.StatusUnprocessableEntity,
				"Incident Investigation Report is required when incidents are reported")
			return
		}
		sub.SubmittedAt = &now
	}

	completion, err := compliance.CalculateCompletionPercentage(
		compliance.MetricFieldCount, docsProvided, len(required))
	if err != nil {
		JSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	sub.CompletionPercentage = completion

	docsJSON, _ := json.Marshal(sub.Documents)
	metricsJSON, _ := json.Marshal(sub.Metrics)

	err = pool.QueryRow(ctx, `
		UPDATE submissions SET
			status = $1, completion_percentage = $2, has_incidents = $3,
			submitted_at = $4, metrics = $5, documents = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at
	`, sub.Status, sub.CompletionPercentage, sub.HasIncidents,
		sub.SubmittedAt, metricsJSON, docsJSON, id,
	).Scan(&sub.UpdatedAt)
	if err != nil {
		log.Printf("Error updating submission: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to update submission")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":    decorate(sub, now),
		"message": "Submission updated successfully",
	})
}

// ── List ───────────────────────────────────────────────────────

// List returns submissions visible to the caller, filtered by optional
// ?projectId= ?subcontractorId= ?month= ?year= query params. Every row is
// decorated with derived status from one "now" snapshot so results are
// mutually consistent within the response.
func (h *SubmissionHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	where := "WHERE 1=1"
	args := []interface{}{}
	argIdx := 1
	where, args, argIdx = appendProjectScope(ctx, where, args, argIdx, "s.project_id")

	if pid := r.URL.Query().Get("projectId"); pid != "" {
		where += " AND s.project_id = $" + strconv.Itoa(argIdx)
		args = append(args, pid)
		argIdx++
	}
	if sid := r.URL.Query().Get("subcontractorId"); sid != "" {
		where += " AND s.subcontractor_id = $" + strconv.Itoa(argIdx)
		args = append(args, sid)
		argIdx++
	}
	if m := r.URL.Query().Get("month"); m != "" {
		month, err := strconv.Atoi(m)
		if err != nil || month < 1 || month > 12 {
			JSONError(w, http.StatusBadRequest, "Invalid month filter")
			return
		}
		where += " AND s.month = $" + strconv.Itoa(argIdx)
		args = append(args, month)
		argIdx++
	}
	if y := r.URL.Query().Get("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			JSONError(w, http.StatusBadRequest, "Invalid year filter")
			return
		}
		where += " AND s.year = $" + strconv.Itoa(argIdx)
		args = append(args, year)
		argIdx++
	}

	rows, err := pool.Query(ctx, `
		SELECT s.id, s.project_id::text, s.subcontractor_id::text, s.month, s.year,
			s.status, s.completion_percentage, s.has_incidents, s.submitted_at,
			s.metrics, s.documents, s.created_at, s.updated_at,
			p.name, COALESCE(u.company_name, u.email)
		FROM submissions s
		JOIN projects p ON p.id = s.project_id
		JOIN users u ON u.id = s.subcontractor_id
		`+where+`
		ORDER BY s.year DESC, s.month DESC, p.name ASC
	`, args...)
	if err != nil {
		log.Printf("Error fetching submissions: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch submissions")
		return
	}
	defer rows.Close()

	now := time.Now()
	list := []models.SubmissionWithContext{}
	for rows.Next() {
		var sub models.Submission
		var item models.SubmissionWithContext
		if err := rows.Scan(
			&sub.ID, &sub.ProjectID, &sub.SubcontractorID, &sub.Month, &sub.Year,
			&sub.Status, &sub.CompletionPercentage, &sub.HasIncidents,
			&sub.SubmittedAt, &sub.Metrics, &sub.Documents,
			&sub.CreatedAt, &sub.UpdatedAt,
			&item.ProjectName, &item.CompanyName,
		); err != nil {
			log.Printf("Error scanning submission: %v", err)
			continue
		}
		item.SubmissionWithStatus = decorate(sub, now)
		list = append(list, item)
	}

	JSON(w, http.StatusOK, map[string]interface{}{"data": list})
}

// ── GetByID ────────────────────────────────────────────────────

// GetByID returns one submission with derived status.
func (h *SubmissionHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !checkSubmissionAccess(r.Context(), h.db.GetPool(), id) {
		JSONError(w, http.StatusForbidden, "No access to this submission")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var sub models.Submission
	err := pool.QueryRow(ctx, `
		SELECT id, project_id::text, subcontractor_id::text, month, year, status,
			completion_percentage, has_incidents, submitted_at, metrics, documents,
			created_at, updated_at
		FROM submissions WHERE id = $1
	`, id).Scan(
		&sub.ID, &sub.ProjectID, &sub.SubcontractorID, &sub.Month, &sub.Year,
		&sub.Status, &sub.CompletionPercentage, &sub.HasIncidents,
		&sub.SubmittedAt, &sub.Metrics, &sub.Documents,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		JSONError(w, http.StatusNotFound, "Submission not found")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{"data": decorate(sub, time.Now())})
}

// ── Helpers ────────────────────────────────────────────────────

// decorate computes the derived view fields for a submission at "now".
func decorate(sub models.Submission, now time.Time) models.SubmissionWithStatus {
	if sub.Documents == nil {
		sub.Documents = []models.DocumentRef{}
	}

	status, _ := compliance.StatusFor(sub.Status == models.SubmissionSubmitted, sub.Period(), now)
	days := 0
	if sub.Status != models.SubmissionSubmitted {
		days, _ = compliance.DaysOverdue(sub.Period(), now)
	}

	return models.SubmissionWithStatus{
		Submission:        sub,
		DerivedStatus:     status,
		DaysOverdue:       days,
		RequiredDocuments: compliance.RequiredMonthlyDocuments(sub.Metrics),
	}
}

// countProvidedDocs counts distinct required document types present in docs.
// Set-membership, not order: duplicates count once, unknown types never.
func countProvidedDocs(docs []models.DocumentRef, required []string) int {
	requiredSet := make(map[string]bool, len(required))
	for _, name := range required {
		requiredSet[name] = true
	}

	seen := map[string]bool{}
	count := 0
	for _, d := range docs {
		if requiredSet[d.DocType] && !seen[d.DocType] {
			seen[d.DocType] = true
			count++
		}
	}
	return count
}

// hasDocType reports whether docs contains the given type.
func hasDocType(docs []models.DocumentRef, docType string) bool {
	for _, d := range docs {
		if d.DocType == docType {
			return true
		}
	}
	return false
}
