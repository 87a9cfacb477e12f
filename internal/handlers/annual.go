package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"compliance-backend/internal/compliance"
	"compliance-backend/internal/ctxkeys"
	"compliance-backend/internal/database"
	"compliance-backend/internal/models"
)

// AnnualHandler manages yearly compliance-document bundles. One set per
// subcontractor per year, validated against the fixed 18-item catalog.
type AnnualHandler struct {
	db database.Service
}

// NewAnnualHandler creates a new AnnualHandler.
func NewAnnualHandler(db database.Service) *AnnualHandler {
	return &AnnualHandler{db: db}
}

// ── Upsert ─────────────────────────────────────────────────────

// Upsert creates or replaces the caller's annual document set for a year.
// Completion percentage and status are recomputed server-side; a set
// reaching all 18 documents becomes Complete and records submittedAt.
// POST /api/annual-documents
func (h *AnnualHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	subcontractorID, _ := r.Context().Value(ctxkeys.UserID).(string)

	var req models.UpsertAnnualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		JSONValidation(w, errs)
		return
	}

	completion, err := compliance.AnnualCompletionPercentage(len(req.Documents))
	if err != nil {
		JSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	status := models.AnnualIncomplete
	var submittedAt *time.Time
	if completion == 100 {
		status = models.AnnualComplete
		now := time.Now()
		submittedAt = &now
	}

	docsJSON, err := json.Marshal(req.Documents)
	if err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid document list")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var set models.AnnualDocumentSet
	err = pool.QueryRow(ctx, `
		INSERT INTO annual_document_sets (
			subcontractor_id, year, status, completion_percentage, submitted_at, documents
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (subcontractor_id, year) DO UPDATE SET
			status = EXCLUDED.status,
			completion_percentage = EXCLUDED.completion_percentage,
			submitted_at = COALESCE(annual_document_sets.submitted_at, EXCLUDED.submitted_at),
			documents = EXCLUDED.documents,
			updated_at = NOW()
		RETURNING id, subcontractor_id::text, year, status, completion_percentage,
			submitted_at, documents, created_at, updated_at
	`, subcontractorID, req.Year, status, completion, submittedAt, docsJSON,
	).Scan(
		&set.ID, &set.SubcontractorID, &set.Year, &set.Status,
		&set.CompletionPercentage, &set.SubmittedAt, &set.Documents,
		&set.CreatedAt, &set.UpdatedAt,
	)
	if err != nil {
		log.Printf("Error upserting annual document set: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to save annual documents")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":    set,
		"message": "Annual documents saved successfully",
	})
}

// ── List ───────────────────────────────────────────────────────

// List returns annual document sets. Subcontractors see only their own;
// advisors see sets of subcontractors on their projects; admins see all.
// Optional ?year= and ?subcontractorId= filters.
func (h *AnnualHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)
	role, _ := r.Context().Value(ctxkeys.UserRole).(string)

	where := "WHERE 1=1"
	args := []interface{}{}
	argIdx := 1

	switch role {
	case "subcontractor":
		where += " AND a.subcontractor_id = $" + strconv.Itoa(argIdx)
		args = append(args, userID)
		argIdx++
	case "advisor":
		where += ` AND a.subcontractor_id IN (
			SELECT ps.subcontractor_id FROM project_subcontractors ps
			JOIN projects p ON p.id = ps.project_id
			WHERE p.advisor_id = $` + strconv.Itoa(argIdx) + `)`
		args = append(args, userID)
		argIdx++
	}

	if y := r.URL.Query().Get("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			JSONError(w, http.StatusBadRequest, "Invalid year filter")
			return
		}
		where += " AND a.year = $" + strconv.Itoa(argIdx)
		args = append(args, year)
		argIdx++
	}
	if sid := r.URL.Query().Get("subcontractorId"); sid != "" {
		where += " AND a.subcontractor_id = $" + strconv.Itoa(argIdx)
		args = append(args, sid)
		argIdx++
	}

	rows, err := pool.Query(ctx, `
		SELECT a.id, a.subcontractor_id::text, a.year, a.status,
			a.completion_percentage, a.submitted_at, a.documents,
			a.created_at, a.updated_at
		FROM annual_document_sets a
		`+where+`
		ORDER BY a.year DESC
	`, args...)
	if err != nil {
		log.Printf("Error fetching annual document sets: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch annual documents")
		return
	}
	defer rows.Close()

	sets := []models.AnnualDocumentSet{}
	for rows.Next() {
		var set models.AnnualDocumentSet
		if err := rows.Scan(
			&set.ID, &set.SubcontractorID, &set.Year, &set.Status,
			&set.CompletionPercentage, &set.SubmittedAt, &set.Documents,
			&set.CreatedAt, &set.UpdatedAt,
		); err != nil {
			log.Printf("Error scanning annual set: %v", err)
			continue
		}
		if set.Documents == nil {
			set.Documents = []models.DocumentRef{}
		}
		sets = append(sets, set)
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": sets,
		"due":  compliance.AreAnnualDocumentsDue(time.Now()),
	})
}
