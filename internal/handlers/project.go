package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"compliance-backend/internal/database"
	"compliance-backend/internal/models"
)

// ProjectHandler handles project CRUD and assignment.
type ProjectHandler struct {
	db database.Service
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(db database.Service) *ProjectHandler {
	return &ProjectHandler{db: db}
}

// ── List ───────────────────────────────────────────────────────

// List returns the projects visible to the caller (all for admins,
// assigned ones for advisors and subcontractors).
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	where := "WHERE 1=1"
	args := []interface{}{}
	argIdx := 1
	where, args, argIdx = appendProjectScope(ctx, where, args, argIdx, "p.id")
	_ = argIdx

	rows, err := pool.Query(ctx, `
		SELECT p.id, p.name, p.advisor_id::text, a.email,
			p.created_at::text, p.updated_at::text,
			COUNT(ps.subcontractor_id) AS subcontractor_count
		FROM projects p
		LEFT JOIN users a ON a.id = p.advisor_id
		LEFT JOIN project_subcontractors ps ON ps.project_id = p.id
		`+where+`
		GROUP BY p.id, p.name, p.advisor_id, a.email, p.created_at, p.updated_at
		ORDER BY p.name ASC
	`, args...)
	if err != nil {
		log.Printf("Error fetching projects: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch projects")
		return
	}
	defer rows.Close()

	projects := []models.ProjectWithPeople{}
	for rows.Next() {
		var p models.ProjectWithPeople
		if err := rows.Scan(
			&p.ID, &p.Name, &p.AdvisorID, &p.AdvisorEmail,
			&p.CreatedAt, &p.UpdatedAt, &p.SubcontractorCount,
		); err != nil {
			log.Printf("Error scanning project: %v", err)
			continue
		}
		p.SubcontractorIDs = []string{}
		projects = append(projects, p)
	}

	JSON(w, http.StatusOK, map[string]interface{}{"data": projects})
}

// ── GetByID ────────────────────────────────────────────────────

// GetByID returns one project with its full subcontractor assignment list.
func (h *ProjectHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if !checkProjectAccess(r.Context(), id) {
		JSONError(w, http.StatusForbidden, "No access to this project")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var p models.Project
	err := pool.QueryRow(ctx, `
		SELECT id, name, advisor_id::text, created_at::text, updated_at::text
		FROM projects WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.AdvisorID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		JSONError(w, http.StatusNotFound, "Project not found")
		return
	}

	p.SubcontractorIDs = []string{}
	rows, err := pool.Query(ctx,
		`SELECT subcontractor_id::text FROM project_subcontractors WHERE project_id = $1`, id)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var sid string
			if rows.Scan(&sid) == nil {
				p.SubcontractorIDs = append(p.SubcontractorIDs, sid)
			}
		}
	}

	JSON(w, http.StatusOK, map[string]interface{}{"data": p})
}

// ── Create ─────────────────────────────────────────────────────

// Create adds a new project with optional advisor and subcontractor
// assignments.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProjectRequest
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

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Printf("Error starting transaction: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create project")
		return
	}
	defer tx.Rollback(ctx)

	var p models.Project
	err = tx.QueryRow(ctx, `
		INSERT INTO projects (name, advisor_id)
		VALUES ($1, $2)
		RETURNING id, name, advisor_id::text, created_at::text, updated_at::text
	`, req.Name, req.AdvisorID,
	).Scan(&p.ID, &p.Name, &p.AdvisorID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			JSONError(w, http.StatusConflict, "A project with this name already exists")
			return
		}
		log.Printf("Error creating project: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create project")
		return
	}

	p.SubcontractorIDs = []string{}
	for _, sid := range req.SubcontractorIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO project_subcontractors (project_id, subcontractor_id)
			VALUES ($1, $2) ON CONFLICT DO NOTHING
		`, p.ID, sid); err != nil {
			log.Printf("Error assigning subcontractor %s: %v", sid, err)
			JSONError(w, http.StatusUnprocessableEntity, "Invalid subcontractor assignment")
			return
		}
		p.SubcontractorIDs = append(p.SubcontractorIDs, sid)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("Error committing project: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create project")
		return
	}

	JSON(w, http.StatusCreated, map[string]interface{}{
		"data":    p,
		"message": "Project created successfully",
	})
}

// ── Update ─────────────────────────────────────────────────────

// Update modifies a project's name, advisor, or subcontractor list.
// A provided subcontractor list replaces the previous assignment.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Printf("Error starting transaction: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to update project")
		return
	}
	defer tx.Rollback(ctx)

	var p models.Project
	err = tx.QueryRow(ctx, `
		UPDATE projects SET
			name = COALESCE($1, name),
			advisor_id = COALESCE($2, advisor_id),
			updated_at = NOW()
		WHERE id = $3
		RETURNING id, name, advisor_id::text, created_at::text, updated_at::text
	`, req.Name, req.AdvisorID, id,
	).Scan(&p.ID, &p.Name, &p.AdvisorID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		JSONError(w, http.StatusNotFound, "Project not found")
		return
	}

	p.SubcontractorIDs = []string{}
	if req.SubcontractorIDs != nil {
		if _, err := tx.Exec(ctx,
			`DELETE FROM project_subcontractors WHERE project_id = $1`, id); err != nil {
			log.Printf("Error clearing assignments: %v", err)
			JSONError(w, http.StatusInternalServerError, "Failed to update project")
			return
		}
		for _, sid := range *req.SubcontractorIDs {
			if _, err := tx.Exec(ctx, `
				INSERT INTO project_subcontractors (project_id, subcontractor_id)
				VALUES ($1, $2) ON CONFLICT DO NOTHING
			`, id, sid); err != nil {
				log.Printf("Error assigning subcontractor %s: %v", sid, err)
				JSONError(w, http.StatusUnprocessableEntity, "Invalid subcontractor assignment")
				return
			}
			p.SubcontractorIDs = append(p.SubcontractorIDs, sid)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("Error committing project update: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to update project")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":    p,
		"message": "Project updated successfully",
	})
}

// ── Delete ─────────────────────────────────────────────────────

// Delete removes a project and cascades to its assignments and submissions.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	result, err := pool.Exec(ctx, "DELETE FROM projects WHERE id = $1", id)
	if err != nil {
		log.Printf("Error deleting project: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete project")
		return
	}

	if result.RowsAffected() == 0 {
		JSONError(w, http.StatusNotFound, "Project not found")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"message": "Project deleted successfully",
	})
}
