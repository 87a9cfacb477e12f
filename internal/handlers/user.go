package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"compliance-backend/internal/ctxkeys"
	"compliance-backend/internal/database"
	"compliance-backend/internal/models"
)

// UserHandler provides admin-only account provisioning and management.
type UserHandler struct {
	db database.Service
}

// NewUserHandler creates a UserHandler with the provided database service.
func NewUserHandler(db database.Service) *UserHandler {
	return &UserHandler{db: db}
}

// ── List ───────────────────────────────────────────────────────

// List returns all accounts, optionally filtered by ?role=.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	query := `
		SELECT id, email, role, company_name, status, created_at::text, updated_at::text
		FROM users
	`
	args := []interface{}{}
	if role := r.URL.Query().Get("role"); role != "" {
		if !ctxkeys.ValidRoles[role] {
			JSONError(w, http.StatusBadRequest, "Unknown role filter")
			return
		}
		query += ` WHERE role = $1`
		args = append(args, role)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		log.Printf("Failed to list users: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch users")
		return
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Role, &u.CompanyName, &u.Status, &u.CreatedAt, &u.UpdatedAt); err != nil {
			log.Printf("Failed to scan user row: %v", err)
			continue
		}
		users = append(users, u)
	}

	JSON(w, http.StatusOK, map[string]interface{}{"data": users})
}

// ── Create ─────────────────────────────────────────────────────

// Create provisions a new advisor or subcontractor (or further admin)
// account with a temporary password set by the admin.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		JSONValidation(w, errs)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var user models.User
	err = pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, role, company_name, status)
		VALUES ($1, $2, $3, $4, 'active')
		RETURNING id, email, role, company_name, status, created_at::text, updated_at::text
	`, req.Email, string(hashedPassword), req.Role, req.CompanyName,
	).Scan(
		&user.ID, &user.Email, &user.Role, &user.CompanyName,
		&user.Status, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			JSONError(w, http.StatusConflict, "An account with this email already exists")
			return
		}
		log.Printf("Failed to create user: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	JSON(w, http.StatusCreated, map[string]interface{}{
		"data":    user,
		"message": "Account created successfully",
	})
}

// ── Update ─────────────────────────────────────────────────────

// Update changes a user's role, status, or company name.
// Admins cannot change their own role (lockout protection).
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "id")
	currentUserID, _ := r.Context().Value(ctxkeys.UserID).(string)

	var req models.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		JSONValidation(w, errs)
		return
	}

	if req.Role != nil && targetID == currentUserID {
		JSONError(w, http.StatusBadRequest, "Cannot change your own role")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var user models.User
	err := pool.QueryRow(ctx, `
		UPDATE users SET
			role = COALESCE($1, role),
			status = COALESCE($2, status),
			company_name = COALESCE($3, company_name),
			updated_at = NOW()
		WHERE id = $4
		RETURNING id, email, role, company_name, status, created_at::text, updated_at::text
	`, req.Role, req.Status, req.CompanyName, targetID,
	).Scan(
		&user.ID, &user.Email, &user.Role, &user.CompanyName,
		&user.Status, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		JSONError(w, http.StatusNotFound, "User not found")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":    user,
		"message": "User updated successfully",
	})
}

// ── Delete ─────────────────────────────────────────────────────

// Delete removes an account. Self-deletion is rejected.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "id")
	currentUserID, _ := r.Context().Value(ctxkeys.UserID).(string)

	if targetID == currentUserID {
		JSONError(w, http.StatusBadRequest, "Cannot delete your own account")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	result, err := pool.Exec(ctx, "DELETE FROM users WHERE id = $1", targetID)
	if err != nil {
		log.Printf("Failed to delete user: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}

	if result.RowsAffected() == 0 {
		JSONError(w, http.StatusNotFound, "User not found")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"message": "User deleted successfully",
	})
}
