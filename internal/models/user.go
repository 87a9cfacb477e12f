package models

import "compliance-backend/internal/ctxkeys"

// User represents a platform account. Admins run the platform, advisors
// monitor assigned projects, subcontractors submit safety reports.
type User struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	PasswordHash string  `json:"-"` // Never expose in JSON responses
	Role         string  `json:"role"`                  // "admin" | "advisor" | "subcontractor"
	CompanyName  *string `json:"companyName,omitempty"` // Required for subcontractors
	Status       string  `json:"status"`                // "active" | "inactive"
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
}

// CreateUserRequest is used by admins to provision advisor and
// subcontractor accounts. There is no self-signup.
type CreateUserRequest struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	Role        string  `json:"role"`
	CompanyName *string `json:"companyName,omitempty"`
}

// Validate checks required fields and role/company consistency.
func (r *CreateUserRequest) Validate() map[string]string {
	errors := map[string]string{}

	if r.Email == "" {
		errors["email"] = "Email is required"
	}
	if len(r.Password) < 6 {
		errors["password"] = "Password must be at least 6 characters"
	}
	if !ctxkeys.ValidRoles[r.Role] {
		errors["role"] = "Role must be 'admin', 'advisor', or 'subcontractor'"
	}
	if r.Role == "subcontractor" && (r.CompanyName == nil || *r.CompanyName == "") {
		errors["companyName"] = "Company name is required for subcontractors"
	}

	return errors
}

// UpdateUserRequest holds the account fields admins can change.
type UpdateUserRequest struct {
	Role        *string `json:"role,omitempty"`
	Status      *string `json:"status,omitempty"`
	CompanyName *string `json:"companyName,omitempty"`
}

// Validate checks role and status values when present.
func (r *UpdateUserRequest) Validate() map[string]string {
	errors := map[string]string{}

	if r.Role != nil && !ctxkeys.ValidRoles[*r.Role] {
		errors["role"] = "Role must be 'admin', 'advisor', or 'subcontractor'"
	}
	if r.Status != nil && *r.Status != "active" && *r.Status != "inactive" {
		errors["status"] = "Status must be 'active' or 'inactive'"
	}

	return errors
}

// LoginRequest contains the credentials for authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that login credentials are present.
func (r *LoginRequest) Validate() map[string]string {
	errors := map[string]string{}

	if r.Email == "" {
		errors["email"] = "Email is required"
	}
	if r.Password == "" {
		errors["password"] = "Password is required"
	}

	return errors
}

// SetupAdminRequest bootstraps the very first admin account.
type SetupAdminRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the bootstrap fields.
func (r *SetupAdminRequest) Validate() map[string]string {
	errors := map[string]string{}

	if r.Email == "" {
		errors["email"] = "Email is required"
	}
	if len(r.Password) < 6 {
		errors["password"] = "Password must be at least 6 characters"
	}

	return errors
}

// AuthResponse is sent back after a successful login.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
