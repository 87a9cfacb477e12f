package models

// Project represents a construction project. Each project has one assigned
// advisor and any number of assigned subcontractors.
type Project struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	AdvisorID        *string  `json:"advisorId"`
	SubcontractorIDs []string `json:"subcontractorIds"`
	CreatedAt        string   `json:"createdAt"`
	UpdatedAt        string   `json:"updatedAt"`
}

// ProjectWithPeople decorates a project with display names for the
// admin project list.
type ProjectWithPeople struct {
	Project
	AdvisorEmail       *string `json:"advisorEmail,omitempty"`
	SubcontractorCount int     `json:"subcontractorCount"`
}

// CreateProjectRequest holds the fields for creating a project.
type CreateProjectRequest struct {
	Name             string   `json:"name"`
	AdvisorID        *string  `json:"advisorId,omitempty"`
	SubcontractorIDs []string `json:"subcontractorIds,omitempty"`
}

// Validate checks required project fields.
func (r *CreateProjectRequest) Validate() map[string]string {
	errors := map[string]string{}

	if len(r.Name) < 2 {
		errors["name"] = "Project name is required (min 2 characters)"
	}

	return errors
}

// UpdateProjectRequest holds the fields that can be changed.
// SubcontractorIDs, when present, replaces the full assignment list.
type UpdateProjectRequest struct {
	Name             *string   `json:"name,omitempty"`
	AdvisorID        *string   `json:"advisorId,omitempty"`
	SubcontractorIDs *[]string `json:"subcontractorIds,omitempty"`
}
