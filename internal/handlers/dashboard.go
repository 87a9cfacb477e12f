package handlers

import (
	"context"
	"log"
	"math"
	"net/http"
	"sort"
	"time"

	"compliance-backend/internal/compliance"
	"compliance-backend/internal/database"
	"compliance-backend/internal/models"
)

// DashboardHandler computes analytics for the admin and advisor dashboards.
// Every derived value goes through the rules engine with a single "now"
// snapshot per request so all rows in one render are mutually consistent.
type DashboardHandler struct {
	db database.Service
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(db database.Service) *DashboardHandler {
	return &DashboardHandler{db: db}
}

// ── Admin Analytics ────────────────────────────────────────────

// GetAnalytics handles GET /api/dashboard/analytics (admin only).
func (h *DashboardHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()
	now := time.Now()
	overview := models.AnalyticsOverview{
		TopPerformers:  []models.TopPerformer{},
		AtRiskProjects: []models.AtRiskProject{},
	}

	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&overview.TotalUsers); err != nil {
		log.Printf("Error counting users: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch analytics")
		return
	}
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM projects").Scan(&overview.TotalProjects); err != nil {
		log.Printf("Error counting projects: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch analytics")
		return
	}

	rows, err := pool.Query(ctx, `
		SELECT s.month, s.year, s.status, s.submitted_at, s.metrics,
			s.subcontractor_id::text, COALESCE(u.company_name, u.email),
			s.project_id::text, p.name
		FROM submissions s
		JOIN users u ON u.id = s.subcontractor_id
		JOIN projects p ON p.id = s.project_id
	`)
	if err != nil {
		log.Printf("Error fetching submissions for analytics: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch analytics")
		return
	}
	defer rows.Close()

	type perSub struct {
		name      string
		total     int
		submitted int
	}
	type perProject struct {
		name        string
		daysOverdue int
	}

	bySub := map[string]*perSub{}
	atRisk := map[string]*perProject{}
	onTime := 0

	for rows.Next() {
		var month, year int
		var status string
		var submittedAt *time.Time
		var metrics compliance.MetricSet
		var subID, subName, projID, projName string

		if err := rows.Scan(&month, &year, &status, &submittedAt, &metrics,
			&subID, &subName, &projID, &projName); err != nil {
			log.Printf("Error scanning analytics row: %v", err)
			continue
		}

		overview.TotalSubmissions++
		overview.TotalIncidents += compliance.TotalIncidents(metrics)

		period := compliance.Period{Month: month, Year: year}
		submitted := status == models.SubmissionSubmitted

		if bySub[subID] == nil {
			bySub[subID] = &perSub{name: subName}
		}
		bySub[subID].total++

		if submitted {
			overview.SubmissionsByStatus.Submitted++
			bySub[subID].submitted++
			if submittedAt != nil && !submittedAt.After(compliance.OverdueThreshold(period, now.Location())) {
				onTime++
			}
			continue
		}

		if overdue, _ := compliance.IsOverdue(period, now); overdue {
			overview.SubmissionsByStatus.Overdue++
			days, _ := compliance.DaysOverdue(period, now)
			if atRisk[projID] == nil || days > atRisk[projID].daysOverdue {
				atRisk[projID] = &perProject{name: projName, daysOverdue: days}
			}
		} else {
			overview.SubmissionsByStatus.Pending++
		}
	}

	if overview.TotalSubmissions > 0 {
		overview.ComplianceRate = int(math.Round(
			float64(overview.SubmissionsByStatus.Submitted) / float64(overview.TotalSubmissions) * 100))
		overview.OnTimeRate = int(math.Round(
			float64(onTime) / float64(overview.TotalSubmissions) * 100))
	}

	for id, s := range bySub {
		if s.total == 0 {
			continue
		}
		overview.TopPerformers = append(overview.TopPerformers, models.TopPerformer{
			SubcontractorID: id,
			Name:            s.name,
			ComplianceRate:  int(math.Round(float64(s.submitted) / float64(s.total) * 100)),
		})
	}
	sort.Slice(overview.TopPerformers, func(i, j int) bool {
		if overview.TopPerformers[i].ComplianceRate != overview.TopPerformers[j].ComplianceRate {
			return overview.TopPerformers[i].ComplianceRate > overview.TopPerformers[j].ComplianceRate
		}
		return overview.TopPerformers[i].Name < overview.TopPerformers[j].Name
	})
	if len(overview.TopPerformers) > 5 {
		overview.TopPerformers = overview.TopPerformers[:5]
	}

	for id, p := range atRisk {
		overview.AtRiskProjects = append(overview.AtRiskProjects, models.AtRiskProject{
			ProjectID:   id,
			ProjectName: p.name,
			DaysOverdue: p.daysOverdue,
		})
	}
	sort.Slice(overview.AtRiskProjects, func(i, j int) bool {
		return overview.AtRiskProjects[i].DaysOverdue > overview.AtRiskProjects[j].DaysOverdue
	})

	JSON(w, http.StatusOK, overview)
}

// ── Advisor Project Status ─────────────────────────────────────

// GetProjectStatus handles GET /api/dashboard/projects (advisor and up).
// For every project in the caller's scope, it reports the state of the
// previous reporting period for each assigned subcontractor — including
// subcontractors who haven't created a submission row yet. The previous
// period is the one whose due date has arrived: its thresholds fall in
// the current month, so overdue and at-risk slots actually show up here.
func (h *DashboardHandler) GetProjectStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()
	now := time.Now()
	period := compliance.PreviousPeriod(now)

	where := "WHERE 1=1"
	args := []interface{}{}
	argIdx := 1
	where, args, argIdx = appendProjectScope(ctx, where, args, argIdx, "p.id")
	_ = argIdx

	rows, err := pool.Query(ctx, `
		SELECT p.id::text, p.name, ps.subcontractor_id::text,
			COALESCE(u.company_name, u.email), u.email
		FROM projects p
		JOIN project_subcontractors ps ON ps.project_id = p.id
		JOIN users u ON u.id = ps.subcontractor_id
		`+where+`
		ORDER BY p.name ASC, u.email ASC
	`, args...)
	if err != nil {
		log.Printf("Error fetching project status: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch project status")
		return
	}
	defer rows.Close()

	type slotKey struct{ projectID, subID string }
	order := []string{}
	projects := map[string]*models.AdvisorProjectStatus{}
	slots := map[slotKey]*models.SubcontractorSlot{}

	for rows.Next() {
		var projID, projName, subID, company, email string
		if err := rows.Scan(&projID, &projName, &subID, &company, &email); err != nil {
			continue
		}

		if projects[projID] == nil {
			projects[projID] = &models.AdvisorProjectStatus{
				ProjectID:      projID,
				ProjectName:    projName,
				Month:          period.Month,
				Year:           period.Year,
				Subcontractors: []models.SubcontractorSlot{},
			}
			order = append(order, projID)
		}

		// Until a submission row shows up, the slot derives from the bare period.
		status, _ := compliance.StatusFor(false, period, now)
		days, _ := compliance.DaysOverdue(period, now)
		slot := models.SubcontractorSlot{
			SubcontractorID: subID,
			CompanyName:     company,
			Email:           email,
			Status:          status,
			DaysOverdue:     days,
		}
		projects[projID].Subcontractors = append(projects[projID].Subcontractors, slot)
		slots[slotKey{projID, subID}] = &projects[projID].Subcontractors[len(projects[projID].Subcontractors)-1]
	}

	// Overlay actual submission rows for the current period.
	subRows, err := pool.Query(ctx, `
		SELECT s.project_id::text, s.subcontractor_id::text, s.status, s.completion_percentage
		FROM submissions s
		WHERE s.month = $1 AND s.year = $2
	`, period.Month, period.Year)
	if err == nil {
		defer subRows.Close()
		for subRows.Next() {
			var projID, subID, status string
			var completion int
			if err := subRows.Scan(&projID, &subID, &status, &completion); err != nil {
				continue
			}
			slot := slots[slotKey{projID, subID}]
			if slot == nil {
				continue
			}
			derived, _ := compliance.StatusFor(status == models.SubmissionSubmitted, period, now)
			slot.Status = derived
			slot.CompletionPercentage = completion
			if derived == compliance.StatusSubmitted {
				slot.DaysOverdue = 0
			}
		}
	}

	result := []models.AdvisorProjectStatus{}
	for _, id := range order {
		result = append(result, *projects[id])
	}

	JSON(w, http.StatusOK, map[string]interface{}{"data": result})
}
