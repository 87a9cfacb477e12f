package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"compliance-backend/internal/compliance"
	"compliance-backend/internal/database"
)

// StartNotifier launches a background goroutine that runs once per day
// (and once immediately) to remind subcontractors about unsubmitted
// monthly reports and, in January, about the annual document bundle.
func StartNotifier(db database.Service) {
	go func() {
		runCycle(db)

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			runCycle(db)
		}
	}()

	log.Println("[cron] submission reminder started – runs every 24 h")
}

// reminder is one notification tier produced for an unsubmitted period.
type reminder struct {
	Title   string
	Message string
	Type    string
}

// reminderFor maps an unsubmitted period to its notification tier at "now".
// The previous period escalates: overdue notice after the 7th, final notice
// after the 14th. The current period only gets a proactive nudge in the last
// week of the month — it cannot be overdue inside its own month. Returns
// false when no notification is warranted yet.
func reminderFor(p compliance.Period, projectName string, now time.Time) (reminder, bool) {
	status, err := compliance.StatusFor(false, p, now)
	if err != nil {
		return reminder{}, false
	}
	label := p.Label()

	switch status {
	case compliance.StatusAtRisk:
		days, _ := compliance.DaysOverdue(p, now)
		return reminder{
			Title: fmt.Sprintf("🚨 %s report – final notice", label),
			Message: fmt.Sprintf(
				"Your safety report for %s on %s is %d days overdue. Submit immediately to avoid escalation.",
				label, projectName, days,
			),
			Type: "submission_final",
		}, true

	case compliance.StatusOverdue:
		days, _ := compliance.DaysOverdue(p, now)
		return reminder{
			Title: fmt.Sprintf("⚠️ %s report overdue", label),
			Message: fmt.Sprintf(
				"Your safety report for %s on %s is %d days overdue. Please submit as soon as possible.",
				label, projectName, days,
			),
			Type: "submission_overdue",
		}, true

	default:
		if p != compliance.CurrentPeriod(now) || now.Day() < 24 {
			return reminder{}, false
		}
		return reminder{
			Title: fmt.Sprintf("📋 %s report due soon", label),
			Message: fmt.Sprintf(
				"Your safety report for %s on %s hasn't been submitted yet.",
				label, projectName,
			),
			Type: "submission_reminder",
		}, true
	}
}

// runCycle walks every active project/subcontractor pair for the two open
// reporting periods (previous and current month), checks each against the
// rules engine, and inserts the notification tier matching how late the
// report is. Notifications are de-duplicated by (user_id, entity_type,
// entity_id) on the same day; the entity id carries the period so an
// overdue notice for March never suppresses the reminder for April.
func runCycle(db database.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool := db.GetPool()
	now := time.Now()
	periods := [2]compliance.Period{compliance.PreviousPeriod(now), compliance.CurrentPeriod(now)}

	inserted := 0
	slots := 0
	today := now.Format("2006-01-02")

	for _, period := range periods {
		// ─── 1. Pairs with no submitted report for this period ───────────
		rows, err := pool.Query(ctx, `
			SELECT ps.project_id::text, p.name, ps.subcontractor_id::text,
				COALESCE(s.status, '')
			FROM project_subcontractors ps
			JOIN projects p ON p.id = ps.project_id
			JOIN users u ON u.id = ps.subcontractor_id
			LEFT JOIN submissions s ON s.project_id = ps.project_id
				AND s.subcontractor_id = ps.subcontractor_id
				AND s.month = $1 AND s.year = $2
			WHERE u.status = 'active'
		`, period.Month, period.Year)
		if err != nil {
			log.Printf("[cron] error querying submission slots: %v", err)
			return
		}

		type slotRow struct {
			ProjectID   string
			ProjectName string
			SubID       string
			Status      string
		}

		var pending []slotRow
		for rows.Next() {
			var s slotRow
			if err := rows.Scan(&s.ProjectID, &s.ProjectName, &s.SubID, &s.Status); err != nil {
				log.Printf("[cron] scan error: %v", err)
				continue
			}
			pending = append(pending, s)
		}
		rows.Close()
		slots += len(pending)

		// ─── 2. Build & insert notifications (skip if already sent today) ─
		for _, s := range pending {
			if s.Status == "Submitted" {
				continue
			}

			rem, ok := reminderFor(period, s.ProjectName, now)
			if !ok {
				continue
			}

			entityID := fmt.Sprintf("%s:%d-%02d", s.ProjectID, period.Year, period.Month)
			if insertOnce(ctx, pool, s.SubID, "submission", entityID, today,
				rem.Title, rem.Message, rem.Type) {
				inserted++
			}
		}
	}

	// ─── 3. January: remind about the annual document bundle ─────────────
	if compliance.AreAnnualDocumentsDue(now) {
		annualRows, err := pool.Query(ctx, `
			SELECT u.id::text
			FROM users u
			LEFT JOIN annual_document_sets a ON a.subcontractor_id = u.id
				AND a.year = $1 AND a.status = 'Complete'
			WHERE u.role = 'subcontractor' AND u.status = 'active' AND a.id IS NULL
		`, now.Year())
		if err == nil {
			defer annualRows.Close()
			for annualRows.Next() {
				var userID string
				if annualRows.Scan(&userID) != nil {
					continue
				}
				title := fmt.Sprintf("📋 %d annual documents due", now.Year())
				message := fmt.Sprintf(
					"Your annual compliance documents for %d are due this month. %d documents are required.",
					now.Year(), compliance.AnnualDocCount,
				)
				if insertOnce(ctx, pool, userID, "annual", fmt.Sprintf("%d", now.Year()),
					today, title, message, "annual_due") {
					inserted++
				}
			}
		}
	}

	log.Printf("[cron] reminder cycle complete – %d new notifications from %d slots", inserted, slots)
}

// insertOnce writes a notification unless the same user/entity pair was
// already notified today.
func insertOnce(ctx context.Context, pool *pgxpool.Pool, userID, entityType, entityID, today, title, message, nType string) bool {
	var exists bool
	_ = pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM notifications
			WHERE user_id     = $1
			  AND entity_type = $2
			  AND entity_id   = $3
			  AND created_at::date = $4::date
		)
	`, userID, entityType, entityID, today).Scan(&exists)

	if exists {
		return false
	}

	_, err := pool.Exec(ctx, `
		INSERT INTO notifications (user_id, title, message, type, entity_type, entity_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, userID, title, message, nType, entityType, entityID)
	if err != nil {
		log.Printf("[cron] insert notification error: %v", err)
		return false
	}
	return true
}
