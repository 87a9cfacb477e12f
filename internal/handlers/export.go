package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"compliance-backend/internal/compliance"
	"compliance-backend/internal/database"
	"compliance-backend/internal/models"
)

// ExportHandler streams submission data as CSV or XLSX downloads.
type ExportHandler struct {
	db database.Service
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(db database.Service) *ExportHandler {
	return &ExportHandler{db: db}
}

var exportHeader = []string{
	"Project", "Subcontractor", "Month", "Year", "Status", "Days Overdue",
	"Completion %", "Worker Hours", "Toolbox Talks", "Incidents", "Documents Provided",
	"Submitted At",
}

type exportRow struct {
	project     string
	company     string
	month       int
	year        int
	status      string
	daysOverdue int
	completion  int
	workerHours int
	talks       int
	incidents   int
	docs        int
	submittedAt string
}

// ── CSV ────────────────────────────────────────────────────────

// ExportCSV handles GET /api/export/submissions
// Optional filters: ?month=, ?year=, ?projectId=
func (h *ExportHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	records, err := h.fetch(r)
	if err != nil {
		log.Printf("Error exporting submissions: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to export")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=submissions.csv")

	// Write CSV header
	fmt.Fprintln(w, strings.Join(exportHeader, ","))

	for _, rec := range records {
		fmt.Fprintf(w, "%s,%s,%d,%d,%s,%d,%d,%d,%d,%d,%d,%s\n",
			csvEscape(rec.project), csvEscape(rec.company), rec.month, rec.year,
			rec.status, rec.daysOverdue, rec.completion,
			rec.workerHours, rec.talks, rec.incidents, rec.docs, rec.submittedAt)
	}
}

// ── XLSX ───────────────────────────────────────────────────────

// ExportXLSX handles GET /api/export/submissions.xlsx
// Same data set as the CSV export, rendered as a styled workbook.
func (h *ExportHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	records, err := h.fetch(r)
	if err != nil {
		log.Printf("Error exporting submissions: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to export")
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Submissions"
	index, err := f.NewSheet(sheet)
	if err != nil {
		log.Printf("Error creating sheet: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to export")
		return
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		log.Printf("Error creating header style: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to export")
		return
	}

	for col, header := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			log.Printf("Error converting coordinates: %v", err)
			JSONError(w, http.StatusInternalServerError, "Failed to export")
			return
		}
		f.SetCellValue(sheet, cell, header)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i, rec := range records {
		values := []interface{}{
			rec.project, rec.company, rec.month, rec.year, rec.status,
			rec.daysOverdue, rec.completion, rec.workerHours, rec.talks,
			rec.incidents, rec.docs, rec.submittedAt,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				continue
			}
			f.SetCellValue(sheet, cell, v)
		}
	}

	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=submissions.xlsx")

	if err := f.Write(w); err != nil {
		log.Printf("Error writing workbook: %v", err)
	}
}

// ── Shared query ───────────────────────────────────────────────

func (h *ExportHandler) fetch(r *http.Request) ([]exportRow, error) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()
	now := time.Now()

	where := "WHERE 1=1"
	args := []interface{}{}
	argIdx := 1

	if m := r.URL.Query().Get("month"); m != "" {
		month, err := strconv.Atoi(m)
		if err != nil {
			return nil, fmt.Errorf("invalid month filter: %w", err)
		}
		where += " AND s.month = $" + strconv.Itoa(argIdx)
		args = append(args, month)
		argIdx++
	}
	if y := r.URL.Query().Get("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			return nil, fmt.Errorf("invalid year filter: %w", err)
		}
		where += " AND s.year = $" + strconv.Itoa(argIdx)
		args = append(args, year)
		argIdx++
	}
	if pid := r.URL.Query().Get("projectId"); pid != "" {
		where += " AND s.project_id = $" + strconv.Itoa(argIdx)
		args = append(args, pid)
		argIdx++
	}
	where, args, argIdx = appendProjectScope(r.Context(), where, args, argIdx, "s.project_id")
	_ = argIdx

	rows, err := pool.Query(ctx, `
		SELECT p.name, COALESCE(u.company_name, u.email),
			s.month, s.year, s.status, s.completion_percentage,
			s.metrics, s.documents, s.submitted_at
		FROM submissions s
		JOIN projects p ON p.id = s.project_id
		JOIN users u ON u.id = s.subcontractor_id
		`+where+`
		ORDER BY s.year DESC, s.month DESC, p.name ASC
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []exportRow{}
	for rows.Next() {
		var rec exportRow
		var status string
		var metrics compliance.MetricSet
		var docs []models.DocumentRef
		var submittedAt *time.Time

		if err := rows.Scan(&rec.project, &rec.company, &rec.month, &rec.year,
			&status, &rec.completion, &metrics, &docs, &submittedAt); err != nil {
			log.Printf("Error scanning export row: %v", err)
			continue
		}

		period := compliance.Period{Month: rec.month, Year: rec.year}
		derived, _ := compliance.StatusFor(status == models.SubmissionSubmitted, period, now)
		rec.status = derived
		if derived == compliance.StatusOverdue || derived == compliance.StatusAtRisk {
			rec.daysOverdue, _ = compliance.DaysOverdue(period, now)
		}
		rec.workerHours = metrics.TotalWorkerHours
		rec.talks = metrics.ToolboxTalks
		rec.incidents = compliance.TotalIncidents(metrics)
		rec.docs = len(docs)
		if submittedAt != nil {
			rec.submittedAt = submittedAt.Format("2006-01-02")
		}
		records = append(records, rec)
	}

	return records, nil
}

// csvEscape wraps a value in quotes if it contains commas.
func csvEscape(s string) string {
	if strings.Contains(s, ",") || strings.Contains(s, "\"") {
		return "\"" + strings.ReplaceAll(s, "\"", "\"\"") + "\""
	}
	return s
}
