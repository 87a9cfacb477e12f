package handlers

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"compliance-backend/internal/ctxkeys"
)

// appendProjectScope adds a project_id scope filter to a dynamic WHERE clause.
// colExpr is the SQL column expression to filter on (e.g. "s.project_id", "p.id").
// If the user has global scope (admin), nothing is added.
func appendProjectScope(ctx context.Context, where string, args []interface{}, argIdx int, colExpr string) (string, []interface{}, int) {
	scope := ctxkeys.GetProjectScope(ctx)
	if scope == nil {
		return where, args, argIdx
	}
	where += fmt.Sprintf(" AND %s = ANY($%d)", colExpr, argIdx)
	args = append(args, scope)
	argIdx++
	return where, args, argIdx
}

// checkProjectAccess verifies that the given projectID is within the user's scope.
func checkProjectAccess(ctx context.Context, projectID string) bool {
	scope := ctxkeys.GetProjectScope(ctx)
	if scope == nil {
		return true
	}
	for _, id := range scope {
		if id == projectID {
			return true
		}
	}
	return false
}

// checkSubmissionAccess looks up the submission's project and checks scope.
func checkSubmissionAccess(ctx context.Context, pool *pgxpool.Pool, submissionID string) bool {
	if ctxkeys.IsGlobalScope(ctx) {
		return true
	}
	var projectID string
	err := pool.QueryRow(ctx,
		"SELECT project_id::text FROM submissions WHERE id = $1", submissionID,
	).Scan(&projectID)
	if err != nil {
		return false
	}
	return checkProjectAccess(ctx, projectID)
}
