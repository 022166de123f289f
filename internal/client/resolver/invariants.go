package resolver

import (
	"time"

	"github.com/avoronov/goalkeeper/internal/models"
)

// enforceInvariants repairs cross-field rules a field-by-field merge can
// break on goals, tasks and projects:
//
//   - progress at 100 or above forces status to completed
//   - progress below 100 with status completed reverts to in_progress
//
// The completion stamp reuses the merged UpdatedAt so that resolution stays
// deterministic regardless of when it runs.
func enforceInvariants(entity models.Entity, resolution *Resolution) {
	switch v := entity.(type) {
	case *models.Goal:
		v.Status, v.CompletedAt = repairCompletion(v.Status, v.Progress, v.CompletedAt, v.UpdatedAt, resolution)
	case *models.Task:
		v.Status, v.CompletedAt = repairCompletion(v.Status, v.Progress, v.CompletedAt, v.UpdatedAt, resolution)
	case *models.Project:
		v.Status, v.CompletedAt = repairCompletion(v.Status, v.Progress, v.CompletedAt, v.UpdatedAt, resolution)
	}
}

func repairCompletion(status models.WorkStatus, progress int, completedAt *time.Time, updatedAt time.Time, resolution *Resolution) (models.WorkStatus, *time.Time) {
	switch {
	case progress >= 100 && status != models.WorkStatusCompleted:
		stamp := updatedAt
		resolution.Log = append(resolution.Log, Decision{
			Field:    "status",
			Strategy: models.StrategyInvariant,
			Winner:   "merged",
		})
		return models.WorkStatusCompleted, &stamp
	case progress < 100 && status == models.WorkStatusCompleted:
		resolution.Log = append(resolution.Log, Decision{
			Field:    "status",
			Strategy: models.StrategyInvariant,
			Winner:   "merged",
		})
		return models.WorkStatusInProgress, nil
	default:
		return status, completedAt
	}
}
