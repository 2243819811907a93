package services

import (
	"time"

	"github.com/rafael-ortega/garage-flow-api/models"
	"gorm.io/gorm"
)

// CurrentTask describes one in-progress stage assigned to a technician,
// with time figures recomputed against wall clock at resolution time.
type CurrentTask struct {
	StageID        uint       `json:"stage_id"`
	WorkOrderID    uint       `json:"work_order_id"`
	StageName      string     `json:"stage_name"`
	StartedAt      time.Time  `json:"started_at"`
	ElapsedSeconds int64      `json:"elapsed_seconds"`
	EstimatedHours *float64   `json:"estimated_hours"`
	// RemainingSeconds is max(0, estimate - elapsed). Null when the stage has
	// no estimate; that is an upstream data problem and is flagged instead of
	// masked with a default.
	RemainingSeconds *int64 `json:"remaining_seconds"`
	EstimateMissing  bool   `json:"estimate_missing"`
}

// TechnicianAvailability is the derived availability view for one technician:
// free iff they have no in-progress stage assignments.
type TechnicianAvailability struct {
	Technician   models.User   `json:"technician"`
	Available    bool          `json:"available"`
	CurrentTasks []CurrentTask `json:"current_tasks"`
}

// CurrentTasksForTechnician returns every in-progress stage assigned to the
// technician. A well-formed system has zero or one, but the list shape is
// kept so an inconsistent state is reported rather than hidden.
func CurrentTasksForTechnician(db *gorm.DB, technicianID uint, now time.Time) ([]CurrentTask, error) {
	var stages []models.Stage
	err := db.Where("assigned_technician_id = ? AND status = ?", technicianID, models.StageStatusInProgress).
		Order("start_time asc").
		Find(&stages).Error
	if err != nil {
		return nil, err
	}

	tasks := make([]CurrentTask, 0, len(stages))
	for _, stage := range stages {
		startedAt := now
		if stage.StartTime != nil {
			startedAt = *stage.StartTime
		}

		// Elapsed is measured from the open time log when one exists; the
		// stage's own start_time is the first-start timestamp, not the
		// current run's.
		var openLog models.StageTimeLog
		logErr := db.Where("stage_id = ? AND end_time IS NULL", stage.ID).
			Order("start_time desc").
			First(&openLog).Error
		if logErr == nil {
			startedAt = openLog.StartTime
		}

		elapsed := int64(now.Sub(startedAt).Seconds())
		task := CurrentTask{
			StageID:        stage.ID,
			WorkOrderID:    stage.WorkOrderID,
			StageName:      stage.Name,
			StartedAt:      startedAt,
			ElapsedSeconds: elapsed,
			EstimatedHours: stage.EstimatedHours,
		}

		if stage.EstimatedHours == nil {
			task.EstimateMissing = true
		} else {
			remaining := int64(*stage.EstimatedHours*3600) - elapsed
			if remaining < 0 {
				remaining = 0
			}
			task.RemainingSeconds = &remaining
		}

		tasks = append(tasks, task)
	}

	return tasks, nil
}

// ResolveTechnicianAvailability computes availability for every active
// technician. Values are recomputed on demand, never cached, so remaining
// times are always accurate relative to wall clock.
func ResolveTechnicianAvailability(db *gorm.DB, now time.Time) ([]TechnicianAvailability, error) {
	var technicians []models.User
	err := db.Where("role = ? AND active = ?", models.RoleTechnician, true).
		Order("name asc").
		Find(&technicians).Error
	if err != nil {
		return nil, err
	}

	result := make([]TechnicianAvailability, 0, len(technicians))
	for _, tech := range technicians {
		tasks, err := CurrentTasksForTechnician(db, tech.ID, now)
		if err != nil {
			return nil, err
		}
		result = append(result, TechnicianAvailability{
			Technician:   tech,
			Available:    len(tasks) == 0,
			CurrentTasks: tasks,
		})
	}

	return result, nil
}
