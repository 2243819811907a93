package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rafael-ortega/garage-flow-api/models"
	"gorm.io/gorm"
)

// StartMode selects how a start request treats a busy technician.
type StartMode string

const (
	// StartStrict rejects the start with a TechnicianBusyError so the caller
	// can surface the busy task and re-prompt for queue or preempt.
	StartStrict StartMode = "strict"
	// StartQueue starts the stage without touching the technician's current
	// task; the double assignment is a deliberate operator decision.
	StartQueue StartMode = "queue"
	// StartPreempt pauses the technician's current in-progress stages before
	// starting the new one.
	StartPreempt StartMode = "preempt"
)

var (
	ErrStageNotFound         = errors.New("stage not found")
	ErrTechnicianNotFound    = errors.New("technician not found or not an active technician")
	ErrRevertReasonRequired  = errors.New("revert reason must not be empty")
	ErrJustificationRequired = errors.New("justification notes must not be empty")
	ErrNotAffectedByRevert   = errors.New("stage is not flagged as affected by a revert")
)

// InvalidTransitionError is returned when an action is not legal from the
// stage's current status. It is a conflict: the caller should refresh
// authoritative state and re-prompt rather than assume success.
type InvalidTransitionError struct {
	Action string
	Status string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a stage in status %q", e.Action, e.Status)
}

// TechnicianBusyError is returned by a strict start when the chosen
// technician already has in-progress work. It carries the busy tasks
// (elapsed + remaining) so the operator can decide queue vs. preempt.
type TechnicianBusyError struct {
	TechnicianID uint
	Tasks        []CurrentTask
}

func (e *TechnicianBusyError) Error() string {
	return fmt.Sprintf("technician %d is busy with %d task(s)", e.TechnicianID, len(e.Tasks))
}

// StartStage transitions a stage from NotStarted or Paused to InProgress,
// opening a new time log for the run. The technician must be an active user
// with the technician role; estimatedHours is the duration budget for this
// run and is captured on both the log and the stage.
func StartStage(db *gorm.DB, stageID, technicianID uint, estimatedHours float64, note string, mode StartMode, now time.Time) (*models.Stage, error) {
	var stage models.Stage

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := lockStage(tx, stageID, &stage); err != nil {
			return err
		}

		if stage.Status != models.StageStatusNotStarted && stage.Status != models.StageStatusPaused {
			return &InvalidTransitionError{Action: "start", Status: stage.Status}
		}

		var technician models.User
		err := tx.Where("id = ? AND role = ? AND active = ?", technicianID, models.RoleTechnician, true).
			First(&technician).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTechnicianNotFound
			}
			return err
		}

		busyTasks, err := CurrentTasksForTechnician(tx, technicianID, now)
		if err != nil {
			return err
		}

		if len(busyTasks) > 0 {
			switch mode {
			case StartStrict:
				return &TechnicianBusyError{TechnicianID: technicianID, Tasks: busyTasks}
			case StartQueue:
				// Informational only: the busy task keeps running.
			case StartPreempt:
				for _, task := range busyTasks {
					if err := pauseStageTx(tx, task.StageID, now); err != nil {
						return err
					}
				}
			}
		}

		timeLog := models.StageTimeLog{
			StageID:        stage.ID,
			TechnicianID:   technicianID,
			StartTime:      now,
			Notes:          note,
			EstimatedHours: estimatedHours,
		}
		if err := tx.Create(&timeLog).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"status":                 models.StageStatusInProgress,
			"assigned_technician_id": technicianID,
			"estimated_hours":        estimatedHours,
		}
		if stage.StartTime == nil {
			updates["start_time"] = now
		}
		return tx.Model(&stage).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	return reloadStage(db, stageID)
}

// PauseStage transitions an in-progress stage to Paused, closing the open
// time log. The technician assignment is unchanged.
func PauseStage(db *gorm.DB, stageID uint, now time.Time) (*models.Stage, error) {
	err := db.Transaction(func(tx *gorm.DB) error {
		var stage models.Stage
		if err := lockStage(tx, stageID, &stage); err != nil {
			return err
		}
		if stage.Status != models.StageStatusInProgress {
			return &InvalidTransitionError{Action: "pause", Status: stage.Status}
		}
		return pauseStageTx(tx, stageID, now)
	})
	if err != nil {
		return nil, err
	}

	return reloadStage(db, stageID)
}

// CompleteStage transitions an in-progress stage to Completed, closing the
// open time log and freezing the stage's end time. Terminal for normal flow;
// re-entry is only via RevertStage.
func CompleteStage(db *gorm.DB, stageID uint, note string, now time.Time) (*models.Stage, error) {
	err := db.Transaction(func(tx *gorm.DB) error {
		var stage models.Stage
		if err := lockStage(tx, stageID, &stage); err != nil {
			return err
		}
		if stage.Status != models.StageStatusInProgress {
			return &InvalidTransitionError{Action: "complete", Status: stage.Status}
		}

		if err := closeOpenTimeLog(tx, stageID, now); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"status":   models.StageStatusCompleted,
			"end_time": now,
		}
		if strings.TrimSpace(note) != "" {
			updates["completion_note"] = note
		}
		if err := tx.Model(&stage).Updates(updates).Error; err != nil {
			return err
		}

		return refreshWorkOrderStatus(tx, stage.WorkOrderID, now)
	})
	if err != nil {
		return nil, err
	}

	return reloadStage(db, stageID)
}

// RevertStage resets a stage's execution progress back to a NotStarted
// equivalent and freezes the revert event (reason, actor, time, optional
// image). Every stage preceding the reverted one in workflow order is marked
// affected_by_revert, since its finished work may now need redoing.
func RevertStage(db *gorm.DB, stageID uint, reason string, actorID uint, imageS3Key *string, now time.Time) (*models.Stage, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrRevertReasonRequired
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var stage models.Stage
		if err := lockStage(tx, stageID, &stage); err != nil {
			return err
		}

		// A stage that never ran has nothing to revert.
		if stage.Status == models.StageStatusNotStarted && !stage.WasReverted && stage.StartTime == nil {
			return &InvalidTransitionError{Action: "revert", Status: stage.Status}
		}

		if err := closeOpenTimeLog(tx, stageID, now); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"status":                 models.StageStatusNotStarted,
			"start_time":             nil,
			"end_time":               nil,
			"estimated_hours":        nil,
			"assigned_technician_id": nil,
			"completion_note":        nil,
			"was_reverted":           true,
			"revert_reason":          reason,
			"reverted_by_id":         actorID,
			"revert_date":            now,
		}
		if imageS3Key != nil {
			updates["revert_image_s3_key"] = *imageS3Key
		}
		if err := tx.Model(&stage).Updates(updates).Error; err != nil {
			return err
		}

		// Flag preceding stages. A fresh revert supersedes any earlier
		// no-need-to-redo clearance: the stage must be cleared again.
		err := tx.Model(&models.Stage{}).
			Where("work_order_id = ? AND position < ?", stage.WorkOrderID, stage.Position).
			Updates(map[string]interface{}{
				"affected_by_revert": true,
				"no_need_to_redo":    false,
			}).Error
		if err != nil {
			return err
		}

		return refreshWorkOrderStatus(tx, stage.WorkOrderID, now)
	})
	if err != nil {
		return nil, err
	}

	return reloadStage(db, stageID)
}

// MarkNoNeedToRedo clears the affected_by_revert flag on a stage without
// redoing its work, recording who decided so and why. The stage's status is
// untouched.
func MarkNoNeedToRedo(db *gorm.DB, stageID uint, notes string, actorID uint, now time.Time) (*models.Stage, error) {
	if strings.TrimSpace(notes) == "" {
		return nil, ErrJustificationRequired
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var stage models.Stage
		if err := lockStage(tx, stageID, &stage); err != nil {
			return err
		}
		if !stage.AffectedByRevert {
			return ErrNotAffectedByRevert
		}

		return tx.Model(&stage).Updates(map[string]interface{}{
			"affected_by_revert":    false,
			"no_need_to_redo":       true,
			"no_need_to_redo_notes": notes,
			"no_need_to_redo_by_id": actorID,
			"no_need_to_redo_at":    now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return reloadStage(db, stageID)
}

// lockStage loads a stage by id inside a transaction, translating a missing
// row into ErrStageNotFound.
func lockStage(tx *gorm.DB, stageID uint, stage *models.Stage) error {
	if err := tx.First(stage, stageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStageNotFound
		}
		return err
	}
	return nil
}

// pauseStageTx closes the stage's open time log and sets the status to
// Paused. Callers must have verified the stage is in progress.
func pauseStageTx(tx *gorm.DB, stageID uint, now time.Time) error {
	if err := closeOpenTimeLog(tx, stageID, now); err != nil {
		return err
	}
	return tx.Model(&models.Stage{}).
		Where("id = ?", stageID).
		Update("status", models.StageStatusPaused).Error
}

// closeOpenTimeLog sets end_time on the most recently opened log that is
// still running. A stage with no open log is left alone.
func closeOpenTimeLog(tx *gorm.DB, stageID uint, now time.Time) error {
	var openLog models.StageTimeLog
	err := tx.Where("stage_id = ? AND end_time IS NULL", stageID).
		Order("start_time desc").
		First(&openLog).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return tx.Model(&openLog).Update("end_time", now).Error
}

// refreshWorkOrderStatus marks the work order completed when every stage is
// completed and reopens it otherwise (a revert can undo completion).
func refreshWorkOrderStatus(tx *gorm.DB, workOrderID uint, now time.Time) error {
	var remaining int64
	err := tx.Model(&models.Stage{}).
		Where("work_order_id = ? AND status <> ?", workOrderID, models.StageStatusCompleted).
		Count(&remaining).Error
	if err != nil {
		return err
	}

	if remaining == 0 {
		return tx.Model(&models.WorkOrder{}).
			Where("id = ?", workOrderID).
			Updates(map[string]interface{}{
				"status":       models.WorkOrderStatusCompleted,
				"completed_at": now,
			}).Error
	}

	return tx.Model(&models.WorkOrder{}).
		Where("id = ?", workOrderID).
		Updates(map[string]interface{}{
			"status":       models.WorkOrderStatusOpen,
			"completed_at": nil,
		}).Error
}

// reloadStage fetches a stage with its technician relationship loaded,
// for returning complete data after a transition.
func reloadStage(db *gorm.DB, stageID uint) (*models.Stage, error) {
	var stage models.Stage
	err := db.Preload("AssignedTechnician").
		Preload("RevertedBy").
		First(&stage, stageID).Error
	if err != nil {
		return nil, err
	}
	return &stage, nil
}
