package models

import (
	"time"

	"gorm.io/gorm"
)

// Stage statuses. Exactly one holds at any time; the revert flags below
// are orthogonal to the status.
const (
	StageStatusNotStarted = "not_started"
	StageStatusInProgress = "in_progress"
	StageStatusPaused     = "paused"
	StageStatusCompleted  = "completed"
)

// Stage is one ordered step of a work order's repair workflow.
// StartTime/EndTime/EstimatedHours are a denormalized "latest" view of the
// stage's time logs; the logs themselves are the audit trail.
type Stage struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	WorkOrderID uint   `gorm:"not null;index" json:"work_order_id"`
	Name        string `gorm:"not null" json:"name"`
	Position    int    `gorm:"not null" json:"position"`
	Status      string `gorm:"not null;default:'not_started'" json:"status"`

	StartTime      *time.Time `json:"start_time"`
	EndTime        *time.Time `json:"end_time"`
	EstimatedHours *float64   `json:"estimated_hours"`
	CompletionNote *string    `gorm:"type:text" json:"completion_note,omitempty"`

	AssignedTechnicianID *uint `gorm:"index" json:"assigned_technician_id"`
	AssignedTechnician   *User `gorm:"foreignKey:AssignedTechnicianID" json:"assigned_technician,omitempty"`

	// Revert flags. WasReverted freezes the revert event (reason, actor,
	// time, optional photo); AffectedByRevert marks a preceding stage whose
	// finished work may need redoing; NoNeedToRedo is the human override
	// clearing AffectedByRevert without repeating the work.
	WasReverted      bool       `gorm:"not null;default:false" json:"was_reverted"`
	RevertReason     *string    `gorm:"type:text" json:"revert_reason,omitempty"`
	RevertedByID     *uint      `gorm:"index" json:"reverted_by_id,omitempty"`
	RevertedBy       *User      `gorm:"foreignKey:RevertedByID" json:"reverted_by,omitempty"`
	RevertDate       *time.Time `json:"revert_date,omitempty"`
	RevertImageS3Key *string    `json:"revert_image_s3_key,omitempty"`
	RevertImageURL   *string    `gorm:"-" json:"revert_image_url,omitempty"` // computed field, presigned URL

	AffectedByRevert  bool       `gorm:"not null;default:false" json:"affected_by_revert"`
	NoNeedToRedo      bool       `gorm:"not null;default:false" json:"no_need_to_redo"`
	NoNeedToRedoNotes *string    `gorm:"type:text" json:"no_need_to_redo_notes,omitempty"`
	NoNeedToRedoByID  *uint      `gorm:"index" json:"no_need_to_redo_by_id,omitempty"`
	NoNeedToRedoAt    *time.Time `json:"no_need_to_redo_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Stage model
func (Stage) TableName() string {
	return "stages"
}

// StageTimeLog is one start->end interval of work on a stage. Pause/resume
// opens a new log rather than mutating the old one, so a stage accumulates
// one log per run. EndTime is null while the run is open.
type StageTimeLog struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	StageID        uint           `gorm:"not null;index" json:"stage_id"`
	TechnicianID   uint           `gorm:"not null;index" json:"technician_id"`
	Technician     User           `gorm:"foreignKey:TechnicianID" json:"technician"`
	StartTime      time.Time      `gorm:"not null" json:"start_time"`
	EndTime        *time.Time     `json:"end_time"`
	Notes          string         `gorm:"type:text" json:"notes"`
	EstimatedHours float64        `gorm:"not null" json:"estimated_hours"` // captured at start time
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the StageTimeLog model
func (StageTimeLog) TableName() string {
	return "stage_time_logs"
}
