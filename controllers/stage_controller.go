package controllers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rafael-ortega/garage-flow-api/config"
	"github.com/rafael-ortega/garage-flow-api/models"
	"github.com/rafael-ortega/garage-flow-api/services"
)

// StageActionRequest is the request body for start, queue and
// pause-and-start. The estimate is either given directly in hours, as one of
// the preset minute choices, or as a custom hours/minutes pair (clamped to
// 0-12h / 0-59m, never rejected).
type StageActionRequest struct {
	TechnicianID   uint     `json:"technician_id" binding:"required"`
	Note           string   `json:"note"`
	EstimatedHours *float64 `json:"estimated_hours"`
	PresetMinutes  *int     `json:"preset_minutes"`
	CustomHours    *int     `json:"custom_hours"`
	CustomMinutes  *int     `json:"custom_minutes"`
}

// CompleteStageRequest is the request body for completing a stage
type CompleteStageRequest struct {
	Note string `json:"note"`
}

// NoNeedToRedoRequest is the request body for clearing an affected stage
type NoNeedToRedoRequest struct {
	Notes string `json:"notes" binding:"required"`
}

// RevertStageRequest is the JSON request body for reverting a stage.
// Multipart requests carry the same fields as form values plus an optional
// "image" file.
type RevertStageRequest struct {
	RevertReasonID *uint  `json:"revert_reason_id"`
	RevertReason   string `json:"revert_reason"`
}

// resolveEstimatedHours turns the request's duration choice into the
// canonical estimated-hours value
func resolveEstimatedHours(req *StageActionRequest) (float64, bool) {
	if req.EstimatedHours != nil {
		if *req.EstimatedHours < 0 {
			return 0, false
		}
		return *req.EstimatedHours, true
	}
	if req.PresetMinutes != nil {
		if !services.IsPresetDuration(*req.PresetMinutes) {
			return 0, false
		}
		return services.EstimatedHoursFromPreset(*req.PresetMinutes), true
	}
	if req.CustomHours != nil || req.CustomMinutes != nil {
		hours, minutes := 0, 0
		if req.CustomHours != nil {
			hours = *req.CustomHours
		}
		if req.CustomMinutes != nil {
			minutes = *req.CustomMinutes
		}
		return services.EstimatedHoursFromCustom(hours, minutes), true
	}
	return 0, false
}

// StartStage handles POST /api/v1/stages/:id/start - starts or resumes a
// stage. Rejected with TECHNICIAN_BUSY when the technician already has
// in-progress work, so the client can offer queue vs. pause-and-start.
func StartStage(c *gin.Context) {
	handleStartAction(c, services.StartStrict)
}

// QueueStage handles POST /api/v1/stages/:id/queue - starts a stage for a
// busy technician without preempting their current task
func QueueStage(c *gin.Context) {
	handleStartAction(c, services.StartQueue)
}

// PauseAndStartStage handles POST /api/v1/stages/:id/pause-and-start -
// pauses the technician's current task, then starts this stage
func PauseAndStartStage(c *gin.Context) {
	handleStartAction(c, services.StartPreempt)
}

func handleStartAction(c *gin.Context, mode services.StartMode) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	stage, ok := findStage(c)
	if !ok {
		return
	}

	var req StageActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	estimatedHours, ok := resolveEstimatedHours(&req)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_ESTIMATE",
				"message": "A preset duration, custom duration or estimated_hours value is required",
			},
		})
		return
	}

	db := config.GetDB()
	updated, err := services.StartStage(db, stage.ID, req.TechnicianID, estimatedHours, req.Note, mode, time.Now())
	if err != nil {
		respondStageServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stageView(updated, time.Now()),
	})
}

// PauseStage handles POST /api/v1/stages/:id/pause
func PauseStage(c *gin.Context) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	stage, ok := findStage(c)
	if !ok {
		return
	}

	db := config.GetDB()
	updated, err := services.PauseStage(db, stage.ID, time.Now())
	if err != nil {
		respondStageServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stageView(updated, time.Now()),
	})
}

// CompleteStage handles POST /api/v1/stages/:id/complete
func CompleteStage(c *gin.Context) {
	if _, ok := getCurrentUser(c); !ok {
		return
	}

	stage, ok := findStage(c)
	if !ok {
		return
	}

	var req CompleteStageRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	db := config.GetDB()
	updated, err := services.CompleteStage(db, stage.ID, req.Note, time.Now())
	if err != nil {
		respondStageServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stageView(updated, time.Now()),
	})
}

// RevertStage handles POST /api/v1/stages/:id/revert - resets a stage's
// execution progress, recording why, by whom, and an optional photo.
// Accepts JSON or multipart form (the latter for the image attachment).
func RevertStage(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}

	stage, ok := findStage(c)
	if !ok {
		return
	}

	var reasonID *uint
	var reasonText string
	var imageS3Key *string

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if idStr := c.PostForm("revert_reason_id"); idStr != "" {
			var id uint
			if _, err := fmt.Sscanf(idStr, "%d", &id); err == nil {
				reasonID = &id
			}
		}
		reasonText = c.PostForm("revert_reason")

		if fileHeader, err := c.FormFile("image"); err == nil {
			imageService := services.GetImageService()
			key, uploadErr := imageService.UploadImage(fileHeader)
			if uploadErr != nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "IMAGE_UPLOAD_FAILED",
						"message": uploadErr.Error(),
					},
				})
				return
			}
			imageS3Key = &key
		}
	} else {
		var req RevertStageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Invalid request data",
					"details": err.Error(),
				},
			})
			return
		}
		reasonID = req.RevertReasonID
		reasonText = req.RevertReason
	}

	db := config.GetDB()

	// A predefined reason id is resolved to its label; the stored value is
	// always the resolved text.
	if reasonID != nil {
		var reason models.RevertReason
		if err := db.Where("id = ? AND active = ?", *reasonID, true).First(&reason).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "REVERT_REASON_NOT_FOUND",
					"message": "Revert reason not found",
				},
			})
			return
		}
		reasonText = reason.Label
	}

	if strings.TrimSpace(reasonText) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_REVERT_REASON",
				"message": "A revert reason is required",
			},
		})
		return
	}

	updated, err := services.RevertStage(db, stage.ID, reasonText, user.ID, imageS3Key, time.Now())
	if err != nil {
		respondStageServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stageView(updated, time.Now()),
	})
}

// NoNeedToRedoStage handles POST /api/v1/stages/:id/no-need-to-redo -
// clears the affected-by-revert flag without redoing the stage's work
func NoNeedToRedoStage(c *gin.Context) {
	user, ok := getCurrentUser(c)
	if !ok {
		return
	}

	stage, ok := findStage(c)
	if !ok {
		return
	}

	var req NoNeedToRedoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_JUSTIFICATION",
				"message": "Justification notes are required",
				"details": err.Error(),
			},
		})
		return
	}

	db := config.GetDB()
	updated, err := services.MarkNoNeedToRedo(db, stage.ID, req.Notes, user.ID, time.Now())
	if err != nil {
		respondStageServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stageView(updated, time.Now()),
	})
}

// GetStage handles GET /api/v1/stages/:id - returns the stage with its
// elapsed/countdown projections and a presigned revert photo URL
func GetStage(c *gin.Context) {
	stage, ok := findStage(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var full models.Stage
	err := db.Preload("AssignedTechnician").Preload("RevertedBy").First(&full, stage.ID).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load stage details",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stageView(&full, time.Now()),
	})
}

// GetStageTimeLogs handles GET /api/v1/stages/:id/time-logs - returns the
// stage's full append-only time log history
func GetStageTimeLogs(c *gin.Context) {
	stage, ok := findStage(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var logs []models.StageTimeLog
	err := db.Preload("Technician").
		Where("stage_id = ?", stage.ID).
		Order("start_time asc").
		Find(&logs).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load time logs",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    logs,
	})
}

// findStage loads the stage addressed by the :id URL parameter. On failure
// it writes the error response and returns false.
func findStage(c *gin.Context) (*models.Stage, bool) {
	stageID := c.Param("id")
	if stageID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Stage ID is required",
			},
		})
		return nil, false
	}

	db := config.GetDB()
	var stage models.Stage
	if err := db.First(&stage, stageID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STAGE_NOT_FOUND",
				"message": "Stage not found",
			},
		})
		return nil, false
	}

	return &stage, true
}

// stageView decorates a stage with its read-only projections: the ticking
// elapsed display, the countdown against the estimate, and a presigned URL
// for the revert photo if one exists.
func stageView(stage *models.Stage, now time.Time) gin.H {
	elapsedSeconds, ticking := services.ElapsedSeconds(stage.StartTime, stage.EndTime, now)

	view := gin.H{
		"stage":           stage,
		"elapsed_display": services.ElapsedDisplay(stage.StartTime, stage.EndTime, now),
		"elapsed_seconds": elapsedSeconds,
		"ticking":         ticking,
	}

	if stage.EstimatedHours != nil {
		view["countdown_display"] = services.CountdownDisplay(stage.Status, *stage.EstimatedHours, stage.StartTime, now)
		view["countdown_seconds"] = services.CountdownSeconds(stage.Status, *stage.EstimatedHours, stage.StartTime, now)
	}

	if stage.RevertImageS3Key != nil {
		if imageService := services.GetImageService(); imageService != nil {
			url, err := imageService.GetImageURL(*stage.RevertImageS3Key)
			if err != nil {
				log.Printf("Failed to generate revert image URL for stage %d: %v", stage.ID, err)
			} else if url != "" {
				stage.RevertImageURL = &url
			}
		}
	}

	return view
}

// respondStageServiceError maps stage service errors onto the API's error
// envelope. Conflicts are retryable: the response carries enough state for
// the client to refresh and re-prompt.
func respondStageServiceError(c *gin.Context, err error) {
	var busy *services.TechnicianBusyError
	var invalid *services.InvalidTransitionError

	switch {
	case errors.Is(err, services.ErrStageNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STAGE_NOT_FOUND",
				"message": "Stage not found",
			},
		})
	case errors.Is(err, services.ErrTechnicianNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "TECHNICIAN_NOT_FOUND",
				"message": "Technician not found or not an active technician",
			},
		})
	case errors.Is(err, services.ErrRevertReasonRequired):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_REVERT_REASON",
				"message": "A revert reason is required",
			},
		})
	case errors.Is(err, services.ErrJustificationRequired):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_JUSTIFICATION",
				"message": "Justification notes are required",
			},
		})
	case errors.Is(err, services.ErrNotAffectedByRevert):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_AFFECTED_BY_REVERT",
				"message": "Stage is not flagged as affected by a revert",
			},
		})
	case errors.As(err, &busy):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":          "TECHNICIAN_BUSY",
				"message":       "Technician already has work in progress; choose queue or pause-and-start",
				"current_tasks": busy.Tasks,
			},
		})
	case errors.As(err, &invalid):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":           "INVALID_TRANSITION",
				"message":        invalid.Error(),
				"current_status": invalid.Status,
			},
		})
	default:
		log.Printf("Stage action failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to apply stage action",
			},
		})
	}
}
