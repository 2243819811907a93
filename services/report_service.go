package services

import (
	"fmt"
	"time"

	"github.com/rafael-ortega/garage-flow-api/models"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var workOrderReportHeaders = []string{
	"Work Order", "Invoice", "Stage", "Position", "Status", "Technician",
	"Estimated Hours", "Actual Hours", "Started", "Finished", "Reverted", "Affected",
}

// GenerateWorkOrderReport builds an Excel workbook with one row per stage
// across all work orders: assignment, status, estimated vs. actual hours.
// Actual hours are summed over the stage's closed time logs.
func GenerateWorkOrderReport(db *gorm.DB) ([]byte, error) {
	var workOrders []models.WorkOrder
	err := db.Preload("Stages", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position asc")
	}).Preload("Stages.AssignedTechnician").
		Order("id asc").
		Find(&workOrders).Error
	if err != nil {
		return nil, fmt.Errorf("fetch work orders: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Work Orders"
	f.SetSheetName("Sheet1", sheet)

	// Bold header with a light fill
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})

	for i, name := range workOrderReportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, name)
	}
	lastCol, _ := excelize.CoordinatesToCellName(len(workOrderReportHeaders), 1)
	f.SetCellStyle(sheet, "A1", lastCol, headerStyle)

	rowNum := 2
	for _, wo := range workOrders {
		for _, stage := range wo.Stages {
			actualHours, err := stageActualHours(db, stage.ID)
			if err != nil {
				return nil, fmt.Errorf("sum time logs for stage %d: %w", stage.ID, err)
			}

			technicianName := ""
			if stage.AssignedTechnician != nil {
				technicianName = stage.AssignedTechnician.Name
			}

			f.SetCellValue(sheet, cellName(1, rowNum), wo.ID)
			f.SetCellValue(sheet, cellName(2, rowNum), wo.InvoiceID)
			f.SetCellValue(sheet, cellName(3, rowNum), stage.Name)
			f.SetCellValue(sheet, cellName(4, rowNum), stage.Position)
			f.SetCellValue(sheet, cellName(5, rowNum), stage.Status)
			f.SetCellValue(sheet, cellName(6, rowNum), technicianName)
			if stage.EstimatedHours != nil {
				f.SetCellValue(sheet, cellName(7, rowNum), *stage.EstimatedHours)
			}
			f.SetCellValue(sheet, cellName(8, rowNum), actualHours)
			if stage.StartTime != nil {
				f.SetCellValue(sheet, cellName(9, rowNum), stage.StartTime.Format(time.RFC3339))
			}
			if stage.EndTime != nil {
				f.SetCellValue(sheet, cellName(10, rowNum), stage.EndTime.Format(time.RFC3339))
			}
			f.SetCellValue(sheet, cellName(11, rowNum), stage.WasReverted)
			f.SetCellValue(sheet, cellName(12, rowNum), stage.AffectedByRevert)
			rowNum++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// stageActualHours sums the closed start->end intervals logged for a stage
func stageActualHours(db *gorm.DB, stageID uint) (float64, error) {
	var logs []models.StageTimeLog
	err := db.Where("stage_id = ? AND end_time IS NOT NULL", stageID).Find(&logs).Error
	if err != nil {
		return 0, err
	}

	var total float64
	for _, l := range logs {
		total += l.EndTime.Sub(l.StartTime).Hours()
	}
	return total, nil
}

func cellName(col, row int) string {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	return cell
}
