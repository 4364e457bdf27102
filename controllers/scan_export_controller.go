package controllers

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"
	"github.com/tealeg/xlsx"

	"github.com/stampflow/stampflow/config"
	"github.com/stampflow/stampflow/models"
	"github.com/stampflow/stampflow/utils"
)

type scanReportSummary struct {
	TotalScans       int
	TotalStamps      uint
	RewardsTriggered int
	ZeroStampScans   int
	CardsScanned     int
}

func scanReportWindow(period string, now time.Time) (time.Time, time.Time, bool) {
	switch period {
	case "day":
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 0, 1), true
	case "week":
		end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
		return end.AddDate(0, 0, -7), end, true
	case "month":
		end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
		return end.AddDate(0, 0, -30), end, true
	default:
		return time.Time{}, time.Time{}, false
	}
}

func fetchScanReport(merchantID uint, start, end time.Time) ([]models.ScanEvent, scanReportSummary, error) {
	var scans []models.ScanEvent
	err := config.DB.Model(&models.ScanEvent{}).
		Joins("JOIN card_instances ON card_instances.id = scan_events.card_instance_id").
		Joins("JOIN card_definitions ON card_definitions.id = card_instances.definition_id").
		Where("card_definitions.merchant_id = ? AND scan_events.happened_at >= ? AND scan_events.happened_at < ?",
			merchantID, start, end).
		Order("scan_events.happened_at DESC").
		Find(&scans).Error
	if err != nil {
		return nil, scanReportSummary{}, err
	}

	var summary scanReportSummary
	cardSet := make(map[uint]bool)
	for _, scan := range scans {
		summary.TotalScans++
		summary.TotalStamps += scan.StampsGranted
		if scan.RewardTriggered {
			summary.RewardsTriggered++
		}
		if scan.StampsGranted == 0 {
			summary.ZeroStampScans++
		}
		cardSet[scan.CardInstanceID] = true
	}
	summary.CardsScanned = len(cardSet)
	return scans, summary, nil
}

// DownloadScanReportExcel streams the merchant's scan ledger for a period as
// an Excel workbook.
func DownloadScanReportExcel(c *gin.Context) {
	utils.LogInfo("DownloadScanReportExcel called")

	merchant := c.MustGet("merchant").(models.Merchant)
	period := c.DefaultQuery("period", "day")
	utils.LogDebug("Generating Excel scan report for period: %s", period)

	startDate, endDate, ok := scanReportWindow(period, time.Now())
	if !ok {
		utils.LogError("Invalid period specified: %s", period)
		utils.BadRequest(c, "Invalid period", "Period must be day, week, or month")
		return
	}

	scans, summary, err := fetchScanReport(merchant.ID, startDate, endDate)
	if err != nil {
		utils.LogError("Failed to fetch scans: %v", err)
		utils.InternalServerError(c, "Failed to fetch scans", err.Error())
		return
	}
	utils.LogDebug("Retrieved %d scans for Excel report", len(scans))

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Scan Report")
	if err != nil {
		utils.LogError("Failed to create Excel sheet: %v", err)
		utils.InternalServerError(c, "Failed to create Excel sheet", err.Error())
		return
	}

	titleRow := sheet.AddRow()
	titleRow.AddCell().SetString(fmt.Sprintf("%s - Scan Report", strings.ToUpper(merchant.Name)))
	periodRow := sheet.AddRow()
	periodRow.AddCell().SetString("Period: " + strings.ToUpper(period) + " | " +
		startDate.Format("2006-01-02") + " to " + endDate.Format("2006-01-02"))
	sheet.AddRow() // spacing

	headers := []string{"Scan ID", "Card Instance", "Date", "Amount", "Stamps Granted", "Reward", "New Stage"}
	headerRow := sheet.AddRow()
	for _, h := range headers {
		cell := headerRow.AddCell()
		cell.SetString(h)
		style := xlsx.NewStyle()
		font := xlsx.DefaultFont()
		font.Bold = true
		style.Font = *font
		cell.SetStyle(style)
	}

	for _, scan := range scans {
		row := sheet.AddRow()
		row.AddCell().SetInt(int(scan.ID))
		row.AddCell().SetInt(int(scan.CardInstanceID))
		row.AddCell().SetString(scan.HappenedAt.Format("2006-01-02 15:04"))
		if scan.Amount != nil {
			row.AddCell().SetString(scan.Amount.StringFixed(2))
		} else {
			row.AddCell().SetString("-")
		}
		row.AddCell().SetInt(int(scan.StampsGranted))
		if scan.RewardTriggered {
			row.AddCell().SetString("yes")
		} else {
			row.AddCell().SetString("no")
		}
		row.AddCell().SetInt(int(scan.NewStage))
	}

	sheet.AddRow() // spacing
	summaryRow := sheet.AddRow()
	summaryRow.AddCell().SetString("Summary")
	addSummaryRow := func(label string, value int) {
		row := sheet.AddRow()
		row.AddCell().SetString(label)
		row.AddCell().SetInt(value)
	}
	addSummaryRow("Total Scans", summary.TotalScans)
	addSummaryRow("Total Stamps Granted", int(summary.TotalStamps))
	addSummaryRow("Rewards Triggered", summary.RewardsTriggered)
	addSummaryRow("Zero-Stamp Scans", summary.ZeroStampScans)
	addSummaryRow("Cards Scanned", summary.CardsScanned)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=scan_report_%s.xlsx", period))
	if err := file.Write(c.Writer); err != nil {
		utils.LogError("Failed to write Excel file: %v", err)
		utils.InternalServerError(c, "Failed to write Excel file", err.Error())
		return
	}
	utils.LogInfo("Successfully generated Excel scan report for period %s", period)
}

// DownloadScanReportPDF streams the merchant's scan ledger for a period as a
// PDF table.
func DownloadScanReportPDF(c *gin.Context) {
	utils.LogInfo("DownloadScanReportPDF called")

	merchant := c.MustGet("merchant").(models.Merchant)
	period := c.DefaultQuery("period", "day")
	utils.LogDebug("Generating PDF scan report for period: %s", period)

	startDate, endDate, ok := scanReportWindow(period, time.Now())
	if !ok {
		utils.LogError("Invalid period specified: %s", period)
		utils.BadRequest(c, "Invalid period", "Period must be day, week, or month")
		return
	}

	scans, summary, err := fetchScanReport(merchant.ID, startDate, endDate)
	if err != nil {
		utils.LogError("Failed to fetch scans: %v", err)
		utils.InternalServerError(c, "Failed to fetch scans", err.Error())
		return
	}
	utils.LogDebug("Retrieved %d scans for PDF report", len(scans))

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 20)
	pdf.Cell(0, 12, fmt.Sprintf("%s - Scan Report", strings.ToUpper(merchant.Name)))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, "Period: "+strings.ToUpper(period)+" | "+startDate.Format("2006-01-02")+" to "+endDate.Format("2006-01-02"))
	pdf.Ln(10)

	headers := []string{"Scan ID", "Card Instance", "Date", "Amount", "Stamps", "Reward", "New Stage"}
	colWidths := []float64{25, 30, 40, 30, 25, 25, 30}
	pdf.SetFont("Arial", "B", 11)
	for i, h := range headers {
		pdf.SetFillColor(200, 200, 200)
		pdf.CellFormat(colWidths[i], 9, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	fill := false
	for _, scan := range scans {
		pdf.SetFillColor(245, 245, 245)
		if fill {
			pdf.SetFillColor(230, 240, 255)
		}
		fill = !fill
		amount := "-"
		if scan.Amount != nil {
			amount = scan.Amount.StringFixed(2)
		}
		reward := "no"
		if scan.RewardTriggered {
			reward = "yes"
		}
		pdf.CellFormat(colWidths[0], 8, fmt.Sprintf("%d", scan.ID), "1", 0, "C", fill, 0, "")
		pdf.CellFormat(colWidths[1], 8, fmt.Sprintf("%d", scan.CardInstanceID), "1", 0, "C", fill, 0, "")
		pdf.CellFormat(colWidths[2], 8, scan.HappenedAt.Format("2006-01-02 15:04"), "1", 0, "C", fill, 0, "")
		pdf.CellFormat(colWidths[3], 8, amount, "1", 0, "R", fill, 0, "")
		pdf.CellFormat(colWidths[4], 8, fmt.Sprintf("%d", scan.StampsGranted), "1", 0, "C", fill, 0, "")
		pdf.CellFormat(colWidths[5], 8, reward, "1", 0, "C", fill, 0, "")
		pdf.CellFormat(colWidths[6], 8, fmt.Sprintf("%d", scan.NewStage), "1", 0, "C", fill, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(8)
	pdf.SetFont("Arial", "B", 13)
	pdf.SetFillColor(220, 230, 250)
	pdf.CellFormat(70, 10, "Summary", "1", 0, "C", true, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 11)
	pdf.SetFillColor(255, 255, 255)
	summaryRows := []struct {
		label string
		value int
	}{
		{"Total Scans", summary.TotalScans},
		{"Total Stamps Granted", int(summary.TotalStamps)},
		{"Rewards Triggered", summary.RewardsTriggered},
		{"Zero-Stamp Scans", summary.ZeroStampScans},
		{"Cards Scanned", summary.CardsScanned},
	}
	for _, row := range summaryRows {
		pdf.CellFormat(50, 8, row.label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 8, fmt.Sprintf("%d", row.value), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=scan_report_%s.pdf", period))
	if err := pdf.Output(c.Writer); err != nil {
		utils.LogError("Failed to write PDF file: %v", err)
		utils.InternalServerError(c, "Failed to write PDF file", err.Error())
		return
	}
	utils.LogInfo("Successfully generated PDF scan report for period %s", period)
}
