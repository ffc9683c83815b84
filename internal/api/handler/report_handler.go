package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fleetify/report-service/internal/api/dto"
	"github.com/fleetify/report-service/internal/domain"
	"github.com/fleetify/report-service/internal/render"
)

const dateLayout = "2006-01-02"

// RequestReport handles POST /api/reports/request/:report_type
// Queues an asynchronous report generation job and returns its id for polling.
func (h *ReportHandler) RequestReport(c *gin.Context) {
	reportType := c.Param("report_type")

	h.logger.Info("Received async report request",
		slog.String("report_type", reportType),
	)

	var req dto.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	if err := validateDates(req.StartDate, req.EndDate); err != nil {
		h.logger.Error("Invalid date range", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	credential := c.GetHeader("Authorization")

	job, err := h.jobs.Submit(c.Request.Context(), reportType, req.Parameters(), credential)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownReportType) {
			c.JSON(http.StatusBadRequest, dto.ReportJobResponse{
				Status:  "ERROR",
				Message: "Unknown report type: " + reportType,
			})
			return
		}
		h.logger.Error("Failed to queue report job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to queue report job",
		})
		return
	}

	c.JSON(http.StatusAccepted, dto.FromJob(job))
}

// GetReportStatus handles GET /api/reports/status/:job_id
func (h *ReportHandler) GetReportStatus(c *gin.Context) {
	jobID := c.Param("job_id")

	h.logger.Info("Checking report status",
		slog.String("job_id", jobID),
	)

	job, err := h.jobs.Status(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, dto.NotFound(jobID))
			return
		}
		h.logger.Error("Failed to get job status", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job status",
		})
		return
	}

	c.JSON(http.StatusOK, dto.FromJob(job))
}

// DownloadReport handles GET /api/reports/download/:job_id
// Streams the rendered document once the job has completed.
func (h *ReportHandler) DownloadReport(c *gin.Context) {
	jobID := c.Param("job_id")

	h.logger.Info("Download request",
		slog.String("job_id", jobID),
	)

	content, filename, err := h.jobs.Download(c.Request.Context(), jobID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrJobNotFound),
			errors.Is(err, domain.ErrReportNotReady),
			errors.Is(err, domain.ErrResultNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Report not ready or not found",
			})
		case errors.Is(err, domain.ErrEmptyDocument):
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Report content is empty",
			})
		default:
			h.logger.Error("Failed to fetch report result", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to fetch report result",
			})
		}
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, render.ContentType, content)
}

// GenerateFleetSummary handles POST /api/reports/fleet-summary
func (h *ReportHandler) GenerateFleetSummary(c *gin.Context) {
	h.generateSync(c, domain.ReportFleetSummary)
}

// GenerateVehicleUtilization handles POST /api/reports/vehicle-utilization
func (h *ReportHandler) GenerateVehicleUtilization(c *gin.Context) {
	h.generateSync(c, domain.ReportVehicleUtilization)
}

// GenerateCostAnalysis handles POST /api/reports/cost-analysis
func (h *ReportHandler) GenerateCostAnalysis(c *gin.Context) {
	h.generateSync(c, domain.ReportCostAnalysis)
}

// GenerateTrips handles POST /api/reports/trips
func (h *ReportHandler) GenerateTrips(c *gin.Context) {
	h.generateSync(c, domain.ReportTrips)
}

// generateSync renders a report inline and returns it as an attachment.
// Legacy path predating the job queue; kept for direct integrations.
func (h *ReportHandler) generateSync(c *gin.Context, reportType domain.ReportType) {
	h.logger.Info("Generating report synchronously",
		slog.String("report_type", string(reportType)),
	)

	var req dto.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	if err := validateDates(req.StartDate, req.EndDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	content, err := h.renderer.Render(c.Request.Context(), reportType, req.Parameters(), c.GetHeader("Authorization"))
	if err != nil {
		h.logger.Error("Failed to generate report",
			slog.String("report_type", string(reportType)),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate report",
		})
		return
	}

	filename := fmt.Sprintf("%s-%s.xlsx", reportType, time.Now().Format(dateLayout))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, render.ContentType, content)
}

func validateDates(start, end string) error {
	startDate, err := time.Parse(dateLayout, start)
	if err != nil {
		return fmt.Errorf("start_date must be formatted as %s", dateLayout)
	}
	endDate, err := time.Parse(dateLayout, end)
	if err != nil {
		return fmt.Errorf("end_date must be formatted as %s", dateLayout)
	}
	if endDate.Before(startDate) {
		return fmt.Errorf("end_date must not be before start_date")
	}
	return nil
}
