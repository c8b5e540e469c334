package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	portssvc "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/services"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/dto"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/middleware"
)

type backupHandler struct {
	backupService portssvc.BackupAdminSvc
}

// RegisterBackupRoutes registers the admin view of the snapshot queue.
func RegisterBackupRoutes(rg *gin.RouterGroup, backupService portssvc.BackupAdminSvc) {
	h := &backupHandler{backupService: backupService}

	backups := rg.Group("/backups", middleware.RequireRole(domain.RoleAdmin))
	{
		backups.GET("", h.listJobs)
		backups.POST("/:jobID/retry", h.retryJob)
	}
}

// listJobs godoc
// @Summary List backup jobs
// @Tags backups
// @Produce  json
// @Param   status query string false "pending, running, done or failed"
// @Param   limit query int false "Maximum number of jobs" default(50)
// @Success 200 {object} dto.ListBackupJobsResponse
// @Failure 400 {object} ErrorResponse "Invalid query parameters"
// @Failure 403 {object} ErrorResponse "Caller is not an admin"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /backups [get]
func (h *backupHandler) listJobs(c *gin.Context) {
	var params dto.ListBackupJobsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}

	var status *domain.BackupJobStatus
	if params.Status != "" {
		st, err := domain.ParseBackupJobStatus(params.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		status = &st
	}

	jobs, err := h.backupService.ListJobs(c.Request.Context(), status, params.Limit)
	if err != nil {
		respondError(c, err, "Failed to list backup jobs")
		return
	}
	resp := dto.ListBackupJobsResponse{Jobs: make([]dto.BackupJobResponse, 0, len(jobs))}
	for _, j := range jobs {
		resp.Jobs = append(resp.Jobs, dto.ToBackupJobResponse(j))
	}
	c.JSON(http.StatusOK, resp)
}

// retryJob godoc
// @Summary Retry a failed backup job
// @Tags backups
// @Produce  json
// @Param   jobID path string true "Backup job ID"
// @Success 200 {object} dto.BackupJobResponse
// @Failure 403 {object} ErrorResponse "Caller is not an admin"
// @Failure 404 {object} ErrorResponse "Job not found"
// @Failure 409 {object} ErrorResponse "Job has not failed"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /backups/{jobID}/retry [post]
func (h *backupHandler) retryJob(c *gin.Context) {
	jobID := c.Param("jobID")
	job, err := h.backupService.RetryJob(c.Request.Context(), jobID)
	if err != nil {
		respondError(c, err, "Failed to retry backup job")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Backup job requeued by admin", slog.String("job_id", jobID))
	c.JSON(http.StatusOK, dto.ToBackupJobResponse(*job))
}
