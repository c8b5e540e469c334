package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/domain"
	portssvc "github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/core/ports/services"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/dto"
	"github.com/qesthr/BukSU-Departmental-Memo-Automation-and-Tracking-System-sub000/internal/middleware"
)

// memoHandler handles HTTP requests for the mailbox and the review workflow.
type memoHandler struct {
	memoService     portssvc.MemoSvcFacade
	workflowService portssvc.WorkflowSvcFacade
}

func newMemoHandler(ms portssvc.MemoSvcFacade, ws portssvc.WorkflowSvcFacade) *memoHandler {
	registerValidators()
	return &memoHandler{memoService: ms, workflowService: ws}
}

// RegisterMemoRoutes registers memo and notification routes. The group must
// run AuthMiddleware and LoadCurrentUser.
func RegisterMemoRoutes(rg *gin.RouterGroup, memoService portssvc.MemoSvcFacade, workflowService portssvc.WorkflowSvcFacade) {
	h := newMemoHandler(memoService, workflowService)

	memos := rg.Group("/memos")
	{
		memos.GET("", h.listMemos)
		memos.POST("/submissions", middleware.RequireRole(domain.RoleSecretary), h.submitMemo)
		memos.GET("/:memoID", h.getMemo)
		memos.POST("/:memoID/approve", middleware.RequireRole(domain.RoleAdmin), h.approveMemo)
		memos.POST("/:memoID/reject", middleware.RequireRole(domain.RoleAdmin), h.rejectMemo)
		memos.POST("/:memoID/read", h.markRead)
		memos.POST("/:memoID/archive", h.archiveMemo)
		memos.DELETE("/:memoID", h.trashMemo)
	}
	rg.GET("/notifications/summary", h.notificationSummary)
}

// respondMemo classifies m and writes it with status.
func respondMemo(c *gin.Context, status int, m *domain.Memo) {
	corr, err := domain.Classify(*m)
	if err != nil {
		respondError(c, err, "Stored memo could not be classified")
		return
	}
	c.JSON(status, dto.ToMemoResponse(corr))
}

// submitMemo godoc
// @Summary Submit a memo for approval
// @Description A secretary submits a memo. It stays pending until an admin approves or rejects it.
// @Tags memos
// @Accept  json
// @Produce  json
// @Param   memo body dto.SubmitMemoRequest true "Memo to submit"
// @Success 201 {object} dto.MemoResponse
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 403 {object} ErrorResponse "Caller is not a secretary"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /memos/submissions [post]
func (h *memoHandler) submitMemo(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.SubmitMemoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for submit memo request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	memo, err := h.workflowService.CreateBySecretary(c.Request.Context(), *user, req)
	if err != nil {
		respondError(c, err, "Failed to submit memo")
		return
	}
	logger.Info("Memo submitted for approval", slog.String("memo_id", memo.MemoID))
	respondMemo(c, http.StatusCreated, memo)
}

// approveMemo godoc
// @Summary Approve a pending memo
// @Description Delivers the memo to its recipients and tells the sender.
// @Tags memos
// @Produce  json
// @Param   memoID path string true "Memo ID"
// @Success 200 {object} dto.MemoResponse "The delivered memo"
// @Failure 403 {object} ErrorResponse "Caller is not an admin"
// @Failure 404 {object} ErrorResponse "Memo not found"
// @Failure 409 {object} ErrorResponse "Memo is no longer pending"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /memos/{memoID}/approve [post]
func (h *memoHandler) approveMemo(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	memoID := c.Param("memoID")

	memo, err := h.workflowService.Approve(c.Request.Context(), memoID, *user)
	if err != nil {
		respondError(c, err, "Failed to approve memo")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Memo approved", slog.String("memo_id", memoID))
	respondMemo(c, http.StatusOK, memo)
}

// rejectMemo godoc
// @Summary Reject a pending memo
// @Description Tells the sender the memo was turned down. The body is optional.
// @Tags memos
// @Accept  json
// @Produce  json
// @Param   memoID path string true "Memo ID"
// @Param   reason body dto.RejectMemoRequest false "Rejection reason"
// @Success 200 {object} dto.MemoResponse
// @Failure 403 {object} ErrorResponse "Caller is not an admin"
// @Failure 404 {object} ErrorResponse "Memo not found"
// @Failure 409 {object} ErrorResponse "Memo is no longer pending"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /memos/{memoID}/reject [post]
func (h *memoHandler) rejectMemo(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	memoID := c.Param("memoID")

	var req dto.RejectMemoRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	memo, err := h.workflowService.Reject(c.Request.Context(), memoID, *user, req.Reason)
	if err != nil {
		respondError(c, err, "Failed to reject memo")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Memo rejected", slog.String("memo_id", memoID))
	respondMemo(c, http.StatusOK, memo)
}

// listMemos godoc
// @Summary List a folder
// @Description Lists memos and notifications of one folder, newest first.
// @Tags memos
// @Produce  json
// @Param   folder query string false "inbox, sent, drafts, archived or deleted" default(inbox)
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListMemosResponse
// @Failure 400 {object} ErrorResponse "Invalid query parameters"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /memos [get]
func (h *memoHandler) listMemos(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var params dto.ListMemosParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.memoService.ListMemos(c.Request.Context(), *user, params)
	if err != nil {
		respondError(c, err, "Failed to list memos")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// getMemo godoc
// @Summary Get a memo
// @Tags memos
// @Produce  json
// @Param   memoID path string true "Memo ID"
// @Success 200 {object} dto.MemoResponse
// @Failure 404 {object} ErrorResponse "Memo not found or not visible to the caller"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /memos/{memoID} [get]
func (h *memoHandler) getMemo(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	memo, err := h.memoService.GetMemo(c.Request.Context(), c.Param("memoID"), *user)
	if err != nil {
		respondError(c, err, "Failed to get memo")
		return
	}
	respondMemo(c, http.StatusOK, memo)
}

// markRead godoc
// @Summary Mark a received memo as read
// @Tags memos
// @Produce  json
// @Param   memoID path string true "Memo ID"
// @Success 200 {object} dto.MemoResponse
// @Failure 403 {object} ErrorResponse "Caller is not the addressee"
// @Failure 404 {object} ErrorResponse "Memo not found"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /memos/{memoID}/read [post]
func (h *memoHandler) markRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	memo, err := h.memoService.MarkRead(c.Request.Context(), c.Param("memoID"), *user)
	if err != nil {
		respondError(c, err, "Failed to mark memo as read")
		return
	}
	respondMemo(c, http.StatusOK, memo)
}

// archiveMemo godoc
// @Summary Move a memo to the archive
// @Tags memos
// @Produce  json
// @Param   memoID path string true "Memo ID"
// @Success 200 {object} dto.MemoResponse
// @Failure 403 {object} ErrorResponse "Memo is not in the caller's mailbox"
// @Failure 404 {object} ErrorResponse "Memo not found"
// @Failure 409 {object} ErrorResponse "Pending memos cannot be moved"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /memos/{memoID}/archive [post]
func (h *memoHandler) archiveMemo(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	memo, err := h.memoService.ArchiveMemo(c.Request.Context(), c.Param("memoID"), *user)
	if err != nil {
		respondError(c, err, "Failed to archive memo")
		return
	}
	respondMemo(c, http.StatusOK, memo)
}

// trashMemo godoc
// @Summary Move a memo to the deleted folder
// @Description The record is kept; only its folder changes.
// @Tags memos
// @Produce  json
// @Param   memoID path string true "Memo ID"
// @Success 200 {object} dto.MemoResponse
// @Failure 403 {object} ErrorResponse "Memo is not in the caller's mailbox"
// @Failure 404 {object} ErrorResponse "Memo not found"
// @Failure 409 {object} ErrorResponse "Pending memos cannot be moved"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /memos/{memoID} [delete]
func (h *memoHandler) trashMemo(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	memo, err := h.memoService.TrashMemo(c.Request.Context(), c.Param("memoID"), *user)
	if err != nil {
		respondError(c, err, "Failed to delete memo")
		return
	}
	respondMemo(c, http.StatusOK, memo)
}

// notificationSummary godoc
// @Summary Count unread notifications
// @Tags memos
// @Produce  json
// @Success 200 {object} dto.NotificationSummaryResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /notifications/summary [get]
func (h *memoHandler) notificationSummary(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	summary, err := h.memoService.NotificationSummary(c.Request.Context(), *user)
	if err != nil {
		respondError(c, err, "Failed to count notifications")
		return
	}
	c.JSON(http.StatusOK, summary)
}
