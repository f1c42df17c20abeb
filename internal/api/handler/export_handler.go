package handler

import (
	"bytes"
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"school-admin/backend/internal/dto"
	"school-admin/backend/internal/service"
	"school-admin/backend/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportXLSX 导出周视图 Excel
// GET /api/v1/export/timetable.xlsx?grade_id=&section_id= | ?teacher_id=
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	h.export(c, h.exportSvc.ExportXLSX, contentTypeXLSX)
}

// ExportICS 导出 iCalendar
// GET /api/v1/export/timetable.ics?teacher_id=&week_of=2026-03-02&weeks=16
func (h *ExportHandler) ExportICS(c *gin.Context) {
	h.export(c, h.exportSvc.ExportICS, contentTypeICS)
}

type exportFunc func(ctx context.Context, req *dto.ExportRequest) (*bytes.Buffer, string, error)

func (h *ExportHandler) export(c *gin.Context, fn exportFunc, contentType string) {
	var req dto.ExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	buf, filename, err := fn(c.Request.Context(), &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.Attachment(c, filename, contentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoSessions):
		response.NotFound(c, 16001, "所选范围内没有启用的课节")
	case errors.Is(err, service.ErrInvalidScope):
		response.BadRequest(c, 16002, "请指定年级+班级或教师其中之一")
	case errors.Is(err, service.ErrExportInvalidWeek):
		response.BadRequest(c, 16003, "week_of 格式错误")
	default:
		response.InternalError(c)
	}
}
