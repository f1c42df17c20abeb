package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"school-admin/backend/internal/dto"
	"school-admin/backend/internal/model"
	"school-admin/backend/internal/repository"
	"school-admin/backend/internal/timetable"
	pkgerrors "school-admin/backend/pkg/errors"
)

// ── 课节模块业务错误 ──

var (
	ErrSessionNotFound    = errors.New("课节不存在")
	ErrSessionConflict    = errors.New("课节时间冲突")
	ErrSessionRoomUnknown = errors.New("教室不在教室目录中或已停用")
)

// ConflictError 携带冲突报告的业务错误，errors.Is(err, ErrSessionConflict) 为 true
type ConflictError struct {
	Report timetable.ConflictReport
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: 教师 %d 项，班级 %d 项，教室 %d 项",
		ErrSessionConflict.Error(), len(e.Report.Teacher), len(e.Report.Section), len(e.Report.Room))
}

func (e *ConflictError) Unwrap() error { return ErrSessionConflict }

// ClassSessionService 课节业务接口
//
// 写操作在星期写锁内以当前已存储课节为快照执行冲突检测并落库：
//   - 三类约束（教师 / 年级班级 / 教室）任一命中即拒绝，返回 *ConflictError
//   - 停用的课节不参与检测，保存为停用状态的课节也不做检测
type ClassSessionService interface {
	Create(ctx context.Context, req *dto.CreateSessionRequest, callerID string) (*dto.SessionResponse, error)
	GetByID(ctx context.Context, id string) (*dto.SessionResponse, error)
	List(ctx context.Context, req *dto.SessionListRequest) ([]dto.SessionResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateSessionRequest, callerID string) (*dto.SessionResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
	// Validate 交互式校验，不落库
	Validate(ctx context.Context, req *dto.ValidateSessionRequest) (*dto.ValidateSessionResponse, error)
	ListChangeLogs(ctx context.Context, id string, page *dto.PaginationRequest) ([]dto.ChangeLogResponse, int64, error)
}

type classSessionService struct {
	repo   *repository.Repository
	seq    SequenceStore
	logger *zap.Logger
}

// NewClassSessionService 创建 ClassSessionService 实例
func NewClassSessionService(repo *repository.Repository, seq SequenceStore, logger *zap.Logger) ClassSessionService {
	return &classSessionService{repo: repo, seq: seq, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *classSessionService) Create(ctx context.Context, req *dto.CreateSessionRequest, callerID string) (*dto.SessionResponse, error) {
	candidate, err := sessionFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := candidate.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkRoom(ctx, candidate.RoomKey()); err != nil {
		return nil, err
	}

	m := model.ClassSessionFromSession(candidate)
	m.CreatedBy = &callerID
	m.UpdatedBy = &callerID

	err = s.repo.ClassSession.WithWeekdayLock(ctx, []int{m.Weekday}, func(tx repository.ClassSessionRepository) error {
		if err := s.checkConflicts(ctx, tx, candidate); err != nil {
			return err
		}
		return tx.Create(ctx, m, callerID)
	})
	if err != nil {
		if !errors.Is(err, ErrSessionConflict) {
			s.logger.Error("创建课节失败", zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("课节已创建",
		zap.String("session_id", m.SessionID),
		zap.String("teacher_id", m.TeacherID),
		zap.Int("weekday", m.Weekday),
		zap.String("operator", callerID),
	)
	return toSessionResponse(m), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *classSessionService) GetByID(ctx context.Context, id string) (*dto.SessionResponse, error) {
	m, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(m), nil
}

// ────────────────────── List ──────────────────────

func (s *classSessionService) List(ctx context.Context, req *dto.SessionListRequest) ([]dto.SessionResponse, int64, error) {
	rows, total, err := s.repo.ClassSession.List(ctx, repository.ClassSessionFilter{
		Weekday:         req.Weekday,
		GradeID:         req.GradeID,
		SectionID:       req.SectionID,
		TeacherID:       req.TeacherID,
		Room:            strings.TrimSpace(req.Room),
		IncludeInactive: req.IncludeInactive,
		Offset:          req.GetOffset(),
		Limit:           req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("列出课节失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.SessionResponse, 0, len(rows))
	for i := range rows {
		result = append(result, *toSessionResponse(&rows[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *classSessionService) Update(ctx context.Context, id string, req *dto.UpdateSessionRequest, callerID string) (*dto.SessionResponse, error) {
	m, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Version != m.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}

	before := *m
	roomChanged := applySessionUpdate(m, req)

	candidate, err := m.ToSession()
	if err != nil {
		return nil, err
	}
	if err := candidate.Validate(); err != nil {
		return nil, err
	}
	if roomChanged {
		if err := s.checkRoom(ctx, candidate.RoomKey()); err != nil {
			return nil, err
		}
	}

	// 统一存储为 HH:MM
	m.StartTime = candidate.Start.String()
	m.EndTime = candidate.End.String()
	m.UpdatedBy = &callerID

	// 跨星期移动时同时锁住原星期与新星期
	days := []int{before.Weekday, m.Weekday}
	err = s.repo.ClassSession.WithWeekdayLock(ctx, days, func(tx repository.ClassSessionRepository) error {
		if err := s.checkConflicts(ctx, tx, candidate); err != nil {
			return err
		}
		return tx.Update(ctx, m, &before, callerID)
	})
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) && !errors.Is(err, ErrSessionConflict) {
			s.logger.Error("更新课节失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	return toSessionResponse(m), nil
}

// ────────────────────── Delete ──────────────────────

func (s *classSessionService) Delete(ctx context.Context, id string, callerID string) error {
	m, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.ClassSession.Delete(ctx, m, callerID); err != nil {
		s.logger.Error("删除课节失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// Validate：交互式校验
// ════════════════════════════════════════════════════════════
//
// 表单每次修改教师、星期、时间字段都会触发校验，请求可能乱序返回。
// 同一 client_key 下只有最大 seq 的结果有效：
//   1. 检测前记录 seq，已有更大 seq 时直接返回 stale，不做检测
//   2. 检测后再确认一次，期间有更新的请求到达时同样标记 stale
// 序号存储出错时降级为不判断过期。

func (s *classSessionService) Validate(ctx context.Context, req *dto.ValidateSessionRequest) (*dto.ValidateSessionResponse, error) {
	candidate, err := sessionFromRequest(&req.CreateSessionRequest)
	if err != nil {
		return nil, err
	}
	candidate.ID = req.SessionID
	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	resp := &dto.ValidateSessionResponse{
		ClientKey: req.ClientKey,
		Seq:       req.Seq,
		Conflicts: timetable.ConflictReport{Teacher: []timetable.Session{}, Section: []timetable.Session{}, Room: []timetable.Session{}},
	}

	if !s.current(ctx, req.ClientKey, req.Seq) {
		resp.Stale = true
		return resp, nil
	}

	if err := s.checkRoom(ctx, candidate.RoomKey()); err != nil {
		return nil, err
	}
	existing, err := s.snapshot(ctx, s.repo.ClassSession, candidate.Weekday)
	if err != nil {
		return nil, err
	}
	resp.Conflicts = timetable.DetectConflicts(candidate, existing)
	resp.Valid = !resp.Conflicts.HasConflict()

	if !s.current(ctx, req.ClientKey, req.Seq) {
		resp.Stale = true
	}
	return resp, nil
}

// current 未携带 client_key 的请求总是视为最新
func (s *classSessionService) current(ctx context.Context, key string, seq int64) bool {
	if key == "" || s.seq == nil {
		return true
	}
	ok, err := s.seq.Observe(ctx, key, seq)
	if err != nil {
		s.logger.Warn("校验序号存储不可用，跳过过期判断", zap.String("client_key", key), zap.Error(err))
		return true
	}
	return ok
}

// ────────────────────── ListChangeLogs ──────────────────────

func (s *classSessionService) ListChangeLogs(ctx context.Context, id string, page *dto.PaginationRequest) ([]dto.ChangeLogResponse, int64, error) {
	logs, total, err := s.repo.SessionChangeLog.ListBySession(ctx, id, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询课节变更记录失败", zap.String("id", id), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ChangeLogResponse, 0, len(logs))
	for i := range logs {
		result = append(result, toChangeLogResponse(&logs[i]))
	}
	return result, total, nil
}

// ── 内部辅助方法 ──

func (s *classSessionService) get(ctx context.Context, id string) (*model.ClassSession, error) {
	m, err := s.repo.ClassSession.GetByID(ctx, id)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("查询课节失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return m, nil
}

// snapshot 读取指定星期的全部已存储课节
func (s *classSessionService) snapshot(ctx context.Context, repo repository.ClassSessionRepository, day timetable.Weekday) ([]timetable.Session, error) {
	rows, err := repo.ListByWeekday(ctx, int(day))
	if err != nil {
		s.logger.Error("读取课节快照失败", zap.Int("weekday", int(day)), zap.Error(err))
		return nil, err
	}
	return model.ToSessions(rows)
}

// checkConflicts 写操作应在 WithWeekdayLock 内调用，repo 为事务内仓储
func (s *classSessionService) checkConflicts(ctx context.Context, repo repository.ClassSessionRepository, candidate timetable.Session) error {
	if !candidate.Active {
		return nil
	}
	existing, err := s.snapshot(ctx, repo, candidate.Weekday)
	if err != nil {
		return err
	}
	if report := timetable.DetectConflicts(candidate, existing); report.HasConflict() {
		return &ConflictError{Report: report}
	}
	return nil
}

// checkRoom 教室目录为空时不限制教室标签
func (s *classSessionService) checkRoom(ctx context.Context, room string) error {
	if room == "" {
		return nil
	}
	rooms, err := s.repo.Room.List(ctx, true)
	if err != nil {
		s.logger.Error("读取教室目录失败", zap.Error(err))
		return err
	}
	if len(rooms) == 0 {
		return nil
	}
	for _, r := range rooms {
		if r.IsActive && r.Name == room {
			return nil
		}
	}
	return ErrSessionRoomUnknown
}

// sessionFromRequest 请求 → 引擎记录，时间格式错误返回 timetable.ErrInvalidTime
func sessionFromRequest(req *dto.CreateSessionRequest) (timetable.Session, error) {
	iv := timetable.Interval{}
	var err error
	if iv.Start, err = timetable.ParseTimeOfDay(req.StartTime); err != nil {
		return timetable.Session{}, err
	}
	if iv.End, err = timetable.ParseTimeOfDay(req.EndTime); err != nil {
		return timetable.Session{}, err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return timetable.Session{
		TeacherID: strings.TrimSpace(req.TeacherID),
		SubjectID: strings.TrimSpace(req.SubjectID),
		GradeID:   strings.TrimSpace(req.GradeID),
		SectionID: strings.TrimSpace(req.SectionID),
		Weekday:   timetable.Weekday(req.Weekday),
		Start:     iv.Start,
		End:       iv.End,
		Room:      strings.TrimSpace(req.Room),
		Active:    active,
	}, nil
}

// applySessionUpdate 合并部分更新，返回教室是否变化
func applySessionUpdate(m *model.ClassSession, req *dto.UpdateSessionRequest) bool {
	if req.TeacherID != nil {
		m.TeacherID = strings.TrimSpace(*req.TeacherID)
	}
	if req.SubjectID != nil {
		m.SubjectID = strings.TrimSpace(*req.SubjectID)
	}
	if req.GradeID != nil {
		m.GradeID = strings.TrimSpace(*req.GradeID)
	}
	if req.SectionID != nil {
		m.SectionID = strings.TrimSpace(*req.SectionID)
	}
	if req.Weekday != nil {
		m.Weekday = *req.Weekday
	}
	if req.StartTime != nil {
		m.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		m.EndTime = *req.EndTime
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}

	if req.Room == nil {
		return false
	}
	old := ""
	if m.Room != nil {
		old = *m.Room
	}
	room := strings.TrimSpace(*req.Room)
	if room == "" {
		m.Room = nil
	} else {
		m.Room = &room
	}
	return room != old
}

func toSessionResponse(m *model.ClassSession) *dto.SessionResponse {
	resp := &dto.SessionResponse{
		ID:          m.SessionID,
		TeacherID:   m.TeacherID,
		SubjectID:   m.SubjectID,
		GradeID:     m.GradeID,
		SectionID:   m.SectionID,
		Weekday:     m.Weekday,
		WeekdayName: timetable.Weekday(m.Weekday).String(),
		StartTime:   trimSeconds(m.StartTime),
		EndTime:     trimSeconds(m.EndTime),
		IsActive:    m.IsActive,
		Version:     m.Version,
		CreatedAt:   m.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:   m.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if m.Room != nil {
		resp.Room = *m.Room
	}
	return resp
}

// trimSeconds "08:00:00" → "08:00"
func trimSeconds(t string) string {
	if len(t) == len("15:04:05") {
		return t[:5]
	}
	return t
}

func toChangeLogResponse(l *model.SessionChangeLog) dto.ChangeLogResponse {
	resp := dto.ChangeLogResponse{
		ID:         l.ChangeLogID,
		SessionID:  l.SessionID,
		ChangeType: l.ChangeType,
		OperatorID: l.OperatorID,
		CreatedAt:  l.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if l.Before != nil {
		resp.Before = json.RawMessage(*l.Before)
	}
	if l.After != nil {
		resp.After = json.RawMessage(*l.After)
	}
	return resp
}
