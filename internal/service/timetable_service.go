package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"school-admin/backend/internal/dto"
	"school-admin/backend/internal/model"
	"school-admin/backend/internal/repository"
	"school-admin/backend/internal/timetable"
)

// ── 课表视图模块业务错误 ──

var (
	ErrInvalidScope         = errors.New("请指定年级+班级或教师其中之一")
	ErrDuplicateSameSection = errors.New("源班级与目标班级相同")
	ErrDuplicateEmptySource = errors.New("源班级没有启用的课节")
)

// TimetableService 课表视图与整班复制业务接口
// 所有视图都基于读取时的课节快照即时计算，不做缓存
type TimetableService interface {
	FreeSlots(ctx context.Context, req *dto.FreeSlotsRequest) (*dto.FreeSlotsResponse, error)
	Grid(ctx context.Context, req *dto.GridRequest) (*timetable.Grid, error)
	FreeRooms(ctx context.Context, req *dto.FreeRoomsRequest) ([]dto.RoomResponse, error)
	Duplicate(ctx context.Context, req *dto.DuplicateRequest, callerID string) (*dto.DuplicateResponse, error)
}

type timetableService struct {
	repo   *repository.Repository
	opts   Options
	logger *zap.Logger
}

// NewTimetableService 创建 TimetableService 实例
func NewTimetableService(repo *repository.Repository, opts Options, logger *zap.Logger) TimetableService {
	return &timetableService{repo: repo, opts: opts, logger: logger}
}

// ────────────────────── FreeSlots ──────────────────────

func (s *timetableService) FreeSlots(ctx context.Context, req *dto.FreeSlotsRequest) (*dto.FreeSlotsResponse, error) {
	keep, err := scopeFilter(&req.ScopeRequest)
	if err != nil {
		return nil, err
	}
	window, err := s.window(req.Start, req.End)
	if err != nil {
		return nil, err
	}

	day := timetable.Weekday(req.Weekday)
	rows, err := s.repo.ClassSession.ListByWeekday(ctx, req.Weekday)
	if err != nil {
		s.logger.Error("读取课节失败", zap.Int("weekday", req.Weekday), zap.Error(err))
		return nil, err
	}
	sessions, err := model.ToSessions(rows)
	if err != nil {
		return nil, err
	}

	return &dto.FreeSlotsResponse{
		Weekday: req.Weekday,
		Window:  window,
		Slots:   timetable.FreeSlots(day, timetable.Filter(sessions, keep), window),
	}, nil
}

// ────────────────────── Grid ──────────────────────

func (s *timetableService) Grid(ctx context.Context, req *dto.GridRequest) (*timetable.Grid, error) {
	keep, err := scopeFilter(&req.ScopeRequest)
	if err != nil {
		return nil, err
	}
	window, err := s.window(req.Start, req.End)
	if err != nil {
		return nil, err
	}

	sessions, err := loadSessions(ctx, s.repo.ClassSession, s.logger)
	if err != nil {
		return nil, err
	}

	grid := timetable.ProjectWeek(timetable.Filter(sessions, keep), window, s.opts.Grid)
	return &grid, nil
}

// ────────────────────── FreeRooms ──────────────────────

// FreeRooms 列出指定时段内没有任何启用课节占用的启用教室。
// 每个教室以该时段构造候选课节，复用冲突检测的教室约束判断占用。
func (s *timetableService) FreeRooms(ctx context.Context, req *dto.FreeRoomsRequest) ([]dto.RoomResponse, error) {
	iv, err := timetable.ParseInterval(req.Start, req.End)
	if err != nil {
		return nil, err
	}

	rooms, err := s.repo.Room.List(ctx, false)
	if err != nil {
		s.logger.Error("读取教室目录失败", zap.Error(err))
		return nil, err
	}
	rows, err := s.repo.ClassSession.ListByWeekday(ctx, req.Weekday)
	if err != nil {
		s.logger.Error("读取课节失败", zap.Int("weekday", req.Weekday), zap.Error(err))
		return nil, err
	}
	sessions, err := model.ToSessions(rows)
	if err != nil {
		return nil, err
	}

	free := make([]dto.RoomResponse, 0, len(rooms))
	for i := range rooms {
		probe := timetable.Session{
			Weekday: timetable.Weekday(req.Weekday),
			Start:   iv.Start,
			End:     iv.End,
			Room:    rooms[i].Name,
			Active:  true,
		}
		if report := timetable.DetectConflicts(probe, sessions); len(report.Room) == 0 {
			free = append(free, toRoomResponse(&rooms[i]))
		}
	}
	return free, nil
}

// ════════════════════════════════════════════════════════════
// Duplicate：整班复制
// ════════════════════════════════════════════════════════════
//
// 流程：
//   1. 读取全部课节快照，按源班级筛选启用课节
//   2. 逐个生成副本并做冲突检测（本批副本互相可见）
//   3. 按策略决定提交内容：partial 提交无冲突副本；all_or_nothing 有任一跳过则不提交
//   4. 提交在单个事务内完成，每个副本写一条 duplicate 变更记录
// dry_run 只返回结果，不写入。

func (s *timetableService) Duplicate(ctx context.Context, req *dto.DuplicateRequest, callerID string) (*dto.DuplicateResponse, error) {
	source := timetable.SectionRef{GradeID: req.SourceGradeID, SectionID: req.SourceSectionID}
	target := timetable.SectionRef{GradeID: req.TargetGradeID, SectionID: req.TargetSectionID}
	if source == target {
		return nil, ErrDuplicateSameSection
	}

	policy := s.opts.DuplicatePolicy
	if req.Policy != "" {
		p, err := timetable.ParseDuplicatePolicy(req.Policy)
		if err != nil {
			return nil, err
		}
		policy = p
	}

	// 提交时锁住全部星期，快照读取、冲突检测与写入在同一事务内完成；
	// dry_run 不加锁，直接读取当前快照
	var (
		resp *dto.DuplicateResponse
		rows []model.ClassSession
	)
	plan := func(repo repository.ClassSessionRepository) error {
		all, err := loadSessions(ctx, repo, s.logger)
		if err != nil {
			return err
		}
		if len(timetable.FilterActive(timetable.FilterSection(all, source))) == 0 {
			return ErrDuplicateEmptySource
		}

		result := timetable.Duplicate(source, target, all)
		resp = &dto.DuplicateResponse{
			Policy:  string(policy),
			DryRun:  req.DryRun,
			Created: result.Created,
			Skipped: result.Skipped,
		}

		commit := result.Committable(policy)
		if req.DryRun || len(commit) == 0 {
			return nil
		}
		rows = make([]model.ClassSession, 0, len(commit))
		for _, c := range commit {
			m := model.ClassSessionFromSession(c)
			m.CreatedBy = &callerID
			m.UpdatedBy = &callerID
			rows = append(rows, *m)
		}
		return repo.BatchCreate(ctx, rows, callerID)
	}

	var err error
	if req.DryRun {
		err = plan(s.repo.ClassSession)
	} else {
		err = s.repo.ClassSession.WithWeekdayLock(ctx, allWeekdays(), plan)
	}
	if err != nil {
		if len(rows) > 0 {
			s.logger.Error("整班复制写入失败",
				zap.String("source", source.GradeID+"/"+source.SectionID),
				zap.String("target", target.GradeID+"/"+target.SectionID),
				zap.Error(err),
			)
		}
		return nil, err
	}
	if len(rows) == 0 {
		return resp, nil
	}

	// 回填数据库生成的 ID
	for i := range rows {
		resp.Created[i].ID = rows[i].SessionID
	}
	resp.Committed = true

	s.logger.Info("整班复制完成",
		zap.String("source", source.GradeID+"/"+source.SectionID),
		zap.String("target", target.GradeID+"/"+target.SectionID),
		zap.String("policy", string(policy)),
		zap.Int("created", len(rows)),
		zap.Int("skipped", len(resp.Skipped)),
		zap.String("operator", callerID),
	)
	return resp, nil
}

// ── 内部辅助方法 ──

// loadSessions 读取全部已存储课节（含停用）
func loadSessions(ctx context.Context, repo repository.ClassSessionRepository, logger *zap.Logger) ([]timetable.Session, error) {
	rows, err := repo.ListAll(ctx)
	if err != nil {
		logger.Error("读取课节失败", zap.Error(err))
		return nil, err
	}
	return model.ToSessions(rows)
}

func allWeekdays() []int {
	days := make([]int, len(timetable.Weekdays))
	for i, d := range timetable.Weekdays {
		days[i] = int(d)
	}
	return days
}

// window 请求未指定时使用配置窗口；只给一端时另一端取配置值
func (s *timetableService) window(start, end string) (timetable.Window, error) {
	w := s.opts.Window
	if start == "" && end == "" {
		return w, nil
	}
	var err error
	if start != "" {
		if w.Start, err = timetable.ParseTimeOfDay(start); err != nil {
			return timetable.Window{}, err
		}
	}
	if end != "" {
		if w.End, err = timetable.ParseTimeOfDay(end); err != nil {
			return timetable.Window{}, err
		}
	}
	if err := w.Validate(); err != nil {
		return timetable.Window{}, err
	}
	return w, nil
}

// scopeFilter 年级+班级 与 教师 二选一
func scopeFilter(req *dto.ScopeRequest) (func(timetable.Session) bool, error) {
	section := timetable.SectionRef{GradeID: req.GradeID, SectionID: req.SectionID}
	switch {
	case section.Valid() && req.TeacherID == "":
		return func(s timetable.Session) bool { return s.InSection(section) }, nil
	case req.TeacherID != "" && req.GradeID == "" && req.SectionID == "":
		teacher := req.TeacherID
		return func(s timetable.Session) bool { return s.TeacherID == teacher }, nil
	default:
		return nil, ErrInvalidScope
	}
}
