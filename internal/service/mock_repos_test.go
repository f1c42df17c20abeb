package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"school-admin/backend/internal/model"
	"school-admin/backend/internal/repository"
	pkgerrors "school-admin/backend/pkg/errors"
)

// ── Mock ClassSessionRepository ──

type mockClassSessionRepo struct {
	sessions  map[string]*model.ClassSession
	logs      *mockChangeLogRepo
	nextID    int
	failBatch error // 非 nil 时 BatchCreate 整批失败

	lockMu sync.Mutex // 模拟星期写锁：所有星期共用一把锁
	locked [][]int    // 每次 WithWeekdayLock 请求的星期
}

func newMockClassSessionRepo(logs *mockChangeLogRepo) *mockClassSessionRepo {
	return &mockClassSessionRepo{sessions: make(map[string]*model.ClassSession), logs: logs}
}

func (m *mockClassSessionRepo) insert(s *model.ClassSession) {
	if s.SessionID == "" {
		m.nextID++
		s.SessionID = fmt.Sprintf("sess-%03d", m.nextID)
	}
	if s.Version == 0 {
		s.Version = 1
	}
	now := time.Now()
	s.CreatedAt, s.UpdatedAt = now, now
	cp := *s
	m.sessions[s.SessionID] = &cp
}

// seed 直接写入已有课节，不记录变更
func (m *mockClassSessionRepo) seed(rows ...model.ClassSession) {
	for i := range rows {
		m.insert(&rows[i])
	}
}

func (m *mockClassSessionRepo) Create(_ context.Context, session *model.ClassSession, operatorID string) error {
	m.insert(session)
	m.logs.record(model.ChangeTypeCreate, session.SessionID, operatorID)
	return nil
}

func (m *mockClassSessionRepo) GetByID(_ context.Context, id string) (*model.ClassSession, error) {
	if s, ok := m.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClassSessionRepo) List(_ context.Context, f repository.ClassSessionFilter) ([]model.ClassSession, int64, error) {
	var result []model.ClassSession
	for _, s := range m.sorted() {
		switch {
		case f.Weekday > 0 && s.Weekday != f.Weekday,
			f.GradeID != "" && s.GradeID != f.GradeID,
			f.SectionID != "" && s.SectionID != f.SectionID,
			f.TeacherID != "" && s.TeacherID != f.TeacherID,
			f.Room != "" && (s.Room == nil || *s.Room != f.Room),
			!f.IncludeInactive && !s.IsActive:
			continue
		}
		result = append(result, s)
	}
	total := int64(len(result))
	if f.Limit > 0 {
		end := min(f.Offset+f.Limit, len(result))
		result = result[min(f.Offset, len(result)):end]
	}
	return result, total, nil
}

func (m *mockClassSessionRepo) ListByWeekday(_ context.Context, weekday int) ([]model.ClassSession, error) {
	var result []model.ClassSession
	for _, s := range m.sorted() {
		if s.Weekday == weekday {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *mockClassSessionRepo) ListAll(_ context.Context) ([]model.ClassSession, error) {
	return m.sorted(), nil
}

func (m *mockClassSessionRepo) Update(_ context.Context, session *model.ClassSession, _ *model.ClassSession, operatorID string) error {
	cur, ok := m.sessions[session.SessionID]
	if !ok || cur.Version != session.Version {
		return pkgerrors.ErrOptimisticLock
	}
	session.Version++
	cp := *session
	m.sessions[session.SessionID] = &cp
	m.logs.record(model.ChangeTypeUpdate, session.SessionID, operatorID)
	return nil
}

func (m *mockClassSessionRepo) Delete(_ context.Context, session *model.ClassSession, operatorID string) error {
	delete(m.sessions, session.SessionID)
	m.logs.record(model.ChangeTypeDelete, session.SessionID, operatorID)
	return nil
}

func (m *mockClassSessionRepo) BatchCreate(_ context.Context, sessions []model.ClassSession, operatorID string) error {
	if m.failBatch != nil {
		return m.failBatch
	}
	for i := range sessions {
		m.insert(&sessions[i])
		m.logs.record(model.ChangeTypeDuplicate, sessions[i].SessionID, operatorID)
	}
	return nil
}

// WithWeekdayLock fn 返回错误时恢复调用前的课节与变更记录，模拟事务回滚
func (m *mockClassSessionRepo) WithWeekdayLock(_ context.Context, weekdays []int, fn func(tx repository.ClassSessionRepository) error) error {
	m.lockMu.Lock()
	defer m.lockMu.Unlock()
	m.locked = append(m.locked, append([]int(nil), weekdays...))

	saved := make(map[string]*model.ClassSession, len(m.sessions))
	for k, v := range m.sessions {
		saved[k] = v
	}
	savedLogs := len(m.logs.logs)

	if err := fn(m); err != nil {
		m.sessions = saved
		m.logs.logs = m.logs.logs[:savedLogs]
		return err
	}
	return nil
}

func (m *mockClassSessionRepo) sorted() []model.ClassSession {
	result := make([]model.ClassSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Weekday != result[j].Weekday {
			return result[i].Weekday < result[j].Weekday
		}
		if result[i].StartTime != result[j].StartTime {
			return result[i].StartTime < result[j].StartTime
		}
		return result[i].SessionID < result[j].SessionID
	})
	return result
}

// ── Mock SessionChangeLogRepository ──

type mockChangeLogRepo struct {
	logs []model.SessionChangeLog
}

func newMockChangeLogRepo() *mockChangeLogRepo {
	return &mockChangeLogRepo{}
}

func (m *mockChangeLogRepo) record(changeType, sessionID, operatorID string) {
	m.logs = append(m.logs, model.SessionChangeLog{
		ChangeLogID: fmt.Sprintf("log-%03d", len(m.logs)+1),
		SessionID:   sessionID,
		ChangeType:  changeType,
		OperatorID:  operatorID,
		CreatedAt:   time.Now(),
	})
}

func (m *mockChangeLogRepo) countByType(changeType string) int {
	n := 0
	for _, l := range m.logs {
		if l.ChangeType == changeType {
			n++
		}
	}
	return n
}

func (m *mockChangeLogRepo) ListBySession(_ context.Context, sessionID string, offset, limit int) ([]model.SessionChangeLog, int64, error) {
	var result []model.SessionChangeLog
	for i := len(m.logs) - 1; i >= 0; i-- {
		if m.logs[i].SessionID == sessionID {
			result = append(result, m.logs[i])
		}
	}
	total := int64(len(result))
	end := min(offset+limit, len(result))
	return result[min(offset, len(result)):end], total, nil
}

// ── Mock RoomRepository ──

type mockRoomRepo struct {
	rooms map[string]*model.Room
}

func newMockRoomRepo() *mockRoomRepo {
	return &mockRoomRepo{rooms: make(map[string]*model.Room)}
}

func (m *mockRoomRepo) Create(_ context.Context, room *model.Room) error {
	if room.RoomID == "" {
		room.RoomID = "room-" + strings.ToLower(room.Name)
	}
	cp := *room
	m.rooms[room.RoomID] = &cp
	return nil
}

func (m *mockRoomRepo) GetByID(_ context.Context, id string) (*model.Room, error) {
	if r, ok := m.rooms[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRoomRepo) GetByName(_ context.Context, name string) (*model.Room, error) {
	for _, r := range m.rooms {
		if r.Name == name {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRoomRepo) List(_ context.Context, includeInactive bool) ([]model.Room, error) {
	var result []model.Room
	for _, r := range m.rooms {
		if !includeInactive && !r.IsActive {
			continue
		}
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockRoomRepo) Update(_ context.Context, room *model.Room) error {
	cp := *room
	m.rooms[room.RoomID] = &cp
	return nil
}

func (m *mockRoomRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.rooms, id)
	return nil
}

// ── 测试辅助 ──

type testRepos struct {
	sessions *mockClassSessionRepo
	logs     *mockChangeLogRepo
	rooms    *mockRoomRepo
	repo     *repository.Repository
}

func newTestRepos() *testRepos {
	logs := newMockChangeLogRepo()
	r := &testRepos{
		sessions: newMockClassSessionRepo(logs),
		logs:     logs,
		rooms:    newMockRoomRepo(),
	}
	r.repo = &repository.Repository{
		ClassSession:     r.sessions,
		SessionChangeLog: r.logs,
		Room:             r.rooms,
	}
	return r
}

var testLogger = zap.NewNop()

// row 构造已存储课节
func row(id, teacher, grade, section string, weekday int, start, end, room string) model.ClassSession {
	m := model.ClassSession{
		SessionID: id,
		TeacherID: teacher,
		SubjectID: "subj-" + teacher,
		GradeID:   grade,
		SectionID: section,
		Weekday:   weekday,
		StartTime: start,
		EndTime:   end,
		IsActive:  true,
	}
	if room != "" {
		m.Room = &room
	}
	return m
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
