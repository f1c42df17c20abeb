package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school-admin/backend/internal/dto"
	"school-admin/backend/internal/model"
	"school-admin/backend/internal/timetable"
	pkgerrors "school-admin/backend/pkg/errors"
)

// ── 测试辅助 ──

func setupTestClassSessionService() (ClassSessionService, *testRepos) {
	r := newTestRepos()
	svc := NewClassSessionService(r.repo, NewMemorySequenceStore(time.Minute), testLogger)
	return svc, r
}

func createReq(teacher, grade, section string, weekday int, start, end, room string) *dto.CreateSessionRequest {
	return &dto.CreateSessionRequest{
		TeacherID: teacher,
		SubjectID: "math",
		GradeID:   grade,
		SectionID: section,
		Weekday:   weekday,
		StartTime: start,
		EndTime:   end,
		Room:      room,
	}
}

type failingSequenceStore struct{}

func (failingSequenceStore) Observe(context.Context, string, int64) (bool, error) {
	return false, errors.New("redis down")
}

// ── Create 测试 ──

func TestClassSessionService_Create_Success(t *testing.T) {
	svc, r := setupTestClassSessionService()

	result, err := svc.Create(context.Background(), createReq("T1", "G5", "A", 1, "08:00", "09:00", "Lab"), "admin-001")
	require.NoError(t, err, "Create 应成功")
	assert.NotEmpty(t, result.ID, "期望返回生成的 ID")
	assert.Equal(t, "08:00", result.StartTime)
	assert.Equal(t, "09:00", result.EndTime)
	assert.True(t, result.IsActive, "缺省应为启用状态")
	assert.Equal(t, "monday", result.WeekdayName)
	assert.Equal(t, 1, r.logs.countByType(model.ChangeTypeCreate), "期望 1 条 create 变更记录")
	assert.Equal(t, [][]int{{1}}, r.sessions.locked, "写入前应持有星期一的写锁")
}

func TestClassSessionService_Create_TeacherConflict(t *testing.T) {
	svc, r := setupTestClassSessionService()
	r.sessions.seed(row("s1", "T1", "G5", "A", 1, "08:00", "09:00", ""))

	_, err := svc.Create(context.Background(), createReq("T1", "G6", "B", 1, "08:30", "09:30", ""), "admin-001")
	require.ErrorIs(t, err, ErrSessionConflict)

	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	require.Len(t, ce.Report.Teacher, 1)
	assert.Equal(t, "s1", ce.Report.Teacher[0].ID, "教师冲突应指向 s1")
	assert.Empty(t, ce.Report.Section, "不应有班级冲突")
	assert.Empty(t, ce.Report.Room, "不应有教室冲突")
	assert.Len(t, r.sessions.sessions, 1, "冲突时不应写入")
	assert.Zero(t, r.logs.countByType(model.ChangeTypeCreate))
}

// 同一教师同一时段的并发创建：冲突检测与写入在星期写锁内完成，只能有一个成功
func TestClassSessionService_Create_ConcurrentSameSlot(t *testing.T) {
	svc, r := setupTestClassSessionService()

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	sections := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(section string) {
			defer wg.Done()
			_, err := svc.Create(context.Background(), createReq("T1", "G5", section, 3, "10:00", "11:00", ""), "admin-001")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrSessionConflict):
				conflicts++
			default:
				t.Errorf("意外错误: %v", err)
			}
		}(sections[i])
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded, "只能有一个请求写入成功")
	assert.Equal(t, workers-1, conflicts)
	assert.Len(t, r.sessions.sessions, 1)
	assert.Equal(t, 1, r.logs.countByType(model.ChangeTypeCreate))
}

func TestClassSessionService_Create_TouchingIsAllowed(t *testing.T) {
	svc, r := setupTestClassSessionService()
	r.sessions.seed(row("s1", "T1", "G5", "A", 1, "08:00", "09:00", "Lab"))

	_, err := svc.Create(context.Background(), createReq("T1", "G5", "A", 1, "09:00", "10:00", "Lab"), "admin-001")
	assert.NoError(t, err, "首尾相接不算冲突")
}

func TestClassSessionService_Create_IgnoresInactive(t *testing.T) {
	svc, r := setupTestClassSessionService()
	inactive := row("s1", "T1", "G5", "A", 1, "08:00", "09:00", "")
	inactive.IsActive = false
	r.sessions.seed(inactive)

	_, err := svc.Create(context.Background(), createReq("T1", "G5", "A", 1, "08:00", "09:00", ""), "admin-001")
	assert.NoError(t, err, "停用课节不参与冲突检测")
}

func TestClassSessionService_Create_InactiveCandidateSkipsCheck(t *testing.T) {
	svc, r := setupTestClassSessionService()
	r.sessions.seed(row("s1", "T1", "G5", "A", 1, "08:00", "09:00", ""))

	req := createReq("T1", "G5", "A", 1, "08:00", "09:00", "")
	req.IsActive = boolPtr(false)
	result, err := svc.Create(context.Background(), req, "admin-001")
	require.NoError(t, err, "以停用状态保存不做检测")
	assert.False(t, result.IsActive)
}

func TestClassSessionService_Create_InvalidRange(t *testing.T) {
	svc, r := setupTestClassSessionService()

	_, err := svc.Create(context.Background(), createReq("T1", "G5", "A", 1, "10:00", "10:00", ""), "admin-001")
	assert.ErrorIs(t, err, timetable.ErrInvalidRange)
	assert.Empty(t, r.sessions.locked, "参数错误不应获取写锁")
}

func TestClassSessionService_Create_RoomCatalogue(t *testing.T) {
	svc, r := setupTestClassSessionService()

	// 目录为空：任意教室名
	_, err := svc.Create(context.Background(), createReq("T1", "G5", "A", 1, "08:00", "09:00", "Anywhere"), "admin-001")
	require.NoError(t, err, "教室目录为空时不限制")

	r.rooms.rooms["r1"] = &model.Room{RoomID: "r1", Name: "Lab", IsActive: true}
	r.rooms.rooms["r2"] = &model.Room{RoomID: "r2", Name: "Old", IsActive: false}

	_, err = svc.Create(context.Background(), createReq("T2", "G5", "B", 2, "08:00", "09:00", "Gym"), "admin-001")
	assert.ErrorIs(t, err, ErrSessionRoomUnknown, "未登记教室")
	_, err = svc.Create(context.Background(), createReq("T2", "G5", "B", 2, "08:00", "09:00", "Old"), "admin-001")
	assert.ErrorIs(t, err, ErrSessionRoomUnknown, "停用教室")
	_, err = svc.Create(context.Background(), createReq("T2", "G5", "B", 2, "08:00", "09:00", "Lab"), "admin-001")
	assert.NoError(t, err, "已登记教室应成功")
}

// ── GetByID 测试 ──

func TestClassSessionService_GetByID_NotFound(t *testing.T) {
	svc, _ := setupTestClassSessionService()

	_, err := svc.GetByID(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

// ── List 测试 ──

func TestClassSessionService_List_FilterAndPage(t *testing.T) {
	svc, r := setupTestClassSessionService()
	r.sessions.seed(
		row("s1", "T1", "G5", "A", 1, "08:00", "09:00", ""),
		row("s2", "T2", "G5", "A", 1, "09:00", "10:00", ""),
		row("s3", "T3", "G5", "A", 2, "08:00", "09:00", ""),
		row("s4", "T1", "G6", "B", 3, "08:00", "09:00", ""),
	)

	list, total, err := svc.List(context.Background(), &dto.SessionListRequest{
		PaginationRequest: dto.PaginationRequest{Page: 1, PageSize: 2},
		GradeID:           "G5",
		SectionID:         "A",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, list, 2)
	assert.Equal(t, "s1", list[0].ID, "第一页应为 s1, s2")
	assert.Equal(t, "s2", list[1].ID)
}

// ── Update 测试 ──

func TestClassSessionService_Update_ExcludesItself(t *testing.T) {
	svc, r := setupTestClassSessionService()
	r.sessions.seed(row("s1", "T1", "G5", "A", 1, "08:00", "09:00", ""))

	result, err := svc.Update(context.Background(), "s1", &dto.UpdateSessionRequest{
		StartTime: strPtr("08:30"),
		EndTime:   strPtr("09:30"),
		Version:   1,
	}, "admin-001")
	require.NoError(t, err, "移动自身时间不应与自己冲突")
	assert.Equal(t, "08:30", result.StartTime)
	assert.Equal(t, 2, result.Version)
	assert.Equal(t, 1, r.logs.countByType(model.ChangeTypeUpdate))
}

func TestClassSessionService_Update_Conflict(t *testing.T) {
	svc, r := setupTestClassSessionService()
	r.sessions.seed(
		row("s1", "T1", "G5", "A", 1, "08:00", "09:00", "Lab"),
		row("s2", "T2", "G6", "B", 1, "10:00", "11:00", "Lab"),
	)

	_, err := svc.Update(context.Background(), "s2", &dto.UpdateSessionRequest{
		StartTime: strPtr("08:30"),
		EndTime:   strPtr("09:30"),
		Version:   1,
	}, "admin-001")
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	require.Len(t, ce.Report.Room, 1)
	assert.Equal(t, "s1", ce.Report.Room[0].ID, "教室冲突应指向 s1")

	got, _ := r.sessions.GetByID(context.Background(), "s2")
	assert.Equal(t, "10:00", got.StartTime, "冲突时不应写入")
}

func TestClassSessionService_Update_LocksBothWeekdays(t *testing.T) {
	svc, r := setupTestClassSessionService()
	r.sessions.seed(
		row("s1", "T1", "G5", "A", 1, "08:00", "09:00", ""),
		row("s2", "T1", "G6", "B", 4, "08:00", "09:00", ""),
	)

	_, err := svc.Update(context.Background(), "s1", &dto.UpdateSessionRequest{
		Weekday: intPtr(4),
		Version: 1,
	}, "admin-001")
	require.ErrorIs(t, err, ErrSessionConflict, "移到星期四后与 s2 的教师冲突")
	require.Len(t, r.sessions.locked, 1)
	assert.ElementsMatch(t, []int{1, 4}, r.sessions.locked[0], "跨星期移动应同时锁住原星期与新星期")
	assert.Zero(t, r.logs.countByType(model.ChangeTypeUpdate))
}

func TestClassSessionService_Update_VersionMismatch(t *testing.T) {
	svc, r := setupTestClassSessionService()
	r.sessions.seed(row("s1", "T1", "G5", "A", 1, "08:00", "09:00", ""))

	_, err := svc.Update(context.Background(), "s1", &dto.UpdateSessionRequest{
		Weekday: intPtr(2),
		Version: 5,
	}, "admin-001")
	assert.ErrorIs(t, err, pkgerrors.ErrOptimisticLock)
}

func TestClassSessionService_Update_ClearRoom(t *testing.T) {
	svc, r := setupTestClassSessionService()
	r.sessions.seed(row("s1", "T1", "G5", "A", 1, "08:00", "09:00", "Lab"))

	result, err := svc.Update(context.Background(), "s1", &dto.UpdateSessionRequest{
		Room:    strPtr(""),
		Version: 1,
	}, "admin-001")
	require.NoError(t, err)
	assert.Empty(t, result.Room, "期望教室被清除")
}

// ── Delete 测试 ──

func TestClassSessionService_Delete(t *testing.T) {
	svc, r := setupTestClassSessionService()
	r.sessions.seed(row("s1", "T1", "G5", "A", 1, "08:00", "09:00", ""))

	require.NoError(t, svc.Delete(context.Background(), "s1", "admin-001"))

	_, err := svc.GetByID(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound, "删除后应查不到")
	assert.ErrorIs(t, svc.Delete(context.Background(), "s1", "admin-001"), ErrSessionNotFound, "重复删除")
}

// ── Validate 测试 ──

func TestClassSessionService_Validate_ReportsWithoutPersisting(t *testing.T) {
	svc, r := setupTestClassSessionService()
	r.sessions.seed(row("s1", "T1", "G5", "A", 1, "08:00", "09:00", ""))

	resp, err := svc.Validate(context.Background(), &dto.ValidateSessionRequest{
		CreateSessionRequest: *createReq("T1", "G5", "A", 1, "08:00", "09:00", ""),
		ClientKey:            "form-1",
		Seq:                  1,
	})
	require.NoError(t, err)
	assert.False(t, resp.Valid)
	assert.False(t, resp.Stale)
	assert.Len(t, resp.Conflicts.Teacher, 1)
	assert.Len(t, resp.Conflicts.Section, 1)
	assert.Len(t, r.sessions.sessions, 1, "Validate 不应写入")
	assert.Empty(t, r.sessions.locked, "Validate 不加写锁")
}

func TestClassSessionService_Validate_EditingExcludesSelf(t *testing.T) {
	svc, r := setupTestClassSessionService()
	r.sessions.seed(row("s1", "T1", "G5", "A", 1, "08:00", "09:00", ""))

	resp, err := svc.Validate(context.Background(), &dto.ValidateSessionRequest{
		CreateSessionRequest: *createReq("T1", "G5", "A", 1, "08:15", "09:15", ""),
		SessionID:            "s1",
	})
	require.NoError(t, err)
	assert.True(t, resp.Valid, "编辑自身不应报告冲突: %+v", resp.Conflicts)
}

func TestClassSessionService_Validate_StaleSequence(t *testing.T) {
	svc, _ := setupTestClassSessionService()
	req := func(seq int64) *dto.ValidateSessionRequest {
		return &dto.ValidateSessionRequest{
			CreateSessionRequest: *createReq("T1", "G5", "A", 1, "08:00", "09:00", ""),
			ClientKey:            "form-1",
			Seq:                  seq,
		}
	}

	resp, err := svc.Validate(context.Background(), req(2))
	require.NoError(t, err)
	assert.False(t, resp.Stale, "seq=2 为首个请求，不应过期")

	resp, err = svc.Validate(context.Background(), req(1))
	require.NoError(t, err)
	assert.True(t, resp.Stale, "seq=1 晚于 seq=2 到达，应标记过期")

	resp, err = svc.Validate(context.Background(), req(2))
	require.NoError(t, err)
	assert.False(t, resp.Stale, "重复的最新 seq 不应过期")
}

func TestClassSessionService_Validate_StoreFailureDegrades(t *testing.T) {
	r := newTestRepos()
	svc := NewClassSessionService(r.repo, failingSequenceStore{}, testLogger)

	resp, err := svc.Validate(context.Background(), &dto.ValidateSessionRequest{
		CreateSessionRequest: *createReq("T1", "G5", "A", 1, "08:00", "09:00", ""),
		ClientKey:            "form-1",
		Seq:                  1,
	})
	require.NoError(t, err, "序号存储故障不应导致校验失败")
	assert.False(t, resp.Stale)
	assert.True(t, resp.Valid)
}

// ── ListChangeLogs 测试 ──

func TestClassSessionService_ListChangeLogs(t *testing.T) {
	svc, _ := setupTestClassSessionService()
	ctx := context.Background()

	created, err := svc.Create(ctx, createReq("T1", "G5", "A", 1, "08:00", "09:00", ""), "admin-001")
	require.NoError(t, err)
	_, err = svc.Update(ctx, created.ID, &dto.UpdateSessionRequest{Weekday: intPtr(2), Version: 1}, "admin-002")
	require.NoError(t, err)

	logs, total, err := svc.ListChangeLogs(ctx, created.ID, &dto.PaginationRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, logs, 2)
	assert.Equal(t, model.ChangeTypeUpdate, logs[0].ChangeType, "最新记录应为 update")
	assert.Equal(t, "admin-002", logs[0].OperatorID)
}
