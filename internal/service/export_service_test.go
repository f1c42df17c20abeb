package service

import (
	"context"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"school-admin/backend/internal/dto"
)

// ── 测试辅助 ──

func setupTestExportService() (*exportService, *testRepos) {
	r := newTestRepos()
	opts := DefaultOptions()
	opts.Location = time.FixedZone("CST", -6*60*60)

	svc := NewExportService(r.repo, opts, testLogger).(*exportService)
	svc.now = func() time.Time { return time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC) }
	return svc, r
}

func seedExportSessions(r *testRepos) {
	r.sessions.seed(
		row("s1", "T1", "G5", "A", 1, "08:00", "09:00", "Lab"),
		row("s2", "T2", "G5", "A", 3, "10:30", "11:15", ""),
		row("s3", "T1", "G6", "B", 2, "08:00", "09:00", ""),
	)
}

func cellValue(t *testing.T, f *excelize.File, sheet, axis string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, axis)
	require.NoError(t, err)
	return v
}

// ── ExportXLSX 测试 ──

func TestExportService_ExportXLSX(t *testing.T) {
	svc, r := setupTestExportService()
	seedExportSessions(r)

	buf, filename, err := svc.ExportXLSX(context.Background(), &dto.ExportRequest{ScopeRequest: sectionScope("G5", "A")})
	require.NoError(t, err)
	assert.Equal(t, "课表_G5-A.xlsx", filename)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err, "生成的文件应可被解析")
	defer f.Close()

	require.Equal(t, []string{"课表", "明细"}, f.GetSheetList())
	assert.Equal(t, "周一", cellValue(t, f, "课表", "B2"))

	// 本班课节覆盖 8 点至 12 点，加 1 小时留白后从 7 点开始：07:00 在第 3 行，08:00 在第 4 行
	assert.Equal(t, "07:00-08:00", cellValue(t, f, "课表", "A3"))
	assert.Equal(t, "08:00-09:00", cellValue(t, f, "课表", "A4"))
	b4 := cellValue(t, f, "课表", "B4")
	assert.Contains(t, b4, "subj-T1", "B4 应包含周一 8 点的课节")
	assert.Contains(t, b4, "@Lab")
	assert.Equal(t, "-", cellValue(t, f, "课表", "C4"), "周二 8 点无本班课节")
	// 最后一行 12:00-13:00 位于第 8 行
	assert.Equal(t, "12:00-13:00", cellValue(t, f, "课表", "A8"))
	assert.Empty(t, cellValue(t, f, "课表", "A9"))

	rows, err := f.GetRows("明细")
	require.NoError(t, err)
	require.Len(t, rows, 3, "明细期望表头加 2 行")
	assert.Equal(t, "周一", rows[1][0], "明细应按星期排序")
	assert.Equal(t, "周三", rows[2][0])
}

func TestExportService_ExportXLSX_Errors(t *testing.T) {
	svc, r := setupTestExportService()
	seedExportSessions(r)

	_, _, err := svc.ExportXLSX(context.Background(), &dto.ExportRequest{ScopeRequest: sectionScope("G9", "Z")})
	assert.ErrorIs(t, err, ErrExportNoSessions)
	_, _, err = svc.ExportXLSX(context.Background(), &dto.ExportRequest{})
	assert.ErrorIs(t, err, ErrInvalidScope)
}

// ── ExportICS 测试 ──

func TestExportService_ExportICS(t *testing.T) {
	svc, r := setupTestExportService()
	seedExportSessions(r)

	buf, filename, err := svc.ExportICS(context.Background(), &dto.ExportRequest{
		ScopeRequest: dto.ScopeRequest{TeacherID: "T1"},
		WeekOf:       "2026-03-04", // 周三
		Weeks:        10,
	})
	require.NoError(t, err)
	assert.Equal(t, "课表_教师-T1.ics", filename)

	cal, err := ics.ParseCalendar(strings.NewReader(buf.String()))
	require.NoError(t, err, "生成的 ICS 应可被解析")
	events := cal.Events()
	require.Len(t, events, 2, "教师 T1 期望 2 个事件")

	first := events[0]
	start := first.GetProperty(ics.ComponentPropertyDtStart)
	require.NotNil(t, start)
	assert.Equal(t, "20260302T080000", start.Value, "周一课节应从 2026-03-02 08:00 开始")
	assert.Equal(t, []string{"CST"}, start.ICalParameters[string(ics.ParameterTzid)], "DTSTART 应携带 TZID=CST")

	rrule := first.GetProperty(ics.ComponentPropertyRrule)
	require.NotNil(t, rrule)
	assert.Equal(t, "FREQ=WEEKLY;COUNT=10", rrule.Value)

	loc := first.GetProperty(ics.ComponentPropertyLocation)
	require.NotNil(t, loc)
	assert.Equal(t, "Lab", loc.Value)

	second := events[1].GetProperty(ics.ComponentPropertyDtStart)
	require.NotNil(t, second)
	assert.Equal(t, "20260303T080000", second.Value, "周二课节应从 2026-03-03 08:00 开始")

	// UID 由课节 ID 派生，重复导出保持不变
	assert.Equal(t, sessionUID("s1"), first.Id())
}

func TestExportService_ExportICS_DefaultsToCurrentWeek(t *testing.T) {
	svc, r := setupTestExportService()
	seedExportSessions(r)

	buf, _, err := svc.ExportICS(context.Background(), &dto.ExportRequest{ScopeRequest: sectionScope("G5", "A")})
	require.NoError(t, err)
	cal, err := ics.ParseCalendar(strings.NewReader(buf.String()))
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 2)
	// 2026-03-04 所在周的周三 10:30
	start := events[1].GetProperty(ics.ComponentPropertyDtStart)
	require.NotNil(t, start)
	assert.Equal(t, "20260304T103000", start.Value)
	rrule := events[1].GetProperty(ics.ComponentPropertyRrule)
	require.NotNil(t, rrule)
	assert.Equal(t, "FREQ=WEEKLY;COUNT=16", rrule.Value, "默认重复周数应为 16")
}

func TestExportService_WeekStart(t *testing.T) {
	svc, _ := setupTestExportService()

	cases := map[string]string{
		"2026-03-02": "2026-03-02", // 周一
		"2026-03-06": "2026-03-02", // 周五
		"2026-03-08": "2026-03-02", // 周日
	}
	for in, want := range cases {
		got, err := svc.weekStart(in)
		require.NoError(t, err, "weekStart(%s)", in)
		assert.Equal(t, want, got.Format("2006-01-02"), "weekStart(%s)", in)
	}

	_, err := svc.weekStart("03/04/2026")
	assert.ErrorIs(t, err, ErrExportInvalidWeek)
}
