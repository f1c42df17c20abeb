package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"school-admin/backend/internal/dto"
	"school-admin/backend/internal/repository"
	"school-admin/backend/internal/timetable"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoSessions   = errors.New("所选范围内没有启用的课节")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
	ErrExportInvalidWeek  = errors.New("week_of 格式错误，应为 YYYY-MM-DD")
)

const (
	defaultExportWeeks = 16
	icsProductID       = "-//school-admin//timetable//ZH"
)

// ExportService 课表导出业务接口
//
// 导出范围与课表视图一致（年级+班级 或 教师），只包含启用课节。
// 文件内容以 bytes.Buffer 返回，由 Handler 层设置响应头后写入。
type ExportService interface {
	// ExportXLSX 导出周视图 Excel：Sheet「课表」为小时×星期网格，Sheet「明细」为课节清单
	ExportXLSX(ctx context.Context, req *dto.ExportRequest) (*bytes.Buffer, string, error)
	// ExportICS 导出 iCalendar，每个课节为一个按周重复的事件
	ExportICS(ctx context.Context, req *dto.ExportRequest) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, opts Options, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, opts: opts, logger: logger, now: time.Now}
}

var weekdayNames = map[timetable.Weekday]string{
	timetable.Monday:    "周一",
	timetable.Tuesday:   "周二",
	timetable.Wednesday: "周三",
	timetable.Thursday:  "周四",
	timetable.Friday:    "周五",
}

// ═══════════════════════════════════════════════════════════
// ExportXLSX：周视图 Excel
// ═══════════════════════════════════════════════════════════
//
// Sheet「课表」：
//   - 第 1 行标题，第 2 行表头：时间 | 周一 ~ 周五
//   - 每个小时一行，行范围与周视图一致
//   - 单元格：该小时内的课节，每行一个；无课为 "-"
// Sheet「明细」：按星期、开始时间排序的课节清单

func (s *exportService) ExportXLSX(ctx context.Context, req *dto.ExportRequest) (*bytes.Buffer, string, error) {
	sessions, label, err := s.scoped(ctx, &req.ScopeRequest)
	if err != nil {
		return nil, "", err
	}
	byTeacher := req.TeacherID != ""
	grid := timetable.ProjectWeek(sessions, s.opts.Window, s.opts.Grid)

	f := excelize.NewFile()
	defer f.Close()

	const gridSheet, detailSheet = "课表", "明细"
	idx, err := f.NewSheet(gridSheet)
	if err != nil {
		return nil, "", s.generateFailed(err)
	}
	f.SetActiveSheet(idx)
	if _, err := f.NewSheet(detailSheet); err != nil {
		return nil, "", s.generateFailed(err)
	}
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	bodyStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})

	// ── 课表 ──
	f.SetColWidth(gridSheet, "A", "A", 14)
	f.SetColWidth(gridSheet, "B", colName(len(timetable.Weekdays)), 26)

	f.SetCellValue(gridSheet, "A1", "课表："+label)
	f.MergeCell(gridSheet, "A1", cell(colName(len(timetable.Weekdays)), 1))
	f.SetCellStyle(gridSheet, "A1", "A1", headerStyle)

	f.SetCellValue(gridSheet, cell("A", 2), "时间")
	for i, day := range timetable.Weekdays {
		f.SetCellValue(gridSheet, cell(colName(i+1), 2), weekdayNames[day])
	}
	f.SetCellStyle(gridSheet, "A2", cell(colName(len(timetable.Weekdays)), 2), headerStyle)

	row := 3
	for _, r := range grid.Rows {
		f.SetCellValue(gridSheet, cell("A", row), fmt.Sprintf("%02d:00-%02d:00", r.Hour, r.Hour+1))
		for i, c := range r.Cells {
			f.SetCellValue(gridSheet, cell(colName(i+1), row), cellText(c.Sessions, byTeacher))
		}
		row++
	}
	if row > 3 {
		f.SetCellStyle(gridSheet, "B3", cell(colName(len(timetable.Weekdays)), row-1), bodyStyle)
	}

	// ── 明细 ──
	headers := []string{"星期", "开始", "结束", "科目", "教师", "年级", "班级", "教室"}
	for i, h := range headers {
		f.SetCellValue(detailSheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(detailSheet, "A1", cell(colName(len(headers)-1), 1), headerStyle)
	f.SetColWidth(detailSheet, "A", colName(len(headers)-1), 14)

	for i, sess := range sessions {
		values := []interface{}{
			weekdayNames[sess.Weekday], sess.Start.String(), sess.End.String(),
			sess.SubjectID, sess.TeacherID, sess.GradeID, sess.SectionID, sess.Room,
		}
		for j, v := range values {
			f.SetCellValue(detailSheet, cell(colName(j), i+2), v)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, "", s.generateFailed(err)
	}
	return buf, fmt.Sprintf("课表_%s.xlsx", label), nil
}

// ═══════════════════════════════════════════════════════════
// ExportICS：iCalendar
// ═══════════════════════════════════════════════════════════
//
// 每个课节生成一个 VEVENT：
//   - 首次上课日期为 week_of 所在周对应星期
//   - DTSTART/DTEND 使用配置时区的本地时间（TZID 参数）
//   - RRULE:FREQ=WEEKLY;COUNT=weeks
//   - UID 由课节 ID 派生，重复导出时保持不变，日历客户端可据此更新

func (s *exportService) ExportICS(ctx context.Context, req *dto.ExportRequest) (*bytes.Buffer, string, error) {
	sessions, label, err := s.scoped(ctx, &req.ScopeRequest)
	if err != nil {
		return nil, "", err
	}

	monday, err := s.weekStart(req.WeekOf)
	if err != nil {
		return nil, "", err
	}
	weeks := req.Weeks
	if weeks <= 0 {
		weeks = defaultExportWeeks
	}
	byTeacher := req.TeacherID != ""
	tzid := s.opts.Location.String()
	stamp := s.now().UTC()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetXWRCalName("课表 " + label)
	cal.SetXWRTimezone(tzid)

	for _, sess := range sessions {
		day := monday.AddDate(0, 0, int(sess.Weekday)-1)
		start, end := atTime(day, sess.Start), atTime(day, sess.End)

		event := cal.AddEvent(sessionUID(sess.ID))
		event.SetDtStampTime(stamp)
		event.SetProperty(ics.ComponentPropertyDtStart, start.Format("20060102T150405"),
			&ics.KeyValues{Key: string(ics.ParameterTzid), Value: []string{tzid}})
		event.SetProperty(ics.ComponentPropertyDtEnd, end.Format("20060102T150405"),
			&ics.KeyValues{Key: string(ics.ParameterTzid), Value: []string{tzid}})
		event.AddProperty(ics.ComponentPropertyRrule, fmt.Sprintf("FREQ=WEEKLY;COUNT=%d", weeks))
		event.SetSummary(sessionTitle(sess, byTeacher))
		event.SetDescription(fmt.Sprintf("教师 %s，%s/%s", sess.TeacherID, sess.GradeID, sess.SectionID))
		if sess.Room != "" {
			event.SetLocation(sess.Room)
		}
	}

	buf := bytes.NewBufferString(cal.Serialize())
	s.logger.Info("课表 ICS 已导出",
		zap.String("scope", label),
		zap.Int("events", len(sessions)),
		zap.Int("weeks", weeks),
	)
	return buf, fmt.Sprintf("课表_%s.ics", label), nil
}

// ── 内部辅助方法 ──

// scoped 按范围筛选启用课节并排序，返回文件名使用的范围标签
func (s *exportService) scoped(ctx context.Context, scope *dto.ScopeRequest) ([]timetable.Session, string, error) {
	keep, err := scopeFilter(scope)
	if err != nil {
		return nil, "", err
	}
	all, err := loadSessions(ctx, s.repo.ClassSession, s.logger)
	if err != nil {
		return nil, "", err
	}

	sessions := timetable.FilterActive(timetable.Filter(all, keep))
	if len(sessions) == 0 {
		return nil, "", ErrExportNoSessions
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].Weekday != sessions[j].Weekday {
			return sessions[i].Weekday < sessions[j].Weekday
		}
		return sessions[i].Start < sessions[j].Start
	})

	label := scope.GradeID + "-" + scope.SectionID
	if scope.TeacherID != "" {
		label = "教师-" + scope.TeacherID
	}
	return sessions, label, nil
}

// weekStart week_of 所在周的周一零点（配置时区），缺省为本周
func (s *exportService) weekStart(weekOf string) (time.Time, error) {
	loc := s.opts.Location
	ref := s.now().In(loc)
	if weekOf != "" {
		d, err := time.ParseInLocation("2006-01-02", weekOf, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", ErrExportInvalidWeek, err)
		}
		ref = d
	}

	offset := (int(ref.Weekday()) + 6) % 7 // 周一为 0
	y, m, d := ref.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
}

func (s *exportService) generateFailed(err error) error {
	s.logger.Error("生成 Excel 失败", zap.Error(err))
	return ErrExportGenerateFail
}

func atTime(day time.Time, t timetable.TimeOfDay) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour(), int(t)%60, 0, 0, day.Location())
}

// sessionUID 由课节 ID 派生稳定的事件 UID
func sessionUID(id string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("class-session:"+id)).String() + "@school-admin"
}

// sessionTitle 按教师导出时标注班级，按班级导出时标注教师
func sessionTitle(sess timetable.Session, byTeacher bool) string {
	if byTeacher {
		return fmt.Sprintf("%s（%s/%s）", sess.SubjectID, sess.GradeID, sess.SectionID)
	}
	return fmt.Sprintf("%s（%s）", sess.SubjectID, sess.TeacherID)
}

func cellText(sessions []timetable.Session, byTeacher bool) string {
	if len(sessions) == 0 {
		return "-"
	}
	lines := make([]string, 0, len(sessions))
	for _, sess := range sessions {
		line := fmt.Sprintf("%s-%s %s", sess.Start, sess.End, sessionTitle(sess, byTeacher))
		if sess.Room != "" {
			line += " @" + sess.Room
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
