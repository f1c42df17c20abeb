package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"school-admin/backend/internal/timetable"
)

var (
	colorHeader   = color.New(color.Bold)
	colorOK       = color.New(color.FgGreen)
	colorConflict = color.New(color.FgRed, color.Bold)
	colorFree     = color.New(color.FgCyan)
	colorMuted    = color.New(color.FgWhite, color.Faint)
)

var weekdayLabels = map[timetable.Weekday]string{
	timetable.Monday:    "周一",
	timetable.Tuesday:   "周二",
	timetable.Wednesday: "周三",
	timetable.Thursday:  "周四",
	timetable.Friday:    "周五",
}

func describe(s timetable.Session) string {
	text := fmt.Sprintf("%s %s-%s %s 教师 %s 班级 %s-%s",
		weekdayLabels[s.Weekday], s.Start, s.End, s.SubjectID, s.TeacherID, s.GradeID, s.SectionID)
	if s.Room != "" {
		text += " 教室 " + s.Room
	}
	if s.ID != "" {
		text += colorMuted.Sprintf(" [%s]", s.ID)
	}
	return text
}

func printReport(w io.Writer, report timetable.ConflictReport) {
	if !report.HasConflict() {
		fmt.Fprintln(w, colorOK.Sprint("无冲突"))
		return
	}

	groups := []struct {
		label    string
		sessions []timetable.Session
	}{
		{"教师冲突", report.Teacher},
		{"班级冲突", report.Section},
		{"教室冲突", report.Room},
	}
	for _, g := range groups {
		if len(g.sessions) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s (%d)\n", colorConflict.Sprint(g.label), len(g.sessions))
		for _, s := range g.sessions {
			fmt.Fprintf(w, "  - %s\n", describe(s))
		}
	}
}

func printFreeSlots(w io.Writer, day timetable.Weekday, window timetable.Window, slots []timetable.FreeSlot) {
	fmt.Fprintf(w, "%s %s-%s\n", colorHeader.Sprint(weekdayLabels[day]), window.Start, window.End)
	if len(slots) == 0 {
		fmt.Fprintln(w, colorMuted.Sprint("  没有空闲时段"))
		return
	}
	for _, f := range slots {
		fmt.Fprintf(w, "  %s  %d 分钟\n", colorFree.Sprintf("%s-%s", f.Start, f.End), f.Minutes())
	}
}

// gridCell 格子文本：课节以 "科目/教师" 列出，仅有空闲时段时为 "·"，否则为空
func gridCell(cell timetable.Cell) string {
	if len(cell.Sessions) > 0 {
		parts := make([]string, 0, len(cell.Sessions))
		for _, s := range cell.Sessions {
			parts = append(parts, s.SubjectID+"/"+s.TeacherID)
		}
		return strings.Join(parts, ",")
	}
	if len(cell.Gaps) > 0 {
		return "·"
	}
	return ""
}

// printGrid 表格本身不着色，避免转义序列破坏列对齐
func printGrid(w io.Writer, title string, grid timetable.Grid) error {
	fmt.Fprintln(w, colorHeader.Sprint(title))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := []string{"时间"}
	for _, day := range timetable.Weekdays {
		header = append(header, weekdayLabels[day])
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, row := range grid.Rows {
		cols := []string{fmt.Sprintf("%02d:00", row.Hour)}
		for _, c := range row.Cells {
			cols = append(cols, gridCell(c.Cell))
		}
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
	}
	return tw.Flush()
}

func printDuplicate(w io.Writer, result timetable.DuplicateResult, committed []timetable.Session) {
	fmt.Fprintf(w, "%s %d，%s %d\n",
		colorOK.Sprint("可复制"), len(result.Created),
		colorConflict.Sprint("跳过"), len(result.Skipped))
	for _, s := range committed {
		fmt.Fprintf(w, "  + %s\n", describe(s))
	}
	for _, sk := range result.Skipped {
		fmt.Fprintf(w, "  x %s\n", describe(sk.Original))
		printReport(indent{w}, sk.Report)
	}
}

// indent 为嵌套输出的每行加四个空格
type indent struct{ w io.Writer }

func (i indent) Write(p []byte) (int, error) {
	lines := strings.SplitAfter(string(p), "\n")
	for _, l := range lines {
		if l == "" {
			continue
		}
		if _, err := io.WriteString(i.w, "    "+l); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}
