// Package cli 离线课表工具：对 TOML 课节文件执行冲突检测、空闲时段、周视图与整班复制
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"school-admin/backend/internal/timetable"
)

// ErrConflictsFound check 发现冲突，调用方以退出码 2 结束
var ErrConflictsFound = errors.New("发现冲突")

var (
	// Version 构建时注入
	Version = "dev"
)

// App 命令行应用
type App struct {
	root *cobra.Command

	file     string
	noColor  bool
	dayStart string
	dayEnd   string
}

// NewApp 创建命令行应用，out 为标准输出
func NewApp(out, errOut io.Writer) *App {
	a := &App{}

	a.root = &cobra.Command{
		Use:           "timetablectl",
		Short:         "离线课表冲突检测工具",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if a.noColor {
				color.NoColor = true
			}
		},
	}
	a.root.SetOut(out)
	a.root.SetErr(errOut)

	flags := a.root.PersistentFlags()
	flags.StringVarP(&a.file, "file", "f", "timetable.toml", "课节文件（TOML，[[session]] 表）")
	flags.BoolVar(&a.noColor, "no-color", false, "关闭彩色输出")
	flags.StringVar(&a.dayStart, "day-start", timetable.DefaultWindow.Start.String(), "工作日窗口起点 HH:MM")
	flags.StringVar(&a.dayEnd, "day-end", timetable.DefaultWindow.End.String(), "工作日窗口终点 HH:MM")

	a.root.AddCommand(a.checkCmd())
	a.root.AddCommand(a.freeCmd())
	a.root.AddCommand(a.gridCmd())
	a.root.AddCommand(a.duplicateCmd())

	return a
}

// Execute 执行命令；SetArgs 为 nil 时读取 os.Args
func (a *App) Execute(args []string) error {
	if args != nil {
		a.root.SetArgs(args)
	}
	return a.root.Execute()
}

func (a *App) load() ([]timetable.Session, error) {
	return LoadSessions(a.file)
}

func (a *App) window() (timetable.Window, error) {
	w, err := timetable.ParseInterval(a.dayStart, a.dayEnd)
	if err != nil {
		return timetable.Window{}, fmt.Errorf("工作日窗口: %w", err)
	}
	return w, nil
}

// scope 年级+班级 或 教师 二选一
type scope struct {
	grade, section, teacher string
}

func (s *scope) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.grade, "grade", "", "年级")
	cmd.Flags().StringVar(&s.section, "section", "", "班级")
	cmd.Flags().StringVar(&s.teacher, "teacher", "", "教师")
}

func (s scope) filter() (func(timetable.Session) bool, string, error) {
	ref := timetable.SectionRef{GradeID: s.grade, SectionID: s.section}
	switch {
	case ref.Valid() && s.teacher == "":
		return func(x timetable.Session) bool { return x.InSection(ref) }, s.grade + "-" + s.section, nil
	case s.teacher != "" && s.grade == "" && s.section == "":
		return func(x timetable.Session) bool { return x.TeacherID == s.teacher }, "教师 " + s.teacher, nil
	default:
		return nil, "", errors.New("请指定 --grade 与 --section，或仅指定 --teacher")
	}
}
