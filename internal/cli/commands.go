package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"school-admin/backend/internal/timetable"
)

func (a *App) checkCmd() *cobra.Command {
	var rec sessionRecord

	cmd := &cobra.Command{
		Use:   "check",
		Short: "检测候选课节与文件中已有课节的冲突",
		Long: `检测候选课节与课节文件中全部启用课节之间的教师、班级、教室冲突。

指定 --id 时视为编辑文件中的同 ID 课节，比较时排除其自身。
存在冲突时以退出码 2 结束。`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			existing, err := a.load()
			if err != nil {
				return err
			}
			candidate, err := rec.session()
			if err != nil {
				return fmt.Errorf("候选课节: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", colorHeader.Sprint("候选"), describe(candidate))

			report := timetable.DetectConflicts(candidate, existing)
			printReport(out, report)
			if report.HasConflict() {
				return ErrConflictsFound
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&rec.ID, "id", "", "编辑已有课节时的课节 ID")
	f.StringVar(&rec.Teacher, "teacher", "", "教师")
	f.StringVar(&rec.Subject, "subject", "", "科目")
	f.StringVar(&rec.Grade, "grade", "", "年级")
	f.StringVar(&rec.Section, "section", "", "班级")
	f.StringVar(&rec.Weekday, "weekday", "", "星期（1..5 或星期名）")
	f.StringVar(&rec.Start, "start", "", "开始时间 HH:MM")
	f.StringVar(&rec.End, "end", "", "结束时间 HH:MM")
	f.StringVar(&rec.Room, "room", "", "教室（可选）")
	for _, name := range []string{"teacher", "subject", "grade", "section", "weekday", "start", "end"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (a *App) freeCmd() *cobra.Command {
	var sc scope
	var weekday string

	cmd := &cobra.Command{
		Use:   "free",
		Short: "列出某天的空闲时段",
		RunE: func(cmd *cobra.Command, _ []string) error {
			keep, _, err := sc.filter()
			if err != nil {
				return err
			}
			window, err := a.window()
			if err != nil {
				return err
			}
			sessions, err := a.load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			days := timetable.Weekdays
			if weekday != "" {
				day, err := timetable.ParseWeekday(weekday)
				if err != nil {
					return err
				}
				days = []timetable.Weekday{day}
			}

			scoped := timetable.Filter(sessions, keep)
			for _, day := range days {
				printFreeSlots(out, day, window, timetable.FreeSlots(day, scoped, window))
			}
			return nil
		},
	}

	sc.bind(cmd)
	cmd.Flags().StringVar(&weekday, "weekday", "", "星期（缺省列出整周）")
	return cmd
}

func (a *App) gridCmd() *cobra.Command {
	var sc scope
	var floor, ceiling, padding int

	cmd := &cobra.Command{
		Use:   "grid",
		Short: "按小时输出整周视图",
		RunE: func(cmd *cobra.Command, _ []string) error {
			keep, label, err := sc.filter()
			if err != nil {
				return err
			}
			window, err := a.window()
			if err != nil {
				return err
			}
			cfg := timetable.GridConfig{FloorHour: floor, CeilingHour: ceiling, Padding: padding}
			if err := cfg.Validate(); err != nil {
				return err
			}
			sessions, err := a.load()
			if err != nil {
				return err
			}

			grid := timetable.ProjectWeek(timetable.Filter(sessions, keep), window, cfg)
			return printGrid(cmd.OutOrStdout(), "课表 "+label, grid)
		},
	}

	sc.bind(cmd)
	def := timetable.DefaultGridConfig
	cmd.Flags().IntVar(&floor, "floor", def.FloorHour, "最早显示的整点")
	cmd.Flags().IntVar(&ceiling, "ceiling", def.CeilingHour, "最晚显示的整点")
	cmd.Flags().IntVar(&padding, "padding", def.Padding, "两端额外显示的小时数")
	return cmd
}

func (a *App) duplicateCmd() *cobra.Command {
	var from, to timetable.SectionRef
	var policy string
	var write bool

	cmd := &cobra.Command{
		Use:   "duplicate",
		Short: "将一个班级的课节复制到另一个班级",
		Long: `将源班级的全部启用课节复制到目标班级，保留教师、科目、时间与教室。

与其他课节冲突的副本被跳过。--policy all_or_nothing 时任一副本冲突则不写入任何课节。
缺省只预演；指定 --write 时把可提交的副本追加写回课节文件。`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !from.Valid() || !to.Valid() {
				return errors.New("源与目标都必须指定年级和班级")
			}
			if from == to {
				return errors.New("源班级与目标班级相同")
			}
			p, err := timetable.ParseDuplicatePolicy(policy)
			if err != nil {
				return err
			}
			sessions, err := a.load()
			if err != nil {
				return err
			}

			result := timetable.Duplicate(from, to, sessions)
			committed := result.Committable(p)

			out := cmd.OutOrStdout()
			printDuplicate(out, result, committed)
			if len(committed) == 0 || !write {
				if !write {
					fmt.Fprintln(out, colorMuted.Sprint("预演模式，未写入文件"))
				}
				return nil
			}

			assignIDs(sessions, committed)
			if err := SaveSessions(a.file, append(sessions, committed...)); err != nil {
				return err
			}
			fmt.Fprintf(out, "已写入 %d 个课节到 %s\n", len(committed), a.file)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&from.GradeID, "from-grade", "", "源年级")
	f.StringVar(&from.SectionID, "from-section", "", "源班级")
	f.StringVar(&to.GradeID, "to-grade", "", "目标年级")
	f.StringVar(&to.SectionID, "to-section", "", "目标班级")
	f.StringVar(&policy, "policy", string(timetable.DuplicatePartial), "冲突策略 partial / all_or_nothing")
	f.BoolVar(&write, "write", false, "写回课节文件")
	return cmd
}
