package timetable

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingReference 课节缺少必填的外部引用
var ErrMissingReference = errors.New("课节缺少必填引用字段")

// Session 一次排定的课节
type Session struct {
	ID        string    `json:"id,omitempty"`
	TeacherID string    `json:"teacher_id"`
	SubjectID string    `json:"subject_id"`
	GradeID   string    `json:"grade_id"`
	SectionID string    `json:"section_id"`
	Weekday   Weekday   `json:"weekday"`
	Start     TimeOfDay `json:"start"`
	End       TimeOfDay `json:"end"`
	Room      string    `json:"room,omitempty"` // 空值表示不参与教室约束
	Active    bool      `json:"active"`
}

// SectionRef 年级 + 班级组合
type SectionRef struct {
	GradeID   string `json:"grade_id"`
	SectionID string `json:"section_id"`
}

// Valid 两个引用均非空
func (r SectionRef) Valid() bool {
	return r.GradeID != "" && r.SectionID != ""
}

// Validate 校验调用冲突检测前必须满足的前置条件
func (s Session) Validate() error {
	var missing []string
	if s.TeacherID == "" {
		missing = append(missing, "teacher_id")
	}
	if s.SubjectID == "" {
		missing = append(missing, "subject_id")
	}
	if s.GradeID == "" {
		missing = append(missing, "grade_id")
	}
	if s.SectionID == "" {
		missing = append(missing, "section_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingReference, strings.Join(missing, ", "))
	}
	if !s.Weekday.Valid() {
		return ErrInvalidWeekday
	}
	return s.Interval().Validate()
}

// Interval 课节时间区间
func (s Session) Interval() Interval {
	return Interval{Start: s.Start, End: s.End}
}

// Section 所属年级班级
func (s Session) Section() SectionRef {
	return SectionRef{GradeID: s.GradeID, SectionID: s.SectionID}
}

// InSection 是否属于指定年级班级；空引用永不匹配
func (s Session) InSection(ref SectionRef) bool {
	return ref.Valid() && s.GradeID == ref.GradeID && s.SectionID == ref.SectionID
}

// RoomKey 参与比较的教室标签（去除首尾空白）
func (s Session) RoomKey() string {
	return strings.TrimSpace(s.Room)
}

// ── 过滤器：均返回新切片，不修改入参 ──

// Filter 按谓词过滤，保持原有顺序
func Filter(sessions []Session, keep func(Session) bool) []Session {
	out := make([]Session, 0, len(sessions))
	for _, s := range sessions {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

// FilterActive 仅保留启用的课节
func FilterActive(sessions []Session) []Session {
	return Filter(sessions, func(s Session) bool { return s.Active })
}

// FilterWeekday 仅保留指定星期的启用课节
func FilterWeekday(sessions []Session, day Weekday) []Session {
	return Filter(sessions, func(s Session) bool { return s.Active && s.Weekday == day })
}

// FilterSection 仅保留指定年级班级的课节
func FilterSection(sessions []Session, ref SectionRef) []Session {
	return Filter(sessions, func(s Session) bool { return s.InSection(ref) })
}

// FilterTeacher 仅保留指定教师的课节
func FilterTeacher(sessions []Session, teacherID string) []Session {
	return Filter(sessions, func(s Session) bool { return teacherID != "" && s.TeacherID == teacherID })
}
