package timetable

// ConflictReport 冲突报告：按三类资源约束分别列出与候选课节冲突的已有课节。
// 三个列表均为空表示无冲突。冲突以数据形式返回，从不作为 error 抛出。
type ConflictReport struct {
	Teacher []Session `json:"teacher_conflicts"`
	Section []Session `json:"section_conflicts"`
	Room    []Session `json:"room_conflicts"`
}

// HasConflict 是否存在任一冲突
func (r ConflictReport) HasConflict() bool {
	return r.Total() > 0
}

// Total 冲突条目总数（同一课节可能在多个列表中重复出现）
func (r ConflictReport) Total() int {
	return len(r.Teacher) + len(r.Section) + len(r.Room)
}

// DetectConflicts 检测候选课节与已有课节集合之间的冲突。
//
// 前置条件：candidate.Validate() 已通过（Start < End）。违反时结果未定义。
//
// 规则：
//   - 候选课节带 ID 时，排除集合中相同 ID 的记录（编辑场景的自排除）
//   - 只比较启用的课节
//   - 教师 / 年级班级 / 教室三类约束相互独立，全部执行
//   - 空引用字段不匹配任何记录
//
// 结果顺序与 existing 一致。
func DetectConflicts(candidate Session, existing []Session) ConflictReport {
	report := ConflictReport{
		Teacher: []Session{},
		Section: []Session{},
		Room:    []Session{},
	}
	room := candidate.RoomKey()

	for _, e := range existing {
		if candidate.ID != "" && e.ID == candidate.ID {
			continue
		}
		if !e.Active || e.Weekday != candidate.Weekday {
			continue
		}
		if !Overlaps(candidate.Start, candidate.End, e.Start, e.End) {
			continue
		}

		// 教师约束
		if candidate.TeacherID != "" && e.TeacherID == candidate.TeacherID {
			report.Teacher = append(report.Teacher, e)
		}
		// 年级班级约束：同一班级不能同时上两节课
		if candidate.GradeID != "" && candidate.SectionID != "" &&
			e.GradeID == candidate.GradeID && e.SectionID == candidate.SectionID {
			report.Section = append(report.Section, e)
		}
		// 教室约束：双方都填写了教室才参与比较
		if room != "" && e.RoomKey() == room {
			report.Room = append(report.Room, e)
		}
	}

	return report
}
