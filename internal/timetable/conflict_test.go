package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sess 构造启用课节，科目固定为 math
func sess(id, teacher, grade, section string, day Weekday, start, end, room string) Session {
	return Session{
		ID:        id,
		TeacherID: teacher,
		SubjectID: "math",
		GradeID:   grade,
		SectionID: section,
		Weekday:   day,
		Start:     MustParseTimeOfDay(start),
		End:       MustParseTimeOfDay(end),
		Room:      room,
		Active:    true,
	}
}

func deactivated(s Session) Session {
	s.Active = false
	return s
}

func ids(sessions []Session) []string {
	out := make([]string, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.ID)
	}
	return out
}

func TestDetectConflicts_TeacherScenario(t *testing.T) {
	existing := []Session{sess("1", "T1", "5", "A", Monday, "08:00", "09:00", "A1")}
	candidate := sess("", "T1", "6", "B", Monday, "08:30", "09:30", "A2")

	report := DetectConflicts(candidate, existing)

	assert.Equal(t, []string{"1"}, ids(report.Teacher))
	assert.Empty(t, report.Section)
	assert.Empty(t, report.Room)
	assert.True(t, report.HasConflict())
	assert.Equal(t, 1, report.Total())
}

func TestDetectConflicts_TouchingEndpoints(t *testing.T) {
	a := sess("1", "T1", "5", "A", Monday, "09:00", "10:00", "A1")
	b := sess("2", "T1", "5", "A", Monday, "10:00", "11:00", "A1")

	assert.False(t, DetectConflicts(a, []Session{b}).HasConflict())
	assert.False(t, DetectConflicts(b, []Session{a}).HasConflict())
}

func TestDetectConflicts_SelfExclusion(t *testing.T) {
	stored := sess("5", "T1", "5", "A", Monday, "08:00", "09:00", "A1")
	other := sess("6", "T2", "5", "A", Monday, "08:30", "09:30", "")

	report := DetectConflicts(stored, []Session{stored, other})

	assert.Empty(t, report.Teacher)
	assert.Equal(t, []string{"6"}, ids(report.Section))
	assert.Empty(t, report.Room)
}

func TestDetectConflicts_AllConstraintsIndependent(t *testing.T) {
	existing := []Session{
		sess("1", "T1", "5", "A", Tuesday, "10:00", "11:00", "Lab"),
		sess("2", "T9", "5", "A", Tuesday, "10:30", "11:30", ""),
		sess("3", "T8", "7", "C", Tuesday, "10:15", "10:45", " Lab "),
		sess("4", "T1", "5", "A", Wednesday, "10:00", "11:00", "Lab"),
	}
	candidate := sess("", "T1", "5", "A", Tuesday, "10:00", "11:00", "Lab")

	report := DetectConflicts(candidate, existing)

	assert.Equal(t, []string{"1"}, ids(report.Teacher))
	assert.Equal(t, []string{"1", "2"}, ids(report.Section), "结果顺序与输入一致")
	assert.Equal(t, []string{"1", "3"}, ids(report.Room), "教室标签去除首尾空白后比较")
	assert.Equal(t, 5, report.Total())
}

func TestDetectConflicts_InactiveIgnored(t *testing.T) {
	inactive := sess("1", "T1", "5", "A", Monday, "08:00", "09:00", "A1")
	inactive.Active = false

	report := DetectConflicts(sess("", "T1", "5", "A", Monday, "08:00", "09:00", "A1"), []Session{inactive})
	assert.False(t, report.HasConflict())
}

func TestDetectConflicts_EmptyReferencesNeverMatch(t *testing.T) {
	existing := []Session{sess("1", "", "", "", Monday, "08:00", "09:00", "")}
	candidate := sess("", "", "", "", Monday, "08:00", "09:00", "")

	report := DetectConflicts(candidate, existing)

	require.NotNil(t, report.Teacher)
	assert.Empty(t, report.Teacher)
	assert.Empty(t, report.Section)
	assert.Empty(t, report.Room)
}

func TestDetectConflicts_DoesNotMutateInput(t *testing.T) {
	existing := []Session{
		sess("1", "T1", "5", "A", Monday, "08:00", "09:00", "A1"),
		sess("2", "T2", "5", "B", Monday, "08:00", "09:00", "A1"),
	}
	before := append([]Session(nil), existing...)

	DetectConflicts(sess("", "T1", "5", "B", Monday, "08:30", "09:30", "A1"), existing)

	assert.Equal(t, before, existing)
}
