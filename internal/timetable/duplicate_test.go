package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	grade5A = SectionRef{GradeID: "5", SectionID: "A"}
	grade5B = SectionRef{GradeID: "5", SectionID: "B"}
)

func TestDuplicate_EmptyTarget(t *testing.T) {
	off := sess("3", "T3", "5", "A", Friday, "08:00", "09:00", "")
	off.Active = false
	all := []Session{
		sess("1", "T1", "5", "A", Monday, "08:00", "09:00", ""),
		sess("2", "T2", "5", "A", Tuesday, "10:00", "11:00", ""),
		off,
	}

	result := Duplicate(grade5A, grade5B, all)

	assert.Empty(t, result.Skipped)
	require.Len(t, result.Created, 2, "只复制启用课节")
	for _, c := range result.Created {
		assert.Empty(t, c.ID)
		assert.Equal(t, grade5B, c.Section())
	}
	assert.Equal(t, "T1", result.Created[0].TeacherID)
	assert.Equal(t, Monday, result.Created[0].Weekday)
	assert.True(t, result.Complete())
}

func TestDuplicate_TargetConflictsSkipped(t *testing.T) {
	all := []Session{
		sess("1", "T1", "5", "A", Monday, "08:00", "09:00", "A1"),
		sess("2", "T2", "5", "A", Monday, "09:00", "10:00", ""),
		sess("9", "T7", "5", "B", Monday, "08:30", "09:00", ""),
	}

	result := Duplicate(grade5A, grade5B, all)

	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "1", result.Skipped[0].Original.ID)
	assert.Equal(t, []string{"9"}, ids(result.Skipped[0].Report.Section))
	assert.Empty(t, result.Skipped[0].Report.Teacher, "源课节不参与比较")
	require.Len(t, result.Created, 1)
	assert.Equal(t, "T2", result.Created[0].TeacherID, "09:00 开始与 09:00 结束相接，不冲突")
}

func TestDuplicate_OtherSectionsStillChecked(t *testing.T) {
	// 教室 Lab 已被 6C 的课节占用（历史数据），副本同样不能使用
	all := []Session{
		sess("1", "T1", "5", "A", Monday, "08:00", "09:00", "Lab"),
		sess("7", "T5", "6", "C", Monday, "08:30", "09:30", "Lab"),
	}

	result := Duplicate(grade5A, grade5B, all)

	assert.Empty(t, result.Created)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, []string{"7"}, ids(result.Skipped[0].Report.Room))
}

func TestDuplicate_BatchSeesEarlierCopies(t *testing.T) {
	// 源班级内部已有重叠课节（冲突检测上线前写入的历史数据），第二个副本应与第一个副本冲突
	all := []Session{
		sess("1", "T1", "5", "A", Monday, "08:00", "09:00", ""),
		sess("2", "T2", "5", "A", Monday, "08:30", "09:30", ""),
	}

	result := Duplicate(grade5A, SectionRef{GradeID: "6", SectionID: "A"}, all)

	require.Len(t, result.Created, 1)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "2", result.Skipped[0].Original.ID)
	assert.Len(t, result.Skipped[0].Report.Section, 1)
	assert.Empty(t, result.Skipped[0].Report.Section[0].ID, "冲突对象是本批副本")
}

func TestDuplicateResult_Committable(t *testing.T) {
	result := DuplicateResult{
		Created: []Session{sess("", "T1", "5", "B", Monday, "08:00", "09:00", "")},
		Skipped: []SkippedSession{{Original: sess("2", "T2", "5", "A", Monday, "09:00", "10:00", "")}},
	}

	assert.Len(t, result.Committable(DuplicatePartial), 1)
	assert.Empty(t, result.Committable(DuplicateAllOrNothing))

	result.Skipped = nil
	assert.Len(t, result.Committable(DuplicateAllOrNothing), 1)
}

func TestParseDuplicatePolicy(t *testing.T) {
	p, err := ParseDuplicatePolicy("")
	require.NoError(t, err)
	assert.Equal(t, DuplicatePartial, p)

	p, err = ParseDuplicatePolicy(" ALL_OR_NOTHING ")
	require.NoError(t, err)
	assert.Equal(t, DuplicateAllOrNothing, p)

	_, err = ParseDuplicatePolicy("rollback")
	assert.ErrorIs(t, err, ErrInvalidDuplicatePolicy)
}
