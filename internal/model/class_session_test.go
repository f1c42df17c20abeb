package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school-admin/backend/internal/timetable"
)

func TestClassSession_ToSession(t *testing.T) {
	room := "A1"
	m := &ClassSession{
		SessionID: "s-1",
		TeacherID: "t-1",
		SubjectID: "math",
		GradeID:   "5",
		SectionID: "A",
		Weekday:   1,
		StartTime: "08:00:00", // PostgreSQL time 列带秒
		EndTime:   "09:30:00",
		Room:      &room,
		IsActive:  true,
	}

	s, err := m.ToSession()
	require.NoError(t, err)
	assert.Equal(t, timetable.TimeOfDay(480), s.Start)
	assert.Equal(t, timetable.TimeOfDay(570), s.End)
	assert.Equal(t, timetable.Monday, s.Weekday)
	assert.Equal(t, "A1", s.Room)
	assert.True(t, s.Active)

	back := ClassSessionFromSession(s)
	assert.Equal(t, "08:00", back.StartTime)
	assert.Equal(t, "09:30", back.EndTime)
	require.NotNil(t, back.Room, "期望保留教室 A1")
	assert.Equal(t, "A1", *back.Room)
}

func TestClassSession_ToSession_BadTime(t *testing.T) {
	m := &ClassSession{SessionID: "s-1", StartTime: "8am", EndTime: "09:00"}
	_, err := m.ToSession()
	assert.Error(t, err, "无效时间应报错")
}

func TestClassSessionFromSession_BlankRoom(t *testing.T) {
	m := ClassSessionFromSession(timetable.Session{Room: "   ", Start: 480, End: 540})
	assert.Nil(t, m.Room, "空白教室应存为 NULL")
}
