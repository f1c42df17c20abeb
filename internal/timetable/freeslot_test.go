package timetable

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slot(start, end string) FreeSlot {
	return FreeSlot{Start: MustParseTimeOfDay(start), End: MustParseTimeOfDay(end)}
}

func window(start, end string) Window {
	return Window{Start: MustParseTimeOfDay(start), End: MustParseTimeOfDay(end)}
}

func TestFreeSlots_Scenario(t *testing.T) {
	sessions := []Session{
		sess("2", "T2", "5", "A", Monday, "09:00", "10:00", ""),
		sess("1", "T1", "5", "A", Monday, "07:00", "08:00", ""),
	}

	got := FreeSlots(Monday, sessions, window("07:00", "12:00"))

	assert.Equal(t, []FreeSlot{slot("08:00", "09:00"), slot("10:00", "12:00")}, got)
}

func TestFreeSlots_EmptyDay(t *testing.T) {
	sessions := []Session{sess("1", "T1", "5", "A", Tuesday, "08:00", "09:00", "")}

	got := FreeSlots(Monday, sessions, DefaultWindow)

	assert.Equal(t, []FreeSlot{{Start: DefaultWindow.Start, End: DefaultWindow.End}}, got)
}

func TestFreeSlots_OverlappingAndAdjacentMerged(t *testing.T) {
	sessions := []Session{
		sess("1", "T1", "5", "A", Monday, "08:00", "10:00", ""),
		sess("2", "T2", "5", "A", Monday, "09:00", "09:30", ""),
		sess("3", "T3", "5", "A", Monday, "10:00", "11:00", ""),
	}

	got := FreeSlots(Monday, sessions, window("07:00", "12:00"))

	assert.Equal(t, []FreeSlot{slot("07:00", "08:00"), slot("11:00", "12:00")}, got)
}

func TestFreeSlots_ClippedToWindow(t *testing.T) {
	sessions := []Session{
		sess("1", "T1", "5", "A", Monday, "06:00", "07:30", ""),
		sess("2", "T1", "5", "A", Monday, "11:30", "13:00", ""),
		sess("3", "T1", "5", "A", Monday, "14:00", "15:00", ""),
	}

	got := FreeSlots(Monday, sessions, window("07:00", "12:00"))

	assert.Equal(t, []FreeSlot{slot("07:30", "11:30")}, got)
}

func TestFreeSlots_InactiveIgnored(t *testing.T) {
	off := sess("1", "T1", "5", "A", Monday, "08:00", "09:00", "")
	off.Active = false

	got := FreeSlots(Monday, []Session{off}, window("08:00", "10:00"))

	assert.Equal(t, []FreeSlot{slot("08:00", "10:00")}, got)
}

func TestFreeSlots_DegenerateWindow(t *testing.T) {
	assert.Empty(t, FreeSlots(Monday, nil, window("10:00", "10:00")))
}

// 任意课节集合下，课节与空闲时段恰好覆盖窗口，且两者互不重叠
func TestFreeSlots_CoverageInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	win := window("07:00", "18:00")

	for round := 0; round < 200; round++ {
		var sessions []Session
		n := rng.Intn(8)
		for i := 0; i < n; i++ {
			start := TimeOfDay(360 + rng.Intn(12*60))
			end := start + TimeOfDay(15+rng.Intn(120))
			s := sess("", "T", "5", "A", Monday, "08:00", "09:00", "")
			s.Start, s.End = start, min(end, MinutesPerDay-1)
			sessions = append(sessions, s)
		}

		slots := FreeSlots(Monday, sessions, win)

		covered := make([]bool, MinutesPerDay)
		for _, s := range sessions {
			for m := s.Start; m < s.End; m++ {
				covered[m] = true
			}
		}
		free := make([]bool, MinutesPerDay)
		for i, f := range slots {
			require.Less(t, f.Start, f.End, "空闲时段长度必须为正")
			require.GreaterOrEqual(t, f.Start, win.Start)
			require.LessOrEqual(t, f.End, win.End)
			if i > 0 {
				require.LessOrEqual(t, slots[i-1].End, f.Start, "空闲时段有序且不重叠")
			}
			for m := f.Start; m < f.End; m++ {
				free[m] = true
			}
		}

		for m := win.Start; m < win.End; m++ {
			require.NotEqual(t, covered[m], free[m], "round %d minute %v", round, m)
		}
		require.True(t, sort.SliceIsSorted(slots, func(i, j int) bool { return slots[i].Start < slots[j].Start }))
	}
}
