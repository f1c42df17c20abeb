package timetable

import "sort"

// FreeSlot 某个上课日内未被任何启用课节覆盖的空闲时段，Start < End
type FreeSlot struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// Minutes 空闲时长（分钟）
func (f FreeSlot) Minutes() int { return int(f.End - f.Start) }

// Window 工作日边界窗口
type Window = Interval

// DefaultWindow 默认工作日窗口 07:00–18:00
var DefaultWindow = Window{Start: 7 * 60, End: 18 * 60}

// FreeSlots 计算指定星期在窗口内的空闲时段。
//
// 输入课节无需互不冲突：重叠或相接的课节通过 cursor 取最大值合并。
// 窗口外的课节部分不会产生窗口外的空闲时段。
// 输出按时间升序、互不重叠，且不含零长度时段。
func FreeSlots(day Weekday, sessions []Session, window Window) []FreeSlot {
	slots := []FreeSlot{}
	if window.Start >= window.End {
		return slots
	}

	daySessions := FilterWeekday(sessions, day)
	sort.SliceStable(daySessions, func(i, j int) bool {
		return daySessions[i].Start < daySessions[j].Start
	})

	cursor := window.Start
	for _, s := range daySessions {
		if cursor >= window.End {
			break
		}
		gapEnd := min(s.Start, window.End)
		if cursor < gapEnd {
			slots = append(slots, FreeSlot{Start: cursor, End: gapEnd})
		}
		cursor = max(cursor, s.End)
	}

	if cursor < window.End {
		slots = append(slots, FreeSlot{Start: cursor, End: window.End})
	}

	return slots
}
