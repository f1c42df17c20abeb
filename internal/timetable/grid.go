package timetable

import "errors"

// ErrInvalidGridConfig 周视图配置无效
var ErrInvalidGridConfig = errors.New("周视图小时范围配置无效")

// GridConfig 周视图显示的小时范围
type GridConfig struct {
	FloorHour   int `json:"floor_hour"`   // 最早显示到该整点
	CeilingHour int `json:"ceiling_hour"` // 最晚显示到该整点
	Padding     int `json:"padding"`      // 两端各额外扩展的小时数
}

// DefaultGridConfig 07:00–18:00，两端各留 1 小时
var DefaultGridConfig = GridConfig{FloorHour: 7, CeilingHour: 18, Padding: 1}

// Validate 0 <= Floor < Ceiling <= 24，Padding 非负
func (c GridConfig) Validate() error {
	if c.FloorHour < 0 || c.CeilingHour > 24 || c.FloorHour >= c.CeilingHour || c.Padding < 0 {
		return ErrInvalidGridConfig
	}
	return nil
}

// Cell 周视图中某一天某一小时格子的占用情况
type Cell struct {
	Sessions []Session `json:"sessions"`
	Gaps     []FreeSlot `json:"gaps"`
}

// DayCell 带星期标记的格子
type DayCell struct {
	Weekday Weekday `json:"weekday"`
	Cell
}

// GridRow 一个小时行，Cells 按周一至周五排列
type GridRow struct {
	Hour  int       `json:"hour"`
	Cells []DayCell `json:"cells"`
}

// Grid 整周视图，行覆盖 [FirstHour, LastHour)
type Grid struct {
	FirstHour int       `json:"first_hour"`
	LastHour  int       `json:"last_hour"`
	Rows      []GridRow `json:"rows"`
}

// OccupiesHour 区间 [start, end) 是否与小时桶 [hour:00, hour+1:00) 有实际时间重叠。
// 10:30–11:15 同时占用 10 点与 11 点两个格子；10:00–11:00 只占用 10 点。
func OccupiesHour(hour int, start, end TimeOfDay) bool {
	bucketStart := TimeOfDay(hour * 60)
	return Overlaps(start, end, bucketStart, bucketStart+60)
}

// CellOccupants 计算单个格子的占用者。
//
// sessions 中只有指定星期的启用课节参与；freeSlots 应为同一星期由 FreeSlots 计算的结果。
// 同一格子可以出现多个课节，这里不去重也不校验冲突。
func CellOccupants(day Weekday, hour int, sessions []Session, freeSlots []FreeSlot) Cell {
	cell := Cell{Sessions: []Session{}, Gaps: []FreeSlot{}}
	for _, s := range sessions {
		if s.Active && s.Weekday == day && OccupiesHour(hour, s.Start, s.End) {
			cell.Sessions = append(cell.Sessions, s)
		}
	}
	for _, f := range freeSlots {
		if OccupiesHour(hour, f.Start, f.End) {
			cell.Gaps = append(cell.Gaps, f)
		}
	}
	return cell
}

// HourRange 计算周视图显示的小时行 [first, last)。
//
// 取启用课节最早开始的整点与最晚结束的整点（向上取整），各自夹紧到
// [FloorHour, CeilingHour]，再在两端各加 Padding 小时，最终限制在 [0, 24]。
// 没有启用课节时使用 FloorHour / CeilingHour。范围至少包含一行。
func HourRange(sessions []Session, cfg GridConfig) (first, last int) {
	first, last = cfg.FloorHour, cfg.CeilingHour
	seen := false
	for _, s := range sessions {
		if !s.Active {
			continue
		}
		if !seen {
			first, last = s.Start.Hour(), ceilHour(s.End)
			seen = true
			continue
		}
		first = min(first, s.Start.Hour())
		last = max(last, ceilHour(s.End))
	}

	if seen {
		first = clampHour(first, cfg)
		last = clampHour(last, cfg)
		if last <= first {
			last = first + 1
		}
	}

	first = max(first-cfg.Padding, 0)
	last = min(last+cfg.Padding, 24)
	return first, last
}

func clampHour(h int, cfg GridConfig) int {
	return min(max(h, cfg.FloorHour), cfg.CeilingHour)
}

func ceilHour(t TimeOfDay) int {
	return (int(t) + 59) / 60
}

// ProjectWeek 将课节与空闲时段投影到整周的小时格子上
func ProjectWeek(sessions []Session, window Window, cfg GridConfig) Grid {
	first, last := HourRange(sessions, cfg)

	slots := make(map[Weekday][]FreeSlot, len(Weekdays))
	for _, day := range Weekdays {
		slots[day] = FreeSlots(day, sessions, window)
	}

	grid := Grid{FirstHour: first, LastHour: last, Rows: make([]GridRow, 0, max(last-first, 0))}
	for h := first; h < last; h++ {
		row := GridRow{Hour: h, Cells: make([]DayCell, 0, len(Weekdays))}
		for _, day := range Weekdays {
			row.Cells = append(row.Cells, DayCell{
				Weekday: day,
				Cell:    CellOccupants(day, h, sessions, slots[day]),
			})
		}
		grid.Rows = append(grid.Rows, row)
	}
	return grid
}
