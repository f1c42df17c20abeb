// Package timetable 课表冲突引擎：时间区间、冲突检测、空闲时段、周视图投影与整班复制。
//
// 包内所有函数均为纯函数：调用方每次显式传入当前课节集合，包内不持有任何全局状态。
package timetable

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ── 时间模型错误 ──

var (
	ErrInvalidTime  = errors.New("时间格式无效，应为 HH:MM")
	ErrInvalidRange = errors.New("开始时间必须早于结束时间")
)

// MinutesPerDay 一天的分钟数
const MinutesPerDay = 24 * 60

// TimeOfDay 一天中的时刻，单位：自零点起的分钟数，取值 [0, 1440)
type TimeOfDay int

// ParseTimeOfDay 解析 "HH:MM" 或 "HH:MM:SS"（PostgreSQL time 列的输出格式）
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	for _, p := range parts {
		if len(p) != 2 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	if len(parts) == 3 {
		sec, err := strconv.Atoi(parts[2])
		if err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
	}

	return TimeOfDay(h*60 + m), nil
}

// MustParseTimeOfDay 解析失败时 panic，仅用于常量与测试
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Valid 是否处于 [0, 1440)
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < MinutesPerDay
}

// Hour 所在整点
func (t TimeOfDay) Hour() int { return int(t) / 60 }

// String 格式化为 "HH:MM"
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// MarshalText 以 "HH:MM" 形式输出（JSON / TOML 共用）
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText 解析 "HH:MM"
func (t *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Overlaps 判断两个半开区间 [aStart, aEnd) 与 [bStart, bEnd) 是否重叠。
// 端点相接（aEnd == bStart）不算重叠：10:00 结束的课与 10:00 开始的课互不冲突。
func Overlaps(aStart, aEnd, bStart, bEnd TimeOfDay) bool {
	return aStart < bEnd && bStart < aEnd
}

// Interval 半开时间区间 [Start, End)
type Interval struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// ParseInterval 由两个 "HH:MM" 字符串构造区间并校验
func ParseInterval(start, end string) (Interval, error) {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return Interval{}, err
	}
	iv := Interval{Start: s, End: e}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

// Validate 校验区间合法：两端均在一天之内且 Start < End
func (iv Interval) Validate() error {
	if !iv.Start.Valid() || !iv.End.Valid() {
		return ErrInvalidTime
	}
	if iv.Start >= iv.End {
		return ErrInvalidRange
	}
	return nil
}

// Overlaps 与另一区间是否重叠
func (iv Interval) Overlaps(o Interval) bool {
	return Overlaps(iv.Start, iv.End, o.Start, o.End)
}

// Minutes 区间时长（分钟）
func (iv Interval) Minutes() int { return int(iv.End - iv.Start) }
