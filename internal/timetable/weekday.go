package timetable

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidWeekday 星期取值无效
var ErrInvalidWeekday = errors.New("星期取值无效，仅支持周一至周五")

// Weekday 上课日，固定 5 个取值：周一(1) ~ 周五(5)
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
)

// Weekdays 按顺序列出全部上课日
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}

var weekdayNames = map[Weekday]string{
	Monday:    "monday",
	Tuesday:   "tuesday",
	Wednesday: "wednesday",
	Thursday:  "thursday",
	Friday:    "friday",
}

// 兼容西语星期名（lunes … viernes）
var weekdayAliases = map[string]Weekday{
	"monday":    Monday,
	"tuesday":   Tuesday,
	"wednesday": Wednesday,
	"thursday":  Thursday,
	"friday":    Friday,
	"lunes":     Monday,
	"martes":    Tuesday,
	"miercoles": Wednesday,
	"miércoles": Wednesday,
	"jueves":    Thursday,
	"viernes":   Friday,
}

// ParseWeekday 解析 "1".."5"、英文或西语星期名（不区分大小写）
func ParseWeekday(s string) (Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(v); err == nil {
		d := Weekday(n)
		if !d.Valid() {
			return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
		}
		return d, nil
	}
	if d, ok := weekdayAliases[v]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
}

// Valid 是否为周一至周五
func (d Weekday) Valid() bool {
	return d >= Monday && d <= Friday
}

// UnmarshalJSON 同时接受 1 与 "monday" 两种写法
func (d *Weekday) UnmarshalJSON(b []byte) error {
	v, err := ParseWeekday(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// String 英文小写名称
func (d Weekday) String() string {
	if name, ok := weekdayNames[d]; ok {
		return name
	}
	return fmt.Sprintf("weekday(%d)", int(d))
}
