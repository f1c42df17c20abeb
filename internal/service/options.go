package service

import (
	"fmt"
	"time"

	"school-admin/backend/config"
	"school-admin/backend/internal/timetable"
)

// Options 课表引擎运行参数（由配置解析而来）
type Options struct {
	Window          timetable.Window
	Grid            timetable.GridConfig
	DuplicatePolicy timetable.DuplicatePolicy
	SequenceTTL     time.Duration
	Location        *time.Location // ICS 导出时区
}

// DefaultOptions 07:00–18:00 窗口、partial 复制策略
func DefaultOptions() Options {
	return Options{
		Window:          timetable.DefaultWindow,
		Grid:            timetable.DefaultGridConfig,
		DuplicatePolicy: timetable.DuplicatePartial,
		SequenceTTL:     30 * time.Minute,
		Location:        time.UTC,
	}
}

// OptionsFromConfig 解析课表配置
func OptionsFromConfig(cfg *config.TimetableConfig) (Options, error) {
	window, err := cfg.Window()
	if err != nil {
		return Options{}, fmt.Errorf("工作日窗口无效: %w", err)
	}
	grid := cfg.Grid()
	if err := grid.Validate(); err != nil {
		return Options{}, err
	}
	policy, err := timetable.ParseDuplicatePolicy(cfg.DuplicatePolicy)
	if err != nil {
		return Options{}, err
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Options{}, fmt.Errorf("时区无效: %w", err)
	}

	return Options{
		Window:          window,
		Grid:            grid,
		DuplicatePolicy: policy,
		SequenceTTL:     cfg.ValidationSeqTTL,
		Location:        loc,
	}, nil
}
