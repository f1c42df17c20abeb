package timetable

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDuplicatePolicy 复制策略取值无效
var ErrInvalidDuplicatePolicy = errors.New("复制策略无效，仅支持 partial / all_or_nothing")

// DuplicatePolicy 整班复制时遇到冲突的提交策略
type DuplicatePolicy string

const (
	// DuplicatePartial 提交所有无冲突的副本，冲突的跳过
	DuplicatePartial DuplicatePolicy = "partial"
	// DuplicateAllOrNothing 任一副本冲突则整批不提交
	DuplicateAllOrNothing DuplicatePolicy = "all_or_nothing"
)

// ParseDuplicatePolicy 解析配置或请求中的策略；空串视为 partial
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch p := DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DuplicatePartial, nil
	case DuplicatePartial, DuplicateAllOrNothing:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDuplicatePolicy, s)
	}
}

// SkippedSession 因冲突未能复制的源课节及其冲突报告
type SkippedSession struct {
	Original Session        `json:"original"`
	Report   ConflictReport `json:"report"`
}

// DuplicateResult 整班复制结果
type DuplicateResult struct {
	Created []Session        `json:"created"`
	Skipped []SkippedSession `json:"skipped"`
}

// Complete 没有任何课节被跳过
func (r DuplicateResult) Complete() bool {
	return len(r.Skipped) == 0
}

// Committable 按策略返回应当持久化的副本
func (r DuplicateResult) Committable(policy DuplicatePolicy) []Session {
	if policy == DuplicateAllOrNothing && !r.Complete() {
		return []Session{}
	}
	return r.Created
}

// Duplicate 将源年级班级的全部启用课节复制到目标年级班级。
//
// 副本保留教师、科目、星期、时间、教室，只替换年级班级并清空 ID。
// 比较集合为 all 中源班级以外的课节加上本批已生成的副本：
// 副本与其源课节必然共享教师与时间，源班级本身不参与比较；
// 已生成的副本参与比较，避免同一批次内部互相冲突，因此必须顺序执行。
// all 不会被修改。
func Duplicate(source, target SectionRef, all []Session) DuplicateResult {
	result := DuplicateResult{Created: []Session{}, Skipped: []SkippedSession{}}

	pool := make([]Session, 0, len(all))
	for _, s := range all {
		if !s.InSection(source) {
			pool = append(pool, s)
		}
	}

	for _, orig := range all {
		if !orig.Active || !orig.InSection(source) {
			continue
		}

		candidate := orig
		candidate.ID = ""
		candidate.GradeID = target.GradeID
		candidate.SectionID = target.SectionID

		report := DetectConflicts(candidate, pool)
		if report.HasConflict() {
			result.Skipped = append(result.Skipped, SkippedSession{Original: orig, Report: report})
			continue
		}
		result.Created = append(result.Created, candidate)
		pool = append(pool, candidate)
	}

	return result
}
