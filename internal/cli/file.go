package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"school-admin/backend/internal/timetable"
)

// sessionFile 课节文件的 TOML 结构
//
//	[[session]]
//	id = "s1"
//	teacher = "T1"
//	subject = "MATH"
//	grade = "G5"
//	section = "A"
//	weekday = "lunes"   # 1..5 或星期名
//	start = "08:00"
//	end = "09:00"
//	room = "Lab"        # 可选
//	active = false      # 可选，缺省 true
type sessionFile struct {
	Sessions []sessionRecord `toml:"session"`
}

type sessionRecord struct {
	ID      string `toml:"id,omitempty"`
	Teacher string `toml:"teacher"`
	Subject string `toml:"subject"`
	Grade   string `toml:"grade"`
	Section string `toml:"section"`
	Weekday string `toml:"weekday"`
	Start   string `toml:"start"`
	End     string `toml:"end"`
	Room    string `toml:"room,omitempty"`
	Active  *bool  `toml:"active,omitempty"`
}

func (r sessionRecord) session() (timetable.Session, error) {
	day, err := timetable.ParseWeekday(r.Weekday)
	if err != nil {
		return timetable.Session{}, err
	}
	iv, err := timetable.ParseInterval(r.Start, r.End)
	if err != nil {
		return timetable.Session{}, err
	}

	s := timetable.Session{
		ID:        r.ID,
		TeacherID: r.Teacher,
		SubjectID: r.Subject,
		GradeID:   r.Grade,
		SectionID: r.Section,
		Weekday:   day,
		Start:     iv.Start,
		End:       iv.End,
		Room:      r.Room,
		Active:    r.Active == nil || *r.Active,
	}
	return s, s.Validate()
}

func recordOf(s timetable.Session) sessionRecord {
	r := sessionRecord{
		ID:      s.ID,
		Teacher: s.TeacherID,
		Subject: s.SubjectID,
		Grade:   s.GradeID,
		Section: s.SectionID,
		Weekday: strconv.Itoa(int(s.Weekday)),
		Start:   s.Start.String(),
		End:     s.End.String(),
		Room:    s.Room,
	}
	if !s.Active {
		inactive := false
		r.Active = &inactive
	}
	return r
}

// ErrDuplicateID 课节文件中出现重复的 id
var ErrDuplicateID = errors.New("课节 id 重复")

// LoadSessions 读取课节文件。未声明 id 的课节按出现顺序补 "#1"、"#2"…，
// 与显式 id 撞号时顺延到下一个未占用的编号。
func LoadSessions(path string) ([]timetable.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取课节文件: %w", err)
	}
	return decodeSessions(data)
}

func decodeSessions(data []byte) ([]timetable.Session, error) {
	var file sessionFile
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("解析课节文件 %d:%d: %w", row, col, err)
		}
		return nil, fmt.Errorf("解析课节文件: %w", err)
	}

	sessions := make([]timetable.Session, 0, len(file.Sessions))
	taken := make(map[string]int, len(file.Sessions))
	for i, rec := range file.Sessions {
		s, err := rec.session()
		if err != nil {
			return nil, fmt.Errorf("第 %d 个课节: %w", i+1, err)
		}
		if s.ID != "" {
			if first, ok := taken[s.ID]; ok {
				return nil, fmt.Errorf("第 %d 个课节 %q 与第 %d 个课节: %w", i+1, s.ID, first, ErrDuplicateID)
			}
			taken[s.ID] = i + 1
		}
		sessions = append(sessions, s)
	}

	n := 0
	for i := range sessions {
		if sessions[i].ID != "" {
			continue
		}
		n = max(n, i)
		for {
			n++
			if _, ok := taken["#"+strconv.Itoa(n)]; !ok {
				break
			}
		}
		sessions[i].ID = "#" + strconv.Itoa(n)
		taken[sessions[i].ID] = i + 1
	}
	return sessions, nil
}

// autoSeq 解析 "#N" 形式的 id
func autoSeq(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, "#")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// assignIDs 为新增课节分配 "#N" id。
// N 从 max(现有课节数, 现有最大 #N) 之后递增，不会与已有 id 重复。
func assignIDs(existing, added []timetable.Session) {
	next := len(existing)
	for _, s := range existing {
		if n, ok := autoSeq(s.ID); ok {
			next = max(next, n)
		}
	}
	for i := range added {
		next++
		added[i].ID = "#" + strconv.Itoa(next)
	}
}

// SaveSessions 以相同格式写回课节文件
func SaveSessions(path string, sessions []timetable.Session) error {
	data, err := encodeSessions(sessions)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func encodeSessions(sessions []timetable.Session) ([]byte, error) {
	file := sessionFile{Sessions: make([]sessionRecord, 0, len(sessions))}
	seen := make(map[string]struct{}, len(sessions))
	for _, s := range sessions {
		if _, ok := seen[s.ID]; ok && s.ID != "" {
			return nil, fmt.Errorf("编码课节文件 %q: %w", s.ID, ErrDuplicateID)
		}
		seen[s.ID] = struct{}{}
		file.Sessions = append(file.Sessions, recordOf(s))
	}

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(file); err != nil {
		return nil, fmt.Errorf("编码课节文件: %w", err)
	}
	return buf.Bytes(), nil
}
