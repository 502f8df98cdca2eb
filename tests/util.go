package testutil

import (
	"fmt"
	"sync"
	"testing"

	"github.com/trezcool/tutor/core"
	"github.com/trezcool/tutor/core/tutor"
	"github.com/trezcool/tutor/storage/table"
	"github.com/trezcool/tutor/storage/table/inmem"
)

// Seed is a small classroom: one teacher, two students and March 2024 activity.
// 민지 has one row with a bad date and one with unreadable minutes.
const Seed = `
Students:
  - {이름: 선생님, 비밀번호: "0000", 역할: Teacher}
  - {이름: 민지, 비밀번호: "1234", 역할: Student}
  - {이름: 준호, 비밀번호: "5678", 역할: Student}
StudyLogs:
  - {날짜: "2024-03-05", 이름: 민지, 과목: Math, 시간(분): 90, 메모: quadratics}
  - {날짜: "2024-03-20", 이름: 민지, 과목: English, 시간(분): 45, 메모: ""}
  - {날짜: "2024-02-28", 이름: 민지, 과목: Korean, 시간(분): 60, 메모: ""}
  - {날짜: "2024-03-10", 이름: 준호, 과목: Math, 시간(분): 30, 메모: ""}
  - {날짜: "someday", 이름: 민지, 과목: Other, 시간(분): 10, 메모: ""}
  - {날짜: "2024-03-22", 이름: 민지, 과목: Inquiry, 시간(분): "a lot", 메모: ""}
Homework:
  - {ID: hw-1, 날짜: "2024-03-06", 이름: 민지, 내용: Workbook p.10, 완료여부: true}
  - {ID: hw-2, 날짜: "2024-03-12", 이름: 민지, 내용: Essay, 완료여부: false}
  - {ID: hw-3, 날짜: "2024-03-15", 이름: 준호, 내용: Vocabulary, 완료여부: "FALSE"}
  - {ID: hw-4, 날짜: "2024-02-20", 이름: 민지, 내용: Old worksheet, 완료여부: false}
Summaries:
  - {날짜: "2024-03-05", 학생이름: 민지, 수업내용: Quadratic equations, 숙제및공지: Workbook p.10}
  - {날짜: "2024-03-12", 학생이름: 민지, 수업내용: Essay structure, 숙제및공지: Write an essay}
  - {날짜: "2024-03-10", 학생이름: 준호, 수업내용: Fractions, 숙제및공지: Vocabulary}
`

var (
	Teacher = tutor.Identity{Name: "선생님", Role: tutor.RoleTeacher}
	Minji   = tutor.Identity{Name: "민지", Role: tutor.RoleStudent}
	Junho   = tutor.Identity{Name: "준호", Role: tutor.RoleStudent}
)

// NewStore returns an in-memory store loaded with seed (Seed when empty).
func NewStore(t *testing.T, seed ...string) *inmem.Store {
	t.Helper()
	data := Seed
	if len(seed) > 0 {
		data = seed[0]
	}
	store := inmem.New()
	if err := store.Seed([]byte(data)); err != nil {
		t.Fatalf("NewStore() failed: %v", err)
	}
	return store
}

// NewService wires a tutor.Service over a seeded in-memory store.
func NewService(t *testing.T, seed ...string) (tutor.Service, *inmem.Store, *Logger) {
	t.Helper()
	store := NewStore(t, seed...)
	logger := new(Logger)
	return tutor.NewService(table.NewRepository(store), logger), store, logger
}

// Logger records messages per level.
type Logger struct {
	mu      sync.Mutex
	entries map[string][]string
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.entries == nil {
		l.entries = make(map[string][]string)
	}
	for _, arg := range args {
		if err, ok := arg.(error); ok {
			msg = fmt.Sprintf("%s: %v", msg, err)
		}
	}
	l.entries[level] = append(l.entries[level], msg)
}

// Messages returns what was logged at level ("debug", "info", "warn", "error" or "fatal").
func (l *Logger) Messages(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries[level]...)
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("warn", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("error", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("fatal", msg, args) }
