package tutor

import (
	"strings"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tutor/core"
)

// Role is what a person may see and do.
type Role string

// Roles
const (
	RoleTeacher Role = "Teacher"
	RoleStudent Role = "Student"
)

// ParseRole maps the 역할 cell to a Role. Unknown values are treated as Student.
func ParseRole(s string) Role {
	if strings.EqualFold(core.CleanString(s), string(RoleTeacher)) {
		return RoleTeacher
	}
	return RoleStudent
}

// Subject of a study session.
type Subject string

// Subjects
const (
	SubjectKorean  Subject = "Korean"
	SubjectMath    Subject = "Math"
	SubjectEnglish Subject = "English"
	SubjectInquiry Subject = "Inquiry"
	SubjectOther   Subject = "Other"
)

var (
	Subjects = []Subject{SubjectKorean, SubjectMath, SubjectEnglish, SubjectInquiry, SubjectOther}

	// sheets filled in by hand may still carry the korean labels
	subjectAliases = map[string]Subject{
		"국어": SubjectKorean,
		"수학": SubjectMath,
		"영어": SubjectEnglish,
		"탐구": SubjectInquiry,
		"기타": SubjectOther,
	}
)

// ParseSubject resolves english names (case-insensitive) and korean labels.
func ParseSubject(s string) (Subject, bool) {
	s = core.CleanString(s)
	if sub, ok := subjectAliases[s]; ok {
		return sub, true
	}
	for _, sub := range Subjects {
		if strings.EqualFold(s, string(sub)) {
			return sub, true
		}
	}
	return "", false
}

type Student struct {
	Name     string `json:"name"`
	Password string `json:"-"`
	Role     Role   `json:"role"`
}

func (s Student) Identity() Identity {
	return Identity{Name: s.Name, Role: s.Role}
}

// StudyLog is one studying session. Date is kept as written in the table;
// Minutes is invalid when the cell could not be read as a non-negative integer.
type StudyLog struct {
	Date    string   `json:"date"`
	Name    string   `json:"name"`
	Subject string   `json:"subject"`
	Minutes null.Int `json:"minutes"`
	Memo    string   `json:"memo"`
}

type Homework struct {
	ID      string `json:"id"`
	Date    string `json:"date"`
	Name    string `json:"name"`
	Content string `json:"content"`
	Done    bool   `json:"done"`
}

// Summary is a lesson note written by the teacher for one student.
type Summary struct {
	Date           string `json:"date"`
	StudentName    string `json:"student_name"`
	LessonContent  string `json:"lesson_content"`
	HomeworkNotice string `json:"homework_notice"`
}

// NewStudyLog contains information needed to record a study session.
type NewStudyLog struct {
	Date    string `json:"date" form:"date" validate:"required,yyyymmdd"`
	Subject string `json:"subject" form:"subject" validate:"required,subject"`
	Hours   int    `json:"hours" form:"hours" validate:"min=0,max=24"`
	Minutes int    `json:"minutes" form:"minutes" validate:"min=0,max=59"`
	Memo    string `json:"memo" form:"memo"`
}

func (nl NewStudyLog) TotalMinutes() int {
	return nl.Hours*60 + nl.Minutes
}

// NewSummary contains information needed to write a lesson note.
type NewSummary struct {
	Date           string `json:"date" form:"date" validate:"required,yyyymmdd"`
	StudentName    string `json:"student_name" form:"student_name" validate:"required"`
	LessonContent  string `json:"lesson_content" form:"lesson_content"`
	HomeworkNotice string `json:"homework_notice" form:"homework_notice"`
}

// NewHomework contains information needed to assign homework.
type NewHomework struct {
	Date        string `json:"date" form:"date" validate:"required,yyyymmdd"`
	StudentName string `json:"student_name" form:"student_name" validate:"required"`
	Content     string `json:"content" form:"content" validate:"required"`
}
