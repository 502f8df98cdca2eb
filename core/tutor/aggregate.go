package tutor

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/trezcool/tutor/core"
)

// Calendar colors
const (
	ColorStudy           = "#3788d8"
	ColorHomeworkDone    = "#28a745"
	ColorHomeworkPending = "#dc3545"

	iconStudy    = "📖"
	iconHomework = "📝"

	monthLayout = "2006-01"
)

// CalendarEvent is what the calendar widget draws for a single study log or homework row.
type CalendarEvent struct {
	Title string `json:"title"`
	Start string `json:"start"`
	Color string `json:"backgroundColor"`
}

// MonthlyMetrics summarizes one calendar month.
type MonthlyMetrics struct {
	Month                  string  `json:"month"` // YYYY-MM
	TotalMinutes           int     `json:"total_minutes"`
	HomeworkCompletionRate float64 `json:"homework_completion_rate"` // 0 - 100
	Skipped                int     `json:"skipped"`                  // malformed rows left out
}

// TotalDisplay renders TotalMinutes for humans.
func (m MonthlyMetrics) TotalDisplay() string {
	return FormatMinutes(m.TotalMinutes)
}

// RateDisplay renders the completion rate rounded to the nearest percent.
func (m MonthlyMetrics) RateDisplay() string {
	return fmt.Sprintf("%.0f%%", math.Round(m.HomeworkCompletionRate))
}

// Dashboard is the home page content for one identity.
type Dashboard struct {
	Events  []CalendarEvent `json:"events"`
	Metrics MonthlyMetrics  `json:"metrics"`
}

// MalformedRowError describes a row left out of an aggregate.
type MalformedRowError struct {
	Table  string
	Key    string
	Reason string
}

func (e MalformedRowError) Error() string {
	return fmt.Sprintf("malformed %s row (%s): %s", e.Table, e.Key, e.Reason)
}

// ScopeStudyLogs keeps the rows the identity may see: its own for students, all for teachers.
func ScopeStudyLogs(logs []StudyLog, id Identity) []StudyLog {
	if id.Role == RoleTeacher {
		return logs
	}
	scoped := make([]StudyLog, 0, len(logs))
	for _, l := range logs {
		if l.Name == id.Name {
			scoped = append(scoped, l)
		}
	}
	return scoped
}

// ScopeHomework keeps the rows the identity may see: its own for students, all for teachers.
func ScopeHomework(hws []Homework, id Identity) []Homework {
	if id.Role == RoleTeacher {
		return hws
	}
	scoped := make([]Homework, 0, len(hws))
	for _, hw := range hws {
		if hw.Name == id.Name {
			scoped = append(scoped, hw)
		}
	}
	return scoped
}

// ProjectEvents turns study logs and homework into calendar events, one per visible row.
// Rows are not validated here: a bad date is handed to the widget as is.
func ProjectEvents(logs []StudyLog, hws []Homework, id Identity) []CalendarEvent {
	logs = ScopeStudyLogs(logs, id)
	hws = ScopeHomework(hws, id)
	return projectEvents(logs, hws)
}

func projectEvents(logs []StudyLog, hws []Homework) []CalendarEvent {
	events := make([]CalendarEvent, 0, len(logs)+len(hws))
	for _, l := range logs {
		events = append(events, CalendarEvent{
			Title: fmt.Sprintf("%s %s (%s)", iconStudy, l.Subject, FormatMinutes(l.Minutes)),
			Start: l.Date,
			Color: ColorStudy,
		})
	}
	for _, hw := range hws {
		color := ColorHomeworkPending
		if hw.Done {
			color = ColorHomeworkDone
		}
		events = append(events, CalendarEvent{
			Title: fmt.Sprintf("%s %s", iconHomework, hw.Content),
			Start: hw.Date,
			Color: color,
		})
	}
	return events
}

// ComputeMonthlyMetrics aggregates already scoped rows over the month of ref.
// Rows with an unreadable date or minutes are skipped, see MalformedRows.
func ComputeMonthlyMetrics(logs []StudyLog, hws []Homework, ref time.Time) MonthlyMetrics {
	month := ref.Format(monthLayout)
	metrics := MonthlyMetrics{Month: month}

	for _, l := range logs {
		if !validDate(l.Date) || !l.Minutes.Valid || l.Minutes.Int < 0 {
			metrics.Skipped++
			continue
		}
		if inMonth(l.Date, month) {
			metrics.TotalMinutes += l.Minutes.Int
		}
	}

	var total, done int
	for _, hw := range hws {
		if !validDate(hw.Date) {
			metrics.Skipped++
			continue
		}
		if !inMonth(hw.Date, month) {
			continue
		}
		total++
		if hw.Done {
			done++
		}
	}
	if total > 0 {
		metrics.HomeworkCompletionRate = 100 * float64(done) / float64(total)
	}
	return metrics
}

// BuildDashboard scopes the rows to the identity once and derives events and metrics from them.
func BuildDashboard(id Identity, logs []StudyLog, hws []Homework, now time.Time) Dashboard {
	logs = ScopeStudyLogs(logs, id)
	hws = ScopeHomework(hws, id)
	return Dashboard{
		Events:  projectEvents(logs, hws),
		Metrics: ComputeMonthlyMetrics(logs, hws, now),
	}
}

// MalformedRows lists the scoped rows ComputeMonthlyMetrics leaves out.
func MalformedRows(logs []StudyLog, hws []Homework) []MalformedRowError {
	var bad []MalformedRowError
	for i, l := range logs {
		key := fmt.Sprintf("%s #%d", l.Name, i+1)
		switch {
		case !validDate(l.Date):
			bad = append(bad, MalformedRowError{Table: "StudyLogs", Key: key, Reason: fmt.Sprintf("date %q", l.Date)})
		case !l.Minutes.Valid || l.Minutes.Int < 0:
			bad = append(bad, MalformedRowError{Table: "StudyLogs", Key: key, Reason: "minutes"})
		}
	}
	for _, hw := range hws {
		if !validDate(hw.Date) {
			bad = append(bad, MalformedRowError{Table: "Homework", Key: hw.ID, Reason: fmt.Sprintf("date %q", hw.Date)})
		}
	}
	return bad
}

func validDate(s string) bool {
	_, err := time.Parse(core.DateLayout, s)
	return err == nil
}

func inMonth(date, month string) bool {
	return strings.HasPrefix(date, month)
}
