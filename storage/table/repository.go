package table

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tutor/core/tutor"
)

// Repository maps field-map rows to tutor records.
type Repository struct {
	store Store
}

var _ tutor.Repository = (*Repository)(nil) // interface compliance check

func NewRepository(store Store) *Repository {
	return &Repository{store: store}
}

func (repo *Repository) Ping(ctx context.Context) error {
	return repo.store.Ping(ctx)
}

func (repo *Repository) QueryStudents(ctx context.Context) ([]tutor.Student, error) {
	rows, err := repo.store.FetchTable(ctx, Students)
	if err != nil {
		return nil, errors.Wrap(err, "fetching students")
	}
	students := make([]tutor.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, tutor.Student{
			Name:     strings.TrimSpace(r[ColName]),
			Password: strings.TrimSpace(r[ColPassword]),
			Role:     tutor.ParseRole(r[ColRole]),
		})
	}
	return students, nil
}

func (repo *Repository) QueryStudyLogs(ctx context.Context) ([]tutor.StudyLog, error) {
	rows, err := repo.store.FetchTable(ctx, StudyLogs)
	if err != nil {
		return nil, errors.Wrap(err, "fetching study logs")
	}
	logs := make([]tutor.StudyLog, 0, len(rows))
	for _, r := range rows {
		logs = append(logs, tutor.StudyLog{
			Date:    strings.TrimSpace(r[ColDate]),
			Name:    strings.TrimSpace(r[ColName]),
			Subject: strings.TrimSpace(r[ColSubject]),
			Minutes: parseMinutes(r[ColMinutes]),
			Memo:    r[ColMemo],
		})
	}
	return logs, nil
}

func (repo *Repository) QueryHomework(ctx context.Context) ([]tutor.Homework, error) {
	rows, err := repo.store.FetchTable(ctx, Homework)
	if err != nil {
		return nil, errors.Wrap(err, "fetching homework")
	}
	hws := make([]tutor.Homework, 0, len(rows))
	for _, r := range rows {
		hws = append(hws, tutor.Homework{
			ID:      strings.TrimSpace(r[ColID]),
			Date:    strings.TrimSpace(r[ColDate]),
			Name:    strings.TrimSpace(r[ColName]),
			Content: r[ColContent],
			Done:    ParseBool(r[ColDone]),
		})
	}
	return hws, nil
}

func (repo *Repository) QuerySummaries(ctx context.Context) ([]tutor.Summary, error) {
	rows, err := repo.store.FetchTable(ctx, Summaries)
	if err != nil {
		return nil, errors.Wrap(err, "fetching summaries")
	}
	sums := make([]tutor.Summary, 0, len(rows))
	for _, r := range rows {
		sums = append(sums, tutor.Summary{
			Date:           strings.TrimSpace(r[ColDate]),
			StudentName:    strings.TrimSpace(r[ColStudentName]),
			LessonContent:  r[ColLessonContent],
			HomeworkNotice: r[ColHomeworkNotice],
		})
	}
	return sums, nil
}

func (repo *Repository) CreateStudyLog(ctx context.Context, log tutor.StudyLog) error {
	minutes := ""
	if log.Minutes.Valid {
		minutes = strconv.Itoa(log.Minutes.Int)
	}
	values := []string{log.Date, log.Name, log.Subject, minutes, log.Memo}
	return errors.Wrap(repo.store.AppendRow(ctx, StudyLogs, values), "appending study log")
}

func (repo *Repository) CreateHomework(ctx context.Context, hw tutor.Homework) error {
	values := []string{hw.ID, hw.Date, hw.Name, hw.Content, FormatBool(hw.Done)}
	return errors.Wrap(repo.store.AppendRow(ctx, Homework, values), "appending homework")
}

func (repo *Repository) CreateSummary(ctx context.Context, sum tutor.Summary) error {
	values := []string{sum.Date, sum.StudentName, sum.LessonContent, sum.HomeworkNotice}
	return errors.Wrap(repo.store.AppendRow(ctx, Summaries, values), "appending summary")
}

func (repo *Repository) SetHomeworkDone(ctx context.Context, id string, done bool) error {
	err := repo.store.UpdateCell(ctx, Homework, id, ColDone, FormatBool(done))
	if errors.Is(err, ErrRowNotFound) {
		return tutor.ErrHomeworkNotFound
	}
	return errors.Wrap(err, "updating homework")
}

// parseMinutes reads the 시간(분) cell; blanks, text and negatives are invalid.
func parseMinutes(s string) null.Int {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return null.Int{}
	}
	return null.IntFrom(n)
}
