package tutor

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tutor/core"
)

var (
	// errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicatePassword  = errors.New("password is shared by more than one student")
	ErrForbidden          = errors.New("permission denied")
	ErrHomeworkNotFound   = errors.New("homework not found")
	ErrStudentNotFound    = errors.New("student not found")
	ErrEmptyStudy         = core.NewValidationError(
		errors.New("study time must be greater than zero"),
		core.FieldError{Field: "minutes", Error: "study time must be greater than zero"},
	)
)

type (
	// Repository gives access to the four tables.
	Repository interface {
		Ping(ctx context.Context) error
		QueryStudents(ctx context.Context) ([]Student, error)
		QueryStudyLogs(ctx context.Context) ([]StudyLog, error)
		QueryHomework(ctx context.Context) ([]Homework, error)
		QuerySummaries(ctx context.Context) ([]Summary, error)
		CreateStudyLog(ctx context.Context, log StudyLog) error
		CreateHomework(ctx context.Context, hw Homework) error
		CreateSummary(ctx context.Context, sum Summary) error
		// SetHomeworkDone returns ErrHomeworkNotFound when no row has the given ID.
		SetHomeworkDone(ctx context.Context, id string, done bool) error
	}

	Service interface {
		Ping(ctx context.Context) error
		Login(ctx context.Context, password string) (Identity, error)
		Dashboard(ctx context.Context, id Identity, now time.Time) (Dashboard, error)
		RecordStudy(ctx context.Context, id Identity, nl NewStudyLog) error
		Homework(ctx context.Context, id Identity) ([]Homework, error)
		SetHomeworkDone(ctx context.Context, id Identity, hwID string, done bool) error
		StudentSummaries(ctx context.Context, id Identity) ([]Summary, error)
		Summaries(ctx context.Context, id Identity) ([]Summary, error)
		WriteSummary(ctx context.Context, id Identity, ns NewSummary) error
		AssignHomework(ctx context.Context, id Identity, nh NewHomework) (Homework, error)
		ListStudents(ctx context.Context, id Identity) ([]Student, error)
		StudentNames(ctx context.Context) ([]string, error)
		MonthlyReport(ctx context.Context, name string, month time.Time) (MonthlyMetrics, error)
		FindDuplicatePasswords(ctx context.Context) ([][]string, error)
	}

	service struct {
		repo   Repository
		logger core.Logger
		newID  func() string
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, logger core.Logger) Service {
	return &service{
		repo:   repo,
		logger: logger,
		newID:  func() string { return uuid.New().String() },
	}
}

func (svc *service) Ping(ctx context.Context) error {
	return svc.repo.Ping(ctx)
}

// Login finds the student owning the password.
// Unknown and shared passwords both fail; callers should not tell them apart to the user.
func (svc *service) Login(ctx context.Context, password string) (Identity, error) {
	password = core.CleanString(password)
	if password == "" {
		return Identity{}, ErrInvalidCredentials
	}

	students, err := svc.repo.QueryStudents(ctx)
	if err != nil {
		return Identity{}, errors.Wrap(err, "querying students")
	}

	var matches []Student
	for _, s := range students {
		if s.Password == password {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 0:
		return Identity{}, ErrInvalidCredentials
	case 1:
		return matches[0].Identity(), nil
	default:
		names := make([]string, 0, len(matches))
		for _, s := range matches {
			names = append(names, s.Name)
		}
		svc.logger.Error("login refused: duplicate password", ErrDuplicatePassword, map[string]interface{}{"students": names})
		return Identity{}, ErrDuplicatePassword
	}
}

func (svc *service) Dashboard(ctx context.Context, id Identity, now time.Time) (Dashboard, error) {
	logs, err := svc.repo.QueryStudyLogs(ctx)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "querying study logs")
	}
	hws, err := svc.repo.QueryHomework(ctx)
	if err != nil {
		return Dashboard{}, errors.Wrap(err, "querying homework")
	}

	dash := BuildDashboard(id, logs, hws, now)
	if dash.Metrics.Skipped > 0 {
		for _, bad := range MalformedRows(ScopeStudyLogs(logs, id), ScopeHomework(hws, id)) {
			svc.logger.Warn("skipping row in monthly metrics", bad, id)
		}
	}
	return dash, nil
}

func (svc *service) RecordStudy(ctx context.Context, id Identity, nl NewStudyLog) error {
	if !id.IsStudent() {
		return ErrForbidden
	}
	total := nl.TotalMinutes()
	if total <= 0 {
		return ErrEmptyStudy
	}
	subject := nl.Subject
	if sub, ok := ParseSubject(nl.Subject); ok {
		subject = string(sub)
	}

	log := StudyLog{
		Date:    nl.Date,
		Name:    id.Name,
		Subject: subject,
		Minutes: null.IntFrom(total),
		Memo:    nl.Memo,
	}
	return errors.Wrap(svc.repo.CreateStudyLog(ctx, log), "creating study log")
}

// Homework lists the homework visible to id, newest first.
func (svc *service) Homework(ctx context.Context, id Identity) ([]Homework, error) {
	hws, err := svc.repo.QueryHomework(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying homework")
	}
	hws = ScopeHomework(hws, id)
	sort.SliceStable(hws, func(i, j int) bool { return hws[i].Date > hws[j].Date })
	return hws, nil
}

// SetHomeworkDone marks a homework row done or pending.
// Students may only touch their own rows. Concurrent toggles are not detected: last write wins.
func (svc *service) SetHomeworkDone(ctx context.Context, id Identity, hwID string, done bool) error {
	hwID = core.CleanString(hwID)
	hws, err := svc.repo.QueryHomework(ctx)
	if err != nil {
		return errors.Wrap(err, "querying homework")
	}

	var found *Homework
	for i := range hws {
		if hws[i].ID == hwID {
			found = &hws[i]
			break
		}
	}
	if found == nil {
		return ErrHomeworkNotFound
	}
	if !id.IsTeacher() && found.Name != id.Name {
		return ErrHomeworkNotFound // do not reveal other students' homework
	}
	if found.Done == done {
		return nil
	}
	return svc.repo.SetHomeworkDone(ctx, hwID, done)
}

func (svc *service) StudentSummaries(ctx context.Context, id Identity) ([]Summary, error) {
	sums, err := svc.repo.QuerySummaries(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying summaries")
	}
	own := make([]Summary, 0, len(sums))
	for _, s := range sums {
		if s.StudentName == id.Name {
			own = append(own, s)
		}
	}
	sortSummaries(own)
	return own, nil
}

// Summaries returns every lesson note, newest first. Teacher only.
func (svc *service) Summaries(ctx context.Context, id Identity) ([]Summary, error) {
	if !id.IsTeacher() {
		return nil, ErrForbidden
	}
	sums, err := svc.repo.QuerySummaries(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying summaries")
	}
	sortSummaries(sums)
	return sums, nil
}

func (svc *service) WriteSummary(ctx context.Context, id Identity, ns NewSummary) error {
	if !id.IsTeacher() {
		return ErrForbidden
	}
	if err := svc.checkStudent(ctx, ns.StudentName); err != nil {
		return err
	}
	sum := Summary{
		Date:           ns.Date,
		StudentName:    ns.StudentName,
		LessonContent:  ns.LessonContent,
		HomeworkNotice: ns.HomeworkNotice,
	}
	return errors.Wrap(svc.repo.CreateSummary(ctx, sum), "creating summary")
}

func (svc *service) AssignHomework(ctx context.Context, id Identity, nh NewHomework) (Homework, error) {
	if !id.IsTeacher() {
		return Homework{}, ErrForbidden
	}
	if err := svc.checkStudent(ctx, nh.StudentName); err != nil {
		return Homework{}, err
	}
	hw := Homework{
		ID:      svc.newID(),
		Date:    nh.Date,
		Name:    nh.StudentName,
		Content: nh.Content,
	}
	if err := svc.repo.CreateHomework(ctx, hw); err != nil {
		return Homework{}, errors.Wrap(err, "creating homework")
	}
	return hw, nil
}

func (svc *service) ListStudents(ctx context.Context, id Identity) ([]Student, error) {
	if !id.IsTeacher() {
		return nil, ErrForbidden
	}
	students, err := svc.repo.QueryStudents(ctx)
	return students, errors.Wrap(err, "querying students")
}

func (svc *service) StudentNames(ctx context.Context) ([]string, error) {
	students, err := svc.repo.QueryStudents(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	names := make([]string, 0, len(students))
	for _, s := range students {
		if s.Role == RoleStudent {
			names = append(names, s.Name)
		}
	}
	return names, nil
}

// MonthlyReport computes the metrics of one student over the month of `month`.
func (svc *service) MonthlyReport(ctx context.Context, name string, month time.Time) (MonthlyMetrics, error) {
	name = core.CleanString(name)
	if err := svc.checkStudent(ctx, name); err != nil {
		return MonthlyMetrics{}, err
	}
	dash, err := svc.Dashboard(ctx, Identity{Name: name, Role: RoleStudent}, month)
	if err != nil {
		return MonthlyMetrics{}, err
	}
	return dash.Metrics, nil
}

// FindDuplicatePasswords groups the names of students sharing a password.
func (svc *service) FindDuplicatePasswords(ctx context.Context) ([][]string, error) {
	students, err := svc.repo.QueryStudents(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}

	byPwd := make(map[string][]string)
	var order []string
	for _, s := range students {
		if _, ok := byPwd[s.Password]; !ok {
			order = append(order, s.Password)
		}
		byPwd[s.Password] = append(byPwd[s.Password], s.Name)
	}

	var dups [][]string
	for _, pwd := range order {
		if names := byPwd[pwd]; len(names) > 1 {
			dups = append(dups, names)
		}
	}
	return dups, nil
}

func (svc *service) checkStudent(ctx context.Context, name string) error {
	names, err := svc.StudentNames(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		if n == name {
			return nil
		}
	}
	return core.NewValidationError(ErrStudentNotFound, core.FieldError{Field: "student_name", Error: ErrStudentNotFound.Error()})
}

func sortSummaries(sums []Summary) {
	sort.SliceStable(sums, func(i, j int) bool { return sums[i].Date > sums[j].Date })
}
