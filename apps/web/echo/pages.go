package echoweb

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tutor/core"
	"github.com/trezcool/tutor/core/tutor"
)

var (
	msgSaved        = "Saved!"
	msgNothingSaved = "Nothing was saved: study time must be greater than zero."
)

// calendarOptions configures the FullCalendar widget on the home page.
var calendarOptions = map[string]interface{}{
	"initialView": "dayGridMonth",
	"headerToolbar": map[string]string{
		"left":   "prev,next",
		"center": "title",
		"right":  "today",
	},
}

type pages struct {
	svc        tutor.Service
	sessions   sessionCodec
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator
}

func registerPages(app *echo.Echo, sessions sessionCodec, deps Deps) {
	p := pages{
		svc:        deps.TutorSvc,
		sessions:   sessions,
		logger:     deps.Logger,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	// un-authed pages
	app.GET("/login", p.loginForm)
	app.POST("/login", p.login)
	app.POST("/logout", p.logout)

	// authed pages
	student := []echo.MiddlewareFunc{loginRequired, roleMiddleware(tutor.RoleStudent)}
	teacher := []echo.MiddlewareFunc{loginRequired, roleMiddleware(tutor.RoleTeacher)}

	app.GET("/", p.home, loginRequired)

	app.GET("/study", p.studyForm, student...)
	app.POST("/study", p.recordStudy, student...)
	app.GET("/homework", p.homework, student...)
	app.POST("/homework/:id", p.toggleHomework, student...)
	app.GET("/notes", p.notes, student...)

	app.GET("/lessons", p.lessons, teacher...)
	app.POST("/lessons", p.writeSummary, teacher...)
	app.GET("/assignments", p.assignments, teacher...)
	app.POST("/assignments", p.assignHomework, teacher...)
	app.GET("/students", p.students, teacher...)
}

// Handlers

func (p *pages) loginForm(ctx echo.Context) error {
	if getSession(ctx).Authenticated {
		return ctx.Redirect(http.StatusSeeOther, "/")
	}
	return render(ctx, http.StatusOK, "login.html", newPageData(ctx, "Login", nil))
}

func (p *pages) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}

	id, err := p.authenticate(ctx, data)
	if err != nil {
		if errors.Is(err, tutor.ErrInvalidCredentials) || errors.Is(err, tutor.ErrDuplicatePassword) {
			pd := newPageData(ctx, "Login", nil)
			pd.Errors = map[string]string{"password": errAuthenticationFailed.Message.(string)}
			return render(ctx, http.StatusUnauthorized, "login.html", pd)
		}
		return errors.Wrap(err, "authenticating")
	}
	if err := p.sessions.login(ctx, id); err != nil {
		return errors.Wrap(err, "starting session")
	}
	return ctx.Redirect(http.StatusSeeOther, "/")
}

// authenticate treats malformed passwords like wrong ones so the form never hints at valid identities.
func (p *pages) authenticate(ctx echo.Context, data LoginRequest) (tutor.Identity, error) {
	if err := data.Validate(p.validate); err != nil {
		return tutor.Identity{}, tutor.ErrInvalidCredentials
	}
	return p.svc.Login(ctx.Request().Context(), data.Password)
}

func (p *pages) logout(ctx echo.Context) error {
	p.sessions.logout(ctx)
	return ctx.Redirect(http.StatusSeeOther, "/login")
}

type homeData struct {
	Events          []tutor.CalendarEvent
	Metrics         tutor.MonthlyMetrics
	CalendarOptions map[string]interface{}
}

func (p *pages) home(ctx echo.Context) error {
	dash, err := p.svc.Dashboard(ctx.Request().Context(), getIdentity(ctx), nowFunc())
	if err != nil {
		return errors.Wrap(err, "building dashboard")
	}
	return render(ctx, http.StatusOK, "home.html", newPageData(ctx, "Calendar", homeData{
		Events:          dash.Events,
		Metrics:         dash.Metrics,
		CalendarOptions: calendarOptions,
	}))
}

type studyData struct {
	Form     tutor.NewStudyLog
	Subjects []tutor.Subject
}

func (p *pages) studyForm(ctx echo.Context) error {
	form := tutor.NewStudyLog{Date: nowFunc().Format(core.DateLayout), Hours: 1}
	return p.renderStudy(ctx, http.StatusOK, form, "", nil)
}

func (p *pages) recordStudy(ctx echo.Context) error {
	var form tutor.NewStudyLog
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to NewStudyLog")
	}
	if err := form.Validate(p.validate); err != nil {
		if err == tutor.ErrEmptyStudy {
			// dropped without writing anything
			return p.renderStudy(ctx, http.StatusOK, form, msgNothingSaved, nil)
		}
		if fields, ok := formErrors(err, p.translator); ok {
			return p.renderStudy(ctx, http.StatusBadRequest, form, "", fields)
		}
		return err
	}
	if err := p.svc.RecordStudy(ctx.Request().Context(), getIdentity(ctx), form); err != nil {
		return errors.Wrap(err, "recording study")
	}
	next := tutor.NewStudyLog{Date: form.Date, Subject: form.Subject, Hours: 1}
	return p.renderStudy(ctx, http.StatusOK, next, msgSaved, nil)
}

func (p *pages) renderStudy(ctx echo.Context, code int, form tutor.NewStudyLog, flash string, fields map[string]string) error {
	pd := newPageData(ctx, "Study Log", studyData{Form: form, Subjects: tutor.Subjects})
	pd.Flash = flash
	pd.Errors = fields
	return render(ctx, code, "study.html", pd)
}

func (p *pages) homework(ctx echo.Context) error {
	hws, err := p.svc.Homework(ctx.Request().Context(), getIdentity(ctx))
	if err != nil {
		return errors.Wrap(err, "querying homework")
	}
	return render(ctx, http.StatusOK, "homework.html", newPageData(ctx, "To-Do", hws))
}

func (p *pages) toggleHomework(ctx echo.Context) error {
	var data ToggleHomeworkRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ToggleHomeworkRequest")
	}
	if err := p.svc.SetHomeworkDone(ctx.Request().Context(), getIdentity(ctx), ctx.Param("id"), data.Done); err != nil {
		return errors.Wrap(err, "updating homework")
	}
	return ctx.Redirect(http.StatusSeeOther, "/homework")
}

func (p *pages) notes(ctx echo.Context) error {
	sums, err := p.svc.StudentSummaries(ctx.Request().Context(), getIdentity(ctx))
	if err != nil {
		return errors.Wrap(err, "querying summaries")
	}
	return render(ctx, http.StatusOK, "notes.html", newPageData(ctx, "Notes from the teacher", sums))
}

type lessonsData struct {
	Form      tutor.NewSummary
	Students  []string
	Summaries []tutor.Summary
}

func (p *pages) lessons(ctx echo.Context) error {
	form := tutor.NewSummary{Date: nowFunc().Format(core.DateLayout)}
	return p.renderLessons(ctx, http.StatusOK, form, "", nil)
}

func (p *pages) writeSummary(ctx echo.Context) error {
	var form tutor.NewSummary
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to NewSummary")
	}
	err := form.Validate(p.validate)
	if err == nil {
		err = p.svc.WriteSummary(ctx.Request().Context(), getIdentity(ctx), form)
	}
	if err != nil {
		if fields, ok := formErrors(err, p.translator); ok {
			return p.renderLessons(ctx, http.StatusBadRequest, form, "", fields)
		}
		return errors.Wrap(err, "writing summary")
	}
	next := tutor.NewSummary{Date: form.Date}
	return p.renderLessons(ctx, http.StatusOK, next, msgSaved, nil)
}

func (p *pages) renderLessons(ctx echo.Context, code int, form tutor.NewSummary, flash string, fields map[string]string) error {
	reqCtx := ctx.Request().Context()
	id := getIdentity(ctx)

	names, err := p.svc.StudentNames(reqCtx)
	if err != nil {
		return errors.Wrap(err, "querying student names")
	}
	sums, err := p.svc.Summaries(reqCtx, id)
	if err != nil {
		return errors.Wrap(err, "querying summaries")
	}
	pd := newPageData(ctx, "Lesson notes", lessonsData{Form: form, Students: names, Summaries: sums})
	pd.Flash = flash
	pd.Errors = fields
	return render(ctx, code, "lessons.html", pd)
}

type assignmentsData struct {
	Form     tutor.NewHomework
	Students []string
	Homework []tutor.Homework
}

func (p *pages) assignments(ctx echo.Context) error {
	form := tutor.NewHomework{Date: nowFunc().Format(core.DateLayout)}
	return p.renderAssignments(ctx, http.StatusOK, form, "", nil)
}

func (p *pages) assignHomework(ctx echo.Context) error {
	var form tutor.NewHomework
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to NewHomework")
	}
	err := form.Validate(p.validate)
	if err == nil {
		_, err = p.svc.AssignHomework(ctx.Request().Context(), getIdentity(ctx), form)
	}
	if err != nil {
		if fields, ok := formErrors(err, p.translator); ok {
			return p.renderAssignments(ctx, http.StatusBadRequest, form, "", fields)
		}
		return errors.Wrap(err, "assigning homework")
	}
	next := tutor.NewHomework{Date: form.Date, StudentName: form.StudentName}
	return p.renderAssignments(ctx, http.StatusOK, next, msgSaved, nil)
}

func (p *pages) renderAssignments(ctx echo.Context, code int, form tutor.NewHomework, flash string, fields map[string]string) error {
	reqCtx := ctx.Request().Context()
	id := getIdentity(ctx)

	names, err := p.svc.StudentNames(reqCtx)
	if err != nil {
		return errors.Wrap(err, "querying student names")
	}
	hws, err := p.svc.Homework(reqCtx, id)
	if err != nil {
		return errors.Wrap(err, "querying homework")
	}
	pd := newPageData(ctx, "Homework", assignmentsData{Form: form, Students: names, Homework: hws})
	pd.Flash = flash
	pd.Errors = fields
	return render(ctx, code, "assignments.html", pd)
}

func (p *pages) students(ctx echo.Context) error {
	students, err := p.svc.ListStudents(ctx.Request().Context(), getIdentity(ctx))
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	return render(ctx, http.StatusOK, "students.html", newPageData(ctx, "Students", students))
}

// formErrors extracts field messages from validation failures.
func formErrors(err error, translator ut.Translator) (map[string]string, bool) {
	switch origErr := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		return core.FieldErrors(origErr, translator), true
	case *core.ValidationError:
		fields := make(map[string]string, len(origErr.Fields))
		for _, f := range origErr.Fields {
			fields[f.Field] = f.Error
		}
		return fields, true
	}
	return nil, false
}
