package echoweb

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tutor/core"
	"github.com/trezcool/tutor/core/tutor"
	"github.com/trezcool/tutor/storage/table"
	"github.com/trezcool/tutor/storage/table/inmem"
	"github.com/trezcool/tutor/tests"
)

var testConf = &core.Config{
	Env:       "TEST",
	TestMode:  true,
	AppName:   "Tutor",
	SecretKey: "test-secret",
	Server: core.ServerConfig{
		SessionCookie:          "tutor_session",
		SessionExpirationDelta: time.Hour,
		DisableCSRF:            true,
	},
}

type testApp struct {
	server *Server
	store  *inmem.Store
	logger *testutil.Logger
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	nowFunc = func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { nowFunc = time.Now })

	svc, store, logger := testutil.NewService(t)
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	tutor.InitValidators(validate, translator)

	server, err := NewServer(Deps{
		Conf:           testConf,
		Logger:         logger,
		TutorSvc:       svc,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	require.NoError(t, err)
	return &testApp{server: server, store: store, logger: logger}
}

func sessionCookie(t *testing.T, id tutor.Identity) *http.Cookie {
	t.Helper()
	sc := sessionCodec{
		appName:    testConf.AppName,
		secretKey:  []byte(testConf.SecretKey),
		cookieName: testConf.Server.SessionCookie,
		expiration: testConf.Server.SessionExpirationDelta,
	}
	token, err := sc.encode(id)
	require.NoError(t, err)
	return sc.cookie(token, time.Now().Add(time.Hour))
}

// do sends the request as id (anonymous when id.Name is empty).
// A url.Values body is sent as a form, anything else as JSON.
func (app *testApp) do(t *testing.T, method, path string, id tutor.Identity, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	switch b := body.(type) {
	case nil:
		req = httptest.NewRequest(method, path, nil)
	case url.Values:
		req = httptest.NewRequest(method, path, strings.NewReader(b.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, strings.NewReader(string(data)))
		req.Header.Set("Content-Type", "application/json")
	}
	if id.Name != "" {
		req.AddCookie(sessionCookie(t, id))
	}
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

var anonymous tutor.Identity

func TestLogin(t *testing.T) {
	app := newTestApp(t)

	t.Run("form", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/login", anonymous, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `name="password"`)
	})

	tests := []struct {
		name string
		pwd  string
	}{
		{name: "wrong password", pwd: "9999"},
		{name: "too short", pwd: "12"},
		{name: "not numeric", pwd: "abcd"},
		{name: "empty", pwd: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, http.MethodPost, "/login", anonymous, url.Values{"password": {tt.pwd}})
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "please check your password")
			assert.Empty(t, rec.Result().Cookies())
		})
	}

	t.Run("success", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/login", anonymous, url.Values{"password": {"1234"}})
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, testConf.Server.SessionCookie, cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookies[0])
		home := httptest.NewRecorder()
		app.server.ServeHTTP(home, req)
		assert.Equal(t, http.StatusOK, home.Code)
		assert.Contains(t, home.Body.String(), "민지")
	})

	t.Run("logout", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/logout", testutil.Minji, nil)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Empty(t, cookies[0].Value)
		assert.True(t, cookies[0].MaxAge < 0)
	})

	t.Run("logged in users skip the form", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/login", testutil.Minji, nil)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
	})
}

func TestLoginRequired(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/", anonymous, nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = app.do(t, http.MethodGet, "/api/events", anonymous, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error": "login required"}`, rec.Body.String())

	t.Run("tampered cookie", func(t *testing.T) {
		c := sessionCookie(t, testutil.Minji)
		c.Value += "x"
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(c)
		rec := httptest.NewRecorder()
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
	})

	t.Run("other key", func(t *testing.T) {
		sc := sessionCodec{appName: "Tutor", secretKey: []byte("another"), cookieName: testConf.Server.SessionCookie, expiration: time.Hour}
		token, err := sc.encode(testutil.Teacher)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/students", nil)
		req.AddCookie(sc.cookie(token, time.Now().Add(time.Hour)))
		rec := httptest.NewRecorder()
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
	})
}

func TestRoles(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/lessons", "/assignments", "/students"} {
		rec := app.do(t, http.MethodGet, path, testutil.Minji, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)

		rec = app.do(t, http.MethodGet, path, testutil.Teacher, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
	for _, path := range []string{"/study", "/homework", "/notes"} {
		rec := app.do(t, http.MethodGet, path, testutil.Teacher, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)

		rec = app.do(t, http.MethodGet, path, testutil.Minji, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestHome(t *testing.T) {
	app := newTestApp(t)

	t.Run("student", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/", testutil.Minji, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "2 hours 15 minutes")
		assert.Contains(t, body, "50%")
		assert.Contains(t, body, "dayGridMonth")
		assert.Contains(t, body, tutor.ColorHomeworkDone)
		assert.NotContains(t, body, "Vocabulary")
	})

	t.Run("teacher", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/", testutil.Teacher, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "2 hours 45 minutes")
		assert.Contains(t, body, "33%")
		assert.Contains(t, body, "Vocabulary")
	})

	t.Run("store unavailable", func(t *testing.T) {
		app.store.SetUnavailable(errors.New("connection reset by peer"))
		defer app.store.SetUnavailable(nil)

		rec := app.do(t, http.MethodGet, "/", testutil.Minji, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.NotEmpty(t, app.logger.Messages("error"))

		rec = app.do(t, http.MethodGet, "/api/events", testutil.Minji, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestRecordStudy(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	countLogs := func() int {
		rows, err := app.store.FetchTable(ctx, table.StudyLogs)
		require.NoError(t, err)
		return len(rows)
	}
	before := countLogs()

	t.Run("zero duration", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/study", testutil.Minji, url.Values{
			"date": {"2024-03-15"}, "subject": {"Math"}, "hours": {"0"}, "minutes": {"0"},
		})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Nothing was saved")
		assert.Equal(t, before, countLogs())
	})

	t.Run("invalid", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/study", testutil.Minji, url.Values{
			"date": {"15/03/2024"}, "subject": {"Chemistry"}, "hours": {"1"}, "minutes": {"0"},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "unknown subject")
		assert.Contains(t, rec.Body.String(), "YYYY-MM-DD")
		assert.Equal(t, before, countLogs())
	})

	t.Run("saved", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/study", testutil.Minji, url.Values{
			"date": {"2024-03-15"}, "subject": {"English"}, "hours": {"1"}, "minutes": {"30"}, "memo": {"reading"},
		})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Saved!")
		require.Equal(t, before+1, countLogs())

		rec = app.do(t, http.MethodGet, "/api/metrics", testutil.Minji, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var m tutor.MonthlyMetrics
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
		assert.Equal(t, 225, m.TotalMinutes)
	})
}

func TestHomework(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	done := func(id string) bool {
		rows, err := app.store.FetchTable(ctx, table.Homework)
		require.NoError(t, err)
		for _, r := range rows {
			if r[table.ColID] == id {
				return table.ParseBool(r[table.ColDone])
			}
		}
		t.Fatalf("homework %s not found", id)
		return false
	}

	rec := app.do(t, http.MethodGet, "/homework", testutil.Minji, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Essay")
	assert.NotContains(t, rec.Body.String(), "Vocabulary")

	rec = app.do(t, http.MethodPost, "/homework/hw-2", testutil.Minji, url.Values{"done": {"true"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/homework", rec.Header().Get("Location"))
	assert.True(t, done("hw-2"))

	rec = app.do(t, http.MethodPost, "/homework/hw-3", testutil.Minji, url.Values{"done": {"true"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, done("hw-3"))

	rec = app.do(t, http.MethodPost, "/api/homework/hw-2", testutil.Minji, map[string]bool{"done": false})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, done("hw-2"))

	rec = app.do(t, http.MethodPost, "/api/homework/hw-404", testutil.Minji, map[string]bool{"done": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error": "homework not found"}`, rec.Body.String())
}

func TestTeacherPages(t *testing.T) {
	app := newTestApp(t)

	t.Run("students", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/students", testutil.Teacher, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "준호")
		assert.NotContains(t, rec.Body.String(), "5678")
	})

	t.Run("lessons", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/lessons", testutil.Teacher, url.Values{
			"date": {"2024-03-15"}, "student_name": {"준호"}, "lesson_content": {"Ratios and rates"}, "homework_notice": {"p.42"},
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Saved!")
		assert.Contains(t, rec.Body.String(), "Ratios and rates")

		rec = app.do(t, http.MethodGet, "/notes", testutil.Junho, nil)
		assert.Contains(t, rec.Body.String(), "Ratios and rates")
		rec = app.do(t, http.MethodGet, "/notes", testutil.Minji, nil)
		assert.NotContains(t, rec.Body.String(), "Ratios and rates")
	})

	t.Run("assignments", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/assignments", testutil.Teacher, url.Values{
			"date": {"2024-03-20"}, "student_name": {"준호"}, "content": {"Chapter 3 exercises"},
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Chapter 3 exercises")

		rec = app.do(t, http.MethodGet, "/homework", testutil.Junho, nil)
		assert.Contains(t, rec.Body.String(), "Chapter 3 exercises")
	})

	t.Run("unknown student", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/assignments", testutil.Teacher, url.Values{
			"date": {"2024-03-20"}, "student_name": {"nobody"}, "content": {"x"},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), tutor.ErrStudentNotFound.Error())
	})
}

func TestAPI(t *testing.T) {
	app := newTestApp(t)

	t.Run("events", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/api/events", testutil.Minji, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var events []tutor.CalendarEvent
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
		assert.Len(t, events, 8)
		assert.Equal(t, tutor.CalendarEvent{Title: "📖 Math (1 hours 30 minutes)", Start: "2024-03-05", Color: tutor.ColorStudy}, events[0])
	})

	tests := []struct {
		name     string
		id       tutor.Identity
		query    string
		wantCode int
		wantMins int
	}{
		{name: "current month", id: testutil.Minji, wantCode: http.StatusOK, wantMins: 135},
		{name: "given month", id: testutil.Minji, query: "?month=2024-02", wantCode: http.StatusOK, wantMins: 60},
		{name: "students ignore name", id: testutil.Minji, query: "?name=" + url.QueryEscape("준호"), wantCode: http.StatusOK, wantMins: 135},
		{name: "teacher asks for a student", id: testutil.Teacher, query: "?name=" + url.QueryEscape("준호"), wantCode: http.StatusOK, wantMins: 30},
		{name: "teacher overall", id: testutil.Teacher, wantCode: http.StatusOK, wantMins: 165},
		{name: "bad month", id: testutil.Minji, query: "?month=March", wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, http.MethodGet, "/api/metrics"+tt.query, tt.id, nil)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode != http.StatusOK {
				return
			}
			var m tutor.MonthlyMetrics
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
			assert.Equal(t, tt.wantMins, m.TotalMinutes)
		})
	}
}
