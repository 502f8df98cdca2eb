package echoweb

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/tutor/core"
	"github.com/trezcool/tutor/core/tutor"
)

var (
	csrfContextKey    = "csrf"
	contextAppNameKey = "appName"
)

type (
	Deps struct {
		Conf           *core.Config
		Logger         core.Logger
		TutorSvc       tutor.Service
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool
	}

	Server struct {
		deps     Deps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ http.Handler = (*Server)(nil)

func NewServer(deps Deps) (*Server, error) {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	if err := s.setup(); err != nil {
		return nil, err
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	return s, nil
}

func (s *Server) setup() error {
	conf := s.deps.Conf

	renderer, err := newTemplateRenderer()
	if err != nil {
		return err
	}
	s.app.Renderer = renderer
	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.Secure())
	if !conf.Server.DisableCSRF {
		s.app.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
			TokenLookup:    "form:_csrf",
			ContextKey:     csrfContextKey,
			CookieHTTPOnly: true,
			CookieSameSite: http.SameSiteStrictMode,
			Skipper:        isAPIRequest,
		}))
	}
	s.app.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctx.Set(contextAppNameKey, conf.AppName)
			return next(ctx)
		}
	})

	sessions := sessionCodec{
		appName:    conf.AppName,
		secretKey:  []byte(conf.SecretKey),
		cookieName: conf.Server.SessionCookie,
		expiration: conf.Server.SessionExpirationDelta,
		secure:     !(conf.Debug || conf.TestMode),
	}
	s.app.Use(sessionMiddleware(sessions))

	registerPages(s.app, sessions, s.deps)
	registerAPI(s.app.Group("/api", loginRequired), s.deps)
	return nil
}

// Start listens until the server is shut down; failures are reported on Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}
