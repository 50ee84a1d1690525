package echoapi

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

	"github.com/edusuite/gradebook/core"
	"github.com/edusuite/gradebook/core/gradebook"
	"github.com/edusuite/gradebook/core/notify"
	"github.com/edusuite/gradebook/core/order"
	"github.com/edusuite/gradebook/core/roster"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		Conf         *core.Config
		Logger       core.Logger
		GradebookSvc *gradebook.Service
		OrderSvc     *order.Service
		NotifySvc    *notify.Service
		Directory    roster.Directory
		Validate     *validator.Validate
		Translator   ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts     *Options
		app      *echo.Echo
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts:     opts,
		app:      echo.New(),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

// signalShutdown lets the error handler request a graceful stop when an
// integrity error bubbles up.
func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) setup() {
	debug := s.opts.Conf.Debug

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(debug || s.opts.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.signalShutdown)
	s.app.Debug = debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1", identityMiddleware(s.opts.Directory))

	registerGradebookAPI(v1, s.opts)

	// TODO: swagger !!
}

// Start serves until SIGINT/SIGTERM or a shutdown request from the error
// handler, then drains outstanding requests within the configured timeout.
func (s *server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := s.app.Start(s.opts.Address); err != nil && err != http.ErrServerClosed {
			s.app.Logger.Fatal(err)
		}
	}()

	<-s.shutdown

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.Conf.Server.ShutdownTimeout)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		s.app.Logger.Fatal(err)
	}
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Gradebook API!")
}

// identityMiddleware resolves the caller from the X-User-Id header and
// threads them through the request context. Authentication proper happens
// upstream; this is only the identity seam the business layer reads.
func identityMiddleware(dir roster.Directory) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			userID := ctx.Request().Header.Get("X-User-Id")
			if userID == "" {
				return errUnauthorized
			}
			usr, err := dir.User(ctx.Request().Context(), userID)
			if err != nil {
				return errUnauthorized
			}
			req := ctx.Request()
			ctx.SetRequest(req.WithContext(roster.WithCurrentUser(req.Context(), usr)))
			return next(ctx)
		}
	}
}
