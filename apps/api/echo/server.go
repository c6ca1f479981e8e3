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

	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/catalog"
	"github.com/trezcool/bolingo/core/communication"
	"github.com/trezcool/bolingo/core/hours"
	"github.com/trezcool/bolingo/core/onboarding"
	"github.com/trezcool/bolingo/core/opportunity"
	"github.com/trezcool/bolingo/core/rsvp"
	"github.com/trezcool/bolingo/core/user"
	"github.com/trezcool/bolingo/core/volunteer"
	"github.com/trezcool/bolingo/services/metrics"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		Limiter    core.RateLimiter
		Metrics    *metrics.Metrics

		UserSvc          *user.Service
		VolunteerSvc     *volunteer.Service
		OpportunitySvc   *opportunity.Service
		RsvpSvc          *rsvp.Service
		HoursSvc         *hours.Service
		SkillSvc         *catalog.Service
		InterestSvc      *catalog.Service
		OnboardingSvc    *onboarding.Service
		CommunicationSvc *communication.Service
	}

	Server struct {
		app      *echo.Echo
		deps     ServerDeps
		auth     *authenticator
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		app:      echo.New(),
		deps:     deps,
		auth:     newAuthenticator(deps.Conf, deps.UserSvc),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if s.deps.Metrics != nil {
		s.app.Use(metricsMiddleware(s.deps.Metrics))
		s.app.GET("/metrics", echo.WrapHandler(s.deps.Metrics.Handler()))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(s.auth.jwtConfig)
	rl := rateLimitMiddleware(s.deps.Limiter, s.deps.Metrics, s.deps.Logger)
	gate := capabilityGate{auth: s.auth}

	registerUserAPI(v1, jwt, rl, gate, s.auth, s.deps.UserSvc, s.deps.VolunteerSvc, s.deps.Validate)
	registerVolunteerAPI(v1, jwt, gate, s.deps.VolunteerSvc, s.deps.HoursSvc, s.deps.Validate)
	registerOpportunityAPI(v1, jwt, rl, gate, s.deps.OpportunitySvc, s.deps.RsvpSvc, s.deps.Metrics, s.deps.Validate)
	registerRsvpAPI(v1, jwt, gate, s.deps.RsvpSvc, s.deps.Validate)
	registerHoursAPI(v1, jwt, gate, s.deps.HoursSvc, s.deps.Validate)
	registerCatalogAPI(v1, jwt, gate, s.deps.SkillSvc, s.deps.VolunteerSvc, s.deps.Validate)
	registerCatalogAPI(v1, jwt, gate, s.deps.InterestSvc, s.deps.VolunteerSvc, s.deps.Validate)
	registerOnboardingAPI(v1, jwt, gate, s.deps.OnboardingSvc)
	registerCommunicationAPI(v1, jwt, gate, s.deps.CommunicationSvc, s.deps.Metrics, s.deps.Validate)
}

// Start blocks until the listener stops. Failures are reported on Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
