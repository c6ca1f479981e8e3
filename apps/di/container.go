// Package di builds the app dependency graph from the Config.
package di

import (
	"context"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	echoapi "github.com/trezcool/bolingo/apps/api/echo"
	"github.com/trezcool/bolingo/assets"
	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/catalog"
	"github.com/trezcool/bolingo/core/communication"
	"github.com/trezcool/bolingo/core/hours"
	"github.com/trezcool/bolingo/core/onboarding"
	"github.com/trezcool/bolingo/core/opportunity"
	"github.com/trezcool/bolingo/core/rsvp"
	"github.com/trezcool/bolingo/core/user"
	"github.com/trezcool/bolingo/core/volunteer"
	emailsvc "github.com/trezcool/bolingo/services/email"
	logsvc "github.com/trezcool/bolingo/services/logger"
	"github.com/trezcool/bolingo/services/metrics"
	"github.com/trezcool/bolingo/services/ratelimit"
	"github.com/trezcool/bolingo/storage/database"
	inmemdb "github.com/trezcool/bolingo/storage/database/inmem"
	sqlxrepos "github.com/trezcool/bolingo/storage/database/sqlx"
)

type (
	// Container holds the dependencies shared by the API server and the admin CLI.
	Container struct {
		Conf       *core.Config
		Logger     *logsvc.RollbarLogger
		Validate   *validator.Validate
		Translator ut.Translator
		MailSvc    core.EmailService

		SQLDB *sqlx.DB    // postgres storage only
		MemDB *inmemdb.DB // memory storage only

		UserSvc          *user.Service
		VolunteerSvc     *volunteer.Service
		OpportunitySvc   *opportunity.Service
		RsvpSvc          *rsvp.Service
		HoursSvc         *hours.Service
		SkillSvc         *catalog.Service
		InterestSvc      *catalog.Service
		OnboardingSvc    *onboarding.Service
		CommunicationSvc *communication.Service

		closers []func() error
	}

	repositories struct {
		tx            core.Transactor
		users         user.Repository
		volunteers    volunteer.Repository
		opportunities opportunity.Repository
		rsvps         rsvp.Repository
		hours         hours.Repository
		skills        catalog.Repository
		interests     catalog.Repository
		onboarding    onboarding.Repository
		communication communication.Repository
	}
)

// NewLogger builds the Rollbar reporting logger, writing through zap.
func NewLogger(conf *core.Config) (*logsvc.RollbarLogger, error) {
	zl, err := logsvc.NewZapLogger(conf)
	if err != nil {
		return nil, errors.Wrap(err, "building zap logger")
	}
	logger := logsvc.NewRollbarLogger(zl, conf)
	logger.Enable(!(conf.Debug || conf.TestMode) && conf.RollbarToken != "")
	return logger, nil
}

// NewValidator returns the validator with every custom tag registered, and its english translator.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	switch {
	case conf.TestMode:
		return emailsvc.NewConsoleServiceMock(conf, logger)
	case conf.Debug || conf.SendgridApiKey == "":
		return emailsvc.NewConsoleService(conf, logger)
	default:
		return emailsvc.NewSendgridService(conf, logger)
	}
}

type (
	options struct {
		skipMigrations bool
	}

	Option func(*options)
)

// WithoutMigrations leaves the postgres schema as it is.
func WithoutMigrations() Option {
	return func(o *options) { o.skipMigrations = true }
}

// New sets up the storage selected by conf (migrating postgres), the mail service and the domain services.
func New(conf *core.Config, logger *logsvc.RollbarLogger, opts ...Option) (*Container, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	c := &Container{Conf: conf, Logger: logger}
	c.Validate, c.Translator = NewValidator()

	core.ParseEmailTemplates(assets.FS, conf, logger)
	user.LoadCommonPasswords(assets.FS, assets.CommonPasswordsFile, logger)
	c.MailSvc = newEmailService(conf, logger)

	var repos repositories
	switch conf.Database.Storage {
	case core.StorageMemory:
		c.MemDB = inmemdb.Open()
		repos = memoryRepositories(c.MemDB)
	case core.StoragePostgres:
		db, err := openPostgres(conf, !o.skipMigrations)
		if err != nil {
			return nil, errors.Wrap(err, "setting up database")
		}
		c.SQLDB = db
		c.closers = append(c.closers, db.Close)
		repos = postgresRepositories(db)
	default:
		return nil, errors.Errorf("unknown storage: %q", conf.Database.Storage)
	}

	c.UserSvc = user.NewService(repos.users, c.MailSvc, conf)
	c.VolunteerSvc = volunteer.NewService(repos.tx, repos.volunteers, c.UserSvc)
	c.OpportunitySvc = opportunity.NewService(repos.opportunities)
	c.RsvpSvc = rsvp.NewService(repos.tx, repos.rsvps, repos.opportunities, repos.volunteers, c.MailSvc)
	c.HoursSvc = hours.NewService(repos.tx, repos.hours, repos.opportunities, repos.volunteers)
	c.SkillSvc = catalog.NewService(catalog.KindSkill, repos.tx, repos.skills, repos.volunteers, repos.opportunities)
	c.InterestSvc = catalog.NewService(catalog.KindInterest, repos.tx, repos.interests, repos.volunteers, repos.opportunities)
	c.OnboardingSvc = onboarding.NewService(repos.onboarding)
	c.CommunicationSvc = communication.NewService(repos.communication, repos.opportunities, c.OnboardingSvc, c.MailSvc, logger)
	return c, nil
}

func openPostgres(conf *core.Config, migrate bool) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if !migrate {
		return db, nil
	}
	if err = database.Migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func memoryRepositories(db *inmemdb.DB) repositories {
	return repositories{
		tx:            db,
		users:         inmemdb.NewUserRepository(db),
		volunteers:    inmemdb.NewVolunteerRepository(db),
		opportunities: inmemdb.NewOpportunityRepository(db),
		rsvps:         inmemdb.NewRsvpRepository(db),
		hours:         inmemdb.NewHoursRepository(db),
		skills:        inmemdb.NewCatalogRepository(db, catalog.KindSkill),
		interests:     inmemdb.NewCatalogRepository(db, catalog.KindInterest),
		onboarding:    inmemdb.NewOnboardingRepository(db),
		communication: inmemdb.NewCommunicationRepository(db),
	}
}

func postgresRepositories(db *sqlx.DB) repositories {
	return repositories{
		tx:            database.NewTransactor(db),
		users:         sqlxrepos.NewUserRepository(db),
		volunteers:    sqlxrepos.NewVolunteerRepository(db),
		opportunities: sqlxrepos.NewOpportunityRepository(db),
		rsvps:         sqlxrepos.NewRsvpRepository(db),
		hours:         sqlxrepos.NewHoursRepository(db),
		skills:        sqlxrepos.NewCatalogRepository(db, catalog.KindSkill),
		interests:     sqlxrepos.NewCatalogRepository(db, catalog.KindInterest),
		onboarding:    sqlxrepos.NewOnboardingRepository(db),
		communication: sqlxrepos.NewCommunicationRepository(db),
	}
}

// NewRateLimiter opens the rate limit store selected by conf. It is closed along with the Container.
func (c *Container) NewRateLimiter(ctx context.Context) (core.RateLimiter, error) {
	rl := c.Conf.RateLimit
	switch rl.Store {
	case core.RateLimitStoreMemory:
		limiter := ratelimit.NewMemoryLimiter(rl.Requests, rl.Window)
		c.closers = append(c.closers, limiter.Close)
		return limiter, nil
	case core.RateLimitStoreNATS:
		nc, err := nats.Connect(rl.NatsURL, nats.Name(c.Conf.AppName+" rate limiter"))
		if err != nil {
			return nil, errors.Wrap(err, "connecting to nats")
		}
		limiter, err := ratelimit.NewNatsLimiter(ctx, nc, rl.Bucket, rl.Requests, rl.Window, c.Logger)
		if err != nil {
			nc.Close()
			return nil, err
		}
		c.closers = append(c.closers, func() error { return nc.Drain() })
		return limiter, nil
	}
	return nil, errors.Errorf("unknown rate limit store: %q", rl.Store)
}

// ServerDeps hands the Container over to the API server.
func (c *Container) ServerDeps(limiter core.RateLimiter, m *metrics.Metrics) echoapi.ServerDeps {
	return echoapi.ServerDeps{
		Conf:             c.Conf,
		Logger:           c.Logger,
		Validate:         c.Validate,
		Translator:       c.Translator,
		Limiter:          limiter,
		Metrics:          m,
		UserSvc:          c.UserSvc,
		VolunteerSvc:     c.VolunteerSvc,
		OpportunitySvc:   c.OpportunitySvc,
		RsvpSvc:          c.RsvpSvc,
		HoursSvc:         c.HoursSvc,
		SkillSvc:         c.SkillSvc,
		InterestSvc:      c.InterestSvc,
		OnboardingSvc:    c.OnboardingSvc,
		CommunicationSvc: c.CommunicationSvc,
	}
}

// Close releases the Container resources, last opened first.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	if len(errs) > 0 {
		return errors.Errorf("closing container: %v", errs)
	}
	return nil
}
