package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/RezaEskandarii/scribeflow/custom_errors"
	"github.com/RezaEskandarii/scribeflow/internal/completion"
	"github.com/RezaEskandarii/scribeflow/internal/db"
	"github.com/RezaEskandarii/scribeflow/internal/event"
	"github.com/RezaEskandarii/scribeflow/internal/identity"
	"github.com/RezaEskandarii/scribeflow/internal/intake"
	"github.com/RezaEskandarii/scribeflow/internal/lock"
	"github.com/RezaEskandarii/scribeflow/internal/logging"
	"github.com/RezaEskandarii/scribeflow/internal/objectstore"
	"github.com/RezaEskandarii/scribeflow/internal/query"
	"github.com/RezaEskandarii/scribeflow/internal/store"
	"github.com/RezaEskandarii/scribeflow/internal/store/postgres"
	"github.com/RezaEskandarii/scribeflow/internal/sweep"
	"github.com/RezaEskandarii/scribeflow/internal/workflow"
	"github.com/RezaEskandarii/scribeflow/types/config"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Container holds all application dependencies. It is the single source of truth
// for dependency injection and ensures connections and services are created once.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	// Storage connections (created once, shared by all components)
	DB    *sql.DB
	Redis redis.UniversalClient

	Store       store.JobRecordStore
	LockManager lock.DistributedLockManager

	Objects  objectstore.ObjectStore
	Engine   workflow.Engine
	Verifier *identity.TokenVerifier
	Parser   *event.Parser

	ownsRedis bool
}

// NewContainer creates and wires all dependencies. Single entry point for DI.
// Call this once per process. Handlers are built on demand by the accessor
// methods so each command only validates what it runs.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...ContainerOption) (*Container, error) {
	opt := &containerConfig{}
	for _, o := range opts {
		o(opt)
	}

	logger := opt.logger
	if logger == nil {
		l, err := logging.New(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("init logger: %w: %w", custom_errors.ErrConfiguration, err)
		}
		logger = l
	}

	sqlDB := opt.db
	if sqlDB == nil {
		if err := cfg.ValidateStore(); err != nil {
			return nil, err
		}
		d, err := db.Open(ctx, cfg.PostgresConfig.ConnectionUrl)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		sqlDB = d
	}

	redisClient, ownsRedis := opt.redis, false
	if redisClient == nil && cfg.RedisConfig.Address != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Address,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		})
		ownsRedis = true
	}

	s3Client, sfnClient := opt.s3, opt.sfn
	if s3Client == nil || sfnClient == nil {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w: %w", custom_errors.ErrConfiguration, err)
		}
		if s3Client == nil {
			s3Client = s3.NewFromConfig(awsCfg)
		}
		if sfnClient == nil {
			sfnClient = sfn.NewFromConfig(awsCfg)
		}
	}

	verifier, err := newTokenVerifier(cfg, redisClient, logger)
	if err != nil {
		return nil, err
	}

	parser, err := event.NewParser()
	if err != nil {
		return nil, fmt.Errorf("init event parser: %w", err)
	}

	return &Container{
		Config:      cfg,
		Logger:      logger,
		DB:          sqlDB,
		Redis:       redisClient,
		Store:       postgres.NewPostgresJobRecordStore(sqlDB, cfg.PostgresConfig.Table),
		LockManager: lock.NewPostgresDistributedLockManager(sqlDB),
		Objects:     objectstore.NewS3(s3Client),
		Engine:      workflow.NewStepFunctions(sfnClient, cfg.StateMachineARN, logger),
		Verifier:    verifier,
		Parser:      parser,
		ownsRedis:   ownsRedis,
	}, nil
}

func newTokenVerifier(cfg *config.Config, redisClient redis.UniversalClient, logger *zap.Logger) (*identity.TokenVerifier, error) {
	opts := []identity.VerifierOption{
		identity.WithVerifierLogger(logger),
		identity.WithTrustedIssuers(cfg.IntakeIdentity.TrustedIssuers...),
	}
	switch cfg.KeySetCache.Driver {
	case config.CacheMemory:
		opts = append(opts, identity.WithKeySetCache(identity.NewMemoryKeySetCache(cfg.KeySetCache.TTL)))
	case config.CacheRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("JWKS_CACHE=redis without a redis client: %w", custom_errors.ErrConfiguration)
		}
		opts = append(opts, identity.WithKeySetCache(identity.NewRedisKeySetCache(redisClient, cfg.KeySetCache.TTL)))
	}
	return identity.NewTokenVerifier(cfg.RequestTimeout, opts...), nil
}

// Migrate creates the job record table under the migration advisory lock.
func (c *Container) Migrate(ctx context.Context) error {
	return db.Migrate(ctx, c.DB, c.LockManager, c.Config.PostgresConfig.Table, c.Logger)
}

// IntakeHandler builds the upload intake handler with the USER_INFO resolver.
func (c *Container) IntakeHandler() (*intake.Handler, error) {
	if err := c.Config.ValidateIntake(); err != nil {
		return nil, err
	}
	resolver, err := identity.New(c.Config.IntakeIdentity, c.Verifier, c.Logger)
	if err != nil {
		return nil, err
	}
	return intake.NewHandler(c.Store, c.Engine, c.Objects, resolver,
		intake.WithResultPrefix(c.Config.ResultPrefix),
		intake.WithRequestTimeout(c.Config.RequestTimeout),
		intake.WithLogger(c.Logger),
	), nil
}

// CompletionHandler builds the completion signal handler.
func (c *Container) CompletionHandler() (*completion.Handler, error) {
	if err := c.Config.ValidateCompletion(); err != nil {
		return nil, err
	}
	return completion.NewHandler(c.Store, c.Engine,
		completion.WithResultPrefix(c.Config.ResultPrefix),
		completion.WithRequestTimeout(c.Config.RequestTimeout),
		completion.WithLogger(c.Logger),
	), nil
}

// TokenRecorder builds the wait-state callback that stores continuation tokens.
func (c *Container) TokenRecorder() (*completion.TokenRecorder, error) {
	if err := c.Config.ValidateStore(); err != nil {
		return nil, err
	}
	return completion.NewTokenRecorder(c.Store, c.Config.RequestTimeout, c.Logger), nil
}

// StatusRecorder builds the task-state callback that advances job_status.
func (c *Container) StatusRecorder() (*completion.StatusRecorder, error) {
	if err := c.Config.ValidateStore(); err != nil {
		return nil, err
	}
	return completion.NewStatusRecorder(c.Store, c.Config.RequestTimeout, c.Logger), nil
}

// QueryRouter builds the query surface with the AUTH_METHOD resolver.
func (c *Container) QueryRouter() (*query.Router, error) {
	if err := c.Config.ValidateQuery(); err != nil {
		return nil, err
	}
	resolver, err := identity.New(c.Config.QueryIdentity, c.Verifier, c.Logger)
	if err != nil {
		return nil, err
	}
	service := query.NewService(c.Store, c.Objects, c.Config.ResultsBucket, c.Config.ResultPrefix, c.Config.RequestTimeout)
	return query.NewRouter(service, resolver, c.Logger), nil
}

// OrphanReporter builds the periodic report of records whose workflow never reached its wait state.
func (c *Container) OrphanReporter() *sweep.OrphanReporter {
	return sweep.NewOrphanReporter(c.Store, c.LockManager, c.Config.OrphanAge, c.Logger)
}

// Close releases the connections the container opened.
func (c *Container) Close() error {
	var errs []error
	if c.ownsRedis && c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	errs = append(errs, c.Store.Close())
	_ = c.Logger.Sync()
	return errors.Join(errs...)
}
