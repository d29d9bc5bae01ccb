package app

import (
	"database/sql"

	"github.com/RezaEskandarii/scribeflow/internal/objectstore"
	"github.com/RezaEskandarii/scribeflow/internal/workflow"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ContainerOption configures Container creation. Used for testing and customization.
type ContainerOption func(*containerConfig)

type containerConfig struct {
	// Optional: inject custom connections instead of creating them from config
	db     *sql.DB
	redis  redis.UniversalClient
	logger *zap.Logger
	s3     objectstore.S3API
	sfn    workflow.SFNAPI
}

// WithDB injects a custom database connection. Useful for testing.
func WithDB(db *sql.DB) ContainerOption {
	return func(c *containerConfig) {
		c.db = db
	}
}

// WithRedis injects a custom Redis client. Useful for testing.
func WithRedis(redis redis.UniversalClient) ContainerOption {
	return func(c *containerConfig) {
		c.redis = redis
	}
}

// WithLogger replaces the logger built from LOG_LEVEL.
func WithLogger(logger *zap.Logger) ContainerOption {
	return func(c *containerConfig) {
		c.logger = logger
	}
}

// WithAWSClients injects the object storage and workflow clients, skipping
// the default AWS credential chain.
func WithAWSClients(s3 objectstore.S3API, sfn workflow.SFNAPI) ContainerOption {
	return func(c *containerConfig) {
		c.s3 = s3
		c.sfn = sfn
	}
}
