package app

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/RezaEskandarii/scribeflow/custom_errors"
	"github.com/RezaEskandarii/scribeflow/internal/identity"
	"github.com/RezaEskandarii/scribeflow/types/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func loadConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	base := map[string]string{"DB_URL": "postgres://localhost/scribeflow"}
	for k, v := range env {
		base[k] = v
	}
	cfg, err := config.LoadFrom(func(k string) string { return base[k] })
	require.NoError(t, err)
	return cfg
}

func newTestContainer(t *testing.T, cfg *config.Config, opts ...ContainerOption) (*Container, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	opts = append([]ContainerOption{
		WithDB(db),
		WithLogger(zap.NewNop()),
		WithAWSClients(s3.New(s3.Options{Region: "us-east-1"}), sfn.New(sfn.Options{Region: "us-east-1"})),
	}, opts...)
	c, err := NewContainer(context.Background(), cfg, opts...)
	require.NoError(t, err)
	return c, mock
}

func TestNewContainer_WiresHandlers(t *testing.T) {
	cfg := loadConfig(t, map[string]string{
		"STATE_MACHINE_ARN": "arn:aws:states:us-east-1:123456789012:stateMachine:transcribe",
		"RESULTS_BUCKET":    "results",
		"USER_INFO":         "user",
		"AUTH_METHOD":       "cognito",
	})
	c, mock := newTestContainer(t, cfg)

	intakeHandler, err := c.IntakeHandler()
	require.NoError(t, err)
	assert.NotNil(t, intakeHandler)

	completionHandler, err := c.CompletionHandler()
	require.NoError(t, err)
	assert.NotNil(t, completionHandler)

	recorder, err := c.TokenRecorder()
	require.NoError(t, err)
	assert.NotNil(t, recorder)

	statuses, err := c.StatusRecorder()
	require.NoError(t, err)
	assert.NotNil(t, statuses)

	router, err := c.QueryRouter()
	require.NoError(t, err)
	assert.NotNil(t, router)

	assert.NotNil(t, c.OrphanReporter())
	assert.Nil(t, c.Redis)

	mock.ExpectClose()
	require.NoError(t, c.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContainer_IntakeRequiresStateMachine(t *testing.T) {
	c, _ := newTestContainer(t, loadConfig(t, nil))

	_, err := c.IntakeHandler()
	require.Error(t, err)
	var v *custom_errors.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Contains(t, err.Error(), "STATE_MACHINE_ARN")
}

func TestContainer_QueryRequiresResultsBucket(t *testing.T) {
	c, _ := newTestContainer(t, loadConfig(t, nil))

	_, err := c.QueryRouter()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RESULTS_BUCKET")
}

func TestContainer_TokenModeWithRedisCache(t *testing.T) {
	cfg := loadConfig(t, map[string]string{
		"STATE_MACHINE_ARN": "arn:aws:states:us-east-1:123456789012:stateMachine:transcribe",
		"USER_INFO":         "token",
		"JWKS_CACHE":        "redis",
		"REDIS_ADDR":        "localhost:6379",
	})
	client, _ := redismock.NewClientMock()
	c, _ := newTestContainer(t, cfg, WithRedis(client))

	assert.Same(t, client, c.Redis)
	assert.False(t, c.ownsRedis)
	require.NotNil(t, c.Verifier)

	h, err := c.IntakeHandler()
	require.NoError(t, err)
	assert.NotNil(t, h)
}

func TestContainer_RedisCacheWithoutClient(t *testing.T) {
	cfg := loadConfig(t, map[string]string{
		"STATE_MACHINE_ARN": "arn:aws:states:us-east-1:123456789012:stateMachine:transcribe",
	})
	cfg.KeySetCache.Driver = config.CacheRedis

	_, err := newTokenVerifier(cfg, nil, zap.NewNop())
	assert.ErrorIs(t, err, custom_errors.ErrConfiguration)
}

func TestContainer_OwnsRedisClientFromConfig(t *testing.T) {
	cfg := loadConfig(t, map[string]string{"REDIS_ADDR": "localhost:6379"})
	c, mock := newTestContainer(t, cfg)

	require.NotNil(t, c.Redis)
	assert.True(t, c.ownsRedis)

	mock.ExpectClose()
	assert.NoError(t, c.Close())
}

func TestContainer_IdentityResolverModes(t *testing.T) {
	cfg := loadConfig(t, map[string]string{"USER_INFO": "none", "DEFAULT_USER": "bob"})
	c, _ := newTestContainer(t, cfg)

	r, err := identity.New(c.Config.IntakeIdentity, c.Verifier, c.Logger)
	require.NoError(t, err)
	user, err := r.Resolve(context.Background(), identity.Source{})
	require.NoError(t, err)
	assert.Equal(t, "bob", user)
}
