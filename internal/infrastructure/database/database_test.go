package database

import (
	"context"
	"testing"

	appconfig "payment_binder/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConnectRedis(t *testing.T) {
	t.Run("pings the server", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client, err := ConnectRedis(context.Background(), appconfig.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
		require.NoError(t, err)
		defer client.Close()

		require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
		got, err := mr.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "v", got)
	})

	t.Run("server unavailable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := ConnectRedis(context.Background(), appconfig.RedisConfig{Addr: addr}, zap.NewNop())
		assert.ErrorContains(t, err, "failed to connect to redis")
	})
}

func TestNewAWSConfig(t *testing.T) {
	t.Run("region and local credentials", func(t *testing.T) {
		cfg, err := NewAWSConfig(context.Background(), appconfig.AWSConfig{
			Region:           "sa-east-1",
			DynamoDBEndpoint: "http://localhost:8000",
		})
		require.NoError(t, err)
		assert.Equal(t, "sa-east-1", cfg.Region)

		creds, err := cfg.Credentials.Retrieve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "local", creds.AccessKeyID)
	})

	t.Run("static credentials", func(t *testing.T) {
		cfg, err := NewAWSConfig(context.Background(), appconfig.AWSConfig{
			AccessKeyID:     "AKIAEXAMPLE",
			SecretAccessKey: "secret",
		})
		require.NoError(t, err)
		assert.Equal(t, defaultAWSRegion, cfg.Region)

		creds, err := cfg.Credentials.Retrieve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "AKIAEXAMPLE", creds.AccessKeyID)
	})
}

func TestConnectDynamoDB(t *testing.T) {
	client, err := ConnectDynamoDB(context.Background(), appconfig.AWSConfig{
		Region:           "us-east-1",
		DynamoDBEndpoint: "http://localhost:8000",
	}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.Equal(t, "http://localhost:8000", *client.Options().BaseEndpoint)
}
