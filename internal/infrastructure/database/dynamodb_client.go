package database

import (
	"context"
	"fmt"

	appconfig "payment_binder/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

const defaultAWSRegion = "us-east-1"

// ConnectDynamoDB creates a DynamoDB client. cfg.DynamoDBEndpoint points it at a local DynamoDB
// (e.g. http://dynamodb:8000).
func ConnectDynamoDB(ctx context.Context, cfg appconfig.AWSConfig, logger *zap.Logger) (*dynamodb.Client, error) {
	awsCfg, err := NewAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws config: %w", err)
	}

	endpoint := cfg.DynamoDBEndpoint
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	logger.Info("dynamodb client initialized", zap.String("region", awsCfg.Region), zap.Bool("custom_endpoint", endpoint != ""))
	return client, nil
}

// NewAWSConfig loads the default AWS chain, overridden by static credentials when both keys are set.
func NewAWSConfig(ctx context.Context, cfg appconfig.AWSConfig) (aws.Config, error) {
	region := cfg.Region
	if region == "" {
		region = defaultAWSRegion
	}
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}

	// Local DynamoDB does not validate credentials, but the AWS SDK requires them.
	key, secret := cfg.AccessKeyID, cfg.SecretAccessKey
	if cfg.DynamoDBEndpoint != "" && (key == "" || secret == "") {
		key, secret = "local", "local"
	}
	if key != "" && secret != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(key, secret, cfg.SessionToken),
		))
	}

	return config.LoadDefaultConfig(ctx, loadOpts...)
}
