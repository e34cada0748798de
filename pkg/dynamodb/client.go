package dynamodb

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Client is the subset of *dynamodb.Client used by Lookup and ControlPlane.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// Option adjusts how NewClient loads the AWS configuration.
type Option func(*clientOptions)

type clientOptions struct {
	configOptions []func(*config.LoadOptions) error
	clientOptions []func(*dynamodb.Options)
}

// WithConfigOption adds a custom AWS config option.
func WithConfigOption(option func(*config.LoadOptions) error) Option {
	return func(o *clientOptions) {
		o.configOptions = append(o.configOptions, option)
	}
}

// WithClientOption adds a custom DynamoDB client option.
func WithClientOption(option func(*dynamodb.Options)) Option {
	return func(o *clientOptions) {
		o.clientOptions = append(o.clientOptions, option)
	}
}

// NewClient loads the default AWS configuration for cfg.Region. Static
// credentials are used when both keys are set, otherwise the default chain
// applies.
func NewClient(ctx context.Context, cfg Config, opts ...Option) (*dynamodb.Client, error) {
	if cfg.Region == "" {
		return nil, ErrMissingRegion
	}
	o := &clientOptions{}
	for _, opt := range opts {
		opt(o)
	}

	awsOptions := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
		awsOptions = append(awsOptions, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
		))
	}
	awsOptions = append(awsOptions, o.configOptions...)

	awsConfig, err := config.LoadDefaultConfig(ctx, awsOptions...)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadConfig, err)
	}

	return dynamodb.NewFromConfig(awsConfig, func(do *dynamodb.Options) {
		if cfg.Endpoint != "" {
			do.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		for _, opt := range o.clientOptions {
			opt(do)
		}
	}), nil
}
