package aws

import (
	"context"
	"fmt"
	"os"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

const defaultRegion = "us-east-1"

// ConfigOptions overrides what is otherwise read from the environment.
type ConfigOptions struct {
	Region string
	// Endpoint points every client at a custom endpoint, e.g. LocalStack.
	Endpoint string
}

// LoadAWSConfig loads the default AWS config using AWS_REGION and
// AWS_ENDPOINT_OVERRIDE from the environment.
func LoadAWSConfig(ctx context.Context) (sdkaws.Config, error) {
	return LoadAWSConfigWith(ctx, ConfigOptions{
		Region:   os.Getenv("AWS_REGION"),
		Endpoint: os.Getenv("AWS_ENDPOINT_OVERRIDE"),
	})
}

// LoadAWSConfigWith loads the default AWS config with explicit overrides.
func LoadAWSConfigWith(ctx context.Context, opts ConfigOptions) (sdkaws.Config, error) {
	region := opts.Region
	if region == "" {
		region = defaultRegion
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
	)
	if err != nil {
		return cfg, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if opts.Endpoint != "" {
		cfg.BaseEndpoint = sdkaws.String(opts.Endpoint)
	}
	return cfg, nil
}
