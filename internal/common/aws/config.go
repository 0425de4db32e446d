package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// LoadConfig loads the default AWS credential chain for region. A non-empty
// endpoint redirects every service to a local emulator with static
// credentials.
func LoadConfig(ctx context.Context, region, endpoint string) (awssdk.Config, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}

	if endpoint != "" {
		resolver := awssdk.EndpointResolverWithOptionsFunc(func(service, r string, _ ...interface{}) (awssdk.Endpoint, error) {
			return awssdk.Endpoint{
				PartitionID:   "aws",
				URL:           endpoint,
				SigningRegion: region,
			}, nil
		})
		opts = append(opts,
			config.WithEndpointResolverWithOptions(resolver),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("local", "local", "")),
		)
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return awssdk.Config{}, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}
	return cfg, nil
}
