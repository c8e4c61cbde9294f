package s3

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// R2 client defaults.
const (
	R2Region           = "auto"
	DefaultMaxAttempts = 3
	DefaultDialTimeout = 3 * time.Second
	DefaultTimeout     = 10 * time.Second
)

// R2Config holds the connection settings for a Cloudflare R2 account.
type R2Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string

	// Zero values fall back to the defaults above.
	MaxAttempts int
	DialTimeout time.Duration
	Timeout     time.Duration
}

// Validate reports the first missing required setting.
func (c R2Config) Validate() error {
	switch {
	case c.Endpoint == "":
		return errors.New("s3: r2 endpoint is required")
	case c.AccessKeyID == "":
		return errors.New("s3: r2 access key id is required")
	case c.SecretAccessKey == "":
		return errors.New("s3: r2 secret access key is required")
	}
	return nil
}

// NewR2Client builds an S3 client for R2 with static credentials, bounded
// retries and explicit dial and request timeouts.
func NewR2Client(ctx context.Context, cfg R2Config) (*s3.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	attempts := cmpOr(cfg.MaxAttempts, DefaultMaxAttempts)
	dial := cmpOr(cfg.DialTimeout, DefaultDialTimeout)
	timeout := cmpOr(cfg.Timeout, DefaultTimeout)

	httpClient := awshttp.NewBuildableClient().
		WithTimeout(timeout).
		WithDialerOptions(func(d *net.Dialer) {
			d.Timeout = dial
		})

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(R2Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		config.WithRetryMaxAttempts(attempts),
		config.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("s3: load config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
	}), nil
}

func cmpOr[T int | time.Duration](v, def T) T {
	if v > 0 {
		return v
	}
	return def
}
