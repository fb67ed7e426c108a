// Package publish mirrors named slot output to S3 so static hosts can serve
// the latest rendering of a slot without running the live server.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/bind/internal/config"
)

// PutObjectAPI is the subset of *s3.Client the sink needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads every slot write to <prefix><name>.html. It implements
// anchor.Sink.
type S3Sink struct {
	client PutObjectAPI
	bucket string
	prefix string
	logger *slog.Logger
	now    func() time.Time
}

// NewS3Sink creates a sink writing to bucket.
func NewS3Sink(client PutObjectAPI, bucket, prefix string) *S3Sink {
	return &S3Sink{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: slog.Default().With("component", "publish"),
		now:    time.Now,
	}
}

// WithLogger sets the sink logger.
func (s *S3Sink) WithLogger(logger *slog.Logger) *S3Sink {
	s.logger = logger
	return s
}

// Key returns the object key for a slot.
func (s *S3Sink) Key(name string) string {
	return s.prefix + name + ".html"
}

// Publish uploads markup for the named slot.
func (s *S3Sink) Publish(ctx context.Context, name, markup string) error {
	key := s.Key(name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         strings.NewReader(markup),
		ContentType:  aws.String("text/html; charset=utf-8"),
		CacheControl: aws.String("no-cache"),
		Metadata: map[string]string{
			"slot":         name,
			"published-at": s.now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("s3 publish %s: %w", key, err)
	}
	s.logger.Debug("slot published", "slot", name, "bucket", s.bucket, "key", key, "bytes", len(markup))
	return nil
}

// NewClient builds an S3 client from publish settings. Credentials come from
// the standard AWS_* environment variables.
func NewClient(cfg config.PublishConfig) *s3.Client {
	region := cfg.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	opts := s3.Options{
		Region:      region,
		Credentials: aws.NewCredentialsCache(aws.CredentialsProviderFunc(envCredentials)),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

func envCredentials(context.Context) (aws.Credentials, error) {
	id := os.Getenv("AWS_ACCESS_KEY_ID")
	secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.Credentials{}, fmt.Errorf("publish: AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
	}
	return aws.Credentials{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "Environment",
	}, nil
}
