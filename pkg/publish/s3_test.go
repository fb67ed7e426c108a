package publish

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/bind/internal/config"
	"github.com/vango-dev/bind/pkg/anchor"
)

var _ anchor.Sink = (*S3Sink)(nil)

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	bodies []string
	err    error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

func TestPublish(t *testing.T) {
	fake := &fakeS3{}
	sink := NewS3Sink(fake, "site", "slots/")
	sink.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	if err := sink.Publish(context.Background(), "status", "<em>ok</em>"); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(fake.inputs) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(fake.inputs))
	}
	in := fake.inputs[0]
	if got := aws.ToString(in.Bucket); got != "site" {
		t.Errorf("Bucket = %q", got)
	}
	if got := aws.ToString(in.Key); got != "slots/status.html" {
		t.Errorf("Key = %q", got)
	}
	if got := aws.ToString(in.ContentType); got != "text/html; charset=utf-8" {
		t.Errorf("ContentType = %q", got)
	}
	if fake.bodies[0] != "<em>ok</em>" {
		t.Errorf("Body = %q", fake.bodies[0])
	}
	if got := in.Metadata["published-at"]; got != "2024-05-01T12:00:00Z" {
		t.Errorf("published-at = %q", got)
	}
}

func TestPublishError(t *testing.T) {
	sink := NewS3Sink(&fakeS3{err: errors.New("denied")}, "site", "")
	err := sink.Publish(context.Background(), "x", "")
	if err == nil || err.Error() != "s3 publish x.html: denied" {
		t.Errorf("Publish = %v", err)
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient(config.PublishConfig{Region: "eu-west-1", Endpoint: "http://localhost:9000"})
	opts := client.Options()
	if opts.Region != "eu-west-1" {
		t.Errorf("Region = %q", opts.Region)
	}
	if aws.ToString(opts.BaseEndpoint) != "http://localhost:9000" || !opts.UsePathStyle {
		t.Errorf("custom endpoint not applied: %v %v", aws.ToString(opts.BaseEndpoint), opts.UsePathStyle)
	}
}

func TestEnvCredentials(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	if _, err := envCredentials(context.Background()); err == nil {
		t.Error("expected error without credentials")
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "AKID")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "SECRET")
	creds, err := envCredentials(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if creds.AccessKeyID != "AKID" || creds.SecretAccessKey != "SECRET" {
		t.Errorf("creds = %+v", creds)
	}
}
