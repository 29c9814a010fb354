// Package s3mirror keeps a copy of the object store in an S3 bucket.
package s3mirror

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sethvargo/go-retry"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

const pushRetries = 3

// Client is the subset of the S3 API the mirror uses.
type Client interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var _ ports.ObjectMirror = (*Mirror)(nil)

// Mirror stores blobs as <prefix><hex id> objects.
type Mirror struct {
	client  Client
	bucket  string
	prefix  string
	backoff time.Duration
}

// Connect creates an S3 client for cfg. An empty endpoint uses the AWS default.
func Connect(cfg domain.MirrorConfig) *s3.Client {
	return s3.NewFromConfig(aws.Config{Region: cfg.Region}, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		if cfg.AccessKey != "" {
			o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		}
	})
}

// New creates a Mirror over client.
func New(client Client, bucket, prefix string) *Mirror {
	return &Mirror{client: client, bucket: bucket, prefix: prefix, backoff: 200 * time.Millisecond}
}

// Key returns the object key of a blob.
func (m *Mirror) Key(id domain.ObjectID) string {
	return m.prefix + id.String()
}

// Push uploads a blob, retrying transient failures.
func (m *Mirror) Push(ctx context.Context, id domain.ObjectID, r io.ReadSeeker, size int64) error {
	b := retry.WithMaxRetries(pushRetries, retry.NewFibonacci(m.backoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return err
		}
		_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(m.bucket),
			Key:           aws.String(m.Key(id)),
			Body:          r,
			ContentLength: aws.Int64(size),
		})
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrMirrorUnavailable, err), "push object"), "key", m.Key(id))
	}
	return nil
}

// Fetch downloads a blob into w.
func (m *Mirror) Fetch(ctx context.Context, id domain.ObjectID, w io.Writer) error {
	out, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(m.Key(id)),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return zerr.With(zerr.Wrap(domain.ErrObjectNotFound, "fetch object"), "key", m.Key(id))
		}
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrMirrorUnavailable, err), "fetch object"), "key", m.Key(id))
	}
	defer func() { _ = out.Body.Close() }()

	if _, err := io.Copy(w, out.Body); err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrMirrorUnavailable, err), "download object"), "key", m.Key(id))
	}
	return nil
}

// Replicate returns an object store subscriber that pushes every committed
// blob. Failures are logged and never reach the build.
func (m *Mirror) Replicate(ctx context.Context, logger ports.Logger) func(domain.ObjectID, string) {
	return func(id domain.ObjectID, path string) {
		if err := m.pushFile(ctx, id, path); err != nil {
			logger.Warn("failed to mirror object " + id.Short() + ": " + err.Error())
		}
	}
}

func (m *Mirror) pushFile(ctx context.Context, id domain.ObjectID, path string) error {
	//nolint:gosec // path comes from the object store
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	return m.Push(ctx, id, f, info.Size())
}
