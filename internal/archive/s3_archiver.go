// Package archive writes verified Stripe webhook payloads to an S3 compatible
// bucket, one object per delivery.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsmiddleware "github.com/aws/smithy-go/middleware"
)

// Options configures the S3 client.
type Options struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
}

// ObjectPutter is the part of the S3 client the archiver uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Archiver struct {
	client ObjectPutter
	bucket string
	now    func() time.Time
}

// NewS3Archiver builds an S3 client from opts. Static credentials are used when
// both keys are set, the default credential chain otherwise.
func NewS3Archiver(ctx context.Context, opts Options) (*S3Archiver, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("archive bucket is not set")
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load S3 config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewWithClient(client, opts.Bucket), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client ObjectPutter, bucket string) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket, now: time.Now}
}

// Archive stores payload under stripe/<type>/<yyyy>/<mm>/<dd>/<event id>-<unix nanos>.json.
// Redeliveries produce new objects.
func (a *S3Archiver) Archive(ctx context.Context, eventID, eventType string, payload []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.key(eventID, eventType)),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"event-id":   eventID,
			"event-type": eventType,
		},
	})
	if err != nil {
		return fmt.Errorf("archive event %s: %w", eventID, err)
	}
	return nil
}

func (a *S3Archiver) key(eventID, eventType string) string {
	now := a.now().UTC()
	return fmt.Sprintf("stripe/%s/%s/%s-%d.json", eventType, now.Format("2006/01/02"), eventID, now.UnixNano())
}

// removeDisableGzip is a workaround for S3 signature errors with some S3-compatible services.
// See: https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
