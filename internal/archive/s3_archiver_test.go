package archive

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	if in.Body != nil {
		f.body, _ = io.ReadAll(in.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestArchiveWritesObject(t *testing.T) {
	fake := &fakePutter{}
	a := NewWithClient(fake, "hooks")
	a.now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 8, time.UTC) }

	err := a.Archive(context.Background(), "evt_1", "invoice.payment_failed", []byte(`{"id":"evt_1"}`))
	require.NoError(t, err)

	require.NotNil(t, fake.input)
	assert.Equal(t, "hooks", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "stripe/invoice.payment_failed/2025/03/04/evt_1-1741064767000000008.json", aws.ToString(fake.input.Key))
	assert.Equal(t, "application/json", aws.ToString(fake.input.ContentType))
	assert.Equal(t, `{"id":"evt_1"}`, string(fake.body))
	assert.Equal(t, "evt_1", fake.input.Metadata["event-id"])
}

func TestArchiveWrapsError(t *testing.T) {
	a := NewWithClient(&fakePutter{err: errors.New("boom")}, "hooks")
	err := a.Archive(context.Background(), "evt_2", "x", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "evt_2")
}

func TestNewS3ArchiverRequiresBucket(t *testing.T) {
	_, err := NewS3Archiver(context.Background(), Options{Region: "us-east-1"})
	require.Error(t, err)
}
