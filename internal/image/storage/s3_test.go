package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutObject struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutObject) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	if in.Body != nil {
		f.body, _ = io.ReadAll(in.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Storage_Put(t *testing.T) {
	fake := &fakePutObject{}
	st := NewS3Storage(fake, S3Config{Bucket: "filmdoms", Region: "ap-northeast-2"})

	url, err := st.Put(context.Background(), "abc-my poster.png", "image/png", []byte("png-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "https://filmdoms.s3.ap-northeast-2.amazonaws.com/abc-my%20poster.png", url)
	assert.Equal(t, "filmdoms", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "abc-my poster.png", aws.ToString(fake.input.Key))
	assert.Equal(t, "image/png", aws.ToString(fake.input.ContentType))
	assert.Equal(t, int64(9), aws.ToInt64(fake.input.ContentLength))
	assert.Equal(t, []byte("png-bytes"), fake.body)
}

func TestS3Storage_PutError(t *testing.T) {
	boom := errors.New("access denied")
	st := NewS3Storage(&fakePutObject{err: boom}, S3Config{Bucket: "filmdoms"})

	_, err := st.Put(context.Background(), "k", "image/png", []byte("x"))
	assert.ErrorIs(t, err, boom)
}

func TestPublicBaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  S3Config
		want string
	}{
		{"public url wins", S3Config{Bucket: "b", Endpoint: "http://minio:9000", PublicURL: "https://cdn.filmdoms.com/"}, "https://cdn.filmdoms.com"},
		{"custom endpoint", S3Config{Bucket: "b", Endpoint: "http://minio:9000/"}, "http://minio:9000/b"},
		{"aws default", S3Config{Bucket: "b", Region: "us-east-1"}, "https://b.s3.us-east-1.amazonaws.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, publicBaseURL(tt.cfg))
		})
	}
}

func TestNewS3Client_AppliesOptions(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })

	var lo awsconfig.LoadOptions
	loadDefaultAWSConfig = func(_ context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		return aws.Config{Region: lo.Region}, nil
	}

	client, err := NewS3Client(context.Background(), S3Config{
		Region:    "ap-northeast-2",
		Endpoint:  "http://minio:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	})
	require.NoError(t, err)

	assert.Equal(t, "ap-northeast-2", lo.Region)
	require.NotNil(t, lo.Credentials)
	creds, err := lo.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "minioadmin", creds.AccessKeyID)

	opts := client.Options()
	assert.Equal(t, "http://minio:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
}

func TestNewS3Client_LoadError(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })

	boom := errors.New("no config")
	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, boom
	}

	_, err := NewS3Client(context.Background(), S3Config{Region: "us-east-1"})
	assert.ErrorIs(t, err, boom)
}
