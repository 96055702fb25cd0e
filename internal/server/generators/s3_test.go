package generators

import (
	"context"
	"errors"
	"io"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testS3 = S3Settings{
	Region:       "us-east-1",
	AccessKey:    "minioadmin",
	SecretKey:    "minioadmin",
	BaseEndpoint: "http://127.0.0.1:9000",
	Bucket:       "gophdiary",
}

func TestNewS3Client_AppliesSettings(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				t.Fatalf("load options fn error: %v", err)
			}
		}
		if lo.Region != "us-east-1" {
			t.Fatalf("region not applied: %q", lo.Region)
		}
		if lo.Credentials == nil {
			t.Fatalf("credentials not applied")
		}
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	c, err := NewS3Client(context.Background(), testS3)
	require.NoError(t, err)
	require.NotNil(t, c)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
}

func TestNewS3Client_LoadError(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}

	_, err := NewS3Client(context.Background(), testS3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no config")
}

func TestStorageKey(t *testing.T) {
	t.Parallel()
	k := StorageKey(time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC))
	assert.Regexp(t, regexp.MustCompile(`^videos/2025/03/07/[0-9a-f-]{36}\.mp4$`), k)
}

type fakePutter struct {
	in  *s3.PutObjectInput
	err error
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3VideoSynthesizer(t *testing.T) {
	t.Parallel()
	p := &fakePutter{}
	s := &S3VideoSynthesizer{client: p, bucket: "b", now: func() time.Time {
		return time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	}}

	key, err := s.Synthesize(context.Background(), "summary")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "videos/2025/12/31/"))
	require.NotNil(t, p.in)
	assert.Equal(t, "b", aws.ToString(p.in.Bucket))
	assert.Equal(t, key, aws.ToString(p.in.Key))
	assert.Equal(t, "video/mp4", aws.ToString(p.in.ContentType))
	body, _ := io.ReadAll(p.in.Body)
	assert.Empty(t, body)
}

func TestS3VideoSynthesizer_PutError(t *testing.T) {
	t.Parallel()
	s := &S3VideoSynthesizer{client: &fakePutter{err: errors.New("denied")}, bucket: "b", now: time.Now}

	_, err := s.Synthesize(context.Background(), "summary")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
}

type fakePresigner struct{ err error }

func (f fakePresigner) PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &v4.PresignedHTTPRequest{URL: "https://example/" + aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)}, nil
}

func TestS3VideoLinker_Fake(t *testing.T) {
	t.Parallel()
	l := &S3VideoLinker{presigner: fakePresigner{}, bucket: "b"}
	got, err := l.Link(context.Background(), "videos/x.mp4")
	require.NoError(t, err)
	assert.Equal(t, "https://example/b/videos/x.mp4", got)

	l = &S3VideoLinker{presigner: fakePresigner{err: errors.New("boom")}, bucket: "b"}
	_, err = l.Link(context.Background(), "videos/x.mp4")
	require.Error(t, err)
}

func TestS3VideoLinker_RealPresign(t *testing.T) {
	t.Parallel()
	cfg := aws.Config{
		Region:      testS3.Region,
		Credentials: credentials.NewStaticCredentialsProvider(testS3.AccessKey, testS3.SecretKey, ""),
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(testS3.BaseEndpoint)
		o.UsePathStyle = true
	})

	raw, err := NewS3VideoLinker(client, testS3.Bucket).Link(context.Background(), "videos/2025/01/01/a.mp4")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", u.Host)
	assert.Equal(t, "/gophdiary/videos/2025/01/01/a.mp4", u.Path)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
}
