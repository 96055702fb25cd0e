package generators

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Settings describes an S3-compatible object store (AWS or MinIO).
type S3Settings struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	Bucket       string
}

// PresignExpiry is the lifetime of presigned video links.
const PresignExpiry = 15 * time.Minute

// Seams for tests.
var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = s3.NewFromConfig
	newS3PresignClient    = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}
)

// NewS3Client builds an S3 client with static credentials and, when set,
// a custom endpoint with path-style addressing.
func NewS3Client(ctx context.Context, st S3Settings) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(st.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			st.AccessKey,
			st.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if st.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(st.BaseEndpoint)
			o.UsePathStyle = true
		}
	})
	return client, nil
}

// StorageKey returns a fresh object key for a video created at t.
func StorageKey(t time.Time) string {
	return fmt.Sprintf("videos/%d/%02d/%02d/%s.mp4", t.Year(), t.Month(), t.Day(), uuid.New())
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3VideoSynthesizer uploads an empty placeholder video to the bucket and
// returns its object key.
type S3VideoSynthesizer struct {
	client objectPutter
	bucket string
	now    func() time.Time
}

func NewS3VideoSynthesizer(client *s3.Client, bucket string) *S3VideoSynthesizer {
	return &S3VideoSynthesizer{client: client, bucket: bucket, now: time.Now}
}

func (s *S3VideoSynthesizer) Synthesize(ctx context.Context, summary string) (string, error) {
	key := StorageKey(s.now())
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(nil),
		ContentType: aws.String("video/mp4"),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return key, nil
}

type getPresigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3VideoLinker presigns short-lived GET URLs for stored video keys.
type S3VideoLinker struct {
	presigner getPresigner
	bucket    string
}

func NewS3VideoLinker(client *s3.Client, bucket string) *S3VideoLinker {
	return &S3VideoLinker{presigner: newS3PresignClient(client), bucket: bucket}
}

func (l *S3VideoLinker) Link(ctx context.Context, ref string) (string, error) {
	req, err := l.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(ref),
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}
