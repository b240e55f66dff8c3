package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/ledgerkeep/ledgerkeep/internal/common"
)

const defaultObjectKey = "ledgerkeep/backup.json"

// S3Config targets any S3-compatible store (AWS, MinIO, ...).
type S3Config struct {
	Region          string `json:"region"`
	Endpoint        string `json:"endpoint,omitempty"` // empty for AWS proper
	Bucket          string `json:"bucket"`
	ObjectKey       string `json:"objectKey,omitempty"`
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
}

// S3Backend keeps the single backup blob at a fixed object key.
type S3Backend struct {
	client        *s3.Client
	bucket        string
	key           string
	accessKeyID   string
	authenticated bool
}

func (b *S3Backend) Initialize(ctx context.Context, cfg *Config) error {
	c := cfg.S3
	if c == nil || c.Bucket == "" || c.AccessKeyID == "" || c.SecretAccessKey == "" {
		return fmt.Errorf("%w: s3 requires bucket and credentials", common.ErrConfiguration)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(c.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKeyID, c.SecretAccessKey, "")))
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrConfiguration, err)
	}

	b.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true // MinIO and friends
		}
	})

	b.bucket = c.Bucket
	b.key = c.ObjectKey
	if b.key == "" {
		b.key = defaultObjectKey
	}
	b.accessKeyID = c.AccessKeyID
	b.authenticated = false
	return nil
}

// Authenticate verifies the credentials actually reach the bucket.
func (b *S3Backend) Authenticate(ctx context.Context) error {
	if b.client == nil {
		return common.ErrConfiguration
	}
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &b.bucket})
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrAuthentication, err)
	}
	b.authenticated = true
	return nil
}

// IsAuthenticated reports whether the last credential check succeeded.
// Static keys do not expire, so there is nothing time-based to test here.
func (b *S3Backend) IsAuthenticated() bool {
	return b.client != nil && b.authenticated
}

func (b *S3Backend) GetUser() string {
	if b.accessKeyID == "" {
		return ""
	}
	return fmt.Sprintf("%s@%s", b.accessKeyID, b.bucket)
}

func (b *S3Backend) Upload(ctx context.Context, blob []byte) error {
	if b.client == nil {
		return common.ErrConfiguration
	}
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &b.bucket,
		Key:         &b.key,
		Body:        bytes.NewReader(blob),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("%w: put object: %v", common.ErrNetwork, err)
	}
	return nil
}

func (b *S3Backend) Download(ctx context.Context) ([]byte, error) {
	if b.client == nil {
		return nil, common.ErrConfiguration
	}
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &b.bucket,
		Key:    &b.key,
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get object: %v", common.ErrNetwork, err)
	}
	defer out.Body.Close()

	blob, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read object: %v", common.ErrNetwork, err)
	}
	return blob, nil
}

func (b *S3Backend) SignOut(ctx context.Context) {
	b.client = nil
	b.authenticated = false
}

func (b *S3Backend) Type() string { return TypeS3 }
