package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/khuong2924/smart-order/internal/config"
)

// ObjectPutter is the slice of the S3 API the client uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type R2Client struct {
	client  ObjectPutter
	bucket  string
	baseURL string
}

func NewR2Client(ctx context.Context, cfg config.StorageConfig) (*R2Client, error) {
	if !cfg.Enabled() {
		return nil, errors.New("R2_BUCKET_NAME not set")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.AccessKey,
				cfg.SecretKey,
				"",
			),
		),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return NewWithClient(client, cfg.Bucket, cfg.PublicBaseURL), nil
}

func NewWithClient(client ObjectPutter, bucket, baseURL string) *R2Client {
	return &R2Client{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Put uploads body under key and returns its public URL, or the
// s3:// location when no public base URL is configured.
func (r *R2Client) Put(
	ctx context.Context,
	key string,
	body io.Reader,
	contentType string,
) (string, error) {
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}

	if r.baseURL == "" {
		return fmt.Sprintf("s3://%s/%s", r.bucket, key), nil
	}
	return fmt.Sprintf("%s/%s", r.baseURL, key), nil
}
