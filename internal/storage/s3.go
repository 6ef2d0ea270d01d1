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
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Options configures an S3-compatible object store.
type S3Options struct {
	Name      string // backend name reported by Name(); defaults to "s3"
	Endpoint  string // custom endpoint (MinIO, R2, Supabase, ...); empty means AWS
	Region    string
	AccessKey string
	SecretKey string
	PublicURL string // base of public object links, e.g. https://cdn.example.com
}

// SupabaseOptions points the S3 client at the S3-compatible endpoint of a
// Supabase project. Public links use the Storage public object path.
func SupabaseOptions(projectURL, region, accessKey, secretKey string) S3Options {
	base := strings.TrimSuffix(projectURL, "/")
	return S3Options{
		Name:      "supabase",
		Endpoint:  base + "/storage/v1/s3",
		Region:    region,
		AccessKey: accessKey,
		SecretKey: secretKey,
		PublicURL: base + "/storage/v1/object/public",
	}
}

// S3Store stores objects in S3-compatible buckets.
type S3Store struct {
	client    *s3.Client
	name      string
	publicURL string
}

// NewS3Store builds an S3 client from static credentials.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		}
	})

	name := opts.Name
	if name == "" {
		name = "s3"
	}
	return &S3Store{
		client:    client,
		name:      name,
		publicURL: strings.TrimSuffix(opts.PublicURL, "/"),
	}, nil
}

func (s *S3Store) Name() string {
	return s.name
}

func (s *S3Store) PublicURL(bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicURL, bucket, key)
}

func (s *S3Store) Put(ctx context.Context, bucket, key, contentType string, body io.Reader, size int64) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", bucket, key, err)
	}
	return s.PublicURL(bucket, key), nil
}

func (s *S3Store) Delete(ctx context.Context, bucket, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NoSuchKey
		var apiErr smithy.APIError
		if errors.As(err, &notFound) || (errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey") {
			return ErrObjectNotFound
		}
		return fmt.Errorf("delete %s/%s: %w", bucket, key, err)
	}
	return nil
}
