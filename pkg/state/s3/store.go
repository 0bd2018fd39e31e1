// Package s3 persists state snapshots as objects in an S3 compatible bucket
// (AWS S3 or MinIO).
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/goliatone/go-nanny/pkg/state"
)

var _ state.Store = (*Store)(nil)

// ObjectAPI is the subset of the S3 client the store needs.
type ObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config holds construction parameters.
type Config struct {
	Region    string
	Bucket    string
	Prefix    string
	Endpoint  string // optional, enables a custom endpoint such as MinIO
	PathStyle bool

	// optional static credentials; the default chain is used when empty
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// Store maps each key to Prefix + key + ".json".
type Store struct {
	client ObjectAPI
	bucket string
	prefix string
}

// New creates a store using the default AWS credential chain.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client ObjectAPI, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: prefix}
}

// OpenFromEnv constructs a store from NANNY_S3_* environment variables.
func OpenFromEnv(ctx context.Context) (*Store, error) {
	bucket := os.Getenv("NANNY_S3_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("NANNY_S3_BUCKET required for s3 store")
	}
	return New(ctx, Config{
		Bucket:    bucket,
		Region:    os.Getenv("NANNY_S3_REGION"),
		Prefix:    os.Getenv("NANNY_S3_PREFIX"),
		Endpoint:  os.Getenv("NANNY_S3_ENDPOINT"),
		PathStyle: strings.EqualFold(os.Getenv("NANNY_S3_PATH_STYLE"), "true"),

		AccessKeyID:     os.Getenv("NANNY_S3_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("NANNY_S3_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("NANNY_S3_SESSION_TOKEN"),
	})
}

func (s *Store) objectKey(key string) string {
	return s.prefix + key + ".json"
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if err := state.ValidateKey(key); err != nil {
		return nil, false, err
	}
	objectKey := s.objectKey(key)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &objectKey})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get object %s: %w", objectKey, err)
	}
	defer func() { _ = out.Body.Close() }()
	payload, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read object %s: %w", objectKey, err)
	}
	return payload, true, nil
}

func (s *Store) Save(ctx context.Context, key string, payload []byte) error {
	if err := state.ValidateKey(key); err != nil {
		return err
	}
	objectKey := s.objectKey(key)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &objectKey,
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", objectKey, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := state.ValidateKey(key); err != nil {
		return err
	}
	objectKey := s.objectKey(key)
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &objectKey}); err != nil {
		return fmt.Errorf("delete object %s: %w", objectKey, err)
	}
	return nil
}
