// Package storage reads and writes pipeline inputs and exports by URI:
// a local path, "-" for stdin/stdout, or s3://bucket/key.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectAPI is the subset of *s3.Client the store uses.
type ObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store resolves URIs. The S3 client is only built the first time an
// s3:// URI is used.
type Store struct {
	region    string
	newClient func(ctx context.Context, region string) (ObjectAPI, error)

	once   sync.Once
	client ObjectAPI
	err    error
}

func New(region string) *Store {
	return &Store{region: region, newClient: defaultClient}
}

// NewWithClient uses a fixed S3 client.
func NewWithClient(client ObjectAPI) *Store {
	return &Store{newClient: func(context.Context, string) (ObjectAPI, error) { return client, nil }}
}

func defaultClient(ctx context.Context, region string) (ObjectAPI, error) {
	if region == "" {
		region = os.Getenv("AWS_REGION")
		if region == "" {
			region = "us-east-1"
		}
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	log.Printf("[DEBUG] s3 client initialized region=%s", region)
	return s3.NewFromConfig(awsCfg), nil
}

func (s *Store) s3Client(ctx context.Context) (ObjectAPI, error) {
	s.once.Do(func() {
		s.client, s.err = s.newClient(ctx, s.region)
	})
	return s.client, s.err
}

// ParseS3URI splits s3://bucket/key. ok is false for any other scheme.
func ParseS3URI(uri string) (bucket, key string, ok bool, err error) {
	rest, found := strings.CutPrefix(uri, "s3://")
	if !found {
		return "", "", false, nil
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", true, fmt.Errorf("invalid s3 uri %q: want s3://bucket/key", uri)
	}
	return bucket, key, true, nil
}

// Open returns a reader for uri. The caller closes it.
func (s *Store) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	if uri == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	bucket, key, isS3, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}
	if !isS3 {
		return os.Open(uri)
	}
	client, err := s.s3Client(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("S3 GetObject %s/%s: %w", bucket, key, err)
	}
	return resp.Body, nil
}

// Write stores data at uri, replacing any previous content.
func (s *Store) Write(ctx context.Context, uri string, data []byte, contentType string) error {
	if uri == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	bucket, key, isS3, err := ParseS3URI(uri)
	if err != nil {
		return err
	}
	if !isS3 {
		return os.WriteFile(uri, data, 0o644)
	}
	client, err := s.s3Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("S3 PutObject %s/%s: %w", bucket, key, err)
	}
	return nil
}
