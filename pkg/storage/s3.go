package storage

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store reads and writes s3:// locations. Credentials come from the default AWS chain.
type S3Store struct {
	once    sync.Once
	client  *s3.Client
	initErr error
}

// NewS3Store wraps an existing client.
func NewS3Store(client *s3.Client) *S3Store {
	s := &S3Store{client: client}
	s.once.Do(func() {})
	return s
}

func (s *S3Store) getClient(ctx context.Context) (*s3.Client, error) {
	s.once.Do(func() {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			s.initErr = fmt.Errorf("failed to load AWS config: %w", err)
			return
		}
		s.client = s3.NewFromConfig(cfg)
	})
	return s.client, s.initErr
}

func (s *S3Store) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	bucket, key, err := ParseS3(location)
	if err != nil {
		return nil, err
	}
	client, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", location, err)
	}
	return out.Body, nil
}

func (s *S3Store) Put(ctx context.Context, location string, r io.Reader) error {
	bucket, key, err := ParseS3(location)
	if err != nil {
		return err
	}
	client, err := s.getClient(ctx)
	if err != nil {
		return err
	}

	if _, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String("text/csv; charset=utf-8"),
	}); err != nil {
		return fmt.Errorf("failed to put %s: %w", location, err)
	}
	return nil
}
