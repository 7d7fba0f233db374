// Package blob archives raw uploads to S3-compatible object storage.
// The archive is optional: when no endpoint is configured the store is
// disabled and the inference pipeline skips it.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"time"

	sc "github.com/aquawatch/aquawatch/internal/server/config"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type Store struct {
	bucket       string
	region       string
	baseEndpoint string
	rootUser     string
	rootPassword string
}

func NewStore(cfg *sc.Config) *Store {
	return &Store{
		bucket:       cfg.S3Bucket,
		region:       cfg.S3Region,
		baseEndpoint: cfg.S3BaseEndpoint,
		rootUser:     cfg.S3RootUser,
		rootPassword: cfg.S3RootPassword,
	}
}

// Enabled reports whether object storage was configured at startup.
func (s *Store) Enabled() bool {
	return s.baseEndpoint != ""
}

// storageKey buckets uploads by date so the archive stays browsable.
func storageKey() string {
	d := time.Now()
	return fmt.Sprintf("uploads/%d/%02d/%02d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *Store) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(s.region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.rootUser,
			s.rootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.baseEndpoint)
		o.UsePathStyle = true
	})

	return client, nil
}

// Archive stores the raw upload bytes under a fresh key and returns it.
func (s *Store) Archive(ctx context.Context, data []byte) (string, error) {

	client, err := s.getClient(ctx)
	if err != nil {
		return "", err
	}

	key := storageKey()

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("error archiving upload: %w", err)
	}

	return key, nil
}
