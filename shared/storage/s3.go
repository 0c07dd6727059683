package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ObjectStore hosts uploaded images and hands back public URLs. The rest of
// the application only ever sees URLs; keys are derived back from them on
// deletion.
type ObjectStore interface {
	Store(ctx context.Context, folder, filename string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
}

type s3ObjectStore struct {
	client *s3.Client
	config *s3Config
}

// NewS3ObjectStore creates an S3-backed ObjectStore from the S3_*
// environment variables. Works against AWS or any S3-compatible endpoint
// such as MinIO.
func NewS3ObjectStore(ctx context.Context, logger *zerolog.Logger) ObjectStore {
	cfg := newS3Config(logger)

	if err := cfg.validate(); err != nil {
		logger.Fatal().Err(err).Msg("failed to validate object store configuration")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load object store credentials")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = awsv2.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &s3ObjectStore{client: client, config: cfg}
}

func (s *s3ObjectStore) Store(
	ctx context.Context,
	folder, filename string,
	body io.Reader,
	contentType string,
) (string, error) {
	key := path.Join(folder, uuid.NewString()+path.Ext(filename))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      awsv2.String(s.config.Bucket),
		Key:         awsv2.String(key),
		Body:        body,
		ContentType: awsv2.String(contentType),
	})
	if err != nil {
		return "", err
	}

	return s.config.PublicURL + "/" + key, nil
}

func (s *s3ObjectStore) Delete(ctx context.Context, url string) error {
	key := strings.TrimPrefix(url, s.config.PublicURL+"/")
	if key == url || key == "" {
		return fmt.Errorf("url %q is not served by this store", url)
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: awsv2.String(s.config.Bucket),
		Key:    awsv2.String(key),
	})

	return err
}

// s3Config holds object store configuration.
type s3Config struct {
	Region       string `env:"S3_REGION"        envDefault:"us-east-1"`
	Bucket       string `env:"S3_BUCKET"`
	AccessKey    string `env:"S3_ACCESS_KEY"`
	SecretKey    string `env:"S3_SECRET_KEY"`
	BaseEndpoint string `env:"S3_BASE_ENDPOINT"`
	PublicURL    string `env:"S3_PUBLIC_URL"`
}

func newS3Config(logger *zerolog.Logger) *s3Config {
	cfg, err := env.ParseAs[s3Config]()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse environment variables")
	}

	return &cfg
}

func (c *s3Config) validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("missing S3_BUCKET environment variable")
	}
	if c.AccessKey == "" {
		return fmt.Errorf("missing S3_ACCESS_KEY environment variable")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("missing S3_SECRET_KEY environment variable")
	}
	if c.PublicURL == "" {
		return fmt.Errorf("missing S3_PUBLIC_URL environment variable")
	}

	return nil
}
