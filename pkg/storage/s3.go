package storage

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/ajitpratap0/lakegen/pkg/config"
	"github.com/ajitpratap0/lakegen/pkg/errors"
	"github.com/ajitpratap0/lakegen/pkg/logger"
)

// s3Store persists objects to an S3-compatible bucket through the AWS SDK.
// Endpoint, credentials and region come straight from the caller's
// configuration; custom endpoints (MinIO and friends) use path-style
// addressing.
type s3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
	logger   *zap.Logger
}

func newS3Store(ctx context.Context, output string, cfg *config.S3Config) (*s3Store, error) {
	bucket, basePrefix, err := parseS3URI(cfg.URI)
	if err != nil {
		return nil, err
	}

	prefix := basePrefix
	if output != "" && output != "." && !strings.HasPrefix(output, "s3://") {
		prefix = joinPrefix(basePrefix, strings.Trim(output, "/"))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.RegionOrDefault()),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.Key, cfg.Secret, "")),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeStorage, "failed to load AWS configuration")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		if cfg.UsePathStyle {
			o.UsePathStyle = true
		}
	})

	store := &s3Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   prefix,
		logger:   logger.Get().With(zap.String("component", "s3_store"), zap.String("bucket", bucket)),
	}

	store.logger.Info("s3 store initialized",
		zap.String("prefix", prefix),
		zap.String("endpoint", cfg.Endpoint),
		zap.String("region", cfg.RegionOrDefault()))

	return store, nil
}

func (s *s3Store) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeStorage, "failed to upload object").
			WithDetail("bucket", s.bucket).
			WithDetail("key", key)
	}
	return nil
}

func (s *s3Store) List(ctx context.Context, prefix string) ([]string, error) {
	full := s.objectKey(prefix)
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(full),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeStorage, "failed to list objects").
				WithDetail("bucket", s.bucket).
				WithDetail("prefix", prefix)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if s.prefix != "" {
				key = strings.TrimPrefix(strings.TrimPrefix(key, s.prefix), "/")
			}
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *s3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeStorage, "failed to delete object").
			WithDetail("bucket", s.bucket).
			WithDetail("key", key)
	}
	return nil
}

func (s *s3Store) URI(key string) string {
	k := s.objectKey(key)
	if k == "" {
		return fmt.Sprintf("s3://%s", s.bucket)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, k)
}

func (s *s3Store) objectKey(key string) string {
	return joinPrefix(s.prefix, strings.Trim(key, "/"))
}

func joinPrefix(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	default:
		return prefix + "/" + key
	}
}

func parseS3URI(uri string) (bucket, prefix string, err error) {
	trimmed := strings.TrimPrefix(uri, "s3://")
	if trimmed == uri || trimmed == "" {
		return "", "", errors.Newf(errors.ErrorTypeConfig, "invalid s3 uri %q", uri)
	}
	parts := strings.SplitN(trimmed, "/", 2)
	bucket = parts[0]
	if len(parts) == 2 {
		prefix = strings.Trim(parts[1], "/")
	}
	return bucket, prefix, nil
}
