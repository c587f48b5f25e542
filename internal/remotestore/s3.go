package remotestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/sitepins/internal/common"
	"github.com/dmitrijs2005/sitepins/internal/logging"
	"github.com/dmitrijs2005/sitepins/internal/models"
	"github.com/goccy/go-json"
)

// S3API is the part of the S3 client the store needs.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type S3Config struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
	Prefix       string
}

var errUndecodable = errors.New("undecodable document")

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) S3API {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Store keeps one JSON object per document under
// <prefix>/<collection>/<id>.json.
type S3Store struct {
	client S3API
	bucket string
	prefix string
	logger logging.Logger
}

func NewS3Store(client S3API, bucket, prefix string, logger logging.Logger) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger.With("module", "remotestore", "backend", BackendS3),
	}
}

// OpenS3 builds an S3 client with static credentials. A non-empty
// BaseEndpoint targets an S3-compatible server with path-style addressing.
func OpenS3(ctx context.Context, cfg S3Config, logger logging.Logger) (*S3Store, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3Store(client, cfg.Bucket, cfg.Prefix, logger), nil
}

func (s *S3Store) dir(c Collection) string {
	return path.Join(s.prefix, string(c)) + "/"
}

func (s *S3Store) key(c Collection, id string) string {
	return s.dir(c) + id + ".json"
}

func (s *S3Store) Put(ctx context.Context, c Collection, rec models.Record) error {
	if err := c.Valid(); err != nil {
		return err
	}
	return s.put(ctx, s.key(c, rec.DocID()), rec)
}

func (s *S3Store) put(ctx context.Context, key string, rec models.Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) get(ctx context.Context, key string) (models.Record, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return models.Record{}, common.ErrorNotFound
		}
		return models.Record{}, fmt.Errorf("failed to get %s: %w", key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return models.Record{}, fmt.Errorf("failed to read %s: %w", key, err)
	}

	var rec models.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return models.Record{}, fmt.Errorf("%w: %s: %v", errUndecodable, key, err)
	}
	return rec, nil
}

// Update reads the object, merges f and writes it back. Concurrent writers
// of the same document are not coordinated; the last write wins.
func (s *S3Store) Update(ctx context.Context, c Collection, id string, f Fields) error {
	if err := c.Valid(); err != nil {
		return err
	}

	key := s.key(c, id)
	rec, err := s.get(ctx, key)
	if err != nil {
		return err
	}
	f.apply(&rec)
	return s.put(ctx, key, rec)
}

func (s *S3Store) Remove(ctx context.Context, c Collection, id string) error {
	if err := c.Valid(); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(c, id)),
	})
	if err != nil {
		return fmt.Errorf("failed to remove %s/%s: %w", c, id, err)
	}
	return nil
}

func (s *S3Store) ListAll(ctx context.Context, c Collection) ([]models.Record, error) {
	if err := c.Valid(); err != nil {
		return nil, err
	}

	out := make([]models.Record, 0)
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.dir(c)),
	})

	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", c, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, ".json") {
				continue
			}
			rec, err := s.get(ctx, key)
			if errors.Is(err, common.ErrorNotFound) {
				continue
			}
			if errors.Is(err, errUndecodable) {
				s.logger.Warn(ctx, "skipping undecodable document", "collection", string(c), "error", err)
				continue
			}
			if err != nil {
				return nil, err
			}
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *S3Store) Close() error {
	return nil
}
