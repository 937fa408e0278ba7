package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"cinewatch/pkg/models"
	"cinewatch/pkg/utils"
)

const (
	rawPrefix  = "crawler/raw"
	logPrefix  = "logs"
	pointerKey = "state/latest_crawl.json"
)

// S3Store keeps artifacts in a bucket, with a date-based key hierarchy and
// a pointer object naming the most recent snapshot.
type S3Store struct {
	client *s3.Client
	bucket string
	Now    func() time.Time
}

type latestPointer struct {
	LatestKey string `json:"latest_key"`
	UpdatedAt string `json:"updated_at"`
}

// NewS3Store builds the client from the default AWS chain, with optional
// static credentials and endpoint override for S3-compatible services.
func NewS3Store(ctx context.Context, cfg utils.StorageConfig) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 storage: bucket is required")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{client: client, bucket: cfg.Bucket, Now: time.Now}, nil
}

func (s *S3Store) SaveSnapshot(ctx context.Context, snaps []models.EventSnapshot) (string, error) {
	b, err := json.MarshalIndent(snaps, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	now := s.Now()
	key := fmt.Sprintf("%s/%s/raw_%s.json", rawPrefix, now.Format("2006/01/02"), now.Format(timeLayout))

	if err := s.put(ctx, key, b, "application/json"); err != nil {
		return "", err
	}

	pointer, err := json.Marshal(latestPointer{
		LatestKey: key,
		UpdatedAt: now.Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("marshal latest pointer: %w", err)
	}
	if err := s.put(ctx, pointerKey, pointer, "application/json"); err != nil {
		return "", fmt.Errorf("update latest pointer: %w", err)
	}

	return key, nil
}

func (s *S3Store) LoadLatestSnapshot(ctx context.Context) ([]models.EventSnapshot, error) {
	pb, err := s.get(ctx, pointerKey)
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("read latest pointer: %w", err)
	}

	var pointer latestPointer
	if err := json.Unmarshal(pb, &pointer); err != nil {
		return nil, fmt.Errorf("parse latest pointer: %w", err)
	}
	if pointer.LatestKey == "" {
		return nil, ErrNoSnapshot
	}

	b, err := s.get(ctx, pointer.LatestKey)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", pointer.LatestKey, err)
	}

	var snaps []models.EventSnapshot
	if err := json.Unmarshal(b, &snaps); err != nil {
		return nil, fmt.Errorf("parse %s: %w", pointer.LatestKey, err)
	}
	return snaps, nil
}

func (s *S3Store) SaveRunLog(ctx context.Context, content string) (string, error) {
	now := s.Now()
	key := fmt.Sprintf("%s/%s/update_%s.log", logPrefix, now.Format("2006/01/02"), now.Format(timeLayout))

	if err := s.put(ctx, key, []byte(content), "text/plain; charset=utf-8"); err != nil {
		return "", err
	}
	return key, nil
}

func (s *S3Store) put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

func (s *S3Store) get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}
