// Package s3 stores payload envelopes as objects in an S3-compatible bucket.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

const Name = "s3"

// Object metadata keys.
const (
	MetaChecksum = "hfsrb-checksum"
	MetaEntityID = "hfsrb-entity-id"
	MetaSchema   = "hfsrb-schema"
)

// API is the subset of *s3.Client the sink uses.
type API interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config holds construction parameters. Credentials come from the default
// AWS chain.
type Config struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string // optional, e.g. MinIO
	PathStyle bool
}

// Sink writes one object per entity under <prefix>/<year>/<type>/<facility_id>.json.
// An object whose checksum metadata matches is not uploaded again.
type Sink struct {
	client API
	bucket string
	prefix string
}

// New loads AWS configuration and builds a client for cfg.
func New(ctx context.Context, cfg Config, optFns ...func(*s3.Options)) (*Sink, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: s3 bucket required", hfsrb.ErrInvalidConfig)
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, append([]func(*s3.Options){func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}}, optFns...)...)
	return NewWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewWithClient panics on a nil client.
func NewWithClient(client API, bucket, prefix string) *Sink {
	if client == nil {
		panic("client cannot be nil")
	}
	return &Sink{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *Sink) Name() string { return Name }

// Key returns the object key for p.
func (s *Sink) Key(p hfsrb.StoredPayload) string {
	return path.Join(s.prefix, strconv.Itoa(p.Year), strings.ToLower(p.FacilityType), p.FacilityID+".json")
}

func (s *Sink) Write(ctx context.Context, p hfsrb.StoredPayload) error {
	key := s.Key(p)

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key})
	switch {
	case err == nil:
		if head.Metadata[MetaChecksum] == p.Checksum {
			return nil
		}
	case !isNotFound(err):
		return fmt.Errorf("head s3://%s/%s: %w", s.bucket, key, err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &s.bucket,
		Key:           &key,
		Body:          bytes.NewReader(p.Document),
		ContentLength: aws.Int64(int64(len(p.Document))),
		ContentType:   aws.String("application/json"),
		Metadata: map[string]string{
			MetaChecksum: p.Checksum,
			MetaEntityID: p.EntityID.String(),
			MetaSchema:   p.Schema,
		},
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	return errors.As(err, &nf) || errors.As(err, &nsk)
}

func (s *Sink) Close() error { return nil }
