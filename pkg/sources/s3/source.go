// Package s3 fetches dataset snapshots stored as objects in an S3 bucket.
package s3

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	awss3 "github.com/aws/aws-sdk-go/service/s3"

	"github.com/rubiojr/signalscope/pkg/config"
	"github.com/rubiojr/signalscope/pkg/core"
	"github.com/rubiojr/signalscope/pkg/log"
	"github.com/rubiojr/signalscope/pkg/sensor"
)

const sourceType = "s3"

func init() {
	core.RegisterSourcePrototype(sourceType, &Source{})
}

type Source struct {
	bucket string
	key    string
	svc    *awss3.S3
}

// New builds a source for bucket/key. A non-empty endpoint points the
// client at an S3-compatible service using path-style addressing.
func New(region, endpoint, bucket, key string, extra ...*aws.Config) (*Source, error) {
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("s3 source requires bucket and key")
	}
	cfg := &aws.Config{Region: aws.String(region)}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(append([]*aws.Config{cfg}, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("creating aws session: %w", err)
	}
	return &Source{
		bucket: bucket,
		key:    strings.TrimPrefix(key, "/"),
		svc:    awss3.New(sess),
	}, nil
}

func (s *Source) Type() string     { return sourceType }
func (s *Source) Location() string { return "s3://" + s.bucket + "/" + s.key }
func (s *Source) Close() error     { return nil }

func (s *Source) Factory(cfg config.SourceConfig) (core.Source, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	return New(region, cfg.URL, cfg.Bucket, cfg.Key)
}

func (s *Source) Fetch(ctx context.Context) (*sensor.Dataset, error) {
	result, err := s.svc.GetObjectWithContext(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", s.Location(), err)
	}
	defer result.Body.Close()

	log.ForService("source:s3").Debugf("fetched %s (%d bytes)", s.Location(), aws.Int64Value(result.ContentLength))
	return core.DecodeNamed(result.Body, s.key)
}
