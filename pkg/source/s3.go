package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

var _ Source = &S3{}

type S3Client interface {
	GetObject(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3 serves ranges out of a single object in a bucket, using HeadObject for
// the size and GetObject with a Range header for the bytes.
type S3 struct {
	svc    S3Client
	bucket string
	key    string
}

// s3Services caches one client per bucket since clients are bound to the
// bucket's region.
var s3Services = struct {
	sync.Mutex
	byBucket map[string]S3Client
}{byBucket: make(map[string]S3Client)}

// NewS3 builds a source for an s3://bucket/key URI, discovering the
// bucket's region and reusing clients across sources for the same bucket.
func NewS3(ctx context.Context, uri string) (*S3, error) {
	bucket, key, err := parseS3Uri(uri)
	if err != nil {
		return nil, err
	}
	svc, err := s3ServiceForBucket(ctx, bucket)
	if err != nil {
		return nil, err
	}
	return &S3{svc: svc, bucket: bucket, key: key}, nil
}

// NewS3WithClient skips region discovery and uses the given client,
// primarily for custom endpoints and tests.
func NewS3WithClient(client S3Client, bucket, key string) *S3 {
	return &S3{svc: client, bucket: bucket, key: key}
}

func parseS3Uri(uri string) (bucket string, key string, err error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return "", "", ErrInvalidURI
	}
	if parsed.Host == "" {
		return "", "", fmt.Errorf("%w: missing bucket: %s", ErrInvalidURI, uri)
	}
	return parsed.Host, strings.TrimPrefix(parsed.Path, "/"), nil
}

func s3ServiceForBucket(ctx context.Context, bucket string) (S3Client, error) {
	s3Services.Lock()
	defer s3Services.Unlock()
	if svc, ok := s3Services.byBucket[bucket]; ok {
		return svc, nil
	}
	const defaultRegion = "us-east-1"
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(defaultRegion))
	if err != nil {
		return nil, err
	}
	svc := s3.NewFromConfig(cfg)
	region, err := manager.GetBucketRegion(ctx, svc, bucket)
	if err != nil {
		if s3IsNotFoundErr(err) {
			return nil, ErrDoesNotExist
		}
		return nil, fmt.Errorf("%w: %s", ErrUpstream, err)
	}
	if region != defaultRegion {
		cfg, err = config.LoadDefaultConfig(ctx, config.WithRegion(region))
		if err != nil {
			return nil, err
		}
		svc = s3.NewFromConfig(cfg)
	}
	s3Services.byBucket[bucket] = svc
	return svc, nil
}

func s3IsNotFoundErr(err error) bool {
	if err == nil {
		return false
	}
	var nf *types.NotFound
	var nk *types.NoSuchKey
	return errors.As(err, &nf) || errors.As(err, &nk)
}

func (s *S3) Size(ctx context.Context) (int64, error) {
	out, err := s.svc.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	slog.Debug("s3:HeadObject", "bucket", s.bucket, "key", s.key, "error", err)
	if s3IsNotFoundErr(err) {
		return 0, ErrDoesNotExist
	} else if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrUpstream, err)
	}
	return aws.ToInt64(out.ContentLength), nil
}

func (s *S3) Fetch(ctx context.Context, start, end int64) (io.ReadCloser, error) {
	rng := fmt.Sprintf("bytes=%d-%d", start, end)
	slog.Debug("s3:GetObject", "bucket", s.bucket, "key", s.key, "range", rng)
	out, err := s.svc.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Range:  aws.String(rng),
	})
	if s3IsNotFoundErr(err) {
		return nil, ErrDoesNotExist
	} else if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, err)
	}
	// S3 itself honors ranges, but S3-compatible endpoints are not all
	// equal. No ContentRange in the reply means the full object came back;
	// clamp on our side like the HTTP source does.
	if out.ContentRange == nil {
		if _, err := io.CopyN(io.Discard, out.Body, start); err != nil && err != io.EOF {
			_ = out.Body.Close()
			return nil, fmt.Errorf("%w: %s", ErrUpstream, err)
		}
	}
	return clampBody(out.Body, end+1-start), nil
}
