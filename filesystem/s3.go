package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/cespare/xxhash/v2"

	"github.com/sagarc03/sendfile"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Config describes an S3 or S3-compatible bucket.
type S3Config struct {
	Bucket string
	Region string
	// Endpoint overrides the service endpoint, e.g. for MinIO. Path-style
	// addressing is used whenever it is set.
	Endpoint        string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
	MaxRetries      int
}

// NewS3Client builds an S3 client from cfg. Without static credentials the
// default AWS credential chain is used.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, awsconfig.WithRetryer(func() aws.Retryer {
			return retry.NewStandard(func(o *retry.StandardOptions) {
				o.MaxAttempts = cfg.MaxRetries
			})
		}))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// S3Store reads objects from a bucket. Names are slash separated paths;
// the leading slash is dropped and the configured prefix prepended to
// form the object key. A name is a directory when objects exist below it.
type S3Store struct {
	client S3API
	bucket string
	prefix string
}

var _ sendfile.FileSystem = (*S3Store)(nil)

// NewS3Storage creates an S3Store for bucket. prefix, if set, is treated
// as a directory.
func NewS3Storage(client S3API, bucket, prefix string) *S3Store {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Store) key(name string) string {
	return s.prefix + strings.TrimLeft(filepath.ToSlash(name), "/")
}

// Stat returns metadata for the object at name. A missing object that has
// children is reported as a directory.
func (s *S3Store) Stat(ctx context.Context, name string) (sendfile.FileStat, error) {
	key := s.key(name)
	if key == "" || strings.HasSuffix(key, "/") {
		return s.statDir(ctx, name, key)
	}

	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return s.statDir(ctx, name, key+"/")
		}
		return sendfile.FileStat{}, fmt.Errorf("head object %s: %w", key, err)
	}

	return sendfile.FileStat{
		Size:       aws.ToInt64(out.ContentLength),
		ModTime:    aws.ToTime(out.LastModified),
		ChangeTime: aws.ToTime(out.LastModified),
		Identity:   xxhash.Sum64String(key + aws.ToString(out.ETag)),
	}, nil
}

func (s *S3Store) statDir(ctx context.Context, name, prefix string) (sendfile.FileStat, error) {
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return sendfile.FileStat{}, fmt.Errorf("list objects %s: %w", prefix, err)
	}
	if len(out.Contents) == 0 && len(out.CommonPrefixes) == 0 {
		return sendfile.FileStat{}, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	return sendfile.FileStat{IsDir: true}, nil
}

// Open issues a ranged GetObject for the inclusive window [start, end].
func (s *S3Store) Open(ctx context.Context, name string, start, end int64) (io.ReadCloser, error) {
	if end < start {
		return io.NopCloser(strings.NewReader("")), nil
	}

	key := s.key(name)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", start, end)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
		}
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}

	return &windowReader{
		ctxReader: ctxReader{ctx: ctx, r: io.LimitReader(out.Body, end-start+1)},
		c:         out.Body,
	}, nil
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	return errors.As(err, &notFound) || errors.As(err, &noSuchKey)
}
