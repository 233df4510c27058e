package catalogfile

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"sqlcatalog/internal/domain"
)

// maxDefinitionSize bounds how much of a remote object is read.
const maxDefinitionSize = 32 << 20

// ObjectGetter is the subset of *s3.Client used to fetch definitions.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var _ ObjectGetter = (*s3.Client)(nil)

// S3Config holds the connection settings for S3-compatible object storage.
type S3Config struct {
	Endpoint string // host[:port], or a full URL
	Region   string
	KeyID    string
	Secret   string
}

// NewS3Client creates a client for S3-compatible storage with path-style
// addressing.
func NewS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: true,
	}
	if cfg.KeyID != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(cfg.KeyID, cfg.Secret, "")
	}
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		if !strings.Contains(endpoint, "://") {
			endpoint = "https://" + endpoint
		}
		opts.BaseEndpoint = aws.String(endpoint)
	}
	return s3.New(opts)
}

// LoadFile reads and parses a definition from the local filesystem.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// LoadS3 fetches and parses a definition from an "s3://bucket/key" URI.
func LoadS3(ctx context.Context, client ObjectGetter, uri string) (*Definition, error) {
	bucket, key, err := parseS3Path(uri)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", uri, err)
	}
	defer out.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(out.Body, maxDefinitionSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", uri, err)
	}
	if len(data) > maxDefinitionSize {
		return nil, domain.ErrValidation("catalog definition %q exceeds %d bytes", uri, maxDefinitionSize)
	}

	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", uri, err)
	}
	return def, nil
}

// Load dispatches on the source: "s3://" URIs are fetched with client, and
// anything else is read as a local path.
func Load(ctx context.Context, client ObjectGetter, source string) (*Definition, error) {
	if strings.HasPrefix(source, "s3://") {
		if client == nil {
			return nil, domain.ErrValidation("S3 is not configured, cannot load %q", source)
		}
		return LoadS3(ctx, client, source)
	}
	return LoadFile(source)
}

// parseS3Path extracts bucket and key from an "s3://bucket/path/to/file" URI.
func parseS3Path(s3Path string) (bucket, key string, err error) {
	u, err := url.Parse(s3Path)
	if err != nil {
		return "", "", domain.ErrValidation("parse S3 path %q: %v", s3Path, err)
	}
	if u.Scheme != "s3" {
		return "", "", domain.ErrValidation("expected s3:// scheme, got %q in %q", u.Scheme, s3Path)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", domain.ErrValidation("S3 path %q needs a bucket and a key", s3Path)
	}
	return bucket, key, nil
}
