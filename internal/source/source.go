package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"pvp-analytics/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

const s3Scheme = "s3://"

var ErrTooLarge = errors.New("upload exceeds size limit")

// ObjectGetter is the part of the S3 client used to fetch uploads.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Upload is one input fully buffered in memory, so it can be seeked for
// format detection.
type Upload struct {
	Name   string
	Reader *bytes.Reader
}

// Opener reads uploads from local paths or s3://bucket/key locations.
type Opener struct {
	maxBytes int64
	endpoint string
	logger   zerolog.Logger

	s3Once sync.Once
	s3     ObjectGetter
	s3Err  error
}

func NewOpener(cfg *config.Config, logger zerolog.Logger) *Opener {
	return &Opener{
		maxBytes: cfg.MaxUploadBytes,
		endpoint: cfg.AWSEndpointURL,
		logger:   logger,
	}
}

// WithObjectGetter replaces the S3 client built from the default AWS config.
func (o *Opener) WithObjectGetter(g ObjectGetter) *Opener {
	o.s3Once.Do(func() {})
	o.s3 = g
	return o
}

func (o *Opener) Open(ctx context.Context, location string) (*Upload, error) {
	if strings.HasPrefix(location, s3Scheme) {
		return o.openS3(ctx, location)
	}
	return o.openFile(location)
}

func (o *Opener) openFile(path string) (*Upload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	data, err := o.readLimited(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	o.logger.Debug().Str("path", path).Int("bytes", len(data)).Msg("local upload read")
	return &Upload{Name: filepath.Base(path), Reader: bytes.NewReader(data)}, nil
}

func (o *Opener) openS3(ctx context.Context, location string) (*Upload, error) {
	bucket, key, err := ParseS3Location(location)
	if err != nil {
		return nil, err
	}

	client, err := o.client(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get S3 object %s: %w", location, err)
	}
	defer resp.Body.Close()

	if resp.ContentLength != nil && *resp.ContentLength > o.maxBytes {
		return nil, fmt.Errorf("failed to read %s: %w", location, ErrTooLarge)
	}

	data, err := o.readLimited(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", location, err)
	}
	o.logger.Debug().Str("bucket", bucket).Str("key", key).Int("bytes", len(data)).Msg("S3 upload read")
	return &Upload{Name: key[strings.LastIndex(key, "/")+1:], Reader: bytes.NewReader(data)}, nil
}

func (o *Opener) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, o.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > o.maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

func (o *Opener) client(ctx context.Context) (ObjectGetter, error) {
	o.s3Once.Do(func() {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			o.s3Err = fmt.Errorf("failed to load AWS config: %w", err)
			return
		}

		// LocalStack and other S3-compatible endpoints need path-style URLs
		if o.endpoint != "" {
			cfg.BaseEndpoint = aws.String(o.endpoint)
			o.s3 = s3.NewFromConfig(cfg, func(opts *s3.Options) {
				opts.UsePathStyle = true
			})
			return
		}
		o.s3 = s3.NewFromConfig(cfg)
	})
	return o.s3, o.s3Err
}

// ParseS3Location splits "s3://bucket/key".
func ParseS3Location(location string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(location, s3Scheme)
	if !ok {
		return "", "", fmt.Errorf("not an S3 location: %q", location)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("S3 location %q must be s3://bucket/key", location)
	}
	return bucket, key, nil
}
