package s3

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// Client is the subset of the S3 API used by Store.
// *s3.Client satisfies it; tests substitute a mock.
type Client interface {
	manager.UploadAPIClient
	s3.HeadObjectAPIClient
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// UploadConfig configures the S3 uploader.
type UploadConfig struct {
	// PartSize is the minimum part size for multipart uploads.
	// Default: 8MB
	PartSize int64

	// Concurrency is the number of concurrent part uploads.
	// Default: 5
	Concurrency int

	// EnableChecksum enables CRC32C integrity validation.
	// Default: true
	EnableChecksum bool
}

// DefaultUploadConfig returns the default upload settings.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		PartSize:       8 * 1024 * 1024,
		Concurrency:    5,
		EnableChecksum: true,
	}
}

// Options configures New and NewDDB.
type Options struct {
	// Prefix is prepended to every key (e.g. "line-7/").
	Prefix string
	// Region overrides the region from the shared AWS configuration.
	Region string
	// Endpoint overrides the service endpoint (S3-compatible services, LocalStack).
	Endpoint string
	// UsePathStyle enables path-style addressing.
	UsePathStyle bool
	// Upload configures streaming uploads.
	Upload UploadConfig
}

func defaultOptions() Options {
	return Options{Upload: DefaultUploadConfig()}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) func(*Options) {
	return func(o *Options) { o.Prefix = prefix }
}

// WithRegion sets the AWS region.
func WithRegion(region string) func(*Options) {
	return func(o *Options) { o.Region = region }
}

// WithEndpoint sets a custom endpoint and enables path-style addressing.
func WithEndpoint(endpoint string) func(*Options) {
	return func(o *Options) {
		o.Endpoint = endpoint
		o.UsePathStyle = true
	}
}

// WithUploadConfig replaces the upload settings.
func WithUploadConfig(cfg UploadConfig) func(*Options) {
	return func(o *Options) { o.Upload = cfg }
}

func loadConfig(ctx context.Context, o Options) (aws.Config, error) {
	var loadOpts []func(*config.LoadOptions) error
	if o.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.Region))
	}
	return config.LoadDefaultConfig(ctx, loadOpts...)
}

// New creates a Store from the default AWS credential chain.
func New(ctx context.Context, bucket string, optFns ...func(*Options)) (*Store, error) {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}

	cfg, err := loadConfig(ctx, o)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.Endpoint != "" {
			so.BaseEndpoint = aws.String(o.Endpoint)
		}
		so.UsePathStyle = o.UsePathStyle
	})

	return NewStore(client, bucket, o.Prefix, WithUploadConfig(o.Upload)), nil
}

// NewDDB creates a DDBCommitStore from the default AWS credential chain.
// The DynamoDB partition key is "s3://bucket/prefix".
func NewDDB(ctx context.Context, bucket, table string, optFns ...func(*Options)) (*DDBCommitStore, error) {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}

	store, err := New(ctx, bucket, optFns...)
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfig(ctx, o)
	if err != nil {
		return nil, err
	}

	baseURI := "s3://" + bucket + "/" + o.Prefix
	return NewDDBCommitStore(store, dynamodb.NewFromConfig(cfg), table, baseURI), nil
}

// isNotFound reports whether err is an S3 missing-object error.
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
