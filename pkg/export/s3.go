package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dd0wney/cluso-transit/pkg/analysis"
	"github.com/dd0wney/cluso-transit/pkg/logging"
)

// s3Client is the subset of the S3 API the exporter uses.
type s3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Exporter uploads snapshots to an S3 bucket, keyed by run ID.
type S3Exporter struct {
	Bucket string
	Prefix string

	client s3Client
	logger logging.Logger
}

// S3Option configures an S3Exporter.
type S3Option func(*S3Exporter)

// WithS3Client injects an S3 client, mainly for tests.
func WithS3Client(c s3Client) S3Option {
	return func(e *S3Exporter) { e.client = c }
}

// WithS3Logger sets the logger.
func WithS3Logger(l logging.Logger) S3Option {
	return func(e *S3Exporter) { e.logger = l }
}

// NewS3Exporter creates an exporter using the default AWS credential chain.
func NewS3Exporter(ctx context.Context, bucket, prefix string, opts ...S3Option) (*S3Exporter, error) {
	e := &S3Exporter{
		Bucket: bucket,
		Prefix: prefix,
		logger: logging.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.client == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		e.client = s3.NewFromConfig(cfg)
	}
	return e, nil
}

func (e *S3Exporter) Name() string { return "s3" }

// Export uploads the snapshot as JSON under <prefix>/<run_id>.json.
func (e *S3Exporter) Export(ctx context.Context, snapshot *analysis.Snapshot) error {
	data, err := snapshot.Encode()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	key := fmt.Sprintf("%s/%s.json", e.Prefix, snapshot.RunID)
	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", e.Bucket, key, err)
	}

	e.logger.Info("snapshot exported",
		logging.Component("export"),
		logging.RunID(snapshot.RunID),
		logging.Path("s3://"+e.Bucket+"/"+key),
		logging.Int("bytes", len(data)),
	)
	return nil
}
