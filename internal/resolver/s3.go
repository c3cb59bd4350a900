package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/llehouerou/wavecloud/internal/playlist"
)

// DefaultPresignTTL is how long presigned URLs stay valid by default.
const DefaultPresignTTL = 15 * time.Minute

// S3 resolves sources stored in a bucket to presigned GET URLs.
type S3 struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	ttl     time.Duration
	logger  zerolog.Logger
}

// NewS3 creates a resolver for objects in bucket. A zero ttl uses
// DefaultPresignTTL.
func NewS3(client *s3.Client, bucket string, ttl time.Duration, logger zerolog.Logger) *S3 {
	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}
	return &S3{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
		ttl:     ttl,
		logger:  logger,
	}
}

// TTL returns how long resolved URLs stay valid.
func (r *S3) TTL() time.Duration {
	return r.ttl
}

func (r *S3) Resolve(ctx context.Context, t playlist.Track) (string, error) {
	if t.SourceRef == "" {
		return "", errNoSource(t)
	}

	_, err := r.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(t.SourceRef),
	})
	if err != nil {
		var re *awshttp.ResponseError
		if errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound {
			return "", fmt.Errorf("%w: %s", ErrNotFound, t.SourceRef)
		}
		return "", fmt.Errorf("head object %s: %w", t.SourceRef, err)
	}

	req, err := r.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(t.SourceRef),
	}, s3.WithPresignExpires(r.ttl))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", t.SourceRef, err)
	}

	r.logger.Debug().
		Str("bucket", r.bucket).
		Str("key", t.SourceRef).
		Dur("ttl", r.ttl).
		Msg("s3 resolver: url presigned")
	return req.URL, nil
}
