package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/RezaEskandarii/scribeflow/custom_errors"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ObjectStore reads uploaded media metadata and transcription results.
type ObjectStore interface {
	// Metadata returns the user metadata of an object, keys lower-cased.
	Metadata(ctx context.Context, bucket, key string) (map[string]string, error)
	// Get returns the object body.
	Get(ctx context.Context, bucket, key string) ([]byte, error)
}

// S3API is the part of the S3 client used here.
type S3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type S3 struct {
	client S3API
}

func NewS3(client S3API) *S3 {
	return &S3{client: client}
}

func (s *S3) Metadata(ctx context.Context, bucket, key string) (map[string]string, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapError("head", bucket, key, err)
	}
	if out.Metadata == nil {
		return map[string]string{}, nil
	}
	return out.Metadata, nil
}

func (s *S3) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapError("get", bucket, key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w: %w", bucket, key, custom_errors.ErrExternal, err)
	}
	return body, nil
}

func mapError(op, bucket, key string, err error) error {
	var noSuchKey *s3types.NoSuchKey
	var notFound *s3types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return fmt.Errorf("%s s3://%s/%s: %w", op, bucket, key, custom_errors.ErrNotFound)
	}
	return fmt.Errorf("%s s3://%s/%s: %w: %w", op, bucket, key, custom_errors.ErrExternal, err)
}
