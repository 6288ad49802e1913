package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dmitrijs2005/securedoc/internal/common"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// S3Options holds the settings for an S3-compatible custody backend.
type S3Options struct {
	Region       string
	RootUser     string
	RootPassword string
	Bucket       string
	BaseEndpoint string
}

// S3Store keeps custody of file bytes on an S3-compatible bucket using the
// same logical layout as FileStore, as object keys:
//
//	<ownerID>/original/<fileID>.pdf
//	<ownerID>/redacted/<fileID>.pdf
type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// NewS3Store builds the S3 client from static credentials and an optional
// base endpoint (e.g. a MinIO instance).
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.RootUser,
			opts.RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
		}
	})

	return &S3Store{
		client:  client,
		presign: newS3PresignClient(client),
		bucket:  opts.Bucket,
	}, nil
}

// Path implements Store. For S3 the recorded storage path is the object key.
func (s *S3Store) Path(ownerID, fileID string, v Variant) string {
	return fmt.Sprintf("%s/%s/%s.pdf", ownerID, v, fileID)
}

func (s *S3Store) checked(ownerID, fileID string, v Variant) (string, error) {
	if !safeSegment(ownerID) || !safeSegment(fileID) {
		return "", fmt.Errorf("%w: malformed identifier", common.ErrNotFound)
	}
	return s.Path(ownerID, fileID, v), nil
}

// Put implements Store. S3 object writes are atomic by themselves.
func (s *S3Store) Put(ctx context.Context, ownerID, fileID string, v Variant, b []byte) error {
	key, err := s.checked(ownerID, fileID, v)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   bytes.NewReader(b),
	})
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", common.ErrStorageFailure, key, err)
	}
	return nil
}

// Get implements Store.
func (s *S3Store) Get(ctx context.Context, ownerID, fileID string, v Variant) ([]byte, error) {
	key, err := s.checked(ownerID, fileID, v)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: %s/%s (%s)", common.ErrNotFound, ownerID, fileID, v)
		}
		return nil, fmt.Errorf("%w: get %s: %v", common.ErrStorageFailure, key, err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", common.ErrStorageFailure, key, err)
	}
	return b, nil
}

// Exists implements Store.
func (s *S3Store) Exists(ctx context.Context, ownerID, fileID string, v Variant) (bool, error) {
	key, err := s.checked(ownerID, fileID, v)
	if err != nil {
		return false, nil
	}
	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		var nf *s3types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, fmt.Errorf("%w: head %s: %v", common.ErrStorageFailure, key, err)
	}
	return true, nil
}

// Delete implements Store.
func (s *S3Store) Delete(ctx context.Context, ownerID, fileID string, v Variant) error {
	key, err := s.checked(ownerID, fileID, v)
	if err != nil {
		return nil
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	}); err != nil {
		return fmt.Errorf("%w: delete %s: %v", common.ErrStorageFailure, key, err)
	}
	return nil
}

// AssertAccessible implements Store.
func (s *S3Store) AssertAccessible(ctx context.Context, ownerID, fileID string) error {
	for _, v := range []Variant{VariantOriginal, VariantRedacted} {
		ok, err := s.Exists(ctx, ownerID, fileID, v)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return fmt.Errorf("%w: file not found or access denied", common.ErrAccessDenied)
}

// SignedGetURL returns a temporary presigned GET URL for the variant, for
// handing a download link to the caller without proxying bytes.
func (s *S3Store) SignedGetURL(ctx context.Context, ownerID, fileID string, v Variant, expires time.Duration) (string, error) {
	key, err := s.checked(ownerID, fileID, v)
	if err != nil {
		return "", err
	}
	req, err := presignGetObject(s.presign, ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
