package library

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/acm19/jpegtune/internal/compression"
	"github.com/acm19/jpegtune/internal/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
)

// assetNamespace derives content-addressed asset IDs.
var assetNamespace = uuid.MustParse("6f1c2b8e-4d0a-4c55-9a57-2f3f1d2c9b10")

// s3API is the subset of the S3 client used by the library
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// s3Library stores assets in an S3 bucket
type s3Library struct {
	client s3API
	bucket string
	prefix string
	codec  compression.Codec
}

// NewS3Library creates a Library backed by an S3 bucket, using the default
// AWS credential chain
func NewS3Library(ctx context.Context, bucket, prefix string, codec compression.Codec) (Library, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return newS3Library(s3.NewFromConfig(cfg), bucket, prefix, codec), nil
}

func newS3Library(client s3API, bucket, prefix string, codec compression.Codec) *s3Library {
	if codec == nil {
		codec = compression.NewCodec()
	}
	return &s3Library{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		codec:  codec,
	}
}

// Save uploads the encoded bitmap under a key derived from its content, so
// saving the same image twice stores it once
func (l *s3Library) Save(ctx context.Context, bitmap compression.Bitmap) (Asset, error) {
	data, err := encodeAsset(l.codec, bitmap)
	if err != nil {
		return Asset{}, &SaveError{Library: "s3", Err: err}
	}

	id := uuid.NewMD5(assetNamespace, data).String()
	key := path.Join(l.prefix, id+".jpg")
	sum := md5.Sum(data)
	localHash := hex.EncodeToString(sum[:])

	asset := Asset{
		ID:       id,
		Location: fmt.Sprintf("s3://%s/%s", l.bucket, key),
		Size:     len(data),
		SavedAt:  time.Now(),
	}

	headOutput, err := l.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		remoteETag := strings.Trim(aws.ToString(headOutput.ETag), `"`)
		if remoteETag == localHash {
			logger.Info("Asset already exists in S3 with matching hash, skipping", "key", key, "hash", localHash)
			asset.Deduplicated = true
			return asset, nil
		}
		return Asset{}, &SaveError{
			Library: "s3",
			Err:     fmt.Errorf("hash mismatch for '%s': S3 object exists with different content (local: %s, remote: %s)", key, localHash, remoteETag),
		}
	} else if !isNotFoundError(err) {
		return Asset{}, &SaveError{Library: "s3", Err: fmt.Errorf("failed to check S3 object existence: %w", err)}
	}

	logger.Info("Uploading asset to S3", "bucket", l.bucket, "key", key, "bytes", len(data))
	_, err = l.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(l.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return Asset{}, &SaveError{Library: "s3", Err: fmt.Errorf("failed to upload to S3: %w", err)}
	}

	return asset, nil
}

// isNotFoundError checks if the error is a NotFound error
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if apiErr.ErrorCode() == "NotFound" {
			return true
		}
	}

	errMsg := err.Error()
	return strings.Contains(errMsg, "NotFound") || strings.Contains(errMsg, "StatusCode: 404")
}
