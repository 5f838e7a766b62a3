package library

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/acm19/jpegtune/internal/compression"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// inMemoryS3Client is an in-memory S3 implementation for testing
type inMemoryS3Client struct {
	mu      sync.RWMutex
	objects map[string]*s3Object
	puts    int
	headErr error
	putErr  error
}

type s3Object struct {
	data        []byte
	etag        string
	contentType string
}

func newInMemoryS3Client() *inMemoryS3Client {
	return &inMemoryS3Client{
		objects: make(map[string]*s3Object),
	}
}

func objectKey(bucket, key *string) string {
	return aws.ToString(bucket) + "/" + aws.ToString(key)
}

func (c *inMemoryS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if c.putErr != nil {
		return nil, c.putErr
	}
	if params.Bucket == nil || params.Key == nil {
		return nil, fmt.Errorf("bucket and key are required")
	}

	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	hash := md5.Sum(data)
	etag := hex.EncodeToString(hash[:])

	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	c.objects[objectKey(params.Bucket, params.Key)] = &s3Object{
		data:        data,
		etag:        etag,
		contentType: aws.ToString(params.ContentType),
	}

	return &s3.PutObjectOutput{ETag: aws.String(fmt.Sprintf("\"%s\"", etag))}, nil
}

func (c *inMemoryS3Client) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if c.headErr != nil {
		return nil, c.headErr
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	obj, exists := c.objects[objectKey(params.Bucket, params.Key)]
	if !exists {
		return nil, &types.NotFound{Message: aws.String("key does not exist")}
	}
	return &s3.HeadObjectOutput{
		ETag:          aws.String(fmt.Sprintf("\"%s\"", obj.etag)),
		ContentLength: aws.Int64(int64(len(obj.data))),
	}, nil
}

func TestS3Library_Save(t *testing.T) {
	client := newInMemoryS3Client()
	lib := newS3Library(client, "bucket", "/photos/", nil)

	asset, err := lib.Save(context.Background(), compression.TestPhoto(32, 24))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	expectedLocation := "s3://bucket/photos/" + asset.ID + ".jpg"
	if asset.Location != expectedLocation {
		t.Errorf("Expected location %s, got %s", expectedLocation, asset.Location)
	}

	obj, ok := client.objects["bucket/photos/"+asset.ID+".jpg"]
	if !ok {
		t.Fatal("Expected object to be uploaded")
	}
	if obj.contentType != "image/jpeg" {
		t.Errorf("Expected content type image/jpeg, got %s", obj.contentType)
	}
	if len(obj.data) != asset.Size {
		t.Errorf("Expected %d bytes, got %d", asset.Size, len(obj.data))
	}
}

func TestS3Library_SaveSameImageTwiceDeduplicates(t *testing.T) {
	client := newInMemoryS3Client()
	lib := newS3Library(client, "bucket", "photos", nil)
	photo := compression.TestPhoto(32, 24)

	first, err := lib.Save(context.Background(), photo)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	second, err := lib.Save(context.Background(), photo)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("Expected same content-derived ID, got %s and %s", first.ID, second.ID)
	}
	if !second.Deduplicated {
		t.Error("Expected second save to be deduplicated")
	}
	if client.puts != 1 {
		t.Errorf("Expected 1 upload, got %d", client.puts)
	}
}

func TestS3Library_HashMismatch(t *testing.T) {
	client := newInMemoryS3Client()
	lib := newS3Library(client, "bucket", "photos", nil)
	photo := compression.TestPhoto(16, 16)

	asset, err := lib.Save(context.Background(), photo)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	client.objects["bucket/photos/"+asset.ID+".jpg"].etag = "0000"

	_, err = lib.Save(context.Background(), photo)
	if err == nil || !strings.Contains(err.Error(), "hash mismatch") {
		t.Errorf("Expected hash mismatch error, got: %v", err)
	}
}

func TestS3Library_Errors(t *testing.T) {
	tests := []struct {
		name   string
		client *inMemoryS3Client
	}{
		{name: "head fails", client: &inMemoryS3Client{objects: map[string]*s3Object{}, headErr: errors.New("access denied")}},
		{name: "put fails", client: &inMemoryS3Client{objects: map[string]*s3Object{}, putErr: errors.New("slow down")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib := newS3Library(tt.client, "bucket", "", nil)
			_, err := lib.Save(context.Background(), compression.TestPhoto(8, 8))

			var saveErr *SaveError
			if !errors.As(err, &saveErr) {
				t.Errorf("Expected *SaveError, got: %v", err)
			}
		})
	}
}

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil", err: nil, expected: false},
		{name: "types.NotFound", err: &types.NotFound{}, expected: true},
		{name: "api error", err: &smithy.GenericAPIError{Code: "NotFound"}, expected: true},
		{name: "status code message", err: errors.New("operation error S3: HeadObject, StatusCode: 404"), expected: true},
		{name: "other", err: errors.New("access denied"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNotFoundError(tt.err); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}
