// Package minio provides a grader BucketProvider implementation for MinIO.
package minio

import (
	"context"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/zoobzio/grader"
)

// Provider implements grader.BucketProvider for MinIO.
type Provider struct {
	client *minio.Client
	bucket string
}

// New creates a MinIO provider with the given client and bucket name.
func New(client *minio.Client, bucket string) *Provider {
	return &Provider{
		client: client,
		bucket: bucket,
	}
}

// Config holds the settings for NewClient.
type Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Secure          bool
}

// NewClient creates a MinIO client using path-style bucket lookup and static
// credentials. Setting Region skips the bucket location lookup.
func NewClient(cfg Config) (*minio.Client, error) {
	return minio.New(cfg.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure:       cfg.Secure,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
}

// Get retrieves the blob at key.
func (p *Provider) Get(ctx context.Context, key string) ([]byte, *grader.ObjectInfo, error) {
	obj, err := p.client.GetObject(ctx, p.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, nil, grader.ErrNotFound
		}
		return nil, nil, err
	}
	defer func() { _ = obj.Close() }()

	stat, err := obj.Stat()
	if err != nil {
		if isNotFound(err) {
			return nil, nil, grader.ErrNotFound
		}
		return nil, nil, err
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, nil, err
	}

	info := &grader.ObjectInfo{
		Key:         key,
		Size:        stat.Size,
		ContentType: stat.ContentType,
		ETag:        stat.ETag,
	}

	return data, info, nil
}

// List returns object info for keys matching the given prefix.
// A limit of 0 or less lists everything.
func (p *Provider) List(ctx context.Context, prefix string, limit int) ([]grader.ObjectInfo, error) {
	results := make([]grader.ObjectInfo, 0)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}

	for obj := range p.client.ListObjects(ctx, p.bucket, opts) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		results = append(results, grader.ObjectInfo{
			Key:         obj.Key,
			Size:        obj.Size,
			ETag:        obj.ETag,
			ContentType: obj.ContentType,
		})
		if limit > 0 && len(results) >= limit {
			break
		}
	}

	return results, nil
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NotFound":
		return true
	}
	return resp.StatusCode == http.StatusNotFound && resp.Code != "NoSuchBucket"
}

var _ grader.BucketProvider = (*Provider)(nil)
