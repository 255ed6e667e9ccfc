package app

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// AssetStorage keeps uploaded source images until the CDN pulls them.
type AssetStorage interface {
	UploadFile(ctx context.Context, uploadPath string, object io.Reader, size int64, contentType string) error
	PresignedURL(ctx context.Context, key string) (*url.URL, error)
	ListObjects(ctx context.Context, prefix string, filters []string) ([]*url.URL, error)
	DeleteFile(ctx context.Context, fileName string) error
}

type ClientMinio interface {
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (info minio.UploadInfo, err error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

type MinioS3Client struct {
	bucketName string
	client     ClientMinio
}

const (
	defaultContentType = "application/octet-stream"
	presignExpiry      = 7 * 24 * time.Hour
)

// NewMinioS3Client creates a new MinioS3Client instance.
func NewMinioS3Client(endpoint, accessKeyID, secretAccessKey, bucketName string, useSSL bool) (*MinioS3Client, error) {
	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for %s: %w", endpoint, err)
	}
	return NewS3ClientWith(minioClient, bucketName), nil
}

func NewS3ClientWith(client ClientMinio, bucketName string) *MinioS3Client {
	return &MinioS3Client{bucketName: bucketName, client: client}
}

// ListObjects returns presigned URLs for every object under prefix whose
// extension is in filters. An empty filter list matches everything.
func (s3 *MinioS3Client) ListObjects(ctx context.Context, prefix string, filters []string) ([]*url.URL, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	result := make([]*url.URL, 0)
	objectCh := s3.client.ListObjects(ctx, s3.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for object := range objectCh {
		if object.Err != nil {
			return result, object.Err
		}
		if len(filters) > 0 && !checkIn(object.Key, filters) {
			continue
		}
		presignedURL, err := s3.PresignedURL(ctx, object.Key)
		if err != nil {
			return result, err
		}
		result = append(result, presignedURL)
	}
	return result, nil
}

func (s3 *MinioS3Client) PresignedURL(ctx context.Context, key string) (*url.URL, error) {
	reqParams := make(url.Values)
	reqParams.Set("response-content-disposition", fmt.Sprintf("inline; filename=\"%s\"", key[strings.LastIndex(key, "/")+1:]))
	presignedURL, err := s3.client.PresignedGetObject(ctx, s3.bucketName, key, presignExpiry, reqParams)
	if err != nil {
		return nil, fmt.Errorf("can not presign %s: %w", key, err)
	}
	return presignedURL, nil
}

// UploadFile uploads a file to the configured bucket.
func (s3 *MinioS3Client) UploadFile(ctx context.Context, uploadPath string, object io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = defaultContentType
	}
	_, err := s3.client.PutObject(ctx,
		s3.bucketName,
		uploadPath,
		object,
		size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("can not upload %s: %w", uploadPath, err)
	}
	return nil
}

func (s3 *MinioS3Client) DeleteFile(ctx context.Context, fileName string) error {
	if err := s3.client.RemoveObject(ctx, s3.bucketName, fileName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("can not remove %s: %w", fileName, err)
	}
	return nil
}

func checkIn(key string, filters []string) bool {
	idx := strings.LastIndex(key, ".")
	if idx < 0 {
		return false
	}
	ext := strings.ToLower(key[idx+1:])
	for _, f := range filters {
		if f == ext {
			return true
		}
	}
	return false
}
