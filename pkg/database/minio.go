package database

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"chat_service/pkg"
	errprocess "chat_service/pkg/err"
	"chat_service/pkg/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// AssetStore accept an inline image payload and return a durable reference url
type AssetStore interface {
	UploadImage(ctx context.Context, dataURI string) (string, error)
}

// MinIOClient definition minio client
type MinIOClient struct {
	Client     *minio.Client
	BucketName string
	PublicURL  string

	put func(ctx context.Context, objectName string, data []byte, contentType string) error
}

// NewMinIOConnection create a new minio connection have retry
func NewMinIOConnection(ctx context.Context, d MinIOConnection) (*MinIOClient, error) {
	var mc *MinIOClient
	var err error

	for i := 1; i <= max(d.RetryCount, 1); i++ {
		mc, err = NewMinioClient(ctx, d)
		if err == nil {
			logger.Log.Info("minio connected", zap.String("endpoint", d.Endpoint), zap.Int("attempt", i))
			return mc, nil
		}

		logger.Log.Warn("minio connect failed, retrying", zap.String("endpoint", d.Endpoint), zap.Int("attempt", i), zap.Error(err))
		time.Sleep(d.RetryInterval)
	}

	return nil, err
}

// NewMinioClient create a new minio client and make sure bucket exists
func NewMinioClient(ctx context.Context, d MinIOConnection) (*MinIOClient, error) {
	minioClient, err := minio.New(d.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(d.User, d.Password, ""),
		Secure: d.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	exists, err := minioClient.BucketExists(ctx, d.BucketName)
	if err != nil {
		return nil, fmt.Errorf("check bucket [%s]: %w", d.BucketName, err)
	}
	if !exists {
		if err = minioClient.MakeBucket(ctx, d.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("make bucket [%s]: %w", d.BucketName, err)
		}
		logger.Log.Info("bucket created", zap.String("bucket", d.BucketName))
	}

	publicURL := d.PublicURL
	if publicURL == "" {
		scheme := "http"
		if d.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s", scheme, d.Endpoint)
	}

	mc := &MinIOClient{
		Client:     minioClient,
		BucketName: d.BucketName,
		PublicURL:  strings.TrimRight(publicURL, "/"),
	}
	mc.put = func(ctx context.Context, objectName string, data []byte, contentType string) error {
		_, err := minioClient.PutObject(ctx, d.BucketName, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: contentType,
		})
		return err
	}
	return mc, nil
}

// UploadImage store a data uri image under images/<uuid>.<ext>
func (m *MinIOClient) UploadImage(ctx context.Context, dataURI string) (string, error) {
	mime, data, err := pkg.ParseDataURI(dataURI)
	if err != nil {
		return "", errprocess.Validation("image must be a base64 data uri")
	}
	if !strings.HasPrefix(mime, "image/") {
		return "", errprocess.Validation("unsupported image type " + mime)
	}

	objectName := "images/" + uuid.New().String() + pkg.ExtensionByMime(mime)
	if err := m.put(ctx, objectName, data, mime); err != nil {
		return "", errprocess.Upstream("upload image", err)
	}
	return m.ObjectURL(objectName), nil
}

// ObjectURL public url of an object in the bucket
func (m *MinIOClient) ObjectURL(objectName string) string {
	return fmt.Sprintf("%s/%s/%s", m.PublicURL, m.BucketName, objectName)
}
