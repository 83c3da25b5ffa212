package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"catalog_media_service/pkg/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// ErrObjectNotFound object key 不存在
var ErrObjectNotFound = errors.New("object not found")

// ObjectMeta 物件的 metadata
type ObjectMeta struct {
	ContentType  string
	Size         int64
	UserMetadata map[string]string
}

// MinIOClientRepo definition minio operations used by the media storage gateway
type MinIOClientRepo interface {
	PutObject(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string, meta map[string]string) error
	GetObject(ctx context.Context, objectName string) (io.ReadCloser, ObjectMeta, error)
	RemoveObject(ctx context.Context, objectName string) error
	RemovePrefix(ctx context.Context, prefix string) error
}

// MinIOClient definition minio client
type MinIOClient struct {
	Client     *minio.Client
	BucketName string
}

// NewMinIOConnection create a new minio connection have retry
func NewMinIOConnection(ctx context.Context, d MinIOConnection) (*MinIOClient, error) {
	var mc *MinIOClient
	var err error

	for i := 1; i <= d.RetryCount; i++ {
		mc, err = NewMinioClient(ctx, d.Endpoint, d.User, d.Password, d.BucketName, d.UseSSL)
		if err == nil {
			logger.Log.Info("minIO 連線成功", zap.String("endpoint", d.Endpoint), zap.Int("attempt", i))
			return mc, nil
		}

		logger.Log.Warn("minIO 連線失敗",
			zap.String("endpoint", d.Endpoint),
			zap.Int("attempt", i),
			zap.Int("max", d.RetryCount),
			zap.Error(err),
		)
		time.Sleep(d.RetryInterval * time.Second)
	}

	return nil, err
}

// NewMinioClient create a new minio and ensure bucket exists
func NewMinioClient(ctx context.Context, endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*MinIOClient, error) {
	minioClient, err := minio.New(endpoint,
		&minio.Options{
			Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
			Secure: useSSL,
		})
	if err != nil {
		return nil, fmt.Errorf("初始化 MinIO 失敗: %w", err)
	}

	exists, err := minioClient.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("檢查 bucket [%s] 失敗: %w", bucketName, err)
	}

	if !exists {
		if err = minioClient.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("建立 bucket [%s] 失敗: %w", bucketName, err)
		}
		logger.Log.Info("Bucket 建立成功", zap.String("bucket", bucketName))
	}

	return &MinIOClient{
		Client:     minioClient,
		BucketName: bucketName,
	}, nil
}

// PutObject upload object from reader
func (m *MinIOClient) PutObject(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string, meta map[string]string) error {
	_, err := m.Client.PutObject(ctx, m.BucketName, objectName, reader, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: meta,
	})
	return err
}

// GetObject 取得物件內容, 呼叫端負責 Close
func (m *MinIOClient) GetObject(ctx context.Context, objectName string) (io.ReadCloser, ObjectMeta, error) {
	obj, err := m.Client.GetObject(ctx, m.BucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectMeta{}, fmt.Errorf("取得物件失敗: %w", err)
	}

	// GetObject 是 lazy 的, Stat 才會真正打到 server
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ObjectMeta{}, ErrObjectNotFound
		}
		return nil, ObjectMeta{}, fmt.Errorf("取得物件資訊失敗: %w", err)
	}

	return obj, ObjectMeta{
		ContentType:  info.ContentType,
		Size:         info.Size,
		UserMetadata: info.UserMetadata,
	}, nil
}

// RemoveObject delete object, key 不存在不視為錯誤
func (m *MinIOClient) RemoveObject(ctx context.Context, objectName string) error {
	return m.Client.RemoveObject(ctx, m.BucketName, objectName, minio.RemoveObjectOptions{})
}

// RemovePrefix delete every object under prefix
func (m *MinIOClient) RemovePrefix(ctx context.Context, prefix string) error {
	objectsCh := m.Client.ListObjects(ctx, m.BucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	toRemove := make(chan minio.ObjectInfo)
	var listErr error
	go func() {
		defer close(toRemove)
		for obj := range objectsCh {
			if obj.Err != nil {
				listErr = obj.Err
				return
			}
			toRemove <- obj
		}
	}()

	var removeErr error
	for rErr := range m.Client.RemoveObjects(ctx, m.BucketName, toRemove, minio.RemoveObjectsOptions{}) {
		if removeErr == nil {
			removeErr = fmt.Errorf("刪除物件[%s]失敗: %w", rErr.ObjectName, rErr.Err)
		}
	}

	if listErr != nil {
		return fmt.Errorf("列出物件[%s]失敗: %w", prefix, listErr)
	}
	return removeErr
}
