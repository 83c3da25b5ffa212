package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"net/url"
	"strings"

	"catalog_media_service/internal/media/domain"
	"catalog_media_service/pkg/database"

	"github.com/google/uuid"
)

const (
	metaName     = "name"
	metaChecksum = "checksum"

	defaultContentType = "application/octet-stream"
)

// VideoPrefix object prefix of every asset of one video
func VideoPrefix(videoID string) string {
	return fmt.Sprintf("videoId-%s/", videoID)
}

// ObjectKey raw object key of one asset, 每次上傳都是新的 key, 不會覆寫 slot 上現有的 asset
func ObjectKey(videoID string, mediaType domain.VideoMediaType, assetID string) string {
	return fmt.Sprintf("%stype-%s/%s", VideoPrefix(videoID), mediaType, assetID)
}

// Checksum CRC32 (IEEE) lower-case hex
func Checksum(content []byte) string {
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE(content))
}

type minioMediaStorage struct {
	client database.MinIOClientRepo
	newID  func() string
}

// NewMinIOMediaStorage create MediaStorageGateway backed by MinIO
func NewMinIOMediaStorage(client database.MinIOClientRepo) MediaStorageGateway {
	return &minioMediaStorage{
		client: client,
		newID:  uuid.NewString,
	}
}

func (s *minioMediaStorage) StoreAudioVideo(ctx context.Context, videoID string, mediaType domain.VideoMediaType, resource domain.Resource) (domain.AudioVideoMedia, error) {
	id := s.newID()
	location, checksum, err := s.store(ctx, ObjectKey(videoID, mediaType, id), resource)
	if err != nil {
		return domain.AudioVideoMedia{}, err
	}
	return domain.NewAudioVideoMedia(id, checksum, resource.Name, location), nil
}

func (s *minioMediaStorage) StoreImage(ctx context.Context, videoID string, mediaType domain.VideoMediaType, resource domain.Resource) (domain.ImageMedia, error) {
	id := s.newID()
	location, checksum, err := s.store(ctx, ObjectKey(videoID, mediaType, id), resource)
	if err != nil {
		return domain.ImageMedia{}, err
	}
	return domain.NewImageMedia(id, checksum, resource.Name, location), nil
}

func (s *minioMediaStorage) store(ctx context.Context, key string, resource domain.Resource) (string, string, error) {
	checksum := Checksum(resource.Content)

	contentType := resource.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	// user metadata 只能是 ASCII, 檔名先 escape
	meta := map[string]string{
		metaName:     url.QueryEscape(resource.Name),
		metaChecksum: checksum,
	}
	if err := s.client.PutObject(ctx, key, bytes.NewReader(resource.Content), int64(len(resource.Content)), contentType, meta); err != nil {
		return "", "", fmt.Errorf("上傳物件[%s]失敗: %w", key, err)
	}
	return key, checksum, nil
}

func (s *minioMediaStorage) GetResource(ctx context.Context, videoID string, mediaType domain.VideoMediaType, assetID string) (*domain.Resource, error) {
	key := ObjectKey(videoID, mediaType, assetID)

	body, meta, err := s.client.GetObject(ctx, key)
	if err != nil {
		if errors.Is(err, database.ErrObjectNotFound) {
			return nil, fmt.Errorf("object[%s]: %w", key, domain.ErrMediaNotFound)
		}
		return nil, err
	}
	defer body.Close()

	content, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("讀取物件[%s]失敗: %w", key, err)
	}

	name, err := url.QueryUnescape(metaValue(meta.UserMetadata, metaName))
	if err != nil {
		name = metaValue(meta.UserMetadata, metaName)
	}

	return &domain.Resource{
		Content:     content,
		ContentType: meta.ContentType,
		Name:        name,
		Checksum:    metaValue(meta.UserMetadata, metaChecksum),
	}, nil
}

func (s *minioMediaStorage) ClearResources(ctx context.Context, videoID string) error {
	return s.client.RemovePrefix(ctx, VideoPrefix(videoID))
}

func (s *minioMediaStorage) Remove(ctx context.Context, locations ...string) error {
	for _, location := range locations {
		if location == "" {
			continue
		}
		if err := s.client.RemoveObject(ctx, location); err != nil {
			return fmt.Errorf("刪除物件[%s]失敗: %w", location, err)
		}
	}
	return nil
}

// metaValue minio 回傳的 key 可能是 "Name" 或 "X-Amz-Meta-Name"
func metaValue(meta map[string]string, key string) string {
	for k, v := range meta {
		if strings.EqualFold(strings.TrimPrefix(strings.ToLower(k), "x-amz-meta-"), key) {
			return v
		}
	}
	return ""
}
