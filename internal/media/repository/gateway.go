package repository

import (
	"context"

	"catalog_media_service/internal/media/domain"
)

// VideoGateway load / save / delete the Video aggregate
type VideoGateway interface {
	FindByID(ctx context.Context, id string) (*domain.Video, error)
	Save(ctx context.Context, video *domain.Video) error
	DeleteByID(ctx context.Context, id string) error
}

// MediaStorageGateway persist raw bytes and produce media records
type MediaStorageGateway interface {
	StoreAudioVideo(ctx context.Context, videoID string, mediaType domain.VideoMediaType, resource domain.Resource) (domain.AudioVideoMedia, error)
	StoreImage(ctx context.Context, videoID string, mediaType domain.VideoMediaType, resource domain.Resource) (domain.ImageMedia, error)
	// GetResource 讀取 slot 上某個 asset 的 raw 檔
	GetResource(ctx context.Context, videoID string, mediaType domain.VideoMediaType, assetID string) (*domain.Resource, error)
	// ClearResources 刪除 video 底下所有物件, 不存在時不回傳錯誤
	ClearResources(ctx context.Context, videoID string) error
	Remove(ctx context.Context, locations ...string) error
}

// VideoLocker serialize load-mutate-save on one video
type VideoLocker interface {
	Lock(ctx context.Context, videoID string) (unlock func(), err error)
}

// MediaEventPublisher notify downstream consumers about media changes
type MediaEventPublisher interface {
	Publish(ctx context.Context, event domain.MediaEvent) error
}
