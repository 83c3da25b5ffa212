package app

import (
	"context"
	"fmt"

	"catalog_media_service/internal/media/domain"
	"catalog_media_service/internal/media/repository"
	errprocess "catalog_media_service/pkg/err"
)

// GetMediaUseCase read back the raw resource of a slot
type GetMediaUseCase interface {
	Execute(ctx context.Context, videoID, mediaType string) (*domain.Resource, error)
}

type getMediaUseCase struct {
	VideoRepo repository.VideoGateway
	Storage   repository.MediaStorageGateway
}

// NewGetMediaUseCase 建立 GetMediaUseCase
func NewGetMediaUseCase(videoRepo repository.VideoGateway, storage repository.MediaStorageGateway) GetMediaUseCase {
	return &getMediaUseCase{
		VideoRepo: videoRepo,
		Storage:   storage,
	}
}

func (u *getMediaUseCase) Execute(ctx context.Context, videoID, mediaType string) (*domain.Resource, error) {
	video, err := u.VideoRepo.FindByID(ctx, videoID)
	if err != nil {
		return nil, errprocess.Wrap(err, fmt.Sprintf("videoID[%s] 找不到影片", videoID))
	}

	t, err := domain.ParseVideoMediaType(mediaType)
	if err != nil {
		return nil, errprocess.Wrap(err, fmt.Sprintf("videoID[%s] media type 錯誤", videoID))
	}

	// 只讀取 slot 目前指向的 asset
	var assetID string
	if t.IsAudioVideo() {
		if m, ok := video.AudioVideo(t); ok {
			assetID = m.ID
		}
	} else if m, ok := video.Image(t); ok {
		assetID = m.ID
	}
	if assetID == "" {
		return nil, errprocess.Wrap(domain.ErrMediaNotFound, fmt.Sprintf("videoID[%s] type[%s] 尚未上傳", videoID, t))
	}

	resource, err := u.Storage.GetResource(ctx, videoID, t, assetID)
	if err != nil {
		return nil, errprocess.Wrap(err, fmt.Sprintf("videoID[%s] type[%s] 讀取檔案失敗", videoID, t))
	}
	return resource, nil
}
