package app

import (
	"context"
	"fmt"

	"catalog_media_service/internal/media/repository"
	errprocess "catalog_media_service/pkg/err"
	"catalog_media_service/pkg/logger"

	"go.uber.org/zap"
)

// DeleteVideoUseCase remove the video then every stored object of it
type DeleteVideoUseCase interface {
	Execute(ctx context.Context, videoID string) error
}

type deleteVideoUseCase struct {
	VideoRepo repository.VideoGateway
	Storage   repository.MediaStorageGateway
	Locker    repository.VideoLocker
}

// NewDeleteVideoUseCase 建立 DeleteVideoUseCase
func NewDeleteVideoUseCase(videoRepo repository.VideoGateway,
	storage repository.MediaStorageGateway,
	locker repository.VideoLocker,
) DeleteVideoUseCase {
	return &deleteVideoUseCase{
		VideoRepo: videoRepo,
		Storage:   storage,
		Locker:    locker,
	}
}

// Execute 先刪資料再清 storage, 沒有任何檔案也不算錯誤
func (u *deleteVideoUseCase) Execute(ctx context.Context, videoID string) error {
	unlock, err := u.Locker.Lock(ctx, videoID)
	if err != nil {
		return errprocess.Wrap(err, fmt.Sprintf("videoID[%s] 取得 video lock 失敗", videoID))
	}
	defer unlock()

	if err := u.VideoRepo.DeleteByID(ctx, videoID); err != nil {
		return errprocess.Wrap(err, fmt.Sprintf("videoID[%s] 刪除影片失敗", videoID))
	}
	if err := u.Storage.ClearResources(ctx, videoID); err != nil {
		return errprocess.Wrap(err, fmt.Sprintf("videoID[%s] 清除影片檔案失敗", videoID))
	}

	logger.Log.Info("影片已刪除", zap.String("video_id", videoID))
	return nil
}
