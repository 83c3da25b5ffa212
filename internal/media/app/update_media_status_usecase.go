package app

import (
	"context"
	"fmt"

	"catalog_media_service/internal/media/domain"
	"catalog_media_service/internal/media/repository"
	errprocess "catalog_media_service/pkg/err"
	"catalog_media_service/pkg/logger"

	"go.uber.org/zap"
)

// UpdateMediaStatusUseCase move the asset reported by the encoder forward
type UpdateMediaStatusUseCase interface {
	Execute(ctx context.Context, cmd domain.UpdateMediaStatusCommand) error
}

type updateMediaStatusUseCase struct {
	VideoRepo repository.VideoGateway
	Locker    repository.VideoLocker
	Publisher repository.MediaEventPublisher
}

// NewUpdateMediaStatusUseCase 建立 UpdateMediaStatusUseCase
func NewUpdateMediaStatusUseCase(videoRepo repository.VideoGateway,
	locker repository.VideoLocker,
	publisher repository.MediaEventPublisher,
) UpdateMediaStatusUseCase {
	return &updateMediaStatusUseCase{
		VideoRepo: videoRepo,
		Locker:    locker,
		Publisher: publisher,
	}
}

// Execute asset id 找不到對應 slot 時不視為錯誤, 只記錄 warn
func (u *updateMediaStatusUseCase) Execute(ctx context.Context, cmd domain.UpdateMediaStatusCommand) error {
	status, err := domain.ParseMediaStatus(string(cmd.Status))
	if err != nil {
		return errprocess.Wrap(err, fmt.Sprintf("videoID[%s] resourceID[%s] status 錯誤", cmd.VideoID, cmd.ResourceID))
	}
	if status == domain.MediaCompleted && cmd.Filename == "" {
		return errprocess.Wrap(domain.ErrInvalidEncodedLocation, fmt.Sprintf("videoID[%s] resourceID[%s] 缺少轉碼檔名", cmd.VideoID, cmd.ResourceID))
	}

	unlock, err := u.Locker.Lock(ctx, cmd.VideoID)
	if err != nil {
		return errprocess.Wrap(err, fmt.Sprintf("videoID[%s] 取得 video lock 失敗", cmd.VideoID))
	}
	defer unlock()

	video, err := u.VideoRepo.FindByID(ctx, cmd.VideoID)
	if err != nil {
		return errprocess.Wrap(err, fmt.Sprintf("videoID[%s] 找不到影片", cmd.VideoID))
	}

	// 沒有回到 PENDING 的 transition
	if status == domain.MediaPending {
		logger.Log.Debug("PENDING status 不需處理",
			zap.String("video_id", cmd.VideoID),
			zap.String("resource_id", cmd.ResourceID),
		)
		return nil
	}

	slot, ok := video.SlotOf(cmd.ResourceID)
	if !ok {
		logger.Log.Warn("resource id 不屬於任何影音 slot, 略過",
			zap.String("video_id", cmd.VideoID),
			zap.String("resource_id", cmd.ResourceID),
			zap.String("status", string(status)),
		)
		return nil
	}

	var changed bool
	switch status {
	case domain.MediaProcessing:
		changed, err = video.Processing(slot)
	case domain.MediaCompleted:
		changed, err = video.Completed(slot, cmd.EncodedPath())
	}
	if err != nil {
		return errprocess.Wrap(err, fmt.Sprintf("videoID[%s] type[%s] 更新狀態失敗", video.ID, slot))
	}
	if !changed {
		logger.Log.Debug("media 狀態未改變",
			zap.String("video_id", video.ID),
			zap.String("media_type", string(slot)),
			zap.String("status", string(status)),
		)
		return nil
	}

	if err := u.VideoRepo.Save(ctx, video); err != nil {
		return errprocess.Wrap(err, fmt.Sprintf("videoID[%s] 儲存影片失敗", video.ID))
	}

	media, _ := video.AudioVideo(slot)
	publishEvent(ctx, u.Publisher, domain.MediaEvent{
		Type:            domain.MediaEventStatusChanged,
		VideoID:         video.ID,
		ResourceID:      media.ID,
		MediaType:       slot,
		Status:          media.Status,
		EncodedLocation: media.EncodedLocation,
	})

	logger.Log.Info("media 狀態更新",
		zap.String("video_id", video.ID),
		zap.String("media_type", string(slot)),
		zap.String("status", string(media.Status)),
	)
	return nil
}
