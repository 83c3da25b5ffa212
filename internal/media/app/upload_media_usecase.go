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

// UploadMediaUseCase attach an uploaded resource to a video slot
type UploadMediaUseCase interface {
	Execute(ctx context.Context, cmd domain.UploadMediaCommand) (*domain.UploadMediaOutput, error)
}

type uploadMediaUseCase struct {
	VideoRepo repository.VideoGateway
	Storage   repository.MediaStorageGateway
	Locker    repository.VideoLocker
	Publisher repository.MediaEventPublisher
}

// NewUploadMediaUseCase 建立 UploadMediaUseCase
func NewUploadMediaUseCase(videoRepo repository.VideoGateway,
	storage repository.MediaStorageGateway,
	locker repository.VideoLocker,
	publisher repository.MediaEventPublisher,
) UploadMediaUseCase {
	return &uploadMediaUseCase{
		VideoRepo: videoRepo,
		Storage:   storage,
		Locker:    locker,
		Publisher: publisher,
	}
}

// Execute 1. 確認 video 存在 2. lock 外寫入 raw 檔 3. lock 內重新讀取 video 並取代 slot 4. 儲存 aggregate 5. 清除被取代的檔案
func (u *uploadMediaUseCase) Execute(ctx context.Context, cmd domain.UploadMediaCommand) (*domain.UploadMediaOutput, error) {
	if _, err := u.VideoRepo.FindByID(ctx, cmd.VideoID); err != nil {
		return nil, errprocess.Wrap(err, fmt.Sprintf("videoID[%s] 找不到影片", cmd.VideoID))
	}

	mediaType, err := domain.ParseVideoMediaType(cmd.MediaType)
	if err != nil {
		return nil, errprocess.Wrap(err, fmt.Sprintf("videoID[%s] media type 錯誤", cmd.VideoID))
	}

	// 每個 asset 有自己的 object key, 寫檔不需要持有 lock
	var attach func(video *domain.Video) ([]string, error)
	var resourceID, location string
	if mediaType.IsAudioVideo() {
		media, err := u.Storage.StoreAudioVideo(ctx, cmd.VideoID, mediaType, cmd.Resource)
		if err != nil {
			return nil, errprocess.Wrap(err, fmt.Sprintf("videoID[%s] type[%s] 儲存影音檔失敗", cmd.VideoID, mediaType))
		}
		resourceID, location = media.ID, media.RawLocation
		attach = func(video *domain.Video) ([]string, error) {
			previous, err := video.SetAudioVideo(mediaType, media)
			if err != nil || previous == nil {
				return nil, err
			}
			return []string{previous.RawLocation, previous.EncodedLocation}, nil
		}
	} else {
		media, err := u.Storage.StoreImage(ctx, cmd.VideoID, mediaType, cmd.Resource)
		if err != nil {
			return nil, errprocess.Wrap(err, fmt.Sprintf("videoID[%s] type[%s] 儲存圖片失敗", cmd.VideoID, mediaType))
		}
		resourceID, location = media.ID, media.Location
		attach = func(video *domain.Video) ([]string, error) {
			previous, err := video.SetImage(mediaType, media)
			if err != nil || previous == nil {
				return nil, err
			}
			return []string{previous.Location}, nil
		}
	}

	superseded, err := u.attach(ctx, cmd.VideoID, attach)
	if err != nil {
		// aggregate 沒有指向新檔, 刪掉避免孤兒
		u.remove(ctx, cmd.VideoID, location)
		return nil, err
	}
	u.remove(ctx, cmd.VideoID, without(superseded, location)...)

	event := domain.MediaEvent{
		Type:       domain.MediaEventUploaded,
		VideoID:    cmd.VideoID,
		ResourceID: resourceID,
		MediaType:  mediaType,
	}
	if mediaType.IsAudioVideo() {
		event.Status = domain.MediaPending
	}
	publishEvent(ctx, u.Publisher, event)

	logger.Log.Info("media 上傳完成",
		zap.String("video_id", cmd.VideoID),
		zap.String("media_type", string(mediaType)),
		zap.String("resource_id", resourceID),
	)

	return &domain.UploadMediaOutput{
		VideoID:   cmd.VideoID,
		MediaType: mediaType,
	}, nil
}

// attach lock 只涵蓋 load -> set slot -> save, 回傳被取代 media 的檔案位置
func (u *uploadMediaUseCase) attach(ctx context.Context, videoID string, set func(video *domain.Video) ([]string, error)) ([]string, error) {
	unlock, err := u.Locker.Lock(ctx, videoID)
	if err != nil {
		return nil, errprocess.Wrap(err, fmt.Sprintf("videoID[%s] 取得 video lock 失敗", videoID))
	}
	defer unlock()

	video, err := u.VideoRepo.FindByID(ctx, videoID)
	if err != nil {
		return nil, errprocess.Wrap(err, fmt.Sprintf("videoID[%s] 找不到影片", videoID))
	}

	superseded, err := set(video)
	if err != nil {
		return nil, errprocess.Wrap(err, fmt.Sprintf("videoID[%s] 設定 slot 失敗", videoID))
	}

	if err := u.VideoRepo.Save(ctx, video); err != nil {
		return nil, errprocess.Wrap(err, fmt.Sprintf("videoID[%s] 儲存影片失敗", videoID))
	}
	return superseded, nil
}

// remove best-effort 刪除檔案, 失敗只記錄
func (u *uploadMediaUseCase) remove(ctx context.Context, videoID string, locations ...string) {
	if len(locations) == 0 {
		return
	}
	if err := u.Storage.Remove(ctx, locations...); err != nil {
		logger.Log.Warn("清除檔案失敗",
			zap.String("video_id", videoID),
			zap.Strings("locations", locations),
			zap.Error(err),
		)
	}
}

func without(locations []string, keep string) []string {
	out := locations[:0]
	for _, l := range locations {
		if l != "" && l != keep {
			out = append(out, l)
		}
	}
	return out
}
