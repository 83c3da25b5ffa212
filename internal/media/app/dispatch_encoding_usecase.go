package app

import (
	"context"
	"encoding/json"
	"fmt"

	"catalog_media_service/internal/media/domain"
	"catalog_media_service/internal/media/repository"
	"catalog_media_service/pkg/database"
	errprocess "catalog_media_service/pkg/err"
	"catalog_media_service/pkg/logger"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// DispatchEncodingUseCase send the raw asset of an audio/video slot to the encoder
type DispatchEncodingUseCase interface {
	Execute(ctx context.Context, videoID, mediaType string) error
}

type dispatchEncodingUseCase struct {
	VideoRepo     repository.VideoGateway
	RabbitChannel database.RabbitRepo
	UpdateStatus  UpdateMediaStatusUseCase
	JobQueue      string
}

// NewDispatchEncodingUseCase 建立 DispatchEncodingUseCase
func NewDispatchEncodingUseCase(videoRepo repository.VideoGateway,
	rabbitChannel database.RabbitRepo,
	updateStatus UpdateMediaStatusUseCase,
	jobQueue string,
) DispatchEncodingUseCase {
	return &dispatchEncodingUseCase{
		VideoRepo:     videoRepo,
		RabbitChannel: rabbitChannel,
		UpdateStatus:  updateStatus,
		JobQueue:      jobQueue,
	}
}

// Execute 發布轉碼工作後將 asset 標記為 PROCESSING, 工作送出後就回傳成功
func (u *dispatchEncodingUseCase) Execute(ctx context.Context, videoID, mediaType string) error {
	video, err := u.VideoRepo.FindByID(ctx, videoID)
	if err != nil {
		return errprocess.Wrap(err, fmt.Sprintf("videoID[%s] 找不到影片", videoID))
	}

	t, err := domain.ParseVideoMediaType(mediaType)
	if err != nil {
		return errprocess.Wrap(err, fmt.Sprintf("videoID[%s] media type 錯誤", videoID))
	}
	if !t.IsAudioVideo() {
		return errprocess.Wrap(domain.ErrUnknownMediaType, fmt.Sprintf("videoID[%s] type[%s] 不是影音 slot", videoID, t))
	}

	media, ok := video.AudioVideo(t)
	if !ok {
		return errprocess.Wrap(domain.ErrMediaNotFound, fmt.Sprintf("videoID[%s] type[%s] 尚未上傳", videoID, t))
	}

	data, err := json.Marshal(domain.EncodeJob{
		VideoID:    video.ID,
		ResourceID: media.ID,
		FilePath:   media.RawLocation,
		MediaType:  t,
	})
	if err != nil {
		return errprocess.Wrap(err, fmt.Sprintf("videoID[%s] Job JSON 序列化失敗", videoID))
	}

	err = u.RabbitChannel.Publish(
		"",         // 預設 exchange
		u.JobQueue, // queue 名稱
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         data,
		},
	)
	if err != nil {
		return errprocess.Wrap(err, fmt.Sprintf("videoID[%s] 發送 RabbitMQ 訊息失敗", videoID))
	}

	logger.Log.Info("轉碼工作已送出",
		zap.String("video_id", video.ID),
		zap.String("resource_id", media.ID),
		zap.String("queue", u.JobQueue),
	)

	// 工作已送出, PROCESSING 只是提示, 失敗時不回傳錯誤避免 client 重送產生重複工作;
	// encoder 回傳 COMPLETED 時會從任何狀態前進
	err = u.UpdateStatus.Execute(ctx, domain.UpdateMediaStatusCommand{
		Status:     domain.MediaProcessing,
		VideoID:    video.ID,
		ResourceID: media.ID,
	})
	if err != nil {
		logger.Log.Warn("標記 PROCESSING 失敗",
			zap.String("video_id", video.ID),
			zap.String("resource_id", media.ID),
			zap.Error(err),
		)
	}
	return nil
}
