package app

import (
	"context"
	"time"

	"catalog_media_service/internal/media/domain"
	"catalog_media_service/internal/media/repository"
	"catalog_media_service/pkg/logger"

	"go.uber.org/zap"
)

// 可在測試中替換
var now = func() time.Time {
	return time.Now().UTC()
}

// publishEvent media event 發送失敗不影響主流程, 只記錄 warn
func publishEvent(ctx context.Context, publisher repository.MediaEventPublisher, event domain.MediaEvent) {
	if publisher == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = now()
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Log.Warn("發送 media event 失敗",
			zap.String("type", string(event.Type)),
			zap.String("video_id", event.VideoID),
			zap.Error(err),
		)
	}
}
