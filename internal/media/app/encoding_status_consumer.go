package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"catalog_media_service/internal/media/domain"
	"catalog_media_service/internal/media/repository"
	"catalog_media_service/pkg/config"
	"catalog_media_service/pkg/database"
	"catalog_media_service/pkg/logger"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// EncodingStatusConsumer 消費 encoder 回傳的轉碼結果
type EncodingStatusConsumer struct {
	rabbitChannel database.RabbitRepo
	updateStatus  UpdateMediaStatusUseCase
	publisher     repository.MediaEventPublisher
	queueName     string
	workers       int
	retryDelay    time.Duration
}

// NewEncodingStatusConsumer 建構 EncodingStatusConsumer 實例
func NewEncodingStatusConsumer(rabbitChannel database.RabbitRepo,
	updateStatus UpdateMediaStatusUseCase,
	publisher repository.MediaEventPublisher,
	cfg config.EncodingConfig,
) *EncodingStatusConsumer {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	return &EncodingStatusConsumer{
		rabbitChannel: rabbitChannel,
		updateStatus:  updateStatus,
		publisher:     publisher,
		queueName:     cfg.ResultQueue,
		workers:       workers,
		retryDelay:    cfg.RetryDelay,
	}
}

// Handle 處理一則訊息. 只有基礎設施錯誤會回傳, 讓 broker 重送;
// 格式錯誤, 未知 status 與對不到的 asset 都只記錄
func (c *EncodingStatusConsumer) Handle(ctx context.Context, body []byte) error {
	result, err := domain.DecodeEncoderResult(body)
	if err != nil {
		logger.Log.Error("無法解析 encoder 訊息", zap.ByteString("body", body), zap.Error(err))
		return nil
	}

	switch r := result.(type) {
	case domain.EncoderCompleted:
		return c.handleCompleted(ctx, r)
	case domain.EncoderError:
		logger.Log.Error("encoder 轉碼失敗",
			zap.String("video_id", r.ID),
			zap.String("resource_id", r.Message.ResourceID),
			zap.String("file_path", r.Message.FilePath),
			zap.String("reason", r.Reason),
		)
		publishEvent(ctx, c.publisher, domain.MediaEvent{
			Type:       domain.MediaEventEncodingFailed,
			VideoID:    r.ID,
			ResourceID: r.Message.ResourceID,
			Reason:     r.Reason,
		})
	case domain.EncoderUnknown:
		logger.Log.Warn("未知的 encoder status", zap.String("status", r.Status), zap.ByteString("body", r.Raw))
	}
	return nil
}

func (c *EncodingStatusConsumer) handleCompleted(ctx context.Context, r domain.EncoderCompleted) error {
	err := c.updateStatus.Execute(ctx, domain.UpdateMediaStatusCommand{
		Status:     domain.MediaCompleted,
		VideoID:    r.ID,
		ResourceID: r.Video.ResourceID,
		Folder:     r.Video.EncodedVideoFolder,
		Filename:   r.Video.FilePath,
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrVideoNotFound),
		errors.Is(err, domain.ErrInvalidEncodedLocation),
		errors.Is(err, domain.ErrUnknownMediaType):
		// 重送也不會成功, ack 掉
		logger.Log.Warn("轉碼結果無法套用, 略過",
			zap.String("video_id", r.ID),
			zap.String("resource_id", r.Video.ResourceID),
			zap.Error(err),
		)
		return nil
	default:
		return err
	}
}

// StartConsumer 開始消費訊息, ctx 結束或 channel 關閉時回傳
func (c *EncodingStatusConsumer) StartConsumer(ctx context.Context) error {
	if err := c.rabbitChannel.QueueDeclare(c.queueName); err != nil {
		return fmt.Errorf("宣告 queue[%s] 失敗: %w", c.queueName, err)
	}
	if err := c.rabbitChannel.Qos(c.workers); err != nil {
		return fmt.Errorf("設定 Qos 失敗: %w", err)
	}

	msgs, err := c.rabbitChannel.Consume(c.queueName, "")
	if err != nil {
		return fmt.Errorf("無法開始消費 RabbitMQ 訊息: %w", err)
	}

	logger.Log.Info("Consumer 已啟動，等待轉碼結果訊息...",
		zap.String("queue", c.queueName),
		zap.Int("workers", c.workers),
	)

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			c.work(ctx, worker, msgs)
		}(i)
	}
	wg.Wait()
	return nil
}

func (c *EncodingStatusConsumer) work(ctx context.Context, worker int, msgs <-chan amqp.Delivery) {
	for {
		select {
		case d, ok := <-msgs:
			if !ok {
				logger.Log.Info("RabbitMQ 消費 channel 已關閉", zap.Int("worker", worker))
				return
			}
			c.process(ctx, d)
		case <-ctx.Done():
			logger.Log.Info("Consumer 收到停止訊號", zap.Int("worker", worker))
			return
		}
	}
}

func (c *EncodingStatusConsumer) process(ctx context.Context, d amqp.Delivery) {
	if err := c.Handle(ctx, d.Body); err != nil {
		logger.Log.Errorf("處理轉碼結果失敗, 稍後重送", err, zap.Uint64("delivery_tag", d.DeliveryTag))

		select {
		case <-time.After(c.retryDelay):
		case <-ctx.Done():
		}
		if err := d.Nack(false, true); err != nil {
			logger.Log.Errorf("Nack 訊息失敗", err)
		}
		return
	}

	if err := d.Ack(false); err != nil {
		logger.Log.Errorf("確認訊息失敗", err)
	}
}
