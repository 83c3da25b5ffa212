package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog_media_service/internal/media/api/handlers"
	"catalog_media_service/internal/media/api/router"
	"catalog_media_service/internal/media/app"
	"catalog_media_service/internal/media/repository"
	"catalog_media_service/pkg/config"
	"catalog_media_service/pkg/database"
	"catalog_media_service/pkg/logger"
	"catalog_media_service/pkg/middlewares"
	t_token "catalog_media_service/pkg/token"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

const (
	driverMemory = "memory"
	driverMinIO  = "minio"
	driverPG     = "pg"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.MediaService, config.EnvConfig.MediaServiceLogPath)
	defer logger.Log.Sync()
	if config.IsLocal() {
		logger.Log.SetDebugMode(true)
	}

	cfg, err := config.LoadConfig[config.Media](config.EnvConfig.MediaService, config.EnvConfig.MediaServiceYAMLPath)
	if err != nil {
		logger.Log.Fatal("載入設定檔失敗", zap.Error(err))
	}
	if config.EnvConfig.MediaServicePort != "" {
		cfg.Port = config.EnvConfig.MediaServicePort
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 1. video gateway
	videoRepo := newVideoGateway(cfg)

	// 2. media storage
	storage := newMediaStorage(ctx, cfg)

	// 3. per-video lock
	locker := newVideoLocker(ctx, cfg)

	// 4. media event publisher
	publisher, closePublisher := newMediaEventPublisher(ctx, cfg)
	defer closePublisher()

	// 5. RabbitMQ: 發送轉碼工作 + 消費轉碼結果
	rabbitURL := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.RabbitMQ.User, cfg.RabbitMQ.Password, cfg.RabbitMQ.IP, cfg.RabbitMQ.Port)
	conn, err := database.ConnectRabbitMQWithRetry(database.Connection{
		ConnectStr:    rabbitURL,
		RetryCount:    cfg.RabbitMQ.RetryCount,
		RetryInterval: cfg.RabbitMQ.RetryInterval,
	})
	if err != nil {
		logger.Log.Fatal("RabbitMQ 連線失敗", zap.Error(err))
	}
	defer conn.Close()

	rabbitChannel, err := database.GetRabbitMQChannelWithRetry(conn, cfg.RabbitMQ.RetryCount, cfg.RabbitMQ.RetryInterval)
	if err != nil {
		logger.Log.Fatal("取得 RabbitMQ Channel 失敗", zap.Error(err))
	}
	defer rabbitChannel.Close()

	rabbitRepo := database.NewRabbitRepository(rabbitChannel)
	if err := rabbitRepo.QueueDeclare(cfg.Encoding.JobQueue); err != nil {
		logger.Log.Fatal("Queue Declare failed", zap.String("queue", cfg.Encoding.JobQueue), zap.Error(err))
	}

	// 6. use cases
	updateStatus := app.NewUpdateMediaStatusUseCase(videoRepo, locker, publisher)
	mediaHandler := handlers.NewMediaHandler(
		app.NewUploadMediaUseCase(videoRepo, storage, locker, publisher),
		app.NewGetMediaUseCase(videoRepo, storage),
		app.NewDeleteVideoUseCase(videoRepo, storage, locker),
		app.NewDispatchEncodingUseCase(videoRepo, rabbitRepo, updateStatus, cfg.Encoding.JobQueue),
	)

	consumer := app.NewEncodingStatusConsumer(rabbitRepo, updateStatus, publisher, cfg.Encoding)
	go func() {
		if err := consumer.StartConsumer(ctx); err != nil {
			logger.Log.Error("Consumer 停止", zap.Error(err))
			cancel()
		}
	}()

	// 7. gRPC health
	healthServer, err := database.NewGRPCHealthServer(cfg.IP + ":" + cfg.GRPCHealthPort)
	if err != nil {
		logger.Log.Fatal("gRPC health server 建立失敗", zap.Error(err))
	}
	healthServer.SetServing(config.EnvConfig.MediaService, true)
	go func() {
		if err := healthServer.Serve(); err != nil {
			logger.Log.Error("gRPC health server 停止", zap.Error(err))
		}
	}()
	defer healthServer.Stop()

	// 8. Fiber
	r := fiber.New(fiber.Config{BodyLimit: 1 << 30})
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.MediaServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		logger.Log.Fatal("Failed to open log file", zap.Error(err))
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file, // 將日誌輸出到檔案
	}))
	router.SetupRoutes(r, mediaHandler, newAuthMiddleware(cfg))

	go func() {
		<-ctx.Done()
		healthServer.SetServing(config.EnvConfig.MediaService, false)
		if err := r.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Log.Error("Fiber shutdown failed", zap.Error(err))
		}
	}()

	logger.Log.Info("media service listening", zap.String("port", cfg.Port), zap.String("grpc_health_port", cfg.GRPCHealthPort))
	if err := r.Listen(cfg.IP + ":" + cfg.Port); err != nil {
		logger.Log.Fatal("Server failed to start", zap.Error(err))
	}
}

func newVideoGateway(cfg config.Media) repository.VideoGateway {
	switch cfg.Storage.VideoDriver {
	case driverMemory:
		logger.Log.Warn("video_driver=memory, 資料不會持久化")
		return repository.NewMemoryVideoRepo()
	case "", driverPG:
	default:
		logger.Log.Fatal("未知的 video_driver", zap.String("driver", cfg.Storage.VideoDriver))
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		cfg.PostgreSQL.Host, cfg.PostgreSQL.User, cfg.PostgreSQL.Password, cfg.PostgreSQL.Database, cfg.PostgreSQL.Port)
	db, err := database.NewPGConnection(database.Connection{
		ConnectStr:    dsn,
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to postgreSQL database after retries",
			zap.String("host", cfg.PostgreSQL.Host),
			zap.Error(err),
		)
	}

	// 自動遷移影片資料表
	videoRepo := repository.NewVideoRepo(db)
	if err := videoRepo.AutoMigrate(); err != nil {
		logger.Log.Fatal("資料表遷移失敗", zap.Error(err))
	}
	return videoRepo
}

func newMediaStorage(ctx context.Context, cfg config.Media) repository.MediaStorageGateway {
	switch cfg.Storage.MediaDriver {
	case driverMemory:
		logger.Log.Warn("media_driver=memory, 檔案不會持久化")
		return repository.NewMemoryMediaStorage()
	case "", driverMinIO:
	default:
		logger.Log.Fatal("未知的 media_driver", zap.String("driver", cfg.Storage.MediaDriver))
	}

	endpoint := fmt.Sprintf("%s:%d", cfg.MinIO.Host, cfg.MinIO.Port)
	minioClient, err := database.NewMinIOConnection(ctx, database.MinIOConnection{
		Endpoint:   endpoint,
		User:       cfg.MinIO.User,
		Password:   cfg.MinIO.Password,
		BucketName: cfg.MinIO.BucketName,
		UseSSL:     cfg.MinIO.UseSSL,

		RetryCount:    cfg.MinIO.RetryCount,
		RetryInterval: cfg.MinIO.RetryInterval,
	})
	if err != nil {
		logger.Log.Fatal("Unable to connect to minio after retries", zap.String("address", endpoint), zap.Error(err))
	}
	return repository.NewMinIOMediaStorage(minioClient)
}

func newVideoLocker(ctx context.Context, cfg config.Media) repository.VideoLocker {
	if !cfg.Redis.Enabled {
		return repository.NewLocalVideoLocker()
	}

	masterName, sentinelAddrs := config.GetRedisSetting()
	client, err := database.NewRedisClient(ctx, masterName, sentinelAddrs, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal("Redis 連線失敗", zap.Strings("sentinels", sentinelAddrs), zap.Error(err))
	}
	return repository.NewRedisVideoLocker(client, cfg.Redis.LockTTL)
}

func newMediaEventPublisher(ctx context.Context, cfg config.Media) (repository.MediaEventPublisher, func()) {
	if !cfg.Kafka.Enabled {
		return repository.NewNopMediaEventPublisher(), func() {}
	}

	// 建立 Kafka Writer 使用重試機制
	writer, err := database.NewKafkaWriterWithRetry(ctx, database.KafkaConnection{
		Brokers:       cfg.Kafka.Brokers,
		Topic:         cfg.Kafka.Topic,
		RetryCount:    cfg.Kafka.RetryCount,
		RetryInterval: cfg.Kafka.RetryInterval,
	})
	if err != nil {
		logger.Log.Fatal("Kafka Writer 建立失敗", zap.Error(err))
	}
	return repository.NewKafkaMediaEventPublisher(writer), func() {
		if err := writer.Close(); err != nil {
			logger.Log.Warn("Kafka Writer 關閉失敗", zap.Error(err))
		}
	}
}

func newAuthMiddleware(cfg config.Media) fiber.Handler {
	if !cfg.Auth.Enabled {
		if config.IsProduction() {
			logger.Log.Fatal("production 環境必須啟用 auth")
		}
		logger.Log.Warn("auth 未啟用, 修改類 API 不檢查 token")
		return middlewares.Passthrough()
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Log.Fatal("auth.jwt_secret 未設定")
	}
	manager := t_token.NewManager(cfg.Auth.JWTSecret, config.EnvConfig.MediaService, cfg.Auth.Expiration)
	return middlewares.JWTMiddleware(manager, t_token.RoleAdmin, t_token.RoleService)
}
