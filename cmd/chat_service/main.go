package main

// swag init -g cmd/chat_service/main.go -o ./docs

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat_service/internal/api/handlers"
	apirouter "chat_service/internal/api/router"
	chatapp "chat_service/internal/chat/app"
	"chat_service/internal/chat/presence"
	chatrepo "chat_service/internal/chat/repository"
	chatrouter "chat_service/internal/chat/router"
	memberapp "chat_service/internal/member/app"
	memberdomain "chat_service/internal/member/domain"
	memberrepo "chat_service/internal/member/repository"
	"chat_service/pkg/config"
	"chat_service/pkg/database"
	"chat_service/pkg/logger"
	"chat_service/pkg/middlewares"
	testtool "chat_service/pkg/test_tool"
	"chat_service/pkg/token"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatService, config.EnvConfig.ChatServiceLogPath)
	defer logger.Log.Sync()

	cfg, err := config.LoadConfig[config.Chat](config.EnvConfig.ChatService, config.EnvConfig.ChatServiceYAMLPath)
	if err != nil {
		logger.Log.Fatal("load config failed", zap.Error(err))
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		logger.Log.Fatal("invalid config", zap.Error(err))
	}
	if err := token.Configure(cfg.JWT.Secret, cfg.JWT.Expire); err != nil {
		logger.Log.Warn("jwt secret", zap.Error(err))
	}

	ctx := context.Background()

	// 1. 建立 Mongo 連線 (使用者 + 訊息)
	uri := fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.MongoSQL.User, cfg.MongoSQL.Password, cfg.MongoSQL.Host, cfg.MongoSQL.Port)
	mongo, err := database.NewMongoDB(ctx,
		database.Connection{
			ConnectStr:    uri,
			RetryCount:    cfg.MongoSQL.RetryCount,
			RetryInterval: time.Duration(cfg.MongoSQL.RetryInterval) * time.Second,
		},
		cfg.MongoSQL.Database)
	if err != nil {
		logger.Log.Fatal("Unable to connect to mongoDB database after retries",
			zap.String("host", cfg.MongoSQL.Host),
			zap.Error(err))
	}
	defer mongo.Close(ctx)

	if err := chatrepo.EnsureMessageIndexes(ctx, mongo.Database); err != nil {
		logger.Log.Fatal("ensure message indexes", zap.Error(err))
	}
	if err := memberrepo.EnsureMemberIndexes(ctx, mongo.Database); err != nil {
		logger.Log.Fatal("ensure member indexes", zap.Error(err))
	}

	// 2. 建立 Redis 連線 (session)
	masterName, sentinel := config.GetRedisSetting()
	redisClient, err := database.NewRedisClient(ctx, database.RedisConnection{
		Addr:          cfg.Redis.Addr,
		Password:      cfg.Redis.Password,
		MasterName:    masterName,
		SentinelAddrs: sentinel,
		DB:            cfg.Redis.RedisDB,
	})
	if err != nil {
		logger.Log.Fatal("connect redis failed", zap.Error(err))
	}
	defer redisClient.Close()

	// 3. 建立 MinIO 連線 (圖片)
	assets, err := database.NewMinIOConnection(ctx, database.MinIOConnection{
		Endpoint:      cfg.MinIO.Endpoint,
		PublicURL:     cfg.MinIO.PublicURL,
		User:          cfg.MinIO.User,
		Password:      cfg.MinIO.Password,
		BucketName:    cfg.MinIO.BucketName,
		UseSSL:        cfg.MinIO.UseSSL,
		RetryCount:    cfg.MinIO.RetryCount,
		RetryInterval: time.Duration(cfg.MinIO.RetryInterval) * time.Second,
	})
	if err != nil {
		logger.Log.Fatal("connect minio failed", zap.String("endpoint", cfg.MinIO.Endpoint), zap.Error(err))
	}

	// 4. Kafka 事件 (可關閉)
	var publisher chatrepo.EventPublisher = chatrepo.NopEventPublisher{}
	if cfg.Kafka.Enabled {
		writer, err := database.NewKafkaWriterWithRetry(ctx, database.KafkaConnection{
			Brokers:       cfg.Kafka.Brokers,
			Topic:         cfg.Kafka.Topic,
			RetryCount:    cfg.Kafka.RetryCount,
			RetryInterval: time.Duration(cfg.Kafka.RetryInterval) * time.Second,
		})
		if err != nil {
			logger.Log.Warn("kafka unavailable, delivery events disabled", zap.Error(err))
		} else {
			publisher = chatrepo.NewKafkaEventPublisher(writer)
		}
	}
	defer publisher.Close()

	// 5. 初始化 Repository / UseCase
	memberRepo := memberrepo.NewMemberRepository(mongo.Database)
	msgRepo := chatrepo.NewMongoMessageRepository(mongo.Database)
	sessionRepo := database.NewRedisRepository[memberdomain.MemberSession](redisClient)

	registry := presence.NewRegistry()
	memberUC := memberapp.NewMemberUseCase(memberRepo, cfg.SessionTTL, cfg.JWT.Issuer, sessionRepo, assets)
	messageUC := chatapp.NewMessageUseCase(msgRepo, memberRepo, assets, registry, publisher)

	// 6. 啟動 Fiber
	r := fiber.New(fiber.Config{
		AppName:     config.EnvConfig.ChatService,
		BodyLimit:   cfg.BodyLimit,
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
	})

	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.ChatServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		logger.Log.Fatal("Failed to open access log file", zap.Error(err))
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file, // 将日志输出到文件
	}))

	auth := middlewares.JWTMiddleware(memberUC)
	apirouter.RegisterRoutes(r, auth, handlers.NewMemberHandler(memberUC), handlers.NewMessageHandler(messageUC))
	chatrouter.RegisterRoutes(r, auth, chatapp.NewChatWebsocketHandler(messageUC, registry, memberUC, cfg.PingInterval))

	testtool.StartPprof("")

	go func() {
		port := ":" + cfg.Port
		logger.Log.Info("Chat Service listening", zap.String("port", port))
		if err := r.Listen(port); err != nil {
			logger.Log.Error("fiber stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("shutting down")
	// 先關 websocket, 讓 handler 迴圈結束
	registry.Shutdown()
	if err := r.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Log.Warn("fiber shutdown", zap.Error(err))
	}
}
