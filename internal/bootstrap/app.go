package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ragchat/internal/ai"
	"ragchat/internal/app"
	"ragchat/internal/cache"
	"ragchat/internal/config"
	"ragchat/internal/model"
	"ragchat/internal/pkg/chunker"
	mysqlClient "ragchat/internal/platform/mysql"
	rabbitmqClient "ragchat/internal/platform/rabbitmq"
	redisClient "ragchat/internal/platform/redis"
	"ragchat/internal/repository"
	"ragchat/internal/worker"
)

// App holds every long-lived resource and wired service. Handlers receive
// the services they need from here; nothing reaches for globals.
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	MySQL      *gorm.DB
	Redis      *redis.Client
	MQConn     *amqp.Connection
	TurnWorker *worker.TurnPersistWorker

	AuthService       *app.AuthService
	ContentService    *app.ContentService
	SectionService    *app.SectionService
	AskService        *app.AskService
	TranscriptService *app.TranscriptRecorder
	Blacklist         app.TokenBlacklist

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	logger, err := newLogger(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.User{},
		&model.File{},
		&model.Document{},
		&model.Section{},
		&model.Message{},
		&model.DeletionIntent{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	fileRepo := repository.NewFileRepository(mysqlDB)
	documentRepo := repository.NewDocumentRepository(mysqlDB)
	sectionRepo := repository.NewSectionRepository(mysqlDB)
	messageRepo := repository.NewMessageRepository(mysqlDB)
	userRepo := repository.NewUserRepository(mysqlDB)
	intentRepo := repository.NewIntentRepository(mysqlDB)

	turnWorker := worker.NewTurnPersistWorker(mqConn, messageRepo, cfg.RabbitMQ.TurnPersistQueue, logger)
	if err := turnWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start turn worker failed: %w", err)
	}

	aiClient := ai.NewClient(ai.Config{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
	})

	blacklist := cache.NewTokenBlacklist(redisCli)
	transcriptCache := cache.NewTranscriptCache(redisCli, time.Duration(cfg.Redis.TranscriptTTLSeconds)*time.Second)
	turnPublisher := rabbitmqClient.NewTurnPublisher(mqConn, cfg.RabbitMQ.TurnPersistQueue)

	authService := app.NewAuthService(
		userRepo,
		blacklist,
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
	)

	contentService := app.NewContentService(
		fileRepo,
		documentRepo,
		intentRepo,
		aiClient,
		chunker.New(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap),
		cfg.LLM.EmbeddingModel,
		logger,
	)
	if err := contentService.ReconcileDeletions(); err != nil {
		logger.Warn("deletion reconciliation failed at startup", zap.Error(err))
	}

	retrievalService := app.NewRetrievalService(
		documentRepo,
		aiClient,
		cfg.LLM.EmbeddingModel,
		cfg.Retrieval.Certainty,
		cfg.Retrieval.TopK,
	)
	answerService := app.NewAnswerService(aiClient, cfg.LLM.ChatModel, cfg.LLM.Language, cfg.LLM.Temperature, cfg.LLM.MaxTokens)
	transcriptService := app.NewTranscriptRecorder(turnPublisher, messageRepo, transcriptCache, logger)
	askService := app.NewAskService(retrievalService, answerService, transcriptService, logger)

	summarizer := app.NewTitleSummarizer(aiClient, cfg.LLM.SummaryModel)
	sectionService := app.NewSectionService(sectionRepo, messageRepo, summarizer, logger)

	return &App{
		Config:            cfg,
		Logger:            logger,
		MySQL:             mysqlDB,
		Redis:             redisCli,
		MQConn:            mqConn,
		TurnWorker:        turnWorker,
		AuthService:       authService,
		ContentService:    contentService,
		SectionService:    sectionService,
		AskService:        askService,
		TranscriptService: transcriptService,
		Blacklist:         blacklist,
		StartedAt:         time.Now(),
	}, nil
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.TurnWorker != nil {
		a.TurnWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return closeErr
}
