// Package main runs the classroom coordination HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-webinar/classroom/config"
	"github.com/aura-webinar/classroom/internal/auth"
	"github.com/aura-webinar/classroom/internal/classroom"
	"github.com/aura-webinar/classroom/internal/coordinator"
	"github.com/aura-webinar/classroom/internal/middleware"
	"github.com/aura-webinar/classroom/internal/rooms"
	"github.com/aura-webinar/classroom/internal/store"
	"github.com/aura-webinar/classroom/internal/worker"
	"github.com/aura-webinar/classroom/internal/zego"
	"github.com/aura-webinar/classroom/pkg/database"
	"github.com/aura-webinar/classroom/pkg/queue"
	"github.com/aura-webinar/classroom/pkg/redis"
	"github.com/aura-webinar/classroom/pkg/response"
	"github.com/aura-webinar/classroom/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()

	var pool *pgxpool.Pool
	if cfg.Room.StoreDriver == config.StorePostgres {
		pool, err = database.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger)
		if err != nil {
			logger.Fatal("database", zap.Error(err))
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
	}

	// Redis backs the store or lock when configured, and the archive queue when available.
	var rdb *redis.Client
	if cfg.Room.NeedsRedis() || cfg.Room.ArchiveOnClose {
		rdb, err = redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			if cfg.Room.NeedsRedis() {
				logger.Fatal("redis", zap.Error(err))
			}
			logger.Warn("redis unavailable, room archive disabled", zap.Error(err))
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	var roomStore store.Store
	switch cfg.Room.StoreDriver {
	case config.StorePostgres:
		roomStore = store.NewPostgres(pool)
	case config.StoreRedis:
		roomStore = store.NewRedis(rdb.Client)
	default:
		roomStore = store.NewMemory()
	}

	var locks coordinator.Locker = coordinator.NewLocalLocker()
	if cfg.Room.LockDriver == config.LockRedis {
		locks = coordinator.NewRedisLocker(rdb.Client, cfg.Room.LockTTL, logger)
	}

	limits := classroom.Limits{
		MaxParticipants:   cfg.Room.MaxParticipants,
		MaxPollOptions:    cfg.Room.MaxPollOptions,
		MaxQuestionLength: cfg.Room.MaxQuestionLength,
		MaxNoteLength:     cfg.Room.MaxNoteLength,
	}
	coord := coordinator.New(roomStore, locks, limits, logger)
	sweeper := coordinator.NewSweeper(coord, roomStore, cfg.Room.OrphanTTL, cfg.Room.SweepInterval, logger)

	logger.Info("room coordination configured",
		zap.String("store", cfg.Room.StoreDriver),
		zap.String("lock", cfg.Room.LockDriver),
		zap.Duration("orphan_ttl", cfg.Room.OrphanTTL))

	// Provider moderation mirrors committed mutes, kicks and closes.
	if cfg.Zego.Enabled() {
		coord.OnCommit(zego.NewModerator(cfg.Zego, logger).Hook())
	} else {
		logger.Warn("ZEGOCLOUD not configured; provider tokens and moderation disabled")
	}

	// Archive closed rooms to S3 through the Redis job queue.
	var s3Client *storage.S3
	var archiveProcessor *worker.ArchiveProcessor
	if cfg.Room.ArchiveOnClose && rdb != nil && cfg.AWS.ArchiveBucket != "" {
		s3Client, err = storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			ArchiveBucket:        cfg.AWS.ArchiveBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
			s3Client = nil
		} else {
			jobQueue := queue.NewQueue(rdb.Client, logger)
			coord.OnCommit(worker.EnqueueOnClose(jobQueue, logger))
			archiveProcessor = worker.NewArchiveProcessor(roomStore, s3Client, jobQueue, logger)
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	var archive rooms.ArchiveLinker
	if s3Client != nil {
		archive = s3Client
	}
	roomHandler := rooms.NewHandler(coord, archive, cfg.Room.PollInterval, logger)
	zegoHandler := zego.NewHandler(coord, cfg.Zego, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				response.ServiceUnavailable(c, "database unavailable")
				return
			}
		}
		if rdb != nil && cfg.Room.NeedsRedis() {
			if err := rdb.Healthy(ctx); err != nil {
				response.ServiceUnavailable(c, "redis unavailable")
				return
			}
		}
		response.OK(c, gin.H{"status": "ok"})
	})

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		roomHandler.Register(api)
		api.GET("/rooms/:roomId/provider-token", zegoHandler.GetToken)

		api.POST("/admin/rooms/sweep", middleware.RequireRole(auth.RoleAdmin), rooms.SweepNow(sweeper, logger))
	}

	// Webhooks (no JWT; the handler verifies the provider signature)
	router.POST("/webhooks/zego", zegoHandler.Callback)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background work: orphan sweeper and room archive uploads.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go sweeper.Run(workerCtx)
	if archiveProcessor != nil {
		go archiveProcessor.Run(workerCtx)
		logger.Info("archive worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
