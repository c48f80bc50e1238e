package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/school-quiz-api/internal/handler"
	"github.com/yourusername/school-quiz-api/internal/middleware"
	"github.com/yourusername/school-quiz-api/internal/domain/repository"
	pgRepo "github.com/yourusername/school-quiz-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/school-quiz-api/internal/repository/redis"
	"github.com/yourusername/school-quiz-api/internal/service"
	ws "github.com/yourusername/school-quiz-api/internal/websocket"
	"github.com/yourusername/school-quiz-api/pkg/auth"
	"github.com/yourusername/school-quiz-api/pkg/database"
	"github.com/yourusername/school-quiz-api/pkg/messaging"
	"github.com/yourusername/school-quiz-api/pkg/storage"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP API и канал уведомлений",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath)
		},
	}
}

func runServer(parent context.Context, configPath string) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(db)
	if err := migrateUp(cfg, db); err != nil {
		return err
	}

	// Redis опционален: без него нет кеша комнат, rate limiting и кластеризации WebSocket
	var (
		redisClient redis.UniversalClient
		cacheRepo   repository.CacheRepository
		pubSub      ws.PubSubProvider
	)
	if cfg.Redis.Enabled {
		redisClient, err = database.NewUniversalRedisClient(cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		log.Println("Successfully connected to Redis")

		cache, err := redisRepo.NewCacheRepo(redisClient)
		if err != nil {
			return err
		}
		cacheRepo = cache

		if cfg.WebSocket.Cluster.Enabled {
			provider, err := ws.NewRedisPubSub(redisClient)
			if err != nil {
				log.Printf("Ошибка при создании Redis PubSub провайдера: %v. Кластеризация WS будет неактивна.", err)
			} else {
				pubSub = provider
				defer provider.Close()
			}
		}
	}

	store, err := storage.New(parent, cfg.Storage)
	if err != nil {
		return err
	}

	var sessionEvents service.SessionEventPublisher
	if cfg.RabbitMQ.Enabled {
		mq, err := messaging.NewRabbitMQClient(&cfg.RabbitMQ)
		if err != nil {
			return err
		}
		defer mq.Close()
		if _, err := mq.DeclareQueue(cfg.RabbitMQ.Queue); err != nil {
			return err
		}
		sessionEvents = service.NewAMQPSessionPublisher(mq, cfg.RabbitMQ.Queue)
		log.Printf("События сессий публикуются в очередь %s", cfg.RabbitMQ.Queue)
	}

	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationMinutes, cfg.JWT.WSTicketExpirySec)
	if err != nil {
		return err
	}

	wsManager := ws.NewManager(ws.NewHub(), pubSub, cfg.WebSocket.Cluster)
	defer wsManager.Close()

	userRepo := pgRepo.NewUserRepo(db)
	roomRepo := pgRepo.NewRoomRepo(db)
	puzzleRepo := pgRepo.NewPuzzleRepo(db)
	sessionRepo := pgRepo.NewSessionRepo(db)
	resultRepo := pgRepo.NewResultRepo(db)
	assignmentRepo := pgRepo.NewAssignmentRepo(db)

	offline := service.NewOfflineRooms()
	authService := service.NewAuthService(userRepo, jwtService)
	userService := service.NewUserService(userRepo)
	roomService := service.NewRoomService(roomRepo, puzzleRepo, resultRepo, cacheRepo, offline, wsManager,
		time.Duration(cfg.RoomCache.TTLSec)*time.Second)
	sessionService := service.NewSessionService(db, roomRepo, puzzleRepo, sessionRepo, resultRepo, offline,
		sessionEvents, wsManager, cfg.Session.AbandonGrace())
	assignmentService := service.NewAssignmentService(roomService, userRepo, assignmentRepo)
	h5pService := service.NewH5PService(roomService, puzzleRepo)
	importService := service.NewQuizImportService(store, offline, wsManager)

	if n, err := importService.LoadAll(parent); err != nil {
		log.Printf("Не удалось загрузить файловые комнаты: %v", err)
	} else {
		log.Printf("Загружено файловых комнат: %d", n)
	}

	var trustedProxies []string
	if gin.Mode() != gin.ReleaseMode {
		trustedProxies = []string{"127.0.0.1", "::1"}
	}

	router := (&handler.Router{
		Auth:           handler.NewAuthHandler(authService),
		Game:           handler.NewGameHandler(sessionService, roomService),
		Rooms:          handler.NewRoomHandler(roomService),
		Users:          handler.NewUserHandler(userService),
		Quizzes:        handler.NewQuizHandler(importService),
		Assignments:    handler.NewAssignmentHandler(assignmentService),
		H5P:            handler.NewH5PHandler(h5pService),
		WS:             handler.NewWSHandler(wsManager, authService, assignmentService, cfg.WebSocket.SendBuffer, cfg.Server.AllowedOrigins),
		AuthMiddleware: middleware.NewAuthMiddleware(authService),
		RateLimiter:    middleware.NewRateLimiter(redisClient),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		TrustedProxies: trustedProxies,
	}).Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return wsManager.RunRelay(gctx)
	})
	g.Go(func() error {
		return sessionService.RunSweeper(gctx, cfg.Session.SweepInterval())
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Println("Server exited properly")
	return nil
}
