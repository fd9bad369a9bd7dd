package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/makeasinger/scenegen/internal/client"
	"github.com/makeasinger/scenegen/internal/config"
	"github.com/makeasinger/scenegen/internal/handler"
	"github.com/makeasinger/scenegen/internal/model"
	"github.com/makeasinger/scenegen/internal/service"
	"github.com/makeasinger/scenegen/internal/store"
	"github.com/makeasinger/scenegen/internal/storyboard"
	ws "github.com/makeasinger/scenegen/internal/websocket"
	"github.com/makeasinger/scenegen/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	board, err := storyboard.Load(cfg.Scenes.StoryboardPath)
	if err != nil {
		log.Fatalf("Failed to load storyboard: %v", err)
	}
	log.Printf("Loaded storyboard %q with %d scenes", board.Title, len(board.Scenes))

	// Initialize validator
	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Image generation: remote endpoint when configured, placeholder otherwise
	var images service.ImageGenerator
	remoteImages := client.NewImageAPIClient(&cfg.ImageGen)
	if remoteImages.IsConfigured() {
		images = remoteImages
		log.Printf("Using remote image generation at %s", cfg.ImageGen.RemoteURL)
	} else {
		placeholder, err := service.NewPlaceholderImageService(cfg.ImageGen.Latency, cfg.ImageGen.Pool)
		if err != nil {
			log.Fatalf("Failed to create image service: %v", err)
		}
		images = placeholder
	}

	orchestrator := service.NewSceneOrchestrator(board.Scenes, images, cfg.Scenes.Pacing, hub)

	// Batch records and execution: Redis + asynq when the queue is enabled
	var (
		batchStore  store.BatchStore = store.NewMemoryBatchStore()
		asynqClient *asynq.Client
		redisOpt    = asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}
		redisUp bool
	)
	if cfg.Queue.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Printf("Warning: Redis not available: %v", err)
		} else {
			redisUp = true
		}
		cancel()

		batchStore = store.NewRedisBatchStore(redisClient)
		asynqClient = asynq.NewClient(redisOpt)
		defer asynqClient.Close()
	}

	batchService := service.NewBatchService(batchStore, orchestrator, asynqClient, hub)

	// Initialize handlers
	imageHandler := handler.NewImageHandler(images, validate)
	sceneHandler := handler.NewSceneHandler(orchestrator, batchService)
	batchHandler := handler.NewBatchHandler(batchService)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if cfg.Server.LogLevel == "debug" {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${body}\n"
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"queue":        cfg.Queue.Enabled,
				"redis":        redisUp,
				"remoteImages": remoteImages.IsConfigured(),
			},
		})
	})

	// API routes
	api := app.Group("/api")
	api.Post("/generate-image", imageHandler.Generate)

	scenes := api.Group("/scenes")
	scenes.Get("/", sceneHandler.List)
	scenes.Post("/generate", sceneHandler.GenerateAll)
	scenes.Get("/:id", sceneHandler.Get)
	scenes.Post("/:id/generate", sceneHandler.Generate)

	api.Get("/batches/:batchId", batchHandler.Status)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/scenes", websocket.New(func(c *websocket.Conn) {
		hub.HandleConnection(c, ws.ScenesTopic, model.WSScenesMessage{
			Type:  model.WSMessageTypeScenes,
			Board: orchestrator.Board(),
		})
	}))

	app.Get("/ws/batches/:batchId", websocket.New(func(c *websocket.Conn) {
		batchID := c.Params("batchId")
		var initial interface{}
		if batch, err := batchService.GetStatus(context.Background(), batchID); err == nil {
			initial = model.WSProgressMessage{
				Type:        model.WSMessageTypeProgress,
				BatchID:     batch.ID,
				Progress:    batch.Progress,
				Status:      batch.Status,
				CurrentStep: batch.CurrentStep,
			}
		}
		hub.HandleConnection(c, batchID, initial)
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	// Start Asynq worker server
	if cfg.Queue.Enabled {
		srv := newWorkerServer(cfg, redisOpt)
		mux := asynq.NewServeMux()
		mux.HandleFunc(service.TaskTypeGenerateAll, worker.NewBatchWorker(batchService).ProcessTask)

		if err := srv.Start(mux); err != nil {
			log.Fatalf("Asynq worker error: %v", err)
		}
		g.Go(func() error {
			<-gctx.Done()
			srv.Shutdown()
			return nil
		})
	}

	// Start server
	g.Go(func() error {
		addr := ":" + cfg.Server.Port
		log.Printf("Server starting on %s", addr)
		return app.Listen(addr)
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Server error: %v", err)
		os.Exit(1)
	}
}

func newWorkerServer(cfg *config.Config, redisOpt asynq.RedisClientOpt) *asynq.Server {
	return asynq.NewServer(redisOpt, asynq.Config{
		// Batches run one at a time against a single scene board.
		Concurrency: 1,
		Queues: map[string]int{
			service.QueueScenes: 1,
		},
		LogLevel: asynqLogLevel(cfg.Server.LogLevel),
	})
}

func asynqLogLevel(level string) asynq.LogLevel {
	switch level {
	case "debug":
		return asynq.DebugLevel
	case "warn":
		return asynq.WarnLevel
	case "error":
		return asynq.ErrorLevel
	default:
		return asynq.InfoLevel
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}
