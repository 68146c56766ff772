package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/cognitive-agent/backend/internal/api/handlers"
	"github.com/cognitive-agent/backend/internal/compiler"
	"github.com/cognitive-agent/backend/internal/kg/neo4j"
	"github.com/cognitive-agent/backend/internal/llm"
	"github.com/cognitive-agent/backend/internal/loop"
	"github.com/cognitive-agent/backend/internal/metrics"
	"github.com/cognitive-agent/backend/internal/middleware/ratelimit"
	"github.com/cognitive-agent/backend/internal/middleware/security"
	mwvalidation "github.com/cognitive-agent/backend/internal/middleware/validation"
	"github.com/cognitive-agent/backend/internal/source"
	"github.com/cognitive-agent/backend/internal/storage/sqlite"
	"github.com/cognitive-agent/backend/internal/validation"
	"github.com/cognitive-agent/backend/internal/vector/milvus"
	"github.com/cognitive-agent/backend/pkg/config"
	appLogger "github.com/cognitive-agent/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Cognitive Agent API Server")

	metrics.Init()

	registry, err := source.NewRegistry(cfg.Sources)
	if err != nil {
		appLogger.Fatal("Failed to build source registry", zap.Error(err))
	}
	limiter := source.NewLimiter(cfg.Sources.WindowRequests,
		time.Duration(cfg.Sources.WindowDurationSec)*time.Second)
	sourceClient := source.NewClient(registry, limiter,
		time.Duration(cfg.Sources.TimeoutSec)*time.Second, cfg.Sources.MaxResults)

	var cache validation.Cache
	if cfg.Redis.Enabled {
		redisCache, err := validation.NewRedisCache(cfg.Redis.Host, cfg.Redis.Port,
			cfg.Redis.Password, cfg.Redis.DB,
			time.Duration(cfg.Validation.CacheTTLSec)*time.Second)
		if err != nil {
			appLogger.Fatal("Failed to create redis cache", zap.Error(err))
		}
		defer redisCache.Close()
		cache = redisCache
	} else {
		cache = validation.NewMemoryCache(time.Duration(cfg.Validation.CacheTTLSec) * time.Second)
	}
	scorer := validation.NewScorer(cache, cfg.Validation.MaxRequests)

	comp := compiler.New(compiler.Config{
		MaxConcepts:         cfg.Compiler.MaxConcepts,
		EmbeddingDimensions: cfg.Compiler.EmbeddingDimensions,
		SimilarityThreshold: cfg.Compiler.SimilarityThreshold,
		GraphMaxEntries:     cfg.Compiler.GraphMaxEntries,
		QueryDepth:          cfg.Compiler.QueryDepth,
	})

	orchestrator := loop.NewOrchestrator(sourceClient, scorer, comp, loop.Config{
		MaxIterations:        cfg.Loop.MaxIterations,
		ConvergenceThreshold: cfg.Loop.ConvergenceThreshold,
		CredibilityThreshold: cfg.Validation.CredibilityThreshold,
		HistoryLimit:         cfg.Loop.HistoryLimit,
		MetricsRate:          cfg.Loop.MetricsRate,
	})

	var store handlers.HistoryStore
	if cfg.SQLite.Enabled {
		sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
		if err != nil {
			appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
		}
		defer sqliteClient.Close()

		if err := sqliteClient.InitSchema(); err != nil {
			appLogger.Fatal("Failed to initialize schema", zap.Error(err))
		}

		orchestrator.SetRecorder(sqliteClient)
		store = sqliteClient
	}

	if cfg.Neo4j.Enabled {
		neo4jClient, err := neo4j.NewClient(cfg.Neo4j.URI, cfg.Neo4j.Username,
			cfg.Neo4j.Password, cfg.Neo4j.Database)
		if err != nil {
			appLogger.Fatal("Failed to create Neo4j client", zap.Error(err))
		}
		defer neo4jClient.Close(context.Background())
		orchestrator.SetMirror(neo4jClient)
	}

	if cfg.Vector.Enabled {
		milvusClient, err := milvus.NewClient(cfg.Vector.Endpoint,
			cfg.Vector.CollectionName, cfg.Compiler.EmbeddingDimensions)
		if err != nil {
			appLogger.Fatal("Failed to create Milvus client", zap.Error(err))
		}
		defer milvusClient.Close()

		if err := milvusClient.CreateCollection(context.Background()); err != nil {
			appLogger.Fatal("Failed to create collection", zap.Error(err))
		}
		orchestrator.SetIndex(milvusClient)
	}

	if cfg.LLM.Enabled {
		orchestrator.SetSummarizer(llm.NewClient(cfg.LLM.APIKey, cfg.LLM.Model,
			cfg.LLM.Temperature, cfg.LLM.MaxTokens))
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-ID",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))

	apiLimiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: 60,
		Logger:               appLogger.GetLogger(),
	})
	defer apiLimiter.Stop()
	app.Use(apiLimiter.Middleware())
	app.Use(mwvalidation.Middleware(mwvalidation.Config{Logger: appLogger.GetLogger()}))

	loopHandler := handlers.NewLoopHandler(orchestrator, store)
	knowledgeHandler := handlers.NewKnowledgeHandler(comp)
	wsHandler := handlers.NewWebSocketHandler(orchestrator)

	api := app.Group("/api/v1")
	api.Post("/loop", loopHandler.HandleLoop)
	api.Get("/loop/history", loopHandler.GetHistory)
	api.Get("/knowledge", knowledgeHandler.HandleQuery)
	api.Get("/stats", loopHandler.GetStats)
	api.Get("/health", loopHandler.HandleHealth)

	app.Get("/metrics", metrics.MetricsHandler())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/loop", websocket.New(wsHandler.HandleConnection))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
