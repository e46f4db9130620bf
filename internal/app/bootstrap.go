package app

import (
	"context"
	"log"
	"time"

	"github.com/YodaWagyu/everything-switching/config"
	"github.com/YodaWagyu/everything-switching/internal/domain/repository"
	"github.com/YodaWagyu/everything-switching/internal/domain/service"
	"github.com/YodaWagyu/everything-switching/internal/domain/useCases"
	ws "github.com/YodaWagyu/everything-switching/internal/handlers/websocket"
	redisrepo "github.com/YodaWagyu/everything-switching/internal/infrastructure/cache"
	"github.com/YodaWagyu/everything-switching/internal/infrastructure/narrate"
	"github.com/YodaWagyu/everything-switching/internal/infrastructure/queue"
	"github.com/YodaWagyu/everything-switching/internal/infrastructure/tracking"
	"github.com/YodaWagyu/everything-switching/internal/infrastructure/warehouse"
	"github.com/YodaWagyu/everything-switching/pkg/utils"
)

// Processor defines the common interface for background job processors
type Processor interface {
	Run(ctx context.Context) error
}

// AppContext holds all app dependencies
type AppContext struct {
	Config      *config.Config
	Analyzer    *service.AnalysisService
	Fetcher     repository.PeriodFetcher
	Tracker     *service.UsageTracker
	Broadcaster *ws.WebSocketBroadcaster
	Narrator    useCases.Narrator // nil without an API key
	Processor   Processor
	JobCh       chan *AnalysisJob

	cache      *redisrepo.RedisRepository
	usageStore repository.UsageStore
	usageSink  repository.UsageSink
	warehouse  *warehouse.ClickHouseFetcher
}

// NewApp initializes the app context with all dependencies. Optional
// backends (Redis, ClickHouse, Kafka, the narration API) degrade to nil or
// to the mock source instead of failing startup.
func NewApp(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	app := &AppContext{Config: cfg}
	log.Println("Configuration loaded")

	// Result cache (Redis)
	var resultCache repository.ResultCache
	redisRepo := redisrepo.NewRedisRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, time.Duration(cfg.CacheTTL)*time.Second)
	if err := redisRepo.Ping(ctx); err != nil {
		log.Printf("Warning: Redis unavailable, running without result cache: %v", err)
	} else {
		resultCache = redisRepo
		app.cache = redisRepo
		log.Println("Redis result cache initialized")
	}

	// Period fetcher (ClickHouse, mock fallback)
	if cfg.UseMockData {
		app.Fetcher = utils.NewMockPeriodSource()
		log.Println("Mock data mode enabled, using generated periods")
	} else {
		chFetcher, err := warehouse.NewClickHouseFetcher(warehouse.ClickHouseConfig{
			Addr:     cfg.ClickhouseAddr,
			Database: cfg.ClickhouseDatabase,
			Username: cfg.ClickhouseUsername,
			Password: cfg.ClickhousePassword,
			Timeout:  cfg.ClickhouseTimeout,
		})
		if err != nil {
			log.Printf("Warning: Failed to connect to ClickHouse: %v. Falling back to mock periods.", err)
			app.Fetcher = utils.NewMockPeriodSource()
		} else {
			app.warehouse = chFetcher
			app.Fetcher = chFetcher
			log.Println("ClickHouse warehouse initialized")
		}
	}

	app.Analyzer = service.NewAnalysisService(app.Fetcher, resultCache)
	log.Println("Analysis service initialized")

	// Usage tracking (SQLite store + optional Kafka sink)
	store, err := tracking.NewSQLiteStore(cfg.TrackingDBPath)
	if err != nil {
		log.Printf("Warning: usage tracking disabled: %v", err)
	} else {
		app.usageStore = store
		if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic != "" {
			sink := queue.NewKafkaUsageSink(queue.KafkaConfig{
				Brokers: cfg.KafkaBrokers,
				Topic:   cfg.KafkaTopic,
			})
			app.usageSink = sink
			log.Println("Kafka usage-event sink initialized")
		}
		log.Println("Usage tracking initialized")
	}
	app.Tracker = service.NewUsageTracker(app.usageStore, app.usageSink)

	// Narration
	if cfg.OpenAIAPIKey != "" {
		app.Narrator = narrate.NewOpenAINarrator(narrate.Config{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.OpenAIModel,
			Temperature: cfg.OpenAITemperature,
			MaxTokens:   cfg.OpenAIMaxTokens,
		})
		log.Println("Narrator initialized")
	}

	// Broadcaster and async job processing
	app.Broadcaster = ws.NewWebSocketBroadcaster()
	app.JobCh = make(chan *AnalysisJob, cfg.RequestBufferSize)
	app.Processor = NewAnalysisProcessor(app.JobCh, app.Analyzer, app.Broadcaster)
	log.Println("Analysis processor initialized")

	return app, nil
}

// Cleanup performs graceful shutdown of all components
func (a *AppContext) Cleanup(ctx context.Context) {
	if a.usageSink != nil {
		log.Println("Closing Kafka usage sink...")
		if err := a.usageSink.Close(); err != nil {
			log.Printf("Error closing Kafka usage sink: %v", err)
		}
	}
	if a.usageStore != nil {
		log.Println("Closing usage store...")
		if err := a.usageStore.Close(); err != nil {
			log.Printf("Error closing usage store: %v", err)
		}
	}
	if a.cache != nil {
		log.Println("Closing Redis client...")
		if err := a.cache.Close(); err != nil {
			log.Printf("Error closing Redis client: %v", err)
		}
	}
	if a.warehouse != nil {
		log.Println("Closing ClickHouse connection...")
		if err := a.warehouse.Close(); err != nil {
			log.Printf("Error closing ClickHouse connection: %v", err)
		}
	}
	// JobCh stays open: the processor exits on context cancel, and an
	// in-flight async request may still be sending when cleanup runs.
	log.Println("All resources cleaned up")
}
