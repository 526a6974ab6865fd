package main

import (
	"context"
	"log"
	"net/http"

	cachestore "github.com/newsnest/nest-agent/internal/adapters/cache"
	httpadapter "github.com/newsnest/nest-agent/internal/adapters/http"
	"github.com/newsnest/nest-agent/internal/adapters/llm"
	"github.com/newsnest/nest-agent/internal/adapters/news"
	"github.com/newsnest/nest-agent/internal/adapters/sports"
	memstore "github.com/newsnest/nest-agent/internal/adapters/storage/memory"
	mongostore "github.com/newsnest/nest-agent/internal/adapters/storage/mongo"
	"github.com/newsnest/nest-agent/internal/app/chat"
	"github.com/newsnest/nest-agent/internal/app/enrichment"
	"github.com/newsnest/nest-agent/internal/app/moderation"
	"github.com/newsnest/nest-agent/internal/app/postprocess"
	"github.com/newsnest/nest-agent/internal/app/profiles"
	"github.com/newsnest/nest-agent/internal/app/routing"
	"github.com/newsnest/nest-agent/internal/app/sessions"
	"github.com/newsnest/nest-agent/internal/config"
	"github.com/newsnest/nest-agent/internal/domain"
	"github.com/newsnest/nest-agent/internal/observability"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()
	logger := observability.Logger()

	// Completion client: mock or Gemini by ENV (useful for dev)
	var (
		completion domain.CompletionClient
		err        error
	)
	if cfg.UseMockLLM {
		logger.Info("using mock completion client")
		completion = llm.NewMockClient()
	} else {
		if cfg.GeminiAPIKey == "" {
			log.Fatal("GEMINI_API_KEY is required unless NEST_USE_MOCK_LLM=1")
		}
		completion, err = llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.ModelName)
		if err != nil {
			log.Fatalf("error initializing Gemini client: %v", err)
		}
		logger.Info("using Gemini completion client", "model", cfg.ModelName)
	}

	// Storage: Mongo or Memory
	var (
		sessionStore domain.SessionStore
		userStore    domain.UserStore
	)
	switch cfg.StorageBackend {
	case "mongo":
		logger.Info("using mongo storage", "db", cfg.MongoDBName)
		store, err := mongostore.NewStore(ctx, cfg.MongoURL, cfg.MongoDBName)
		if err != nil {
			log.Fatalf("error initializing mongo store: %v", err)
		}
		defer store.Close(context.Background())

		// 1 store, implements 2 interfaces
		sessionStore = store
		userStore = store
	default:
		logger.Info("using in-memory storage")
		store := memstore.NewStore()
		sessionStore = store
		userStore = store
	}

	// Visualization cache: Redis or in-process
	var vizCache domain.Cache
	switch cfg.CacheBackend {
	case "redis":
		logger.Info("using redis visualization cache")
		vizCache, err = cachestore.NewRedisCacheFromURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("error initializing redis cache: %v", err)
		}
	default:
		logger.Info("using in-memory visualization cache")
		vizCache = cachestore.NewMemoryCache(0)
	}

	var newsSource domain.NewsSource
	if cfg.NewsAPIKey != "" {
		newsSource = news.NewClient(cfg.NewsAPIKey)
	} else {
		logger.Warn("no news API key configured, news enrichment disabled")
	}
	sportsSource := sports.NewClient(cfg.SportsDBKey)

	chatSvc := chat.NewService(
		completion,
		moderation.New(completion),
		routing.NewRouter(completion),
		enrichment.NewNewsProbe(newsSource, completion),
		enrichment.NewVisualizationProbe(completion, vizCache, cfg.VizCacheTTL),
		enrichment.NewSportsProbe(sportsSource),
		postprocess.NewHeadlineClassifier(completion),
	)
	sessionSvc := sessions.NewService(sessionStore, completion)
	profileSvc := profiles.NewService(userStore)

	handler := httpadapter.NewServer(chatSvc, sessionSvc, profileSvc, newsSource, logger)

	addr := ":" + cfg.Port
	logger.Info("News Nest API listening", "addr", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}
