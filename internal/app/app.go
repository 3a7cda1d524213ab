package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"aisurvey/internal/cache"
	"aisurvey/internal/config"
	"aisurvey/internal/logger"
	"aisurvey/internal/notify"
	"aisurvey/internal/repository"
	"aisurvey/internal/service"
	"aisurvey/internal/survey"
	"aisurvey/internal/transport/rest"
	"aisurvey/internal/transport/rest/middleware"
	"aisurvey/internal/transport/ws"
)

const pingTimeout = 5 * time.Second

// App holds every long-lived dependency of the survey server
type App struct {
	Config *config.Config

	Mongo *mongo.Client
	Redis *redis.Client

	Store           repository.ResponseStore
	SessionCache    cache.SessionCache
	Progress        cache.ProgressCache
	AuthService     *service.AuthService
	SessionService  *service.SessionService
	ResponseService *service.ResponseService
	WSHub           *ws.Hub
	RateLimiter     *middleware.RateLimiter
}

// New connects the backing stores and wires the services.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	store, mongoClient, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Store = store
	a.Mongo = mongoClient

	rdb, err := ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.Redis = rdb
	a.SessionCache = cache.NewSessionCache(rdb, cfg.Redis.SessionTTL, cfg.Redis.LockTTL)
	a.Progress = cache.NewProgressCache(rdb)

	notifier, err := NewNotifier(cfg.Notify)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	a.AuthService = service.NewAuthService(cfg.Auth)
	a.SessionService = service.NewSessionService(
		survey.NewController(survey.Study()),
		a.SessionCache,
		a.Progress,
		a.Store,
		notifier,
		a.AuthService,
	)
	a.ResponseService = service.NewResponseService(a.Store)

	a.WSHub = ws.NewHub()
	a.SessionService.SetBroadcaster(a.WSHub)
	a.RateLimiter = middleware.NewRateLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)

	return a, nil
}

// Router builds the HTTP handler over the wired services.
func (a *App) Router() http.Handler {
	return rest.NewRouter(&rest.Container{
		AuthService:     a.AuthService,
		SessionService:  a.SessionService,
		ResponseService: a.ResponseService,
		Progress:        a.Progress,
		WSHub:           a.WSHub,
		RateLimiter:     a.RateLimiter,
		CORS:            a.Config.CORS,
	})
}

// Close drains pending notifications, then releases connections.
func (a *App) Close(ctx context.Context) {
	if a.SessionService != nil {
		a.SessionService.Close()
	}
	if a.WSHub != nil {
		a.WSHub.Close()
	}
	if a.RateLimiter != nil {
		a.RateLimiter.Stop()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Log.Warn("failed to close redis", zap.Error(err))
		}
	}
	if a.Mongo != nil {
		if err := a.Mongo.Disconnect(ctx); err != nil {
			logger.Log.Warn("failed to disconnect mongodb", zap.Error(err))
		}
	}
}

// OpenStore opens the response store selected by the storage driver. The
// Mongo client is returned for the caller to disconnect; it is nil for the
// CSV driver.
func OpenStore(ctx context.Context, cfg *config.Config) (repository.ResponseStore, *mongo.Client, error) {
	switch cfg.Storage.Driver {
	case config.StorageMongo:
		client, err := ConnectMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		store := repository.NewMongoStore(client.Database(cfg.Mongo.Database), cfg.Mongo.Collection)
		if err := repository.EnsureIndexes(ctx, store); err != nil {
			client.Disconnect(ctx)
			return nil, nil, fmt.Errorf("failed to create indexes: %w", err)
		}
		logger.Log.Info("responses stored in mongodb",
			zap.String("database", cfg.Mongo.Database),
			zap.String("collection", cfg.Mongo.Collection))
		return store, client, nil
	default:
		logger.Log.Info("responses stored in csv", zap.String("path", cfg.Storage.CSVPath))
		return repository.NewCSVStore(cfg.Storage.CSVPath), nil, nil
	}
}

// ConnectMongo connects and pings MongoDB.
func ConnectMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	logger.Log.Info("connected to mongodb")
	return client, nil
}

// ConnectRedis connects and pings Redis.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	logger.Log.Info("connected to redis", zap.String("addr", cfg.Addr()))
	return rdb, nil
}

// NewNotifier returns the email notifier when SMTP is configured and a
// no-op notifier otherwise.
func NewNotifier(cfg config.NotifyConfig) (notify.Notifier, error) {
	if !cfg.Enabled() {
		logger.Log.Info("submission notifications disabled")
		return notify.NewNop(), nil
	}
	n, err := notify.NewEmailNotifier(cfg)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("submission notifications enabled", zap.String("smtp_host", cfg.Host), zap.Strings("to", cfg.To))
	return n, nil
}
