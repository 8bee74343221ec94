package repositories

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tempvoice/internal/core/ports"
	"tempvoice/internal/infrastructure/repositories/memory"
	redisrepo "tempvoice/internal/infrastructure/repositories/redis"
	"tempvoice/internal/infrastructure/repositories/sqlite"
	"tempvoice/pkg/config"
)

// RepositoryFactory creates repositories for the configured store backend,
// falling back to memory when the backend is unreachable.
type RepositoryFactory struct {
	backend     string
	redisClient *redis.Client
	db          *gorm.DB
	logger      *zap.SugaredLogger
}

func NewRepositoryFactory(cfg *config.Config, logger *zap.SugaredLogger) (*RepositoryFactory, error) {
	factory := &RepositoryFactory{
		backend: cfg.Store.Backend,
		logger:  logger,
	}

	switch cfg.Store.Backend {
	case config.StoreBackendRedis:
		client, err := redisrepo.NewRedisClient(
			cfg.Store.Redis.Address,
			cfg.Store.Redis.Password,
			cfg.Store.Redis.DB,
			cfg.Store.Redis.PoolSize,
			logger,
		)
		if err != nil {
			logger.Warnw("failed to connect to Redis, falling back to memory repositories",
				"error", err,
			)
			factory.backend = config.StoreBackendMemory
		} else {
			factory.redisClient = client
			logger.Info("using Redis repositories")
		}
	case config.StoreBackendSQLite:
		db, err := sqlite.Open(cfg.Store.SQLite.Path)
		if err != nil {
			logger.Warnw("failed to open SQLite store, falling back to memory repositories",
				"path", cfg.Store.SQLite.Path,
				"error", err,
			)
			factory.backend = config.StoreBackendMemory
		} else {
			factory.db = db
			logger.Infow("using SQLite repositories", "path", cfg.Store.SQLite.Path)
		}
	case config.StoreBackendMemory:
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	if factory.backend == config.StoreBackendMemory {
		logger.Info("using memory repositories")
	}
	return factory, nil
}

func (f *RepositoryFactory) CreateChannelRepository() ports.ChannelRepository {
	switch f.backend {
	case config.StoreBackendRedis:
		return redisrepo.NewRedisChannelRepository(f.redisClient)
	case config.StoreBackendSQLite:
		return sqlite.NewSQLiteChannelRepository(f.db)
	default:
		return memory.NewMemoryChannelRepository()
	}
}

func (f *RepositoryFactory) CreatePermissionRepository() ports.PermissionRepository {
	switch f.backend {
	case config.StoreBackendRedis:
		return redisrepo.NewRedisPermissionRepository(f.redisClient)
	case config.StoreBackendSQLite:
		return sqlite.NewSQLitePermissionRepository(f.db)
	default:
		return memory.NewMemoryPermissionRepository()
	}
}

func (f *RepositoryFactory) CreateEventRepository() ports.EventRepository {
	switch f.backend {
	case config.StoreBackendRedis:
		return redisrepo.NewRedisEventRepository(f.redisClient)
	case config.StoreBackendSQLite:
		return sqlite.NewSQLiteEventRepository(f.db)
	default:
		return memory.NewMemoryEventRepository()
	}
}

// Close releases the backing store connection if one is held.
func (f *RepositoryFactory) Close() error {
	if f.redisClient != nil {
		return redisrepo.CloseRedisClient(f.redisClient)
	}
	if f.db != nil {
		sqlDB, err := f.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

// HealthCheck verifies the backing store is reachable.
func (f *RepositoryFactory) HealthCheck(ctx context.Context) error {
	if f.redisClient != nil {
		return f.redisClient.Ping(ctx).Err()
	}
	if f.db != nil {
		sqlDB, err := f.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
	return nil
}
