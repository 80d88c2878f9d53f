package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"hemoscan/internal/config"
	"hemoscan/internal/repository"
)

// Stores son los repositorios del backend elegido en config.
type Stores struct {
	Users    repository.UserRepository
	CBC      repository.CBCReportRepository
	Symptoms repository.SymptomRepository
	Pinger   repository.Pinger

	// Pool solo esta presente con el backend postgres.
	Pool  *pgxpool.Pool
	close func(context.Context)
}

// Open conecta con el store configurado. Con postgres aplica las migraciones
// si migrate es true; con mongo asegura los indices.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger, migrate bool) (*Stores, error) {
	switch cfg.Store {
	case config.StorePostgres:
		pool, err := NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		if migrate {
			if err := Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
		}
		users := repository.NewPgUserRepository(pool)
		logger.Info("store ready", zap.String("store", cfg.Store))
		return &Stores{
			Users:    users,
			CBC:      repository.NewPgCBCReportRepository(pool),
			Symptoms: repository.NewPgSymptomRepository(pool),
			Pinger:   users,
			Pool:     pool,
			close:    func(context.Context) { pool.Close() },
		}, nil

	case config.StoreMongo:
		client, err := NewMongoClient(ctx, cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		users := repository.NewMongoUserRepository(client, cfg.MongoDB)
		if err := users.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		logger.Info("store ready", zap.String("store", cfg.Store), zap.String("database", cfg.MongoDB))
		return &Stores{
			Users:    users,
			CBC:      repository.NewMongoCBCReportRepository(client, cfg.MongoDB),
			Symptoms: repository.NewMongoSymptomRepository(client, cfg.MongoDB),
			Pinger:   users,
			close: func(ctx context.Context) {
				if err := client.Disconnect(ctx); err != nil {
					logger.Warn("mongo disconnect failed", zap.Error(err))
				}
			},
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown store %q", config.ErrInvalidConfig, cfg.Store)
	}
}

func (s *Stores) Close(ctx context.Context) {
	if s != nil && s.close != nil {
		s.close(ctx)
	}
}
