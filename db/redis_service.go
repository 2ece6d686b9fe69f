package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"gradestats-server-go/config"
	"gradestats-server-go/models"
)

const (
	reportPrefix = "report:" // Hash: report:{id} -> file name, created time, xlsx, pdf
	fieldName    = "fileName"
	fieldCreated = "createdAt"
)

// RedisService stores report artifacts in Redis with a TTL
type RedisService struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisService creates a new RedisService instance
func NewRedisService(client *redis.Client, ttl time.Duration) *RedisService {
	return &RedisService{Client: client, TTL: ttl}
}

// Helper to generate report key
func getReportKey(id string) string {
	return reportPrefix + id
}

// Save stores both artifacts of a run in one hash and sets its expiry
func (s *RedisService) Save(ctx context.Context, a *models.Artifacts) error {
	if a == nil || a.ID == "" {
		return errors.New("artifacts must have an ID")
	}
	key := getReportKey(a.ID)

	pipe := s.Client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		fieldName:            a.FileName,
		fieldCreated:         a.CreatedAt.Format(time.RFC3339),
		string(KindWorkbook): a.Workbook,
		string(KindDocument): a.Document,
	})
	pipe.Expire(ctx, key, s.TTL)

	if _, err := pipe.Exec(ctx); err != nil {
		slog.ErrorContext(ctx, "storing report", slog.String("report_id", a.ID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to store report in Redis: %w", err)
	}
	slog.DebugContext(ctx, "report stored",
		slog.String("report_id", a.ID),
		slog.Int("xlsx_bytes", len(a.Workbook)),
		slog.Int("pdf_bytes", len(a.Document)))
	return nil
}

// Load returns one artifact of a stored run and the uploaded file's name
func (s *RedisService) Load(ctx context.Context, id string, kind ArtifactKind) ([]byte, string, error) {
	vals, err := s.Client.HMGet(ctx, getReportKey(id), string(kind), fieldName).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, "", ErrReportNotFound
		}
		return nil, "", fmt.Errorf("failed to load report from Redis: %w", err)
	}
	data, ok := vals[0].(string)
	if !ok {
		// HMGET returns nil for every field of a missing key
		return nil, "", ErrReportNotFound
	}
	name, _ := vals[1].(string)
	return []byte(data), name, nil
}

// Ping checks the connection
func (s *RedisService) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

// --- Utility ---

// InitializeRedisClient creates and tests a Redis client connection
func InitializeRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", cfg.Addr, err)
	}

	slog.Info("connected to Redis", slog.String("addr", cfg.Addr), slog.Int("db", cfg.DB))
	return rdb, nil
}

// NewReportStore returns a Redis-backed store when enabled, otherwise an
// in-process one
func NewReportStore(ctx context.Context, cfg config.RedisConfig) (ReportStore, func() error, error) {
	if !cfg.Enabled {
		slog.Info("Redis disabled, keeping reports in memory", slog.Duration("ttl", cfg.ReportTTL))
		return NewMemoryStore(cfg.ReportTTL), func() error { return nil }, nil
	}
	client, err := InitializeRedisClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return NewRedisService(client, cfg.ReportTTL), client.Close, nil
}
