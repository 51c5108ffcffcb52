package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/personnel-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

const candidatesPattern = "candidates:*"

func personKey(id int64) string {
	return fmt.Sprintf("persons:%d", id)
}

func candidatesKey(query string, page, pageSize int) string {
	return fmt.Sprintf("candidates:%d:%d:%s", page, pageSize, strings.Join(strings.Fields(strings.ToUpper(query)), "+"))
}

// CacheService is a read-through cache in front of person reads. A disabled
// service always misses and never writes.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get reports whether key was found and decoded into dest. Backend failures
// are logged and treated as misses.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}
	return err == nil
}

// Set stores the value in cache.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) {
	if !s.Enabled() {
		return
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, s.defaultTTL)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidatePerson drops the cached person and every cached candidate page.
func (s *CacheService) InvalidatePerson(ctx context.Context, id int64) {
	if !s.Enabled() {
		return
	}
	if id > 0 {
		if err := s.repo.Delete(ctx, personKey(id)); err != nil {
			s.logger.Warn("cache invalidate failed", zap.Int64("person_id", id), zap.Error(err))
		}
	}
	s.InvalidateCandidates(ctx)
}

// InvalidateCandidates drops every cached candidate page.
func (s *CacheService) InvalidateCandidates(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.DeleteByPattern(ctx, candidatesPattern); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", candidatesPattern), zap.Error(err))
	}
}
