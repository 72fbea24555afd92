package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"ecodescarte-user-service/internal/application/common"
	"ecodescarte-user-service/internal/config"
	"github.com/go-redis/redis/v8"
)

const profileKeyPrefix = "profile:"

// RedisService caches rendered profiles. A nil client means Redis is
// disabled: writes are dropped and every read is a miss.
type RedisService struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

func NewRedisService(ctx context.Context, cfg config.RedisConfig, log *slog.Logger) *RedisService {
	if !cfg.Enabled() {
		log.Info("redis not configured, profile cache disabled")
		return &RedisService{ttl: cfg.ProfileTTL, log: log}
	}

	var opt *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			log.Warn("invalid REDIS_URL, profile cache disabled", "error", err)
			return &RedisService{ttl: cfg.ProfileTTL, log: log}
		}
		opt = parsed
	} else {
		opt = &redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis connection failed, profile cache disabled", "addr", opt.Addr, "error", err)
		_ = client.Close()
		return &RedisService{ttl: cfg.ProfileTTL, log: log}
	}

	log.Info("connected to redis", "addr", opt.Addr)
	return NewRedisServiceWithClient(client, cfg.ProfileTTL, log)
}

func NewRedisServiceWithClient(client *redis.Client, ttl time.Duration, log *slog.Logger) *RedisService {
	return &RedisService{client: client, ttl: ttl, log: log}
}

func (r *RedisService) Enabled() bool {
	return r.client != nil
}

// GetProfile returns nil, nil on a miss.
func (r *RedisService) GetProfile(ctx context.Context, userID uint) (*common.UserResult, error) {
	if r.client == nil {
		return nil, nil // Redis disabled
	}
	data, err := r.client.Get(ctx, profileKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var user common.UserResult
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *RedisService) SetProfile(ctx context.Context, user *common.UserResult) error {
	if r.client == nil {
		return nil // Redis disabled
	}
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, profileKey(user.Id), data, r.ttl).Err()
}

func (r *RedisService) DeleteProfile(ctx context.Context, userID uint) error {
	if r.client == nil {
		return nil // Redis disabled
	}
	return r.client.Del(ctx, profileKey(userID)).Err()
}

func (r *RedisService) Ping(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Ping(ctx).Err()
}

func (r *RedisService) Close() error {
	if r.client == nil {
		return nil // Redis disabled
	}
	return r.client.Close()
}

func profileKey(userID uint) string {
	return profileKeyPrefix + strconv.FormatUint(uint64(userID), 10)
}
