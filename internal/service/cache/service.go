package cache

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valkey-io/valkey-go"

	"github.com/kapu/sql-detective-go/internal/constants"
)

// Config: Valkey 연결 설정. DisableCache는 클라이언트 사이드 캐싱을 끈다.
// (RESP3 client tracking을 지원하지 않는 서버 대응)
type Config struct {
	Host         string
	Port         int
	Password     string
	DB           int
	DisableCache bool
}

// Service: Valkey(Redis) 클라이언트를 래핑하여 캐싱 기능을 제공하는 서비스
// 리더보드 캐시와 로그인 실패/잠금 카운터에 사용된다.
type Service struct {
	client    valkey.Client
	logger    *slog.Logger
	closeOnce sync.Once
}

// Error: 캐시 연산 실패 (operation, key 포함)
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("cache %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("cache %s failed (key=%s): %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(op, key string, err error) *Error {
	return &Error{Op: op, Key: key, Err: err}
}

// NewCacheService: 새로운 Valkey 캐시 서비스 인스턴스를 생성하고 연결을 수립한다.
func NewCacheService(cfg Config, logger *slog.Logger) (*Service, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:       []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Password:          cfg.Password,
		SelectDB:          cfg.DB,
		DisableCache:      cfg.DisableCache,
		ConnWriteTimeout:  constants.ValkeyConfig.ConnWriteTimeout,
		BlockingPoolSize:  constants.ValkeyConfig.BlockingPoolSize,
		PipelineMultiplex: constants.ValkeyConfig.PipelineMultiplex,
		Dialer:            net.Dialer{Timeout: constants.ValkeyConfig.DialTimeout},
	})
	if err != nil {
		return nil, newError("init", "", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.ValkeyConfig.ReadyTimeout)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, newError("ping", "", err)
	}

	logger.Info("Cache store connected",
		slog.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		slog.Int("db", cfg.DB),
	)

	return &Service{
		client: client,
		logger: logger,
	}, nil
}

// Get: 키에 해당하는 값을 조회하고, 결과를 dest 인터페이스에 언마샬링한다.
// 키가 없으면 에러 없이 dest를 건드리지 않는다.
func (c *Service) Get(ctx context.Context, key string, dest any) error {
	resp := c.client.Do(ctx, c.client.B().Get().Key(key).Build())
	if valkey.IsValkeyNil(resp.Error()) {
		return nil
	}
	if resp.Error() != nil {
		c.logger.Error("Cache get operation failed", slog.String("key", key), slog.Any("error", resp.Error()))
		return newError("get", key, resp.Error())
	}

	value, err := resp.ToString()
	if err != nil {
		return newError("get", key, err)
	}

	if dest != nil {
		if err := json.Unmarshal([]byte(value), dest); err != nil {
			c.logger.Error("Cache value unmarshal failed", slog.String("key", key), slog.Any("error", err))
			return newError("get", key, err)
		}
	}

	return nil
}

// Set: 값을 JSON으로 마샬링하여 키에 저장한다. (TTL 지정 가능)
func (c *Service) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return newError("set", key, err)
	}

	var cmd valkey.Completed
	if ttl > 0 {
		cmd = c.client.B().Set().Key(key).Value(string(jsonData)).ExSeconds(int64(ttl.Seconds())).Build()
	} else {
		cmd = c.client.B().Set().Key(key).Value(string(jsonData)).Build()
	}

	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		c.logger.Error("Cache set failed", slog.String("key", key), slog.Any("error", err))
		return newError("set", key, err)
	}

	return nil
}

// Del: 지정된 키를 삭제한다.
func (c *Service) Del(ctx context.Context, key string) error {
	if err := c.client.Do(ctx, c.client.B().Del().Key(key).Build()).Error(); err != nil {
		c.logger.Error("Cache delete failed", slog.String("key", key), slog.Any("error", err))
		return newError("del", key, err)
	}
	return nil
}

// Exists: 키 존재 여부를 확인한다.
func (c *Service) Exists(ctx context.Context, key string) (bool, error) {
	resp := c.client.Do(ctx, c.client.B().Exists().Key(key).Build())
	if resp.Error() != nil {
		return false, newError("exists", key, resp.Error())
	}
	count, err := resp.AsInt64()
	if err != nil {
		return false, newError("exists", key, err)
	}
	return count > 0, nil
}

// Expire: 키에 TTL을 부여한다.
func (c *Service) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.client.Do(ctx, c.client.B().Expire().Key(key).Seconds(int64(ttl.Seconds())).Build()).Error(); err != nil {
		return newError("expire", key, err)
	}
	return nil
}

// IncrWithTTL: 카운터를 1 증가시키고, 최초 생성 시에만 TTL을 부여한다.
func (c *Service) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	resp := c.client.Do(ctx, c.client.B().Incr().Key(key).Build())
	if resp.Error() != nil {
		return 0, newError("incr", key, resp.Error())
	}
	count, err := resp.AsInt64()
	if err != nil {
		return 0, newError("incr", key, err)
	}
	if count == 1 && ttl > 0 {
		_ = c.Expire(ctx, key, ttl)
	}
	return count, nil
}

// GetClient: 내부 valkey 클라이언트를 반환한다. (고급 연산용)
func (c *Service) GetClient() valkey.Client {
	return c.client
}

// Close: 클라이언트 연결을 종료한다. (idempotent)
func (c *Service) Close() error {
	c.closeOnce.Do(func() {
		c.client.Close()
	})
	return nil
}
