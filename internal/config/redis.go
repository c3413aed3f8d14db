package config

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig locates the Redis server shared by the response cache and the
// rate limiter. URL (redis://...) wins over Addr; Addr wins over Host+Port.
type RedisConfig struct {
	URL      string
	Addr     string
	Password string
	DB       int
	TLS      bool
	Disabled bool
}

// LoadRedisConfig reads REDIS_URL, REDIS_ADDR, REDIS_HOST/REDIS_PORT,
// REDIS_PASSWORD, REDIS_DB, REDIS_TLS and REDIS_DISABLED.
func LoadRedisConfig() RedisConfig {
	addr := os.Getenv("REDIS_ADDR")
	if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
		addr = host + ":" + port
	}
	if addr == "" {
		addr = "localhost:6379"
	}
	return RedisConfig{
		URL:      os.Getenv("REDIS_URL"),
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       envInt("REDIS_DB", 0),
		TLS:      envBool("REDIS_TLS", false),
		Disabled: envBool("REDIS_DISABLED", false),
	}
}

// Options converts the config into go-redis options.
func (c RedisConfig) Options() (*redis.Options, error) {
	if c.URL != "" {
		opt, err := redis.ParseURL(c.URL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		return opt, nil
	}
	opt := &redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	}
	if c.TLS {
		host := c.Addr
		if i := strings.LastIndex(host, ":"); i > 0 {
			host = host[:i]
		}
		opt.TLSConfig = &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
	}
	return opt, nil
}

// NewRedisClient connects and pings with a short timeout. It returns a nil
// client together with the reason when Redis is disabled or unreachable;
// callers degrade by skipping the cache and limiting in memory.
func NewRedisClient(ctx context.Context, c RedisConfig) (*redis.Client, error) {
	if c.Disabled {
		return nil, nil
	}
	opt, err := c.Options()
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opt.Addr, err)
	}
	return client, nil
}
