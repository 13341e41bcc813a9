package config

// This file defines the Redis client constructor.  Redis backs the shared
// feed cache, the API response cache and the login rate limiter.  All three
// degrade to no-ops when Redis is unreachable, so the constructor returns
// nil instead of failing startup.

import (
	"context"
	"crypto/tls"
	"log"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions builds client options from the environment.  Supported
// variables are:
//   REDIS_URL – redis:// or rediss:// URL (takes precedence over the rest)
//   REDIS_HOST and REDIS_PORT – hostname and port of the Redis server
//   REDIS_ADDR – host:port shorthand
//   REDIS_PASSWORD – optional password
//   REDIS_DB – database number (default 0)
//   REDIS_TLS – enable TLS when "true" or "1"
// ok is false when REDIS_DISABLED is set.
func RedisOptions() (opts *redis.Options, ok bool) {
	if envBool("REDIS_DISABLED", false) {
		return nil, false
	}
	if raw := os.Getenv("REDIS_URL"); raw != "" {
		o, err := redis.ParseURL(raw)
		if err != nil {
			log.Printf("redis: invalid REDIS_URL: %v", err)
			return nil, false
		}
		return o, true
	}
	addr := envStr("REDIS_ADDR", "localhost:6379")
	if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
		addr = host + ":" + port
	}
	var tlsConf *tls.Config
	if tlsEnv := os.Getenv("REDIS_TLS"); strings.EqualFold(tlsEnv, "true") || tlsEnv == "1" {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return &redis.Options{
		Addr:      addr,
		Password:  os.Getenv("REDIS_PASSWORD"),
		DB:        envInt("REDIS_DB", 0),
		TLSConfig: tlsConf,
	}, true
}

// NewRedisClient connects with RedisOptions and pings the server with a
// short timeout.  The returned client is nil when Redis is disabled or
// unreachable.
func NewRedisClient() *redis.Client {
	opts, ok := RedisOptions()
	if !ok {
		return nil
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis: %s unreachable, running without shared cache: %v", opts.Addr, err)
		_ = client.Close()
		return nil
	}
	return client
}
