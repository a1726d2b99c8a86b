// Package rate limita la frecuencia de disparos de notificación por caller.
// Fixed window sobre Redis: suficiente para frenar un loop de la app de
// assets que dispararía cientos de mails, sin estado en memoria del proceso.
package rate

import (
	"context"
	"fmt"
	"strings"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// Result es el veredicto de un intento contra la ventana vigente.
type Result struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter decide si un key puede ejecutar su operación ahora.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// RedisLimiter cuenta hits por key en ventanas fijas (INCR + EXPIRE).
type RedisLimiter struct {
	client *rdb.Client
	prefix string
	max    int64
	window time.Duration
}

// NewRedisLimiter crea un limiter de max hits por window.
func NewRedisLimiter(client *rdb.Client, prefix string, max int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "mailjohn:rl:"
	}
	return &RedisLimiter{client: client, prefix: prefix, max: int64(max), window: window}
}

// NotifyKey arma el key de rate limit para un endpoint de notificación.
func NotifyKey(kind, ip string) string {
	return "notify:" + kind + ":" + ip
}

// Allow registra un hit y responde si entra en la ventana actual.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	win := time.Now().UTC().Truncate(l.window).Unix()
	redisKey := fmt.Sprintf("%s%s:%d", l.prefix, strings.ReplaceAll(key, " ", "_"), win)

	hits, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Result{}, err
	}
	if hits == 1 {
		// Primera escritura de la ventana: fijar su expiración.
		_ = l.client.Expire(ctx, redisKey, l.window).Err()
	}

	res := Result{
		Allowed:   hits <= l.max,
		Remaining: max(l.max-hits, 0),
	}
	if !res.Allowed {
		ttl, err := l.client.TTL(ctx, redisKey).Result()
		if err != nil || ttl < 0 {
			ttl = l.window
		}
		res.RetryAfter = ttl
	}
	return res, nil
}
