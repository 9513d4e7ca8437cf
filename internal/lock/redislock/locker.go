// Package redislock provides a room write lock shared by every scheduler
// instance pointed at the same Redis server.
package redislock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	defaultPrefix     = "scheduler:lock:"
	defaultTTL        = 10 * time.Second
	defaultRetryDelay = 25 * time.Millisecond
)

// ErrNotHeld is reported when a release finds the key owned by someone else,
// typically because the TTL elapsed first.
var ErrNotHeld = errors.New("redislock: lock not held")

// releaseScript deletes the key only while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Options tunes lock behaviour. Zero values fall back to defaults.
type Options struct {
	Prefix     string
	TTL        time.Duration
	RetryDelay time.Duration
	Logger     *slog.Logger
}

// Locker implements application.RoomLocker on top of SET NX PX.
type Locker struct {
	client     redis.UniversalClient
	prefix     string
	ttl        time.Duration
	retryDelay time.Duration
	logger     *slog.Logger
}

// New wraps an existing client.
func New(client redis.UniversalClient, opts Options) *Locker {
	l := &Locker{
		client:     client,
		prefix:     opts.Prefix,
		ttl:        opts.TTL,
		retryDelay: opts.RetryDelay,
		logger:     opts.Logger,
	}
	if l.prefix == "" {
		l.prefix = defaultPrefix
	}
	if l.ttl <= 0 {
		l.ttl = defaultTTL
	}
	if l.retryDelay <= 0 {
		l.retryDelay = defaultRetryDelay
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// Dial connects to addr and verifies the server answers before returning.
func Dial(ctx context.Context, addr string, opts Options) (*Locker, *redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redislock: ping %s: %w", addr, err)
	}
	return New(client, opts), client, nil
}

// Lock acquires every key in sorted order, polling until ctx is done. On
// failure any keys already taken are released before returning.
func (l *Locker) Lock(ctx context.Context, keys ...string) (func(), error) {
	ordered := sortedKeys(keys)
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	held := make([]string, 0, len(ordered))
	release := func() {
		// The caller's context may already be cancelled; releases must still run.
		releaseCtx, cancel := context.WithTimeout(context.Background(), l.ttl)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			if err := l.release(releaseCtx, held[i], token); err != nil {
				l.logger.Warn("room lock release failed", "key", held[i], "error", err)
			}
		}
	}

	for _, key := range ordered {
		if err := l.acquire(ctx, key, token); err != nil {
			release()
			return nil, err
		}
		held = append(held, key)
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

func (l *Locker) acquire(ctx context.Context, key, token string) error {
	for {
		ok, err := l.client.SetNX(ctx, l.prefix+key, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("redislock: acquire %s: %w", key, err)
		}
		if ok {
			return nil
		}

		timer := time.NewTimer(l.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *Locker) release(ctx context.Context, key, token string) error {
	deleted, err := releaseScript.Run(ctx, l.client, []string{l.prefix + key}, token).Int64()
	if err != nil {
		return fmt.Errorf("redislock: release %s: %w", key, err)
	}
	if deleted == 0 {
		return ErrNotHeld
	}
	return nil
}

func sortedKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	ordered := make([]string, 0, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		ordered = append(ordered, key)
	}
	sort.Strings(ordered)
	return ordered
}

func newToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("redislock: token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
