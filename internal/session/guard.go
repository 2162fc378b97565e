package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrGenerationInFlight is returned when a session already has a generation
// request outstanding.
var ErrGenerationInFlight = errors.New("plan generation already in progress")

// Guard holds the single in-flight generation flag of each session.
type Guard interface {
	// Acquire claims the flag or fails with ErrGenerationInFlight. The
	// returned release func must be called exactly once.
	Acquire(ctx context.Context, sessionID string) (release func(), err error)
}

// MemoryGuard keeps the flags in process memory.
type MemoryGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewMemoryGuard creates an in-process guard.
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{inFlight: make(map[string]struct{})}
}

func (g *MemoryGuard) Acquire(_ context.Context, sessionID string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.inFlight[sessionID]; busy {
		return nil, ErrGenerationInFlight
	}
	g.inFlight[sessionID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inFlight, sessionID)
			g.mu.Unlock()
		})
	}, nil
}

// InFlight reports whether sessionID currently holds the flag.
func (g *MemoryGuard) InFlight(sessionID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.inFlight[sessionID]
	return busy
}

const (
	redisGuardPrefix     = "aura:generation:"
	defaultRedisGuardTTL = 2 * time.Minute
	redisReleaseTimeout  = 3 * time.Second
)

// releaseScript deletes the lock only if it still holds our token, so an
// expired lock re-acquired by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard keeps the flags in Redis/Dragonfly so that several server
// replicas agree. The TTL bounds how long a crashed holder blocks a session.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisGuard creates a Redis-backed guard. A zero ttl uses two minutes.
func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = defaultRedisGuardTTL
	}
	return &RedisGuard{client: client, ttl: ttl}
}

func (g *RedisGuard) Acquire(ctx context.Context, sessionID string) (func(), error) {
	key := redisGuardPrefix + sessionID
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire generation lock: %w", err)
	}
	if !ok {
		return nil, ErrGenerationInFlight
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The request context may already be cancelled.
			releaseCtx, cancel := context.WithTimeout(context.Background(), redisReleaseTimeout)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, g.client, []string{key}, token).Err(); err != nil {
				slog.Warn("failed to release generation lock", "session_id", sessionID, "error", err)
			}
		})
	}, nil
}
