package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Rdb is the global Redis client. Connect it once at application startup; a
// nil client disables the Redis-backed features (guest names fall back to a
// timestamp suffix, action logging becomes a no-op).
var Rdb *redis.Client

// DefaultQueueName is the Redis list the game pushes action records onto and
// the historian drains.
var DefaultQueueName = "coderoom_actions"

// guestCounterKey backs guest naming. A store-side counter keeps guest names
// unique across processes; the server itself holds no mutable naming state.
const guestCounterKey = "coderoom:guest_counter"

// ActionRecord is one persisted game action, queued for the historian.
type ActionRecord struct {
	RoomCode    string                 `json:"room_code"`
	ActorUserID uuid.UUID              `json:"actor_user_id"`
	ActionType  string                 `json:"action_type"`
	Payload     map[string]interface{} `json:"payload"`
	Timestamp   int64                  `json:"timestamp"`
}

// ConnectRedis initializes the global client from environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
func ConnectRedis() error {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		Rdb = nil
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// NextGuestName increments the shared guest counter and returns a display
// name like "Player A". Names cycle through the alphabet the way the
// original lobby labeled its guests.
func NextGuestName(ctx context.Context) (string, error) {
	if Rdb == nil {
		return fmt.Sprintf("Player %d", time.Now().UnixNano()%100000), nil
	}
	n, err := Rdb.Incr(ctx, guestCounterKey).Result()
	if err != nil {
		return "", fmt.Errorf("failed to increment guest counter: %w", err)
	}
	letter := rune('A' + (n-1)%26)
	if n <= 26 {
		return fmt.Sprintf("Player %c", letter), nil
	}
	return fmt.Sprintf("Player %c%d", letter, (n-1)/26), nil
}

// PublishAction serializes the record and pushes it onto the action queue.
// A nil client makes this a no-op so the game works without Redis.
func PublishAction(ctx context.Context, rec ActionRecord) error {
	if Rdb == nil {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal ActionRecord: %w", err)
	}
	queueName := getEnv("ACTION_QUEUE_NAME", DefaultQueueName)
	if err := Rdb.RPush(ctx, queueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list %q: %w", queueName, err)
	}
	return nil
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt parses an environment variable as an integer, else a default.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
