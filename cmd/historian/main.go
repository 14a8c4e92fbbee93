// Command historian drains the game action queue from Redis and persists the
// records into the game_logs table. It runs as its own process so the request
// path never waits on log writes.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"coderoom/internal/cache"
	"coderoom/internal/database"
)

// Historian batches queue records and flushes them to Postgres either when
// the batch fills or the flush interval elapses.
type Historian struct {
	redisClient *redis.Client
	queueName   string
	batchSize   int
	flushDelay  time.Duration

	batchMu sync.Mutex
	batch   []cache.ActionRecord

	ctx      context.Context
	cancelFn context.CancelFunc
}

func NewHistorian() *Historian {
	batchSize := getEnvInt("HISTORIAN_BATCH_SIZE", 20)
	flushMs := getEnvInt("HISTORIAN_FLUSH_MS", 500)

	rdb := redis.NewClient(&redis.Options{
		Addr: getEnv("REDIS_ADDR", "localhost:6379"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	return &Historian{
		redisClient: rdb,
		queueName:   getEnv("ACTION_QUEUE_NAME", cache.DefaultQueueName),
		batchSize:   batchSize,
		flushDelay:  time.Duration(flushMs) * time.Millisecond,
		batch:       make([]cache.ActionRecord, 0, batchSize),
		ctx:         ctx,
		cancelFn:    cancel,
	}
}

// Run blocks until the context is cancelled.
func (h *Historian) Run() {
	database.ConnectDB()
	if err := database.Migrate(h.ctx); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	go h.readQueueLoop()
	go h.flushLoop()

	log.Println("coderoom-historian started")
	<-h.ctx.Done()
	h.flushBatch()
	log.Println("coderoom-historian shutting down")
}

// readQueueLoop pops records with BLPop. The short timeout keeps shutdown
// responsive.
func (h *Historian) readQueueLoop() {
	for {
		select {
		case <-h.ctx.Done():
			return
		default:
		}

		res, err := h.redisClient.BLPop(h.ctx, 3*time.Second, h.queueName).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			log.Printf("BLPop: %v", err)
			continue
		}
		if len(res) < 2 {
			continue
		}

		var rec cache.ActionRecord
		if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
			log.Printf("invalid action record: %v", err)
			continue
		}

		h.batchMu.Lock()
		h.batch = append(h.batch, rec)
		full := len(h.batch) >= h.batchSize
		h.batchMu.Unlock()
		if full {
			h.flushBatch()
		}
	}
}

func (h *Historian) flushLoop() {
	ticker := time.NewTicker(h.flushDelay)
	defer ticker.Stop()
	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			h.flushBatch()
		}
	}
}

// flushBatch writes the pending records in one transaction. On failure the
// batch is dropped after logging; game logs are best-effort history, not
// game state.
func (h *Historian) flushBatch() {
	h.batchMu.Lock()
	if len(h.batch) == 0 {
		h.batchMu.Unlock()
		return
	}
	pending := h.batch
	h.batch = make([]cache.ActionRecord, 0, h.batchSize)
	h.batchMu.Unlock()

	// Background context so the final flush still runs after shutdown.
	ctx := context.Background()
	q := `INSERT INTO game_logs (room_code, actor_user_id, action_type, payload, occurred_at)
	      VALUES ($1, $2, $3, $4, $5)`
	err := pgx.BeginTxFunc(ctx, database.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range pending {
			payload, err := json.Marshal(rec.Payload)
			if err != nil {
				return err
			}
			_, err = tx.Exec(ctx, q,
				rec.RoomCode, rec.ActorUserID, rec.ActionType,
				payload, time.UnixMilli(rec.Timestamp),
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("failed to flush %d game log records: %v", len(pending), err)
		return
	}
	log.Printf("flushed %d game log records", len(pending))
}

func main() {
	h := NewHistorian()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	go func() {
		<-sigs
		h.cancelFn()
	}()

	h.Run()
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

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
