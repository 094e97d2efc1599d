// Package historian drains the game action queue into Postgres and marks games
// abandoned once they go quiet.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/database"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Source yields queued action records. ok is false when nothing arrived before timeout.
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) (rec cache.GameActionRecord, ok bool, err error)
}

// Sink stores action records and game status changes.
type Sink interface {
	InsertActions(ctx context.Context, recs []cache.GameActionRecord) error
	MarkAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error)
}

// ErrBadRecord marks a queue entry that could not be decoded. It is skipped.
var ErrBadRecord = errors.New("invalid action record")

// RedisSource pops records from a Redis list with BLPOP.
type RedisSource struct {
	Client *redis.Client
	Queue  string
}

func (r RedisSource) Pop(ctx context.Context, timeout time.Duration) (cache.GameActionRecord, bool, error) {
	var rec cache.GameActionRecord
	res, err := r.Client.BLPop(ctx, timeout, r.Queue).Result()
	if errors.Is(err, redis.Nil) {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, err
	}
	// res[0] is the queue name and res[1] the payload.
	if len(res) < 2 {
		return rec, false, nil
	}
	if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
		return rec, false, fmt.Errorf("%w: %v", ErrBadRecord, err)
	}
	return rec, true, nil
}

// PostgresSink writes through the database package.
type PostgresSink struct{}

func (PostgresSink) InsertActions(ctx context.Context, recs []cache.GameActionRecord) error {
	return database.InsertGameActions(ctx, recs)
}

func (PostgresSink) MarkAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error) {
	return database.MarkGameAbandoned(ctx, gameID)
}

// Config tunes batching and the inactivity sweep.
type Config struct {
	BatchSize       int
	FlushDelay      time.Duration
	Inactivity      time.Duration // quiet time after which a game is abandoned
	InactivityCheck time.Duration
	PopTimeout      time.Duration
}

func (c *Config) defaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 20
	}
	if c.FlushDelay <= 0 {
		c.FlushDelay = 500 * time.Millisecond
	}
	if c.Inactivity <= 0 {
		c.Inactivity = 10 * time.Minute
	}
	if c.InactivityCheck <= 0 {
		c.InactivityCheck = time.Minute
	}
	if c.PopTimeout <= 0 {
		c.PopTimeout = 3 * time.Second
	}
}

// Service batches records from a Source into a Sink. All of its state is owned
// by the Run goroutine.
type Service struct {
	src Source
	dst Sink
	cfg Config
	log *logrus.Entry
	now func() time.Time

	batch        []cache.GameActionRecord
	lastActivity map[uuid.UUID]time.Time
}

func NewService(src Source, dst Sink, cfg Config, logger *logrus.Logger) *Service {
	cfg.defaults()
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		src:          src,
		dst:          dst,
		cfg:          cfg,
		log:          logger.WithField("component", "historian"),
		now:          time.Now,
		batch:        make([]cache.GameActionRecord, 0, cfg.BatchSize),
		lastActivity: make(map[uuid.UUID]time.Time),
	}
}

// Run processes records until ctx is cancelled, then flushes what it holds.
func (s *Service) Run(ctx context.Context) error {
	records := make(chan cache.GameActionRecord)
	go s.readLoop(ctx, records)

	flush := time.NewTicker(s.cfg.FlushDelay)
	defer flush.Stop()
	sweep := time.NewTicker(s.cfg.InactivityCheck)
	defer sweep.Stop()

	s.log.Info("historian started")
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			s.flush(shutdownCtx)
			cancel()
			s.log.Info("historian stopped")
			return nil

		case rec := <-records:
			s.track(rec)
			s.batch = append(s.batch, rec)
			if len(s.batch) >= s.cfg.BatchSize {
				s.flush(ctx)
			}

		case <-flush.C:
			s.flush(ctx)

		case <-sweep.C:
			s.sweep(ctx)
		}
	}
}

func (s *Service) readLoop(ctx context.Context, out chan<- cache.GameActionRecord) {
	for ctx.Err() == nil {
		rec, ok, err := s.src.Pop(ctx, s.cfg.PopTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, ErrBadRecord) {
				s.log.WithError(err).Warn("skipping queue entry")
				continue
			}
			s.log.WithError(err).Error("pop failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if !ok {
			continue
		}
		select {
		case out <- rec:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Service) track(rec cache.GameActionRecord) {
	if rec.ActionType == "game_end" {
		delete(s.lastActivity, rec.GameID)
		return
	}
	s.lastActivity[rec.GameID] = s.now()
}

// flush writes the batch in one transaction. A failed batch is kept for the next attempt.
func (s *Service) flush(ctx context.Context) {
	if len(s.batch) == 0 {
		return
	}
	if err := s.dst.InsertActions(ctx, s.batch); err != nil {
		s.log.WithError(err).WithField("actions", len(s.batch)).Error("flush failed")
		return
	}
	s.log.Debugf("flushed %d actions", len(s.batch))
	s.batch = s.batch[:0]
}

// sweep abandons games with no activity for longer than Inactivity.
func (s *Service) sweep(ctx context.Context) {
	now := s.now()
	for gameID, last := range s.lastActivity {
		if now.Sub(last) <= s.cfg.Inactivity {
			continue
		}
		changed, err := s.dst.MarkAbandoned(ctx, gameID)
		if err != nil {
			s.log.WithError(err).WithField("game_id", gameID).Error("could not mark game abandoned")
			continue
		}
		delete(s.lastActivity, gameID)
		if changed {
			s.log.WithField("game_id", gameID).Info("marked game abandoned due to inactivity")
		}
	}
}
