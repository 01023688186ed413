package host

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmehdipour/teams-notify/internal/model"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisKeys names the lists the Redis host works on.
type RedisKeys struct {
	Input         string // producers LPUSH records here
	Processing    string // records in flight
	OutcomePrefix string // <prefix>:success / <prefix>:failure
}

// OutcomeKey is the list a record lands on for the given outcome.
func (k RedisKeys) OutcomeKey(o model.Outcome) string {
	return k.OutcomePrefix + ":" + o.String()
}

// Redis moves records input -> processing on acquire and
// processing -> outcome list on transfer, so a crash never loses a record.
type Redis struct {
	rdb         redis.UniversalClient
	keys        RedisKeys
	pollTimeout time.Duration
	log         *zap.Logger
}

func NewRedis(rdb redis.UniversalClient, keys RedisKeys, pollTimeout time.Duration, log *zap.Logger) *Redis {
	if pollTimeout <= 0 {
		pollTimeout = time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Redis{rdb: rdb, keys: keys, pollTimeout: pollTimeout, log: log}
}

// Acquire blocks up to the poll timeout; (nil, nil) means the input list
// stayed empty. Unparseable payloads are moved to the failure list.
func (r *Redis) Acquire(ctx context.Context) (*model.Record, error) {
	for {
		raw, err := r.rdb.BLMove(ctx, r.keys.Input, r.keys.Processing, "RIGHT", "LEFT", r.pollTimeout).Result()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		rec, err := DecodeRecord([]byte(raw))
		if err != nil {
			r.log.Warn("moving unparseable payload to failure list", zap.Error(err))
			if merr := r.move(ctx, raw, r.keys.OutcomeKey(model.OutcomeFailure)); merr != nil {
				return nil, merr
			}
			continue
		}
		rec.Handle = raw
		return rec, nil
	}
}

func (r *Redis) Transfer(ctx context.Context, rec *model.Record, outcome model.Outcome) error {
	raw, ok := rec.Handle.(string)
	if !ok {
		return fmt.Errorf("record %s was not acquired from redis", rec.ID)
	}
	return r.move(ctx, raw, r.keys.OutcomeKey(outcome))
}

func (r *Redis) move(ctx context.Context, raw, dst string) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, dst, raw)
		pipe.LRem(ctx, r.keys.Processing, 1, raw)
		return nil
	})
	if err != nil {
		return fmt.Errorf("move to %s: %w", dst, err)
	}
	return nil
}

// Recover returns records left in the processing list by a previous run to
// the consuming end of the input list, oldest last so it is acquired first.
// Call it before starting workers.
func (r *Redis) Recover(ctx context.Context) (int, error) {
	n := 0
	for {
		_, err := r.rdb.LMove(ctx, r.keys.Processing, r.keys.Input, "LEFT", "RIGHT").Result()
		if errors.Is(err, redis.Nil) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}
