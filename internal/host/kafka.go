package host

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmehdipour/teams-notify/internal/kafka"
	"github.com/jmehdipour/teams-notify/internal/model"
	"go.uber.org/zap"
)

// OutcomeHeader carries the outcome channel name on routed Kafka messages.
const OutcomeHeader = "outcome"

type fetcher interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, m kafka.Message) error
}

type publisher interface {
	Publish(ctx context.Context, msgs ...kafka.Message) error
}

// Kafka acquires records from an input topic and routes them to one of two
// outcome topics. The input offset is committed only after the record has
// been written to its outcome topic.
// Publish and commit are retried until they succeed or ctx is done.
type Kafka struct {
	in           fetcher
	out          publisher
	successTopic string
	failureTopic string
	pollTimeout  time.Duration
	retryBackoff time.Duration
	log          *zap.Logger
}

func NewKafka(in fetcher, out publisher, successTopic, failureTopic string, pollTimeout time.Duration, log *zap.Logger) *Kafka {
	if pollTimeout <= 0 {
		pollTimeout = time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Kafka{
		in:           in,
		out:          out,
		successTopic: successTopic,
		failureTopic: failureTopic,
		pollTimeout:  pollTimeout,
		retryBackoff: 500 * time.Millisecond,
		log:          log,
	}
}

// Acquire returns (nil, nil) when no message arrived within the poll timeout.
// Messages that are not valid records are committed and skipped.
func (k *Kafka) Acquire(ctx context.Context) (*model.Record, error) {
	for {
		pollCtx, cancel := context.WithTimeout(ctx, k.pollTimeout)
		m, err := k.in.Fetch(pollCtx)
		cancel()
		if err != nil {
			if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
				return nil, nil
			}
			return nil, err
		}

		rec, err := DecodeRecord(m.Value)
		if err != nil {
			k.log.Warn("skipping poison message",
				zap.String("topic", m.Topic),
				zap.Int("partition", m.Partition),
				zap.Int64("offset", m.Offset),
				zap.Error(err),
			)
			if cerr := k.in.Commit(ctx, m); cerr != nil {
				return nil, fmt.Errorf("commit poison message: %w", cerr)
			}
			continue
		}

		for _, h := range m.Headers {
			if _, ok := rec.Attributes[h.Key]; !ok {
				rec.Attributes[h.Key] = string(h.Value)
			}
		}
		rec.Handle = m
		return rec, nil
	}
}

func (k *Kafka) Transfer(ctx context.Context, rec *model.Record, outcome model.Outcome) error {
	src, ok := rec.Handle.(kafka.Message)
	if !ok {
		return fmt.Errorf("record %s was not acquired from kafka", rec.ID)
	}

	topic := k.successTopic
	if outcome == model.OutcomeFailure {
		topic = k.failureTopic
	}

	value, err := EncodeRecord(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	msg := kafka.Message{
		Topic:   topic,
		Key:     []byte(rec.ID),
		Value:   value,
		Headers: []kafka.Header{{Key: OutcomeHeader, Value: []byte(outcome.DisplayName())}},
	}
	log := k.log.With(zap.String("record_id", rec.ID), zap.Int64("offset", src.Offset))

	if err := k.retry(ctx, log, "publish to "+topic, func() error {
		return k.out.Publish(ctx, msg)
	}); err != nil {
		return err
	}
	return k.retry(ctx, log, "commit offset", func() error {
		return k.in.Commit(ctx, src)
	})
}

// retry runs fn until it succeeds or ctx is done.
func (k *Kafka) retry(ctx context.Context, log *zap.Logger, what string, fn func() error) error {
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", what, err)
		}
		log.Warn("kafka transfer step failed, retrying",
			zap.String("step", what),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		t := time.NewTimer(k.retryBackoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("%s: %w", what, err)
		case <-t.C:
		}
	}
}
