package worker

import (
	"context"
	"fmt"

	"github.com/jmehdipour/teams-notify/internal/db"
	"github.com/jmehdipour/teams-notify/internal/host"
	"github.com/jmehdipour/teams-notify/internal/model"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Consume records from a Redis list and route them to outcome lists",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd, "redis")
		if err != nil {
			return err
		}
		defer a.Close()
		rc := a.Config.Redis

		if rc.InputKey == "" || rc.ProcessingKey == "" || rc.OutcomePrefix == "" {
			return fmt.Errorf("redis.input_key, redis.processing_key and redis.outcome_prefix are required")
		}

		rdb, err := db.NewRedisClient(rc)
		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		defer func() { _ = rdb.Close() }()

		keys := host.RedisKeys{Input: rc.InputKey, Processing: rc.ProcessingKey, OutcomePrefix: rc.OutcomePrefix}
		h := host.NewRedis(rdb, keys, rc.PollTimeout, a.Log.Named("redis"))

		n, err := h.Recover(context.Background())
		if err != nil {
			return fmt.Errorf("recover in-flight records: %w", err)
		}
		a.Log.Info("redis host ready",
			zap.String("input", keys.Input),
			zap.String("success", keys.OutcomeKey(model.OutcomeSuccess)),
			zap.String("failure", keys.OutcomeKey(model.OutcomeFailure)),
			zap.Int("recovered", n),
		)
		return run(a, h, h, a.Config.Worker.Count)
	},
}
