package worker

import (
	"fmt"
	"time"

	"github.com/jmehdipour/teams-notify/internal/host"
	"github.com/jmehdipour/teams-notify/internal/kafka"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var kafkaCmd = &cobra.Command{
	Use:   "kafka",
	Short: "Consume records from Kafka and route them to outcome topics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd, "kafka")
		if err != nil {
			return err
		}
		defer a.Close()
		kc := a.Config.Kafka

		if len(kc.Brokers) == 0 || kc.Topic == "" {
			return fmt.Errorf("kafka.brokers and kafka.topic are required")
		}
		if kc.SuccessTopic == "" || kc.FailureTopic == "" || kc.SuccessTopic == kc.FailureTopic {
			return fmt.Errorf("kafka.success_topic and kafka.failure_topic must be set and distinct")
		}
		groupID := kc.GroupID
		if groupID == "" {
			groupID = "teams-notify"
		}

		consumer := kafka.NewConsumerFromConfig(kafka.Config{
			Brokers:        kc.Brokers,
			Topic:          kc.Topic,
			GroupID:        groupID,
			MinBytes:       kc.MinBytes,
			MaxBytes:       kc.MaxBytes,
			CommitInterval: time.Duration(kc.CommitInterval) * time.Millisecond,
		})
		defer consumer.Close()

		producer := kafka.NewProducer(kc.Brokers)
		defer producer.Close()

		h := host.NewKafka(consumer, producer, kc.SuccessTopic, kc.FailureTopic, time.Second, a.Log.Named("kafka"))

		a.Log.Info("kafka host ready",
			zap.String("topic", kc.Topic),
			zap.String("group", groupID),
			zap.String("success_topic", kc.SuccessTopic),
			zap.String("failure_topic", kc.FailureTopic),
		)
		// one cycle at a time: a commit must never pass a record still in flight
		if a.Config.Worker.Count > 1 {
			a.Log.Info("kafka host runs a single worker", zap.Int("worker.count", a.Config.Worker.Count))
		}
		return run(a, h, h, 1)
	},
}
