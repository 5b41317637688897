package kafka

import (
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/nguyentranbao-ct/chat-notify/internal/config"
)

func newSaramaConfig(cfg *config.KafkaConfig) (*sarama.Config, error) {
	version, err := sarama.ParseKafkaVersion(cfg.Version)
	if err != nil {
		return nil, fmt.Errorf("parse kafka version: %w", err)
	}

	sc := sarama.NewConfig()
	sc.Version = version
	sc.ClientID = "chat-notify"

	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 3
	// jobs of one channel land on one partition
	sc.Producer.Partitioner = sarama.NewHashPartitioner

	sc.Consumer.Offsets.Initial = sarama.OffsetNewest
	sc.Consumer.Return.Errors = true
	sc.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}

	sc.Net.DialTimeout = 10 * time.Second
	sc.Net.ReadTimeout = 30 * time.Second
	sc.Net.WriteTimeout = 30 * time.Second

	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("sarama config validate: %w", err)
	}
	return sc, nil
}
