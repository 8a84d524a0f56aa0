package mq

import (
	"context"
	"fmt"
	"time"

	"stablecoin-vault-sol/internal/pkg/logger"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/zeromicro/go-zero/core/netx"
)

const (
	defaultBatchSize = 32 * 1024
	defaultLingerMs  = 5
)

// TopicSpec 描述一个需要确保存在的 topic
type TopicSpec struct {
	Topic      string // topic 名称
	Partitions int    // 分区数
}

type KafkaProducerOption struct {
	Brokers   string // Kafka broker 地址，多个用英文逗号分隔（如 "localhost:9092,localhost:9093"）
	BatchSize int    // 批处理大小（单位字节），如 32768 = 32KB
	LingerMs  int    // 批处理最大延迟（毫秒），建议 5~20ms 之间
	ClientID  string // 客户端标识前缀，实际值会追加本机 IP

	Topics []TopicSpec

	SecurityProtocol string // 为空时使用 PLAINTEXT
}

func (cfg KafkaProducerOption) securityProtocol() string {
	if cfg.SecurityProtocol == "" {
		return "plaintext"
	}
	return cfg.SecurityProtocol
}

// NewKafkaProducer 确保 topic 存在后创建 Kafka 生产者
func NewKafkaProducer(cfg KafkaProducerOption) (*kafka.Producer, error) {
	if err := ensureTopics(cfg); err != nil {
		return nil, err
	}
	producer, err := kafka.NewProducer(producerConfig(cfg, netx.InternalIp()))
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}
	return producer, nil
}

// ensureTopics 创建缺失的 topic；多 broker 时副本数为 2
func ensureTopics(cfg KafkaProducerOption) error {
	adminClient, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
		"security.protocol": cfg.securityProtocol(),
	})
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer adminClient.Close()

	meta, err := adminClient.GetMetadata(nil, true, 10000)
	if err != nil {
		return fmt.Errorf("failed to get metadata: %w", err)
	}

	replicationFactor := 1
	if len(meta.Brokers) > 1 {
		replicationFactor = 2
	}
	logger.Infof("[mq] Kafka broker count = %d, using replication factor = %d", len(meta.Brokers), replicationFactor)

	missing := make([]kafka.TopicSpecification, 0, len(cfg.Topics))
	for _, t := range cfg.Topics {
		if _, ok := meta.Topics[t.Topic]; ok {
			continue
		}
		missing = append(missing, kafka.TopicSpecification{
			Topic:             t.Topic,
			NumPartitions:     t.Partitions,
			ReplicationFactor: replicationFactor,
		})
	}
	if len(missing) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	results, err := adminClient.CreateTopics(ctx, missing)
	if err != nil {
		return fmt.Errorf("failed to create topics: %w", err)
	}
	for _, result := range results {
		if result.Error.Code() != kafka.ErrNoError && result.Error.Code() != kafka.ErrTopicAlreadyExists {
			return fmt.Errorf("failed to create topic %s: %w", result.Topic, result.Error)
		}
	}
	return nil
}

// producerConfig 生成生产者配置：acks=all + 幂等，保证事件不丢不重
func producerConfig(cfg KafkaProducerOption, localIP string) *kafka.ConfigMap {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	lingerMs := cfg.LingerMs
	if lingerMs < 0 {
		lingerMs = defaultLingerMs
	}
	if localIP == "" {
		localIP = "unknown"
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "stablecoin-vault"
	}

	return &kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
		"client.id":         fmt.Sprintf("%s-%s", clientID, localIP),
		"security.protocol": cfg.securityProtocol(),

		"acks":                                  "all",
		"enable.idempotence":                    true,
		"max.in.flight.requests.per.connection": 5, // 幂等场景下最大值为 5

		"delivery.timeout.ms": 30000,
		"request.timeout.ms":  30000,
		"retries":             5,
		"retry.backoff.ms":    100,

		"batch.size":        batchSize,
		"linger.ms":         lingerMs,
		"compression.type":  "none",
		"message.max.bytes": 2 * 1024 * 1024,
	}
}
