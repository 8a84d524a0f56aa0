package mq

import (
	"context"
	"fmt"
	"time"

	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/logic/events"
	"stablecoin-vault-sol/internal/pkg/logger"
	"stablecoin-vault-sol/internal/pkg/utils"
)

// EventSink 接收已提交交易产生的事件
type EventSink interface {
	Publish(ctx context.Context, evs []core.Event, meta events.Meta) error
}

// BuildJobs 将事件编码为 Kafka 消息，按 owner 选择分区
func BuildJobs(evs []core.Event, meta events.Meta, topic string, partitions int) ([]*KafkaJob, error) {
	jobs := make([]*KafkaJob, 0, len(evs))
	for i := range evs {
		ev := &evs[i]
		value, err := events.Encode(ev, meta)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, &KafkaJob{
			Topic:     topic,
			Partition: utils.PartitionForKey(ev.Owner, uint32(max(partitions, 1))),
			Key:       ev.Owner.Bytes(),
			Value:     value,
		})
	}
	return jobs, nil
}

// KafkaPublisher 同步发送事件并等待所有 ack
type KafkaPublisher struct {
	producer   Producer
	topic      string
	partitions int
	timeout    time.Duration
}

func NewKafkaPublisher(producer Producer, topic string, partitions int, timeout time.Duration) *KafkaPublisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &KafkaPublisher{
		producer:   producer,
		topic:      topic,
		partitions: partitions,
		timeout:    timeout,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, evs []core.Event, meta events.Meta) error {
	if len(evs) == 0 {
		return nil
	}
	jobs, err := BuildJobs(evs, meta, p.topic, p.partitions)
	if err != nil {
		return err
	}
	ok, failed := SendKafkaJobs(ctx, p.producer, jobs, p.timeout)
	if len(failed) > 0 {
		return fmt.Errorf("kafka: %d/%d events failed, first: %w", len(failed), len(jobs), failed[0].Err)
	}
	logger.Debugf("[mq] op=%s 发送 %d 条事件到 %s", meta.OpID, len(ok), p.topic)
	return nil
}

// LogSink 在未配置 Kafka 时使用，只记录日志
type LogSink struct{}

func (LogSink) Publish(_ context.Context, evs []core.Event, meta events.Meta) error {
	for i := range evs {
		ev := &evs[i]
		logger.Infof("[event] op=%s slot=%d type=%s owner=%s amount=%s reward=%d",
			meta.OpID, meta.Slot, ev.Type, ev.Owner, events.UIAmount(ev.Amount, meta.Decimals), ev.Reward)
	}
	return nil
}
