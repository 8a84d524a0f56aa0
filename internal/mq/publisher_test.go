package mq

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stablecoin-vault-sol/internal/logic/core"
	"stablecoin-vault-sol/internal/logic/events"
	"stablecoin-vault-sol/internal/types"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProducer 立即回执并带上 failWith 错误，silent 时永不回执
type fakeProducer struct {
	mu       sync.Mutex
	messages []*kafka.Message
	failWith error
	silent   bool
}

func (p *fakeProducer) Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error {
	p.mu.Lock()
	p.messages = append(p.messages, msg)
	p.mu.Unlock()
	if p.silent {
		return nil
	}
	reply := *msg
	reply.TopicPartition.Error = p.failWith
	deliveryChan <- &reply
	return nil
}

func testEvents() []core.Event {
	var a, b types.Pubkey
	a[27], b[27] = 1, 2
	return []core.Event{
		{Type: core.EventCollateralDeposited, Owner: a, Amount: 10},
		{Type: core.EventCollateralWithdrawn, Owner: b, Amount: 20},
	}
}

func TestBuildJobs(t *testing.T) {
	jobs, err := BuildJobs(testEvents(), events.Meta{OpID: "x"}, "vault-events", 4)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, int32(1), jobs[0].Partition)
	assert.Equal(t, int32(2), jobs[1].Partition)
	assert.Equal(t, "vault-events", jobs[0].Topic)

	kind, _, err := events.Decode(jobs[1].Value)
	require.NoError(t, err)
	assert.Equal(t, core.EventCollateralWithdrawn, kind)
}

func TestKafkaPublisher(t *testing.T) {
	producer := &fakeProducer{}
	pub := NewKafkaPublisher(producer, "vault-events", 4, time.Second)
	require.NoError(t, pub.Publish(context.Background(), testEvents(), events.Meta{OpID: "op"}))
	assert.Len(t, producer.messages, 2)

	require.NoError(t, pub.Publish(context.Background(), nil, events.Meta{}))
	assert.Len(t, producer.messages, 2)
}

func TestKafkaPublisher_DeliveryError(t *testing.T) {
	producer := &fakeProducer{failWith: errors.New("broker down")}
	pub := NewKafkaPublisher(producer, "vault-events", 1, time.Second)
	err := pub.Publish(context.Background(), testEvents(), events.Meta{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2/2")
}

func TestSendKafkaJobs_Timeout(t *testing.T) {
	producer := &fakeProducer{silent: true}
	jobs, err := BuildJobs(testEvents()[:1], events.Meta{}, "t", 1)
	require.NoError(t, err)

	ok, failed := SendKafkaJobs(context.Background(), producer, jobs, 20*time.Millisecond)
	assert.Empty(t, ok)
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0].Err.Error(), "timeout")
}

func TestSendKafkaJobs_ContextCancelled(t *testing.T) {
	producer := &fakeProducer{silent: true}
	jobs, err := BuildJobs(testEvents(), events.Meta{}, "t", 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, failed := SendKafkaJobs(ctx, producer, jobs, time.Minute)
	require.Len(t, failed, 2)
	assert.ErrorIs(t, failed[0].Err, context.Canceled)
}
