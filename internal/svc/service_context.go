package svc

import (
	"fmt"
	"time"

	"stablecoin-vault-sol/internal/config"
	"stablecoin-vault-sol/internal/logic/progress"
	"stablecoin-vault-sol/internal/logic/runtime"
	"stablecoin-vault-sol/internal/logic/sandbox"
	"stablecoin-vault-sol/internal/metrics"
	"stablecoin-vault-sol/internal/mq"
	"stablecoin-vault-sol/internal/pkg/logger"
	pkgmq "stablecoin-vault-sol/internal/pkg/mq"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/redis/go-redis/v9"
)

// ServiceContext 包含账本服务资源
type ServiceContext struct {
	Config          config.VaultConfig
	World           *sandbox.World
	Producer        *kafka.Producer
	Redis           *redis.Client
	EventSink       mq.EventSink
	ProgressManager *progress.ProgressManager
	Metrics         *metrics.LedgerMetrics
}

// NewServiceContext 创建账本服务上下文
func NewServiceContext(c config.VaultConfig) (*ServiceContext, error) {
	// 1. 日志
	if err := logger.Init(c.LogConf.ToLogOption()); err != nil {
		return nil, fmt.Errorf("logger init: %w", err)
	}

	// 2. 账户存储：配置了目录时使用 LevelDB，否则使用内存
	var store runtime.AccountStore
	if c.Ledger.StorePath != "" {
		ls, err := runtime.NewLevelStore(c.Ledger.StorePath)
		if err != nil {
			logger.Errorf("LevelDB 打开失败: %v", err)
			return nil, err
		}
		store = ls
	} else {
		store = runtime.NewMemStore()
	}

	vaultProgram, err := c.Ledger.VaultProgramID()
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	venueProgram, err := c.Ledger.VenueProgramID()
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	ctx := &ServiceContext{
		Config:  c,
		World:   sandbox.NewWorld(store, vaultProgram, venueProgram),
		Metrics: metrics.NewLedgerMetrics(),
	}

	// 3. Kafka 生产者（可选）
	if c.KafkaProducerConf.Enabled() {
		producer, err := pkgmq.NewKafkaProducer(c.KafkaProducerConf.ToKafkaOption())
		if err != nil {
			logger.Errorf("Kafka producer 初始化失败: %v", err)
			ctx.Close()
			return nil, err
		}
		ctx.Producer = producer
		ctx.EventSink = mq.NewKafkaPublisher(producer,
			c.KafkaProducerConf.Topics.Event,
			c.KafkaProducerConf.Partitions.Event,
			time.Duration(c.TimeConf.EventSendTimeoutMs)*time.Millisecond,
		)
	} else {
		ctx.EventSink = mq.LogSink{}
	}

	// 4. 操作判重：Redis（可选）或进程内
	if c.RedisAddr != "" {
		ctx.Redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		ctx.ProgressManager = progress.NewProgressManager(progress.NewRedisStatusStore(ctx.Redis))
	} else {
		ctx.ProgressManager = progress.NewProgressManager(progress.NewMemStatusStore())
	}

	logger.Infof("账本服务上下文初始化完成: vault=%s, venue=%s", vaultProgram, venueProgram)
	return ctx, nil
}

// Close 关闭服务上下文中的资源
func (ctx *ServiceContext) Close() {
	if ctx.Producer != nil {
		ctx.Producer.Flush(3000)
		ctx.Producer.Close()
	}
	if ctx.Redis != nil {
		_ = ctx.Redis.Close()
	}
	if ctx.World != nil {
		if err := ctx.World.Close(); err != nil {
			logger.Errorf("账本存储关闭失败: %v", err)
		}
	}
	logger.Sync()
}
