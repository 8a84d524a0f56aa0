package config

import (
	"stablecoin-vault-sol/internal/consts"
	"stablecoin-vault-sol/internal/pkg/logger"
	"stablecoin-vault-sol/internal/pkg/mq"
	"stablecoin-vault-sol/internal/types"
)

type LogConfig struct {
	Format   string `json:"format,default=console"` // 日志格式，支持 "console" 或 "json"
	LogDir   string `json:"log_dir,optional"`       // 日志目录（可为相对路径或绝对路径）
	Level    string `json:"level,default=info"`     // 日志级别：debug / info / warn / error
	Compress bool   `json:"compress,optional"`      // 是否压缩旧日志文件
}

func (c *LogConfig) ToLogOption() logger.LogOption {
	return logger.LogOption{
		Format:   c.Format,
		LogDir:   c.LogDir,
		Level:    c.Level,
		Compress: c.Compress,
	}
}

// KafkaProducerConfig 表示 Kafka 生产者相关配置，Brokers 为空时事件只写日志
type KafkaProducerConfig struct {
	Brokers          string `json:"brokers,optional"`           // Kafka broker 地址，多个用英文逗号分隔
	BatchSize        int    `json:"batch_size,default=65536"`   // 批处理大小（单位字节）
	LingerMs         int    `json:"linger_ms,default=5"`        // 批处理最大延迟（毫秒）
	ClientID         string `json:"client_id,default=vault"`    // client.id 前缀
	SecurityProtocol string `json:"security_protocol,optional"` // 默认 plaintext

	Topics struct {
		Event string `json:"event,default=vault-events"` // 账本事件的 Kafka topic
	} `json:"topics"`

	Partitions struct {
		Event int `json:"event,default=8"` // event topic 的分区数
	} `json:"partitions"`
}

func (c *KafkaProducerConfig) Enabled() bool {
	return c.Brokers != ""
}

func (c *KafkaProducerConfig) ToKafkaOption() mq.KafkaProducerOption {
	return mq.KafkaProducerOption{
		Brokers:          c.Brokers,
		BatchSize:        c.BatchSize,
		LingerMs:         c.LingerMs,
		ClientID:         c.ClientID,
		SecurityProtocol: c.SecurityProtocol,
		Topics: []mq.TopicSpec{
			{Topic: c.Topics.Event, Partitions: c.Partitions.Event},
		},
	}
}

// LedgerConfig 描述账本存储与程序地址
type LedgerConfig struct {
	StorePath    string `json:"store_path,optional"`    // LevelDB 目录，为空时使用内存存储
	VaultProgram string `json:"vault_program,optional"` // 抵押金库 Program ID（base58）
	VenueProgram string `json:"venue_program,optional"` // 质押场所 Program ID（base58）
}

func (c *LedgerConfig) VaultProgramID() (types.Pubkey, error) {
	if c.VaultProgram == "" {
		return consts.VaultProgram, nil
	}
	return types.TryPubkeyFromBase58(c.VaultProgram)
}

func (c *LedgerConfig) VenueProgramID() (types.Pubkey, error) {
	if c.VenueProgram == "" {
		return consts.RaydiumStakingProgram, nil
	}
	return types.TryPubkeyFromBase58(c.VenueProgram)
}

// TimeConfig 表示各种超时配置（单位：毫秒）
type TimeConfig struct {
	OpTimeoutMs        int `json:"op_timeout_ms,default=3000"`         // 单个操作（执行 + 发布事件）的最大耗时
	EventSendTimeoutMs int `json:"event_send_timeout_ms,default=5000"` // 单条事件发送到 Kafka 并等待 ack 的超时时间
}

// VaultConfig 是主配置结构体，用于驱动账本服务
type VaultConfig struct {
	LogConf           LogConfig           `json:"logger"`         // 日志配置
	KafkaProducerConf KafkaProducerConfig `json:"kafka_producer"` // Kafka 生产者配置
	TimeConf          TimeConfig          `json:"time_conf"`      // 时间相关配置
	Ledger            LedgerConfig        `json:"ledger"`         // 账本配置

	RedisAddr   string `json:"redis_addr,optional"`   // Redis 地址，为空时使用进程内判重
	ScriptFile  string `json:"script_file"`           // 操作脚本（YAML）
	MetricsAddr string `json:"metrics_addr,optional"` // Prometheus 监听地址，为空时不启动
}
