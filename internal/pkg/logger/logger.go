package logger

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogOption 日志初始化参数
type LogOption struct {
	Format   string // "console" 或 "json"
	LogDir   string // 日志目录，为空时只输出到 stdout
	Level    string // debug / info / warn / error
	Compress bool   // 是否压缩旧日志文件
}

const (
	defaultLogFile    = "vault.log"
	defaultMaxSizeMB  = 200
	defaultMaxBackups = 10
	defaultMaxAgeDays = 7
)

var sugar atomic.Pointer[zap.SugaredLogger]

func init() {
	// 未调用 Init 前使用 console 输出，保证测试与工具场景可直接打日志
	l, _ := zap.NewDevelopment(zap.AddCallerSkip(1))
	sugar.Store(l.Sugar())
}

// Init 根据配置初始化全局日志：stdout + 可选的按大小滚动文件
func Init(opt LogOption) error {
	level := zapcore.InfoLevel
	if opt.Level != "" {
		if err := level.Set(strings.ToLower(opt.Level)); err != nil {
			return err
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if opt.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level),
	}

	if opt.LogDir != "" {
		if err := os.MkdirAll(opt.LogDir, 0o755); err != nil {
			return err
		}
		writer := &lumberjack.Logger{
			Filename:   filepath.Join(opt.LogDir, defaultLogFile),
			MaxSize:    defaultMaxSizeMB,
			MaxBackups: defaultMaxBackups,
			MaxAge:     defaultMaxAgeDays,
			Compress:   opt.Compress,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(writer), level))
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	sugar.Store(l.Sugar())
	return nil
}

func Sync() {
	_ = sugar.Load().Sync()
}

func Debugf(format string, args ...interface{}) {
	sugar.Load().Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	sugar.Load().Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	sugar.Load().Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	sugar.Load().Errorf(format, args...)
}
