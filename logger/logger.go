package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ContextKey 日志上下文键类型
type ContextKey string

// LoggerKey 请求上下文中日志实例的键
const LoggerKey ContextKey = "logger"

// Log 全局日志实例，Init 之前为控制台输出
var Log = New("debug")

// New 根据运行模式创建日志实例
// debug/test 模式使用可读的控制台格式，release 模式输出 JSON
func New(mode string) zerolog.Logger {
	if mode == "release" {
		return NewWithWriter(os.Stdout).Level(zerolog.InfoLevel)
	}
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Logger()
}

// NewWithWriter 使用自定义 writer 创建日志实例
func NewWithWriter(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

// Init 设置全局日志实例
func Init(mode string) {
	Log = New(mode)
}

// WithContext 将日志实例写入上下文
func WithContext(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, l)
}

// FromContext 从上下文取日志实例，不存在时返回全局实例
func FromContext(ctx context.Context) zerolog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
			return l
		}
	}
	return Log
}
