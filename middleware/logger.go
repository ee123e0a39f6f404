/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 16:08:14
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-03-22 11:40:30
 * @FilePath: \go-dvh\middleware\logger.go
 * @Description: go-dvh 日志接口，直接复用 go-logger
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package middleware

import (
	"time"

	wscconfig "github.com/kamalyes/go-config/pkg/wsc"
	"github.com/kamalyes/go-logger"
)

// DVHLogger 直接使用 go-logger.ILogger
type DVHLogger = logger.ILogger

// NewDVHLogger 创建新的DVH日志器，基于 go-logger
func NewDVHLogger(config *logger.Logger) DVHLogger {
	return config
}

// NewDefaultDVHLogger 创建默认配置的DVH日志器
func NewDefaultDVHLogger() DVHLogger {
	config := logger.NewLogger().
		WithLevel(logger.DEBUG).
		WithPrefix("[DVH] ").
		WithShowCaller(false).
		WithColorful(true).
		WithTimeFormat(time.RFC3339Nano)

	return config
}

// NewNoOpLogger 创建空日志实例
func NewNoOpLogger() DVHLogger {
	return logger.NewEmptyLogger()
}

// 全局日志器
var (
	// DefaultLogger 默认日志器实例
	DefaultLogger DVHLogger = NewDefaultDVHLogger()

	// NoOpLoggerInstance 空日志器实例
	NoOpLoggerInstance DVHLogger = NewNoOpLogger()
)

// SetDefaultLogger 设置默认日志器
func SetDefaultLogger(l DVHLogger) {
	DefaultLogger = l
}

// InitLogger 根据配置初始化日志器
func InitLogger(config *wscconfig.WSC) DVHLogger {
	if config.Logging == nil || !config.Logging.Enabled {
		return NewDefaultDVHLogger()
	}

	return config.Logging.ToLoggerInstance()
}
