/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 10:30:08
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-03-26 14:18:02
 * @FilePath: \go-dvh\models\errors.go
 * @Description: 设备枢纽错误定义 - 基于errorx.BaseError模式
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package models

import (
	"github.com/kamalyes/go-toolbox/pkg/errorx"
)

// 错误类型定义，基于errorx.ErrorType
type ErrorType = errorx.ErrorType

// 设备枢纽错误码常量定义
// 使用 82xxx 区间，避免与其他包冲突（DVH = Device Visual Hub）
const (
	// 设备相关错误 (82000-82099) - 不可重试
	ErrTypeDeviceNotFound       ErrorType = 82001 // 设备未登记
	ErrTypeDeviceOffline        ErrorType = 82002 // 设备不在线
	ErrTypeDeviceIDMissing      ErrorType = 82003 // 设备ID缺失
	ErrTypeRegistrationRejected ErrorType = 82004 // 注册被校验器拒绝

	// 观察者相关错误 (82100-82199) - 不可重试
	ErrTypeObserverNotFound  ErrorType = 82101 // 观察者未找到
	ErrTypeObserverIDMissing ErrorType = 82102 // 观察者ID缺失

	// 帧协议错误 (82200-82299) - 不可重试
	ErrTypeInvalidFrame     ErrorType = 82201 // 无效的帧格式
	ErrTypeUnknownFrameKind ErrorType = 82202 // 未知的帧类型

	// 连接和发送错误 (82300-82399) - 可重试
	ErrTypeConnClosed      ErrorType = 82301 // 连接已关闭
	ErrTypeSendChannelFull ErrorType = 82302 // 发送通道已满
	ErrTypeWriteTimeout    ErrorType = 82303 // 写入超时

	// 集线器操作错误 (82400-82499) - 混合可重试性
	ErrTypeHubStartupTimeout  ErrorType = 82401 // 集线器启动超时 - 可重试
	ErrTypeHubShutdownTimeout ErrorType = 82402 // 集线器关闭超时 - 可重试
	ErrTypeHubNotRunning      ErrorType = 82403 // 集线器未运行 - 不可重试

	// 存储错误 (82500-82599) - 可重试
	ErrTypeStoreUnavailable ErrorType = 82501 // 后端存储不可用
	ErrTypeStoreTimeout     ErrorType = 82502 // 存储操作超时
	ErrTypePubSubNotSet     ErrorType = 82503 // PubSub未配置 - 不可重试
)

// init 初始化所有错误类型注册
// 注意：在运行多个测试包时，可能会看到 "ErrorType XXX is already registered" 的警告信息
// 这是正常现象，errorx包内部会忽略重复注册
func init() {
	// 注册设备相关错误
	errorx.RegisterError(ErrTypeDeviceNotFound, "device not found: %s")
	errorx.RegisterError(ErrTypeDeviceOffline, "device is offline: %s")
	errorx.RegisterError(ErrTypeDeviceIDMissing, "deviceId is required")
	errorx.RegisterError(ErrTypeRegistrationRejected, "registration rejected: %s")

	// 注册观察者相关错误
	errorx.RegisterError(ErrTypeObserverNotFound, "observer not found: %s")
	errorx.RegisterError(ErrTypeObserverIDMissing, "userId is required")

	// 注册帧协议错误
	errorx.RegisterError(ErrTypeInvalidFrame, "invalid frame payload")
	errorx.RegisterError(ErrTypeUnknownFrameKind, "unknown frame kind: %s")

	// 注册连接和发送错误
	errorx.RegisterError(ErrTypeConnClosed, "connection closed")
	errorx.RegisterError(ErrTypeSendChannelFull, "send channel is full")
	errorx.RegisterError(ErrTypeWriteTimeout, "write timeout")

	// 注册集线器操作错误
	errorx.RegisterError(ErrTypeHubStartupTimeout, "hub startup timeout")
	errorx.RegisterError(ErrTypeHubShutdownTimeout, "hub shutdown timeout")
	errorx.RegisterError(ErrTypeHubNotRunning, "hub is not running")

	// 注册存储错误
	errorx.RegisterError(ErrTypeStoreUnavailable, "backing store unavailable")
	errorx.RegisterError(ErrTypeStoreTimeout, "store operation timeout")
	errorx.RegisterError(ErrTypePubSubNotSet, "pubsub is not configured")

	// 包级错误变量必须在所有 RegisterError 完成后赋值
	// 原因：errorx.NewError 依赖已注册的错误消息映射，而 Go 中包级变量初始化先于 init() 执行，
	// 若在 var 初始化期调用 NewError，此时映射为空，会全部回退为 "unknown error"(Type=0)
	ErrDeviceIDMissing = errorx.NewError(ErrTypeDeviceIDMissing)
	ErrObserverIDMissing = errorx.NewError(ErrTypeObserverIDMissing)
	ErrInvalidFrame = errorx.NewError(ErrTypeInvalidFrame)
	ErrConnClosed = errorx.NewError(ErrTypeConnClosed)
	ErrSendChannelFull = errorx.NewError(ErrTypeSendChannelFull)
	ErrHubStartupTimeout = errorx.NewError(ErrTypeHubStartupTimeout)
	ErrHubShutdownTimeout = errorx.NewError(ErrTypeHubShutdownTimeout)
	ErrHubNotRunning = errorx.NewError(ErrTypeHubNotRunning)
	ErrStoreUnavailable = errorx.NewError(ErrTypeStoreUnavailable)
	ErrPubSubNotSet = errorx.NewError(ErrTypePubSubNotSet)
}

// ============================================================================
// 错误变量定义
// ============================================================================

var (
	ErrDeviceIDMissing    errorx.BaseError
	ErrObserverIDMissing  errorx.BaseError
	ErrInvalidFrame       errorx.BaseError
	ErrConnClosed         errorx.BaseError
	ErrSendChannelFull    errorx.BaseError
	ErrHubStartupTimeout  errorx.BaseError
	ErrHubShutdownTimeout errorx.BaseError
	ErrHubNotRunning      errorx.BaseError
	ErrStoreUnavailable   errorx.BaseError
	ErrPubSubNotSet       errorx.BaseError
)

// IsRetryableError 判断错误是否可以重试
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errxErr, ok := err.(interface{ GetType() ErrorType }); ok {
		return IsRetryableErrorType(errxErr.GetType())
	}

	switch err {
	case ErrSendChannelFull, ErrHubStartupTimeout, ErrHubShutdownTimeout, ErrStoreUnavailable:
		return true
	default:
		return false
	}
}

// IsRetryableErrorType 判断错误类型是否可以重试
func IsRetryableErrorType(errType ErrorType) bool {
	switch errType {
	case ErrTypeSendChannelFull, ErrTypeWriteTimeout,
		ErrTypeHubStartupTimeout, ErrTypeHubShutdownTimeout,
		ErrTypeStoreUnavailable, ErrTypeStoreTimeout:
		return true
	default:
		return false
	}
}

// IsDeviceNotFoundError 判断是否为设备未登记错误
func IsDeviceNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errxErr, ok := err.(interface{ GetType() ErrorType }); ok {
		return errxErr.GetType() == ErrTypeDeviceNotFound
	}
	return false
}

// IsSendFailureError 判断是否为发送失败错误（连接关闭或通道满）
func IsSendFailureError(err error) bool {
	if err == nil {
		return false
	}
	if errxErr, ok := err.(interface{ GetType() ErrorType }); ok {
		errType := errxErr.GetType()
		return errType == ErrTypeConnClosed || errType == ErrTypeSendChannelFull
	}
	return err == ErrConnClosed || err == ErrSendChannelFull
}
